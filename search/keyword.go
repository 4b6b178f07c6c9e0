// Copyright 2025 Poiesic Systems
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.


package search

import (
	"context"
	"fmt"
	"strings"

	"github.com/poiesic/recallit/core"
	"github.com/poiesic/recallit/keywords"
	"github.com/poiesic/recallit/similarity"
	"github.com/poiesic/recallit/storage"
)

// KeywordResult is the outcome of a keyword search.
type KeywordResult struct {
	// Keywords extracted from the query.
	Keywords []string
	// Records matching any keyword, newest first.
	Records []*core.CandidateRecord
}

// KeywordSearcher finds records by keyword match. It is the fallback path
// when a query cannot be embedded and works on records with or without
// embeddings.
type KeywordSearcher struct {
	store storage.CandidateStore
	*settings
}

// NewKeywordSearcher creates a new keyword searcher.
func NewKeywordSearcher(store storage.CandidateStore, opts ...Option) (*KeywordSearcher, error) {
	if store == nil {
		return nil, ErrCandidateStoreRequired
	}
	s, err := newSettings("keyword-searcher", opts)
	if err != nil {
		return nil, err
	}
	return &KeywordSearcher{store: store, settings: s}, nil
}

// Search returns the owner's records of kind whose text or output contains
// any keyword of queryText, newest first, at most limit
// (similarity.DefaultLimit when limit is not positive). A query without
// usable keywords matches nothing and does not touch the store.
func (k *KeywordSearcher) Search(ctx context.Context, ownerID, queryText string, kind core.Kind, limit int) (*KeywordResult, error) {
	if strings.TrimSpace(queryText) == "" {
		return nil, ErrEmptyQuery
	}
	if ownerID == "" {
		return nil, core.ErrEmptyOwner
	}
	if err := core.ValidateKind(kind); err != nil {
		return nil, err
	}
	if limit <= 0 {
		limit = similarity.DefaultLimit
	}

	result := &KeywordResult{
		Keywords: keywords.Extract(queryText),
		Records:  []*core.CandidateRecord{},
	}
	if len(result.Keywords) == 0 {
		k.logger.Debug("query has no keywords", "query", queryText)
		return result, nil
	}

	records, err := k.store.MatchKeywords(ctx, storage.CandidateQuery{
		OwnerID: ownerID,
		Kind:    kind,
		Limit:   limit,
	}, result.Keywords)
	if err != nil {
		k.logger.Error("error matching keywords", "owner", ownerID, "kind", kind, "err", err)
		return nil, fmt.Errorf("%w: %w", ErrRetrievalFailed, err)
	}
	if records != nil {
		result.Records = records
	}
	return result, nil
}
