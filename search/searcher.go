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
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/poiesic/recallit/core"
	"github.com/poiesic/recallit/embedding"
	"github.com/poiesic/recallit/similarity"
	"github.com/poiesic/recallit/storage"
)

// ScanWindow is the number of most recent embedded candidates scored per query.
// Older records are not considered.
const ScanWindow = 100

// settings holds configuration shared by Searcher and KeywordSearcher.
type settings struct {
	logger     *slog.Logger
	scanWindow int
}

// Option configures a Searcher or KeywordSearcher.
type Option func(*settings) error

// WithLogger sets a custom logger.
// Default is slog.Default().
func WithLogger(logger *slog.Logger) Option {
	return func(s *settings) error {
		if logger == nil {
			logger = slog.Default()
		}
		s.logger = logger
		return nil
	}
}

// WithScanWindow overrides the candidate window size.
func WithScanWindow(n int) Option {
	return func(s *settings) error {
		if n <= 0 {
			return fmt.Errorf("scan window must be positive, got %d", n)
		}
		s.scanWindow = n
		return nil
	}
}

func newSettings(component string, opts []Option) (*settings, error) {
	s := &settings{
		logger:     slog.Default(),
		scanWindow: ScanWindow,
	}
	for _, opt := range opts {
		if err := opt(s); err != nil {
			return nil, err
		}
	}
	s.logger = s.logger.With("component", component)
	return s, nil
}

// Result is the outcome of a semantic search.
type Result struct {
	// Candidates holds the ranked matches, best first.
	Candidates []*core.ScoredCandidate

	// EmbeddingErr is set when the query could not be embedded. Candidates
	// is then empty and the caller may fall back to keyword search.
	EmbeddingErr error

	// Scanned is the number of candidates fetched from the store.
	Scanned int

	// Skipped is the number of fetched candidates left unscored.
	Skipped int
}

// EmbeddingUnavailable reports whether the query embedding failed.
func (r *Result) EmbeddingUnavailable() bool {
	return r.EmbeddingErr != nil
}

// Searcher ranks an owner's recent records by semantic similarity to a query.
//
// A search runs these steps in order, without retries: embed the query,
// fetch the newest embedded candidates of the requested kind (at most the
// scan window), score each against the query, then filter, sort and truncate.
type Searcher struct {
	store     storage.CandidateStore
	generator *embedding.Generator
	*settings
}

// NewSearcher creates a new searcher.
func NewSearcher(store storage.CandidateStore, generator *embedding.Generator, opts ...Option) (*Searcher, error) {
	if store == nil {
		return nil, ErrCandidateStoreRequired
	}
	if generator == nil {
		return nil, ErrGeneratorRequired
	}
	s, err := newSettings("searcher", opts)
	if err != nil {
		return nil, err
	}
	return &Searcher{
		store:     store,
		generator: generator,
		settings:  s,
	}, nil
}

// Search returns the owner's records of kind most similar to queryText.
// Candidates scoring below minSimilarity are dropped; at most limit are
// returned (similarity.DefaultLimit when limit is not positive).
func (s *Searcher) Search(ctx context.Context, ownerID, queryText string, kind core.Kind, limit int, minSimilarity float64) (*Result, error) {
	return s.SearchWithMonitor(ctx, ownerID, queryText, kind, limit, minSimilarity, nil)
}

// SearchWithMonitor is Search with stage callbacks delivered to monitor.
//
// An unavailable query embedding is not an error: the result is empty with
// EmbeddingErr set. Store failures wrap ErrRetrievalFailed. Candidates with
// a malformed vector, a zero vector or a different embedding model are
// skipped with a warning. A same-model candidate whose dimensionality
// differs from the query fails the search with similarity.ErrDimensionMismatch.
func (s *Searcher) SearchWithMonitor(ctx context.Context, ownerID, queryText string, kind core.Kind, limit int, minSimilarity float64, monitor SearchMonitor) (*Result, error) {
	if monitor == nil {
		monitor = &noopMonitor{}
	}
	if strings.TrimSpace(queryText) == "" {
		return nil, ErrEmptyQuery
	}
	if ownerID == "" {
		return nil, core.ErrEmptyOwner
	}
	if err := core.ValidateKind(kind); err != nil {
		return nil, err
	}

	monitor.Start(ownerID, queryText)

	// 1. Embed the query
	query, err := s.generator.Generate(ctx, queryText)
	monitor.AfterEmbedding(query, err)
	if err != nil {
		s.logger.Warn("query embedding unavailable", "owner", ownerID, "err", err)
		result := &Result{Candidates: []*core.ScoredCandidate{}, EmbeddingErr: err}
		monitor.Finish(result.Candidates)
		return result, nil
	}

	// 2. Fetch the candidate window
	records, err := s.store.RecentCandidates(ctx, storage.CandidateQuery{
		OwnerID:   ownerID,
		Kind:      kind,
		Embedding: storage.WithEmbedding,
		Limit:     s.scanWindow,
	})
	if err != nil {
		s.logger.Error("error fetching candidates", "owner", ownerID, "kind", kind, "err", err)
		return nil, fmt.Errorf("%w: %w", ErrRetrievalFailed, err)
	}
	monitor.AfterCandidateFetch(records)

	// 3. Score
	result := &Result{Scanned: len(records)}
	scored := make([]*core.ScoredCandidate, 0, len(records))
	for _, record := range records {
		score, err := s.score(query, record)
		if errors.Is(err, similarity.ErrDimensionMismatch) {
			s.logger.Error("candidate dimensionality differs from query", "id", record.Id, "model", query.Model, "err", err)
			return nil, err
		}
		if err != nil {
			s.logger.Warn("skipping candidate", "id", record.Id, "err", err)
			monitor.CandidateSkipped(record, err)
			result.Skipped++
			continue
		}
		candidate := &core.ScoredCandidate{Record: record, Score: score}
		monitor.CandidateScored(candidate)
		scored = append(scored, candidate)
	}

	// 4. Filter, sort, truncate
	result.Candidates = similarity.Rank(scored, minSimilarity, limit)
	monitor.Finish(result.Candidates)

	s.logger.Debug("search complete", "owner", ownerID, "kind", kind, "scanned", result.Scanned, "skipped", result.Skipped, "results", len(result.Candidates))
	return result, nil
}

// score computes the similarity of one candidate to the query embedding.
// Records without a model tag predate model tracking and are compared as-is.
func (s *Searcher) score(query *core.Embedding, record *core.CandidateRecord) (float64, error) {
	if record.EmbeddingModel != "" && record.EmbeddingModel != query.Model {
		return 0, fmt.Errorf("%w: candidate %q, query %q", ErrModelMismatch, record.EmbeddingModel, query.Model)
	}
	vector, err := record.Vector()
	if err != nil {
		return 0, err
	}
	return similarity.Cosine(query.Vector, vector)
}
