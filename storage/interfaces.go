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


package storage

import (
	"context"
	"time"

	"github.com/poiesic/recallit/core"
)

// EmbeddingFilter restricts a candidate query by embedding presence.
type EmbeddingFilter int

const (
	// AnyEmbedding matches records with or without an embedding.
	AnyEmbedding EmbeddingFilter = iota
	// WithEmbedding matches only records that carry an embedding.
	WithEmbedding
	// WithoutEmbedding matches only records missing an embedding.
	WithoutEmbedding
)

// CandidateQuery selects candidate records for one owner and kind.
// Results are always ordered by CreatedAt descending (newest first).
type CandidateQuery struct {
	OwnerID   string
	Kind      core.Kind
	Embedding EmbeddingFilter
	// Limit caps the number of returned records. Zero or negative means no cap.
	Limit int
}

// Validate checks that the query names an owner and a valid kind.
func (q CandidateQuery) Validate() error {
	if q.OwnerID == "" {
		return ErrInvalidQuery
	}
	if err := core.ValidateKind(q.Kind); err != nil {
		return ErrInvalidQuery
	}
	return nil
}

// Matches reports whether a record satisfies the query's filters.
// Limit is not considered.
func (q CandidateQuery) Matches(record *core.CandidateRecord) bool {
	if record.OwnerID != q.OwnerID || record.Kind != q.Kind {
		return false
	}
	switch q.Embedding {
	case WithEmbedding:
		return record.HasEmbedding()
	case WithoutEmbedding:
		return !record.HasEmbedding()
	}
	return true
}

// CandidateStore persists candidate records.
// Implementations must be thread-safe and support concurrent access.
type CandidateStore interface {
	// PutCandidates inserts or replaces records by ID.
	// Records must already carry an ID.
	PutCandidates(ctx context.Context, records ...*core.CandidateRecord) error

	// GetCandidate retrieves a single record by ID.
	// Returns ErrNotFound if the record doesn't exist.
	GetCandidate(ctx context.Context, id core.ID) (*core.CandidateRecord, error)

	// DeleteCandidates removes records by ID. Missing IDs are ignored.
	DeleteCandidates(ctx context.Context, ids ...core.ID) error

	// RecentCandidates returns records matching the query, newest first.
	RecentCandidates(ctx context.Context, query CandidateQuery) ([]*core.CandidateRecord, error)

	// MatchKeywords returns records matching the query whose Text or Output
	// contains any of the keywords (case-insensitive), newest first.
	// An empty keyword list matches nothing.
	MatchKeywords(ctx context.Context, query CandidateQuery, keywords []string) ([]*core.CandidateRecord, error)

	// Close releases resources held by the store.
	Close() error
}

// CacheStore is a byte-oriented key-value store with per-entry expiry.
// Implementations must be thread-safe.
type CacheStore interface {
	// Get returns the value for key.
	// Returns ErrNotFound if the key is absent or expired.
	Get(ctx context.Context, key string) ([]byte, error)

	// Put stores value under key for ttl. A non-positive ttl leaves the key
	// absent, so the next Get misses.
	Put(ctx context.Context, key string, value []byte, ttl time.Duration) error

	// Delete removes key. Deleting an absent key is not an error.
	Delete(ctx context.Context, key string) error
}
