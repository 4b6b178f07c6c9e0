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


package badger

import (
	"context"
	"errors"
	"strings"

	"github.com/dgraph-io/badger/v4"
	"github.com/poiesic/recallit/core"
	"github.com/poiesic/recallit/storage"
)

// CandidateRepository implements storage.CandidateStore for BadgerDB.
//
// Records live under their ID; a recency index keyed by owner, kind,
// creation time and ID serves newest-first queries.
type CandidateRepository struct {
	backend *Backend
}

var _ storage.CandidateStore = (*CandidateRepository)(nil)

// newCandidateRepository is an internal constructor that returns the concrete type.
func newCandidateRepository(backend *Backend) *CandidateRepository {
	return &CandidateRepository{backend: backend}
}

// NewCandidateStore creates a candidate store on an open backend.
// Closing the store does not close the backend.
func NewCandidateStore(backend *Backend) (storage.CandidateStore, error) {
	if backend == nil {
		return nil, errors.New("backend required")
	}
	return newCandidateRepository(backend), nil
}

// Close is a no-op; the backend owns the database handle.
func (r *CandidateRepository) Close() error {
	return nil
}

// PutCandidates inserts or replaces records by ID.
func (r *CandidateRepository) PutCandidates(ctx context.Context, records ...*core.CandidateRecord) error {
	if r.backend.IsClosed() {
		return storage.ErrStorageClosed
	}
	return r.backend.WithTx(func(tx *badger.Txn) error {
		for _, record := range records {
			if record.Id == 0 {
				return storage.ErrMissingID
			}
			key := makeCandidateKey(record.Id)

			// Drop the stale index entry if the record moved
			old, err := r.readCandidate(tx, key)
			if err != nil {
				return err
			}
			newIndexKey := makeRecencyKey(record.OwnerID, record.Kind, record.CreatedAt, record.Id)
			if old != nil {
				oldIndexKey := makeRecencyKey(old.OwnerID, old.Kind, old.CreatedAt, old.Id)
				if string(oldIndexKey) != string(newIndexKey) {
					if err := tx.Delete(oldIndexKey); err != nil {
						return err
					}
				}
			}

			if err := tx.Set(key, storage.MarshalCandidateRecord(record)); err != nil {
				return err
			}
			if err := tx.Set(newIndexKey, storage.MarshalID(record.Id)); err != nil {
				return err
			}
		}
		return tx.Commit()
	}, true)
}

// GetCandidate retrieves a single record by ID.
func (r *CandidateRepository) GetCandidate(ctx context.Context, id core.ID) (*core.CandidateRecord, error) {
	if r.backend.IsClosed() {
		return nil, storage.ErrStorageClosed
	}
	var result *core.CandidateRecord
	err := r.backend.WithTx(func(tx *badger.Txn) error {
		var err error
		result, err = r.readCandidate(tx, makeCandidateKey(id))
		if err != nil {
			return err
		}
		if result == nil {
			return storage.ErrNotFound
		}
		return nil
	}, false)
	return result, err
}

// DeleteCandidates removes records and their index entries.
func (r *CandidateRepository) DeleteCandidates(ctx context.Context, ids ...core.ID) error {
	if r.backend.IsClosed() {
		return storage.ErrStorageClosed
	}
	return r.backend.WithTx(func(tx *badger.Txn) error {
		for _, id := range ids {
			key := makeCandidateKey(id)
			record, err := r.readCandidate(tx, key)
			if err != nil {
				return err
			}
			if record == nil {
				continue
			}
			if err := tx.Delete(makeRecencyKey(record.OwnerID, record.Kind, record.CreatedAt, record.Id)); err != nil {
				return err
			}
			if err := tx.Delete(key); err != nil {
				return err
			}
		}
		return tx.Commit()
	}, true)
}

// RecentCandidates returns records matching the query, newest first.
func (r *CandidateRepository) RecentCandidates(ctx context.Context, query storage.CandidateQuery) ([]*core.CandidateRecord, error) {
	return r.scan(ctx, query, func(*core.CandidateRecord) bool { return true })
}

// MatchKeywords returns records whose Text or Output contains any keyword.
func (r *CandidateRepository) MatchKeywords(ctx context.Context, query storage.CandidateQuery, keywords []string) ([]*core.CandidateRecord, error) {
	if len(keywords) == 0 {
		if err := query.Validate(); err != nil {
			return nil, err
		}
		return nil, nil
	}
	lowered := make([]string, len(keywords))
	for i, kw := range keywords {
		lowered[i] = strings.ToLower(kw)
	}
	return r.scan(ctx, query, func(record *core.CandidateRecord) bool {
		return containsAny(record, lowered)
	})
}

// scan walks the recency index for the query's owner and kind in reverse,
// collecting records that pass the query filters and accept.
func (r *CandidateRepository) scan(ctx context.Context, query storage.CandidateQuery, accept func(*core.CandidateRecord) bool) ([]*core.CandidateRecord, error) {
	if err := query.Validate(); err != nil {
		return nil, err
	}
	if r.backend.IsClosed() {
		return nil, storage.ErrStorageClosed
	}

	var results []*core.CandidateRecord
	err := r.backend.WithTx(func(tx *badger.Txn) error {
		prefix := makeRecencyPrefix(query.OwnerID, query.Kind)
		opts := badger.DefaultIteratorOptions
		opts.Reverse = true
		opts.Prefix = prefix
		iter := tx.NewIterator(opts)
		defer iter.Close()

		for iter.Seek(makeRecencySeekKey(prefix)); iter.ValidForPrefix(prefix); iter.Next() {
			if err := ctx.Err(); err != nil {
				return err
			}
			if query.Limit > 0 && len(results) >= query.Limit {
				break
			}

			var recordID core.ID
			if err := iter.Item().Value(func(val []byte) error {
				var err error
				recordID, err = storage.UnmarshalID(val)
				return err
			}); err != nil {
				return err
			}

			record, err := r.readCandidate(tx, makeCandidateKey(recordID))
			if err != nil {
				return err
			}
			if record == nil || !query.Matches(record) || !accept(record) {
				continue
			}
			results = append(results, record)
		}
		return nil
	}, false)

	return results, err
}

// readCandidate reads a record in tx. Returns nil, nil when absent.
func (r *CandidateRepository) readCandidate(tx *badger.Txn, key []byte) (*core.CandidateRecord, error) {
	item, err := tx.Get(key)
	if errors.Is(err, badger.ErrKeyNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	var record *core.CandidateRecord
	err = item.Value(func(val []byte) error {
		var err error
		record, err = storage.UnmarshalCandidateRecord(val)
		return err
	})
	return record, err
}

func containsAny(record *core.CandidateRecord, lowered []string) bool {
	text := strings.ToLower(record.Text)
	output := strings.ToLower(record.Output)
	for _, kw := range lowered {
		if kw == "" {
			continue
		}
		if strings.Contains(text, kw) || strings.Contains(output, kw) {
			return true
		}
	}
	return false
}
