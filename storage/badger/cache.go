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
	"time"

	"github.com/dgraph-io/badger/v4"
	"github.com/poiesic/recallit/storage"
)

// CacheRepository implements storage.CacheStore for BadgerDB.
//
// Each value is wrapped in a storage.CacheEntry carrying its absolute expiry.
// Expiry is checked on read against the repository clock; the badger TTL is
// set as well so expired entries are garbage collected.
type CacheRepository struct {
	backend *Backend
	now     func() time.Time
}

var _ storage.CacheStore = (*CacheRepository)(nil)

// CacheOption configures a CacheRepository.
type CacheOption func(*CacheRepository) error

// WithClock overrides the clock used for expiry checks.
func WithClock(now func() time.Time) CacheOption {
	return func(r *CacheRepository) error {
		if now == nil {
			return errors.New("clock required")
		}
		r.now = now
		return nil
	}
}

// newCacheRepository is an internal constructor that returns the concrete type.
func newCacheRepository(backend *Backend, opts ...CacheOption) (*CacheRepository, error) {
	if backend == nil {
		return nil, errors.New("backend required")
	}
	r := &CacheRepository{
		backend: backend,
		now:     time.Now,
	}
	for _, opt := range opts {
		if err := opt(r); err != nil {
			return nil, err
		}
	}
	return r, nil
}

// NewCacheStore creates a cache store on an open backend.
func NewCacheStore(backend *Backend, opts ...CacheOption) (storage.CacheStore, error) {
	return newCacheRepository(backend, opts...)
}

// Get returns the value for key, or storage.ErrNotFound if absent or expired.
// Expired entries are removed.
func (r *CacheRepository) Get(ctx context.Context, key string) ([]byte, error) {
	if r.backend.IsClosed() {
		return nil, storage.ErrStorageClosed
	}
	dbKey := makeCacheKey(key)
	var (
		entry   storage.CacheEntry
		expired bool
	)
	err := r.backend.WithTx(func(tx *badger.Txn) error {
		item, err := tx.Get(dbKey)
		if errors.Is(err, badger.ErrKeyNotFound) {
			return storage.ErrNotFound
		}
		if err != nil {
			return err
		}
		if err := item.Value(func(val []byte) error {
			var err error
			entry, err = storage.UnmarshalCacheEntry(val)
			return err
		}); err != nil {
			return err
		}
		expired = entry.Expired(r.now())
		return nil
	}, false)
	if err != nil {
		return nil, err
	}

	if expired {
		if err := r.deleteIfExpired(key); err != nil {
			r.backend.logger.Warn("failed to remove expired cache entry", "key", key, "err", err)
		}
		return nil, storage.ErrNotFound
	}
	return entry.Value, nil
}

// deleteIfExpired removes key only if the stored entry is still expired when
// re-read inside the write transaction. A Put that commits first either
// replaces the entry seen here or makes the commit fail with a conflict; in
// both cases the fresh entry is kept.
func (r *CacheRepository) deleteIfExpired(key string) error {
	dbKey := makeCacheKey(key)
	err := r.backend.WithTx(func(tx *badger.Txn) error {
		item, err := tx.Get(dbKey)
		if errors.Is(err, badger.ErrKeyNotFound) {
			return nil
		}
		if err != nil {
			return err
		}
		var expired bool
		if err := item.Value(func(val []byte) error {
			entry, err := storage.UnmarshalCacheEntry(val)
			if err != nil {
				return err
			}
			expired = entry.Expired(r.now())
			return nil
		}); err != nil {
			return err
		}
		if !expired {
			return nil
		}
		if err := tx.Delete(dbKey); err != nil {
			return err
		}
		return tx.Commit()
	}, true)
	if errors.Is(err, badger.ErrConflict) {
		return nil
	}
	return err
}

// Put stores value under key for ttl.
func (r *CacheRepository) Put(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	if ttl <= 0 {
		return r.Delete(ctx, key)
	}
	if r.backend.IsClosed() {
		return storage.ErrStorageClosed
	}
	entry := storage.CacheEntry{
		ExpiresAt: r.now().Add(ttl),
		Value:     value,
	}
	return r.backend.WithTx(func(tx *badger.Txn) error {
		// badger expiry has one-second resolution; pad it so the entry
		// clock decides.
		e := badger.NewEntry(makeCacheKey(key), storage.MarshalCacheEntry(entry)).
			WithTTL(ttl + time.Second)
		if err := tx.SetEntry(e); err != nil {
			return err
		}
		return tx.Commit()
	}, true)
}

// Delete removes key.
func (r *CacheRepository) Delete(ctx context.Context, key string) error {
	if r.backend.IsClosed() {
		return storage.ErrStorageClosed
	}
	return r.backend.WithTx(func(tx *badger.Txn) error {
		if err := tx.Delete(makeCacheKey(key)); err != nil {
			return err
		}
		return tx.Commit()
	}, true)
}
