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


package refcache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/poiesic/recallit/storage"
)

const (
	// DefaultPrefix namespaces every key written by a Cache.
	DefaultPrefix = "airtable:"

	// DefaultTTL is the lifetime of entries written through ReadThrough.
	DefaultTTL = 900 * time.Second

	collectionID = "all"
)

// ErrStoreRequired is returned when a cache store is not provided.
var ErrStoreRequired = errors.New("cache store required")

// Key addresses a cached resource. A key with an empty ID names the
// collection of its kind ("kind:all"); otherwise it names one member
// ("kind:id").
type Key struct {
	Kind string
	ID   string
}

// CollectionKey returns the key of the "list all" entry for kind.
func CollectionKey(kind string) Key {
	return Key{Kind: kind}
}

// ItemKey returns the key of one member of kind.
func ItemKey(kind, id string) Key {
	return Key{Kind: kind, ID: id}
}

// IsCollection reports whether k names a collection.
func (k Key) IsCollection() bool {
	return k.ID == ""
}

// Collection returns the collection key of k's kind.
func (k Key) Collection() Key {
	return CollectionKey(k.Kind)
}

func (k Key) String() string {
	if k.IsCollection() {
		return k.Kind + ":" + collectionID
	}
	return k.Kind + ":" + k.ID
}

// Cache is a JSON value cache with per-entry TTL over a storage.CacheStore.
//
// The cache is best effort: read failures are misses and write failures are
// logged and dropped. Concurrent writers are not coordinated; the last write
// to a key wins.
type Cache struct {
	store  storage.CacheStore
	prefix string
	ttl    time.Duration
	logger *slog.Logger
}

// Option configures a Cache.
type Option func(*Cache) error

// WithLogger sets a custom logger.
// Default is slog.Default().
func WithLogger(logger *slog.Logger) Option {
	return func(c *Cache) error {
		if logger == nil {
			logger = slog.Default()
		}
		c.logger = logger.With("component", "refcache")
		return nil
	}
}

// WithPrefix sets the key namespace. Default is DefaultPrefix.
func WithPrefix(prefix string) Option {
	return func(c *Cache) error {
		c.prefix = prefix
		return nil
	}
}

// WithTTL sets the TTL used by ReadThrough. Default is DefaultTTL.
func WithTTL(ttl time.Duration) Option {
	return func(c *Cache) error {
		if ttl <= 0 {
			return fmt.Errorf("ttl must be positive, got %s", ttl)
		}
		c.ttl = ttl
		return nil
	}
}

// NewCache creates a cache on top of store.
func NewCache(store storage.CacheStore, opts ...Option) (*Cache, error) {
	if store == nil {
		return nil, ErrStoreRequired
	}
	c := &Cache{
		store:  store,
		prefix: DefaultPrefix,
		ttl:    DefaultTTL,
		logger: slog.Default().With("component", "refcache"),
	}
	for _, opt := range opts {
		if err := opt(c); err != nil {
			return nil, err
		}
	}
	return c, nil
}

// TTL returns the TTL used for read-through writes.
func (c *Cache) TTL() time.Duration {
	return c.ttl
}

func (c *Cache) storeKey(key Key) string {
	return c.prefix + key.String()
}

// Get decodes the entry for key into dst and reports whether it was a hit.
// Missing, expired, unreadable and undecodable entries are all misses.
func (c *Cache) Get(ctx context.Context, key Key, dst any) bool {
	k := c.storeKey(key)
	data, err := c.store.Get(ctx, k)
	if errors.Is(err, storage.ErrNotFound) {
		return false
	}
	if err != nil {
		c.logger.Warn("cache read failed", "key", k, "err", err)
		return false
	}
	if err := json.Unmarshal(data, dst); err != nil {
		c.logger.Warn("cache entry undecodable", "key", k, "err", err)
		return false
	}
	c.logger.Debug("cache hit", "key", k)
	return true
}

// Put stores value under key for ttl. A non-positive ttl leaves no usable
// entry. Failures are logged and otherwise ignored.
func (c *Cache) Put(ctx context.Context, key Key, value any, ttl time.Duration) {
	k := c.storeKey(key)
	data, err := json.Marshal(value)
	if err != nil {
		c.logger.Warn("cache value not serializable", "key", k, "err", err)
		return
	}
	if err := c.store.Put(ctx, k, data, ttl); err != nil {
		c.logger.Warn("cache write failed", "key", k, "err", err)
		return
	}
	c.logger.Debug("cache set", "key", k, "ttl", ttl)
}

// Invalidate removes key. Invalidating a member also removes its
// collection entry; invalidating a collection leaves members alone.
// Failures are logged and otherwise ignored.
func (c *Cache) Invalidate(ctx context.Context, key Key) {
	keys := []Key{key}
	if !key.IsCollection() {
		keys = append(keys, key.Collection())
	}
	for _, k := range keys {
		sk := c.storeKey(k)
		if err := c.store.Delete(ctx, sk); err != nil {
			c.logger.Warn("cache invalidation failed", "key", sk, "err", err)
			continue
		}
		c.logger.Debug("cache invalidated", "key", sk)
	}
}

// ReadThrough returns the cached value for key when useCache is set and the
// entry is present. Otherwise it calls fetch and caches the result for the
// cache TTL before returning it. Fetch errors are returned unchanged and
// nothing is cached.
func ReadThrough[T any](ctx context.Context, c *Cache, key Key, useCache bool, fetch func(ctx context.Context) (T, error)) (T, error) {
	if useCache {
		var cached T
		if c.Get(ctx, key, &cached) {
			return cached, nil
		}
	}
	value, err := fetch(ctx)
	if err != nil {
		var zero T
		return zero, err
	}
	c.Put(ctx, key, value, c.ttl)
	return value, nil
}
