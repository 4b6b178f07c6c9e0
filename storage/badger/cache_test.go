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
	"sync"
	"testing"
	"time"

	"github.com/poiesic/recallit/storage"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

func newTestCacheStore(t *testing.T) (storage.CacheStore, *fakeClock) {
	t.Helper()
	clock := &fakeClock{now: time.Now()}
	_, cache, backend, err := NewMemoryStores(WithClock(clock.Now))
	require.NoError(t, err)
	t.Cleanup(func() { backend.Close() })
	return cache, clock
}

func TestCacheRepository_PutGet(t *testing.T) {
	cache, _ := newTestCacheStore(t)
	ctx := context.Background()

	require.NoError(t, cache.Put(ctx, "airtable:profile:all", []byte("value"), time.Minute))

	got, err := cache.Get(ctx, "airtable:profile:all")
	require.NoError(t, err)
	assert.Equal(t, []byte("value"), got)

	_, err = cache.Get(ctx, "missing")
	assert.ErrorIs(t, err, storage.ErrNotFound)
}

func TestCacheRepository_Expiry(t *testing.T) {
	cache, clock := newTestCacheStore(t)
	ctx := context.Background()

	require.NoError(t, cache.Put(ctx, "k", []byte("v"), 10*time.Second))

	clock.Advance(9 * time.Second)
	_, err := cache.Get(ctx, "k")
	require.NoError(t, err)

	clock.Advance(time.Second)
	_, err = cache.Get(ctx, "k")
	assert.ErrorIs(t, err, storage.ErrNotFound)
}

func TestCacheRepository_ExpiredRemovalKeepsFreshPut(t *testing.T) {
	cache, clock := newTestCacheStore(t)
	repo := cache.(*CacheRepository)
	ctx := context.Background()

	require.NoError(t, cache.Put(ctx, "k", []byte("stale"), 10*time.Second))
	clock.Advance(10 * time.Second)

	// A Put landing after Get saw the stale entry but before it removes it.
	require.NoError(t, cache.Put(ctx, "k", []byte("fresh"), 10*time.Second))
	require.NoError(t, repo.deleteIfExpired("k"))

	got, err := cache.Get(ctx, "k")
	require.NoError(t, err)
	assert.Equal(t, []byte("fresh"), got)

	clock.Advance(10 * time.Second)
	_, err = cache.Get(ctx, "k")
	assert.ErrorIs(t, err, storage.ErrNotFound)
	require.NoError(t, repo.deleteIfExpired("k"))

	require.NoError(t, cache.Put(ctx, "k", []byte("again"), time.Minute))
	got, err = cache.Get(ctx, "k")
	require.NoError(t, err)
	assert.Equal(t, []byte("again"), got)
}

func TestCacheRepository_NonPositiveTTL(t *testing.T) {
	cache, _ := newTestCacheStore(t)
	ctx := context.Background()

	require.NoError(t, cache.Put(ctx, "k", []byte("old"), time.Minute))
	require.NoError(t, cache.Put(ctx, "k", []byte("new"), 0))

	_, err := cache.Get(ctx, "k")
	assert.ErrorIs(t, err, storage.ErrNotFound)
}

func TestCacheRepository_Delete(t *testing.T) {
	cache, _ := newTestCacheStore(t)
	ctx := context.Background()

	require.NoError(t, cache.Put(ctx, "k", []byte("v"), time.Minute))
	require.NoError(t, cache.Delete(ctx, "k"))
	require.NoError(t, cache.Delete(ctx, "never-set"))

	_, err := cache.Get(ctx, "k")
	assert.ErrorIs(t, err, storage.ErrNotFound)
}

func TestCacheRepository_Closed(t *testing.T) {
	_, cache, backend, err := NewMemoryStores()
	require.NoError(t, err)
	require.NoError(t, backend.Close())

	_, err = cache.Get(context.Background(), "k")
	assert.ErrorIs(t, err, storage.ErrStorageClosed)
}
