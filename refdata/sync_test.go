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


package refdata

import (
	"context"
	"testing"
	"time"

	"github.com/poiesic/recallit/storage"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewSyncer(t *testing.T) {
	_, err := NewSyncer(nil)
	assert.ErrorIs(t, err, ErrServiceRequired)

	svc, _ := newTestService(t, newFakeSource())
	_, err = NewSyncer(svc, WithSyncClock(nil))
	assert.Error(t, err)
}

func TestSyncer_SyncAll(t *testing.T) {
	ctx := context.Background()
	source := newFakeSource()
	source.add("User Profiles",
		profileRecord("rec1", "u1", "Ana", true),
		profileRecord("rec2", "u2", "Ben", true),
	)
	source.add("Websites", websiteRecord("w1", "site-a", "a.example"))
	svc, _ := newTestService(t, source)

	fixed := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	syncer, err := NewSyncer(svc, WithSyncClock(func() time.Time { return fixed }))
	require.NoError(t, err)

	_, err = syncer.Status(ctx)
	assert.ErrorIs(t, err, storage.ErrNotFound)

	status := syncer.SyncAll(ctx)
	assert.True(t, status.Success)
	assert.Empty(t, status.Errors)
	assert.Equal(t, 2, status.Count(SyncProfiles))
	assert.Equal(t, 1, status.Count(SyncWebsites))
	assert.Equal(t, fixed, status.LastSyncAt)

	stored, err := syncer.Status(ctx)
	require.NoError(t, err)
	assert.Equal(t, status.Counts, stored.Counts)
	assert.True(t, stored.LastSyncAt.Equal(fixed))

	t.Run("sync bypasses the cache", func(t *testing.T) {
		before := source.callCount("User Profiles")
		syncer.SyncAll(ctx)
		assert.Equal(t, before+1, source.callCount("User Profiles"))
	})
}

func TestSyncer_PartialFailure(t *testing.T) {
	ctx := context.Background()
	source := newFakeSource()
	source.add("User Profiles",
		profileRecord("rec1", "u1", "Ana", true),
		profileRecord("rec2", "u2", "Ben", true),
		profileRecord("rec3", "u3", "Cy", true),
	)
	source.fail("Websites", errUpstream)
	svc, _ := newTestService(t, source)

	syncer, err := NewSyncer(svc)
	require.NoError(t, err)

	status := syncer.SyncAll(ctx)
	assert.False(t, status.Success)
	assert.Equal(t, 3, status.Count(SyncProfiles))
	assert.Equal(t, 0, status.Count(SyncWebsites))
	require.Len(t, status.Errors, 1)
	assert.Contains(t, status.Errors[0], "Websites sync failed: ")
	assert.Contains(t, status.Errors[0], "503")

	stored, err := syncer.Status(ctx)
	require.NoError(t, err)
	assert.False(t, stored.Success)
	assert.Len(t, stored.Errors, 1)
}
