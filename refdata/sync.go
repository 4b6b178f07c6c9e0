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
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/poiesic/recallit/refcache"
	"github.com/poiesic/recallit/storage"
)

// Sync kinds reported in SyncStatus.Counts
const (
	SyncProfiles = "profiles"
	SyncWebsites = "websites"
)

// StatusKey is the cache key of the last SyncStatus.
var StatusKey = refcache.ItemKey("sync", "status")

// Syncer refreshes cached reference data from the source in bulk.
type Syncer struct {
	service *Service
	now     func() time.Time
	logger  *slog.Logger
}

// SyncOption configures a Syncer.
type SyncOption func(*Syncer) error

// WithSyncLogger sets a custom logger.
// Default is slog.Default().
func WithSyncLogger(logger *slog.Logger) SyncOption {
	return func(s *Syncer) error {
		if logger == nil {
			logger = slog.Default()
		}
		s.logger = logger.With("component", "refdata-sync")
		return nil
	}
}

// WithSyncClock overrides the clock used to stamp SyncStatus.
func WithSyncClock(now func() time.Time) SyncOption {
	return func(s *Syncer) error {
		if now == nil {
			return errors.New("refdata: sync clock required")
		}
		s.now = now
		return nil
	}
}

// NewSyncer creates a syncer over service.
func NewSyncer(service *Service, opts ...SyncOption) (*Syncer, error) {
	if service == nil {
		return nil, ErrServiceRequired
	}
	s := &Syncer{
		service: service,
		now:     time.Now,
		logger:  slog.Default().With("component", "refdata-sync"),
	}
	for _, opt := range opts {
		if err := opt(s); err != nil {
			return nil, err
		}
	}
	return s, nil
}

type syncStep struct {
	kind  string
	title string
	run   func(ctx context.Context) (int, error)
}

// SyncAll refreshes profiles, then websites, bypassing the cache. A failing
// kind is recorded in the status and does not stop the other. The status is
// cached under StatusKey and returned.
func (s *Syncer) SyncAll(ctx context.Context) *SyncStatus {
	start := s.now()
	s.logger.Info("starting full sync")

	steps := []syncStep{
		{SyncProfiles, "Profiles", func(ctx context.Context) (int, error) {
			profiles, err := s.service.ListProfiles(ctx, false)
			return len(profiles), err
		}},
		{SyncWebsites, "Websites", func(ctx context.Context) (int, error) {
			websites, err := s.service.ListWebsites(ctx, false)
			return len(websites), err
		}},
	}

	status := &SyncStatus{Counts: make(map[string]int, len(steps))}
	for _, step := range steps {
		n, err := step.run(ctx)
		if err != nil {
			s.logger.Error("sync step failed", "kind", step.kind, "err", err)
			status.Counts[step.kind] = 0
			status.Errors = append(status.Errors, fmt.Sprintf("%s sync failed: %s", step.title, err))
			continue
		}
		status.Counts[step.kind] = n
		s.logger.Info("synced", "kind", step.kind, "count", n)
	}
	status.Success = len(status.Errors) == 0
	status.LastSyncAt = s.now().UTC()

	s.service.cache.Put(ctx, StatusKey, status, s.service.config.StatusTTL)
	s.logger.Info("sync completed", "success", status.Success, "elapsed", s.now().Sub(start))
	return status
}

// Status returns the last cached SyncStatus.
// Returns storage.ErrNotFound if no sync has run within the status TTL.
func (s *Syncer) Status(ctx context.Context) (*SyncStatus, error) {
	var status SyncStatus
	if !s.service.cache.Get(ctx, StatusKey, &status) {
		return nil, storage.ErrNotFound
	}
	return &status, nil
}
