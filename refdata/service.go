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
	"strings"

	"github.com/poiesic/recallit/refcache"
	"github.com/poiesic/recallit/storage"
)

// Cache kinds
const (
	KindProfile = "profile"
	KindWebsite = "website"
)

// Service reads reference records through the cache and writes profile
// updates back to the source.
type Service struct {
	source Source
	cache  *refcache.Cache
	config *Config
	logger *slog.Logger
}

// Option configures a Service.
type Option func(*Service) error

// WithLogger sets a custom logger.
// Default is slog.Default().
func WithLogger(logger *slog.Logger) Option {
	return func(s *Service) error {
		if logger == nil {
			logger = slog.Default()
		}
		s.logger = logger.With("component", "refdata")
		return nil
	}
}

// NewService creates a reference-data service. A nil config uses DefaultConfig.
func NewService(source Source, cache *refcache.Cache, config *Config, opts ...Option) (*Service, error) {
	if source == nil {
		return nil, ErrSourceRequired
	}
	if cache == nil {
		return nil, ErrCacheRequired
	}
	if config == nil {
		config = DefaultConfig()
	}
	if err := config.Validate(); err != nil {
		return nil, err
	}
	s := &Service{
		source: source,
		cache:  cache,
		config: config,
		logger: slog.Default().With("component", "refdata"),
	}
	for _, opt := range opts {
		if err := opt(s); err != nil {
			return nil, err
		}
	}
	return s, nil
}

// profileUserKey is the cache key of a profile looked up by user ID.
func profileUserKey(userID string) refcache.Key {
	return refcache.ItemKey(KindProfile, "user:"+userID)
}

// ListProfiles returns all enabled user profiles.
func (s *Service) ListProfiles(ctx context.Context, useCache bool) ([]UserProfile, error) {
	return refcache.ReadThrough(ctx, s.cache, refcache.CollectionKey(KindProfile), useCache,
		func(ctx context.Context) ([]UserProfile, error) {
			s.logger.Info("fetching user profiles from source")
			records, err := s.source.ListRecords(ctx, s.config.ProfilesTable, Query{FilterByFormula: EnabledFormula})
			if err != nil {
				return nil, s.sourceError("failed to fetch user profiles", err)
			}
			return parseAll(records, ParseUserProfile)
		})
}

// GetProfile returns one profile by record ID.
func (s *Service) GetProfile(ctx context.Context, id string, useCache bool) (*UserProfile, error) {
	profile, err := refcache.ReadThrough(ctx, s.cache, refcache.ItemKey(KindProfile, id), useCache,
		func(ctx context.Context) (UserProfile, error) {
			s.logger.Info("fetching profile", "id", id)
			record, err := s.source.GetRecord(ctx, s.config.ProfilesTable, id)
			if err != nil {
				return UserProfile{}, s.sourceError(fmt.Sprintf("failed to fetch profile %s", id), err)
			}
			return parseOne(*record, ParseUserProfile)
		})
	if err != nil {
		return nil, err
	}
	return &profile, nil
}

// GetProfileByUserID returns the profile whose userId field matches userID.
func (s *Service) GetProfileByUserID(ctx context.Context, userID string, useCache bool) (*UserProfile, error) {
	profile, err := refcache.ReadThrough(ctx, s.cache, profileUserKey(userID), useCache,
		func(ctx context.Context) (UserProfile, error) {
			s.logger.Info("fetching profile by user", "userId", userID)
			records, err := s.source.ListRecords(ctx, s.config.ProfilesTable, Query{
				FilterByFormula: fieldEquals("userId", userID),
				MaxRecords:      1,
			})
			if err != nil {
				return UserProfile{}, s.sourceError(fmt.Sprintf("failed to fetch profile for user %s", userID), err)
			}
			if len(records) == 0 {
				return UserProfile{}, storage.ErrNotFound
			}
			return parseOne(records[0], ParseUserProfile)
		})
	if err != nil {
		return nil, err
	}
	return &profile, nil
}

// UpdateProfile patches a profile in the source and invalidates its cached
// entries, including the profile collection. The by-user entries for both the
// previously cached userId and the one returned by the source are dropped
// before the response is parsed.
func (s *Service) UpdateProfile(ctx context.Context, id string, update ProfileUpdate) (*UserProfile, error) {
	fields, err := update.Fields()
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrMalformedRecord, err)
	}

	oldUserID := s.cachedProfileUserID(ctx, id)

	s.logger.Info("updating profile", "id", id, "fields", len(fields))
	record, err := s.source.UpdateRecord(ctx, s.config.ProfilesTable, id, fields)
	if err != nil {
		return nil, s.sourceError(fmt.Sprintf("failed to update profile %s", id), err)
	}

	s.cache.Invalidate(ctx, refcache.ItemKey(KindProfile, id))
	if oldUserID != "" {
		s.cache.Invalidate(ctx, profileUserKey(oldUserID))
	}
	if newUserID, _ := record.Fields["userId"].(string); newUserID != "" && newUserID != oldUserID {
		s.cache.Invalidate(ctx, profileUserKey(newUserID))
	}

	updated, err := parseOne(*record, ParseUserProfile)
	if err != nil {
		return nil, err
	}
	return &updated, nil
}

// cachedProfileUserID returns the userId of profile id as currently cached,
// or "" when neither the item nor the collection holds it.
func (s *Service) cachedProfileUserID(ctx context.Context, id string) string {
	var profile UserProfile
	if s.cache.Get(ctx, refcache.ItemKey(KindProfile, id), &profile) {
		return profile.UserID
	}
	var profiles []UserProfile
	if s.cache.Get(ctx, refcache.CollectionKey(KindProfile), &profiles) {
		for _, p := range profiles {
			if p.ID == id {
				return p.UserID
			}
		}
	}
	return ""
}

// ListWebsites returns all enabled websites.
func (s *Service) ListWebsites(ctx context.Context, useCache bool) ([]Website, error) {
	return refcache.ReadThrough(ctx, s.cache, refcache.CollectionKey(KindWebsite), useCache,
		func(ctx context.Context) ([]Website, error) {
			s.logger.Info("fetching websites from source")
			records, err := s.source.ListRecords(ctx, s.config.WebsitesTable, Query{FilterByFormula: EnabledFormula})
			if err != nil {
				return nil, s.sourceError("failed to fetch websites", err)
			}
			return parseAll(records, ParseWebsite)
		})
}

// GetWebsite returns the website whose websiteId field matches websiteID.
func (s *Service) GetWebsite(ctx context.Context, websiteID string, useCache bool) (*Website, error) {
	website, err := refcache.ReadThrough(ctx, s.cache, refcache.ItemKey(KindWebsite, websiteID), useCache,
		func(ctx context.Context) (Website, error) {
			s.logger.Info("fetching website", "websiteId", websiteID)
			records, err := s.source.ListRecords(ctx, s.config.WebsitesTable, Query{
				FilterByFormula: fieldEquals("websiteId", websiteID),
				MaxRecords:      1,
			})
			if err != nil {
				return Website{}, s.sourceError(fmt.Sprintf("failed to fetch website %s", websiteID), err)
			}
			if len(records) == 0 {
				return Website{}, storage.ErrNotFound
			}
			return parseOne(records[0], ParseWebsite)
		})
	if err != nil {
		return nil, err
	}
	return &website, nil
}

// HealthCheck verifies that the source is configured and reachable.
func (s *Service) HealthCheck(ctx context.Context) error {
	if s.config.BaseID == "" {
		return ErrNotConfigured
	}
	if _, err := s.source.ListRecords(ctx, s.config.ProfilesTable, Query{MaxRecords: 1}); err != nil {
		return s.sourceError("health check failed", err)
	}
	return nil
}

// sourceError wraps a source failure. Not-found passes through unchanged.
func (s *Service) sourceError(msg string, err error) error {
	if errors.Is(err, storage.ErrNotFound) {
		return err
	}
	s.logger.Error(msg, "err", err)
	return fmt.Errorf("%w: %s: %w", ErrSourceUnavailable, msg, err)
}

// fieldEquals builds a formula matching field against a string literal.
func fieldEquals(field, value string) string {
	escaped := strings.ReplaceAll(strings.ReplaceAll(value, `\`, `\\`), `"`, `\"`)
	return fmt.Sprintf(`{%s} = "%s"`, field, escaped)
}

func parseOne[T any](record Record, parse func(Record) (T, error)) (T, error) {
	v, err := parse(record)
	if err != nil {
		var zero T
		return zero, fmt.Errorf("%w: record %s: %w", ErrMalformedRecord, record.ID, err)
	}
	return v, nil
}

func parseAll[T any](records []Record, parse func(Record) (T, error)) ([]T, error) {
	out := make([]T, 0, len(records))
	for _, record := range records {
		v, err := parseOne(record, parse)
		if err != nil {
			return nil, err
		}
		out = append(out, v)
	}
	return out, nil
}
