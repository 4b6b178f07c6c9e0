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
	"errors"
	"time"
)

// Config holds configuration for reference-data access.
type Config struct {
	// BaseID identifies the source base holding the tables.
	BaseID string

	// APIKey authenticates with the source.
	APIKey string

	// ProfilesTable is the name of the user profiles table.
	ProfilesTable string

	// WebsitesTable is the name of the websites table.
	WebsitesTable string

	// CacheTTL is the lifetime of cached records.
	CacheTTL time.Duration

	// StatusTTL is the lifetime of the cached sync status.
	StatusTTL time.Duration
}

// ConfigOption is a functional option for configuring a Config.
type ConfigOption func(*Config)

// WithBaseID sets the source base ID.
func WithBaseID(id string) ConfigOption {
	return func(c *Config) {
		c.BaseID = id
	}
}

// WithAPIKey sets the source API key.
func WithAPIKey(key string) ConfigOption {
	return func(c *Config) {
		c.APIKey = key
	}
}

// WithProfilesTable sets the profiles table name.
func WithProfilesTable(table string) ConfigOption {
	return func(c *Config) {
		if table != "" {
			c.ProfilesTable = table
		}
	}
}

// WithWebsitesTable sets the websites table name.
func WithWebsitesTable(table string) ConfigOption {
	return func(c *Config) {
		if table != "" {
			c.WebsitesTable = table
		}
	}
}

// WithCacheTTL sets the record cache TTL.
func WithCacheTTL(ttl time.Duration) ConfigOption {
	return func(c *Config) {
		c.CacheTTL = ttl
	}
}

// DefaultConfig returns a Config with the standard table names, a 15 minute
// record TTL and a one hour status TTL.
func DefaultConfig() *Config {
	return &Config{
		ProfilesTable: "User Profiles",
		WebsitesTable: "Websites",
		CacheTTL:      900 * time.Second,
		StatusTTL:     3600 * time.Second,
	}
}

// NewConfig creates a Config with the default values and applies the provided options.
func NewConfig(opts ...ConfigOption) *Config {
	cfg := DefaultConfig()
	for _, opt := range opts {
		opt(cfg)
	}
	return cfg
}

// Validate checks that the configuration is usable.
// BaseID is not required here; HealthCheck reports it.
func (c *Config) Validate() error {
	if c.ProfilesTable == "" {
		return errors.New("refdata config: ProfilesTable is required")
	}
	if c.WebsitesTable == "" {
		return errors.New("refdata config: WebsitesTable is required")
	}
	if c.CacheTTL <= 0 {
		return errors.New("refdata config: CacheTTL must be positive")
	}
	if c.StatusTTL <= 0 {
		return errors.New("refdata config: StatusTTL must be positive")
	}
	return nil
}
