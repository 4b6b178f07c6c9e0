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

import "errors"

var (
	// ErrSourceRequired is returned when a reference-data source is not provided.
	ErrSourceRequired = errors.New("reference-data source required")

	// ErrCacheRequired is returned when a cache is not provided.
	ErrCacheRequired = errors.New("cache required")

	// ErrServiceRequired is returned when a service is not provided.
	ErrServiceRequired = errors.New("reference-data service required")

	// ErrSourceUnavailable is returned when the reference-data source fails.
	ErrSourceUnavailable = errors.New("reference-data source unavailable")

	// ErrMalformedRecord is returned when a source record cannot be parsed.
	ErrMalformedRecord = errors.New("malformed reference record")

	// ErrNotConfigured is returned when the source base is not configured.
	ErrNotConfigured = errors.New("reference-data source not configured")
)
