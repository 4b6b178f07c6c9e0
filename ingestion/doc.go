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


// Package ingestion saves candidate records and keeps their embeddings
// current.
//
// Save stamps, validates and enriches one record before storing it; the
// embedding is best effort, so a provider outage never loses content.
// Backfill later embeds records that were stored without a vector or with a
// vector from another model, using a worker pool and retry with backoff.
package ingestion
