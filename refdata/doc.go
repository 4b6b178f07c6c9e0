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


// Package refdata mirrors reference records (user profiles, website
// configurations) from an external table source through a TTL cache.
//
// Service implements the read-through paths and profile updates. Source
// fields are mapped to record fields through explicit FieldMap tables that
// list the accepted aliases of each field in priority order. Syncer
// refreshes every kind in one pass and caches a SyncStatus summary.
//
// Source failures surface as ErrSourceUnavailable with a message naming the
// resource; a missing record is storage.ErrNotFound.
package refdata
