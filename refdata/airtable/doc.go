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


// Package airtable implements refdata.Source over the Airtable REST API.
//
// Requests carry a bearer token and are paced by a token-bucket limiter
// (five per second by default, Airtable's per-base limit). List calls follow
// the offset cursor until the result set or the record cap is exhausted.
package airtable
