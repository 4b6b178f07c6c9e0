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


// Package storage provides the storage abstraction layer for recallit.
//
// Two interfaces decouple business logic from the storage engine:
//
//   - CandidateStore: candidate records with their embeddings, queried by
//     owner and kind in newest-first order
//   - CacheStore: byte values with per-entry expiry, backing the
//     reference-data cache
//
// Implementations live in sub-packages: storage/badger (embedded
// key-value store, both interfaces) and storage/sqlite (candidate records
// in a SQL table).
//
// # Constructor Return Type Pattern
//
// Public constructors return interfaces:
//
//	store, err := badger.NewCandidateStore(backend)  // storage.CandidateStore
//
// Internal constructors may return concrete types.
//
// # Serialization
//
// Records are serialized with mus-go. Vectors are stored in their raw
// little-endian float32 encoding (see core.EncodeVector).
package storage
