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


package search

import "errors"

var (
	// ErrCandidateStoreRequired is returned when a candidate store is not provided.
	ErrCandidateStoreRequired = errors.New("candidate store required")

	// ErrGeneratorRequired is returned when an embedding generator is not provided.
	ErrGeneratorRequired = errors.New("embedding generator required")

	// ErrEmptyQuery is returned when the query text is empty or whitespace only.
	ErrEmptyQuery = errors.New("query is required")

	// ErrRetrievalFailed is returned when the candidate store cannot be read.
	ErrRetrievalFailed = errors.New("candidate retrieval failed")

	// ErrModelMismatch marks a candidate embedded by a different model than the query.
	ErrModelMismatch = errors.New("embedding model mismatch")
)
