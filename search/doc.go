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


// Package search retrieves candidate records by semantic similarity or by
// keyword match.
//
// Searcher embeds the query, scans a bounded window of the owner's most
// recent embedded records, scores each by cosine similarity and returns the
// best matches above a threshold. When the query cannot be embedded the
// result is empty with Result.EmbeddingErr set; the caller decides whether
// to fall back to KeywordSearcher, which matches extracted keywords against
// record text without needing embeddings.
//
// A SearchMonitor passed to SearchWithMonitor observes every stage;
// LogMonitor traces them to a logger.
package search
