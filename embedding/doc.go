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


// Package embedding converts text into model-tagged embedding vectors.
//
// The Generator wraps an ai.Embedder: it rejects blank input, truncates
// long input to MaxInputChars characters, and reports provider failures as
// ErrProviderFailure. It does not retry and does not batch.
//
//	gen, err := embedding.NewGenerator(embedder)
//	emb, err := gen.Generate(ctx, "some text")
//	// emb.Model, emb.Vector
package embedding
