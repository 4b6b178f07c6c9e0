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


// Package ai provides abstractions for the AI services used by recallit.
//
// The only service is the Embedder, which turns text into vectors for
// semantic similarity search. Business logic depends on the interface;
// implementations live in sub-packages:
//
//   - ai/openai: production implementation using OpenAI-compatible APIs
//     (OpenRouter by default)
//   - ai/mock: test double with deterministic vectors
//
// Public constructors in ai/openai return the ai.Embedder interface.
// mock.NewMockEmbedder returns the concrete type so tests can inject
// behavior and inspect call counts.
//
// # Usage Example
//
//	config := ai.NewConfig(ai.WithAPIKey(os.Getenv("OPENROUTER_API_KEY")))
//	embedder, err := openai.NewEmbedder(config)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	vector, err := embedder.EmbedText(ctx, "Hello world")
package ai
