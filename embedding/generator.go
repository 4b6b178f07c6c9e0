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


package embedding

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"unicode/utf8"

	"github.com/poiesic/recallit/ai"
	"github.com/poiesic/recallit/core"
)

// MaxInputChars is the number of characters sent to the provider.
// Longer inputs are truncated to this prefix.
const MaxInputChars = 8000

// Generator turns text into embeddings tagged with the producing model.
// It makes exactly one provider call per Generate and never retries.
type Generator struct {
	embedder ai.Embedder
	maxChars int
	logger   *slog.Logger
}

// Option configures a Generator.
type Option func(*Generator) error

// WithLogger sets a custom logger.
// Default is slog.Default().
func WithLogger(logger *slog.Logger) Option {
	return func(g *Generator) error {
		if logger == nil {
			logger = slog.Default()
		}
		g.logger = logger.With("component", "embedding-generator")
		return nil
	}
}

// WithMaxChars overrides the truncation limit.
func WithMaxChars(n int) Option {
	return func(g *Generator) error {
		if n <= 0 {
			return fmt.Errorf("max chars must be positive, got %d", n)
		}
		g.maxChars = n
		return nil
	}
}

// NewGenerator creates a generator on top of an embedding provider.
func NewGenerator(embedder ai.Embedder, opts ...Option) (*Generator, error) {
	if embedder == nil {
		return nil, ErrEmbedderRequired
	}
	g := &Generator{
		embedder: embedder,
		maxChars: MaxInputChars,
		logger:   slog.Default().With("component", "embedding-generator"),
	}
	for _, opt := range opts {
		if err := opt(g); err != nil {
			return nil, err
		}
	}
	return g, nil
}

// Model returns the identifier of the model behind the generator.
func (g *Generator) Model() string {
	return g.embedder.Model()
}

// Generate embeds text. Blank text fails with ErrEmptyText without calling
// the provider; provider errors and empty vectors fail with ErrProviderFailure.
func (g *Generator) Generate(ctx context.Context, text string) (*core.Embedding, error) {
	if strings.TrimSpace(text) == "" {
		return nil, ErrEmptyText
	}

	input := Truncate(text, g.maxChars)
	if len(input) < len(text) {
		g.logger.Debug("truncated embedding input", "chars", utf8.RuneCountInString(text), "limit", g.maxChars)
	}

	vector, err := g.embedder.EmbedText(ctx, input)
	if err != nil {
		g.logger.Error("embedding generation failed", "model", g.embedder.Model(), "err", err)
		return nil, fmt.Errorf("%w: %w", ErrProviderFailure, err)
	}
	if len(vector) == 0 {
		g.logger.Error("embedding provider returned no vector", "model", g.embedder.Model())
		return nil, fmt.Errorf("%w: empty vector", ErrProviderFailure)
	}

	return &core.Embedding{
		Model:  g.embedder.Model(),
		Vector: vector,
	}, nil
}

// Truncate returns the first maxChars characters of text.
// Characters are counted as Unicode code points, so multi-byte characters
// are never split.
func Truncate(text string, maxChars int) string {
	if maxChars <= 0 {
		return ""
	}
	if len(text) <= maxChars {
		return text
	}
	count := 0
	for i := range text {
		if count == maxChars {
			return text[:i]
		}
		count++
	}
	return text
}
