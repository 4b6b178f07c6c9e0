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
	"errors"
	"strings"
	"testing"
	"unicode/utf8"

	"github.com/poiesic/recallit/ai/mock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewGenerator_RequiresEmbedder(t *testing.T) {
	_, err := NewGenerator(nil)
	assert.ErrorIs(t, err, ErrEmbedderRequired)
}

func TestGenerate_Success(t *testing.T) {
	embedder := mock.NewMockEmbedder()
	embedder.EmbedTextFunc = func(ctx context.Context, text string) ([]float32, error) {
		return []float32{0.1, 0.2, 0.3}, nil
	}
	gen, err := NewGenerator(embedder)
	require.NoError(t, err)

	emb, err := gen.Generate(context.Background(), "hello world")
	require.NoError(t, err)
	assert.Equal(t, mock.DefaultModel, emb.Model)
	assert.Equal(t, []float32{0.1, 0.2, 0.3}, emb.Vector)
	assert.Equal(t, 3, emb.Dimensions())
	assert.Equal(t, mock.DefaultModel, gen.Model())
}

func TestGenerate_EmptyTextSkipsProvider(t *testing.T) {
	embedder := mock.NewMockEmbedder()
	gen, err := NewGenerator(embedder)
	require.NoError(t, err)

	for _, text := range []string{"", "   ", "\n\t"} {
		_, err := gen.Generate(context.Background(), text)
		assert.ErrorIs(t, err, ErrEmptyText)
	}
	assert.Equal(t, 0, embedder.CallCount())
}

func TestGenerate_Truncates(t *testing.T) {
	var received string
	embedder := mock.NewMockEmbedder()
	embedder.EmbedTextFunc = func(ctx context.Context, text string) ([]float32, error) {
		received = text
		return []float32{1}, nil
	}
	gen, err := NewGenerator(embedder)
	require.NoError(t, err)

	long := strings.Repeat("x", 10000)
	_, err = gen.Generate(context.Background(), long)
	require.NoError(t, err)
	assert.Len(t, received, MaxInputChars)
	assert.Equal(t, 1, embedder.CallCount())
}

func TestGenerate_ProviderFailure(t *testing.T) {
	tests := []struct {
		name string
		fn   func(ctx context.Context, text string) ([]float32, error)
	}{
		{"provider error", func(ctx context.Context, text string) ([]float32, error) {
			return nil, errors.New("503 service unavailable")
		}},
		{"empty vector", func(ctx context.Context, text string) ([]float32, error) {
			return []float32{}, nil
		}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			embedder := mock.NewMockEmbedder()
			embedder.EmbedTextFunc = tt.fn
			gen, err := NewGenerator(embedder)
			require.NoError(t, err)

			emb, err := gen.Generate(context.Background(), "hello")
			assert.Nil(t, emb)
			assert.ErrorIs(t, err, ErrProviderFailure)
			assert.Equal(t, 1, embedder.CallCount())
		})
	}
}

func TestWithMaxChars(t *testing.T) {
	_, err := NewGenerator(mock.NewMockEmbedder(), WithMaxChars(0))
	assert.Error(t, err)
}

func TestTruncate(t *testing.T) {
	assert.Equal(t, "abc", Truncate("abc", 5))
	assert.Equal(t, "ab", Truncate("abc", 2))
	assert.Equal(t, "", Truncate("abc", 0))

	// Multi-byte characters count once and are never split
	s := strings.Repeat("é", 10)
	got := Truncate(s, 4)
	assert.Equal(t, 4, utf8.RuneCountInString(got))
	assert.True(t, utf8.ValidString(got))
}
