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


package similarity

import (
	"math/rand"
	"testing"

	"github.com/poiesic/recallit/core"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCosine_Properties(t *testing.T) {
	rng := rand.New(rand.NewSource(42))
	for i := 0; i < 50; i++ {
		a := randomVector(rng, 16)
		b := randomVector(rng, 16)

		ab, err := Cosine(a, b)
		require.NoError(t, err)
		ba, err := Cosine(b, a)
		require.NoError(t, err)
		assert.InDelta(t, ab, ba, 1e-12, "symmetry")
		assert.GreaterOrEqual(t, ab, -1.0)
		assert.LessOrEqual(t, ab, 1.0)

		aa, err := Cosine(a, a)
		require.NoError(t, err)
		assert.InDelta(t, 1.0, aa, 1e-9, "self-similarity")
	}
}

func TestCosine_KnownValues(t *testing.T) {
	tests := []struct {
		name string
		a, b []float32
		want float64
	}{
		{"identical", []float32{1, 0}, []float32{1, 0}, 1},
		{"orthogonal", []float32{1, 0}, []float32{0, 1}, 0},
		{"opposite", []float32{1, 2}, []float32{-1, -2}, -1},
		{"scale invariant", []float32{1, 1}, []float32{3, 3}, 1},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Cosine(tt.a, tt.b)
			require.NoError(t, err)
			assert.InDelta(t, tt.want, got, 1e-9)
		})
	}
}

func TestCosine_Errors(t *testing.T) {
	_, err := Cosine([]float32{1, 2, 3}, []float32{1, 2})
	assert.ErrorIs(t, err, ErrDimensionMismatch)

	_, err = Cosine([]float32{0, 0}, []float32{1, 2})
	assert.ErrorIs(t, err, ErrZeroMagnitude)

	_, err = Cosine(nil, nil)
	assert.ErrorIs(t, err, ErrZeroMagnitude)
}

func TestRank(t *testing.T) {
	scores := []float64{0.9, 0.85, 0.6, 0.95, 0.7}
	candidates := make([]*core.ScoredCandidate, len(scores))
	for i, s := range scores {
		candidates[i] = &core.ScoredCandidate{Record: &core.CandidateRecord{Id: core.ID(i + 1)}, Score: s}
	}

	ranked := Rank(candidates, 0.7, 3)
	require.Len(t, ranked, 3)
	assert.Equal(t, 0.95, ranked[0].Score)
	assert.Equal(t, 0.9, ranked[1].Score)
	assert.Equal(t, 0.85, ranked[2].Score)

	// Threshold is inclusive
	all := Rank(candidates, 0.7, 10)
	require.Len(t, all, 4)
	assert.Equal(t, 0.7, all[3].Score)

	assert.Empty(t, Rank(candidates, 1.1, 10))

	// Input untouched
	assert.Equal(t, 0.9, candidates[0].Score)
}

func TestRank_StableTies(t *testing.T) {
	candidates := []*core.ScoredCandidate{
		{Record: &core.CandidateRecord{Id: 1}, Score: 0.8},
		{Record: &core.CandidateRecord{Id: 2}, Score: 0.9},
		{Record: &core.CandidateRecord{Id: 3}, Score: 0.8},
		{Record: &core.CandidateRecord{Id: 4}, Score: 0.8},
	}
	ranked := Rank(candidates, 0, 0)
	require.Len(t, ranked, 4)
	assert.Equal(t, []core.ID{2, 1, 3, 4}, []core.ID{ranked[0].Record.Id, ranked[1].Record.Id, ranked[2].Record.Id, ranked[3].Record.Id})
}

func randomVector(rng *rand.Rand, dim int) []float32 {
	v := make([]float32, dim)
	for i := range v {
		v[i] = rng.Float32()*2 - 1
	}
	return v
}
