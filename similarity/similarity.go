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
	"cmp"
	"fmt"
	"math"
	"slices"

	"github.com/poiesic/recallit/core"
)

const (
	// DefaultLimit is the number of results kept when the caller gives none.
	DefaultLimit = 10

	// DefaultMinSimilarity is the score threshold used when the caller gives none.
	DefaultMinSimilarity = 0.7
)

// Cosine computes the cosine similarity of a and b in float64.
// Vectors of different length fail with ErrDimensionMismatch; an empty or
// zero-norm vector fails with ErrZeroMagnitude. The result is clamped to
// [-1, 1] to absorb rounding.
func Cosine(a, b []float32) (float64, error) {
	if len(a) != len(b) {
		return 0, fmt.Errorf("%w: %d vs %d", ErrDimensionMismatch, len(a), len(b))
	}
	if len(a) == 0 {
		return 0, fmt.Errorf("%w: empty vectors", ErrZeroMagnitude)
	}
	var dot, na2, nb2 float64
	for i := range a {
		va := float64(a[i])
		vb := float64(b[i])
		dot += va * vb
		na2 += va * va
		nb2 += vb * vb
	}
	if na2 == 0 || nb2 == 0 {
		return 0, ErrZeroMagnitude
	}
	sim := dot / (math.Sqrt(na2) * math.Sqrt(nb2))
	return max(-1, min(1, sim)), nil
}

// Rank keeps candidates scoring at least minSimilarity, orders them by score
// descending (ties keep input order) and truncates to limit.
// A non-positive limit means DefaultLimit. The input slice is not modified.
func Rank(candidates []*core.ScoredCandidate, minSimilarity float64, limit int) []*core.ScoredCandidate {
	if limit <= 0 {
		limit = DefaultLimit
	}
	kept := make([]*core.ScoredCandidate, 0, len(candidates))
	for _, c := range candidates {
		if c != nil && c.Score >= minSimilarity {
			kept = append(kept, c)
		}
	}
	slices.SortStableFunc(kept, func(a, b *core.ScoredCandidate) int {
		return cmp.Compare(b.Score, a.Score)
	})
	if len(kept) > limit {
		kept = kept[:limit]
	}
	return kept
}
