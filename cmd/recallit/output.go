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


package main

import (
	"strconv"
	"time"

	"github.com/poiesic/recallit/core"
)

type candidateJSON struct {
	ID        string            `json:"id"`
	Kind      core.Kind         `json:"kind"`
	Type      string            `json:"type,omitempty"`
	Text      string            `json:"text"`
	Output    string            `json:"output,omitempty"`
	Tags      []string          `json:"tags,omitempty"`
	Metadata  map[string]string `json:"metadata,omitempty"`
	Keywords  []string          `json:"keywords,omitempty"`
	Embedded  bool              `json:"embedded"`
	CreatedAt time.Time         `json:"createdAt"`
	Score     *float64          `json:"score,omitempty"`
}

func newCandidateJSON(record *core.CandidateRecord, score *float64) candidateJSON {
	return candidateJSON{
		ID:        strconv.FormatUint(uint64(record.Id), 10),
		Kind:      record.Kind,
		Type:      record.Type,
		Text:      record.Text,
		Output:    record.Output,
		Tags:      record.Tags,
		Metadata:  record.Metadata,
		Keywords:  record.Keywords,
		Embedded:  record.HasEmbedding(),
		CreatedAt: record.CreatedAt,
		Score:     score,
	}
}

type searchOutput struct {
	Query          string          `json:"query"`
	Results        []candidateJSON `json:"results"`
	Scanned        int             `json:"scanned"`
	Skipped        int             `json:"skipped"`
	EmbeddingError string          `json:"embeddingError,omitempty"`
	Hint           string          `json:"hint,omitempty"`
}

type keywordOutput struct {
	Query    string          `json:"query"`
	Keywords []string        `json:"keywords"`
	Results  []candidateJSON `json:"results"`
}
