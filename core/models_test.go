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


package core

import (
	"errors"
	"testing"
)

func TestIDFromContent(t *testing.T) {
	tests := []struct {
		name     string
		content  string
		wantSame bool
	}{
		{
			name:     "same content produces same ID",
			content:  "test content",
			wantSame: true,
		},
		{
			name:     "empty string",
			content:  "",
			wantSame: true,
		},
		{
			name:     "long content",
			content:  "This is a much longer piece of content that should still hash consistently",
			wantSame: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			id1 := IDFromContent(tt.content)
			id2 := IDFromContent(tt.content)

			if tt.wantSame && id1 != id2 {
				t.Errorf("IDFromContent() produced different IDs for same content: %d vs %d", id1, id2)
			}
		})
	}
}

func TestCandidateIDFor(t *testing.T) {
	a := CandidateIDFor("u1", KindMemory, "hello")
	if a != CandidateIDFor("u1", KindMemory, "hello") {
		t.Errorf("CandidateIDFor() is not deterministic")
	}
	if a == CandidateIDFor("u2", KindMemory, "hello") {
		t.Errorf("CandidateIDFor() ignored owner")
	}
	if a == CandidateIDFor("u1", KindPost, "hello") {
		t.Errorf("CandidateIDFor() ignored kind")
	}
}

func TestCandidateRecord_Embedding(t *testing.T) {
	record := &CandidateRecord{}
	if record.HasEmbedding() {
		t.Fatalf("new record should not have an embedding")
	}

	record.SetEmbedding(&Embedding{Model: "m1", Vector: []float32{0.5, -1, 2}})
	if !record.HasEmbedding() {
		t.Fatalf("record should have an embedding")
	}
	if record.EmbeddingModel != "m1" {
		t.Errorf("EmbeddingModel = %q, want m1", record.EmbeddingModel)
	}

	vec, err := record.Vector()
	if err != nil {
		t.Fatalf("Vector() error = %v", err)
	}
	want := []float32{0.5, -1, 2}
	for i := range want {
		if vec[i] != want[i] {
			t.Errorf("Vector()[%d] = %v, want %v", i, vec[i], want[i])
		}
	}

	record.SetEmbedding(nil)
	if record.HasEmbedding() || record.EmbeddingModel != "" {
		t.Errorf("SetEmbedding(nil) should clear the embedding")
	}
}

func TestDecodeVector_Malformed(t *testing.T) {
	tests := []struct {
		name string
		data []byte
	}{
		{name: "empty", data: nil},
		{name: "truncated", data: []byte{0x00, 0x00, 0x80}},
		{name: "nan", data: []byte{0x00, 0x00, 0xc0, 0x7f}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := DecodeVector(tt.data)
			if !errors.Is(err, ErrMalformedVector) {
				t.Errorf("DecodeVector() error = %v, want ErrMalformedVector", err)
			}
		})
	}
}

func TestEmbedding_Dimensions(t *testing.T) {
	var nilEmbedding *Embedding
	if nilEmbedding.Dimensions() != 0 {
		t.Errorf("nil embedding should have 0 dimensions")
	}
	e := &Embedding{Vector: make([]float32, 1536)}
	if e.Dimensions() != 1536 {
		t.Errorf("Dimensions() = %d, want 1536", e.Dimensions())
	}
}
