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
	"encoding/binary"
	"time"

	"github.com/go-crypt/x/blake2b"
)

// ID is a unique identifier for candidate records.
// It is derived from record content so that re-saving identical content
// addresses the same record.
type ID uint64

// IDFromContent generates a deterministic ID from text content using BLAKE2b hashing.
// This ensures that identical content produces identical IDs.
func IDFromContent(text string) ID {
	h, _ := blake2b.New(8, nil) // 8 bytes = 64 bits
	h.Write([]byte(text))
	sum := h.Sum(nil)
	return ID(binary.LittleEndian.Uint64(sum))
}

// CandidateIDFor returns the content ID of a record saved by owner under kind.
func CandidateIDFor(ownerID string, kind Kind, text string) ID {
	return IDFromContent(ownerID + "\x00" + string(kind) + "\x00" + text)
}

// Kind names the collection a candidate record belongs to.
type Kind string

const (
	// KindPost covers processed content: tweets, videos, generated posts.
	KindPost Kind = "posts"
	// KindMemory covers saved text snippets.
	KindMemory Kind = "memory"
)

// Kinds lists every valid Kind.
var Kinds = []Kind{KindPost, KindMemory}

// Embedding is a vector produced by an embedding model, tagged with the
// model that produced it.
type Embedding struct {
	Model  string
	Vector []float32
}

// Dimensions returns the vector length.
func (e *Embedding) Dimensions() int {
	if e == nil {
		return 0
	}
	return len(e.Vector)
}

// CandidateRecord is a piece of captured content that can be retrieved by
// semantic similarity or keyword match.
//
// The embedding is kept in its stored encoding; use Vector to decode it.
// A record without an embedding has an empty EncodedVector.
type CandidateRecord struct {
	Id             ID
	OwnerID        string
	Kind           Kind
	Type           string            // Subtype within the kind, e.g. "tweet", "video"
	Text           string            // Captured text
	Output         string            // Generated output, if any
	Tags           []string
	Metadata       map[string]string // Capture context, e.g. "url", "pageTitle"
	Keywords       []string          // Fallback search keywords
	EmbeddingModel string            // Model that produced EncodedVector
	EncodedVector  []byte
	CreatedAt      time.Time
}

// HasEmbedding reports whether the record carries a stored embedding.
func (r *CandidateRecord) HasEmbedding() bool {
	return len(r.EncodedVector) > 0
}

// Vector decodes the stored embedding.
// Returns ErrMalformedVector if the stored bytes are not a valid vector.
func (r *CandidateRecord) Vector() ([]float32, error) {
	return DecodeVector(r.EncodedVector)
}

// SetEmbedding stores an embedding on the record.
func (r *CandidateRecord) SetEmbedding(e *Embedding) {
	if e == nil || len(e.Vector) == 0 {
		r.EmbeddingModel = ""
		r.EncodedVector = nil
		return
	}
	r.EmbeddingModel = e.Model
	r.EncodedVector = EncodeVector(e.Vector)
}

// ScoredCandidate is a candidate record paired with its similarity to a query.
type ScoredCandidate struct {
	Record *CandidateRecord
	Score  float64
}
