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


package storage

import (
	"testing"
	"time"

	"github.com/mus-format/mus-go/ord"
	"github.com/mus-format/mus-go/varint"
	"github.com/poiesic/recallit/core"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMarshalUnmarshalID(t *testing.T) {
	tests := []struct {
		name string
		id   core.ID
	}{
		{"zero ID", core.ID(0)},
		{"small ID", core.ID(42)},
		{"large ID", core.ID(18446744073709551615)}, // max uint64
		{"content-based ID", core.IDFromContent("test content")},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			data := MarshalID(tt.id)
			require.NotEmpty(t, data)

			decoded, err := UnmarshalID(data)
			require.NoError(t, err)
			assert.Equal(t, tt.id, decoded)
		})
	}
}

func TestUnmarshalID_Invalid(t *testing.T) {
	_, err := UnmarshalID([]byte{})
	assert.Error(t, err)
}

func TestMarshalUnmarshalCandidateRecord(t *testing.T) {
	now := time.Now().UTC().Truncate(time.Microsecond)

	tests := []struct {
		name   string
		record *core.CandidateRecord
	}{
		{
			name: "minimal record",
			record: &core.CandidateRecord{
				Id:        core.ID(1),
				OwnerID:   "user-1",
				Kind:      core.KindMemory,
				Text:      "remember this",
				CreatedAt: now,
			},
		},
		{
			name: "fully populated record",
			record: &core.CandidateRecord{
				Id:             core.CandidateIDFor("user-1", core.KindPost, "a post"),
				OwnerID:        "user-1",
				Kind:           core.KindPost,
				Type:           "tweet",
				Text:           "a post",
				Output:         "a generated reply",
				Tags:           []string{"ai", "go"},
				Metadata:       map[string]string{"url": "https://example.com", "pageTitle": "Example"},
				Keywords:       []string{"post", "generated", "reply"},
				EmbeddingModel: "test-model",
				EncodedVector:  core.EncodeVector([]float32{0.25, -0.5, 1}),
				CreatedAt:      now,
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			data := MarshalCandidateRecord(tt.record)
			decoded, err := UnmarshalCandidateRecord(data)
			require.NoError(t, err)
			assert.Equal(t, tt.record, decoded)
		})
	}
}

func TestUnmarshalCandidateRecord_Truncated(t *testing.T) {
	record := &core.CandidateRecord{
		Id:            core.ID(7),
		OwnerID:       "user-1",
		Kind:          core.KindMemory,
		Text:          "some text that will be cut",
		EncodedVector: core.EncodeVector([]float32{1, 2, 3}),
		CreatedAt:     time.Now().UTC().Truncate(time.Microsecond),
	}
	data := MarshalCandidateRecord(record)

	_, err := UnmarshalCandidateRecord(data[:len(data)/2])
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrSerializationFailed)
	assert.ErrorIs(t, err, ErrTruncatedData)
}

func TestUnmarshalCandidateRecord_OversizedLength(t *testing.T) {
	record := core.CandidateRecord{Id: core.ID(7), OwnerID: "u", Kind: core.KindMemory, Text: "t"}
	data := MarshalCandidateRecord(&record)

	// Replace the empty tag count with a length far above the decode limit.
	tagsAt := varint.Uint64.Size(uint64(record.Id))
	for _, s := range []string{record.OwnerID, string(record.Kind), record.Type, record.Text, record.Output} {
		tagsAt += ord.String.Size(s)
	}
	forged := append([]byte{}, data[:tagsAt]...)
	lenBuf := make([]byte, varint.PositiveInt.Size(maxCollectionLen+1))
	varint.PositiveInt.Marshal(maxCollectionLen+1, lenBuf)
	forged = append(forged, lenBuf...)
	forged = append(forged, data[tagsAt+1:]...)

	_, err := UnmarshalCandidateRecord(forged)
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrCollectionTooLarge)
}

func TestUnmarshalCandidateRecord_EmptyCollectionsAreNil(t *testing.T) {
	record := &core.CandidateRecord{
		Id:       core.ID(3),
		OwnerID:  "u",
		Kind:     core.KindPost,
		Text:     "t",
		Tags:     []string{},
		Metadata: map[string]string{},
	}
	decoded, err := UnmarshalCandidateRecord(MarshalCandidateRecord(record))
	require.NoError(t, err)
	assert.Nil(t, decoded.Tags)
	assert.Nil(t, decoded.Metadata)
	assert.Nil(t, decoded.Keywords)
	assert.Nil(t, decoded.EncodedVector)
}

func TestCacheEntry(t *testing.T) {
	expires := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	entry := CacheEntry{ExpiresAt: expires, Value: []byte(`{"name":"x"}`)}

	decoded, err := UnmarshalCacheEntry(MarshalCacheEntry(entry))
	require.NoError(t, err)
	assert.Equal(t, entry, decoded)

	assert.False(t, decoded.Expired(expires.Add(-time.Second)))
	assert.True(t, decoded.Expired(expires))
	assert.True(t, decoded.Expired(expires.Add(time.Second)))
}

func TestCandidateQuery_Matches(t *testing.T) {
	withVec := &core.CandidateRecord{OwnerID: "u", Kind: core.KindPost, EncodedVector: core.EncodeVector([]float32{1})}
	noVec := &core.CandidateRecord{OwnerID: "u", Kind: core.KindPost}
	otherOwner := &core.CandidateRecord{OwnerID: "v", Kind: core.KindPost}

	q := CandidateQuery{OwnerID: "u", Kind: core.KindPost}
	assert.True(t, q.Matches(withVec))
	assert.True(t, q.Matches(noVec))
	assert.False(t, q.Matches(otherOwner))

	q.Embedding = WithEmbedding
	assert.True(t, q.Matches(withVec))
	assert.False(t, q.Matches(noVec))

	q.Embedding = WithoutEmbedding
	assert.False(t, q.Matches(withVec))
	assert.True(t, q.Matches(noVec))
}

func TestCandidateQuery_Validate(t *testing.T) {
	assert.NoError(t, CandidateQuery{OwnerID: "u", Kind: core.KindMemory}.Validate())
	assert.ErrorIs(t, CandidateQuery{Kind: core.KindMemory}.Validate(), ErrInvalidQuery)
	assert.ErrorIs(t, CandidateQuery{OwnerID: "u", Kind: "bogus"}.Validate(), ErrInvalidQuery)
}
