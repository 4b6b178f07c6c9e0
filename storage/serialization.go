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
	"errors"
	"fmt"
	"time"

	com "github.com/mus-format/common-go"
	mus "github.com/mus-format/mus-go"
	mapops "github.com/mus-format/mus-go/options/map"
	slops "github.com/mus-format/mus-go/options/slice"
	"github.com/mus-format/mus-go/ord"
	"github.com/mus-format/mus-go/varint"
	"github.com/poiesic/recallit/core"
)

// maxCollectionLen bounds decoded tag, keyword and metadata counts so that a
// corrupt length prefix cannot force a huge allocation.
const maxCollectionLen = 1 << 16

var (
	stringsMUS = ord.NewValidSliceSer[string](ord.String,
		slops.WithLenValidator[string](com.ValidatorFn[int](validateLen)))
	metadataMUS = ord.NewValidMapSer[string, string](ord.String, ord.String,
		mapops.WithLenValidator[string, string](com.ValidatorFn[int](validateLen)))
)

// CandidateRecordMUS serializes CandidateRecord values.
// Timestamps are stored as Unix microseconds in UTC.
var CandidateRecordMUS = candidateRecordMUS{}

// CacheEntryMUS serializes CacheEntry values.
var CacheEntryMUS = cacheEntryMUS{}

var (
	_ mus.Serializer[core.CandidateRecord] = CandidateRecordMUS
	_ mus.Serializer[CacheEntry]           = CacheEntryMUS
)

// CacheEntry is a cached value with its absolute expiry time.
type CacheEntry struct {
	ExpiresAt time.Time
	Value     []byte
}

// Expired reports whether the entry is expired at now.
func (e CacheEntry) Expired(now time.Time) bool {
	return !now.Before(e.ExpiresAt)
}

// MarshalID serializes an ID to bytes.
func MarshalID(id core.ID) []byte {
	buf := make([]byte, varint.Uint64.Size(uint64(id)))
	varint.Uint64.Marshal(uint64(id), buf)
	return buf
}

// UnmarshalID deserializes an ID from bytes.
func UnmarshalID(data []byte) (core.ID, error) {
	id, _, err := varint.Uint64.Unmarshal(data)
	return core.ID(id), err
}

// MarshalCandidateRecord serializes a CandidateRecord to bytes.
func MarshalCandidateRecord(record *core.CandidateRecord) []byte {
	buf := make([]byte, CandidateRecordMUS.Size(*record))
	CandidateRecordMUS.Marshal(*record, buf)
	return buf
}

// UnmarshalCandidateRecord deserializes a CandidateRecord from bytes.
func UnmarshalCandidateRecord(data []byte) (*core.CandidateRecord, error) {
	record, _, err := CandidateRecordMUS.Unmarshal(data)
	if err != nil {
		return nil, decodeError(err)
	}
	return &record, nil
}

// MarshalCacheEntry serializes a CacheEntry to bytes.
func MarshalCacheEntry(entry CacheEntry) []byte {
	buf := make([]byte, CacheEntryMUS.Size(entry))
	CacheEntryMUS.Marshal(entry, buf)
	return buf
}

// UnmarshalCacheEntry deserializes a CacheEntry from bytes.
func UnmarshalCacheEntry(data []byte) (CacheEntry, error) {
	entry, _, err := CacheEntryMUS.Unmarshal(data)
	if err != nil {
		return CacheEntry{}, decodeError(err)
	}
	return entry, nil
}

type candidateRecordMUS struct{}

func (candidateRecordMUS) Marshal(v core.CandidateRecord, bs []byte) (n int) {
	n = varint.Uint64.Marshal(uint64(v.Id), bs)
	n += ord.String.Marshal(v.OwnerID, bs[n:])
	n += ord.String.Marshal(string(v.Kind), bs[n:])
	n += ord.String.Marshal(v.Type, bs[n:])
	n += ord.String.Marshal(v.Text, bs[n:])
	n += ord.String.Marshal(v.Output, bs[n:])
	n += stringsMUS.Marshal(v.Tags, bs[n:])
	n += metadataMUS.Marshal(v.Metadata, bs[n:])
	n += stringsMUS.Marshal(v.Keywords, bs[n:])
	n += ord.String.Marshal(v.EmbeddingModel, bs[n:])
	n += ord.ByteSlice.Marshal(v.EncodedVector, bs[n:])
	n += varint.Int64.Marshal(timeToMicro(v.CreatedAt), bs[n:])
	return n
}

func (candidateRecordMUS) Unmarshal(bs []byte) (v core.CandidateRecord, n int, err error) {
	var (
		id      uint64
		kind    string
		created int64
		n1      int
	)
	if id, n, err = varint.Uint64.Unmarshal(bs); err != nil {
		return
	}
	v.Id = core.ID(id)
	fields := []*string{&v.OwnerID, &kind, &v.Type, &v.Text, &v.Output}
	for _, f := range fields {
		if *f, n1, err = ord.String.Unmarshal(bs[n:]); err != nil {
			return
		}
		n += n1
	}
	v.Kind = core.Kind(kind)
	if v.Tags, n1, err = stringsMUS.Unmarshal(bs[n:]); err != nil {
		return
	}
	n += n1
	if v.Metadata, n1, err = metadataMUS.Unmarshal(bs[n:]); err != nil {
		return
	}
	n += n1
	if v.Keywords, n1, err = stringsMUS.Unmarshal(bs[n:]); err != nil {
		return
	}
	n += n1
	if v.EmbeddingModel, n1, err = ord.String.Unmarshal(bs[n:]); err != nil {
		return
	}
	n += n1
	if v.EncodedVector, n1, err = ord.ByteSlice.Unmarshal(bs[n:]); err != nil {
		return
	}
	n += n1
	if created, n1, err = varint.Int64.Unmarshal(bs[n:]); err != nil {
		return
	}
	n += n1
	v.CreatedAt = microToTime(created)
	// Empty collections decode as nil, matching records built in memory.
	if len(v.Tags) == 0 {
		v.Tags = nil
	}
	if len(v.Metadata) == 0 {
		v.Metadata = nil
	}
	if len(v.Keywords) == 0 {
		v.Keywords = nil
	}
	if len(v.EncodedVector) == 0 {
		v.EncodedVector = nil
	}
	return
}

func (candidateRecordMUS) Size(v core.CandidateRecord) (size int) {
	size = varint.Uint64.Size(uint64(v.Id))
	for _, s := range []string{v.OwnerID, string(v.Kind), v.Type, v.Text, v.Output} {
		size += ord.String.Size(s)
	}
	size += stringsMUS.Size(v.Tags)
	size += metadataMUS.Size(v.Metadata)
	size += stringsMUS.Size(v.Keywords)
	size += ord.String.Size(v.EmbeddingModel)
	size += ord.ByteSlice.Size(v.EncodedVector)
	return size + varint.Int64.Size(timeToMicro(v.CreatedAt))
}

func (s candidateRecordMUS) Skip(bs []byte) (n int, err error) {
	_, n, err = s.Unmarshal(bs)
	return
}

type cacheEntryMUS struct{}

func (cacheEntryMUS) Marshal(v CacheEntry, bs []byte) (n int) {
	n = varint.Int64.Marshal(timeToMicro(v.ExpiresAt), bs)
	return n + ord.ByteSlice.Marshal(v.Value, bs[n:])
}

func (cacheEntryMUS) Unmarshal(bs []byte) (v CacheEntry, n int, err error) {
	var (
		expires int64
		n1      int
	)
	if expires, n, err = varint.Int64.Unmarshal(bs); err != nil {
		return
	}
	v.ExpiresAt = microToTime(expires)
	if v.Value, n1, err = ord.ByteSlice.Unmarshal(bs[n:]); err != nil {
		return
	}
	n += n1
	if len(v.Value) == 0 {
		v.Value = nil
	}
	return
}

func (cacheEntryMUS) Size(v CacheEntry) int {
	return varint.Int64.Size(timeToMicro(v.ExpiresAt)) + ord.ByteSlice.Size(v.Value)
}

func (s cacheEntryMUS) Skip(bs []byte) (n int, err error) {
	_, n, err = s.Unmarshal(bs)
	return
}

// timeToMicro maps the zero time to 0 so that unset timestamps survive a
// round trip.
func timeToMicro(t time.Time) int64 {
	if t.IsZero() {
		return 0
	}
	return t.UnixMicro()
}

func microToTime(us int64) time.Time {
	if us == 0 {
		return time.Time{}
	}
	return time.UnixMicro(us).UTC()
}

func validateLen(length int) error {
	if length > maxCollectionLen {
		return fmt.Errorf("%w: length %d exceeds %d", ErrCollectionTooLarge, length, maxCollectionLen)
	}
	return nil
}

func decodeError(err error) error {
	if errors.Is(err, mus.ErrTooSmallByteSlice) {
		return fmt.Errorf("%w: %w", ErrSerializationFailed, ErrTruncatedData)
	}
	return fmt.Errorf("%w: %w", ErrSerializationFailed, err)
}
