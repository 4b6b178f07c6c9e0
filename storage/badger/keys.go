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


package badger

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"time"

	"github.com/poiesic/recallit/core"
)

// Key prefixes for different data types
const (
	candidateRecordPrefix  = "cand"
	candidateRecencyPrefix = "candr"
	cachePrefix            = "cache"
)

// makeCandidateKey generates a key for a candidate record by ID.
func makeCandidateKey(id core.ID) []byte {
	return []byte(fmt.Sprintf("%s:%d", candidateRecordPrefix, id))
}

// makeRecencyPrefix generates the index prefix shared by one owner's
// records of one kind.
// Format: prefix:owner\x00kind\x00
func makeRecencyPrefix(ownerID string, kind core.Kind) []byte {
	var buf bytes.Buffer
	buf.WriteString(candidateRecencyPrefix)
	buf.WriteByte(':')
	buf.WriteString(ownerID)
	buf.WriteByte(0)
	buf.WriteString(string(kind))
	buf.WriteByte(0)
	return buf.Bytes()
}

// makeRecencyKey generates a composite key for the recency index.
// Format: prefix:owner\x00kind\x00timestamp:id
func makeRecencyKey(ownerID string, kind core.Kind, createdAt time.Time, id core.ID) []byte {
	prefix := makeRecencyPrefix(ownerID, kind)
	buf := make([]byte, len(prefix)+16) // 8 bytes for timestamp + 8 bytes for ID
	offset := copy(buf, prefix)
	// Write in BigEndian order so lexicographic sort works correctly
	binary.BigEndian.PutUint64(buf[offset:], uint64(createdAt.UnixMicro()))
	offset += 8
	binary.BigEndian.PutUint64(buf[offset:], uint64(id))
	return buf
}

// makeRecencySeekKey returns a key sorting after every index key under prefix,
// the starting point for a reverse scan.
func makeRecencySeekKey(prefix []byte) []byte {
	return append(bytes.Clone(prefix), bytes.Repeat([]byte{0xFF}, 17)...)
}

// makeCacheKey generates a key for a cache entry.
func makeCacheKey(key string) []byte {
	return []byte(cachePrefix + ":" + key)
}
