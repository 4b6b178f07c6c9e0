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


package ingestion

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestProgressTracker(t *testing.T) {
	var out bytes.Buffer
	tracker := NewProgressTracker(&out, 4, 2)

	tracker.Increment(1)
	assert.Zero(t, tracker.Current(), "increments before Start are ignored")

	tracker.Start()
	tracker.Increment(1)
	assert.Empty(t, out.String())

	tracker.Increment(1)
	assert.Contains(t, out.String(), "2/4 (50.0%)")

	tracker.Increment(10)
	assert.Equal(t, 4, tracker.Current())

	tracker.Finish()
	assert.Contains(t, out.String(), "4/4 (100.0%)")
	assert.True(t, bytes.HasSuffix(out.Bytes(), []byte("\n")))
}
