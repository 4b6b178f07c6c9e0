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
	"fmt"
	"slices"
	"strings"
	"time"
)

// ValidateCandidateRecord validates a CandidateRecord according to domain rules.
//
// Validation rules:
//   - OwnerID must not be empty
//   - Kind must be valid
//   - Text must not be blank
//   - CreatedAt must not be in the future
//
// NOT validated (best-effort enrichment):
//   - EncodedVector (absent when embedding generation failed)
//   - Keywords
//   - ID (derived from content when zero)
func ValidateCandidateRecord(record *CandidateRecord) error {
	if record == nil {
		return fmt.Errorf("%w: record is nil", ErrInvalidCandidate)
	}

	if record.OwnerID == "" {
		return fmt.Errorf("%w: %w", ErrInvalidCandidate, ErrEmptyOwner)
	}

	if err := ValidateKind(record.Kind); err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidCandidate, err)
	}

	if strings.TrimSpace(record.Text) == "" {
		return fmt.Errorf("%w: %w", ErrInvalidCandidate, ErrEmptyContent)
	}

	if !IsValidTimestamp(record.CreatedAt) {
		return fmt.Errorf("%w: %w", ErrInvalidCandidate, ErrInvalidTimestamp)
	}

	return nil
}

// ValidateKind validates that a Kind has a known value.
func ValidateKind(kind Kind) error {
	if !slices.Contains(Kinds, kind) {
		return fmt.Errorf("%w: %q", ErrInvalidKind, kind)
	}
	return nil
}

// IsValidTimestamp checks if a timestamp is valid (not in the future).
func IsValidTimestamp(ts time.Time) bool {
	return !ts.After(time.Now())
}
