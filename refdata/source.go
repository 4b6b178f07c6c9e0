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


package refdata

import "context"

// EnabledFormula selects enabled records.
const EnabledFormula = "{enabled} = TRUE()"

// Record is a raw record from the reference-data source.
type Record struct {
	ID          string         `json:"id"`
	CreatedTime string         `json:"createdTime,omitempty"`
	Fields      map[string]any `json:"fields"`
}

// Query narrows a ListRecords call.
type Query struct {
	// FilterByFormula is a source-side filter expression.
	FilterByFormula string
	// MaxRecords caps the number of records returned. Zero means no cap.
	MaxRecords int
}

// Source is an external table-oriented record API.
type Source interface {
	// ListRecords returns the records of table matching q.
	ListRecords(ctx context.Context, table string, q Query) ([]Record, error)

	// GetRecord returns one record by ID.
	// Returns storage.ErrNotFound if the record doesn't exist.
	GetRecord(ctx context.Context, table, id string) (*Record, error)

	// UpdateRecord patches fields of one record and returns the result.
	// Returns storage.ErrNotFound if the record doesn't exist.
	UpdateRecord(ctx context.Context, table, id string, fields map[string]any) (*Record, error)
}
