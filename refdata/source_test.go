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

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"

	"github.com/poiesic/recallit/refcache"
	"github.com/poiesic/recallit/storage"
	"github.com/poiesic/recallit/storage/badger"
	"github.com/stretchr/testify/require"
)

// fakeSource is an in-memory Source. Formulas of the form {field} = "value"
// are honored; EnabledFormula drops records with enabled=false.
type fakeSource struct {
	mu      sync.Mutex
	tables  map[string][]Record
	failing map[string]error
	calls   map[string]int
	updates []map[string]any
}

func newFakeSource() *fakeSource {
	return &fakeSource{
		tables:  make(map[string][]Record),
		failing: make(map[string]error),
		calls:   make(map[string]int),
	}
}

func (f *fakeSource) add(table string, records ...Record) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.tables[table] = append(f.tables[table], records...)
}

func (f *fakeSource) set(table, id, field string, value any) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, r := range f.tables[table] {
		if r.ID == id {
			r.Fields[field] = value
		}
	}
}

func (f *fakeSource) fail(table string, err error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.failing[table] = err
}

func (f *fakeSource) callCount(table string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls[table]
}

func (f *fakeSource) ListRecords(_ context.Context, table string, q Query) ([]Record, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls[table]++
	if err := f.failing[table]; err != nil {
		return nil, err
	}
	var out []Record
	for _, r := range f.tables[table] {
		if !matchesFormula(r, q.FilterByFormula) {
			continue
		}
		out = append(out, r)
		if q.MaxRecords > 0 && len(out) == q.MaxRecords {
			break
		}
	}
	return out, nil
}

func (f *fakeSource) GetRecord(_ context.Context, table, id string) (*Record, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls[table]++
	if err := f.failing[table]; err != nil {
		return nil, err
	}
	for _, r := range f.tables[table] {
		if r.ID == id {
			rec := r
			return &rec, nil
		}
	}
	return nil, storage.ErrNotFound
}

func (f *fakeSource) UpdateRecord(_ context.Context, table, id string, fields map[string]any) (*Record, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls[table]++
	if err := f.failing[table]; err != nil {
		return nil, err
	}
	f.updates = append(f.updates, fields)
	for i, r := range f.tables[table] {
		if r.ID != id {
			continue
		}
		merged := make(map[string]any, len(r.Fields)+len(fields))
		for k, v := range r.Fields {
			merged[k] = v
		}
		for k, v := range fields {
			merged[k] = v
		}
		f.tables[table][i].Fields = merged
		rec := f.tables[table][i]
		return &rec, nil
	}
	return nil, storage.ErrNotFound
}

func matchesFormula(r Record, formula string) bool {
	switch {
	case formula == "":
		return true
	case formula == EnabledFormula:
		b, ok := r.Fields["enabled"].(bool)
		return !ok || b
	}
	// {field} = "value"
	start, end := strings.Index(formula, "{"), strings.Index(formula, "}")
	if start < 0 || end < start {
		return false
	}
	field := formula[start+1 : end]
	value := strings.TrimSuffix(strings.SplitN(formula, `= "`, 2)[1], `"`)
	value = strings.ReplaceAll(value, `\"`, `"`)
	return r.Fields[field] == value
}

func newTestService(t *testing.T, source Source) (*Service, *refcache.Cache) {
	t.Helper()
	_, store, backend, err := badger.NewMemoryStores()
	require.NoError(t, err)
	t.Cleanup(func() { backend.Close() })

	cache, err := refcache.NewCache(store)
	require.NoError(t, err)

	svc, err := NewService(source, cache, NewConfig(WithBaseID("app123")))
	require.NoError(t, err)
	return svc, cache
}

var errUpstream = errors.New("upstream returned 503")

func profileRecord(id, userID, name string, enabled bool) Record {
	return Record{ID: id, Fields: map[string]any{
		"userId":  userID,
		"name":    name,
		"enabled": enabled,
	}}
}

func websiteRecord(id, websiteID, domain string) Record {
	return Record{ID: id, Fields: map[string]any{
		"websiteId": websiteID,
		"name":      websiteID,
		"domain":    domain,
		"enabled":   true,
	}}
}
