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


package recallit

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/poiesic/recallit/ai/mock"
	"github.com/poiesic/recallit/core"
	"github.com/poiesic/recallit/refdata"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// staticSource serves a fixed profile table.
type staticSource struct{}

func (staticSource) ListRecords(context.Context, string, refdata.Query) ([]refdata.Record, error) {
	return []refdata.Record{{ID: "rec1", Fields: map[string]any{"userId": "u1", "name": "Ana"}}}, nil
}

func (staticSource) GetRecord(context.Context, string, string) (*refdata.Record, error) {
	return &refdata.Record{ID: "rec1", Fields: map[string]any{"userId": "u1", "name": "Ana"}}, nil
}

func (staticSource) UpdateRecord(_ context.Context, _, id string, fields map[string]any) (*refdata.Record, error) {
	return &refdata.Record{ID: id, Fields: fields}, nil
}

func TestNewEngine(t *testing.T) {
	t.Run("on disk", func(t *testing.T) {
		dir := filepath.Join(t.TempDir(), "engine")
		e, err := NewEngine(dir, WithEmbedder(mock.NewMockEmbedder()))
		require.NoError(t, err)
		assert.NotNil(t, e.CandidateStore())
		assert.Equal(t, mock.DefaultModel, e.Generator().Model())
		assert.NoError(t, e.Close())
	})

	t.Run("default provider needs no key", func(t *testing.T) {
		e, err := NewEngine("")
		require.NoError(t, err)
		assert.Equal(t, "openai/text-embedding-3-small", e.Generator().Model())
		assert.NoError(t, e.Close())
	})

	t.Run("sqlite candidates", func(t *testing.T) {
		e, err := NewEngine("", WithEmbedder(mock.NewMockEmbedder()), WithSQLite(":memory:"))
		require.NoError(t, err)
		defer e.Close()

		pipeline, err := e.NewPipeline()
		require.NoError(t, err)
		defer pipeline.Release()

		_, err = pipeline.Save(context.Background(), &core.CandidateRecord{OwnerID: "u1", Kind: core.KindMemory, Text: "stored in sqlite"})
		require.NoError(t, err)
	})

	t.Run("error with file path", func(t *testing.T) {
		file := filepath.Join(t.TempDir(), "not_a_dir")
		require.NoError(t, os.WriteFile(file, []byte("test"), 0644))

		e, err := NewEngine(file, WithEmbedder(mock.NewMockEmbedder()))
		assert.Error(t, err)
		assert.Nil(t, e)
	})
}

func TestEngine_SaveAndSearch(t *testing.T) {
	ctx := context.Background()
	e, err := NewEngine("", WithEmbedder(mock.NewMockEmbedder()))
	require.NoError(t, err)
	defer e.Close()

	pipeline, err := e.NewPipeline()
	require.NoError(t, err)
	defer pipeline.Release()

	text := "Ship the release notes on Friday"
	_, err = pipeline.Save(ctx, &core.CandidateRecord{OwnerID: "u1", Kind: core.KindMemory, Text: text})
	require.NoError(t, err)

	searcher, err := e.NewSearcher()
	require.NoError(t, err)
	result, err := searcher.Search(ctx, "u1", text, core.KindMemory, 5, 0.99)
	require.NoError(t, err)
	require.Len(t, result.Candidates, 1)
	assert.InDelta(t, 1.0, result.Candidates[0].Score, 1e-6)

	keywordSearcher, err := e.NewKeywordSearcher()
	require.NoError(t, err)
	kw, err := keywordSearcher.Search(ctx, "u1", "when is the release?", core.KindMemory, 5)
	require.NoError(t, err)
	assert.Len(t, kw.Records, 1)
}

func TestEngine_RefData(t *testing.T) {
	ctx := context.Background()

	t.Run("not configured", func(t *testing.T) {
		e, err := NewEngine("", WithEmbedder(mock.NewMockEmbedder()))
		require.NoError(t, err)
		defer e.Close()

		_, err = e.RefData()
		assert.ErrorIs(t, err, refdata.ErrNotConfigured)
		_, err = e.NewSyncer()
		assert.ErrorIs(t, err, refdata.ErrNotConfigured)
	})

	t.Run("airtable from config", func(t *testing.T) {
		cfg := refdata.NewConfig(refdata.WithBaseID("app123"), refdata.WithAPIKey("key"))
		e, err := NewEngine("", WithEmbedder(mock.NewMockEmbedder()), WithRefDataConfig(cfg))
		require.NoError(t, err)
		defer e.Close()

		_, err = e.RefData()
		assert.NoError(t, err)
	})

	t.Run("custom source", func(t *testing.T) {
		e, err := NewEngine("", WithEmbedder(mock.NewMockEmbedder()), WithRefDataSource(staticSource{}))
		require.NoError(t, err)
		defer e.Close()

		svc, err := e.RefData()
		require.NoError(t, err)
		profiles, err := svc.ListProfiles(ctx, true)
		require.NoError(t, err)
		require.Len(t, profiles, 1)

		syncer, err := e.NewSyncer()
		require.NoError(t, err)
		status := syncer.SyncAll(ctx)
		assert.True(t, status.Success)
		assert.Equal(t, 1, status.Count(refdata.SyncProfiles))
	})
}
