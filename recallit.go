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
	"errors"
	"log/slog"

	"github.com/poiesic/recallit/ai"
	"github.com/poiesic/recallit/ai/openai"
	"github.com/poiesic/recallit/embedding"
	"github.com/poiesic/recallit/ingestion"
	"github.com/poiesic/recallit/refcache"
	"github.com/poiesic/recallit/refdata"
	"github.com/poiesic/recallit/refdata/airtable"
	"github.com/poiesic/recallit/search"
	"github.com/poiesic/recallit/storage"
	"github.com/poiesic/recallit/storage/badger"
	"github.com/poiesic/recallit/storage/sqlite"
)

// Engine wires storage, embedding and reference data together.
//
// Candidate records live in the badger store under the engine directory
// unless a SQLite DSN or another store is configured. The reference-data
// cache always lives in badger.
type Engine struct {
	backend    *badger.Backend
	candidates storage.CandidateStore
	cacheStore storage.CacheStore
	generator  *embedding.Generator
	refCache   *refcache.Cache
	refService *refdata.Service
	refConfig  *refdata.Config
	logger     *slog.Logger
}

// Option configures an Engine.
type Option func(*engineOptions)

type engineOptions struct {
	aiConfig   *ai.Config
	embedder   ai.Embedder
	refConfig  *refdata.Config
	source     refdata.Source
	candidates storage.CandidateStore
	sqliteDSN  string
	logger     *slog.Logger
}

// WithAIConfig sets the embedding provider configuration.
func WithAIConfig(cfg *ai.Config) Option {
	return func(o *engineOptions) {
		o.aiConfig = cfg
	}
}

// WithEmbedder uses embedder instead of building one from the AI config.
func WithEmbedder(embedder ai.Embedder) Option {
	return func(o *engineOptions) {
		o.embedder = embedder
	}
}

// WithRefDataConfig sets the reference-data configuration. An Airtable
// source is built from it when it carries a base ID and API key.
func WithRefDataConfig(cfg *refdata.Config) Option {
	return func(o *engineOptions) {
		o.refConfig = cfg
	}
}

// WithRefDataSource uses source for reference data instead of Airtable.
func WithRefDataSource(source refdata.Source) Option {
	return func(o *engineOptions) {
		o.source = source
	}
}

// WithCandidateStore uses store for candidate records. The engine closes
// it on Close.
func WithCandidateStore(store storage.CandidateStore) Option {
	return func(o *engineOptions) {
		o.candidates = store
	}
}

// WithSQLite keeps candidate records in the SQLite database at dsn.
func WithSQLite(dsn string) Option {
	return func(o *engineOptions) {
		o.sqliteDSN = dsn
	}
}

// WithLogger sets the logger handed to every component.
// Default is slog.Default().
func WithLogger(logger *slog.Logger) Option {
	return func(o *engineOptions) {
		o.logger = logger
	}
}

// NewEngine opens an engine rooted at dir. An empty dir keeps all badger
// data in memory.
func NewEngine(dir string, opts ...Option) (*Engine, error) {
	options := &engineOptions{
		aiConfig:  ai.DefaultConfig(),
		refConfig: refdata.DefaultConfig(),
		logger:    slog.Default(),
	}
	for _, opt := range opts {
		opt(options)
	}
	if options.logger == nil {
		options.logger = slog.Default()
	}
	if options.refConfig == nil {
		options.refConfig = refdata.DefaultConfig()
	}

	backend, err := badger.OpenBackend(dir, dir == "")
	if err != nil {
		return nil, err
	}

	e := &Engine{
		backend:   backend,
		refConfig: options.refConfig,
		logger:    options.logger,
	}
	if err := e.init(options); err != nil {
		e.Close()
		return nil, err
	}
	return e, nil
}

func (e *Engine) init(options *engineOptions) error {
	var err error

	switch {
	case options.candidates != nil:
		e.candidates = options.candidates
	case options.sqliteDSN != "":
		e.candidates, err = sqlite.Open(options.sqliteDSN)
	default:
		e.candidates, err = badger.NewCandidateStore(e.backend)
	}
	if err != nil {
		return err
	}

	if e.cacheStore, err = badger.NewCacheStore(e.backend); err != nil {
		return err
	}

	embedder := options.embedder
	if embedder == nil {
		if embedder, err = openai.NewEmbedder(options.aiConfig); err != nil {
			return err
		}
	}
	if e.generator, err = embedding.NewGenerator(embedder, embedding.WithLogger(options.logger)); err != nil {
		return err
	}

	e.refCache, err = refcache.NewCache(e.cacheStore,
		refcache.WithTTL(e.refConfig.CacheTTL),
		refcache.WithLogger(options.logger),
	)
	if err != nil {
		return err
	}

	source := options.source
	if source == nil && e.refConfig.BaseID != "" && e.refConfig.APIKey != "" {
		if source, err = airtable.NewClient(e.refConfig, airtable.WithLogger(options.logger)); err != nil {
			return err
		}
	}
	if source != nil {
		e.refService, err = refdata.NewService(source, e.refCache, e.refConfig, refdata.WithLogger(options.logger))
		if err != nil {
			return err
		}
	}
	return nil
}

// Close releases the candidate store and the badger backend.
func (e *Engine) Close() error {
	logger := e.logger.With("component", "engine")
	var errs []error
	if e.candidates != nil {
		if err := e.candidates.Close(); err != nil {
			logger.Error("error closing candidate store", "err", err)
			errs = append(errs, err)
		}
	}
	if err := e.backend.Close(); err != nil {
		logger.Error("error closing backend storage", "err", err)
		errs = append(errs, err)
	}
	return errors.Join(errs...)
}

// CandidateStore returns the candidate record store.
func (e *Engine) CandidateStore() storage.CandidateStore {
	return e.candidates
}

// Generator returns the embedding generator.
func (e *Engine) Generator() *embedding.Generator {
	return e.generator
}

// NewSearcher creates a semantic searcher over the candidate store.
func (e *Engine) NewSearcher(opts ...search.Option) (*search.Searcher, error) {
	opts = append([]search.Option{search.WithLogger(e.logger)}, opts...)
	return search.NewSearcher(e.candidates, e.generator, opts...)
}

// NewKeywordSearcher creates a keyword searcher over the candidate store.
func (e *Engine) NewKeywordSearcher(opts ...search.Option) (*search.KeywordSearcher, error) {
	opts = append([]search.Option{search.WithLogger(e.logger)}, opts...)
	return search.NewKeywordSearcher(e.candidates, opts...)
}

// NewPipeline creates an ingestion pipeline. The caller must Release it.
func (e *Engine) NewPipeline(opts ...ingestion.Option) (*ingestion.Pipeline, error) {
	opts = append([]ingestion.Option{ingestion.WithLogger(e.logger)}, opts...)
	return ingestion.NewPipeline(e.candidates, e.generator, opts...)
}

// RefData returns the reference-data service.
// Returns refdata.ErrNotConfigured if no source is configured.
func (e *Engine) RefData() (*refdata.Service, error) {
	if e.refService == nil {
		return nil, refdata.ErrNotConfigured
	}
	return e.refService, nil
}

// NewSyncer creates a reference-data syncer.
func (e *Engine) NewSyncer(opts ...refdata.SyncOption) (*refdata.Syncer, error) {
	service, err := e.RefData()
	if err != nil {
		return nil, err
	}
	opts = append([]refdata.SyncOption{refdata.WithSyncLogger(e.logger)}, opts...)
	return refdata.NewSyncer(service, opts...)
}
