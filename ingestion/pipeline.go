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
	"context"
	"errors"
	"io"
	"log/slog"
	"runtime"
	"time"

	"github.com/panjf2000/ants/v2"
	"github.com/poiesic/recallit/core"
	"github.com/poiesic/recallit/embedding"
	"github.com/poiesic/recallit/keywords"
	"github.com/poiesic/recallit/storage"
)

const (
	// DefaultMaxAttempts is how often Backfill tries to embed one record.
	DefaultMaxAttempts = 3

	// DefaultRetryDelay is the delay before the first Backfill retry.
	DefaultRetryDelay = 200 * time.Millisecond
)

// Pipeline saves candidate records and fills in their embeddings.
// Keywords and embeddings are best-effort enrichment: a record is stored
// even when its embedding cannot be generated.
type Pipeline struct {
	store       storage.CandidateStore
	generator   *embedding.Generator
	pool        *ants.Pool
	maxAttempts int
	retryDelay  time.Duration
	progress    io.Writer
	now         func() time.Time
	logger      *slog.Logger
}

// Option configures a Pipeline.
type Option func(*Pipeline) error

// WithPoolSize sets the worker pool size used by Backfill.
// Default is runtime.NumCPU() / 2, with a minimum of 1.
func WithPoolSize(size int) Option {
	return func(p *Pipeline) error {
		if size < 1 {
			size = 1
		}
		if p.pool != nil {
			p.pool.Release()
		}
		pool, err := ants.NewPool(size)
		if err != nil {
			return err
		}
		p.pool = pool
		return nil
	}
}

// WithRetry sets how often Backfill tries to embed a record before counting
// it as failed, and the base delay between attempts.
// Default is DefaultMaxAttempts starting at DefaultRetryDelay.
func WithRetry(maxAttempts int, baseDelay time.Duration) Option {
	return func(p *Pipeline) error {
		if maxAttempts <= 0 {
			return ErrInvalidMaxAttempts
		}
		p.maxAttempts = maxAttempts
		p.retryDelay = baseDelay
		return nil
	}
}

// WithProgress reports Backfill progress to w.
func WithProgress(w io.Writer) Option {
	return func(p *Pipeline) error {
		p.progress = w
		return nil
	}
}

// WithClock overrides the clock used to stamp new records.
func WithClock(now func() time.Time) Option {
	return func(p *Pipeline) error {
		if now == nil {
			return errors.New("clock required")
		}
		p.now = now
		return nil
	}
}

// WithLogger sets a custom logger.
// Default is slog.Default().
func WithLogger(logger *slog.Logger) Option {
	return func(p *Pipeline) error {
		if logger == nil {
			logger = slog.Default()
		}
		p.logger = logger.With("component", "ingestion")
		return nil
	}
}

// NewPipeline creates a new ingestion pipeline.
func NewPipeline(store storage.CandidateStore, generator *embedding.Generator, opts ...Option) (*Pipeline, error) {
	if store == nil {
		return nil, ErrCandidateStoreRequired
	}
	if generator == nil {
		return nil, ErrGeneratorRequired
	}

	poolSize := runtime.NumCPU() / 2
	if poolSize < 1 {
		poolSize = 1
	}
	pool, err := ants.NewPool(poolSize)
	if err != nil {
		return nil, err
	}

	p := &Pipeline{
		store:       store,
		generator:   generator,
		pool:        pool,
		maxAttempts: DefaultMaxAttempts,
		retryDelay:  DefaultRetryDelay,
		now:         time.Now,
		logger:      slog.Default().With("component", "ingestion"),
	}

	for _, opt := range opts {
		if optErr := opt(p); optErr != nil {
			p.Release()
			return nil, optErr
		}
	}

	return p, nil
}

// Save stores a candidate record. The record is stamped with the current
// time when CreatedAt is zero, assigned its content ID when it has none, and
// enriched with keywords and an embedding of Text. A failed embedding is
// logged and the record is stored without one.
//
// Saving the same owner, kind and text again replaces the earlier record.
func (p *Pipeline) Save(ctx context.Context, record *core.CandidateRecord) (*core.CandidateRecord, error) {
	if record != nil && record.CreatedAt.IsZero() {
		record.CreatedAt = p.now().UTC()
	}
	if err := core.ValidateCandidateRecord(record); err != nil {
		return nil, err
	}

	if record.Id == 0 {
		record.Id = core.CandidateIDFor(record.OwnerID, record.Kind, record.Text)
	}
	record.Keywords = keywords.Extract(record.Text + " " + record.Output)

	emb, err := p.generator.Generate(ctx, record.Text)
	if err != nil {
		p.logger.Warn("storing record without embedding", "id", record.Id, "err", err)
		record.SetEmbedding(nil)
	} else {
		record.SetEmbedding(emb)
	}

	if err := p.store.PutCandidates(ctx, record); err != nil {
		return nil, err
	}
	p.logger.Debug("saved candidate", "id", record.Id, "owner", record.OwnerID, "kind", record.Kind,
		"embedded", record.HasEmbedding())
	return record, nil
}

// Release releases the worker pool.
// The pipeline should not be used after calling Release.
func (p *Pipeline) Release() {
	if p.pool != nil {
		p.pool.Release()
	}
}
