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
	"sync"
	"sync/atomic"

	"github.com/poiesic/recallit/core"
	"github.com/poiesic/recallit/embedding"
	"github.com/poiesic/recallit/storage"
)

// BackfillReport summarizes a Backfill run.
type BackfillReport struct {
	Scanned  int `json:"scanned"`  // records examined
	Embedded int `json:"embedded"` // records given a fresh embedding
	Failed   int `json:"failed"`   // records whose embedding could not be generated or stored
}

// Backfill embeds the owner's records of kind that have no embedding or
// whose embedding came from a different model than the generator's. At most
// limit of the newest records are examined; zero or negative means all.
//
// Records are processed concurrently on the pipeline's worker pool. Per
// record failures are counted and logged, not returned.
func (p *Pipeline) Backfill(ctx context.Context, ownerID string, kind core.Kind, limit int) (BackfillReport, error) {
	records, err := p.store.RecentCandidates(ctx, storage.CandidateQuery{
		OwnerID:   ownerID,
		Kind:      kind,
		Embedding: storage.AnyEmbedding,
		Limit:     limit,
	})
	if err != nil {
		return BackfillReport{}, err
	}

	model := p.generator.Model()
	var stale []*core.CandidateRecord
	for _, record := range records {
		if !record.HasEmbedding() || record.EmbeddingModel != model {
			stale = append(stale, record)
		}
	}

	report := BackfillReport{Scanned: len(records)}
	if len(stale) == 0 {
		return report, nil
	}
	p.logger.Info("backfilling embeddings", "owner", ownerID, "kind", kind, "records", len(stale), "model", model)

	var progress *ProgressTracker
	if p.progress != nil {
		progress = NewProgressTracker(p.progress, len(stale), 10)
		progress.Start()
	}

	var (
		wg       sync.WaitGroup
		embedded atomic.Int64
		failed   atomic.Int64
	)
	for _, record := range stale {
		wg.Add(1)
		task := func() {
			defer wg.Done()
			if p.embedRecord(ctx, record) {
				embedded.Add(1)
			} else {
				failed.Add(1)
			}
			if progress != nil {
				progress.Increment(1)
			}
		}
		if err := p.pool.Submit(task); err != nil {
			wg.Done()
			failed.Add(1)
			p.logger.Error("failed to submit backfill task", "id", record.Id, "err", err)
		}
	}
	wg.Wait()

	if progress != nil {
		progress.Finish()
	}

	report.Embedded = int(embedded.Load())
	report.Failed = int(failed.Load())
	p.logger.Info("backfill finished", "scanned", report.Scanned, "embedded", report.Embedded, "failed", report.Failed)
	return report, ctx.Err()
}

// embedRecord generates and stores a fresh embedding for record, retrying
// transient failures. Reports whether the record was updated.
func (p *Pipeline) embedRecord(ctx context.Context, record *core.CandidateRecord) bool {
	var emb *core.Embedding
	err := RetryWithBackoff(ctx, func() error {
		var genErr error
		emb, genErr = p.generator.Generate(ctx, record.Text)
		if errors.Is(genErr, embedding.ErrEmptyText) {
			return Permanent(genErr)
		}
		return genErr
	}, p.maxAttempts, p.retryDelay)
	if err != nil {
		p.logger.Warn("backfill embedding failed", "id", record.Id, "err", err)
		return false
	}

	record.SetEmbedding(emb)
	if err := p.store.PutCandidates(ctx, record); err != nil {
		p.logger.Error("failed to store backfilled record", "id", record.Id, "err", err)
		return false
	}
	return true
}
