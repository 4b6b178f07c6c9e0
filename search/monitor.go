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


package search

import (
	"log/slog"

	"github.com/poiesic/recallit/core"
)

// SearchMonitor receives callbacks at each stage of a semantic search.
type SearchMonitor interface {
	Start(ownerID, query string)
	AfterEmbedding(embedding *core.Embedding, err error)
	AfterCandidateFetch(records []*core.CandidateRecord)
	CandidateSkipped(record *core.CandidateRecord, reason error)
	CandidateScored(candidate *core.ScoredCandidate)
	Finish(results []*core.ScoredCandidate)
}

// noopMonitor is a no-op implementation of SearchMonitor
type noopMonitor struct{}

var _ SearchMonitor = (*noopMonitor)(nil)

func (n *noopMonitor) Start(_, _ string)                                 {}
func (n *noopMonitor) AfterEmbedding(_ *core.Embedding, _ error)         {}
func (n *noopMonitor) AfterCandidateFetch(_ []*core.CandidateRecord)     {}
func (n *noopMonitor) CandidateSkipped(_ *core.CandidateRecord, _ error) {}
func (n *noopMonitor) CandidateScored(_ *core.ScoredCandidate)           {}
func (n *noopMonitor) Finish(_ []*core.ScoredCandidate)                  {}

// LogMonitor traces every search stage to a logger at debug level.
type LogMonitor struct {
	Logger *slog.Logger
}

var _ SearchMonitor = (*LogMonitor)(nil)

// NewLogMonitor creates a LogMonitor. A nil logger uses slog.Default().
func NewLogMonitor(logger *slog.Logger) *LogMonitor {
	if logger == nil {
		logger = slog.Default()
	}
	return &LogMonitor{Logger: logger.With("component", "search-trace")}
}

func (m *LogMonitor) Start(ownerID, query string) {
	m.Logger.Debug("search started", "owner", ownerID, "query", query)
}

func (m *LogMonitor) AfterEmbedding(embedding *core.Embedding, err error) {
	if err != nil {
		m.Logger.Debug("query embedding unavailable", "err", err)
		return
	}
	m.Logger.Debug("query embedded", "model", embedding.Model, "dimensions", embedding.Dimensions())
}

func (m *LogMonitor) AfterCandidateFetch(records []*core.CandidateRecord) {
	m.Logger.Debug("candidates fetched", "count", len(records))
}

func (m *LogMonitor) CandidateSkipped(record *core.CandidateRecord, reason error) {
	m.Logger.Debug("candidate skipped", "id", record.Id, "reason", reason)
}

func (m *LogMonitor) CandidateScored(candidate *core.ScoredCandidate) {
	m.Logger.Debug("candidate scored", "id", candidate.Record.Id, "score", candidate.Score)
}

func (m *LogMonitor) Finish(results []*core.ScoredCandidate) {
	m.Logger.Debug("search finished", "results", len(results))
}
