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


package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/poiesic/recallit/core"
	"github.com/poiesic/recallit/storage"
	_ "modernc.org/sqlite" // register pure-Go SQLite driver
)

const schema = `
CREATE TABLE IF NOT EXISTS candidates (
	id               INTEGER PRIMARY KEY,
	owner_id         TEXT    NOT NULL,
	kind             TEXT    NOT NULL,
	type             TEXT    NOT NULL DEFAULT '',
	text             TEXT    NOT NULL,
	output           TEXT    NOT NULL DEFAULT '',
	tags             TEXT,
	metadata         TEXT,
	keywords         TEXT,
	embedding_model  TEXT    NOT NULL DEFAULT '',
	embedding_vector BLOB,
	created_at       INTEGER NOT NULL,
	text_lower       TEXT    NOT NULL DEFAULT '',
	output_lower     TEXT    NOT NULL DEFAULT ''
);
CREATE INDEX IF NOT EXISTS candidates_recency ON candidates(owner_id, kind, created_at DESC);
`

const selectColumns = `id, owner_id, kind, type, text, output, tags, metadata, keywords, embedding_model, embedding_vector, created_at`

// SQLite's lower() and LIKE fold ASCII only, so keyword matching runs against
// copies lowercased in Go when the record is written.
const foldedColumns = `text_lower, output_lower`

// Store implements storage.CandidateStore on a SQLite database.
// Embeddings are stored as little-endian float32 BLOBs.
type Store struct {
	db     *sql.DB
	owned  bool
	logger *slog.Logger
}

var _ storage.CandidateStore = (*Store)(nil)

// Open opens (or creates) a SQLite database at dsn using the modernc.org/sqlite
// driver and ensures the candidates schema exists.
func Open(dsn string) (storage.CandidateStore, error) {
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, err
	}
	// Each connection to :memory: is a separate database
	if dsn == ":memory:" || strings.Contains(dsn, "mode=memory") {
		db.SetMaxOpenConns(1)
	}
	s, err := newStore(db)
	if err != nil {
		db.Close()
		return nil, err
	}
	s.owned = true
	return s, nil
}

// NewStore wraps an existing database handle. The caller keeps ownership of db.
func NewStore(db *sql.DB) (storage.CandidateStore, error) {
	return newStore(db)
}

func newStore(db *sql.DB) (*Store, error) {
	if db == nil {
		return nil, errors.New("sqlite: db is nil")
	}
	if _, err := db.Exec(schema); err != nil {
		return nil, fmt.Errorf("sqlite: ensure schema: %w", err)
	}
	s := &Store{
		db:     db,
		logger: slog.Default().With("component", "sqlite-store"),
	}
	if err := s.migrateFolded(context.Background()); err != nil {
		return nil, fmt.Errorf("sqlite: migrate schema: %w", err)
	}
	return s, nil
}

// migrateFolded adds the lowercased columns to databases created before they
// existed and fills them for rows that were stored without them.
func (s *Store) migrateFolded(ctx context.Context) error {
	existing := map[string]bool{}
	rows, err := s.db.QueryContext(ctx, `SELECT name FROM pragma_table_info('candidates')`)
	if err != nil {
		return err
	}
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			rows.Close()
			return err
		}
		existing[name] = true
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return err
	}
	for _, col := range strings.Split(foldedColumns, ", ") {
		if existing[col] {
			continue
		}
		if _, err := s.db.ExecContext(ctx, `ALTER TABLE candidates ADD COLUMN `+col+` TEXT NOT NULL DEFAULT ''`); err != nil {
			return err
		}
	}

	type pending struct {
		id           int64
		text, output string
	}
	var todo []pending
	rows, err = s.db.QueryContext(ctx,
		`SELECT id, text, output FROM candidates WHERE (text <> '' AND text_lower = '') OR (output <> '' AND output_lower = '')`)
	if err != nil {
		return err
	}
	for rows.Next() {
		var p pending
		if err := rows.Scan(&p.id, &p.text, &p.output); err != nil {
			rows.Close()
			return err
		}
		todo = append(todo, p)
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return err
	}
	if len(todo) == 0 {
		return nil
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback() }()
	for _, p := range todo {
		if _, err := tx.ExecContext(ctx, `UPDATE candidates SET text_lower = ?, output_lower = ? WHERE id = ?`,
			strings.ToLower(p.text), strings.ToLower(p.output), p.id); err != nil {
			return err
		}
	}
	if err := tx.Commit(); err != nil {
		return err
	}
	s.logger.Info("filled lowercased text columns", "rows", len(todo))
	return nil
}

// Close closes the database if the store opened it.
func (s *Store) Close() error {
	if s.owned {
		return s.db.Close()
	}
	return nil
}

// PutCandidates inserts or replaces records by ID in one transaction.
func (s *Store) PutCandidates(ctx context.Context, records ...*core.CandidateRecord) error {
	if len(records) == 0 {
		return nil
	}
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback() }()

	stmt, err := tx.PrepareContext(ctx, `INSERT OR REPLACE INTO candidates(`+selectColumns+`, `+foldedColumns+`) VALUES(?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return err
	}
	defer stmt.Close()

	for _, r := range records {
		if r.Id == 0 {
			return storage.ErrMissingID
		}
		tags, err := encodeJSON(r.Tags)
		if err != nil {
			return err
		}
		meta, err := encodeJSON(r.Metadata)
		if err != nil {
			return err
		}
		keywords, err := encodeJSON(r.Keywords)
		if err != nil {
			return err
		}
		var vector any
		if r.HasEmbedding() {
			vector = r.EncodedVector
		}
		if _, err := stmt.ExecContext(ctx,
			int64(r.Id), r.OwnerID, string(r.Kind), r.Type, r.Text, r.Output,
			tags, meta, keywords, r.EmbeddingModel, vector, timeToMicro(r.CreatedAt),
			strings.ToLower(r.Text), strings.ToLower(r.Output),
		); err != nil {
			return err
		}
	}
	return tx.Commit()
}

// GetCandidate retrieves a single record by ID.
func (s *Store) GetCandidate(ctx context.Context, id core.ID) (*core.CandidateRecord, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+selectColumns+` FROM candidates WHERE id = ?`, int64(id))
	record, err := scanRecord(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, storage.ErrNotFound
	}
	if err != nil {
		s.logger.Warn("failed to decode candidate", "id", id, "err", err)
		return nil, err
	}
	return record, nil
}

// DeleteCandidates removes records by ID.
func (s *Store) DeleteCandidates(ctx context.Context, ids ...core.ID) error {
	if len(ids) == 0 {
		return nil
	}
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback() }()
	for _, id := range ids {
		if _, err := tx.ExecContext(ctx, `DELETE FROM candidates WHERE id = ?`, int64(id)); err != nil {
			return err
		}
	}
	return tx.Commit()
}

// RecentCandidates returns records matching the query, newest first.
func (s *Store) RecentCandidates(ctx context.Context, query storage.CandidateQuery) ([]*core.CandidateRecord, error) {
	if err := query.Validate(); err != nil {
		return nil, err
	}
	where, args := whereClause(query)
	return s.query(ctx, query, where, args)
}

// MatchKeywords returns records whose text or output contains any keyword,
// compared case-insensitively.
func (s *Store) MatchKeywords(ctx context.Context, query storage.CandidateQuery, keywords []string) ([]*core.CandidateRecord, error) {
	if err := query.Validate(); err != nil {
		return nil, err
	}
	where, args := whereClause(query)

	var clauses []string
	for _, kw := range keywords {
		if kw == "" {
			continue
		}
		pattern := "%" + escapeLike(strings.ToLower(kw)) + "%"
		clauses = append(clauses, `text_lower LIKE ? ESCAPE '\' OR output_lower LIKE ? ESCAPE '\'`)
		args = append(args, pattern, pattern)
	}
	if len(clauses) == 0 {
		return nil, nil
	}
	where += " AND (" + strings.Join(clauses, " OR ") + ")"
	return s.query(ctx, query, where, args)
}

func (s *Store) query(ctx context.Context, query storage.CandidateQuery, where string, args []any) ([]*core.CandidateRecord, error) {
	stmt := `SELECT ` + selectColumns + ` FROM candidates WHERE ` + where + ` ORDER BY created_at DESC, id DESC`
	if query.Limit > 0 {
		stmt += ` LIMIT ?`
		args = append(args, query.Limit)
	}

	rows, err := s.db.QueryContext(ctx, stmt, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []*core.CandidateRecord
	for rows.Next() {
		record, err := scanRecord(rows)
		if err != nil {
			s.logger.Warn("failed to decode candidate", "owner_id", query.OwnerID, "kind", query.Kind, "err", err)
			return nil, err
		}
		out = append(out, record)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return out, nil
}

func whereClause(query storage.CandidateQuery) (string, []any) {
	where := `owner_id = ? AND kind = ?`
	args := []any{query.OwnerID, string(query.Kind)}
	switch query.Embedding {
	case storage.WithEmbedding:
		where += ` AND embedding_vector IS NOT NULL`
	case storage.WithoutEmbedding:
		where += ` AND embedding_vector IS NULL`
	}
	return where, args
}

type scanner interface {
	Scan(dest ...any) error
}

func scanRecord(row scanner) (*core.CandidateRecord, error) {
	var (
		r                    core.CandidateRecord
		id                   int64
		kind                 string
		tags, meta, keywords sql.NullString
		vector               []byte
		createdAt            int64
	)
	if err := row.Scan(&id, &r.OwnerID, &kind, &r.Type, &r.Text, &r.Output,
		&tags, &meta, &keywords, &r.EmbeddingModel, &vector, &createdAt); err != nil {
		return nil, err
	}
	r.Id = core.ID(id)
	r.Kind = core.Kind(kind)
	if len(vector) > 0 {
		r.EncodedVector = vector
	}
	r.CreatedAt = microToTime(createdAt)
	if err := decodeJSON(tags, &r.Tags); err != nil {
		return nil, err
	}
	if err := decodeJSON(meta, &r.Metadata); err != nil {
		return nil, err
	}
	if err := decodeJSON(keywords, &r.Keywords); err != nil {
		return nil, err
	}
	return &r, nil
}

func encodeJSON[T any](v T) (any, error) {
	switch x := any(v).(type) {
	case []string:
		if len(x) == 0 {
			return nil, nil
		}
	case map[string]string:
		if len(x) == 0 {
			return nil, nil
		}
	}
	b, err := json.Marshal(v)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", storage.ErrSerializationFailed, err)
	}
	return string(b), nil
}

func decodeJSON(s sql.NullString, dst any) error {
	if !s.Valid || s.String == "" {
		return nil
	}
	if err := json.Unmarshal([]byte(s.String), dst); err != nil {
		return fmt.Errorf("%w: %w", storage.ErrSerializationFailed, err)
	}
	return nil
}

func escapeLike(s string) string {
	r := strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)
	return r.Replace(s)
}

func timeToMicro(t time.Time) int64 {
	if t.IsZero() {
		return 0
	}
	return t.UnixMicro()
}

func microToTime(us int64) time.Time {
	if us == 0 {
		return time.Time{}
	}
	return time.UnixMicro(us).UTC()
}
