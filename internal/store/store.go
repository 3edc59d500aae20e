// Package store persists validation run summaries in PostgreSQL.
package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgtype"
)

// ErrRunNotFound is returned when no run has the requested id.
var ErrRunNotFound = errors.New("validation run not found")

// DBTX is the interface for database operations.
// Satisfied by both *pgxpool.Pool and pgx.Tx.
type DBTX interface {
	Exec(context.Context, string, ...interface{}) (pgconn.CommandTag, error)
	Query(context.Context, string, ...interface{}) (pgx.Rows, error)
	QueryRow(context.Context, string, ...interface{}) pgx.Row
}

// Run is a stored validation run.
type Run struct {
	ID          uuid.UUID
	Source      string
	StartedAt   time.Time
	Duration    time.Duration
	HasErrors   bool
	NoticeCount int
	// Summary is the JSON encoded run summary.
	Summary json.RawMessage
}

// Store reads and writes validation runs.
type Store struct {
	db DBTX
}

// New creates a Store on db.
func New(db DBTX) *Store {
	return &Store{db: db}
}

const schemaSQL = `
CREATE TABLE IF NOT EXISTS validation_runs (
	id           UUID PRIMARY KEY,
	source       TEXT NOT NULL,
	started_at   TIMESTAMPTZ NOT NULL,
	duration_ms  BIGINT NOT NULL,
	has_errors   BOOLEAN NOT NULL,
	notice_count BIGINT NOT NULL,
	summary      JSONB NOT NULL
);
CREATE INDEX IF NOT EXISTS validation_runs_started_at_idx ON validation_runs (started_at DESC);
`

// Migrate creates the tables the store needs.
func (s *Store) Migrate(ctx context.Context) error {
	if _, err := s.db.Exec(ctx, schemaSQL); err != nil {
		return fmt.Errorf("migrate validation_runs: %w", err)
	}
	return nil
}

const saveRunSQL = `
INSERT INTO validation_runs (id, source, started_at, duration_ms, has_errors, notice_count, summary)
VALUES ($1, $2, $3, $4, $5, $6, $7)
ON CONFLICT (id) DO UPDATE SET
	source = EXCLUDED.source,
	started_at = EXCLUDED.started_at,
	duration_ms = EXCLUDED.duration_ms,
	has_errors = EXCLUDED.has_errors,
	notice_count = EXCLUDED.notice_count,
	summary = EXCLUDED.summary`

// SaveRun inserts run, replacing any run with the same id.
func (s *Store) SaveRun(ctx context.Context, run Run) error {
	if run.ID == uuid.Nil {
		return errors.New("save run: missing id")
	}
	if run.StartedAt.IsZero() {
		run.StartedAt = time.Now()
	}
	summary := run.Summary
	if len(summary) == 0 {
		summary = json.RawMessage("{}")
	}
	_, err := s.db.Exec(ctx, saveRunSQL,
		toPgUUID(run.ID),
		run.Source,
		toPgTimestamptz(run.StartedAt),
		run.Duration.Milliseconds(),
		run.HasErrors,
		int64(run.NoticeCount),
		[]byte(summary),
	)
	if err != nil {
		return fmt.Errorf("save run %s: %w", run.ID, err)
	}
	return nil
}

const selectRunColumns = `id, source, started_at, duration_ms, has_errors, notice_count, summary`

// GetRun loads the run with id.
func (s *Store) GetRun(ctx context.Context, id uuid.UUID) (*Run, error) {
	row := s.db.QueryRow(ctx,
		"SELECT "+selectRunColumns+" FROM validation_runs WHERE id = $1",
		toPgUUID(id))
	run, err := scanRun(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrRunNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get run %s: %w", id, err)
	}
	return run, nil
}

// RecentRuns lists up to limit runs, newest first. Summaries are not loaded.
func (s *Store) RecentRuns(ctx context.Context, limit int) ([]Run, error) {
	if limit <= 0 {
		return nil, nil
	}
	rows, err := s.db.Query(ctx,
		`SELECT id, source, started_at, duration_ms, has_errors, notice_count, '{}'::jsonb
		 FROM validation_runs ORDER BY started_at DESC LIMIT $1`,
		int32(limit))
	if err != nil {
		return nil, fmt.Errorf("list runs: %w", err)
	}
	defer rows.Close()

	var runs []Run
	for rows.Next() {
		run, err := scanRun(rows)
		if err != nil {
			return nil, fmt.Errorf("list runs: %w", err)
		}
		runs = append(runs, *run)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list runs: %w", err)
	}
	return runs, nil
}

// Prune deletes all but the keep newest runs and returns how many were removed.
func (s *Store) Prune(ctx context.Context, keep int) (int64, error) {
	if keep < 0 {
		keep = 0
	}
	tag, err := s.db.Exec(ctx,
		`DELETE FROM validation_runs WHERE id NOT IN (
			SELECT id FROM validation_runs ORDER BY started_at DESC LIMIT $1)`,
		int32(keep))
	if err != nil {
		return 0, fmt.Errorf("prune runs: %w", err)
	}
	return tag.RowsAffected(), nil
}

func scanRun(row pgx.Row) (*Run, error) {
	var (
		id          pgtype.UUID
		source      string
		startedAt   pgtype.Timestamptz
		durationMS  int64
		hasErrors   bool
		noticeCount int64
		summary     []byte
	)
	if err := row.Scan(&id, &source, &startedAt, &durationMS, &hasErrors, &noticeCount, &summary); err != nil {
		return nil, err
	}
	return &Run{
		ID:          uuid.UUID(id.Bytes),
		Source:      source,
		StartedAt:   startedAt.Time,
		Duration:    time.Duration(durationMS) * time.Millisecond,
		HasErrors:   hasErrors,
		NoticeCount: int(noticeCount),
		Summary:     json.RawMessage(summary),
	}, nil
}

func toPgUUID(id uuid.UUID) pgtype.UUID {
	return pgtype.UUID{Bytes: id, Valid: true}
}

func toPgTimestamptz(t time.Time) pgtype.Timestamptz {
	return pgtype.Timestamptz{Time: t, Valid: true}
}
