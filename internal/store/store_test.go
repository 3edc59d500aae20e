package store

import (
	"context"
	"encoding/json"
	"errors"
	"reflect"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type execCall struct {
	sql  string
	args []interface{}
}

// fakeDB records statements and replays canned rows.
type fakeDB struct {
	execs   []execCall
	execTag pgconn.CommandTag
	execErr error
	rows    [][]interface{}
	rowErr  error
}

func (f *fakeDB) Exec(_ context.Context, sql string, args ...interface{}) (pgconn.CommandTag, error) {
	f.execs = append(f.execs, execCall{sql: sql, args: args})
	return f.execTag, f.execErr
}

func (f *fakeDB) Query(_ context.Context, _ string, _ ...interface{}) (pgx.Rows, error) {
	if f.rowErr != nil {
		return nil, f.rowErr
	}
	return &fakeRows{rows: f.rows, pos: -1}, nil
}

func (f *fakeDB) QueryRow(_ context.Context, _ string, _ ...interface{}) pgx.Row {
	if f.rowErr != nil {
		return fakeRow{err: f.rowErr}
	}
	if len(f.rows) == 0 {
		return fakeRow{err: pgx.ErrNoRows}
	}
	return fakeRow{values: f.rows[0]}
}

type fakeRow struct {
	values []interface{}
	err    error
}

func (r fakeRow) Scan(dest ...any) error {
	if r.err != nil {
		return r.err
	}
	return assign(r.values, dest)
}

type fakeRows struct {
	rows [][]interface{}
	pos  int
}

func (r *fakeRows) Close()                                       {}
func (r *fakeRows) Err() error                                   { return nil }
func (r *fakeRows) CommandTag() pgconn.CommandTag                { return pgconn.CommandTag{} }
func (r *fakeRows) FieldDescriptions() []pgconn.FieldDescription { return nil }
func (r *fakeRows) Values() ([]any, error)                       { return r.rows[r.pos], nil }
func (r *fakeRows) RawValues() [][]byte                          { return nil }
func (r *fakeRows) Conn() *pgx.Conn                              { return nil }

func (r *fakeRows) Next() bool {
	r.pos++
	return r.pos < len(r.rows)
}

func (r *fakeRows) Scan(dest ...any) error {
	return assign(r.rows[r.pos], dest)
}

func assign(values []interface{}, dest []any) error {
	if len(values) != len(dest) {
		return errors.New("column count mismatch")
	}
	for i, v := range values {
		reflect.ValueOf(dest[i]).Elem().Set(reflect.ValueOf(v))
	}
	return nil
}

func runRow(id uuid.UUID, started time.Time, summary string) []interface{} {
	return []interface{}{
		pgtype.UUID{Bytes: id, Valid: true},
		"feed.zip",
		pgtype.Timestamptz{Time: started, Valid: true},
		int64(1500),
		true,
		int64(7),
		[]byte(summary),
	}
}

func TestStore_Migrate(t *testing.T) {
	db := &fakeDB{}
	require.NoError(t, New(db).Migrate(context.Background()))
	require.Len(t, db.execs, 1)
	assert.Contains(t, db.execs[0].sql, "CREATE TABLE IF NOT EXISTS validation_runs")

	db.execErr = errors.New("permission denied")
	err := New(db).Migrate(context.Background())
	assert.ErrorContains(t, err, "permission denied")
}

func TestStore_SaveRun(t *testing.T) {
	db := &fakeDB{}
	id := uuid.New()
	started := time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC)

	err := New(db).SaveRun(context.Background(), Run{
		ID:          id,
		Source:      "feed.zip",
		StartedAt:   started,
		Duration:    2 * time.Second,
		HasErrors:   true,
		NoticeCount: 3,
	})
	require.NoError(t, err)
	require.Len(t, db.execs, 1)

	call := db.execs[0]
	assert.True(t, strings.Contains(call.sql, "ON CONFLICT (id) DO UPDATE"))
	assert.Equal(t, pgtype.UUID{Bytes: id, Valid: true}, call.args[0])
	assert.Equal(t, "feed.zip", call.args[1])
	assert.Equal(t, pgtype.Timestamptz{Time: started, Valid: true}, call.args[2])
	assert.Equal(t, int64(2000), call.args[3])
	assert.Equal(t, []byte("{}"), call.args[6])
}

func TestStore_SaveRunRequiresID(t *testing.T) {
	db := &fakeDB{}
	err := New(db).SaveRun(context.Background(), Run{Source: "x"})
	assert.Error(t, err)
	assert.Empty(t, db.execs)
}

func TestStore_GetRun(t *testing.T) {
	id := uuid.New()
	started := time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC)
	db := &fakeDB{rows: [][]interface{}{runRow(id, started, `{"ok":true}`)}}

	run, err := New(db).GetRun(context.Background(), id)
	require.NoError(t, err)
	assert.Equal(t, id, run.ID)
	assert.Equal(t, "feed.zip", run.Source)
	assert.Equal(t, started, run.StartedAt)
	assert.Equal(t, 1500*time.Millisecond, run.Duration)
	assert.True(t, run.HasErrors)
	assert.Equal(t, 7, run.NoticeCount)
	assert.JSONEq(t, `{"ok":true}`, string(run.Summary))
}

func TestStore_GetRunNotFound(t *testing.T) {
	_, err := New(&fakeDB{}).GetRun(context.Background(), uuid.New())
	assert.ErrorIs(t, err, ErrRunNotFound)

	_, err = New(&fakeDB{rowErr: errors.New("conn reset")}).GetRun(context.Background(), uuid.New())
	assert.ErrorContains(t, err, "conn reset")
	assert.NotErrorIs(t, err, ErrRunNotFound)
}

func TestStore_RecentRuns(t *testing.T) {
	now := time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC)
	a, b := uuid.New(), uuid.New()
	db := &fakeDB{rows: [][]interface{}{
		runRow(a, now, "{}"),
		runRow(b, now.Add(-time.Hour), "{}"),
	}}

	runs, err := New(db).RecentRuns(context.Background(), 10)
	require.NoError(t, err)
	require.Len(t, runs, 2)
	assert.Equal(t, a, runs[0].ID)
	assert.Equal(t, b, runs[1].ID)
	assert.Equal(t, json.RawMessage("{}"), runs[1].Summary)

	runs, err = New(db).RecentRuns(context.Background(), 0)
	require.NoError(t, err)
	assert.Nil(t, runs)
}

func TestStore_Prune(t *testing.T) {
	db := &fakeDB{execTag: pgconn.NewCommandTag("DELETE 4")}
	n, err := New(db).Prune(context.Background(), 100)
	require.NoError(t, err)
	assert.Equal(t, int64(4), n)
	assert.Equal(t, int32(100), db.execs[0].args[0])
}
