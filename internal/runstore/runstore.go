// Package runstore keeps the history of processed uploads in SQLite.
package runstore

import (
	"context"
	"database/sql"
	"embed"
	"encoding/json"
	"os"
	"path/filepath"
	"time"

	"github.com/cockroachdb/errors"

	"github.com/raysh454/beaconcheck/internal/logging"
	"github.com/raysh454/beaconcheck/internal/model"

	_ "modernc.org/sqlite" // SQLite driver
)

//go:embed schema.sql
var schemaFS embed.FS

// ErrRunNotFound is returned by Get for unknown ids.
var ErrRunNotFound = errors.New("run not found")

// Config selects whether and where run history is kept.
type Config struct {
	Enabled bool   `yaml:"enabled"`
	Path    string `yaml:"path" default:"data/runs.db"`
}

// Store persists runs.
type Store struct {
	db     *sql.DB
	logger logging.Logger
}

// Open opens (creating if needed) the database at path.
func Open(path string, logger logging.Logger) (*Store, error) {
	if path == "" {
		return nil, errors.New("runstore path is required")
	}
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, errors.Wrapf(err, "ensure dir %s", dir)
		}
	}
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, errors.Wrap(err, "open run database")
	}
	s, err := New(db, logger)
	if err != nil {
		db.Close()
		return nil, err
	}
	return s, nil
}

// New runs the schema against db and returns a Store owning it.
func New(db *sql.DB, logger logging.Logger) (*Store, error) {
	if db == nil {
		return nil, errors.New("db is nil")
	}
	// SQLite allows a single writer.
	db.SetMaxOpenConns(1)

	schemaSQL, err := schemaFS.ReadFile("schema.sql")
	if err != nil {
		return nil, errors.Wrap(err, "read schema.sql")
	}
	if _, err := db.Exec(string(schemaSQL)); err != nil {
		return nil, errors.Wrap(err, "execute schema")
	}
	return &Store{db: db, logger: logger.With(logging.String("component", "runstore"))}, nil
}

// Save inserts or replaces a run.
func (s *Store) Save(ctx context.Context, run *model.Run) error {
	rows := run.Rows
	if rows == nil {
		rows = []*model.Row{}
	}
	rowsJSON, err := json.Marshal(rows)
	if err != nil {
		return errors.Wrap(err, "encode rows")
	}

	_, err = s.db.ExecContext(ctx,
		`INSERT INTO runs (id, file_name, file_path, status, error, row_count, passed, failed, captured, rows_json, started_at, finished_at)
         VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
         ON CONFLICT(id) DO UPDATE SET
             status = excluded.status,
             error = excluded.error,
             row_count = excluded.row_count,
             passed = excluded.passed,
             failed = excluded.failed,
             captured = excluded.captured,
             rows_json = excluded.rows_json,
             finished_at = excluded.finished_at`,
		run.ID, run.FileName, run.FilePath, string(run.Status), run.Error,
		run.RowCount, run.Passed, run.Failed, run.Captured, string(rowsJSON),
		toMillis(run.StartedAt), finishedMillis(run.FinishedAt),
	)
	if err != nil {
		return errors.Wrapf(err, "save run %s", run.ID)
	}
	s.logger.Debug("saved run", logging.String("run_id", run.ID), logging.String("status", string(run.Status)))
	return nil
}

// Get returns a run with its rows.
func (s *Store) Get(ctx context.Context, id string) (*model.Run, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT id, file_name, file_path, status, error, row_count, passed, failed, captured, rows_json, started_at, finished_at
         FROM runs
         WHERE id = ?
         LIMIT 1`, id)

	var (
		run                 model.Run
		status, rowsJSON    string
		startedAt, finished int64
	)
	err := row.Scan(&run.ID, &run.FileName, &run.FilePath, &status, &run.Error,
		&run.RowCount, &run.Passed, &run.Failed, &run.Captured, &rowsJSON, &startedAt, &finished)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrRunNotFound
	}
	if err != nil {
		return nil, errors.Wrapf(err, "get run %s", id)
	}
	if err := json.Unmarshal([]byte(rowsJSON), &run.Rows); err != nil {
		return nil, errors.Wrapf(err, "decode rows of run %s", id)
	}
	run.Status = model.RunStatus(status)
	run.StartedAt = fromMillis(startedAt)
	run.FinishedAt = finishedTime(finished)
	return &run, nil
}

// List returns up to limit runs, newest first, without their rows.
// A limit <= 0 returns every run.
func (s *Store) List(ctx context.Context, limit int) ([]*model.Run, error) {
	if limit <= 0 {
		limit = -1
	}
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, file_name, file_path, status, error, row_count, passed, failed, captured, started_at, finished_at
         FROM runs
         ORDER BY started_at DESC
         LIMIT ?`, limit)
	if err != nil {
		return nil, errors.Wrap(err, "list runs")
	}
	defer rows.Close()

	out := []*model.Run{}
	for rows.Next() {
		var (
			run                 model.Run
			status              string
			startedAt, finished int64
		)
		if err := rows.Scan(&run.ID, &run.FileName, &run.FilePath, &status, &run.Error,
			&run.RowCount, &run.Passed, &run.Failed, &run.Captured, &startedAt, &finished); err != nil {
			return nil, errors.Wrap(err, "scan run")
		}
		run.Status = model.RunStatus(status)
		run.StartedAt = fromMillis(startedAt)
		run.FinishedAt = finishedTime(finished)
		out = append(out, &run)
	}
	return out, errors.Wrap(rows.Err(), "iterate runs")
}

func (s *Store) Close() error {
	return s.db.Close()
}

func toMillis(t time.Time) int64 {
	if t.IsZero() {
		return 0
	}
	return t.UnixMilli()
}

func fromMillis(ms int64) time.Time {
	if ms == 0 {
		return time.Time{}
	}
	return time.UnixMilli(ms).UTC()
}

func finishedMillis(t *time.Time) int64 {
	if t == nil {
		return 0
	}
	return toMillis(*t)
}

func finishedTime(ms int64) *time.Time {
	if ms == 0 {
		return nil
	}
	t := fromMillis(ms)
	return &t
}
