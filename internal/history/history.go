// Package history records palette runs in a SQLite database.
package history

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
	_ "modernc.org/sqlite"
)

// DBFileName is the database file name inside the state directory.
const DBFileName = "history.db"

// DefaultMaxRows bounds the table when no limit is configured.
const DefaultMaxRows = 500

var (
	// ErrRunNotFound indicates that a run id is unknown.
	ErrRunNotFound = errors.New("run not found")
	// ErrInvalidLimit indicates a non-positive row limit.
	ErrInvalidLimit = errors.New("limit must be positive")
)

// Status is the outcome of a run.
type Status string

const (
	StatusRunning   Status = "running"
	StatusSucceeded Status = "succeeded"
	StatusFailed    Status = "failed"
)

// timeLayout keeps a fixed width so stored timestamps sort as text.
const timeLayout = "2006-01-02T15:04:05.000000000Z07:00"

const schemaSQL = `
CREATE TABLE IF NOT EXISTS runs (
	id           TEXT PRIMARY KEY,
	command_id   TEXT NOT NULL,
	command_name TEXT NOT NULL,
	started_at   TEXT NOT NULL,
	finished_at  TEXT NOT NULL DEFAULT '',
	duration_ms  INTEGER NOT NULL DEFAULT 0,
	status       TEXT NOT NULL DEFAULT 'running',
	error        TEXT NOT NULL DEFAULT ''
);
CREATE INDEX IF NOT EXISTS idx_runs_started_at ON runs(started_at);
`

// Run is one recorded execution.
type Run struct {
	ID          string
	CommandID   string
	CommandName string
	StartedAt   time.Time
	FinishedAt  time.Time
	Duration    time.Duration
	Status      Status
	Error       string
}

// Store is a SQLite-backed run history.
type Store struct {
	db      *sql.DB
	maxRows int
	now     func() time.Time
}

// Option configures a Store.
type Option func(*Store)

// WithMaxRows caps the number of kept runs; older ones are pruned on Start.
func WithMaxRows(n int) Option {
	return func(s *Store) {
		if n > 0 {
			s.maxRows = n
		}
	}
}

// WithClock replaces time.Now.
func WithClock(now func() time.Time) Option {
	return func(s *Store) { s.now = now }
}

// Open opens or creates the database at dbPath.
func Open(dbPath string, opts ...Option) (*Store, error) {
	if strings.TrimSpace(dbPath) == "" {
		return nil, fmt.Errorf("history: db path cannot be empty")
	}
	if err := os.MkdirAll(filepath.Dir(dbPath), 0o755); err != nil {
		return nil, fmt.Errorf("history: create db directory: %w", err)
	}

	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("history: open db: %w", err)
	}

	s := &Store{db: db, maxRows: DefaultMaxRows, now: time.Now}
	for _, opt := range opts {
		opt(s)
	}
	if err := s.init(); err != nil {
		_ = db.Close()
		return nil, err
	}
	return s, nil
}

// Path returns the database path under stateDir.
func Path(stateDir string) string {
	return filepath.Join(stateDir, DBFileName)
}

// Close closes the underlying connection.
func (s *Store) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	return s.db.Close()
}

func (s *Store) init() error {
	if _, err := s.db.Exec("PRAGMA busy_timeout = 5000"); err != nil {
		return fmt.Errorf("history: set busy timeout: %w", err)
	}
	if _, err := s.db.Exec(schemaSQL); err != nil {
		return fmt.Errorf("history: create schema: %w", err)
	}
	return nil
}

// Start records a running command and returns the new run id.
func (s *Store) Start(ctx context.Context, commandID, commandName string) (string, error) {
	id := uuid.NewString()
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO runs (id, command_id, command_name, started_at, status) VALUES (?, ?, ?, ?, ?)`,
		id, commandID, commandName, s.now().UTC().Format(timeLayout), string(StatusRunning))
	if err != nil {
		return "", fmt.Errorf("history: start run: %w", err)
	}
	if err := s.prune(ctx); err != nil {
		return id, err
	}
	return id, nil
}

// Finish completes a run with its duration and the action's error.
func (s *Store) Finish(ctx context.Context, runID string, duration time.Duration, runErr error) error {
	status, message := StatusSucceeded, ""
	if runErr != nil {
		status, message = StatusFailed, runErr.Error()
	}
	res, err := s.db.ExecContext(ctx,
		`UPDATE runs SET finished_at = ?, duration_ms = ?, status = ?, error = ? WHERE id = ?`,
		s.now().UTC().Format(timeLayout), duration.Milliseconds(), string(status), message, runID)
	if err != nil {
		return fmt.Errorf("history: finish run: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("history: finish run: %w", err)
	}
	if n == 0 {
		return fmt.Errorf("history: finish run: %w: id %s", ErrRunNotFound, runID)
	}
	return nil
}

// Get returns one run.
func (s *Store) Get(ctx context.Context, runID string) (Run, error) {
	row := s.db.QueryRowContext(ctx, selectRuns+` WHERE id = ?`, runID)
	run, err := scanRun(row)
	if errors.Is(err, sql.ErrNoRows) {
		return Run{}, fmt.Errorf("history: get run: %w: id %s", ErrRunNotFound, runID)
	}
	if err != nil {
		return Run{}, fmt.Errorf("history: get run: %w", err)
	}
	return run, nil
}

// Recent returns up to limit runs, newest first.
func (s *Store) Recent(ctx context.Context, limit int) ([]Run, error) {
	if limit <= 0 {
		return nil, fmt.Errorf("history: recent: %w", ErrInvalidLimit)
	}
	rows, err := s.db.QueryContext(ctx, selectRuns+` ORDER BY started_at DESC, rowid DESC LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("history: recent: %w", err)
	}
	defer rows.Close()

	runs := []Run{}
	for rows.Next() {
		run, err := scanRun(rows)
		if err != nil {
			return nil, fmt.Errorf("history: recent: %w", err)
		}
		runs = append(runs, run)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("history: recent: %w", err)
	}
	return runs, nil
}

// Clear deletes all runs and returns how many were removed.
func (s *Store) Clear(ctx context.Context) (int64, error) {
	res, err := s.db.ExecContext(ctx, `DELETE FROM runs`)
	if err != nil {
		return 0, fmt.Errorf("history: clear: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("history: clear: %w", err)
	}
	return n, nil
}

func (s *Store) prune(ctx context.Context) error {
	_, err := s.db.ExecContext(ctx,
		`DELETE FROM runs WHERE rowid NOT IN (SELECT rowid FROM runs ORDER BY started_at DESC, rowid DESC LIMIT ?)`,
		s.maxRows)
	if err != nil {
		return fmt.Errorf("history: prune: %w", err)
	}
	return nil
}

const selectRuns = `SELECT id, command_id, command_name, started_at, finished_at, duration_ms, status, error FROM runs`

type scanner interface {
	Scan(dest ...any) error
}

func scanRun(sc scanner) (Run, error) {
	var (
		run               Run
		started, finished string
		durationMS        int64
		status            string
	)
	if err := sc.Scan(&run.ID, &run.CommandID, &run.CommandName, &started, &finished, &durationMS, &status, &run.Error); err != nil {
		return Run{}, err
	}
	var err error
	if run.StartedAt, err = time.Parse(timeLayout, started); err != nil {
		return Run{}, fmt.Errorf("parse started_at %q: %w", started, err)
	}
	if finished != "" {
		if run.FinishedAt, err = time.Parse(timeLayout, finished); err != nil {
			return Run{}, fmt.Errorf("parse finished_at %q: %w", finished, err)
		}
	}
	run.Duration = time.Duration(durationMS) * time.Millisecond
	run.Status = Status(status)
	return run, nil
}
