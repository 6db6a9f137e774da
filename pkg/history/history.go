// Package history provides an optional local run-history cache: a
// SQLite-backed record of past gate runs (status, coverage, timestamp),
// so a CLI invocation can report trend information without re-running
// every prior suite. Adapted from the teacher's
// pkg/store.SQLiteReceiptStore, replacing its receipt-chain schema with
// one row per gate run.
package history

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	_ "modernc.org/sqlite"
)

// Store persists gate run records to a local SQLite database.
type Store struct {
	db *sql.DB
}

// Open opens (and migrates) a run-history database at path. Pass ":memory:"
// for an ephemeral, process-local cache.
func Open(path string) (*Store, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open run history db: %w", err)
	}
	s := &Store{db: db}
	if err := s.migrate(); err != nil {
		db.Close()
		return nil, err
	}
	return s, nil
}

// NewWithDB wraps an already-open *sql.DB (used by tests with
// go-sqlmock, where the mock driver owns connection lifecycle).
func NewWithDB(db *sql.DB) (*Store, error) {
	s := &Store{db: db}
	if err := s.migrate(); err != nil {
		return nil, err
	}
	return s, nil
}

func (s *Store) migrate() error {
	query := `
	CREATE TABLE IF NOT EXISTS gate_runs (
		run_id TEXT PRIMARY KEY,
		gate_name TEXT NOT NULL,
		status TEXT NOT NULL,
		coverage_ratio REAL NOT NULL,
		attempts_run INTEGER NOT NULL,
		recorded_at DATETIME NOT NULL
	);`
	_, err := s.db.ExecContext(context.Background(), query)
	if err != nil {
		return fmt.Errorf("migrate run history schema: %w", err)
	}
	return nil
}

// Run is one recorded gate run.
type Run struct {
	RunID         string
	GateName      string
	Status        string
	CoverageRatio float64
	AttemptsRun   int
	RecordedAt    time.Time
}

// Record inserts a gate run record.
func (s *Store) Record(ctx context.Context, r Run) error {
	query := `INSERT INTO gate_runs (run_id, gate_name, status, coverage_ratio, attempts_run, recorded_at)
		VALUES (?, ?, ?, ?, ?, ?)`
	_, err := s.db.ExecContext(ctx, query,
		r.RunID, r.GateName, r.Status, r.CoverageRatio, r.AttemptsRun, r.RecordedAt.UTC().Format(time.RFC3339Nano))
	if err != nil {
		return fmt.Errorf("record gate run: %w", err)
	}
	return nil
}

// RecentRuns returns the most recent runs for gateName, newest first.
func (s *Store) RecentRuns(ctx context.Context, gateName string, limit int) ([]Run, error) {
	query := `SELECT run_id, gate_name, status, coverage_ratio, attempts_run, recorded_at
		FROM gate_runs WHERE gate_name = ? ORDER BY recorded_at DESC LIMIT ?`
	rows, err := s.db.QueryContext(ctx, query, gateName, limit)
	if err != nil {
		return nil, fmt.Errorf("query recent runs: %w", err)
	}
	defer rows.Close()

	var runs []Run
	for rows.Next() {
		var r Run
		var recordedAt string
		if err := rows.Scan(&r.RunID, &r.GateName, &r.Status, &r.CoverageRatio, &r.AttemptsRun, &recordedAt); err != nil {
			return nil, fmt.Errorf("scan gate run row: %w", err)
		}
		r.RecordedAt, _ = time.Parse(time.RFC3339Nano, recordedAt)
		runs = append(runs, r)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate gate run rows: %w", err)
	}
	return runs, nil
}

// Close releases the underlying database handle.
func (s *Store) Close() error {
	return s.db.Close()
}
