// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package manifest keeps an advisory SQLite log of processed work units.
//
// The lake presence check stays authoritative for idempotency; the manifest
// exists so operators can ask what a batch did after the fact and so the CLI
// can print end-of-batch failure counts.
package manifest

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "github.com/mattn/go-sqlite3"

	"github.com/Mahdi-Moosa/NIH-Reporter-Data-EL/internal/pipeline"
)

// Store records work-unit outcomes in a SQLite database.
type Store struct {
	db *sql.DB
}

// Open opens or creates the manifest database at path, creating the schema
// if it does not exist.
func Open(path string) (*Store, error) {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("manifest: creating directory %s: %w", dir, err)
		}
	}

	db, err := sql.Open("sqlite3", path+"?_journal_mode=WAL")
	if err != nil {
		return nil, fmt.Errorf("manifest: opening database: %w", err)
	}

	s := &Store{db: db}
	if err := s.createSchema(); err != nil {
		db.Close()
		return nil, fmt.Errorf("manifest: creating schema: %w", err)
	}
	return s, nil
}

// Close releases the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

func (s *Store) createSchema() error {
	statements := []string{
		`CREATE TABLE IF NOT EXISTS runs (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			unit TEXT NOT NULL,
			source_url TEXT,
			status TEXT NOT NULL,
			rows INTEGER,
			error TEXT,
			started_at TEXT NOT NULL,
			finished_at TEXT NOT NULL
		)`,
		`CREATE INDEX IF NOT EXISTS idx_runs_unit ON runs(unit)`,
		`CREATE INDEX IF NOT EXISTS idx_runs_status ON runs(status)`,
	}
	for _, stmt := range statements {
		if _, err := s.db.Exec(stmt); err != nil {
			return fmt.Errorf("executing schema statement: %w", err)
		}
	}
	return nil
}

// Record appends one row for a finished work unit. It satisfies
// pipeline.Recorder.
func (s *Store) Record(ctx context.Context, out pipeline.Outcome, started, finished time.Time) error {
	var errText sql.NullString
	if out.Err != nil {
		errText = sql.NullString{String: out.Err.Error(), Valid: true}
	}

	_, err := s.db.ExecContext(ctx,
		`INSERT INTO runs (unit, source_url, status, rows, error, started_at, finished_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?)`,
		out.Unit.Name, out.Unit.URL, string(out.Status), out.Rows, errText,
		started.Format(time.RFC3339Nano), finished.Format(time.RFC3339Nano))
	if err != nil {
		return fmt.Errorf("manifest: recording %s: %w", out.Unit.Name, err)
	}
	return nil
}

// Run is one recorded work-unit outcome.
type Run struct {
	Unit       string
	SourceURL  string
	Status     pipeline.Status
	Rows       int
	Error      string
	StartedAt  time.Time
	FinishedAt time.Time
}

// Recent returns the latest limit runs, newest first.
func (s *Store) Recent(ctx context.Context, limit int) ([]Run, error) {
	if limit <= 0 {
		limit = 20
	}
	rows, err := s.db.QueryContext(ctx,
		`SELECT unit, source_url, status, rows, COALESCE(error, ''), started_at, finished_at
		 FROM runs ORDER BY id DESC LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("manifest: querying runs: %w", err)
	}
	defer rows.Close()

	var runs []Run
	for rows.Next() {
		var r Run
		var started, finished string
		if err := rows.Scan(&r.Unit, &r.SourceURL, &r.Status, &r.Rows, &r.Error, &started, &finished); err != nil {
			return nil, fmt.Errorf("manifest: scanning run: %w", err)
		}
		r.StartedAt, _ = time.Parse(time.RFC3339Nano, started)
		r.FinishedAt, _ = time.Parse(time.RFC3339Nano, finished)
		runs = append(runs, r)
	}
	return runs, rows.Err()
}

// FailureCount returns how many recorded runs ended in the failed state.
func (s *Store) FailureCount(ctx context.Context) (int, error) {
	var n int
	err := s.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM runs WHERE status = ?`, string(pipeline.StatusFailed)).Scan(&n)
	if err != nil {
		return 0, fmt.Errorf("manifest: counting failures: %w", err)
	}
	return n, nil
}
