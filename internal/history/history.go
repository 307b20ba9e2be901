// Package history keeps a local journal of completed counting runs.
//
// The journal backs `countme status` and nothing else. It stays on the
// machine: nothing in it is ever transmitted, and a failure to record a
// run never affects the run's outcome.
package history

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite"
)

const schema = `
CREATE TABLE IF NOT EXISTS runs (
	id         INTEGER PRIMARY KEY AUTOINCREMENT,
	counted_at INTEGER NOT NULL,
	bucket     INTEGER NOT NULL,
	successes  INTEGER NOT NULL,
	total      INTEGER NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_runs_counted_at ON runs(counted_at DESC);
`

// Entry is one recorded run.
type Entry struct {
	CountedAt time.Time `json:"counted_at" yaml:"counted_at"`
	Bucket    int       `json:"bucket" yaml:"bucket"`
	Successes int       `json:"successes" yaml:"successes"`
	Total     int       `json:"total" yaml:"total"`
}

// Store is the SQLite-backed run journal.
type Store struct {
	db *sql.DB
}

// Open opens (creating if needed) the journal at the given path.
func Open(ctx context.Context, path string) (*Store, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("failed to create history directory: %w", err)
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open history database: %w", err)
	}

	// Single writer, but WAL keeps a concurrent status read cheap.
	if _, err := db.ExecContext(ctx, "PRAGMA journal_mode=WAL"); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to enable WAL mode: %w", err)
	}
	if _, err := db.ExecContext(ctx, "PRAGMA busy_timeout=5000"); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to set busy timeout: %w", err)
	}

	if _, err := db.ExecContext(ctx, schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to create history schema: %w", err)
	}

	return &Store{db: db}, nil
}

// Close closes the journal.
func (s *Store) Close() error {
	return s.db.Close()
}

// Record appends one completed run.
func (s *Store) Record(ctx context.Context, e Entry) error {
	_, err := s.db.ExecContext(ctx,
		"INSERT INTO runs (counted_at, bucket, successes, total) VALUES (?, ?, ?, ?)",
		e.CountedAt.Unix(), e.Bucket, e.Successes, e.Total,
	)
	if err != nil {
		return fmt.Errorf("failed to record run: %w", err)
	}
	return nil
}

// Recent returns up to limit runs, newest first.
func (s *Store) Recent(ctx context.Context, limit int) ([]Entry, error) {
	rows, err := s.db.QueryContext(ctx,
		"SELECT counted_at, bucket, successes, total FROM runs ORDER BY counted_at DESC, id DESC LIMIT ?",
		limit,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to query runs: %w", err)
	}
	defer rows.Close()

	var entries []Entry
	for rows.Next() {
		var e Entry
		var countedAt int64
		if err := rows.Scan(&countedAt, &e.Bucket, &e.Successes, &e.Total); err != nil {
			return nil, fmt.Errorf("failed to scan run: %w", err)
		}
		e.CountedAt = time.Unix(countedAt, 0)
		entries = append(entries, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to read runs: %w", err)
	}

	return entries, nil
}
