// Package history keeps a sqlite ledger of capture outcomes so repeated batch
// runs over a catalog can be audited after the fact.
package history

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite"

	"github.com/felixgeelhaar/exlogic/internal/errors"
)

// DefaultPath is where the ledger lives relative to the working directory
const DefaultPath = ".exlogic/history.db"

// Entry is one unit outcome within a run
type Entry struct {
	RunID   string
	Unit    string
	Status  string
	Code    string
	Message string
	At      time.Time
}

// Store wraps the ledger database
type Store struct {
	db *sql.DB
}

// Open creates the database file and schema if needed
func Open(path string) (*Store, error) {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, errors.Wrap(errors.ErrCodeFileWriteFailed, "failed to create history directory", err)
		}
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open history %s: %w", path, err)
	}
	// sqlite serialises writers; a single connection avoids SQLITE_BUSY between workers.
	db.SetMaxOpenConns(1)

	_, err = db.Exec(`
		PRAGMA journal_mode = WAL;
		PRAGMA busy_timeout = 5000;
		CREATE TABLE IF NOT EXISTS unit_runs (
			run_id      TEXT NOT NULL,
			unit        TEXT NOT NULL,
			status      TEXT NOT NULL,
			error_code  TEXT NOT NULL DEFAULT '',
			message     TEXT NOT NULL DEFAULT '',
			recorded_at TEXT NOT NULL
		);
		CREATE INDEX IF NOT EXISTS unit_runs_unit ON unit_runs (unit, recorded_at);
	`)
	if err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("initialise history %s: %w", path, err)
	}

	return &Store{db: db}, nil
}

// Close releases the database
func (s *Store) Close() error {
	return s.db.Close()
}

// Record appends an entry. A zero At is stamped with the current time.
func (s *Store) Record(ctx context.Context, e Entry) error {
	if e.At.IsZero() {
		e.At = time.Now()
	}
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO unit_runs (run_id, unit, status, error_code, message, recorded_at) VALUES (?, ?, ?, ?, ?, ?)`,
		e.RunID, e.Unit, e.Status, e.Code, e.Message, e.At.UTC().Format(time.RFC3339Nano))
	if err != nil {
		return fmt.Errorf("record %s: %w", e.Unit, err)
	}
	return nil
}

// Recent returns up to limit entries, newest first. A non-empty unit filters
// to that unit.
func (s *Store) Recent(ctx context.Context, unit string, limit int) ([]Entry, error) {
	if limit <= 0 {
		limit = 20
	}

	query := `SELECT run_id, unit, status, error_code, message, recorded_at FROM unit_runs`
	args := []any{}
	if unit != "" {
		query += ` WHERE unit = ?`
		args = append(args, unit)
	}
	query += ` ORDER BY recorded_at DESC, rowid DESC LIMIT ?`
	args = append(args, limit)

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query history: %w", err)
	}
	defer rows.Close()

	var out []Entry
	for rows.Next() {
		var e Entry
		var at string
		if err := rows.Scan(&e.RunID, &e.Unit, &e.Status, &e.Code, &e.Message, &at); err != nil {
			return nil, fmt.Errorf("scan history: %w", err)
		}
		e.At, err = time.Parse(time.RFC3339Nano, at)
		if err != nil {
			return nil, fmt.Errorf("parse recorded_at %q: %w", at, err)
		}
		out = append(out, e)
	}
	return out, rows.Err()
}

// Summary counts entries per status for one run
func (s *Store) Summary(ctx context.Context, runID string) (map[string]int, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT status, COUNT(*) FROM unit_runs WHERE run_id = ? GROUP BY status`, runID)
	if err != nil {
		return nil, fmt.Errorf("summarise run %s: %w", runID, err)
	}
	defer rows.Close()

	counts := make(map[string]int)
	for rows.Next() {
		var status string
		var n int
		if err := rows.Scan(&status, &n); err != nil {
			return nil, err
		}
		counts[status] = n
	}
	return counts, rows.Err()
}
