// Package cache persists raw content-service responses in SQLite so the
// grid can start from stale data when the network is down.
package cache

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite"
)

// SchemaVersion is bumped when the responses table changes.
const SchemaVersion = 1

// Entry is a cached response body.
type Entry struct {
	URL       string
	Body      []byte
	FetchedAt time.Time
}

// Fresh reports whether the entry is younger than ttl.
func (e Entry) Fresh(ttl time.Duration, now time.Time) bool {
	return now.Sub(e.FetchedAt) < ttl
}

// Store wraps a SQLite database. Safe for concurrent use.
type Store struct {
	db  *sql.DB
	now func() time.Time
}

// Open creates or opens the cache at path with WAL mode and a busy timeout,
// and creates the schema.
func Open(path string) (*Store, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o700); err != nil {
		return nil, fmt.Errorf("cache: mkdir: %w", err)
	}
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("cache: open: %w", err)
	}
	for _, pragma := range []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA busy_timeout=5000",
	} {
		if _, err := db.Exec(pragma); err != nil {
			db.Close()
			return nil, fmt.Errorf("cache: %s: %w", pragma, err)
		}
	}
	s := &Store{db: db, now: time.Now}
	if err := s.migrate(); err != nil {
		db.Close()
		return nil, err
	}
	return s, nil
}

func (s *Store) migrate() error {
	tx, err := s.db.Begin()
	if err != nil {
		return fmt.Errorf("cache: begin migrate: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	if _, err := tx.Exec(`
		CREATE TABLE IF NOT EXISTS metadata (
			key   TEXT PRIMARY KEY,
			value TEXT NOT NULL
		)`); err != nil {
		return fmt.Errorf("cache: create metadata: %w", err)
	}
	if _, err := tx.Exec(`
		CREATE TABLE IF NOT EXISTS responses (
			url        TEXT PRIMARY KEY,
			body       BLOB NOT NULL,
			fetched_at INTEGER NOT NULL
		)`); err != nil {
		return fmt.Errorf("cache: create responses: %w", err)
	}
	if _, err := tx.Exec(
		`INSERT OR REPLACE INTO metadata (key, value) VALUES ('schema_version', ?)`,
		fmt.Sprint(SchemaVersion),
	); err != nil {
		return fmt.Errorf("cache: schema version: %w", err)
	}
	return tx.Commit()
}

// Close checkpoints the WAL and closes the database.
func (s *Store) Close() error {
	_, _ = s.db.Exec("PRAGMA wal_checkpoint(TRUNCATE)")
	return s.db.Close()
}

// Get returns the cached entry for url. ok is false on a miss.
func (s *Store) Get(ctx context.Context, url string) (Entry, bool, error) {
	var (
		body      []byte
		fetchedAt int64
	)
	err := s.db.QueryRowContext(ctx,
		`SELECT body, fetched_at FROM responses WHERE url = ?`, url,
	).Scan(&body, &fetchedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return Entry{}, false, nil
	}
	if err != nil {
		return Entry{}, false, fmt.Errorf("cache: get %s: %w", url, err)
	}
	return Entry{URL: url, Body: body, FetchedAt: time.Unix(0, fetchedAt)}, true, nil
}

// Put stores body for url, stamped with the current time.
func (s *Store) Put(ctx context.Context, url string, body []byte) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO responses (url, body, fetched_at) VALUES (?, ?, ?)
		 ON CONFLICT(url) DO UPDATE SET body = excluded.body, fetched_at = excluded.fetched_at`,
		url, body, s.now().UnixNano(),
	)
	if err != nil {
		return fmt.Errorf("cache: put %s: %w", url, err)
	}
	return nil
}

// Clear removes every cached response and returns how many were removed.
func (s *Store) Clear(ctx context.Context) (int64, error) {
	res, err := s.db.ExecContext(ctx, `DELETE FROM responses`)
	if err != nil {
		return 0, fmt.Errorf("cache: clear: %w", err)
	}
	return res.RowsAffected()
}

// Count returns the number of cached responses.
func (s *Store) Count(ctx context.Context) (int, error) {
	var n int
	if err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM responses`).Scan(&n); err != nil {
		return 0, fmt.Errorf("cache: count: %w", err)
	}
	return n, nil
}
