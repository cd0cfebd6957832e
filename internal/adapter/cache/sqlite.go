package cache

import (
	"database/sql"
	"errors"
	"fmt"
	"time"

	_ "modernc.org/sqlite" // pure-Go sqlite driver
)

// SQLiteBackend persists cache entries in a local SQLite file so responses
// survive restarts. Capacity is a row count; exceeding it reports ErrCapacity
// so the Store's clear-and-retry policy applies.
type SQLiteBackend struct {
	db         *sql.DB
	maxEntries int
}

// NewSQLiteBackend opens (and if needed initializes) the cache database at
// path. maxEntries <= 0 means unbounded.
func NewSQLiteBackend(path string, maxEntries int) (*SQLiteBackend, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open cache db: %w", err)
	}
	// The cache is accessed from one process; a single connection avoids
	// SQLITE_BUSY on concurrent writers.
	db.SetMaxOpenConns(1)

	const schema = `
CREATE TABLE IF NOT EXISTS cache_entries (
	key        TEXT PRIMARY KEY,
	value      BLOB NOT NULL,
	updated_at TEXT NOT NULL
);`
	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("init cache schema: %w", err)
	}
	return &SQLiteBackend{db: db, maxEntries: maxEntries}, nil
}

func (b *SQLiteBackend) Get(key string) ([]byte, bool, error) {
	var value []byte
	err := b.db.QueryRow(`SELECT value FROM cache_entries WHERE key = ?`, key).Scan(&value)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("read cache entry: %w", err)
	}
	return value, true, nil
}

func (b *SQLiteBackend) Put(key string, value []byte) error {
	if b.maxEntries > 0 {
		var exists bool
		if err := b.db.QueryRow(`SELECT EXISTS(SELECT 1 FROM cache_entries WHERE key = ?)`, key).Scan(&exists); err != nil {
			return fmt.Errorf("check cache entry: %w", err)
		}
		if !exists {
			var count int
			if err := b.db.QueryRow(`SELECT COUNT(*) FROM cache_entries`).Scan(&count); err != nil {
				return fmt.Errorf("count cache entries: %w", err)
			}
			if count >= b.maxEntries {
				return ErrCapacity
			}
		}
	}

	_, err := b.db.Exec(
		`INSERT INTO cache_entries (key, value, updated_at) VALUES (?, ?, ?)
		 ON CONFLICT(key) DO UPDATE SET value = excluded.value, updated_at = excluded.updated_at`,
		key, value, time.Now().UTC().Format(time.RFC3339),
	)
	if err != nil {
		return fmt.Errorf("write cache entry: %w", err)
	}
	return nil
}

func (b *SQLiteBackend) Clear() error {
	if _, err := b.db.Exec(`DELETE FROM cache_entries`); err != nil {
		return fmt.Errorf("clear cache: %w", err)
	}
	return nil
}

// Entry describes one stored row, for inspection tooling.
type Entry struct {
	Key       string
	Size      int
	UpdatedAt string
}

// List returns every stored entry's metadata, newest first.
func (b *SQLiteBackend) List() ([]Entry, error) {
	rows, err := b.db.Query(`SELECT key, LENGTH(value), updated_at FROM cache_entries ORDER BY updated_at DESC`)
	if err != nil {
		return nil, fmt.Errorf("list cache entries: %w", err)
	}
	defer rows.Close()

	var out []Entry
	for rows.Next() {
		var e Entry
		if err := rows.Scan(&e.Key, &e.Size, &e.UpdatedAt); err != nil {
			return nil, fmt.Errorf("scan cache entry: %w", err)
		}
		out = append(out, e)
	}
	return out, rows.Err()
}

// Close releases the underlying database handle.
func (b *SQLiteBackend) Close() error {
	return b.db.Close()
}
