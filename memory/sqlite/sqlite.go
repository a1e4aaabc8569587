// Package sqlite provides a sqlite-backed memory.Store so agent memories
// survive process restarts alongside the world snapshot.
package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"

	_ "modernc.org/sqlite"

	"terrarium/memory"
)

// Store persists memories in a single sqlite database file.
type Store struct {
	db *sql.DB
}

var _ memory.Store = (*Store)(nil)

// Open creates or opens the database at path and ensures the schema.
func Open(path string) (*Store, error) {
	if path == "" {
		return nil, fmt.Errorf("sqlite memory: empty db path")
	}
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("sqlite memory: create dir: %w", err)
		}
	}
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("sqlite memory: open: %w", err)
	}
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)
	db.SetConnMaxLifetime(0)

	if err := initPragmas(db); err != nil {
		_ = db.Close()
		return nil, err
	}
	if err := initSchema(db); err != nil {
		_ = db.Close()
		return nil, err
	}
	return &Store{db: db}, nil
}

func initPragmas(db *sql.DB) error {
	// WAL is much faster for append-style workloads.
	pragmas := []string{
		"PRAGMA journal_mode=WAL;",
		"PRAGMA synchronous=NORMAL;",
		"PRAGMA busy_timeout=5000;",
	}
	for _, p := range pragmas {
		if _, err := db.Exec(p); err != nil {
			return fmt.Errorf("sqlite memory: pragma: %w", err)
		}
	}
	return nil
}

func initSchema(db *sql.DB) error {
	const stmt = `CREATE TABLE IF NOT EXISTS memories (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		owner TEXT NOT NULL,
		content TEXT NOT NULL,
		tick INTEGER NOT NULL,
		created_at TEXT NOT NULL DEFAULT (strftime('%Y-%m-%dT%H:%M:%fZ','now'))
	);
	CREATE INDEX IF NOT EXISTS idx_memories_owner_id ON memories(owner, id DESC);`
	if _, err := db.Exec(stmt); err != nil {
		return fmt.Errorf("sqlite memory: init schema: %w", err)
	}
	return nil
}

// Store appends a memory row.
func (s *Store) Store(ctx context.Context, owner, content string, tick uint64) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO memories(owner, content, tick) VALUES (?, ?, ?)`,
		owner, content, int64(tick))
	if err != nil {
		return fmt.Errorf("sqlite memory: store: %w", err)
	}
	return nil
}

// Recall returns up to limit of owner's most recent memories, newest first.
func (s *Store) Recall(ctx context.Context, owner string, limit int) ([]memory.Entry, error) {
	if limit <= 0 {
		limit = 10
	}
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, owner, content, tick FROM memories WHERE owner = ? ORDER BY id DESC LIMIT ?`,
		owner, limit)
	if err != nil {
		return nil, fmt.Errorf("sqlite memory: recall: %w", err)
	}
	defer rows.Close()

	var out []memory.Entry
	for rows.Next() {
		var e memory.Entry
		var tick int64
		if err := rows.Scan(&e.ID, &e.Owner, &e.Content, &tick); err != nil {
			return nil, fmt.Errorf("sqlite memory: scan: %w", err)
		}
		e.Tick = uint64(tick)
		out = append(out, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("sqlite memory: rows: %w", err)
	}
	return out, nil
}

// Close closes the database.
func (s *Store) Close() error { return s.db.Close() }
