// Package store persists opaque blobs under string keys, in SQLite,
// PostgreSQL or memory.
package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"sync"
	"time"
)

// ErrNotFound is returned by Get for a key that was never written.
var ErrNotFound = errors.New("not found")

// KV is a durable key-value blob store.
type KV interface {
	Get(ctx context.Context, key string) ([]byte, error)
	Put(ctx context.Context, key string, value []byte) error
	Close() error
}

const createTableSQL = `
CREATE TABLE IF NOT EXISTS kv (
	key        TEXT PRIMARY KEY,
	value      TEXT NOT NULL,
	updated_at TEXT NOT NULL
)`

// SQL is a KV backed by a database table.
type SQL struct {
	db      *sql.DB
	dialect Dialect
}

// Open connects to dsn (a SQLite file path or postgres:// URL) and creates
// the kv table if needed.
func Open(ctx context.Context, dsn string) (*SQL, error) {
	db, dialect, err := OpenDB(ctx, dsn)
	if err != nil {
		return nil, err
	}
	if _, err := db.ExecContext(ctx, createTableSQL); err != nil {
		db.Close()
		return nil, fmt.Errorf("create schema: %w", err)
	}
	return &SQL{db: db, dialect: dialect}, nil
}

// Dialect returns the backend in use.
func (s *SQL) Dialect() Dialect {
	return s.dialect
}

// Get returns the value stored under key.
func (s *SQL) Get(ctx context.Context, key string) ([]byte, error) {
	var value string
	err := s.db.QueryRowContext(ctx, Rebind(s.dialect, `SELECT value FROM kv WHERE key = ?`), key).Scan(&value)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("get %q: %w", key, ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("get %q: %w", key, err)
	}
	return []byte(value), nil
}

// Put stores value under key, replacing any previous value.
func (s *SQL) Put(ctx context.Context, key string, value []byte) error {
	_, err := s.db.ExecContext(ctx, Rebind(s.dialect,
		`INSERT INTO kv (key, value, updated_at) VALUES (?, ?, ?)
		 ON CONFLICT (key) DO UPDATE SET value = excluded.value, updated_at = excluded.updated_at`),
		key, string(value), time.Now().UTC().Format(time.RFC3339))
	if err != nil {
		return fmt.Errorf("put %q: %w", key, err)
	}
	return nil
}

// UpdatedAt returns when key was last written.
func (s *SQL) UpdatedAt(ctx context.Context, key string) (time.Time, error) {
	var ts string
	err := s.db.QueryRowContext(ctx, Rebind(s.dialect, `SELECT updated_at FROM kv WHERE key = ?`), key).Scan(&ts)
	if errors.Is(err, sql.ErrNoRows) {
		return time.Time{}, fmt.Errorf("updated_at %q: %w", key, ErrNotFound)
	}
	if err != nil {
		return time.Time{}, fmt.Errorf("updated_at %q: %w", key, err)
	}
	return time.Parse(time.RFC3339, ts)
}

// Check verifies the database: an integrity check for SQLite, a ping for PostgreSQL.
func (s *SQL) Check(ctx context.Context) error {
	if s.dialect == DialectPostgres {
		return s.db.PingContext(ctx)
	}
	var result string
	if err := s.db.QueryRowContext(ctx, "PRAGMA integrity_check").Scan(&result); err != nil {
		return fmt.Errorf("integrity check: %w", err)
	}
	if result != "ok" {
		return fmt.Errorf("integrity check: %s", result)
	}
	return nil
}

// Close closes the database connection.
func (s *SQL) Close() error {
	return s.db.Close()
}

// Memory is an in-process KV.
type Memory struct {
	mu   sync.RWMutex
	data map[string][]byte
}

// NewMemory returns an empty Memory store.
func NewMemory() *Memory {
	return &Memory{data: make(map[string][]byte)}
}

func (m *Memory) Get(_ context.Context, key string) ([]byte, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	v, ok := m.data[key]
	if !ok {
		return nil, fmt.Errorf("get %q: %w", key, ErrNotFound)
	}
	return append([]byte(nil), v...), nil
}

func (m *Memory) Put(_ context.Context, key string, value []byte) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.data[key] = append([]byte(nil), value...)
	return nil
}

func (m *Memory) Close() error { return nil }
