package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sync/atomic"

	_ "modernc.org/sqlite"
)

// SQLiteKV persists key-value pairs in a single SQLite table.
type SQLiteKV struct {
	db     *sql.DB
	closed atomic.Bool
}

func NewSQLiteKV(dbPath string) (*SQLiteKV, error) {
	if err := os.MkdirAll(filepath.Dir(dbPath), 0755); err != nil {
		return nil, fmt.Errorf("create db directory: %w", err)
	}

	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open sqlite database: %w", err)
	}
	// One writer; avoids SQLITE_BUSY between the direct and debounced write paths.
	db.SetMaxOpenConns(1)

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	if err := RunMigrations(dbPath); err != nil {
		db.Close()
		return nil, fmt.Errorf("run migrations: %w", err)
	}

	return &SQLiteKV{db: db}, nil
}

// Close releases the database. Later calls on r return ErrClosed.
func (r *SQLiteKV) Close() error {
	if r.closed.Swap(true) || r.db == nil {
		return nil
	}
	return r.db.Close()
}

func (r *SQLiteKV) Get(ctx context.Context, key string) (string, bool, error) {
	if r.closed.Load() {
		return "", false, fmt.Errorf("get %s: %w", key, ErrClosed)
	}
	var value string
	err := r.db.QueryRowContext(ctx, `SELECT value FROM kv WHERE key = ?`, key).Scan(&value)
	if errors.Is(err, sql.ErrNoRows) {
		return "", false, nil
	}
	if err != nil {
		return "", false, fmt.Errorf("get %s: %w", key, err)
	}
	return value, true, nil
}

func (r *SQLiteKV) Set(ctx context.Context, key, value string) error {
	if r.closed.Load() {
		return fmt.Errorf("set %s: %w", key, ErrClosed)
	}
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO kv (key, value, updated_at) VALUES (?, ?, CURRENT_TIMESTAMP)
		ON CONFLICT(key) DO UPDATE SET value = excluded.value, updated_at = CURRENT_TIMESTAMP`,
		key, value)
	if err != nil {
		return fmt.Errorf("set %s: %w", key, err)
	}
	slog.DebugContext(ctx, "Value saved to SQLite", "key", key, "bytes", len(value))
	return nil
}

func (r *SQLiteKV) Remove(ctx context.Context, key string) error {
	if r.closed.Load() {
		return fmt.Errorf("remove %s: %w", key, ErrClosed)
	}
	if _, err := r.db.ExecContext(ctx, `DELETE FROM kv WHERE key = ?`, key); err != nil {
		return fmt.Errorf("remove %s: %w", key, err)
	}
	slog.DebugContext(ctx, "Value removed from SQLite", "key", key)
	return nil
}
