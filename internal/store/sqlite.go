package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite" // SQLite driver

	"github.com/tsubute/arcache/internal/model"
)

// sqliteFile is the store's file name inside the configured directory.
const sqliteFile = "arcache.db"

// SQLite is a Store backed by an embedded SQLite database.
// It exists so arcache works out of the box with no external service;
// operators running a shared cache point the pipeline at Redis instead.
//
// Design decision: Put uses INSERT ... ON CONFLICT DO NOTHING as the
// atomic put-if-absent primitive, mirroring what SET NX gives the Redis
// backend, so the pipeline's dedup semantics don't depend on the backend.
type SQLite struct {
	db *sql.DB
}

// SQLiteOptions configures the SQLite store.
type SQLiteOptions struct {
	// CreateIfNotExists creates the directory and database file when
	// they don't exist. When false, a missing database is an error.
	CreateIfNotExists bool

	// EnableWAL enables Write-Ahead Logging, recommended whenever
	// parallel workers read while one writes.
	EnableWAL bool
}

// DefaultSQLiteOptions returns the options used by the CLI.
func DefaultSQLiteOptions() SQLiteOptions {
	return SQLiteOptions{
		CreateIfNotExists: true,
		EnableWAL:         true,
	}
}

// NewSQLite opens or creates the store database under dir.
func NewSQLite(dir string, opts SQLiteOptions) (*SQLite, error) {
	dbPath := filepath.Join(dir, sqliteFile)

	if !opts.CreateIfNotExists {
		if _, err := os.Stat(dbPath); os.IsNotExist(err) {
			return nil, fmt.Errorf("store database not found at %s", dbPath)
		} else if err != nil {
			return nil, fmt.Errorf("failed to check store path: %w", err)
		}
	} else {
		if err := os.MkdirAll(dir, 0750); err != nil {
			return nil, fmt.Errorf("failed to create store directory: %w", err)
		}
	}

	// modernc.org/sqlite uses mode=rw to forbid creating new files and
	// mode=rwc to allow it.
	dsn := dbPath + "?mode=rw"
	if opts.CreateIfNotExists {
		dsn = dbPath + "?mode=rwc"
	}

	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open store database: %w", err)
	}

	// SQLite supports only one writer; a single connection avoids
	// SQLITE_BUSY churn from parallel workers.
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)
	db.SetConnMaxLifetime(time.Hour)

	s := &SQLite{db: db}

	if opts.EnableWAL {
		if _, err := db.ExecContext(context.Background(), "PRAGMA journal_mode=WAL"); err != nil {
			_ = db.Close() //nolint:errcheck // open failed, nothing else to do
			return nil, fmt.Errorf("failed to enable WAL mode: %w", err)
		}
	}

	if err := s.createTables(); err != nil {
		_ = db.Close() //nolint:errcheck // open failed, nothing else to do
		return nil, fmt.Errorf("failed to create tables: %w", err)
	}

	return s, nil
}

// createTables creates the schema if it doesn't exist.
// expires_at is a Unix timestamp; 0 means the entry never expires.
func (s *SQLite) createTables() error {
	schema := `
	CREATE TABLE IF NOT EXISTS cache_entries (
		key TEXT PRIMARY KEY,
		expires_at INTEGER NOT NULL DEFAULT 0,
		envelope BLOB NOT NULL
	);

	CREATE INDEX IF NOT EXISTS idx_entries_expires ON cache_entries(expires_at);
	`
	_, err := s.db.ExecContext(context.Background(), schema)
	return err
}

// Exists implements Store.
func (s *SQLite) Exists(ctx context.Context, key string) (bool, error) {
	var one int
	err := s.db.QueryRowContext(ctx,
		"SELECT 1 FROM cache_entries WHERE key = ?", key).Scan(&one)
	if errors.Is(err, sql.ErrNoRows) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("sqlite exists: %w", err)
	}
	return true, nil
}

// Get implements Store.
func (s *SQLite) Get(ctx context.Context, key string) (*model.CacheEntry, error) {
	var data []byte
	err := s.db.QueryRowContext(ctx,
		"SELECT envelope FROM cache_entries WHERE key = ?", key).Scan(&data)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("sqlite get: %w", err)
	}
	return decodeEntry(data)
}

// Put implements Store.
func (s *SQLite) Put(ctx context.Context, entry *model.CacheEntry) (bool, error) {
	data, err := encodeEntry(entry)
	if err != nil {
		return false, err
	}

	var expiresAt int64
	if exp := entry.ExpiresAt(); !exp.IsZero() {
		expiresAt = exp.Unix()
	}

	res, err := s.db.ExecContext(ctx,
		"INSERT INTO cache_entries (key, expires_at, envelope) VALUES (?, ?, ?) ON CONFLICT(key) DO NOTHING",
		entry.Key, expiresAt, data)
	if err != nil {
		return false, fmt.Errorf("sqlite put: %w", err)
	}

	n, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("sqlite put: %w", err)
	}
	if n == 1 {
		return true, nil
	}

	// Key already present: identical content is a dedup hit, divergent
	// content is an integrity conflict.
	existing, err := s.Get(ctx, entry.Key)
	if err != nil {
		return false, err
	}
	if !samePayload(existing, entry) {
		return false, fmt.Errorf("%w: key %s", ErrConflict, entry.Key)
	}
	return false, nil
}

// Evict implements Store.
func (s *SQLite) Evict(ctx context.Context, key string) error {
	if _, err := s.db.ExecContext(ctx,
		"DELETE FROM cache_entries WHERE key = ?", key); err != nil {
		return fmt.Errorf("sqlite evict: %w", err)
	}
	return nil
}

// Sweep implements Store. It deletes every entry whose expiry is at or
// before now; entries with expires_at = 0 never expire.
func (s *SQLite) Sweep(ctx context.Context, now time.Time) (int, error) {
	res, err := s.db.ExecContext(ctx,
		"DELETE FROM cache_entries WHERE expires_at > 0 AND expires_at <= ?", now.Unix())
	if err != nil {
		return 0, fmt.Errorf("sqlite sweep: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("sqlite sweep: %w", err)
	}
	return int(n), nil
}

// Close implements Store.
func (s *SQLite) Close() error {
	return s.db.Close()
}
