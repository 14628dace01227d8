// ABOUTME: SQLite handle for the persisted snapshot
// ABOUTME: Pure-Go driver, WAL journaling, schema applied and versioned on open
package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"

	_ "modernc.org/sqlite"
)

const memoryPath = ":memory:"

// DB is an open snapshot database.
type DB struct {
	conn *sql.DB
	path string
}

// Open opens the database file at path, creating parent directories and
// the schema as needed.
func Open(path string) (*DB, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return nil, fmt.Errorf("failed to create data directory: %w", err)
	}
	return open(path, path+"?_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)", 0)
}

// OpenInMemory returns a private in-memory database, used by tests.
func OpenInMemory() (*DB, error) {
	// each pooled connection would see its own empty database
	return open(memoryPath, memoryPath, 1)
}

func open(path, dsn string, maxConns int) (*DB, error) {
	conn, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	if maxConns > 0 {
		conn.SetMaxOpenConns(maxConns)
	}
	if err := conn.Ping(); err != nil {
		_ = conn.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	db := &DB{conn: conn, path: path}
	if err := db.migrate(); err != nil {
		_ = conn.Close()
		return nil, fmt.Errorf("failed to initialize schema: %w", err)
	}
	return db, nil
}

// migrate applies Schema and stamps user_version. A database written by a
// newer schema is refused.
func (db *DB) migrate() error {
	var version int
	if err := db.conn.QueryRow(`PRAGMA user_version`).Scan(&version); err != nil {
		return err
	}
	if version > SchemaVersion {
		return fmt.Errorf("schema version %d is newer than supported version %d", version, SchemaVersion)
	}
	if _, err := db.conn.Exec(Schema); err != nil {
		return err
	}
	if version < SchemaVersion {
		_, err := db.conn.Exec(fmt.Sprintf(`PRAGMA user_version = %d`, SchemaVersion))
		return err
	}
	return nil
}

func (db *DB) Close() error {
	if db.conn == nil {
		return nil
	}
	return db.conn.Close()
}

// Conn exposes the pool for callers that need raw SQL.
func (db *DB) Conn() *sql.DB { return db.conn }

func (db *DB) Path() string { return db.path }

func (db *DB) QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row {
	return db.conn.QueryRowContext(ctx, query, args...)
}

func (db *DB) QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error) {
	return db.conn.QueryContext(ctx, query, args...)
}

// withTx runs fn in a transaction, committing on success.
func (db *DB) withTx(ctx context.Context, fn func(*sql.Tx) error) error {
	tx, err := db.conn.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	if err := fn(tx); err != nil {
		_ = tx.Rollback()
		return err
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit: %w", err)
	}
	return nil
}
