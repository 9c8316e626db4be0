// Package sqlite is the single-node storage backend, on the pure Go
// modernc.org/sqlite driver.
package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"

	_ "modernc.org/sqlite"
)

// DB wraps the sql.DB with the connection settings the repositories rely on.
type DB struct {
	*sql.DB
	Tables *TableNames
}

// TableNames holds dynamically prefixed table names
type TableNames struct {
	Documents string
	Revisions string
}

// NewTableNames creates table names with the given prefix
func NewTableNames(prefix string) *TableNames {
	return &TableNames{
		Documents: prefix + "documents",
		Revisions: prefix + "revisions",
	}
}

// Open opens (creating if needed) the database file at path.
func Open(path, tablePrefix string) (*DB, error) {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return nil, fmt.Errorf("create data directory: %w", err)
		}
	}
	return open(path, tablePrefix)
}

// OpenMemory opens a private in-memory database, for tests and demos.
func OpenMemory() (*DB, error) {
	return open(":memory:", "")
}

func open(dsn, tablePrefix string) (*DB, error) {
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}

	// One connection: SQLite has a single writer, and an in-memory
	// database lives and dies with its connection.
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)
	db.SetConnMaxLifetime(0)

	if dsn != ":memory:" {
		if _, err := db.Exec("PRAGMA journal_mode=WAL;"); err != nil {
			_ = db.Close()
			return nil, fmt.Errorf("enable WAL mode: %w", err)
		}
	}
	if _, err := db.Exec("PRAGMA foreign_keys=ON;"); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("enable foreign keys: %w", err)
	}

	return &DB{DB: db, Tables: NewTableNames(tablePrefix)}, nil
}

// Migrate creates the tables and indexes if they do not exist.
// Timestamps are stored as microseconds since the Unix epoch.
func (db *DB) Migrate(ctx context.Context) error {
	ddl := fmt.Sprintf(`
		CREATE TABLE IF NOT EXISTS %[1]s (
			key                 TEXT PRIMARY KEY,
			author_name         TEXT,
			created_at          INTEGER NOT NULL,
			updated_at          INTEGER NOT NULL,
			parent_document_key TEXT,
			parent_revision_id  TEXT,
			parent_revision_at  INTEGER
		);
		CREATE INDEX IF NOT EXISTS %[1]s_author_idx ON %[1]s (author_name COLLATE NOCASE, updated_at DESC);
		CREATE INDEX IF NOT EXISTS %[1]s_parent_document_idx ON %[1]s (parent_document_key);
		CREATE INDEX IF NOT EXISTS %[1]s_parent_revision_idx ON %[1]s (parent_revision_id);

		CREATE TABLE IF NOT EXISTS %[2]s (
			id            TEXT PRIMARY KEY,
			document_key  TEXT NOT NULL REFERENCES %[1]s (key) ON DELETE CASCADE,
			origin_key    TEXT,
			origin_author TEXT,
			body          TEXT NOT NULL,
			created_at    INTEGER NOT NULL
		);
		CREATE INDEX IF NOT EXISTS %[2]s_history_idx ON %[2]s (document_key, created_at DESC);
	`, db.Tables.Documents, db.Tables.Revisions)

	if _, err := db.ExecContext(ctx, ddl); err != nil {
		return fmt.Errorf("migrate schema: %w", err)
	}
	return nil
}

// DropSchema removes the tables of the prefix
func (db *DB) DropSchema(ctx context.Context) error {
	ddl := fmt.Sprintf(`
		DROP TABLE IF EXISTS %s;
		DROP TABLE IF EXISTS %s;
	`, db.Tables.Revisions, db.Tables.Documents)

	if _, err := db.ExecContext(ctx, ddl); err != nil {
		return fmt.Errorf("drop schema: %w", err)
	}
	return nil
}
