package postgres

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"
)

// Migrate creates the tables and indexes if they do not exist
func Migrate(ctx context.Context, pool *pgxpool.Pool, tables *TableNames) error {
	ddl := fmt.Sprintf(`
		CREATE TABLE IF NOT EXISTS %[1]s (
			key                 TEXT PRIMARY KEY,
			author_name         TEXT,
			created_at          TIMESTAMPTZ NOT NULL,
			updated_at          TIMESTAMPTZ NOT NULL,
			parent_document_key TEXT,
			parent_revision_id  TEXT,
			parent_revision_at  TIMESTAMPTZ
		);
		CREATE INDEX IF NOT EXISTS %[1]s_author_idx ON %[1]s (author_name, updated_at DESC);
		CREATE INDEX IF NOT EXISTS %[1]s_parent_document_idx ON %[1]s (parent_document_key);
		CREATE INDEX IF NOT EXISTS %[1]s_parent_revision_idx ON %[1]s (parent_revision_id);

		CREATE TABLE IF NOT EXISTS %[2]s (
			id            TEXT PRIMARY KEY,
			document_key  TEXT NOT NULL REFERENCES %[1]s (key) ON DELETE CASCADE,
			origin_key    TEXT,
			origin_author TEXT,
			body          TEXT NOT NULL,
			created_at    TIMESTAMPTZ NOT NULL
		);
		CREATE INDEX IF NOT EXISTS %[2]s_history_idx ON %[2]s (document_key, created_at DESC);
	`, tables.Documents, tables.Revisions)

	if _, err := pool.Exec(ctx, ddl); err != nil {
		return fmt.Errorf("migrate schema: %w", err)
	}
	return nil
}

// DropSchema removes the tables of the prefix
func DropSchema(ctx context.Context, pool *pgxpool.Pool, tables *TableNames) error {
	ddl := fmt.Sprintf(`
		DROP TABLE IF EXISTS %s CASCADE;
		DROP TABLE IF EXISTS %s CASCADE;
	`, tables.Revisions, tables.Documents)

	if _, err := pool.Exec(ctx, ddl); err != nil {
		return fmt.Errorf("drop schema: %w", err)
	}
	return nil
}
