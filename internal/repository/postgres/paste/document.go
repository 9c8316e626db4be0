package paste

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"pastedown/internal/domain"
	models "pastedown/internal/domain/models/paste"
	pasteRepo "pastedown/internal/domain/repositories/paste"
	"pastedown/internal/repository/postgres"
)

const documentColumns = `key, author_name, created_at, updated_at, parent_document_key, parent_revision_id, parent_revision_at`

// PostgresDocumentRepository implements the DocumentRepository interface
type PostgresDocumentRepository struct {
	pool   *pgxpool.Pool
	tables *postgres.TableNames
	logger *slog.Logger
}

// NewDocumentRepository creates a new document repository
func NewDocumentRepository(config *postgres.RepositoryConfig) pasteRepo.DocumentRepository {
	return &PostgresDocumentRepository{
		pool:   config.Pool,
		tables: config.Tables,
		logger: config.Logger,
	}
}

// Create inserts a new document
func (r *PostgresDocumentRepository) Create(ctx context.Context, doc *models.Document) error {
	query := fmt.Sprintf(`
		INSERT INTO %s (%s)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
	`, r.tables.Documents, documentColumns)

	executor := postgres.GetExecutor(ctx, r.pool)
	_, err := executor.Exec(ctx, query,
		doc.Key,
		doc.AuthorName,
		doc.CreatedAt,
		doc.UpdatedAt,
		doc.ParentDocumentKey,
		doc.ParentRevisionID,
		doc.ParentRevisionAt,
	)
	if err != nil {
		if postgres.IsDuplicateError(err) {
			return &domain.ConflictError{
				Message:      fmt.Sprintf("document '%s' already exists", doc.Key),
				ResourceType: "document",
				ResourceID:   doc.Key,
			}
		}
		return fmt.Errorf("create document: %w", err)
	}

	return nil
}

// Exists reports whether the key is taken
func (r *PostgresDocumentRepository) Exists(ctx context.Context, key string) (bool, error) {
	query := fmt.Sprintf(`SELECT EXISTS (SELECT 1 FROM %s WHERE key = $1)`, r.tables.Documents)

	var exists bool
	executor := postgres.GetExecutor(ctx, r.pool)
	if err := executor.QueryRow(ctx, query, key).Scan(&exists); err != nil {
		return false, fmt.Errorf("check document key: %w", err)
	}
	return exists, nil
}

// GetByKey retrieves a document by key
func (r *PostgresDocumentRepository) GetByKey(ctx context.Context, key string) (*models.Document, error) {
	query := fmt.Sprintf(`SELECT %s FROM %s WHERE key = $1`, documentColumns, r.tables.Documents)

	executor := postgres.GetExecutor(ctx, r.pool)
	doc, err := scanDocument(executor.QueryRow(ctx, query, key))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, fmt.Errorf("document %s: %w", key, domain.ErrNotFound)
		}
		return nil, fmt.Errorf("get document: %w", err)
	}

	return doc, nil
}

// Update persists author and the fork pointers. updated_at only moves
// through AdvanceUpdatedAt
func (r *PostgresDocumentRepository) Update(ctx context.Context, doc *models.Document) error {
	query := fmt.Sprintf(`
		UPDATE %s
		SET author_name = $1, parent_document_key = $2, parent_revision_id = $3, parent_revision_at = $4
		WHERE key = $5
	`, r.tables.Documents)

	executor := postgres.GetExecutor(ctx, r.pool)
	result, err := executor.Exec(ctx, query,
		doc.AuthorName,
		doc.ParentDocumentKey,
		doc.ParentRevisionID,
		doc.ParentRevisionAt,
		doc.Key,
	)
	if err != nil {
		return fmt.Errorf("update document: %w", err)
	}

	if result.RowsAffected() == 0 {
		return fmt.Errorf("document %s: %w", doc.Key, domain.ErrNotFound)
	}

	return nil
}

// AdvanceUpdatedAt moves updated_at forward, at least one microsecond
func (r *PostgresDocumentRepository) AdvanceUpdatedAt(ctx context.Context, key string, candidate time.Time) (time.Time, error) {
	query := fmt.Sprintf(`
		UPDATE %s
		SET updated_at = GREATEST(updated_at + interval '1 microsecond', $2)
		WHERE key = $1
		RETURNING updated_at
	`, r.tables.Documents)

	var at time.Time
	executor := postgres.GetExecutor(ctx, r.pool)
	if err := executor.QueryRow(ctx, query, key, candidate).Scan(&at); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return time.Time{}, fmt.Errorf("document %s: %w", key, domain.ErrNotFound)
		}
		return time.Time{}, fmt.Errorf("advance updated_at: %w", err)
	}

	return at.UTC(), nil
}

// Delete removes the document; its revisions go with it (ON DELETE CASCADE)
func (r *PostgresDocumentRepository) Delete(ctx context.Context, key string) error {
	query := fmt.Sprintf(`DELETE FROM %s WHERE key = $1`, r.tables.Documents)

	executor := postgres.GetExecutor(ctx, r.pool)
	result, err := executor.Exec(ctx, query, key)
	if err != nil {
		return fmt.Errorf("delete document: %w", err)
	}

	if result.RowsAffected() == 0 {
		return fmt.Errorf("document %s: %w", key, domain.ErrNotFound)
	}

	return nil
}

// ListByAuthor lists documents owned by the author, most recently updated first
func (r *PostgresDocumentRepository) ListByAuthor(ctx context.Context, authorName string) ([]models.Document, error) {
	query := fmt.Sprintf(`
		SELECT %s FROM %s
		WHERE lower(author_name) = lower($1)
		ORDER BY updated_at DESC, key
	`, documentColumns, r.tables.Documents)

	return r.list(ctx, query, authorName)
}

// ListByParentDocument lists the forks of a document
func (r *PostgresDocumentRepository) ListByParentDocument(ctx context.Context, key string) ([]models.Document, error) {
	query := fmt.Sprintf(`
		SELECT %s FROM %s
		WHERE parent_document_key = $1
		ORDER BY created_at, key
	`, documentColumns, r.tables.Documents)

	return r.list(ctx, query, key)
}

// ListByParentRevision lists the documents forked at a revision
func (r *PostgresDocumentRepository) ListByParentRevision(ctx context.Context, revisionID string) ([]models.Document, error) {
	query := fmt.Sprintf(`
		SELECT %s FROM %s
		WHERE parent_revision_id = $1
		ORDER BY created_at, key
	`, documentColumns, r.tables.Documents)

	return r.list(ctx, query, revisionID)
}

func (r *PostgresDocumentRepository) list(ctx context.Context, query string, args ...interface{}) ([]models.Document, error) {
	executor := postgres.GetExecutor(ctx, r.pool)
	rows, err := executor.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list documents: %w", err)
	}
	defer rows.Close()

	docs := []models.Document{}
	for rows.Next() {
		doc, err := scanDocument(rows)
		if err != nil {
			return nil, fmt.Errorf("scan document: %w", err)
		}
		docs = append(docs, *doc)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate documents: %w", err)
	}

	return docs, nil
}

func scanDocument(row pgx.Row) (*models.Document, error) {
	var doc models.Document
	err := row.Scan(
		&doc.Key,
		&doc.AuthorName,
		&doc.CreatedAt,
		&doc.UpdatedAt,
		&doc.ParentDocumentKey,
		&doc.ParentRevisionID,
		&doc.ParentRevisionAt,
	)
	if err != nil {
		return nil, err
	}

	doc.CreatedAt = doc.CreatedAt.UTC()
	doc.UpdatedAt = doc.UpdatedAt.UTC()
	if doc.ParentRevisionAt != nil {
		at := doc.ParentRevisionAt.UTC()
		doc.ParentRevisionAt = &at
	}
	return &doc, nil
}
