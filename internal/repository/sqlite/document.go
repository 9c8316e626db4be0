package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"pastedown/internal/domain"
	models "pastedown/internal/domain/models/paste"
	pasteRepo "pastedown/internal/domain/repositories/paste"
)

const documentColumns = `key, author_name, created_at, updated_at, parent_document_key, parent_revision_id, parent_revision_at`

// DocumentRepository implements paste.DocumentRepository
type DocumentRepository struct {
	db     *DB
	logger *slog.Logger
}

// NewDocumentRepository creates a new document repository
func NewDocumentRepository(db *DB, logger *slog.Logger) pasteRepo.DocumentRepository {
	return &DocumentRepository{db: db, logger: logger}
}

// Create inserts a new document
func (r *DocumentRepository) Create(ctx context.Context, doc *models.Document) error {
	query := fmt.Sprintf(`INSERT INTO %s (%s) VALUES (?, ?, ?, ?, ?, ?, ?)`, r.db.Tables.Documents, documentColumns)

	var parentAt sql.NullInt64
	if doc.ParentRevisionAt != nil {
		parentAt = sql.NullInt64{Int64: toMicros(*doc.ParentRevisionAt), Valid: true}
	}

	_, err := GetExecutor(ctx, r.db).ExecContext(ctx, query,
		doc.Key,
		doc.AuthorName,
		toMicros(doc.CreatedAt),
		toMicros(doc.UpdatedAt),
		doc.ParentDocumentKey,
		doc.ParentRevisionID,
		parentAt,
	)
	if err != nil {
		if IsDuplicateError(err) {
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
func (r *DocumentRepository) Exists(ctx context.Context, key string) (bool, error) {
	query := fmt.Sprintf(`SELECT EXISTS (SELECT 1 FROM %s WHERE key = ?)`, r.db.Tables.Documents)

	var exists bool
	if err := GetExecutor(ctx, r.db).QueryRowContext(ctx, query, key).Scan(&exists); err != nil {
		return false, fmt.Errorf("check document key: %w", err)
	}
	return exists, nil
}

// GetByKey retrieves a document by key
func (r *DocumentRepository) GetByKey(ctx context.Context, key string) (*models.Document, error) {
	query := fmt.Sprintf(`SELECT %s FROM %s WHERE key = ?`, documentColumns, r.db.Tables.Documents)

	doc, err := scanDocument(GetExecutor(ctx, r.db).QueryRowContext(ctx, query, key))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("document %s: %w", key, domain.ErrNotFound)
		}
		return nil, fmt.Errorf("get document: %w", err)
	}
	return doc, nil
}

// Update persists author and the fork pointers. updated_at only moves
// through AdvanceUpdatedAt
func (r *DocumentRepository) Update(ctx context.Context, doc *models.Document) error {
	query := fmt.Sprintf(`
		UPDATE %s
		SET author_name = ?, parent_document_key = ?, parent_revision_id = ?, parent_revision_at = ?
		WHERE key = ?
	`, r.db.Tables.Documents)

	var parentAt sql.NullInt64
	if doc.ParentRevisionAt != nil {
		parentAt = sql.NullInt64{Int64: toMicros(*doc.ParentRevisionAt), Valid: true}
	}

	result, err := GetExecutor(ctx, r.db).ExecContext(ctx, query,
		doc.AuthorName,
		doc.ParentDocumentKey,
		doc.ParentRevisionID,
		parentAt,
		doc.Key,
	)
	if err != nil {
		return fmt.Errorf("update document: %w", err)
	}

	if n, err := result.RowsAffected(); err == nil && n == 0 {
		return fmt.Errorf("document %s: %w", doc.Key, domain.ErrNotFound)
	}
	return nil
}

// AdvanceUpdatedAt moves updated_at forward, at least one microsecond
func (r *DocumentRepository) AdvanceUpdatedAt(ctx context.Context, key string, candidate time.Time) (time.Time, error) {
	query := fmt.Sprintf(`
		UPDATE %s
		SET updated_at = MAX(?, updated_at + 1)
		WHERE key = ?
		RETURNING updated_at
	`, r.db.Tables.Documents)

	var us int64
	err := GetExecutor(ctx, r.db).QueryRowContext(ctx, query, toMicros(candidate), key).Scan(&us)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return time.Time{}, fmt.Errorf("document %s: %w", key, domain.ErrNotFound)
		}
		return time.Time{}, fmt.Errorf("advance updated_at: %w", err)
	}
	return fromMicros(us), nil
}

// Delete removes the document; its revisions go with it (ON DELETE CASCADE)
func (r *DocumentRepository) Delete(ctx context.Context, key string) error {
	query := fmt.Sprintf(`DELETE FROM %s WHERE key = ?`, r.db.Tables.Documents)

	result, err := GetExecutor(ctx, r.db).ExecContext(ctx, query, key)
	if err != nil {
		return fmt.Errorf("delete document: %w", err)
	}

	if n, err := result.RowsAffected(); err == nil && n == 0 {
		return fmt.Errorf("document %s: %w", key, domain.ErrNotFound)
	}
	return nil
}

// ListByAuthor lists documents owned by the author, most recently updated first
func (r *DocumentRepository) ListByAuthor(ctx context.Context, authorName string) ([]models.Document, error) {
	query := fmt.Sprintf(`
		SELECT %s FROM %s
		WHERE author_name = ? COLLATE NOCASE
		ORDER BY updated_at DESC, key
	`, documentColumns, r.db.Tables.Documents)

	return r.list(ctx, query, authorName)
}

// ListByParentDocument lists the forks of a document
func (r *DocumentRepository) ListByParentDocument(ctx context.Context, key string) ([]models.Document, error) {
	query := fmt.Sprintf(`
		SELECT %s FROM %s
		WHERE parent_document_key = ?
		ORDER BY created_at, key
	`, documentColumns, r.db.Tables.Documents)

	return r.list(ctx, query, key)
}

// ListByParentRevision lists the documents forked at a revision
func (r *DocumentRepository) ListByParentRevision(ctx context.Context, revisionID string) ([]models.Document, error) {
	query := fmt.Sprintf(`
		SELECT %s FROM %s
		WHERE parent_revision_id = ?
		ORDER BY created_at, key
	`, documentColumns, r.db.Tables.Documents)

	return r.list(ctx, query, revisionID)
}

func (r *DocumentRepository) list(ctx context.Context, query string, args ...interface{}) ([]models.Document, error) {
	rows, err := GetExecutor(ctx, r.db).QueryContext(ctx, query, args...)
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

type scanner interface {
	Scan(dest ...interface{}) error
}

func scanDocument(row scanner) (*models.Document, error) {
	var (
		doc                  models.Document
		createdAt, updatedAt int64
		parentAt             sql.NullInt64
	)
	err := row.Scan(
		&doc.Key,
		&doc.AuthorName,
		&createdAt,
		&updatedAt,
		&doc.ParentDocumentKey,
		&doc.ParentRevisionID,
		&parentAt,
	)
	if err != nil {
		return nil, err
	}

	doc.CreatedAt = fromMicros(createdAt)
	doc.UpdatedAt = fromMicros(updatedAt)
	if parentAt.Valid {
		at := fromMicros(parentAt.Int64)
		doc.ParentRevisionAt = &at
	}
	return &doc, nil
}
