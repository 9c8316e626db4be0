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

const revisionColumns = `id, document_key, origin_key, origin_author, body, created_at`

// RevisionRepository implements paste.RevisionRepository
type RevisionRepository struct {
	db     *DB
	logger *slog.Logger
}

// NewRevisionRepository creates a new revision repository
func NewRevisionRepository(db *DB, logger *slog.Logger) pasteRepo.RevisionRepository {
	return &RevisionRepository{db: db, logger: logger}
}

// Create inserts a revision
func (r *RevisionRepository) Create(ctx context.Context, rev *models.Revision) error {
	query := fmt.Sprintf(`INSERT INTO %s (%s) VALUES (?, ?, ?, ?, ?, ?)`, r.db.Tables.Revisions, revisionColumns)

	_, err := GetExecutor(ctx, r.db).ExecContext(ctx, query,
		rev.ID,
		rev.DocumentKey,
		rev.OriginKey,
		rev.OriginAuthor,
		rev.Body,
		toMicros(rev.CreatedAt),
	)
	if err != nil {
		if IsForeignKeyError(err) {
			return fmt.Errorf("document %s: %w", rev.DocumentKey, domain.ErrNotFound)
		}
		if IsDuplicateError(err) {
			return fmt.Errorf("revision %s: %w", rev.ID, domain.ErrConflict)
		}
		return fmt.Errorf("create revision: %w", err)
	}
	return nil
}

// GetByID retrieves a revision
func (r *RevisionRepository) GetByID(ctx context.Context, id string) (*models.Revision, error) {
	query := fmt.Sprintf(`SELECT %s FROM %s WHERE id = ?`, revisionColumns, r.db.Tables.Revisions)

	return r.get(ctx, "revision "+id, query, id)
}

// GetAt retrieves the revision of a document created exactly at a time
func (r *RevisionRepository) GetAt(ctx context.Context, documentKey string, at time.Time, until *time.Time) (*models.Revision, error) {
	query := fmt.Sprintf(`
		SELECT %s FROM %s
		WHERE document_key = ? AND created_at = ? AND (? IS NULL OR created_at <= ?)
		LIMIT 1
	`, revisionColumns, r.db.Tables.Revisions)

	var bound sql.NullInt64
	if until != nil {
		bound = sql.NullInt64{Int64: toMicros(*until), Valid: true}
	}

	what := fmt.Sprintf("revision of %s at %s", documentKey, at.Format(time.RFC3339Nano))
	return r.get(ctx, what, query, documentKey, toMicros(at), bound, bound)
}

// List returns a window of a document's revisions, newest first
func (r *RevisionRepository) List(ctx context.Context, q pasteRepo.RevisionQuery) ([]models.Revision, error) {
	where, args := filter(q)
	query := fmt.Sprintf(`SELECT %s FROM %s WHERE %s ORDER BY created_at DESC LIMIT ? OFFSET ?`,
		revisionColumns, r.db.Tables.Revisions, where)
	args = append(args, q.Limit, max(q.Offset, 0))

	rows, err := GetExecutor(ctx, r.db).QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list revisions: %w", err)
	}
	defer rows.Close()

	revs := []models.Revision{}
	for rows.Next() {
		rev, err := scanRevision(rows)
		if err != nil {
			return nil, fmt.Errorf("scan revision: %w", err)
		}
		revs = append(revs, *rev)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate revisions: %w", err)
	}
	return revs, nil
}

// Count counts a document's revisions, stopping at the query's limit
func (r *RevisionRepository) Count(ctx context.Context, q pasteRepo.RevisionQuery) (int, error) {
	where, args := filter(q)
	// LIMIT -1 is "no limit" in SQLite, matching pasteRepo.NoLimit
	query := fmt.Sprintf(`SELECT count(*) FROM (SELECT 1 FROM %s WHERE %s LIMIT ?)`, r.db.Tables.Revisions, where)
	args = append(args, q.Limit)

	var n int
	if err := GetExecutor(ctx, r.db).QueryRowContext(ctx, query, args...).Scan(&n); err != nil {
		return 0, fmt.Errorf("count revisions: %w", err)
	}
	return n, nil
}

func filter(q pasteRepo.RevisionQuery) (string, []interface{}) {
	if q.Until == nil {
		return "document_key = ?", []interface{}{q.DocumentKey}
	}
	return "document_key = ? AND created_at <= ?", []interface{}{q.DocumentKey, toMicros(*q.Until)}
}

func (r *RevisionRepository) get(ctx context.Context, what, query string, args ...interface{}) (*models.Revision, error) {
	rev, err := scanRevision(GetExecutor(ctx, r.db).QueryRowContext(ctx, query, args...))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("%s: %w", what, domain.ErrNotFound)
		}
		return nil, fmt.Errorf("get revision: %w", err)
	}
	return rev, nil
}

func scanRevision(row scanner) (*models.Revision, error) {
	var (
		rev       models.Revision
		createdAt int64
	)
	err := row.Scan(
		&rev.ID,
		&rev.DocumentKey,
		&rev.OriginKey,
		&rev.OriginAuthor,
		&rev.Body,
		&createdAt,
	)
	if err != nil {
		return nil, err
	}
	rev.CreatedAt = fromMicros(createdAt)
	return &rev, nil
}
