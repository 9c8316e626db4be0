package paste

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"pastedown/internal/domain"
	models "pastedown/internal/domain/models/paste"
	pasteRepo "pastedown/internal/domain/repositories/paste"
	"pastedown/internal/repository/postgres"
)

const revisionColumns = `id, document_key, origin_key, origin_author, body, created_at`

// PostgresRevisionRepository implements the RevisionRepository interface
type PostgresRevisionRepository struct {
	pool   *pgxpool.Pool
	tables *postgres.TableNames
	logger *slog.Logger
}

// NewRevisionRepository creates a new revision repository
func NewRevisionRepository(config *postgres.RepositoryConfig) pasteRepo.RevisionRepository {
	return &PostgresRevisionRepository{
		pool:   config.Pool,
		tables: config.Tables,
		logger: config.Logger,
	}
}

// Create inserts a revision
func (r *PostgresRevisionRepository) Create(ctx context.Context, rev *models.Revision) error {
	query := fmt.Sprintf(`
		INSERT INTO %s (%s)
		VALUES ($1, $2, $3, $4, $5, $6)
	`, r.tables.Revisions, revisionColumns)

	executor := postgres.GetExecutor(ctx, r.pool)
	_, err := executor.Exec(ctx, query,
		rev.ID,
		rev.DocumentKey,
		rev.OriginKey,
		rev.OriginAuthor,
		rev.Body,
		rev.CreatedAt,
	)
	if err != nil {
		if postgres.IsForeignKeyError(err) {
			return fmt.Errorf("document %s: %w", rev.DocumentKey, domain.ErrNotFound)
		}
		if postgres.IsDuplicateError(err) {
			return fmt.Errorf("revision %s: %w", rev.ID, domain.ErrConflict)
		}
		return fmt.Errorf("create revision: %w", err)
	}

	return nil
}

// GetByID retrieves a revision
func (r *PostgresRevisionRepository) GetByID(ctx context.Context, id string) (*models.Revision, error) {
	query := fmt.Sprintf(`SELECT %s FROM %s WHERE id = $1`, revisionColumns, r.tables.Revisions)

	return r.get(ctx, "revision "+id, query, id)
}

// GetAt retrieves the revision of a document created exactly at a time
func (r *PostgresRevisionRepository) GetAt(ctx context.Context, documentKey string, at time.Time, until *time.Time) (*models.Revision, error) {
	query := fmt.Sprintf(`
		SELECT %s FROM %s
		WHERE document_key = $1 AND created_at = $2 AND ($3::timestamptz IS NULL OR created_at <= $3)
		LIMIT 1
	`, revisionColumns, r.tables.Revisions)

	return r.get(ctx, fmt.Sprintf("revision of %s at %s", documentKey, at.Format(time.RFC3339Nano)), query, documentKey, at, until)
}

// List returns a window of a document's revisions, newest first
func (r *PostgresRevisionRepository) List(ctx context.Context, q pasteRepo.RevisionQuery) ([]models.Revision, error) {
	where, args := r.filter(q)
	query := fmt.Sprintf(`SELECT %s FROM %s WHERE %s ORDER BY created_at DESC`, revisionColumns, r.tables.Revisions, where)
	query, args = paginate(query, args, q)

	executor := postgres.GetExecutor(ctx, r.pool)
	rows, err := executor.Query(ctx, query, args...)
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
func (r *PostgresRevisionRepository) Count(ctx context.Context, q pasteRepo.RevisionQuery) (int, error) {
	where, args := r.filter(q)
	inner := fmt.Sprintf(`SELECT 1 FROM %s WHERE %s`, r.tables.Revisions, where)
	inner, args = paginate(inner, args, pasteRepo.RevisionQuery{Limit: q.Limit})
	query := fmt.Sprintf(`SELECT count(*) FROM (%s) AS capped`, inner)

	var n int
	executor := postgres.GetExecutor(ctx, r.pool)
	if err := executor.QueryRow(ctx, query, args...).Scan(&n); err != nil {
		return 0, fmt.Errorf("count revisions: %w", err)
	}
	return n, nil
}

func (r *PostgresRevisionRepository) filter(q pasteRepo.RevisionQuery) (string, []interface{}) {
	conds := []string{"document_key = $1"}
	args := []interface{}{q.DocumentKey}
	if q.Until != nil {
		args = append(args, *q.Until)
		conds = append(conds, fmt.Sprintf("created_at <= $%d", len(args)))
	}
	return strings.Join(conds, " AND "), args
}

func paginate(query string, args []interface{}, q pasteRepo.RevisionQuery) (string, []interface{}) {
	if q.Limit != pasteRepo.NoLimit {
		args = append(args, q.Limit)
		query += fmt.Sprintf(" LIMIT $%d", len(args))
	}
	if q.Offset > 0 {
		args = append(args, q.Offset)
		query += fmt.Sprintf(" OFFSET $%d", len(args))
	}
	return query, args
}

func (r *PostgresRevisionRepository) get(ctx context.Context, what, query string, args ...interface{}) (*models.Revision, error) {
	executor := postgres.GetExecutor(ctx, r.pool)
	rev, err := scanRevision(executor.QueryRow(ctx, query, args...))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, fmt.Errorf("%s: %w", what, domain.ErrNotFound)
		}
		return nil, fmt.Errorf("get revision: %w", err)
	}
	return rev, nil
}

func scanRevision(row pgx.Row) (*models.Revision, error) {
	var rev models.Revision
	err := row.Scan(
		&rev.ID,
		&rev.DocumentKey,
		&rev.OriginKey,
		&rev.OriginAuthor,
		&rev.Body,
		&rev.CreatedAt,
	)
	if err != nil {
		return nil, err
	}
	rev.CreatedAt = rev.CreatedAt.UTC()
	return &rev, nil
}
