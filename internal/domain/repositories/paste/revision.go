package paste

import (
	"context"
	"time"

	models "pastedown/internal/domain/models/paste"
)

// NoLimit disables the Limit of a RevisionQuery
const NoLimit = -1

// RevisionQuery selects the revisions owned by one document, newest first.
type RevisionQuery struct {
	DocumentKey string
	Until       *time.Time // inclusive upper bound on created_at; nil = none
	Offset      int
	Limit       int // NoLimit for all
}

// RevisionRepository defines data access operations for revisions.
// Revisions are never updated; deletion only happens through
// DocumentRepository.Delete.
type RevisionRepository interface {
	// Create inserts a revision
	Create(ctx context.Context, rev *models.Revision) error

	// GetByID retrieves a revision. Returns domain.ErrNotFound when absent.
	GetByID(ctx context.Context, id string) (*models.Revision, error)

	// GetAt retrieves the revision of a document created exactly at the
	// given time, honoring the optional upper bound.
	GetAt(ctx context.Context, documentKey string, at time.Time, until *time.Time) (*models.Revision, error)

	// List returns the window of revisions selected by the query
	List(ctx context.Context, q RevisionQuery) ([]models.Revision, error)

	// Count counts the revisions selected by the query, ignoring Offset.
	// With a Limit it stops counting once Limit is reached.
	Count(ctx context.Context, q RevisionQuery) (int, error)
}
