package paste

import (
	"context"
	"time"

	models "pastedown/internal/domain/models/paste"
)

// DocumentRepository defines data access operations for documents
type DocumentRepository interface {
	// Create inserts a new document. Returns *domain.ConflictError when the
	// key is already taken.
	Create(ctx context.Context, doc *models.Document) error

	// Exists reports whether a document with the key is stored
	Exists(ctx context.Context, key string) (bool, error)

	// GetByKey retrieves a document. Returns domain.ErrNotFound when absent.
	GetByKey(ctx context.Context, key string) (*models.Document, error)

	// Update persists author and the fork pointers; updated_at is left alone
	Update(ctx context.Context, doc *models.Document) error

	// AdvanceUpdatedAt moves updated_at to candidate, or to one microsecond
	// past its current value when candidate is not later. Returns the stored
	// value. Must run inside the revision insert's transaction.
	AdvanceUpdatedAt(ctx context.Context, key string, candidate time.Time) (time.Time, error)

	// Delete removes the document and the revisions it owns
	Delete(ctx context.Context, key string) error

	// ListByAuthor lists documents owned by the author, most recently updated first
	ListByAuthor(ctx context.Context, authorName string) ([]models.Document, error)

	// ListByParentDocument lists documents forked from the given document
	ListByParentDocument(ctx context.Context, key string) ([]models.Document, error)

	// ListByParentRevision lists documents forked at the given revision
	ListByParentRevision(ctx context.Context, revisionID string) ([]models.Document, error)
}
