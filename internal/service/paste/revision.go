package paste

import (
	"context"
	"errors"
	"fmt"
	"time"

	"pastedown/internal/domain"
	models "pastedown/internal/domain/models/paste"
)

// Revision is a handle on one immutable body snapshot
type Revision struct {
	svc       *Service
	doc       *Document // home document, loaded lazily
	rec       models.Revision
	persisted bool
}

// ID returns the record id
func (r *Revision) ID() string { return r.rec.ID }

// Body returns the text of the revision
func (r *Revision) Body() string { return r.rec.Body }

// CreatedAt returns the write time, microsecond precision, UTC
func (r *Revision) CreatedAt() time.Time { return r.rec.CreatedAt }

// DocumentKey returns the key of the home document
func (r *Revision) DocumentKey() string { return r.rec.DocumentKey }

// Record returns a copy of the stored fields
func (r *Revision) Record() models.Revision { return r.rec }

// Locator returns "<key>/YYYY/MM/DD/HHMMSS.<µs>"
func (r *Revision) Locator() string {
	return models.FormatLocator(r.rec.DocumentKey, r.rec.CreatedAt)
}

// URL returns the public path of the revision
func (r *Revision) URL() string {
	return models.RevisionURL(r.rec.DocumentKey, r.rec.CreatedAt)
}

// Put stores the revision and moves its home document's updated_at to the
// revision's timestamp, atomically. The timestamp is taken here: the clock
// reading, or one microsecond past the document's updated_at when the clock
// has not moved past it.
func (r *Revision) Put(ctx context.Context) error {
	if r.persisted {
		return fmt.Errorf("%w: revision %s is immutable", domain.ErrValidation, r.rec.ID)
	}

	candidate := models.NormalizeTimestamp(r.svc.now())
	rec := r.rec
	err := r.svc.tx.ExecTx(ctx, func(txCtx context.Context) error {
		at, err := r.svc.docs.AdvanceUpdatedAt(txCtx, rec.DocumentKey, candidate)
		if err != nil {
			return fmt.Errorf("advance updated_at of %s: %w", rec.DocumentKey, err)
		}
		rec.CreatedAt = models.NormalizeTimestamp(at)
		return r.svc.revs.Create(txCtx, &rec)
	})
	if err != nil {
		return err
	}

	r.rec = rec
	r.persisted = true
	return nil
}

// Document returns the home document
func (r *Revision) Document(ctx context.Context) (*Document, error) {
	if r.doc != nil {
		return r.doc, nil
	}
	doc, err := r.svc.Get(ctx, r.rec.DocumentKey)
	if err != nil {
		return nil, err
	}
	r.doc = doc
	return doc, nil
}

// Author returns the effective author. A revision copied from another
// document answers with that document's author, or the author recorded at
// copy time when the origin is gone. Nil for anonymous revisions.
func (r *Revision) Author(ctx context.Context) (*models.Person, error) {
	if r.rec.OriginKey != nil {
		origin, err := r.svc.Get(ctx, *r.rec.OriginKey)
		switch {
		case err == nil:
			return origin.Author(), nil
		case !errors.Is(err, domain.ErrNotFound):
			return nil, err
		case r.rec.OriginAuthor != nil:
			return &models.Person{Name: *r.rec.OriginAuthor}, nil
		default:
			return nil, nil
		}
	}

	doc, err := r.Document(ctx)
	if err != nil {
		return nil, err
	}
	return doc.Author(), nil
}

// HTML renders the body. Empty for an empty body.
func (r *Revision) HTML() (string, error) {
	if r.rec.Body == "" {
		return "", nil
	}
	return r.svc.renderer.Render(r.rec.Body)
}

// Title extracts the display title, Untitled when there is none
func (r *Revision) Title() (string, error) {
	html, err := r.HTML()
	if err != nil {
		return "", err
	}
	return TitleOrUntitled(html), nil
}

// WordCount counts the words of the rendered text; markup and code fences
// do not count
func (r *Revision) WordCount() (int, error) {
	html, err := r.HTML()
	if err != nil {
		return 0, err
	}
	return CountWords(html), nil
}

// Fork builds a new unsaved document continuing the history at this revision
func (r *Revision) Fork(ctx context.Context, author *models.Person, body *string) (*Document, error) {
	return r.svc.Create(ctx, CreateParams{
		Author:         author,
		Body:           body,
		ParentRevision: r,
	})
}

// Forks lists the documents forked at this revision
func (r *Revision) Forks(ctx context.Context) ([]*Document, error) {
	recs, err := r.svc.docs.ListByParentRevision(ctx, r.rec.ID)
	if err != nil {
		return nil, err
	}
	return r.svc.documentsFromRecords(recs), nil
}
