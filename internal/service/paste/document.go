package paste

import (
	"context"
	"errors"
	"fmt"
	"time"

	validation "github.com/go-ozzo/ozzo-validation/v4"
	"github.com/google/uuid"

	"pastedown/internal/config"
	"pastedown/internal/domain"
	models "pastedown/internal/domain/models/paste"
	pasteRepo "pastedown/internal/domain/repositories/paste"
)

// Document is a handle on a stored (or about to be stored) document.
//
// A Document is a short-lived, per-request value. It is not safe for
// concurrent use; concurrent requests each load their own handle.
type Document struct {
	svc       *Service
	rec       models.Document
	author    *models.Person
	pending   *string // body committed by the first Put
	gen       IDGenerator
	generated bool
	persisted bool
}

// Key returns the permanent key of the document
func (d *Document) Key() string { return d.rec.Key }

// Author returns the owner, nil for anonymous documents
func (d *Document) Author() *models.Person { return d.author }

// UpdatedAt is the creation time of the newest revision in the document's history
func (d *Document) UpdatedAt() time.Time { return d.rec.UpdatedAt }

// CreatedAt is when the document record was built
func (d *Document) CreatedAt() time.Time { return d.rec.CreatedAt }

// Record returns a copy of the stored fields
func (d *Document) Record() models.Document { return d.rec }

// IsFork reports whether the document still points at a parent
func (d *Document) IsFork() bool { return d.rec.IsFork() }

// URL returns the public path of the document
func (d *Document) URL() string { return models.DocumentURL(d.rec.Key) }

func (d *Document) assignKey(ctx context.Context) error {
	key, err := d.svc.namer.Generate(ctx, d.author, d.gen)
	if err != nil {
		return err
	}
	d.rec.Key = key
	return nil
}

// Put persists the document. On the first Put a held body is committed
// as the first revision, in the same transaction as the document record.
// A generated key that lost a concurrent insert is regenerated and the
// insert retried. Returns the key.
func (d *Document) Put(ctx context.Context) (string, error) {
	for attempt := 1; ; attempt++ {
		saved := d.rec
		err := d.svc.tx.ExecTx(ctx, func(txCtx context.Context) error {
			if d.persisted {
				return d.svc.docs.Update(txCtx, &d.rec)
			}
			if err := d.svc.docs.Create(txCtx, &d.rec); err != nil {
				return err
			}
			if d.pending != nil {
				if _, err := d.appendRevision(txCtx, *d.pending); err != nil {
					return err
				}
			}
			return nil
		})
		if err == nil {
			break
		}

		d.rec = saved
		if d.persisted || !d.generated || !errors.Is(err, domain.ErrConflict) || attempt >= maxPutAttempts {
			return "", err
		}

		d.svc.logger.Debug("generated key lost insert race, regenerating", "key", d.rec.Key, "attempt", attempt)
		if err := d.assignKey(ctx); err != nil {
			return "", err
		}
	}

	if !d.persisted {
		d.svc.logger.Info("document saved",
			"key", d.rec.Key,
			"author", d.rec.AuthorName,
			"parent", d.rec.ParentDocumentKey,
			"with_body", d.pending != nil,
		)
	}
	d.persisted = true
	d.pending = nil
	return d.rec.Key, nil
}

// Revisions returns the effective history of the document, newest first
func (d *Document) Revisions() *RevisionSet {
	return &RevisionSet{svc: d.svc, root: d.rec, limit: pasteRepo.NoLimit}
}

// CurrentRevision returns the newest revision of the effective history,
// or nil when there is none.
func (d *Document) CurrentRevision(ctx context.Context) (*Revision, error) {
	if !d.persisted {
		return nil, nil
	}
	rev, err := d.Revisions().At(ctx, 0)
	if errors.Is(err, domain.ErrIndexOutOfRange) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return rev, nil
}

// Body returns the text of the current revision. ok is false when the
// document has no revision yet.
func (d *Document) Body(ctx context.Context) (body string, ok bool, err error) {
	rev, err := d.CurrentRevision(ctx)
	if err != nil || rev == nil {
		return "", false, err
	}
	return rev.Body(), true, nil
}

// AppendRevision writes body as a new revision owned by this document.
// This is the only way content changes; existing revisions never do.
func (d *Document) AppendRevision(ctx context.Context, body string) (*Revision, error) {
	if !d.persisted {
		return nil, fmt.Errorf("%w: document %s has not been saved", domain.ErrValidation, d.rec.Key)
	}
	if err := validation.Validate(body, validation.Length(0, config.MaxBodyLength)); err != nil {
		return nil, fmt.Errorf("%w: body: %v", domain.ErrValidation, err)
	}
	return d.appendRevision(ctx, body)
}

func (d *Document) appendRevision(ctx context.Context, body string) (*Revision, error) {
	rev := &Revision{
		svc: d.svc,
		doc: d,
		rec: models.Revision{
			ID:          uuid.NewString(),
			DocumentKey: d.rec.Key,
			Body:        body,
		},
	}
	if err := rev.Put(ctx); err != nil {
		return nil, err
	}
	d.rec.UpdatedAt = rev.rec.CreatedAt

	d.svc.logger.Debug("revision appended", "document", d.rec.Key, "created_at", rev.rec.CreatedAt)
	return rev, nil
}

// HTML renders the current revision. Empty when there is no revision.
func (d *Document) HTML(ctx context.Context) (string, error) {
	rev, err := d.CurrentRevision(ctx)
	if err != nil || rev == nil {
		return "", err
	}
	return rev.HTML()
}

// Title returns the title of the current revision, Untitled when none can
// be extracted, and "" when there is no revision.
func (d *Document) Title(ctx context.Context) (string, error) {
	rev, err := d.CurrentRevision(ctx)
	if err != nil || rev == nil {
		return "", err
	}
	return rev.Title()
}

// IsModifiable reports whether person owns the document
func (d *Document) IsModifiable(person *models.Person) bool {
	return d.author.Is(person)
}

// Fork builds a new unsaved document whose history continues this one's
// from its current revision
func (d *Document) Fork(ctx context.Context, author *models.Person, body *string) (*Document, error) {
	return d.svc.Create(ctx, CreateParams{
		Author:         author,
		Body:           body,
		ParentDocument: d,
	})
}

// ParentDocument returns the document this one was forked from, or nil
func (d *Document) ParentDocument(ctx context.Context) (*Document, error) {
	if d.rec.ParentDocumentKey == nil {
		return nil, nil
	}
	return d.svc.Get(ctx, *d.rec.ParentDocumentKey)
}

// ParentRevision returns the fork point, or nil. When the revision record
// is gone (its owner was deleted and the parent keeps a copy), the copy at
// the same timestamp is returned.
func (d *Document) ParentRevision(ctx context.Context) (*Revision, error) {
	if d.rec.ParentRevisionID == nil {
		return nil, nil
	}

	rec, err := d.svc.revs.GetByID(ctx, *d.rec.ParentRevisionID)
	if err == nil {
		return d.svc.revisionFromRecord(*rec), nil
	}
	if !errors.Is(err, domain.ErrNotFound) || d.rec.ParentRevisionAt == nil {
		return nil, err
	}

	parent, err := d.ParentDocument(ctx)
	if err != nil {
		return nil, err
	}
	return parent.Revisions().AtTime(ctx, *d.rec.ParentRevisionAt)
}

// Forks lists the documents forked from this one
func (d *Document) Forks(ctx context.Context) ([]*Document, error) {
	recs, err := d.svc.docs.ListByParentDocument(ctx, d.rec.Key)
	if err != nil {
		return nil, err
	}
	return d.svc.documentsFromRecords(recs), nil
}

// Delete removes the document and the revisions it owns. Forks of it are
// detached first and survive as independent documents. A fork keeps
// copies of the inherited revisions it, or any fork below it, still
// points at.
//
// Each fork is detached in its own transaction. A failure part way leaves
// the remaining forks attached; calling Delete again finishes the job.
func (d *Document) Delete(ctx context.Context) error {
	children, err := d.svc.docs.ListByParentDocument(ctx, d.rec.Key)
	if err != nil {
		return fmt.Errorf("list forks of %s: %w", d.rec.Key, err)
	}

	for i := range children {
		child := d.svc.documentFromRecord(children[i])
		if err := child.detach(ctx); err != nil {
			return fmt.Errorf("detach fork %s: %w", child.Key(), err)
		}
	}

	if err := d.svc.docs.Delete(ctx, d.rec.Key); err != nil {
		return err
	}

	d.svc.logger.Info("document deleted", "key", d.rec.Key, "detached_forks", len(children))
	d.persisted = false
	return nil
}

// detach clears the fork pointers. Every inherited revision the document
// still needs is copied into it first: the current one when it owns none,
// and each one a fork further down the tree was taken from.
func (d *Document) detach(ctx context.Context) error {
	return d.svc.tx.ExecTx(ctx, func(txCtx context.Context) error {
		own, err := d.svc.revs.Count(txCtx, pasteRepo.RevisionQuery{DocumentKey: d.rec.Key, Limit: 1})
		if err != nil {
			return err
		}

		descendants, err := d.descendants(txCtx)
		if err != nil {
			return err
		}

		var pins []time.Time
		if own == 0 {
			inherited, err := d.CurrentRevision(txCtx)
			if err != nil {
				return err
			}
			if inherited != nil {
				pins = append(pins, inherited.CreatedAt())
			}
		}
		for _, rec := range descendants {
			if rec.ParentRevisionAt != nil && d.rec.ParentRevisionAt != nil && !rec.ParentRevisionAt.After(*d.rec.ParentRevisionAt) {
				pins = append(pins, *rec.ParentRevisionAt)
			}
		}

		copies := make(map[string]string) // inherited id -> copy id
		seen := make(map[int64]bool)
		for _, at := range pins {
			if seen[at.UnixMicro()] {
				continue
			}
			seen[at.UnixMicro()] = true

			rev, err := d.Revisions().AtTime(txCtx, at)
			if errors.Is(err, domain.ErrNotFound) {
				continue
			}
			if err != nil {
				return err
			}
			if rev.DocumentKey() == d.rec.Key {
				continue
			}
			id, err := d.adopt(txCtx, rev)
			if err != nil {
				return err
			}
			copies[rev.ID()] = id
		}

		for i := range descendants {
			rec := &descendants[i]
			if rec.ParentRevisionID == nil {
				continue
			}
			id, ok := copies[*rec.ParentRevisionID]
			if !ok {
				continue
			}
			rec.ParentRevisionID = &id
			if err := d.svc.docs.Update(txCtx, rec); err != nil {
				return err
			}
		}

		d.rec.Detach()
		if err := d.svc.docs.Update(txCtx, &d.rec); err != nil {
			return err
		}

		d.svc.logger.Info("fork detached", "key", d.rec.Key, "copied_revisions", len(copies))
		return nil
	})
}

// descendants lists the forks of the document, their forks, and so on
func (d *Document) descendants(ctx context.Context) ([]models.Document, error) {
	var out []models.Document
	visited := map[string]bool{d.rec.Key: true}
	queue := []string{d.rec.Key}

	for len(queue) > 0 {
		key := queue[0]
		queue = queue[1:]

		recs, err := d.svc.docs.ListByParentDocument(ctx, key)
		if err != nil {
			return nil, fmt.Errorf("list forks of %s: %w", key, err)
		}
		for _, rec := range recs {
			if visited[rec.Key] {
				continue
			}
			visited[rec.Key] = true
			out = append(out, rec)
			queue = append(queue, rec.Key)
		}
	}
	return out, nil
}

// adopt stores a copy of an ancestor's revision as this document's own,
// keeping its timestamp and provenance. Returns the copy's id.
func (d *Document) adopt(ctx context.Context, rev *Revision) (string, error) {
	author, err := rev.Author(ctx)
	if err != nil {
		return "", err
	}

	origin := rev.rec.DocumentKey
	if rev.rec.OriginKey != nil {
		origin = *rev.rec.OriginKey
	}
	copied := models.Revision{
		ID:          uuid.NewString(),
		DocumentKey: d.rec.Key,
		OriginKey:   &origin,
		Body:        rev.rec.Body,
		CreatedAt:   rev.rec.CreatedAt,
	}
	if author != nil {
		name := author.Name
		copied.OriginAuthor = &name
	}

	if err := d.svc.revs.Create(ctx, &copied); err != nil {
		return "", err
	}
	return copied.ID, nil
}
