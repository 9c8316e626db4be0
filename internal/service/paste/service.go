package paste

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"regexp"
	"time"

	validation "github.com/go-ozzo/ozzo-validation/v4"

	"pastedown/internal/config"
	"pastedown/internal/domain"
	models "pastedown/internal/domain/models/paste"
	"pastedown/internal/domain/repositories"
	pasteRepo "pastedown/internal/domain/repositories/paste"
	pasteSvc "pastedown/internal/domain/services/paste"
)

// maxPutAttempts bounds key regeneration when a generated key loses an
// insert race
const maxPutAttempts = 4

var literalID = regexp.MustCompile(`^[A-Za-z0-9][A-Za-z0-9_.\-]*$`)

// Service is the entry point to documents and their histories. It carries
// every collaborator the handles need; handles never reach for globals.
type Service struct {
	docs     pasteRepo.DocumentRepository
	revs     pasteRepo.RevisionRepository
	tx       repositories.TransactionManager
	renderer pasteSvc.Renderer
	namer    *KeyNamer
	now      func() time.Time
	logger   *slog.Logger
}

// Option configures a Service
type Option func(*Service)

// WithClock replaces time.Now, for key probing and revision timestamps
func WithClock(now func() time.Time) Option {
	return func(s *Service) {
		s.now = now
	}
}

// NewService creates the document service
func NewService(
	docs pasteRepo.DocumentRepository,
	revs pasteRepo.RevisionRepository,
	tx repositories.TransactionManager,
	renderer pasteSvc.Renderer,
	logger *slog.Logger,
	opts ...Option,
) *Service {
	s := &Service{
		docs:     docs,
		revs:     revs,
		tx:       tx,
		renderer: renderer,
		now:      time.Now,
		logger:   logger,
	}
	for _, opt := range opts {
		opt(s)
	}
	s.namer = NewKeyNamer(docs, s.now, logger)
	return s
}

// Namer exposes the key naming authority
func (s *Service) Namer() *KeyNamer {
	return s.namer
}

// CreateParams describes a new document.
//
// ParentDocument and ParentRevision make the document a fork. Giving only
// one derives the other: the revision's home document, or the parent's
// current revision. ID picks a literal id instead of a generated one.
type CreateParams struct {
	Author         *models.Person
	Body           *string
	ID             *string
	ParentDocument *Document
	ParentRevision *Revision
}

// Validate checks the parameters that do not need storage
func (p *CreateParams) Validate() error {
	return validation.ValidateStruct(p,
		validation.Field(&p.Body, validation.Length(0, config.MaxBodyLength)),
		validation.Field(&p.ID,
			validation.NilOrNotEmpty,
			validation.Length(1, config.MaxIDLength),
			validation.Match(literalID).Error("id may only contain letters, digits, '.', '_' and '-'"),
		),
		validation.Field(&p.Author, validation.By(func(value interface{}) error {
			if person, _ := value.(*models.Person); person != nil && person.Name == "" {
				return errors.New("author must have a name")
			}
			return nil
		})),
	)
}

// Create builds a new, unsaved document. The key is assigned here; the
// body is held until Put.
func (s *Service) Create(ctx context.Context, p CreateParams) (*Document, error) {
	if err := p.Validate(); err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrValidation, err)
	}

	parentDoc, parentRev, err := s.resolveParents(ctx, p.ParentDocument, p.ParentRevision)
	if err != nil {
		return nil, err
	}

	doc := &Document{
		svc:     s,
		pending: p.Body,
		author:  p.Author,
	}

	if p.ID != nil {
		doc.rec.Key = s.namer.Literal(p.Author, *p.ID)
	} else {
		if parentDoc == nil && (p.Body != nil || p.Author != nil) {
			doc.gen = s.slugFor(p.Body)
		}
		doc.generated = true
		if err := doc.assignKey(ctx); err != nil {
			return nil, err
		}
	}

	now := models.NormalizeTimestamp(s.now())
	doc.rec.CreatedAt = now
	doc.rec.UpdatedAt = now
	if p.Author != nil {
		name := p.Author.Name
		doc.rec.AuthorName = &name
	}
	if parentDoc != nil {
		key, id, at := parentDoc.rec.Key, parentRev.rec.ID, parentRev.rec.CreatedAt
		doc.rec.ParentDocumentKey = &key
		doc.rec.ParentRevisionID = &id
		doc.rec.ParentRevisionAt = &at
		doc.rec.UpdatedAt = at
	}

	s.logger.Debug("document created",
		"key", doc.rec.Key,
		"author", doc.rec.AuthorName,
		"parent", doc.rec.ParentDocumentKey,
		"generated", doc.generated,
	)

	return doc, nil
}

// resolveParents fills in the fork pointer that was not given and checks
// that both point at the same history
func (s *Service) resolveParents(ctx context.Context, doc *Document, rev *Revision) (*Document, *Revision, error) {
	switch {
	case doc == nil && rev == nil:
		return nil, nil, nil

	case doc == nil:
		if !rev.persisted {
			return nil, nil, fmt.Errorf("%w: cannot fork an unsaved revision", domain.ErrValidation)
		}
		home, err := rev.Document(ctx)
		if err != nil {
			return nil, nil, fmt.Errorf("resolve fork parent: %w", err)
		}
		return home, rev, nil

	case rev == nil:
		if !doc.persisted {
			return nil, nil, fmt.Errorf("%w: cannot fork an unsaved document", domain.ErrValidation)
		}
		current, err := doc.CurrentRevision(ctx)
		if err != nil {
			return nil, nil, fmt.Errorf("resolve fork point: %w", err)
		}
		if current == nil {
			return nil, nil, fmt.Errorf("%w: cannot fork document %s without revisions", domain.ErrValidation, doc.Key())
		}
		return doc, current, nil

	default:
		if !doc.persisted || !rev.persisted {
			return nil, nil, fmt.Errorf("%w: cannot fork unsaved records", domain.ErrValidation)
		}
		seen, err := doc.Revisions().AtTime(ctx, rev.CreatedAt())
		if err != nil && !errors.Is(err, domain.ErrNotFound) {
			return nil, nil, fmt.Errorf("check fork point: %w", err)
		}
		if seen == nil || seen.ID() != rev.ID() {
			return nil, nil, fmt.Errorf("%w: revision %s is not in the history of %s", domain.ErrValidation, rev.Locator(), doc.Key())
		}
		return doc, rev, nil
	}
}

// slugFor derives the title slug generator for a top-level body
func (s *Service) slugFor(body *string) IDGenerator {
	if body == nil {
		return nil
	}
	html, err := s.renderer.Render(*body)
	if err != nil {
		s.logger.Warn("render for slug failed", "error", err)
		return nil
	}
	title, ok := ExtractTitle(html)
	if !ok {
		return nil
	}
	return SlugGenerator(Slugify(title))
}

// Get loads a document by key. Returns domain.ErrNotFound when absent.
func (s *Service) Get(ctx context.Context, key string) (*Document, error) {
	rec, err := s.docs.GetByKey(ctx, key)
	if err != nil {
		return nil, err
	}
	return s.documentFromRecord(*rec), nil
}

// Find looks a document up by author and id. Returns domain.ErrNotFound
// when absent.
func (s *Service) Find(ctx context.Context, author *models.Person, id string) (*Document, error) {
	return s.Get(ctx, s.namer.Literal(author, id))
}

// GetByAuthor lists the documents owned by person, most recently updated first
func (s *Service) GetByAuthor(ctx context.Context, person *models.Person) ([]*Document, error) {
	if person == nil || person.Name == "" {
		return nil, fmt.Errorf("%w: author is required", domain.ErrValidation)
	}

	recs, err := s.docs.ListByAuthor(ctx, person.Name)
	if err != nil {
		return nil, err
	}
	return s.documentsFromRecords(recs), nil
}

func (s *Service) documentFromRecord(rec models.Document) *Document {
	doc := &Document{svc: s, rec: rec, persisted: true}
	if rec.AuthorName != nil {
		doc.author = &models.Person{Name: *rec.AuthorName}
	}
	return doc
}

func (s *Service) documentsFromRecords(recs []models.Document) []*Document {
	docs := make([]*Document, len(recs))
	for i := range recs {
		docs[i] = s.documentFromRecord(recs[i])
	}
	return docs
}

func (s *Service) revisionFromRecord(rec models.Revision) *Revision {
	return &Revision{svc: s, rec: rec, persisted: true}
}
