package handler

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"pastedown/internal/config"
	"pastedown/internal/domain"
	models "pastedown/internal/domain/models/paste"
	pasteSvc "pastedown/internal/domain/services/paste"
	"pastedown/internal/httputil"
	"pastedown/internal/service/converter"
	"pastedown/internal/service/paste"
)

// PasteHandler handles document and revision HTTP requests
type PasteHandler struct {
	pastes     *paste.Service
	converters *converter.Registry
	people     pasteSvc.IdentityDirectory
	authz      pasteSvc.DocumentAuthorizer
	logger     *slog.Logger
}

// NewPasteHandler creates a new paste handler
func NewPasteHandler(
	pastes *paste.Service,
	converters *converter.Registry,
	people pasteSvc.IdentityDirectory,
	authz pasteSvc.DocumentAuthorizer,
	logger *slog.Logger,
) *PasteHandler {
	return &PasteHandler{
		pastes:     pastes,
		converters: converters,
		people:     people,
		authz:      authz,
		logger:     logger,
	}
}

// HealthCheck reports liveness
// GET /health
func (h *PasteHandler) HealthCheck(w http.ResponseWriter, r *http.Request) {
	httputil.RespondJSON(w, http.StatusOK, map[string]interface{}{
		"status": "ok",
		"time":   time.Now(),
	})
}

// CreateDocument posts a new document
// POST /api/documents
// Returns 201, or 409 with the existing document when a chosen id is taken
func (h *PasteHandler) CreateDocument(w http.ResponseWriter, r *http.Request) {
	var req CreateDocumentRequest
	if err := httputil.ParseJSON(w, r, &req); err != nil {
		handleError(w, err)
		return
	}

	body, err := h.convert(r.Context(), req.Format, req.Body)
	if err != nil {
		handleError(w, err)
		return
	}

	person := httputil.GetPerson(r)
	doc, err := h.pastes.Create(r.Context(), paste.CreateParams{
		Author: person,
		Body:   body,
		ID:     req.ID,
	})
	if err != nil {
		handleError(w, err)
		return
	}

	if _, err := doc.Put(r.Context()); err != nil {
		HandleCreateConflict(w, err, func(key string) (*DocumentResponse, error) {
			existing, err := h.pastes.Get(r.Context(), key)
			if err != nil {
				return nil, err
			}
			return h.documentResponse(r.Context(), existing, nil, person)
		})
		return
	}

	resp, err := h.documentResponse(r.Context(), doc, nil, person)
	if err != nil {
		handleError(w, err)
		return
	}
	httputil.RespondJSON(w, http.StatusCreated, resp)
}

// GetDocument returns a document with its current revision, or with the
// revision a locator names
// GET /api/documents/{path...}
func (h *PasteHandler) GetDocument(w http.ResponseWriter, r *http.Request) {
	doc, rev, err := h.resolve(r.Context(), r.PathValue("path"))
	if err != nil {
		handleError(w, err)
		return
	}

	resp, err := h.documentResponse(r.Context(), doc, rev, httputil.GetPerson(r))
	if err != nil {
		handleError(w, err)
		return
	}
	httputil.RespondJSON(w, http.StatusOK, resp)
}

// ListRevisions returns a page of the effective history
// GET /api/history/{key...}?limit=&offset=
func (h *PasteHandler) ListRevisions(w http.ResponseWriter, r *http.Request) {
	limit, err := httputil.QueryInt(r, "limit", config.DefaultPageSize)
	if err != nil {
		handleError(w, err)
		return
	}
	offset, err := httputil.QueryInt(r, "offset", 0)
	if err != nil {
		handleError(w, err)
		return
	}
	if limit > config.MaxPageSize {
		handleError(w, fmt.Errorf("%w: limit must not exceed %d", domain.ErrValidation, config.MaxPageSize))
		return
	}

	doc, err := h.pastes.Get(r.Context(), r.PathValue("key"))
	if err != nil {
		handleError(w, err)
		return
	}

	history := doc.Revisions()
	total, err := history.Len(r.Context())
	if err != nil {
		handleError(w, err)
		return
	}
	page, err := history.Fetch(limit, offset)
	if err != nil {
		handleError(w, err)
		return
	}

	resp := HistoryResponse{
		Document: doc.Key(),
		Total:    total,
		Offset:   offset,
		Limit:    limit,
		Items:    []RevisionResponse{},
	}
	for rev, err := range page.All(r.Context()) {
		if err != nil {
			handleError(w, err)
			return
		}
		item, err := h.revisionResponse(r.Context(), rev, false)
		if err != nil {
			handleError(w, err)
			return
		}
		resp.Items = append(resp.Items, *item)
	}

	httputil.RespondJSON(w, http.StatusOK, resp)
}

// AppendRevision sets a new body on a document the caller owns
// POST /api/revisions/{key...}
func (h *PasteHandler) AppendRevision(w http.ResponseWriter, r *http.Request) {
	person := httputil.GetPerson(r)

	var req RevisionRequest
	if err := httputil.ParseJSON(w, r, &req); err != nil {
		handleError(w, err)
		return
	}
	if req.Body == nil {
		handleError(w, fmt.Errorf("%w: body is required", domain.ErrValidation))
		return
	}

	doc, err := h.pastes.Get(r.Context(), r.PathValue("key"))
	if err != nil {
		handleError(w, err)
		return
	}
	if err := h.authz.CanModify(person, doc); err != nil {
		handleError(w, err)
		return
	}

	body, err := h.convert(r.Context(), req.Format, req.Body)
	if err != nil {
		handleError(w, err)
		return
	}
	rev, err := doc.AppendRevision(r.Context(), *body)
	if err != nil {
		handleError(w, err)
		return
	}

	resp, err := h.documentResponse(r.Context(), doc, rev, person)
	if err != nil {
		handleError(w, err)
		return
	}
	httputil.RespondJSON(w, http.StatusCreated, resp)
}

// Fork creates a document continuing the history of a document or of the
// revision a locator names
// POST /api/forks/{path...}
func (h *PasteHandler) Fork(w http.ResponseWriter, r *http.Request) {
	// The request body is optional: without one the fork shows its parent
	var req RevisionRequest
	if r.ContentLength != 0 {
		if err := httputil.ParseJSON(w, r, &req); err != nil {
			handleError(w, err)
			return
		}
	}

	doc, rev, err := h.resolve(r.Context(), r.PathValue("path"))
	if err != nil {
		handleError(w, err)
		return
	}
	body, err := h.convert(r.Context(), req.Format, req.Body)
	if err != nil {
		handleError(w, err)
		return
	}

	person := httputil.GetPerson(r)
	var fork *paste.Document
	if rev != nil {
		fork, err = rev.Fork(r.Context(), person, body)
	} else {
		fork, err = doc.Fork(r.Context(), person, body)
	}
	if err != nil {
		handleError(w, err)
		return
	}
	if _, err := fork.Put(r.Context()); err != nil {
		handleError(w, err)
		return
	}

	resp, err := h.documentResponse(r.Context(), fork, nil, person)
	if err != nil {
		handleError(w, err)
		return
	}
	httputil.RespondJSON(w, http.StatusCreated, resp)
}

// DeleteDocument deletes a document the caller owns; its forks survive
// DELETE /api/documents/{path...}
func (h *PasteHandler) DeleteDocument(w http.ResponseWriter, r *http.Request) {
	person := httputil.GetPerson(r)

	doc, err := h.pastes.Get(r.Context(), r.PathValue("path"))
	if err != nil {
		handleError(w, err)
		return
	}
	if err := h.authz.CanModify(person, doc); err != nil {
		handleError(w, err)
		return
	}

	if err := doc.Delete(r.Context()); err != nil {
		handleError(w, err)
		return
	}
	httputil.RespondNoContent(w)
}

// ListByAuthor lists a person's documents, most recently updated first
// GET /api/people/{name}/documents
func (h *PasteHandler) ListByAuthor(w http.ResponseWriter, r *http.Request) {
	person, err := h.people.Find(r.Context(), r.PathValue("name"))
	if err != nil {
		handleError(w, err)
		return
	}

	docs, err := h.pastes.GetByAuthor(r.Context(), person)
	if err != nil {
		handleError(w, err)
		return
	}

	summaries := make([]DocumentSummary, 0, len(docs))
	for _, doc := range docs {
		title, err := doc.Title(r.Context())
		if err != nil {
			handleError(w, err)
			return
		}
		summaries = append(summaries, DocumentSummary{
			Key:       doc.Key(),
			URL:       doc.URL(),
			Title:     title,
			UpdatedAt: doc.UpdatedAt(),
			IsFork:    doc.IsFork(),
		})
	}
	httputil.RespondJSON(w, http.StatusOK, summaries)
}

// resolve loads the document a path names and, for a revision locator, the
// revision of its history at that time
func (h *PasteHandler) resolve(ctx context.Context, path string) (*paste.Document, *paste.Revision, error) {
	key, at, ok := models.ParseLocator(path)
	doc, err := h.pastes.Get(ctx, key)
	if err != nil || !ok {
		return doc, nil, err
	}

	rev, err := doc.Revisions().AtTime(ctx, at)
	if err != nil {
		return nil, nil, err
	}
	return doc, rev, nil
}

// convert turns a submitted body into markdown; nil stays nil
func (h *PasteHandler) convert(ctx context.Context, format string, body *string) (*string, error) {
	if body == nil {
		return nil, nil
	}
	md, err := h.converters.Convert(ctx, format, []byte(*body))
	if err != nil {
		return nil, err
	}
	return &md, nil
}

func (h *PasteHandler) documentResponse(ctx context.Context, doc *paste.Document, rev *paste.Revision, viewer *models.Person) (*DocumentResponse, error) {
	rec := doc.Record()
	resp := &DocumentResponse{
		Key:            rec.Key,
		URL:            doc.URL(),
		Author:         rec.AuthorName,
		CreatedAt:      rec.CreatedAt,
		UpdatedAt:      rec.UpdatedAt,
		ParentDocument: rec.ParentDocumentKey,
		Modifiable:     doc.IsModifiable(viewer),
	}
	if rec.ParentDocumentKey != nil && rec.ParentRevisionAt != nil {
		locator := models.FormatLocator(*rec.ParentDocumentKey, *rec.ParentRevisionAt)
		resp.ParentRevision = &locator
	}

	if rev == nil {
		current, err := doc.CurrentRevision(ctx)
		if err != nil {
			return nil, err
		}
		rev = current
	}
	if rev != nil {
		r, err := h.revisionResponse(ctx, rev, true)
		if err != nil {
			return nil, err
		}
		resp.Revision = r
	}
	return resp, nil
}

func (h *PasteHandler) revisionResponse(ctx context.Context, rev *paste.Revision, full bool) (*RevisionResponse, error) {
	title, err := rev.Title()
	if err != nil {
		return nil, err
	}
	resp := &RevisionResponse{
		Locator:   rev.Locator(),
		URL:       rev.URL(),
		Document:  rev.DocumentKey(),
		Title:     title,
		CreatedAt: rev.CreatedAt(),
	}

	author, err := rev.Author(ctx)
	if err != nil {
		return nil, err
	}
	if author != nil {
		resp.Author = &author.Name
	}

	words, err := rev.WordCount()
	if err != nil {
		return nil, err
	}
	resp.WordCount = words

	if full {
		html, err := rev.HTML()
		if err != nil {
			return nil, err
		}
		resp.Body = rev.Body()
		resp.HTML = html
	}
	return resp, nil
}
