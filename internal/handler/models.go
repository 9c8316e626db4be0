package handler

import (
	"time"
)

// CreateDocumentRequest is the body of POST /api/documents
type CreateDocumentRequest struct {
	Body   *string `json:"body"`
	Format string  `json:"format"`
	ID     *string `json:"id"`
}

// RevisionRequest is the body of revision appends and forks
type RevisionRequest struct {
	Body   *string `json:"body"`
	Format string  `json:"format"`
}

// TicketRequest asks for a login ticket
type TicketRequest struct {
	Name string `json:"name"`
}

// DocumentResponse describes a document and its current revision
type DocumentResponse struct {
	Key            string            `json:"key"`
	URL            string            `json:"url"`
	Author         *string           `json:"author,omitempty"`
	CreatedAt      time.Time         `json:"created_at"`
	UpdatedAt      time.Time         `json:"updated_at"`
	ParentDocument *string           `json:"parent_document,omitempty"`
	ParentRevision *string           `json:"parent_revision,omitempty"` // locator
	Modifiable     bool              `json:"modifiable"`
	Revision       *RevisionResponse `json:"revision,omitempty"`
}

// RevisionResponse describes one revision
type RevisionResponse struct {
	Locator   string    `json:"locator"`
	URL       string    `json:"url"`
	Document  string    `json:"document"`
	Author    *string   `json:"author,omitempty"`
	Title     string    `json:"title"`
	Body      string    `json:"body,omitempty"`
	HTML      string    `json:"html,omitempty"`
	WordCount int       `json:"word_count"`
	CreatedAt time.Time `json:"created_at"`
}

// HistoryResponse is one page of a document's effective history
type HistoryResponse struct {
	Document string             `json:"document"`
	Total    int                `json:"total"`
	Offset   int                `json:"offset"`
	Limit    int                `json:"limit"`
	Items    []RevisionResponse `json:"items"`
}

// DocumentSummary is a list entry
type DocumentSummary struct {
	Key       string    `json:"key"`
	URL       string    `json:"url"`
	Title     string    `json:"title,omitempty"`
	UpdatedAt time.Time `json:"updated_at"`
	IsFork    bool      `json:"is_fork"`
}

// TicketResponse carries a login ticket
type TicketResponse struct {
	Ticket    string    `json:"ticket"`
	ExpiresAt time.Time `json:"expires_at"`
}
