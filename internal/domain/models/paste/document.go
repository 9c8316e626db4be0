package paste

import "time"

// Document is the stored record of an addressable paste.
//
// Content is never stored here: it lives in the append-only revision
// history. ParentDocumentKey, ParentRevisionID and ParentRevisionAt are
// either all set (the document is a fork) or all nil.
type Document struct {
	Key               string     `json:"key" db:"key"`
	AuthorName        *string    `json:"author,omitempty" db:"author_name"` // NULL = anonymous
	CreatedAt         time.Time  `json:"created_at" db:"created_at"`
	UpdatedAt         time.Time  `json:"updated_at" db:"updated_at"`
	ParentDocumentKey *string    `json:"parent_document,omitempty" db:"parent_document_key"`
	ParentRevisionID  *string    `json:"parent_revision,omitempty" db:"parent_revision_id"`
	ParentRevisionAt  *time.Time `json:"parent_revision_at,omitempty" db:"parent_revision_at"`
}

// IsFork reports whether the document still has a provenance link
func (d *Document) IsFork() bool {
	return d.ParentDocumentKey != nil && d.ParentRevisionAt != nil
}

// Detach clears all fork pointers
func (d *Document) Detach() {
	d.ParentDocumentKey = nil
	d.ParentRevisionID = nil
	d.ParentRevisionAt = nil
}
