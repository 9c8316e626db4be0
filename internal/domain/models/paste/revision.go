package paste

import "time"

// Revision is an immutable snapshot of a document body.
//
// DocumentKey is the home document, which owns the record. OriginKey and
// OriginAuthor are only set on a revision copied from an ancestor when a
// fork was detached from it; they keep the provenance of the text.
type Revision struct {
	ID           string    `json:"id" db:"id"`
	DocumentKey  string    `json:"document" db:"document_key"`
	OriginKey    *string   `json:"origin,omitempty" db:"origin_key"`
	OriginAuthor *string   `json:"origin_author,omitempty" db:"origin_author"`
	Body         string    `json:"body" db:"body"`
	CreatedAt    time.Time `json:"created_at" db:"created_at"`
}

// TimestampPrecision is the resolution revision timestamps are stored at.
// It matches the microsecond field of revision locators.
const TimestampPrecision = time.Microsecond

// NormalizeTimestamp converts t to the stored representation of a
// revision timestamp: UTC, truncated to TimestampPrecision.
func NormalizeTimestamp(t time.Time) time.Time {
	return t.UTC().Truncate(TimestampPrecision)
}
