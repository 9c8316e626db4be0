package paste

import (
	"context"
	"time"

	models "pastedown/internal/domain/models/paste"
)

// IdentityDirectory maps names to persons.
type IdentityDirectory interface {
	// Find resolves a name. Returns domain.ErrNotFound for unknown names and
	// domain.ErrValidation when the name denotes something other than a person.
	Find(ctx context.Context, name string) (*models.Person, error)
}

// TicketIssuer issues login tickets for persons.
type TicketIssuer interface {
	IssueTicket(person *models.Person, ttl time.Duration) (string, error)
}

// TicketVerifier validates a login ticket and returns the subject name.
// Returns domain.ErrUnauthorized for any invalid ticket.
type TicketVerifier interface {
	VerifyTicket(ticket string) (string, error)

	// Close releases any resources held by the verifier
	Close() error
}
