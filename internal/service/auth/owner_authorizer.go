package auth

import (
	"fmt"

	"pastedown/internal/domain"
	models "pastedown/internal/domain/models/paste"
	pasteSvc "pastedown/internal/domain/services/paste"
)

// OwnerAuthorizer implements DocumentAuthorizer using ownership: only the
// author of a document may append to it or delete it, and anonymous
// documents are frozen.
type OwnerAuthorizer struct{}

// NewOwnerAuthorizer creates a new ownership-based authorizer
func NewOwnerAuthorizer() *OwnerAuthorizer {
	return &OwnerAuthorizer{}
}

// CanModify checks that person owns doc
func (a *OwnerAuthorizer) CanModify(person *models.Person, doc pasteSvc.Owned) error {
	if person == nil {
		return fmt.Errorf("sign in to change %s: %w", doc.Key(), domain.ErrUnauthorized)
	}
	if !person.Is(doc.Author()) {
		return fmt.Errorf("access denied to %s: %w", doc.Key(), domain.ErrForbidden)
	}
	return nil
}
