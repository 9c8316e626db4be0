package paste

import models "pastedown/internal/domain/models/paste"

// Owned is anything with an owner; nil owner means anonymous
type Owned interface {
	Key() string
	Author() *models.Person
}

// DocumentAuthorizer decides who may change a document.
// Reading is open to everyone and never checked.
type DocumentAuthorizer interface {
	// CanModify returns nil, domain.ErrUnauthorized for anonymous callers,
	// or domain.ErrForbidden for callers without rights
	CanModify(person *models.Person, doc Owned) error
}
