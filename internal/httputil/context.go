package httputil

import (
	"context"
	"net/http"

	models "pastedown/internal/domain/models/paste"
)

// Context key type to avoid collisions
type contextKey string

const (
	personKey contextKey = "person"
)

// WithPerson adds the authenticated person to the request context
func WithPerson(r *http.Request, person *models.Person) *http.Request {
	ctx := context.WithValue(r.Context(), personKey, person)
	return r.WithContext(ctx)
}

// GetPerson retrieves the authenticated person, nil for anonymous requests
func GetPerson(r *http.Request) *models.Person {
	person, _ := r.Context().Value(personKey).(*models.Person)
	return person
}
