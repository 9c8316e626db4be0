package converter

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"pastedown/internal/domain"
	pasteSvc "pastedown/internal/domain/services/paste"
)

// DefaultFormat is used when a submission names no format
const DefaultFormat = "markdown"

// Registry manages content converters and routes submissions by format.
//
// Thread-safe for concurrent access.
type Registry struct {
	mu         sync.RWMutex
	converters map[string]pasteSvc.ContentConverter // key: format name (e.g. "html")
}

// NewRegistry creates a registry with the standard converters pre-registered.
func NewRegistry() *Registry {
	registry := &Registry{
		converters: make(map[string]pasteSvc.ContentConverter),
	}

	registry.Register(NewMarkdownConverter())
	registry.Register(NewTextConverter())
	registry.Register(NewHTMLConverter())

	return registry
}

// Register adds a converter under each of its formats
func (r *Registry) Register(converter pasteSvc.ContentConverter) {
	r.mu.Lock()
	defer r.mu.Unlock()

	for _, format := range converter.Formats() {
		r.converters[strings.ToLower(format)] = converter
	}
}

// Get retrieves the converter for a format, or nil.
// Lookup is case-insensitive.
func (r *Registry) Get(format string) pasteSvc.ContentConverter {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.converters[strings.ToLower(format)]
}

// Convert selects the converter for format (DefaultFormat when empty) and
// converts content to markdown.
func (r *Registry) Convert(ctx context.Context, format string, content []byte) (string, error) {
	if format == "" {
		format = DefaultFormat
	}

	converter := r.Get(format)
	if converter == nil {
		return "", fmt.Errorf("%w: unsupported format: %s", domain.ErrValidation, format)
	}

	return converter.Convert(ctx, content)
}

// Formats returns all registered format names.
func (r *Registry) Formats() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	formats := make([]string, 0, len(r.converters))
	for format := range r.converters {
		formats = append(formats, format)
	}
	return formats
}
