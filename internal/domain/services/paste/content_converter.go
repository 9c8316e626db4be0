package paste

import "context"

// ContentConverter converts submitted paste content to markdown.
// Each converter handles one submission format (markdown, text, html)
// and produces the markdown that is stored as a revision body.
//
// Implementations should be stateless and thread-safe.
type ContentConverter interface {
	// Convert transforms input content to markdown.
	Convert(ctx context.Context, input []byte) (markdown string, err error)

	// Formats returns the format names this converter handles (e.g. "html").
	// Names are matched case-insensitively.
	Formats() []string

	// Name returns a human-readable converter name for logging/debugging.
	Name() string
}
