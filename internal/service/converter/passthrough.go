package converter

import (
	"context"

	pasteSvc "pastedown/internal/domain/services/paste"
)

// markdownConverter is a passthrough: markdown is the storage format.
type markdownConverter struct{}

// NewMarkdownConverter creates a new markdown passthrough converter.
func NewMarkdownConverter() pasteSvc.ContentConverter {
	return &markdownConverter{}
}

func (c *markdownConverter) Convert(ctx context.Context, input []byte) (string, error) {
	return string(input), nil
}

func (c *markdownConverter) Formats() []string {
	return []string{"markdown", "md"}
}

func (c *markdownConverter) Name() string {
	return "markdown"
}

// textConverter keeps plain text as-is; it is valid markdown.
type textConverter struct{}

// NewTextConverter creates a new text converter.
func NewTextConverter() pasteSvc.ContentConverter {
	return &textConverter{}
}

func (c *textConverter) Convert(ctx context.Context, input []byte) (string, error) {
	return string(input), nil
}

func (c *textConverter) Formats() []string {
	return []string{"text", "txt"}
}

func (c *textConverter) Name() string {
	return "plaintext"
}
