package render

import (
	"bytes"
	"fmt"

	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/extension"

	pasteSvc "pastedown/internal/domain/services/paste"
	"pastedown/internal/service/converter/sanitizer"
)

// markdownRenderer renders paste bodies with goldmark.
// Raw HTML in the source is dropped by goldmark's default renderer and the
// output goes through the UGC sanitizer, so rendered pages are safe to embed.
type markdownRenderer struct {
	md        goldmark.Markdown
	sanitizer *sanitizer.HTMLSanitizer
}

// NewMarkdownRenderer creates the renderer used for document and revision HTML.
// Footnotes, tables and strikethrough are enabled on top of CommonMark.
func NewMarkdownRenderer() pasteSvc.Renderer {
	return &markdownRenderer{
		md: goldmark.New(
			goldmark.WithExtensions(
				extension.Footnote,
				extension.Table,
				extension.Strikethrough,
			),
		),
		sanitizer: sanitizer.NewHTMLSanitizer(),
	}
}

// Render converts markdown to sanitized HTML
func (r *markdownRenderer) Render(markdown string) (string, error) {
	var buf bytes.Buffer
	if err := r.md.Convert([]byte(markdown), &buf); err != nil {
		return "", fmt.Errorf("render markdown: %w", err)
	}
	return r.sanitizer.Sanitize(buf.String()), nil
}
