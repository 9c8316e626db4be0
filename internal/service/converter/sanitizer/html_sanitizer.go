package sanitizer

import (
	"regexp"

	"github.com/microcosm-cc/bluemonday"
)

// HTMLSanitizer removes dangerous HTML elements and attributes.
//
// Thread-safe for concurrent use.
type HTMLSanitizer struct {
	policy *bluemonday.Policy
}

var footnoteClass = regexp.MustCompile(`^footnote(s|-ref|-backref)?$`)

// NewHTMLSanitizer creates a sanitizer for user generated content.
// Scripts, event handlers and javascript: URLs are stripped; formatting,
// headings, lists, links, tables, code and footnote markup survive.
func NewHTMLSanitizer() *HTMLSanitizer {
	policy := bluemonday.UGCPolicy()
	policy.AllowAttrs("class").Matching(footnoteClass).OnElements("a", "div", "sup")
	return &HTMLSanitizer{policy: policy}
}

// Sanitize removes dangerous HTML while preserving safe content.
func (s *HTMLSanitizer) Sanitize(html string) string {
	return s.policy.Sanitize(html)
}
