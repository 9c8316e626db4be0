package paste

import (
	"strings"
	"unicode"

	"github.com/PuerkitoBio/goquery"

	"pastedown/internal/config"
)

// Untitled is shown for revisions whose title cannot be extracted
const Untitled = "(Untitled)"

const ellipsis = "…"

// ExtractTitle derives a display title from rendered HTML: the text of the
// first <h1>, or else the first sentence of the whole text. The result is
// cut to config.TitleMaxLength runes, ellipsis included. ok is false when
// nothing usable was found.
func ExtractTitle(html string) (title string, ok bool) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return "", false
	}

	if h1 := doc.Find("h1").First(); h1.Length() > 0 {
		title = collapseSpace(h1.Text())
	}
	if title == "" {
		title = firstSentence(collapseSpace(doc.Text()))
	}

	title = truncate(title, config.TitleMaxLength)
	return title, title != ""
}

// TitleOrUntitled is ExtractTitle with the Untitled fallback
func TitleOrUntitled(html string) string {
	if title, ok := ExtractTitle(html); ok {
		return title
	}
	return Untitled
}

func collapseSpace(s string) string {
	return strings.Join(strings.Fields(s), " ")
}

// firstSentence returns s up to and including the first "?" or the first
// "." not directly followed by an uppercase letter.
func firstSentence(s string) string {
	runes := []rune(s)
	for i, r := range runes {
		switch r {
		case '?':
			return string(runes[:i+1])
		case '.':
			if i+1 < len(runes) && unicode.IsUpper(runes[i+1]) {
				continue
			}
			return string(runes[:i+1])
		}
	}
	return s
}

func truncate(s string, max int) string {
	runes := []rune(s)
	if len(runes) <= max {
		return s
	}
	return string(runes[:max-1]) + ellipsis
}
