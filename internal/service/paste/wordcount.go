package paste

import (
	"strings"

	"github.com/PuerkitoBio/goquery"
)

// CountWords counts whitespace-separated words in the text of rendered
// HTML. Code blocks are skipped.
func CountWords(html string) int {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return 0
	}
	doc.Find("pre").Remove()
	return len(strings.Fields(doc.Text()))
}
