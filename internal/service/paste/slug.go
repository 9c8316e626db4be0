package paste

import (
	"regexp"
	"strings"

	"pastedown/internal/config"
)

var nonWord = regexp.MustCompile(`\W+`)

// Slugify lower-cases s, collapses every run of non-word characters into a
// single hyphen and strips hyphens from both ends.
func Slugify(s string) string {
	slug := strings.Trim(nonWord.ReplaceAllString(strings.ToLower(s), "-"), "-")
	if len(slug) > config.MaxSlugLength {
		slug = strings.TrimRight(slug[:config.MaxSlugLength], "-")
	}
	return slug
}

// SlugGenerator returns an IDGenerator that yields the slug alone for the
// empty fragment and "<slug>-<fragment>" otherwise. nil for an empty slug.
func SlugGenerator(slug string) IDGenerator {
	if slug == "" {
		return nil
	}
	return func(fragment string) string {
		if fragment == "" {
			return slug
		}
		return slug + "-" + fragment
	}
}
