package paste

import (
	"strings"
	"testing"
)

func TestSlugify(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"Hello World", "hello-world"},
		{"  Shopping List!  ", "shopping-list"},
		{"a -- b", "a-b"},
		{"snake_case stays", "snake_case-stays"},
		{"!!!", ""},
		{"", ""},
		{strings.Repeat("word ", 20), "word-word-word-word-word-word-word-word"},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			if got := Slugify(tt.in); got != tt.want {
				t.Errorf("Slugify(%q) = %q, want %q", tt.in, got, tt.want)
			}
		})
	}
}

func TestSlugGenerator(t *testing.T) {
	if SlugGenerator("") != nil {
		t.Errorf("SlugGenerator(\"\") should be nil")
	}
	gen := SlugGenerator("notes")
	if got := gen(""); got != "notes" {
		t.Errorf("gen(\"\") = %q, want notes", got)
	}
	if got := gen("abc123"); got != "notes-abc123" {
		t.Errorf("gen(abc123) = %q, want notes-abc123", got)
	}
}
