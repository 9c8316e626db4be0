package converter

import (
	"context"
	"strings"
	"testing"
)

func TestRegistry_Convert(t *testing.T) {
	tests := []struct {
		name     string
		format   string
		input    string
		contains string
		wantErr  bool
	}{
		{name: "default is markdown", format: "", input: "# Hi", contains: "# Hi"},
		{name: "text passthrough", format: "text", input: "plain words", contains: "plain words"},
		{name: "case insensitive", format: "MARKDOWN", input: "*x*", contains: "*x*"},
		{name: "html heading", format: "html", input: "<h1>Hello</h1><p>World</p>", contains: "# Hello"},
		{name: "html drops scripts", format: "html", input: "<p>ok</p><script>alert(1)</script>", contains: "ok"},
		{name: "unknown format", format: "docx", input: "x", wantErr: true},
	}

	registry := NewRegistry()
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := registry.Convert(context.Background(), tt.format, []byte(tt.input))
			if tt.wantErr {
				if err == nil {
					t.Fatal("expected error, got nil")
				}
				return
			}
			if err != nil {
				t.Fatalf("Convert: %v", err)
			}
			if !strings.Contains(got, tt.contains) {
				t.Errorf("Convert(%q, %q) = %q, want it to contain %q", tt.format, tt.input, got, tt.contains)
			}
			if strings.Contains(got, "alert") {
				t.Errorf("Convert(%q, %q) = %q, script content leaked", tt.format, tt.input, got)
			}
		})
	}
}

func TestRegistry_Formats(t *testing.T) {
	registry := NewRegistry()
	have := map[string]bool{}
	for _, f := range registry.Formats() {
		have[f] = true
	}
	for _, want := range []string{"markdown", "md", "text", "txt", "html", "htm"} {
		if !have[want] {
			t.Errorf("format %q not registered", want)
		}
	}
}
