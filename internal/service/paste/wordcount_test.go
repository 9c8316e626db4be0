package paste

import "testing"

func TestCountWords(t *testing.T) {
	tests := []struct {
		name string
		html string
		want int
	}{
		{"empty", "", 0},
		{"paragraph", "<p>one two  three</p>", 3},
		{"inline markup", "<h1>A <em>bold</em> move</h1>\n<ul>\n<li>x</li>\n<li>y</li>\n</ul>\n", 5},
		{"code block skipped", "<p>run this</p>\n<pre><code>go test ./...\n</code></pre>", 2},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := CountWords(tt.html); got != tt.want {
				t.Errorf("CountWords(%q) = %d, want %d", tt.html, got, tt.want)
			}
		})
	}
}
