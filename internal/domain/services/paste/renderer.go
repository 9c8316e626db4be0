package paste

// Renderer converts markdown text to HTML.
// Rendering must be deterministic: the same text always yields the same HTML.
type Renderer interface {
	Render(markdown string) (string, error)
}
