package paste

import "strings"

// Person is an identity known to the identity directory. Persons own
// documents; the directory is the only source of them.
type Person struct {
	Name        string `json:"name" yaml:"name"`
	DisplayName string `json:"display_name,omitempty" yaml:"display_name,omitempty"`
}

// NormalizedName returns the comparable form of the person's name
func (p *Person) NormalizedName() string {
	return NormalizeName(p.Name)
}

// Is reports whether both persons denote the same identity
func (p *Person) Is(other *Person) bool {
	if p == nil || other == nil {
		return false
	}
	return p.NormalizedName() == other.NormalizedName()
}

// URL returns the public path of the person's document listing
func (p *Person) URL() string {
	return "/" + p.Name + "/"
}

// NormalizeName case-folds and trims a person name for comparison.
func NormalizeName(name string) string {
	return strings.ToLower(strings.TrimSpace(name))
}
