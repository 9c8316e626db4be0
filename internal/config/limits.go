package config

const (
	// MaxBodyLength is the maximum size of a revision body in bytes.
	MaxBodyLength = 1 << 20

	// MaxIDLength is the maximum length of a user-chosen document id.
	MaxIDLength = 64

	// DefaultPageSize is the history page size when none is requested.
	DefaultPageSize = 20

	// MaxPageSize caps history pages.
	MaxPageSize = 100

	// TitleMaxLength is the display length of extracted titles, ellipsis included.
	TitleMaxLength = 30

	// MinKeyLength and MaxKeyLength bound the generated id probe lengths.
	MinKeyLength = 6
	MaxKeyLength = 32

	// MaxSlugLength caps the title slug used as a key prefix.
	MaxSlugLength = 40
)
