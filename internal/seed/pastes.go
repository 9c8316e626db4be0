// Package seed fills a database with sample documents, revisions and forks.
package seed

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	loremgen "github.com/bozaro/golorem"

	models "pastedown/internal/domain/models/paste"
	"pastedown/internal/service/paste"
)

// Options controls how much is seeded
type Options struct {
	Authors   []*models.Person // nil entries seed anonymous documents
	Documents int              // documents per author
	Revisions int              // extra revisions per owned document
	Forks     int              // forks of each author's first document
}

// PasteSeeder writes lorem ipsum pastes through the paste service, so seeded
// data obeys the same rules as user data
type PasteSeeder struct {
	pastes    *paste.Service
	generator *loremgen.Lorem
	logger    *slog.Logger
}

// NewPasteSeeder creates a new paste seeder
func NewPasteSeeder(pastes *paste.Service, logger *slog.Logger) *PasteSeeder {
	return &PasteSeeder{
		pastes:    pastes,
		generator: loremgen.New(),
		logger:    logger,
	}
}

// Seed creates the documents and returns their keys in creation order
func (s *PasteSeeder) Seed(ctx context.Context, opts Options) ([]string, error) {
	var keys []string

	for _, author := range opts.Authors {
		var first *paste.Document
		for i := 0; i < opts.Documents; i++ {
			body := s.body()
			doc, err := s.pastes.Create(ctx, paste.CreateParams{Author: author, Body: &body})
			if err != nil {
				return keys, err
			}
			key, err := doc.Put(ctx)
			if err != nil {
				return keys, fmt.Errorf("save document: %w", err)
			}
			keys = append(keys, key)
			if first == nil {
				first = doc
			}

			if !doc.IsModifiable(author) {
				continue
			}
			for j := 0; j < opts.Revisions; j++ {
				if _, err := doc.AppendRevision(ctx, s.body()); err != nil {
					return keys, fmt.Errorf("append revision to %s: %w", key, err)
				}
			}
		}

		if first == nil {
			continue
		}
		for i := 0; i < opts.Forks; i++ {
			forker := opts.Authors[(i+1)%len(opts.Authors)]
			fork, err := first.Fork(ctx, forker, nil)
			if err != nil {
				return keys, err
			}
			key, err := fork.Put(ctx)
			if err != nil {
				return keys, fmt.Errorf("save fork of %s: %w", first.Key(), err)
			}
			keys = append(keys, key)
		}
	}

	s.logger.Info("seeding complete", "documents", len(keys))
	return keys, nil
}

// body is a markdown page: a heading and a few paragraphs
func (s *PasteSeeder) body() string {
	var b strings.Builder
	b.WriteString("# ")
	b.WriteString(strings.TrimSuffix(s.generator.Sentence(3, 7), "."))
	b.WriteString("\n\n")
	for i := 0; i < 3; i++ {
		b.WriteString(s.generator.Paragraph(2, 4))
		b.WriteString("\n\n")
	}
	return b.String()
}
