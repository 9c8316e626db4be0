package seed

import (
	"context"
	"io"
	"log/slog"
	"testing"

	models "pastedown/internal/domain/models/paste"
	"pastedown/internal/repository/sqlite"
	"pastedown/internal/service/paste"
	"pastedown/internal/service/render"
)

func TestPasteSeeder_Seed(t *testing.T) {
	ctx := context.Background()
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))

	db, err := sqlite.OpenMemory()
	if err != nil {
		t.Fatalf("Failed to open database: %v", err)
	}
	defer db.Close()
	if err := db.Migrate(ctx); err != nil {
		t.Fatalf("Failed to migrate: %v", err)
	}

	svc := paste.NewService(
		sqlite.NewDocumentRepository(db, logger),
		sqlite.NewRevisionRepository(db, logger),
		sqlite.NewTransactionManager(db, logger),
		render.NewMarkdownRenderer(),
		logger,
	)

	alice := &models.Person{Name: "alice"}
	keys, err := NewPasteSeeder(svc, logger).Seed(ctx, Options{
		Authors:   []*models.Person{alice, nil},
		Documents: 2,
		Revisions: 2,
		Forks:     1,
	})
	if err != nil {
		t.Fatalf("Seed() error = %v", err)
	}

	// 2 authors x (2 documents + 1 fork)
	if len(keys) != 6 {
		t.Fatalf("Seed() created %d documents, want 6: %v", len(keys), keys)
	}

	first, err := svc.Get(ctx, keys[0])
	if err != nil {
		t.Fatalf("Get(%q) error = %v", keys[0], err)
	}
	n, err := first.Revisions().Len(ctx)
	if err != nil {
		t.Fatalf("Len() error = %v", err)
	}
	if n != 3 {
		t.Errorf("owned document has %d revisions, want 3", n)
	}

	// alice's first document was forked by the anonymous author
	fork, err := svc.Get(ctx, keys[2])
	if err != nil {
		t.Fatalf("Get(%q) error = %v", keys[2], err)
	}
	if !fork.IsFork() {
		t.Fatalf("%s is not a fork", keys[2])
	}
	if got := *fork.Record().ParentDocumentKey; got != keys[0] {
		t.Errorf("fork parent = %q, want %q", got, keys[0])
	}
	forkBody, _, err := fork.Body(ctx)
	if err != nil {
		t.Fatalf("Body() error = %v", err)
	}
	firstBody, _, err := first.Body(ctx)
	if err != nil {
		t.Fatalf("Body() error = %v", err)
	}
	if forkBody != firstBody {
		t.Error("fork does not show its parent's current body")
	}
}
