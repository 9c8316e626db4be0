package sqlite

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"
	"time"

	"pastedown/internal/domain"
	models "pastedown/internal/domain/models/paste"
	pasteRepo "pastedown/internal/domain/repositories/paste"
)

func setupTestDB(t *testing.T) *DB {
	t.Helper()
	db, err := OpenMemory()
	if err != nil {
		t.Fatalf("Failed to open test database: %v", err)
	}
	t.Cleanup(func() { _ = db.Close() })

	if err := db.Migrate(context.Background()); err != nil {
		t.Fatalf("Failed to migrate: %v", err)
	}
	return db
}

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func strPtr(s string) *string { return &s }

var base = time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)

func TestDocumentRepository_CreateAndGet(t *testing.T) {
	db := setupTestDB(t)
	repo := NewDocumentRepository(db, testLogger())
	ctx := context.Background()

	parentAt := base.Add(time.Microsecond)
	doc := &models.Document{
		Key:               "alice/notes",
		AuthorName:        strPtr("alice"),
		CreatedAt:         base,
		UpdatedAt:         base,
		ParentDocumentKey: strPtr("root"),
		ParentRevisionID:  strPtr("rev-1"),
		ParentRevisionAt:  &parentAt,
	}
	if err := repo.Create(ctx, doc); err != nil {
		t.Fatalf("Create() error = %v", err)
	}

	got, err := repo.GetByKey(ctx, "alice/notes")
	if err != nil {
		t.Fatalf("GetByKey() error = %v", err)
	}
	if *got.AuthorName != "alice" || !got.CreatedAt.Equal(base) || !got.ParentRevisionAt.Equal(parentAt) {
		t.Errorf("GetByKey() = %+v", got)
	}

	err = repo.Create(ctx, doc)
	var conflict *domain.ConflictError
	if !errors.As(err, &conflict) || conflict.ResourceID != "alice/notes" {
		t.Errorf("duplicate Create() error = %v, want ConflictError", err)
	}

	if _, err := repo.GetByKey(ctx, "missing"); !errors.Is(err, domain.ErrNotFound) {
		t.Errorf("GetByKey(missing) error = %v, want ErrNotFound", err)
	}
}

func TestDocumentRepository_AdvanceUpdatedAt(t *testing.T) {
	db := setupTestDB(t)
	repo := NewDocumentRepository(db, testLogger())
	ctx := context.Background()

	if err := repo.Create(ctx, &models.Document{Key: "k", CreatedAt: base, UpdatedAt: base}); err != nil {
		t.Fatalf("Create() error = %v", err)
	}

	tests := []struct {
		name      string
		candidate time.Time
		want      time.Time
	}{
		{"later candidate wins", base.Add(time.Second), base.Add(time.Second)},
		{"same instant bumps", base.Add(time.Second), base.Add(time.Second + time.Microsecond)},
		{"earlier candidate bumps", base, base.Add(time.Second + 2*time.Microsecond)},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := repo.AdvanceUpdatedAt(ctx, "k", tt.candidate)
			if err != nil {
				t.Fatalf("AdvanceUpdatedAt() error = %v", err)
			}
			if !got.Equal(tt.want) {
				t.Errorf("AdvanceUpdatedAt() = %v, want %v", got, tt.want)
			}
		})
	}

	if _, err := repo.AdvanceUpdatedAt(ctx, "missing", base); !errors.Is(err, domain.ErrNotFound) {
		t.Errorf("AdvanceUpdatedAt(missing) error = %v, want ErrNotFound", err)
	}
}

func TestDocumentRepository_UpdateLeavesUpdatedAt(t *testing.T) {
	db := setupTestDB(t)
	repo := NewDocumentRepository(db, testLogger())
	ctx := context.Background()

	parentAt := base
	if err := repo.Create(ctx, &models.Document{
		Key:               "k",
		CreatedAt:         base,
		UpdatedAt:         base,
		ParentDocumentKey: strPtr("root"),
		ParentRevisionID:  strPtr("rev-1"),
		ParentRevisionAt:  &parentAt,
	}); err != nil {
		t.Fatalf("Create() error = %v", err)
	}
	advanced, err := repo.AdvanceUpdatedAt(ctx, "k", base.Add(time.Hour))
	if err != nil {
		t.Fatalf("AdvanceUpdatedAt() error = %v", err)
	}

	// a handle loaded before the advance
	stale := &models.Document{Key: "k", AuthorName: strPtr("bob"), CreatedAt: base, UpdatedAt: base}
	if err := repo.Update(ctx, stale); err != nil {
		t.Fatalf("Update() error = %v", err)
	}

	got, err := repo.GetByKey(ctx, "k")
	if err != nil {
		t.Fatalf("GetByKey() error = %v", err)
	}
	if !got.UpdatedAt.Equal(advanced) {
		t.Errorf("updated_at = %v after Update, want %v", got.UpdatedAt, advanced)
	}
	if got.AuthorName == nil || *got.AuthorName != "bob" || got.IsFork() {
		t.Errorf("Update() did not persist author and pointers: %+v", got)
	}

	if err := repo.Update(ctx, &models.Document{Key: "missing"}); !errors.Is(err, domain.ErrNotFound) {
		t.Errorf("Update(missing) error = %v, want ErrNotFound", err)
	}
}

func TestRevisionRepository_ListAndCount(t *testing.T) {
	db := setupTestDB(t)
	docs := NewDocumentRepository(db, testLogger())
	revs := NewRevisionRepository(db, testLogger())
	ctx := context.Background()

	if err := docs.Create(ctx, &models.Document{Key: "k", CreatedAt: base, UpdatedAt: base}); err != nil {
		t.Fatalf("Create() error = %v", err)
	}
	for i := 0; i < 5; i++ {
		rev := &models.Revision{
			ID:          string(rune('a' + i)),
			DocumentKey: "k",
			Body:        "body",
			CreatedAt:   base.Add(time.Duration(i) * time.Microsecond),
		}
		if err := revs.Create(ctx, rev); err != nil {
			t.Fatalf("Create revision %d error = %v", i, err)
		}
	}

	until := base.Add(2 * time.Microsecond)
	tests := []struct {
		name      string
		query     pasteRepo.RevisionQuery
		wantIDs   string
		wantCount int
	}{
		{"all", pasteRepo.RevisionQuery{DocumentKey: "k", Limit: pasteRepo.NoLimit}, "edcba", 5},
		{"limit", pasteRepo.RevisionQuery{DocumentKey: "k", Limit: 2}, "ed", 2},
		{"offset", pasteRepo.RevisionQuery{DocumentKey: "k", Offset: 3, Limit: pasteRepo.NoLimit}, "ba", 5},
		{"until", pasteRepo.RevisionQuery{DocumentKey: "k", Until: &until, Limit: pasteRepo.NoLimit}, "cba", 3},
		{"zero limit", pasteRepo.RevisionQuery{DocumentKey: "k", Limit: 0}, "", 0},
		{"other document", pasteRepo.RevisionQuery{DocumentKey: "x", Limit: pasteRepo.NoLimit}, "", 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			list, err := revs.List(ctx, tt.query)
			if err != nil {
				t.Fatalf("List() error = %v", err)
			}
			ids := ""
			for _, rev := range list {
				ids += rev.ID
			}
			if ids != tt.wantIDs {
				t.Errorf("List() ids = %q, want %q", ids, tt.wantIDs)
			}

			n, err := revs.Count(ctx, tt.query)
			if err != nil {
				t.Fatalf("Count() error = %v", err)
			}
			if n != tt.wantCount {
				t.Errorf("Count() = %d, want %d", n, tt.wantCount)
			}
		})
	}

	got, err := revs.GetAt(ctx, "k", base.Add(3*time.Microsecond), &until)
	if !errors.Is(err, domain.ErrNotFound) {
		t.Errorf("GetAt() beyond bound = %v, %v; want ErrNotFound", got, err)
	}
	got, err = revs.GetAt(ctx, "k", base.Add(3*time.Microsecond), nil)
	if err != nil || got.ID != "d" {
		t.Errorf("GetAt() = %v, %v; want revision d", got, err)
	}
}

func TestDocumentRepository_DeleteCascades(t *testing.T) {
	db := setupTestDB(t)
	docs := NewDocumentRepository(db, testLogger())
	revs := NewRevisionRepository(db, testLogger())
	ctx := context.Background()

	if err := docs.Create(ctx, &models.Document{Key: "k", CreatedAt: base, UpdatedAt: base}); err != nil {
		t.Fatalf("Create() error = %v", err)
	}
	if err := revs.Create(ctx, &models.Revision{ID: "r", DocumentKey: "k", Body: "x", CreatedAt: base}); err != nil {
		t.Fatalf("Create revision error = %v", err)
	}

	if err := docs.Delete(ctx, "k"); err != nil {
		t.Fatalf("Delete() error = %v", err)
	}
	if _, err := revs.GetByID(ctx, "r"); !errors.Is(err, domain.ErrNotFound) {
		t.Errorf("revision survived its document: %v", err)
	}
	if err := revs.Create(ctx, &models.Revision{ID: "s", DocumentKey: "k", Body: "x", CreatedAt: base}); !errors.Is(err, domain.ErrNotFound) {
		t.Errorf("Create revision for deleted document error = %v, want ErrNotFound", err)
	}
}

func TestTransactionManager_RollbackAndReentry(t *testing.T) {
	db := setupTestDB(t)
	docs := NewDocumentRepository(db, testLogger())
	tm := NewTransactionManager(db, testLogger())
	ctx := context.Background()
	boom := errors.New("boom")

	err := tm.ExecTx(ctx, func(txCtx context.Context) error {
		if err := docs.Create(txCtx, &models.Document{Key: "a", CreatedAt: base, UpdatedAt: base}); err != nil {
			return err
		}
		return tm.ExecTx(txCtx, func(inner context.Context) error {
			if err := docs.Create(inner, &models.Document{Key: "b", CreatedAt: base, UpdatedAt: base}); err != nil {
				return err
			}
			return boom
		})
	})
	if !errors.Is(err, boom) {
		t.Fatalf("ExecTx() error = %v, want boom", err)
	}

	for _, key := range []string{"a", "b"} {
		exists, err := docs.Exists(ctx, key)
		if err != nil {
			t.Fatalf("Exists() error = %v", err)
		}
		if exists {
			t.Errorf("document %s survived rollback", key)
		}
	}
}
