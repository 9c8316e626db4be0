package paste

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"sync"
	"testing"
	"time"

	"pastedown/internal/domain"
	models "pastedown/internal/domain/models/paste"
	pasteRepo "pastedown/internal/domain/repositories/paste"
	"pastedown/internal/repository/sqlite"
	"pastedown/internal/service/render"
)

var base = time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)

// stepClock returns t and then moves it forward by step
type stepClock struct {
	mu   sync.Mutex
	t    time.Time
	step time.Duration
}

func (c *stepClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	t := c.t
	c.t = c.t.Add(c.step)
	return t
}

type testEnv struct {
	svc  *Service
	db   *sqlite.DB
	docs pasteRepo.DocumentRepository
	revs pasteRepo.RevisionRepository
}

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func openTestDB(t *testing.T) *sqlite.DB {
	t.Helper()
	db, err := sqlite.OpenMemory()
	if err != nil {
		t.Fatalf("Failed to open test database: %v", err)
	}
	t.Cleanup(func() { _ = db.Close() })
	if err := db.Migrate(context.Background()); err != nil {
		t.Fatalf("Failed to migrate: %v", err)
	}
	return db
}

// newTestEnv builds a service on an in-memory database. The clock moves
// one second per reading unless step says otherwise.
func newTestEnv(t *testing.T, step time.Duration) *testEnv {
	t.Helper()
	db := openTestDB(t)
	logger := testLogger()
	docs := sqlite.NewDocumentRepository(db, logger)
	revs := sqlite.NewRevisionRepository(db, logger)
	clock := &stepClock{t: base, step: step}

	svc := NewService(docs, revs, sqlite.NewTransactionManager(db, logger), render.NewMarkdownRenderer(), logger,
		WithClock(clock.Now))
	return &testEnv{svc: svc, db: db, docs: docs, revs: revs}
}

func strPtr(s string) *string { return &s }

// post creates and saves a document
func (e *testEnv) post(t *testing.T, author *models.Person, body string) *Document {
	t.Helper()
	doc, err := e.svc.Create(context.Background(), CreateParams{Author: author, Body: &body})
	if err != nil {
		t.Fatalf("Create() error = %v", err)
	}
	if _, err := doc.Put(context.Background()); err != nil {
		t.Fatalf("Put() error = %v", err)
	}
	return doc
}

func (e *testEnv) reload(t *testing.T, doc *Document) *Document {
	t.Helper()
	got, err := e.svc.Get(context.Background(), doc.Key())
	if err != nil {
		t.Fatalf("Get(%s) error = %v", doc.Key(), err)
	}
	return got
}

func mustBody(t *testing.T, doc *Document) string {
	t.Helper()
	body, ok, err := doc.Body(context.Background())
	if err != nil {
		t.Fatalf("Body() error = %v", err)
	}
	if !ok {
		t.Fatalf("Body() of %s: no revision", doc.Key())
	}
	return body
}

func TestService_CreateValidation(t *testing.T) {
	env := newTestEnv(t, time.Second)
	ctx := context.Background()
	huge := string(make([]byte, 1<<20+1))

	tests := []struct {
		name   string
		params CreateParams
	}{
		{"body too long", CreateParams{Body: &huge}},
		{"empty id", CreateParams{ID: strPtr("")}},
		{"id with slash", CreateParams{ID: strPtr("a/b")}},
		{"author without name", CreateParams{Author: &models.Person{}}},
		{"unsaved parent", CreateParams{ParentDocument: &Document{svc: env.svc}}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := env.svc.Create(ctx, tt.params)
			if !errors.Is(err, domain.ErrValidation) {
				t.Errorf("Create() error = %v, want ErrValidation", err)
			}
		})
	}
}

func TestService_CreateLiteralID(t *testing.T) {
	env := newTestEnv(t, time.Second)
	ctx := context.Background()
	alice := &models.Person{Name: "alice"}

	doc, err := env.svc.Create(ctx, CreateParams{Author: alice, Body: strPtr("x"), ID: strPtr("todo")})
	if err != nil {
		t.Fatalf("Create() error = %v", err)
	}
	key, err := doc.Put(ctx)
	if err != nil {
		t.Fatalf("Put() error = %v", err)
	}
	if key != "alice/todo" {
		t.Errorf("Put() key = %q, want alice/todo", key)
	}

	again, err := env.svc.Create(ctx, CreateParams{Author: alice, Body: strPtr("y"), ID: strPtr("todo")})
	if err != nil {
		t.Fatalf("Create() error = %v", err)
	}
	if _, err := again.Put(ctx); !errors.Is(err, domain.ErrConflict) {
		t.Errorf("Put() of taken literal key error = %v, want ErrConflict", err)
	}

	found, err := env.svc.Find(ctx, alice, "todo")
	if err != nil {
		t.Fatalf("Find() error = %v", err)
	}
	if mustBody(t, found) != "x" {
		t.Errorf("Find() body = %q, want x", mustBody(t, found))
	}
	if _, err := env.svc.Find(ctx, nil, "todo"); !errors.Is(err, domain.ErrNotFound) {
		t.Errorf("Find(anonymous) error = %v, want ErrNotFound", err)
	}
}

func TestService_CreateSlugKey(t *testing.T) {
	env := newTestEnv(t, time.Second)
	alice := &models.Person{Name: "alice"}

	first := env.post(t, alice, "# Shopping List!\n\n- milk")
	if first.Key() != "alice/shopping-list" {
		t.Errorf("first key = %q, want alice/shopping-list", first.Key())
	}

	second := env.post(t, alice, "# Shopping list")
	if second.Key() == first.Key() || second.Key()[:len("alice/shopping-list-")] != "alice/shopping-list-" {
		t.Errorf("second key = %q, want alice/shopping-list-<hash>", second.Key())
	}

	anon := env.post(t, nil, "no heading here")
	if anon.Key() != "no-heading-here" {
		t.Errorf("anonymous key = %q, want no-heading-here", anon.Key())
	}
}

func TestService_GetByAuthor(t *testing.T) {
	env := newTestEnv(t, time.Second)
	ctx := context.Background()
	alice := &models.Person{Name: "alice"}

	older := env.post(t, alice, "one")
	newer := env.post(t, alice, "two")
	env.post(t, &models.Person{Name: "bob"}, "three")
	env.post(t, nil, "four")

	docs, err := env.svc.GetByAuthor(ctx, &models.Person{Name: "Alice"})
	if err != nil {
		t.Fatalf("GetByAuthor() error = %v", err)
	}
	if len(docs) != 2 || docs[0].Key() != newer.Key() || docs[1].Key() != older.Key() {
		t.Fatalf("GetByAuthor() = %v, want [%s %s]", keys(docs), newer.Key(), older.Key())
	}

	if _, err := older.AppendRevision(ctx, "one, edited"); err != nil {
		t.Fatalf("AppendRevision() error = %v", err)
	}
	docs, err = env.svc.GetByAuthor(ctx, alice)
	if err != nil {
		t.Fatalf("GetByAuthor() error = %v", err)
	}
	if docs[0].Key() != older.Key() {
		t.Errorf("GetByAuthor() after edit = %v, want %s first", keys(docs), older.Key())
	}

	if _, err := env.svc.GetByAuthor(ctx, nil); !errors.Is(err, domain.ErrValidation) {
		t.Errorf("GetByAuthor(nil) error = %v, want ErrValidation", err)
	}
}

func keys(docs []*Document) []string {
	out := make([]string, len(docs))
	for i, d := range docs {
		out[i] = d.Key()
	}
	return out
}
