package main

import (
	"context"
	"flag"
	"log"

	"pastedown/internal/config"
	models "pastedown/internal/domain/models/paste"
	"pastedown/internal/identity"
	"pastedown/internal/repository"
	"pastedown/internal/seed"
	"pastedown/internal/service/paste"
	"pastedown/internal/service/render"

	"github.com/joho/godotenv"
)

func main() {
	dropTables := flag.Bool("drop-tables", false, "Drop all tables before seeding (fresh start)")
	schemaOnly := flag.Bool("schema-only", false, "Only set up schema, don't seed documents")
	documents := flag.Int("documents", 3, "Documents per author")
	revisions := flag.Int("revisions", 2, "Extra revisions per owned document")
	forks := flag.Int("forks", 1, "Forks of each author's first document")
	flag.Parse()

	_ = godotenv.Load()

	cfg := config.Load()

	// SAFETY: Prevent destructive operations in production
	if cfg.Environment == "prod" && *dropTables {
		log.Fatalf("🚫 BLOCKED: Cannot run destructive operations (--drop-tables) in production environment")
	}

	logger, logCloser, err := config.NewLogger(cfg)
	if err != nil {
		log.Fatalf("Failed to set up logging: %v", err)
	}
	defer logCloser.Close()

	log.Printf("🌱 Seeding database (environment: %s, storage: %s, prefix: %s)", cfg.Environment, cfg.StorageDriver, cfg.TablePrefix)

	ctx := context.Background()
	storage, err := repository.Open(ctx, cfg, logger)
	if err != nil {
		log.Fatalf("Failed to open storage: %v", err)
	}
	defer storage.Close()

	if *dropTables {
		log.Println("🗑️  Dropping all tables...")
		if err := storage.DropSchema(ctx); err != nil {
			log.Fatalf("Failed to drop tables: %v", err)
		}
		log.Println("✅ Tables dropped")
	}

	log.Println("📋 Ensuring database schema is up to date...")
	if err := storage.Migrate(ctx); err != nil {
		log.Fatalf("Failed to run schema: %v", err)
	}
	log.Println("✅ Schema ready")

	if *schemaOnly {
		log.Println("✅ Schema setup complete (schema-only mode)")
		return
	}

	directory, err := identity.LoadDirectory(cfg.IdentityFile, logger)
	if err != nil {
		log.Fatalf("Failed to load identity directory: %v", err)
	}
	authors := []*models.Person{nil} // anonymous
	for _, name := range directory.People() {
		person, err := directory.Find(ctx, name)
		if err != nil {
			log.Fatalf("Failed to resolve %s: %v", name, err)
		}
		authors = append(authors, person)
	}

	pastes := paste.NewService(
		storage.Documents,
		storage.Revisions,
		storage.Transactions,
		render.NewMarkdownRenderer(),
		logger,
	)

	keys, err := seed.NewPasteSeeder(pastes, logger).Seed(ctx, seed.Options{
		Authors:   authors,
		Documents: *documents,
		Revisions: *revisions,
		Forks:     *forks,
	})
	if err != nil {
		log.Fatalf("❌ Seeding failed after %d documents: %v", len(keys), err)
	}

	for _, key := range keys {
		log.Printf("✅ %s", models.DocumentURL(key))
	}
	log.Println("🎉 Seeding complete!")
}
