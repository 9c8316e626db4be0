// Package repository selects and opens a storage backend.
package repository

import (
	"context"
	"fmt"
	"log/slog"

	"pastedown/internal/config"
	"pastedown/internal/domain/repositories"
	pasteRepo "pastedown/internal/domain/repositories/paste"
	"pastedown/internal/repository/postgres"
	postgresPaste "pastedown/internal/repository/postgres/paste"
	"pastedown/internal/repository/sqlite"
)

// Storage bundles the repositories of one backend
type Storage struct {
	Documents    pasteRepo.DocumentRepository
	Revisions    pasteRepo.RevisionRepository
	Transactions repositories.TransactionManager

	migrate func(context.Context) error
	drop    func(context.Context) error
	close   func()
}

// Open connects to the backend named by cfg.StorageDriver
func Open(ctx context.Context, cfg *config.Config, logger *slog.Logger) (*Storage, error) {
	switch cfg.StorageDriver {
	case "sqlite":
		db, err := sqlite.Open(cfg.SQLitePath, cfg.TablePrefix)
		if err != nil {
			return nil, err
		}
		logger.Info("database opened", "driver", "sqlite", "path", cfg.SQLitePath)
		return &Storage{
			Documents:    sqlite.NewDocumentRepository(db, logger),
			Revisions:    sqlite.NewRevisionRepository(db, logger),
			Transactions: sqlite.NewTransactionManager(db, logger),
			migrate:      db.Migrate,
			drop:         db.DropSchema,
			close:        func() { _ = db.Close() },
		}, nil

	case "postgres":
		if cfg.DatabaseURL == "" {
			return nil, fmt.Errorf("DATABASE_URL is required for the postgres driver")
		}
		pool, err := postgres.CreateConnectionPool(ctx, cfg.DatabaseURL)
		if err != nil {
			return nil, err
		}
		logger.Info("database connected", "driver", "postgres", "max_conns", 25, "min_conns", 2)

		tables := postgres.NewTableNames(cfg.TablePrefix)
		repoConfig := &postgres.RepositoryConfig{
			Pool:   pool,
			Tables: tables,
			Logger: logger,
		}
		return &Storage{
			Documents:    postgresPaste.NewDocumentRepository(repoConfig),
			Revisions:    postgresPaste.NewRevisionRepository(repoConfig),
			Transactions: postgres.NewTransactionManager(pool, logger),
			migrate: func(ctx context.Context) error {
				return postgres.Migrate(ctx, pool, tables)
			},
			drop: func(ctx context.Context) error {
				return postgres.DropSchema(ctx, pool, tables)
			},
			close: pool.Close,
		}, nil

	default:
		return nil, fmt.Errorf("unknown storage driver %q", cfg.StorageDriver)
	}
}

// Migrate creates missing tables
func (s *Storage) Migrate(ctx context.Context) error {
	return s.migrate(ctx)
}

// DropSchema removes all tables of the configured prefix
func (s *Storage) DropSchema(ctx context.Context) error {
	return s.drop(ctx)
}

// Close releases the connection(s)
func (s *Storage) Close() {
	s.close()
}
