package storage

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/meltforce/aceperf/internal/config"
)

// Open returns the backend selected by cfg.Storage.Backend. For PostgreSQL,
// pending migrations from migrationsPath are applied before connecting.
func Open(ctx context.Context, cfg *config.Config, migrationsPath string, log *slog.Logger) (Store, error) {
	switch cfg.Storage.Backend {
	case config.BackendCSV:
		t, err := NewTables(cfg.Storage.DataDir, log)
		if err != nil {
			return nil, err
		}
		log.Info("using csv tables", "dir", cfg.Storage.DataDir)
		return t, nil

	case config.BackendPostgres:
		dsn := cfg.Database.DSN()
		if err := RunMigrations(dsn, migrationsPath); err != nil {
			return nil, fmt.Errorf("migrating: %w", err)
		}
		log.Info("migrations applied")

		db, err := New(ctx, dsn)
		if err != nil {
			return nil, err
		}
		log.Info("database connected")
		return db, nil
	}
	return nil, fmt.Errorf("unknown storage backend %q", cfg.Storage.Backend)
}
