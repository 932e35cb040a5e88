// Package repository selects and opens the configured user store.
package repository

import (
	"context"
	"fmt"

	"github.com/msomdec/approval-gate/internal/config"
	"github.com/msomdec/approval-gate/internal/domain"
	"github.com/msomdec/approval-gate/internal/repository/mongo"
	"github.com/msomdec/approval-gate/internal/repository/postgres"
	"github.com/msomdec/approval-gate/internal/repository/sqlite"
)

// Open connects to the store named by cfg.StoreDriver and applies its
// migrations. The caller owns the returned store and must Close it.
func Open(ctx context.Context, cfg config.Config) (domain.Store, error) {
	var (
		store domain.Store
		err   error
	)
	switch cfg.StoreDriver {
	case config.DriverSQLite:
		store, err = sqlite.New(cfg.DatabasePath)
	case config.DriverPostgres:
		store, err = postgres.New(ctx, cfg.DatabaseURL)
	case config.DriverMongo:
		store, err = mongo.New(ctx, cfg.MongoURI, cfg.MongoDatabase)
	default:
		return nil, fmt.Errorf("unknown store driver %q", cfg.StoreDriver)
	}
	if err != nil {
		return nil, fmt.Errorf("open %s store: %w", cfg.StoreDriver, err)
	}

	if err := store.Migrate(ctx); err != nil {
		store.Close()
		return nil, fmt.Errorf("migrate %s store: %w", cfg.StoreDriver, err)
	}
	return store, nil
}
