package cli

import (
	"context"

	"github.com/olfacto/scentinel/internal/config"
	"github.com/olfacto/scentinel/internal/domain/refdata"
	"github.com/olfacto/scentinel/internal/infrastructure/monitoring/logging"
	"github.com/olfacto/scentinel/internal/infrastructure/refstore/jsonfile"
	"github.com/olfacto/scentinel/internal/infrastructure/refstore/postgres"
	"github.com/olfacto/scentinel/internal/infrastructure/refstore/sqlite"
	"github.com/olfacto/scentinel/pkg/errors"
)

// openStore builds the configured reference-data backend. The returned
// close function releases backend resources; it is a no-op for the
// jsonfile backend.
func openStore(ctx context.Context, cfg *config.Config, logger logging.Logger) (refdata.Store, func(), error) {
	switch cfg.RefData.Backend {
	case config.BackendJSONFile:
		store := jsonfile.NewStore(jsonfile.Config{
			StandardsPath:     cfg.RefData.StandardsPath,
			ContributionsPath: cfg.RefData.ContributionsPath,
		})
		return store, func() {}, nil

	case config.BackendSQLite:
		store, err := sqlite.NewStore(cfg.RefData.SQLitePath)
		if err != nil {
			return nil, nil, err
		}
		return store, func() { _ = store.Close() }, nil

	case config.BackendPostgres:
		store, err := postgres.NewStore(ctx, postgres.Config{
			DSN:             cfg.RefData.Postgres.DSN(),
			MaxConns:        int32(cfg.RefData.Postgres.MaxConns),
			ConnMaxLifetime: cfg.RefData.Postgres.ConnMaxLifetime,
		}, logger)
		if err != nil {
			return nil, nil, err
		}
		return store, store.Close, nil

	default:
		return nil, nil, errors.Newf(errors.CodeInvalidParam,
			"unknown refdata backend %q", cfg.RefData.Backend)
	}
}

// loadSnapshot opens the configured backend and loads one snapshot.
func loadSnapshot(ctx context.Context, cfg *config.Config, logger logging.Logger) (*refdata.Snapshot, error) {
	store, closeStore, err := openStore(ctx, cfg, logger)
	if err != nil {
		return nil, err
	}
	defer closeStore()
	return store.Load(ctx)
}
