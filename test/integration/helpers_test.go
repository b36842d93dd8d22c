//go:build integration

// Package integration contains integration tests for the postgres
// reference-data backend and the full HTTP stack. Tests require Docker and
// are gated behind the "integration" build tag.
package integration

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	tcpostgres "github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/testcontainers/testcontainers-go/wait"

	"github.com/olfacto/scentinel/internal/domain/refdata"
	"github.com/olfacto/scentinel/internal/infrastructure/monitoring/logging"
	"github.com/olfacto/scentinel/internal/infrastructure/refstore/postgres"
)

// startPostgres launches a PostgreSQL 16 container and returns its DSN.
func startPostgres(t *testing.T) string {
	t.Helper()
	ctx := context.Background()

	container, err := tcpostgres.RunContainer(ctx,
		testcontainers.WithImage("docker.io/postgres:16-alpine"),
		tcpostgres.WithDatabase("scentinel_test"),
		tcpostgres.WithUsername("test"),
		tcpostgres.WithPassword("test"),
		testcontainers.WithWaitStrategy(
			wait.ForLog("database system is ready to accept connections").
				WithOccurrence(2).
				WithStartupTimeout(60*time.Second),
		),
	)
	require.NoError(t, err)
	t.Cleanup(func() { _ = container.Terminate(ctx) })

	dsn, err := container.ConnectionString(ctx, "sslmode=disable")
	require.NoError(t, err)
	return dsn
}

// newMigratedStore connects to the container and applies the schema.
func newMigratedStore(t *testing.T, dsn string) *postgres.Store {
	t.Helper()
	ctx := context.Background()

	store, err := postgres.NewStore(ctx, postgres.Config{DSN: dsn}, logging.NewNopLogger())
	require.NoError(t, err)
	t.Cleanup(store.Close)

	require.NoError(t, store.Migrate())
	return store
}

func limitPtr(v float64) *float64 { return &v }

// seedReferenceData loads a small but representative data set: a numeric
// restriction, a phototoxicity restriction, a specification-only standard,
// and a two-level contribution chain.
func seedReferenceData(t *testing.T, store *postgres.Store, version string) {
	t.Helper()

	standards := map[string]refdata.Standard{
		"std_citral":   {Name: "Citral", Type: "RESTRICTION", LimitCat4: limitPtr(0.6)},
		"std_bergamot": {Name: "Bergamot Oil Expressed", Type: "RESTRICTION (PHOTOTOXICITY)", LimitCat4: limitPtr(0.4)},
		"std_linalool": {Name: "Linalool", Type: "SPECIFICATION", LimitCat4: nil},
	}
	casMapping := map[string][]string{
		"5392-40-5": {"std_citral"},
		"8007-75-8": {"std_bergamot"},
		"78-70-6":   {"std_linalool"},
	}
	contributions := map[string]refdata.ContributionRecord{
		"8008-56-8": {Name: "Lemon Oil Cold Pressed", Constituents: map[string]float64{
			"5392-40-5": 3.0,
			"78-70-6":   0.2,
		}},
		"rose base": {Name: "Rose Base", Constituents: map[string]float64{
			"8008-56-8": 50.0,
		}},
	}

	require.NoError(t, store.Replace(context.Background(), version, standards, casMapping, contributions))
}
