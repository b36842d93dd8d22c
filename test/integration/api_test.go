//go:build integration

package integration

import (
	"bytes"
	"context"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	appcompliance "github.com/olfacto/scentinel/internal/application/compliance"
	"github.com/olfacto/scentinel/internal/infrastructure/monitoring/logging"
	"github.com/olfacto/scentinel/internal/infrastructure/refstore"
	httpserver "github.com/olfacto/scentinel/internal/interfaces/http"
	"github.com/olfacto/scentinel/internal/interfaces/http/handlers"
	"github.com/olfacto/scentinel/pkg/client"
)

func amount(v float64) *float64 { return &v }

// startAPI assembles the full stack over a postgres-backed snapshot and
// serves it on an httptest listener.
func startAPI(t *testing.T) *client.Client {
	t.Helper()
	ctx := context.Background()

	dsn := startPostgres(t)
	store := newMigratedStore(t, dsn)
	seedReferenceData(t, store, "2026-08")

	logger := logging.NewNopLogger()
	holder, err := refstore.NewHolder(ctx, store, logger)
	require.NoError(t, err)

	service := appcompliance.NewService(holder, nil, nil, logger)
	router := httpserver.NewRouter(httpserver.RouterConfig{
		ComplianceHandler: handlers.NewComplianceHandler(service),
		RefDataHandler:    handlers.NewRefDataHandler(service),
		HealthHandler:     handlers.NewHealthHandler(service, "integration", nil),
		Logger:            logger,
	})

	srv := httptest.NewServer(router)
	t.Cleanup(srv.Close)

	c, err := client.NewClient(srv.URL)
	require.NoError(t, err)
	return c
}

func TestComplianceAPIOverPostgres(t *testing.T) {
	c := startAPI(t)
	ctx := context.Background()

	health, err := c.Health(ctx)
	require.NoError(t, err)
	assert.Equal(t, "ok", health.Status)
	assert.Equal(t, "2026-08", health.SnapshotVersion)

	resp, err := c.Check(ctx, &client.CheckRequest{
		Formula: []client.FormulaEntry{
			{Name: "Lemon Oil Cold Pressed", CAS: "8008-56-8", Amount: amount(10)},
		},
		FinishedDosage: amount(10),
	})
	require.NoError(t, err)
	require.NotNil(t, resp.Result)
	assert.True(t, resp.Result.IsCompliant)
	assert.Equal(t, "2026-08", resp.SnapshotVersion)
	assert.InDelta(t, 20.0, resp.Result.MaxSafeDosage, 1e-9)

	report, err := c.Report(ctx, &client.CheckRequest{
		Formula: []client.FormulaEntry{
			{Name: "Lemon Oil Cold Pressed", CAS: "8008-56-8", Amount: amount(10)},
		},
		FinishedDosage: amount(50),
	})
	require.NoError(t, err)
	assert.Contains(t, report, "!!! FAIL !!!")

	pdf, err := c.Certificate(ctx, &client.CertificateRequest{
		CheckRequest: client.CheckRequest{
			Formula: []client.FormulaEntry{
				{Name: "Lemon Oil Cold Pressed", CAS: "8008-56-8", Amount: amount(10)},
			},
			FinishedDosage: amount(10),
		},
		ProductName: "Eau de Integration",
	})
	require.NoError(t, err)
	assert.True(t, bytes.HasPrefix(pdf, []byte("%PDF-")))

	materials, err := c.SearchMaterials(ctx, "lemon", 10)
	require.NoError(t, err)
	require.Len(t, materials, 1)
	assert.Equal(t, "Lemon Oil Cold Pressed", materials[0].Name)

	standards, version, err := c.ListStandards(ctx)
	require.NoError(t, err)
	assert.Equal(t, "2026-08", version)
	assert.Len(t, standards, 3)
}
