package client

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestServer(t *testing.T, handler http.HandlerFunc) *Client {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	c, err := NewClient(srv.URL, WithRetryMax(0))
	require.NoError(t, err)
	return c
}

func amount(v float64) *float64 { return &v }

func TestCheck(t *testing.T) {
	c := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/api/v1/compliance/check", r.URL.Path)

		var req CheckRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		require.Len(t, req.Formula, 1)
		assert.Equal(t, "Lemon Oil", req.Formula[0].Name)
		require.NotNil(t, req.FinishedDosage)
		assert.Equal(t, 20.0, *req.FinishedDosage)

		_, _ = w.Write([]byte(`{
			"check_id": "c-1",
			"snapshot_version": "v1",
			"cached": false,
			"result": {
				"is_compliant": false,
				"results": [{
					"standard_id": "std_bergapten",
					"standard_name": "Bergapten",
					"concentration": 0.1,
					"limit": 0,
					"pass": false,
					"ratio": "Infinity",
					"exceedance_perc": "Infinity",
					"sources": {"Lemon Oil": 0.1}
				}],
				"phototoxicity": {"sum_of_ratios": 1.4, "pass": false, "exceedance_perc": 40},
				"critical_component": "Bergapten",
				"max_safe_dosage": 0,
				"finished_dosage": 20,
				"unresolved_materials": [],
				"data_integrity_warnings": []
			}
		}`))
	})

	resp, err := c.Check(context.Background(), &CheckRequest{
		Formula:        []FormulaEntry{{Name: "Lemon Oil", CAS: "8008-56-8", Amount: amount(10)}},
		FinishedDosage: amount(20),
	})
	require.NoError(t, err)
	assert.Equal(t, "c-1", resp.CheckID)
	require.NotNil(t, resp.Result)
	assert.False(t, resp.Result.IsCompliant)
	require.Len(t, resp.Result.Results, 1)
	assert.True(t, resp.Result.Results[0].Limit.Value == 0 && !resp.Result.Results[0].Limit.Specification)
	assert.False(t, resp.Result.Phototoxicity.Pass)
}

func TestReport(t *testing.T) {
	c := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/v1/compliance/report", r.URL.Path)
		assert.Equal(t, "text", r.URL.Query().Get("format"))
		w.Header().Set("Content-Type", "text/plain; charset=utf-8")
		_, _ = w.Write([]byte("OVERALL STATUS: PASS\n"))
	})

	out, err := c.Report(context.Background(), &CheckRequest{
		Formula: []FormulaEntry{{Name: "X", Amount: amount(1)}},
	})
	require.NoError(t, err)
	assert.Contains(t, out, "OVERALL STATUS: PASS")
}

func TestCertificate(t *testing.T) {
	c := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		var req CertificateRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.Equal(t, "Eau de Test", req.ProductName)

		w.Header().Set("Content-Type", "application/pdf")
		_, _ = w.Write([]byte("%PDF-1.4 fake"))
	})

	pdf, err := c.Certificate(context.Background(), &CertificateRequest{
		CheckRequest: CheckRequest{Formula: []FormulaEntry{{Name: "X", Amount: amount(1)}}},
		ProductName:  "Eau de Test",
	})
	require.NoError(t, err)
	assert.Equal(t, []byte("%PDF-1.4 fake"), pdf)
}

func TestSearchMaterials(t *testing.T) {
	c := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/v1/materials", r.URL.Path)
		assert.Equal(t, "lemon oil", r.URL.Query().Get("q"))
		assert.Equal(t, "10", r.URL.Query().Get("limit"))
		_, _ = w.Write([]byte(`{
			"query": "lemon oil",
			"materials": [{"key": "8008-56-8", "name": "Lemon Oil Cold Pressed"}]
		}`))
	})

	materials, err := c.SearchMaterials(context.Background(), "lemon oil", 10)
	require.NoError(t, err)
	require.Len(t, materials, 1)
	assert.Equal(t, "Lemon Oil Cold Pressed", materials[0].Name)
}

func TestListStandards(t *testing.T) {
	c := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/v1/standards", r.URL.Path)
		_, _ = w.Write([]byte(`{
			"snapshot_version": "v1",
			"standards": [
				{"id": "std_citral", "name": "Citral", "type": "RESTRICTION", "limit_cat4": 0.6},
				{"id": "std_oakmoss", "name": "Oakmoss Extract", "type": "SPECIFICATION", "limit_cat4": null}
			]
		}`))
	})

	standards, version, err := c.ListStandards(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "v1", version)
	require.Len(t, standards, 2)
	assert.Nil(t, standards[1].LimitCat4)
}

func TestHealth(t *testing.T) {
	c := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/health/ready", r.URL.Path)
		_, _ = w.Write([]byte(`{
			"status": "ok",
			"version": "1.0.0",
			"snapshot_version": "v1",
			"checks": {"redis": "ok"}
		}`))
	})

	h, err := c.Health(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "ok", h.Status)
	assert.Equal(t, "v1", h.SnapshotVersion)
}
