package compliance

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/olfacto/scentinel/internal/domain/refdata"
)

func limitPtr(v float64) *float64 { return &v }

// newTestSnapshot builds a small but representative reference data set:
// restriction and phototoxicity standards, a specification-only listing, a
// banned material (limit 0), a material that is both a regulated CAS and
// decomposable (lemon oil), a nested compound, a contribution cycle, and an
// incompletely documented material.
func newTestSnapshot(t *testing.T) *refdata.Snapshot {
	t.Helper()

	standards := map[string]refdata.Standard{
		"std_citral":   {Name: "Citral", Type: "RESTRICTION", LimitCat4: limitPtr(0.6)},
		"std_hc":       {Name: "Hydroxycitronellal", Type: "RESTRICTION", LimitCat4: limitPtr(1.0)},
		"std_bergamot": {Name: "Bergamot Oil Expressed", Type: "PHOTOTOXICITY RESTRICTION", LimitCat4: limitPtr(0.4)},
		"std_lemon":    {Name: "Lemon Oil Cold Pressed", Type: "PHOTOTOXICITY RESTRICTION", LimitCat4: limitPtr(2.0)},
		"std_linalool": {Name: "Linalool", Type: "SPECIFICATION"},
		"std_banned":   {Name: "Musk Ambrette", Type: "RESTRICTION", LimitCat4: limitPtr(0)},
		"std_x":        {Name: "Rose Ketones", Type: "RESTRICTION", LimitCat4: limitPtr(20)},
	}

	casMapping := map[string][]string{
		"5392-40-5": {"std_citral"},
		"107-75-5":  {"std_hc"},
		"8007-75-8": {"std_bergamot"},
		"8008-56-8": {"std_lemon"},
		"78-70-6":   {"std_linalool"},
		"83-66-9":   {"std_banned"},
		"x":         {"std_x"},
	}

	lemon := refdata.ContributionRecord{
		Name: "Lemon Essential Oil",
		Constituents: map[string]float64{
			"5392-40-5": 3.0, // citral
			"78-70-6":   0.2, // linalool
			"999-lf-1":  1.5, // undocumented leaf
		},
	}

	contributions := map[string]refdata.ContributionRecord{
		"8008-56-8":           lemon, // reachable by CAS: mapped AND decomposable
		"lemon essential oil": lemon, // reachable by name
		"rose base": {
			Name: "Rose Base",
			Constituents: map[string]float64{
				"lemon essential oil": 50.0,
				"107-75-5":            10.0,
			},
		},
		"cycle a": {Name: "Cycle A", Constituents: map[string]float64{"cycle b": 50}},
		"cycle b": {Name: "Cycle B", Constituents: map[string]float64{"cycle a": 50}},
		"sparse oil": {
			Name:         "Sparse Oil",
			Constituents: map[string]float64{"5392-40-5": 10},
		},
		"rose 10% in dpg": {
			Name:         "Rose 10% in DPG",
			Constituents: map[string]float64{"107-75-5": 5},
		},
	}

	snap, err := refdata.NewSnapshot("test", standards, casMapping, contributions)
	require.NoError(t, err)
	return snap
}

// findResult returns the StandardResult with the given id, failing the test
// when absent.
func findResult(t *testing.T, res *Result, standardID string) StandardResult {
	t.Helper()
	for _, r := range res.Results {
		if r.StandardID == standardID {
			return r
		}
	}
	t.Fatalf("standard %s not present in results", standardID)
	return StandardResult{}
}

// hasResult reports whether a standard id appears in the results.
func hasResult(res *Result, standardID string) bool {
	for _, r := range res.Results {
		if r.StandardID == standardID {
			return true
		}
	}
	return false
}
