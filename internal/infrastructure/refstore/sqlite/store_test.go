package sqlite

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/olfacto/scentinel/internal/domain/refdata"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()
	store, err := NewStore(filepath.Join(t.TempDir(), "refdata.db"))
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })
	return store
}

func seedDataset(t *testing.T, store *Store, version string) {
	t.Helper()
	citral := 0.6
	bergamot := 0.4
	require.NoError(t, store.Replace(context.Background(), version,
		map[string]refdata.Standard{
			"std_citral":   {ID: "std_citral", Name: "Citral", Type: "RESTRICTION", LimitCat4: &citral},
			"std_bergamot": {ID: "std_bergamot", Name: "Bergamot Oil Expressed", Type: "RESTRICTION (PHOTOTOXICITY)", LimitCat4: &bergamot},
			"std_linalool": {ID: "std_linalool", Name: "Linalool", Type: "SPECIFICATION"},
		},
		map[string][]string{
			"5392-40-5": {"std_citral"},
			"8007-75-8": {"std_bergamot"},
		},
		map[string]refdata.ContributionRecord{
			"8008-56-8": {Name: "Lemon Oil Cold Pressed", Constituents: map[string]float64{"5392-40-5": 3.0}},
			"Rose Base": {Name: "Rose Base", Constituents: map[string]float64{"8008-56-8": 50.0}},
		},
	))
}

func TestStoreLoadEmptyDatabase(t *testing.T) {
	store := newTestStore(t)

	snap, err := store.Load(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "unversioned", snap.Version())
	assert.Zero(t, snap.StandardCount())
	assert.Zero(t, snap.MaterialCount())
}

func TestStoreReplaceAndLoad(t *testing.T) {
	store := newTestStore(t)
	seedDataset(t, store, "51st-amendment")

	snap, err := store.Load(context.Background())
	require.NoError(t, err)

	assert.Equal(t, "51st-amendment", snap.Version())
	assert.Equal(t, 3, snap.StandardCount())
	assert.Equal(t, 2, snap.MaterialCount())

	std, ok := snap.Standard("std_citral")
	require.True(t, ok)
	require.NotNil(t, std.LimitCat4)
	assert.Equal(t, 0.6, *std.LimitCat4)

	spec, ok := snap.Standard("std_linalool")
	require.True(t, ok)
	assert.True(t, spec.IsSpecificationOnly())

	ids, ok := snap.StandardIDs("8007-75-8")
	require.True(t, ok)
	assert.Equal(t, []string{"std_bergamot"}, ids)

	// Material keys normalize on write, so mixed-case lookups succeed.
	rec, ok := snap.Contribution("rose base")
	require.True(t, ok)
	assert.Equal(t, 50.0, rec.Constituents["8008-56-8"])
}

func TestStoreReplaceOverwrites(t *testing.T) {
	store := newTestStore(t)
	seedDataset(t, store, "v1")

	limit := 1.0
	require.NoError(t, store.Replace(context.Background(), "v2",
		map[string]refdata.Standard{
			"std_hc": {ID: "std_hc", Name: "Hydroxycitronellal", Type: "RESTRICTION", LimitCat4: &limit},
		},
		map[string][]string{"107-75-5": {"std_hc"}},
		map[string]refdata.ContributionRecord{},
	))

	snap, err := store.Load(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "v2", snap.Version())
	assert.Equal(t, 1, snap.StandardCount())
	assert.Zero(t, snap.MaterialCount())

	_, ok := snap.Standard("std_citral")
	assert.False(t, ok)
}
