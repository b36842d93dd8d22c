package compliance

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	domain "github.com/olfacto/scentinel/internal/domain/compliance"
	"github.com/olfacto/scentinel/internal/domain/refdata"
	"github.com/olfacto/scentinel/internal/infrastructure/database/redis"
	"github.com/olfacto/scentinel/internal/infrastructure/monitoring/logging"
	"github.com/olfacto/scentinel/internal/infrastructure/monitoring/prometheus"
	"github.com/olfacto/scentinel/pkg/errors"
)

type staticProvider struct {
	snap *refdata.Snapshot
}

func (p *staticProvider) Snapshot() *refdata.Snapshot { return p.snap }

// memoryCache is an in-process stand-in for the redis cache.
type memoryCache struct {
	entries map[string][]byte
	sets    int
	gets    int
}

func newMemoryCache() *memoryCache {
	return &memoryCache{entries: make(map[string][]byte)}
}

func (m *memoryCache) Get(_ context.Context, key string, dest interface{}) error {
	m.gets++
	data, ok := m.entries[key]
	if !ok {
		return redis.ErrCacheMiss
	}
	return json.Unmarshal(data, dest)
}

func (m *memoryCache) Set(_ context.Context, key string, value interface{}, _ time.Duration) error {
	data, err := json.Marshal(value)
	if err != nil {
		return err
	}
	m.entries[key] = data
	m.sets++
	return nil
}

func (m *memoryCache) Delete(_ context.Context, keys ...string) error {
	for _, k := range keys {
		delete(m.entries, k)
	}
	return nil
}

func (m *memoryCache) GetOrSet(ctx context.Context, key string, dest interface{}, ttl time.Duration, loader func(ctx context.Context) (interface{}, error)) error {
	if err := m.Get(ctx, key, dest); err == nil {
		return nil
	}
	val, err := loader(ctx)
	if err != nil {
		return err
	}
	if err := m.Set(ctx, key, val, ttl); err != nil {
		return err
	}
	data, _ := json.Marshal(val)
	return json.Unmarshal(data, dest)
}

func (m *memoryCache) Ping(context.Context) error { return nil }

func testSnapshot(t *testing.T) *refdata.Snapshot {
	t.Helper()
	citral := 0.6
	snap, err := refdata.NewSnapshot("v1",
		map[string]refdata.Standard{
			"std_citral": {ID: "std_citral", Name: "Citral", Type: "RESTRICTION", LimitCat4: &citral},
		},
		map[string][]string{"5392-40-5": {"std_citral"}},
		map[string]refdata.ContributionRecord{
			"8008-56-8": {Name: "Lemon Oil Cold Pressed", Constituents: map[string]float64{"5392-40-5": 3.0}},
		},
	)
	require.NoError(t, err)
	return snap
}

func newTestService(t *testing.T, cache redis.Cache) Service {
	t.Helper()
	return NewService(
		&staticProvider{snap: testSnapshot(t)},
		cache,
		prometheus.NewAppMetrics(prometheus.NewNopCollector()),
		logging.NewNopLogger(),
	)
}

func TestCheckComputesResult(t *testing.T) {
	svc := newTestService(t, nil)

	out, err := svc.Check(context.Background(), &CheckInput{
		Formula:        []domain.FormulaEntry{domain.ByAmount("Lemon Oil Cold Pressed", 10).WithCAS("8008-56-8")},
		FinishedDosage: 20,
	})
	require.NoError(t, err)

	assert.NotEmpty(t, out.CheckID)
	assert.Equal(t, "v1", out.SnapshotVersion)
	assert.False(t, out.Cached)
	require.NotNil(t, out.Result)
	assert.True(t, out.Result.IsCompliant)
}

func TestCheckNilInput(t *testing.T) {
	svc := newTestService(t, nil)

	_, err := svc.Check(context.Background(), nil)
	require.Error(t, err)
	assert.True(t, errors.IsCode(err, errors.CodeInvalidParam))
}

func TestCheckPropagatesEngineErrors(t *testing.T) {
	svc := newTestService(t, nil)

	_, err := svc.Check(context.Background(), &CheckInput{
		Formula:        []domain.FormulaEntry{domain.ByAmount("Anything", 10)},
		FinishedDosage: 150,
	})
	require.Error(t, err)
	assert.True(t, errors.IsCode(err, errors.CodeInvalidDosage))
}

func TestCheckUsesCache(t *testing.T) {
	cache := newMemoryCache()
	svc := newTestService(t, cache)

	input := &CheckInput{
		Formula:        []domain.FormulaEntry{domain.ByAmount("Lemon Oil Cold Pressed", 10)},
		FinishedDosage: 20,
	}

	first, err := svc.Check(context.Background(), input)
	require.NoError(t, err)
	assert.False(t, first.Cached)
	assert.Equal(t, 1, cache.sets)

	second, err := svc.Check(context.Background(), input)
	require.NoError(t, err)
	assert.True(t, second.Cached)
	assert.Equal(t, 1, cache.sets)
	assert.Equal(t, first.Result, second.Result)
	assert.NotEqual(t, first.CheckID, second.CheckID)
}

func TestCheckCacheKeyIgnoresEntryOrder(t *testing.T) {
	cache := newMemoryCache()
	svc := newTestService(t, cache)

	a := domain.ByAmount("Lemon Oil Cold Pressed", 10)
	b := domain.ByAmount("Ethanol", 90)

	_, err := svc.Check(context.Background(), &CheckInput{Formula: []domain.FormulaEntry{a, b}, FinishedDosage: 20})
	require.NoError(t, err)

	out, err := svc.Check(context.Background(), &CheckInput{Formula: []domain.FormulaEntry{b, a}, FinishedDosage: 20})
	require.NoError(t, err)
	assert.True(t, out.Cached)
}

func TestCheckSkipCache(t *testing.T) {
	cache := newMemoryCache()
	svc := newTestService(t, cache)

	input := &CheckInput{
		Formula:        []domain.FormulaEntry{domain.ByAmount("Lemon Oil Cold Pressed", 10)},
		FinishedDosage: 20,
		SkipCache:      true,
	}

	for i := 0; i < 2; i++ {
		out, err := svc.Check(context.Background(), input)
		require.NoError(t, err)
		assert.False(t, out.Cached)
	}
	assert.Zero(t, cache.sets)
	assert.Zero(t, cache.gets)
}

func TestCacheKeyChangesWithSnapshotVersion(t *testing.T) {
	formula := []domain.FormulaEntry{domain.ByAmount("X", 1)}
	assert.NotEqual(t, cacheKey(formula, 20, "v1"), cacheKey(formula, 20, "v2"))
	assert.NotEqual(t, cacheKey(formula, 20, "v1"), cacheKey(formula, 25, "v1"))
	assert.Equal(t, cacheKey(formula, 20, "v1"), cacheKey(formula, 20, "v1"))
}

func TestSearchMaterials(t *testing.T) {
	svc := newTestService(t, nil)

	materials, err := svc.SearchMaterials(context.Background(), "lemon", 10)
	require.NoError(t, err)
	require.Len(t, materials, 1)
	assert.Equal(t, "Lemon Oil Cold Pressed", materials[0].Name)

	_, err = svc.SearchMaterials(context.Background(), "", 10)
	require.Error(t, err)
	assert.True(t, errors.IsCode(err, errors.CodeInvalidParam))
}

func TestListStandardsAndSnapshotInfo(t *testing.T) {
	svc := newTestService(t, nil)

	standards, err := svc.ListStandards(context.Background())
	require.NoError(t, err)
	require.Len(t, standards, 1)
	assert.Equal(t, "Citral", standards[0].Name)

	info := svc.SnapshotInfo(context.Background())
	assert.Equal(t, "v1", info.Version)
	assert.Equal(t, 1, info.Standards)
	assert.Equal(t, 1, info.Materials)
}
