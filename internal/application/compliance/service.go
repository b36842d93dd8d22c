// Package compliance provides the application-level service for compliance
// checks. It sits between the HTTP/CLI handlers and the domain engine,
// adding result caching, metrics, and reference-data access.
package compliance

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"sort"
	"time"

	"github.com/google/uuid"

	domain "github.com/olfacto/scentinel/internal/domain/compliance"
	"github.com/olfacto/scentinel/internal/domain/refdata"
	"github.com/olfacto/scentinel/internal/infrastructure/database/redis"
	"github.com/olfacto/scentinel/internal/infrastructure/monitoring/logging"
	"github.com/olfacto/scentinel/internal/infrastructure/monitoring/prometheus"
	"github.com/olfacto/scentinel/internal/infrastructure/refstore"
	"github.com/olfacto/scentinel/pkg/errors"
)

// cacheTTL bounds how long a computed result may be served from cache. The
// snapshot version is part of the key, so a reference-data reload
// invalidates naturally.
const cacheTTL = 30 * time.Minute

// Service defines the compliance application operations.
type Service interface {
	Check(ctx context.Context, input *CheckInput) (*CheckOutput, error)
	SearchMaterials(ctx context.Context, query string, limit int) ([]refdata.Material, error)
	ListStandards(ctx context.Context) ([]refdata.Standard, error)
	SnapshotInfo(ctx context.Context) SnapshotInfo
}

// CheckInput carries one compliance check request.
type CheckInput struct {
	Formula        []domain.FormulaEntry
	FinishedDosage float64
	SkipCache      bool
}

// CheckOutput wraps the engine result with service-level metadata.
type CheckOutput struct {
	CheckID         string         `json:"check_id"`
	SnapshotVersion string         `json:"snapshot_version"`
	Cached          bool           `json:"cached"`
	Result          *domain.Result `json:"result"`
}

// SnapshotInfo summarizes the active reference-data snapshot.
type SnapshotInfo struct {
	Version   string `json:"version"`
	Standards int    `json:"standards"`
	Materials int    `json:"materials"`
}

type service struct {
	provider refstore.Provider
	cache    redis.Cache
	metrics  *prometheus.AppMetrics
	logger   logging.Logger
}

// NewService builds the compliance service. cache may be nil, in which case
// every check is computed; metrics may be nil, in which case observations
// are discarded.
func NewService(provider refstore.Provider, cache redis.Cache, metrics *prometheus.AppMetrics, logger logging.Logger) Service {
	if metrics == nil {
		metrics = prometheus.NewAppMetrics(prometheus.NewNopCollector())
	}
	return &service{
		provider: provider,
		cache:    cache,
		metrics:  metrics,
		logger:   logger.Named("compliance"),
	}
}

func (s *service) Check(ctx context.Context, input *CheckInput) (*CheckOutput, error) {
	if input == nil {
		return nil, errors.New(errors.CodeInvalidParam, "check input is required")
	}
	start := time.Now()
	snap := s.provider.Snapshot()

	key := cacheKey(input.Formula, input.FinishedDosage, snap.Version())
	if s.cache != nil && !input.SkipCache {
		var cached domain.Result
		if err := s.cache.Get(ctx, key, &cached); err == nil {
			s.metrics.CacheHitsTotal.WithLabelValues().Inc()
			s.observeCheck(&cached, true, time.Since(start))
			return s.output(snap, &cached, true), nil
		} else if err != redis.ErrCacheMiss {
			s.logger.Warn("result cache read failed", logging.Err(err))
		}
		s.metrics.CacheMissesTotal.WithLabelValues().Inc()
	}

	result, err := domain.NewEngine(snap).Evaluate(input.Formula, input.FinishedDosage)
	if err != nil {
		s.metrics.ChecksTotal.WithLabelValues(prometheus.ResultError).Inc()
		return nil, err
	}

	if s.cache != nil && !input.SkipCache {
		if err := s.cache.Set(ctx, key, result, cacheTTL); err != nil {
			s.logger.Warn("result cache write failed", logging.Err(err))
		}
	}

	s.observeCheck(result, false, time.Since(start))
	return s.output(snap, result, false), nil
}

func (s *service) output(snap *refdata.Snapshot, result *domain.Result, cached bool) *CheckOutput {
	return &CheckOutput{
		CheckID:         uuid.NewString(),
		SnapshotVersion: snap.Version(),
		Cached:          cached,
		Result:          result,
	}
}

func (s *service) observeCheck(result *domain.Result, cached bool, elapsed time.Duration) {
	outcome := prometheus.ResultNonCompliant
	if result.IsCompliant {
		outcome = prometheus.ResultCompliant
	}
	s.metrics.ChecksTotal.WithLabelValues(outcome).Inc()

	cachedLabel := "false"
	if cached {
		cachedLabel = "true"
	}
	s.metrics.CheckDuration.WithLabelValues(cachedLabel).Observe(elapsed.Seconds())

	if n := len(result.UnresolvedMaterials); n > 0 {
		s.metrics.UnresolvedTotal.WithLabelValues().Add(float64(n))
	}
	if n := len(result.DataIntegrityWarnings); n > 0 {
		s.metrics.IntegrityWarnings.WithLabelValues().Add(float64(n))
	}

	s.logger.Info("compliance check completed",
		logging.Bool("compliant", result.IsCompliant),
		logging.Bool("cached", cached),
		logging.String("critical_component", result.CriticalComponent),
		logging.Int("unresolved", len(result.UnresolvedMaterials)),
		logging.Duration("elapsed", elapsed),
	)
}

func (s *service) SearchMaterials(_ context.Context, query string, limit int) ([]refdata.Material, error) {
	if query == "" {
		return nil, errors.New(errors.CodeInvalidParam, "search query is required")
	}
	return s.provider.Snapshot().SearchMaterials(query, limit), nil
}

func (s *service) ListStandards(_ context.Context) ([]refdata.Standard, error) {
	return s.provider.Snapshot().Standards(), nil
}

func (s *service) SnapshotInfo(_ context.Context) SnapshotInfo {
	snap := s.provider.Snapshot()
	return SnapshotInfo{
		Version:   snap.Version(),
		Standards: snap.StandardCount(),
		Materials: snap.MaterialCount(),
	}
}

// cacheKey digests the formula, dosage, and snapshot version. Entries are
// sorted into a canonical order first, so permuted but identical formulas
// share a key.
func cacheKey(formula []domain.FormulaEntry, dosage float64, version string) string {
	canonical := append([]domain.FormulaEntry(nil), formula...)
	sort.SliceStable(canonical, func(i, j int) bool {
		if canonical[i].Name != canonical[j].Name {
			return canonical[i].Name < canonical[j].Name
		}
		if canonical[i].CAS != canonical[j].CAS {
			return canonical[i].CAS < canonical[j].CAS
		}
		return canonical[i].SKU < canonical[j].SKU
	})

	payload, _ := json.Marshal(struct {
		Formula []domain.FormulaEntry `json:"formula"`
		Dosage  float64               `json:"dosage"`
		Version string                `json:"version"`
	}{canonical, dosage, version})

	sum := sha256.Sum256(payload)
	return "check:" + hex.EncodeToString(sum[:])
}
