// Command apiserver runs the Scentinel compliance API server.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	appcompliance "github.com/olfacto/scentinel/internal/application/compliance"
	"github.com/olfacto/scentinel/internal/config"
	"github.com/olfacto/scentinel/internal/domain/refdata"
	"github.com/olfacto/scentinel/internal/infrastructure/database/redis"
	"github.com/olfacto/scentinel/internal/infrastructure/monitoring/logging"
	"github.com/olfacto/scentinel/internal/infrastructure/monitoring/prometheus"
	"github.com/olfacto/scentinel/internal/infrastructure/refstore"
	"github.com/olfacto/scentinel/internal/infrastructure/refstore/jsonfile"
	httpserver "github.com/olfacto/scentinel/internal/interfaces/http"
	"github.com/olfacto/scentinel/internal/interfaces/http/handlers"
)

// Build-time variables injected via ldflags.
var (
	version   = "dev"
	gitCommit = "unknown"
)

func main() {
	configPath := flag.String("config", "", "path to configuration file (default: SCENTINEL_* environment variables)")
	flag.Parse()

	cfg, err := loadConfig(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "configuration error: %v\n", err)
		os.Exit(1)
	}

	logger, err := logging.NewLogger(cfg.Log)
	if err != nil {
		fmt.Fprintf(os.Stderr, "logger error: %v\n", err)
		os.Exit(1)
	}
	logger = logger.Named("apiserver")

	if err := run(cfg, logger); err != nil {
		logger.Fatal("server exited with error", logging.Err(err))
	}
}

func loadConfig(path string) (*config.Config, error) {
	if path != "" {
		return config.Load(path)
	}
	return config.LoadFromEnv()
}

func run(cfg *config.Config, logger logging.Logger) error {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	logger.Info("starting scentinel",
		logging.String("version", version),
		logging.String("commit", gitCommit),
		logging.String("refdata_backend", cfg.RefData.Backend),
	)

	collector, err := buildCollector(cfg, logger)
	if err != nil {
		return err
	}
	metrics := prometheus.NewAppMetrics(collector)

	store, closeStore, err := buildStore(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer closeStore()

	holder, err := refstore.NewHolder(ctx, store, logger, refstore.WithSwapHook(snapshotGauges(metrics)))
	if err != nil {
		return err
	}

	if watcher, err := buildWatcher(cfg, holder, logger); err != nil {
		logger.Warn("reference data watcher disabled", logging.Err(err))
	} else if watcher != nil {
		defer watcher.Close()
	}

	cache, pingers, closeCache := buildCache(ctx, cfg, logger)
	defer closeCache()

	service := appcompliance.NewService(holder, cache, metrics, logger)

	router := httpserver.NewRouter(httpserver.RouterConfig{
		ComplianceHandler:  handlers.NewComplianceHandler(service),
		RefDataHandler:     handlers.NewRefDataHandler(service),
		HealthHandler:      handlers.NewHealthHandler(service, version, pingers),
		Logger:             logger,
		Metrics:            metrics,
		MetricsCollector:   metricsEndpoint(cfg, collector),
		CORSAllowedOrigins: cfg.Server.CORSAllowedOrigins,
	})

	server := httpserver.NewServer(httpserver.ServerConfig{
		Port:            cfg.Server.Port,
		ReadTimeout:     cfg.Server.ReadTimeout,
		WriteTimeout:    cfg.Server.WriteTimeout,
		ShutdownTimeout: cfg.Server.ShutdownTimeout,
	}, router, logger)

	errCh := make(chan error, 1)
	go func() { errCh <- server.Start() }()

	select {
	case <-ctx.Done():
		logger.Info("shutdown signal received")
		return server.Shutdown(context.Background())
	case err := <-errCh:
		return err
	}
}

func buildCollector(cfg *config.Config, logger logging.Logger) (prometheus.MetricsCollector, error) {
	if !cfg.Metrics.Enabled {
		return prometheus.NewNopCollector(), nil
	}
	return prometheus.NewMetricsCollector(prometheus.CollectorConfig{
		Namespace:            "scentinel",
		EnableProcessMetrics: true,
		EnableGoMetrics:      true,
	}, logger)
}

// metricsEndpoint returns the collector for the /metrics route, or nil when
// the endpoint is disabled.
func metricsEndpoint(cfg *config.Config, collector prometheus.MetricsCollector) prometheus.MetricsCollector {
	if !cfg.Metrics.Enabled {
		return nil
	}
	return collector
}

// snapshotGauges keeps the reference-data gauges and reload counter in sync
// with the active snapshot.
func snapshotGauges(metrics *prometheus.AppMetrics) func(old, new *refdata.Snapshot) {
	return func(_, snap *refdata.Snapshot) {
		metrics.RefDataReloadsTotal.WithLabelValues("success").Inc()
		metrics.RefDataStandards.WithLabelValues().Set(float64(snap.StandardCount()))
		metrics.RefDataMaterials.WithLabelValues().Set(float64(snap.MaterialCount()))
	}
}

// buildWatcher starts the jsonfile hot-reload watcher when configured. It
// returns (nil, nil) for backends without file watching.
func buildWatcher(cfg *config.Config, holder *refstore.Holder, logger logging.Logger) (*jsonfile.Watcher, error) {
	if cfg.RefData.Backend != config.BackendJSONFile || !cfg.RefData.Watch {
		return nil, nil
	}
	return jsonfile.NewWatcher(jsonfile.Config{
		StandardsPath:     cfg.RefData.StandardsPath,
		ContributionsPath: cfg.RefData.ContributionsPath,
	}, holder, logger)
}

// buildCache connects the optional Redis result cache. Connection failure
// degrades to running without a cache rather than refusing to start.
func buildCache(ctx context.Context, cfg *config.Config, logger logging.Logger) (redis.Cache, map[string]handlers.Pinger, func()) {
	pingers := map[string]handlers.Pinger{}
	if !cfg.Redis.Enabled {
		return nil, pingers, func() {}
	}

	client, err := redis.NewClient(redis.Config{
		Addr:         cfg.Redis.Addr,
		Password:     cfg.Redis.Password,
		DB:           cfg.Redis.DB,
		DialTimeout:  cfg.Redis.DialTimeout,
		ReadTimeout:  cfg.Redis.ReadTimeout,
		WriteTimeout: cfg.Redis.WriteTimeout,
	}, logger)
	if err != nil {
		logger.Warn("redis unavailable, running without result cache", logging.Err(err))
		return nil, pingers, func() {}
	}

	cache := redis.NewCache(client, logger,
		redis.WithPrefix(cfg.Redis.KeyPrefix+":"),
		redis.WithDefaultTTL(cfg.Redis.DefaultTTL),
	)
	pingers["redis"] = client
	return cache, pingers, func() { _ = client.Close() }
}
