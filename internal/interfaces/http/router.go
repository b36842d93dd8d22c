// Package http assembles the route tree and the HTTP server.
package http

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"

	"github.com/olfacto/scentinel/internal/infrastructure/monitoring/logging"
	"github.com/olfacto/scentinel/internal/infrastructure/monitoring/prometheus"
	"github.com/olfacto/scentinel/internal/interfaces/http/handlers"
	"github.com/olfacto/scentinel/internal/interfaces/http/middleware"
)

// RouterConfig aggregates the handler and middleware dependencies for the
// route tree.
type RouterConfig struct {
	ComplianceHandler *handlers.ComplianceHandler
	RefDataHandler    *handlers.RefDataHandler
	HealthHandler     *handlers.HealthHandler

	Logger             logging.Logger
	Metrics            *prometheus.AppMetrics
	MetricsCollector   prometheus.MetricsCollector
	CORSAllowedOrigins []string
}

// NewRouter wires global middleware, health endpoints, the metrics
// endpoint, and the versioned API group.
func NewRouter(cfg RouterConfig) http.Handler {
	r := chi.NewRouter()

	r.Use(chimw.RequestID)
	r.Use(chimw.RealIP)
	r.Use(chimw.Recoverer)
	if len(cfg.CORSAllowedOrigins) > 0 {
		r.Use(middleware.CORS(cfg.CORSAllowedOrigins))
	}
	if cfg.Logger != nil {
		r.Use(middleware.RequestLogging(cfg.Logger))
	}
	if cfg.Metrics != nil {
		r.Use(middleware.Metrics(cfg.Metrics))
	}

	if cfg.HealthHandler != nil {
		r.Get("/health/live", cfg.HealthHandler.Liveness)
		r.Get("/health/ready", cfg.HealthHandler.Readiness)
	}
	if cfg.MetricsCollector != nil {
		r.Handle("/metrics", cfg.MetricsCollector.Handler())
	}

	r.Route("/api/v1", func(api chi.Router) {
		if cfg.ComplianceHandler != nil {
			api.Route("/compliance", func(cr chi.Router) {
				cr.Post("/check", cfg.ComplianceHandler.Check)
				cr.Post("/report", cfg.ComplianceHandler.Report)
				cr.Post("/certificate", cfg.ComplianceHandler.Certificate)
			})
		}
		if cfg.RefDataHandler != nil {
			api.Get("/materials", cfg.RefDataHandler.SearchMaterials)
			api.Get("/standards", cfg.RefDataHandler.ListStandards)
		}
	})

	return r
}
