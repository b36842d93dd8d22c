package handlers

import (
	"context"
	"net/http"
	"time"

	appcompliance "github.com/olfacto/scentinel/internal/application/compliance"
)

// Pinger is anything with a health probe, typically the redis client.
type Pinger interface {
	Ping(ctx context.Context) error
}

// HealthHandler serves liveness and readiness probes.
type HealthHandler struct {
	service appcompliance.Service
	pingers map[string]Pinger
	version string
}

// NewHealthHandler builds the handler. pingers maps a dependency name to
// its probe; nil entries are skipped.
func NewHealthHandler(service appcompliance.Service, version string, pingers map[string]Pinger) *HealthHandler {
	return &HealthHandler{service: service, pingers: pingers, version: version}
}

type healthResponse struct {
	Status   string            `json:"status"`
	Version  string            `json:"version"`
	Snapshot string            `json:"snapshot_version,omitempty"`
	Checks   map[string]string `json:"checks,omitempty"`
}

// Liveness handles GET /health/live. It answers as long as the process can
// serve requests.
func (h *HealthHandler) Liveness(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, healthResponse{Status: "ok", Version: h.version})
}

// Readiness handles GET /health/ready. It requires a loaded snapshot and
// probes every registered dependency.
func (h *HealthHandler) Readiness(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 3*time.Second)
	defer cancel()

	resp := healthResponse{
		Status:  "ok",
		Version: h.version,
		Checks:  make(map[string]string),
	}
	status := http.StatusOK

	info := h.service.SnapshotInfo(ctx)
	if info.Standards == 0 {
		resp.Checks["refdata"] = "no standards loaded"
		resp.Status = "degraded"
		status = http.StatusServiceUnavailable
	} else {
		resp.Checks["refdata"] = "ok"
		resp.Snapshot = info.Version
	}

	for name, p := range h.pingers {
		if p == nil {
			continue
		}
		if err := p.Ping(ctx); err != nil {
			resp.Checks[name] = err.Error()
			resp.Status = "degraded"
			status = http.StatusServiceUnavailable
		} else {
			resp.Checks[name] = "ok"
		}
	}

	writeJSON(w, status, resp)
}
