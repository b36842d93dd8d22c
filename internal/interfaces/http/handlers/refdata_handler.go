package handlers

import (
	"net/http"

	appcompliance "github.com/olfacto/scentinel/internal/application/compliance"
	"github.com/olfacto/scentinel/internal/domain/refdata"
)

// defaultSearchLimit bounds material search results unless the client asks
// for fewer.
const defaultSearchLimit = 50

// RefDataHandler serves the reference-data read endpoints.
type RefDataHandler struct {
	service appcompliance.Service
}

// NewRefDataHandler builds the handler.
func NewRefDataHandler(service appcompliance.Service) *RefDataHandler {
	return &RefDataHandler{service: service}
}

// materialsResponse wraps a material search result.
type materialsResponse struct {
	Query     string             `json:"query"`
	Materials []refdata.Material `json:"materials"`
}

// SearchMaterials handles GET /api/v1/materials?q=...&limit=...
func (h *RefDataHandler) SearchMaterials(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query().Get("q")
	limit := queryInt(r, "limit", defaultSearchLimit)

	materials, err := h.service.SearchMaterials(r.Context(), query, limit)
	if err != nil {
		writeAppError(w, err)
		return
	}
	if materials == nil {
		materials = []refdata.Material{}
	}
	writeJSON(w, http.StatusOK, materialsResponse{Query: query, Materials: materials})
}

// standardsResponse wraps the standards listing with snapshot metadata.
type standardsResponse struct {
	SnapshotVersion string             `json:"snapshot_version"`
	Standards       []refdata.Standard `json:"standards"`
}

// ListStandards handles GET /api/v1/standards.
func (h *RefDataHandler) ListStandards(w http.ResponseWriter, r *http.Request) {
	standards, err := h.service.ListStandards(r.Context())
	if err != nil {
		writeAppError(w, err)
		return
	}
	info := h.service.SnapshotInfo(r.Context())
	writeJSON(w, http.StatusOK, standardsResponse{
		SnapshotVersion: info.Version,
		Standards:       standards,
	})
}
