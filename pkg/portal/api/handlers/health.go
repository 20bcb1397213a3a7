package handlers

import (
	"net/http"

	"github.com/otymus27/portal-hrg/pkg/portal/store"
)

// HealthHandler reports service liveness and readiness.
type HealthHandler struct {
	store store.Catalog
}

// NewHealthHandler creates a HealthHandler.
func NewHealthHandler(s store.Catalog) *HealthHandler {
	return &HealthHandler{store: s}
}

// HealthResponse is the body returned by the health endpoints.
type HealthResponse struct {
	Status string `json:"status"`
}

// Live handles GET /health/live. It answers as long as the process is
// serving requests.
func (h *HealthHandler) Live(w http.ResponseWriter, r *http.Request) {
	WriteJSONOK(w, HealthResponse{Status: "ok"})
}

// Ready handles GET /health/ready. It fails when the catalog database
// is unreachable.
func (h *HealthHandler) Ready(w http.ResponseWriter, r *http.Request) {
	if err := h.store.Ping(r.Context()); err != nil {
		WriteJSON(w, http.StatusServiceUnavailable, HealthResponse{Status: "unavailable"})
		return
	}
	WriteJSONOK(w, HealthResponse{Status: "ok"})
}
