package api

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/okian/cropadvisor/internal/adapters/modelstore"
	"github.com/okian/cropadvisor/pkg/metrics"
)

// HealthHandler handles liveness, readiness and metrics requests.
type HealthHandler struct {
	deps    Dependencies
	metrics http.Handler
}

// NewHealthHandler creates a new health handler.
func NewHealthHandler(deps Dependencies) *HealthHandler {
	return &HealthHandler{
		deps:    deps,
		metrics: promhttp.HandlerFor(metrics.GetRegistry(), promhttp.HandlerOpts{}),
	}
}

type readyResponse struct {
	Status string              `json:"status"`
	Models []modelstore.Status `json:"models"`
}

// HandleHealth handles GET /health requests.
func (h *HealthHandler) HandleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// HandleReady handles GET /readyz requests: 200 once the crop model serves.
func (h *HealthHandler) HandleReady(w http.ResponseWriter, _ *http.Request) {
	resp := readyResponse{Status: "ready", Models: h.deps.Stats().Models}
	status := http.StatusOK
	if !h.deps.Ready() {
		resp.Status = "not_ready"
		status = http.StatusServiceUnavailable
	}
	writeJSON(w, status, resp)
}

// HandleMetrics handles GET /metrics requests from the service registry.
func (h *HealthHandler) HandleMetrics(w http.ResponseWriter, r *http.Request) {
	h.metrics.ServeHTTP(w, r)
}
