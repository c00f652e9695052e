package api

import (
	"net/http"

	"github.com/arborhq/arbor/internal/api/respond"
	"github.com/arborhq/arbor/internal/health"
)

// HealthHandler reports service and store health.
type HealthHandler struct {
	service *health.ServiceHealthChecker
	store   health.HealthChecker
}

func NewHealthHandler(service *health.ServiceHealthChecker, store health.HealthChecker) *HealthHandler {
	return &HealthHandler{service: service, store: store}
}

// CheckHealth GET /api/health
func (h *HealthHandler) CheckHealth(w http.ResponseWriter, r *http.Request) {
	if h.service != nil && !h.service.IsHealthy() {
		respond.WriteJSON(w, http.StatusServiceUnavailable, map[string]string{"status": "down"})
		return
	}
	respond.WriteJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// CheckStoreHealth GET /api/health/db
func (h *HealthHandler) CheckStoreHealth(w http.ResponseWriter, r *http.Request) {
	if h.store != nil && !h.store.IsHealthy() {
		respond.WriteJSON(w, http.StatusServiceUnavailable, map[string]string{"status": "down", "component": h.store.Name()})
		return
	}
	respond.WriteJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}
