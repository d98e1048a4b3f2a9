package httpapi

import (
	"context"
	"net/http"
	"time"

	"twofold-chess/internal/db"
)

// HealthHandler backs the liveness/readiness endpoints. Detailed
// health pings Mongo with a short timeout so a stalled connection
// pool shows up as unhealthy rather than hanging the check.
type HealthHandler struct {
	db *db.MongoDB
}

func NewHealthHandler(database *db.MongoDB) *HealthHandler {
	return &HealthHandler{db: database}
}

// Health is the cheap liveness probe.
// GET /health
func (h *HealthHandler) Health(w http.ResponseWriter, r *http.Request) {
	respondWithJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// Detailed additionally verifies the Mongo connection.
// GET /health/detailed
func (h *HealthHandler) Detailed(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 3*time.Second)
	defer cancel()

	status := "ok"
	code := http.StatusOK
	if err := h.db.Ping(ctx); err != nil {
		status = "degraded"
		code = http.StatusServiceUnavailable
	}

	respondWithJSON(w, code, map[string]string{
		"status":  status,
		"mongodb": status,
	})
}
