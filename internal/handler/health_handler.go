package handler

import (
	"context"
	"log/slog"
	"net/http"

	"auth-gateway/internal/model"
)

// Pinger reports whether the backing store is reachable.
type Pinger interface {
	Health(ctx context.Context) error
}

type HealthHandler struct {
	db Pinger
}

func NewHealthHandler(db Pinger) *HealthHandler {
	return &HealthHandler{db: db}
}

// Check pings the database so the probe reflects actual readiness, not just
// process liveness.
func (h *HealthHandler) Check(w http.ResponseWriter, r *http.Request) {
	if err := h.db.Health(r.Context()); err != nil {
		slog.Error("health check failed", "error", err.Error())
		writeJSON(w, http.StatusServiceUnavailable, model.ErrorResponse{Error: "Database unavailable"})
		return
	}

	writeJSON(w, http.StatusOK, model.MessageResponse{Message: "ok"})
}
