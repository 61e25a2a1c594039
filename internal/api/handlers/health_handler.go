package handlers

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/supportai/tickethub/internal/api/response"
)

const healthPingTimeout = 2 * time.Second

// Pinger is satisfied by *pgxpool.Pool.
type Pinger interface {
	Ping(ctx context.Context) error
}

// HealthHandler handles health check requests.
type HealthHandler struct {
	db Pinger
}

// NewHealthHandler creates a new health handler.
func NewHealthHandler(db Pinger) *HealthHandler {
	return &HealthHandler{db: db}
}

// Check handles GET /health.
func (h *HealthHandler) Check(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), healthPingTimeout)
	defer cancel()

	if err := h.db.Ping(ctx); err != nil {
		slog.WarnContext(r.Context(), "health: database ping failed", "error", err)
		response.RespondServiceUnavailable(w, "database unavailable")

		return
	}

	response.RespondJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}
