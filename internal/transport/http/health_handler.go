package http

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/render"
)

// HealthHandler reports liveness and the state of the last refresh.
type HealthHandler struct {
	service DataServiceInterface
	started time.Time
	version string
}

// NewHealthHandler creates the health handler.
func NewHealthHandler(service DataServiceInterface, version string) *HealthHandler {
	return &HealthHandler{
		service: service,
		started: time.Now(),
		version: version,
	}
}

// Routes returns the health routes.
func (h *HealthHandler) Routes() chi.Router {
	r := chi.NewRouter()
	r.Use(render.SetContentType(render.ContentTypeJSON))
	r.Get("/", h.GetHealth)
	r.Get("/ready", h.GetReady)
	return r
}

// GetHealth handles GET /api/health. Always 200 while the process serves.
func (h *HealthHandler) GetHealth(w http.ResponseWriter, r *http.Request) {
	snapshot := h.service.Snapshot()
	body := map[string]interface{}{
		"status":     "ok",
		"version":    h.version,
		"uptime":     time.Since(h.started).String(),
		"lead_count": len(snapshot.Leads),
	}
	if !snapshot.FetchedAt.IsZero() {
		body["last_refresh"] = snapshot.FetchedAt.Format(time.RFC3339)
	}
	if err := h.service.LastError(); err != nil {
		body["last_refresh_error"] = err.Error()
	}
	render.JSON(w, r, body)
}

// GetReady handles GET /api/health/ready. 503 until the first snapshot
// lands, so load balancers hold traffic while the source is still cold.
func (h *HealthHandler) GetReady(w http.ResponseWriter, r *http.Request) {
	snapshot := h.service.Snapshot()
	if snapshot.FetchedAt.IsZero() {
		render.Status(r, http.StatusServiceUnavailable)
		render.JSON(w, r, map[string]interface{}{"status": "not_ready"})
		return
	}
	render.JSON(w, r, map[string]interface{}{
		"status":       "ready",
		"last_refresh": snapshot.FetchedAt.Format(time.RFC3339),
	})
}
