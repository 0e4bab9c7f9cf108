package api

import (
	"context"
	"net/http"
	"time"

	"scribe-portal/internal/transcribe"
)

type HealthResponse struct {
	Status        string            `json:"status"`
	Version       string            `json:"version"`
	UptimeSeconds int64             `json:"uptime_seconds"`
	Checks        map[string]string `json:"checks"`
}

// HealthHandler reports portal liveness and backend reachability. A dead
// backend degrades health but the portal keeps serving pages and login.
type HealthHandler struct {
	backend   *transcribe.Client
	version   string
	startTime time.Time
}

func NewHealthHandler(backend *transcribe.Client, version string, startTime time.Time) *HealthHandler {
	return &HealthHandler{
		backend:   backend,
		version:   version,
		startTime: startTime,
	}
}

func (h *HealthHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	checks := make(map[string]string)
	status := "healthy"

	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()
	if err := h.backend.Ping(ctx); err != nil {
		checks["backend"] = "unreachable"
		status = "degraded"
	} else {
		checks["backend"] = "ok"
	}

	WriteJSON(w, http.StatusOK, HealthResponse{
		Status:        status,
		Version:       h.version,
		UptimeSeconds: int64(time.Since(h.startTime).Seconds()),
		Checks:        checks,
	})
}
