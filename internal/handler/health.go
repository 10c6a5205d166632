package handler

import (
	"net/http"
	"time"
)

type healthResponse struct {
	Success     bool    `json:"success"`
	Message     string  `json:"message"`
	Timestamp   string  `json:"timestamp"`
	Environment string  `json:"environment"`
	Version     string  `json:"version"`
	Uptime      float64 `json:"uptime"`
}

// Health handles GET /health.
func (h *Handler) Health(w http.ResponseWriter, r *http.Request) {
	now := h.now()
	writeJSON(w, http.StatusOK, healthResponse{
		Success:     true,
		Message:     "Portfolio backend is running",
		Timestamp:   now.UTC().Format(time.RFC3339Nano),
		Environment: h.env,
		Version:     Version,
		Uptime:      now.Sub(h.startedAt).Seconds(),
	})
}

// Index handles GET /.
func (h *Handler) Index(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"success": true,
		"message": "Welcome to Portfolio Backend API",
		"version": Version,
		"endpoints": map[string]string{
			"health":        "/health",
			"contact":       "POST /api/contact",
			"contactHealth": "GET /api/contact/health",
		},
	})
}
