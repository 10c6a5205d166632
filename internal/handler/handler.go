package handler

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"slices"
	"strings"
	"time"
)

// Version is reported by the index and health endpoints.
const Version = "1.0.0"

// Config configures the shared handler.
type Config struct {
	Env            string
	AllowedOrigins []string
	// OriginSuffixes admits any origin ending in one of these, e.g. ".vercel.app".
	OriginSuffixes []string
}

// Handler serves the service-level endpoints and the cross-cutting
// middleware that depends on configuration.
type Handler struct {
	env       string
	origins   []string
	suffixes  []string
	startedAt time.Time
	now       func() time.Time
}

func New(cfg Config) *Handler {
	return &Handler{
		env:       cfg.Env,
		origins:   cfg.AllowedOrigins,
		suffixes:  cfg.OriginSuffixes,
		startedAt: time.Now(),
		now:       time.Now,
	}
}

func (h *Handler) originAllowed(origin string) bool {
	if slices.Contains(h.origins, origin) {
		return true
	}
	for _, s := range h.suffixes {
		if s != "" && strings.HasSuffix(origin, s) {
			return true
		}
	}
	return false
}

// CORS admits requests without an Origin header and requests from allowed
// origins; everything else gets 403. Preflight requests are answered here.
func (h *Handler) CORS(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		origin := r.Header.Get("Origin")
		if origin != "" {
			if !h.originAllowed(origin) {
				slog.Warn("cors origin blocked", "origin", origin, "path", r.URL.Path)
				writeJSON(w, http.StatusForbidden, map[string]any{
					"success": false,
					"error":   "CORS Error",
					"message": "Your origin is not allowed to access this resource",
				})
				return
			}
			w.Header().Set("Access-Control-Allow-Origin", origin)
			w.Header().Set("Access-Control-Allow-Credentials", "true")
			w.Header().Add("Vary", "Origin")
		}
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization")

		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusOK)
			return
		}

		next.ServeHTTP(w, r)
	})
}

// NotFound answers unknown routes.
func (h *Handler) NotFound(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusNotFound, map[string]any{
		"success": false,
		"error":   "Route not found",
		"message": "Cannot " + r.Method + " " + r.URL.Path,
		"availableRoutes": map[string]string{
			"health":        "GET /health",
			"contact":       "POST /api/contact",
			"contactHealth": "GET /api/contact/health",
		},
	})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		slog.Error("failed to write response", "error", err)
	}
}
