package handler

import (
	"fmt"
	"log/slog"
	"math"
	"net"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/portfolio/backend/internal/metrics"
	"github.com/portfolio/backend/internal/ratelimit"
)

// SecurityHeaders adds security response headers (CSP, X-Frame-Options, etc.)
func SecurityHeaders(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		h := w.Header()
		h.Set("X-Content-Type-Options", "nosniff")
		h.Set("X-Frame-Options", "DENY")
		h.Set("Referrer-Policy", "strict-origin-when-cross-origin")
		h.Set("X-XSS-Protection", "0")
		h.Set("Permissions-Policy", "camera=(), microphone=(), geolocation=()")
		h.Set("Content-Security-Policy", "default-src 'self'; script-src 'self'; frame-ancestors 'none'")
		h.Set("Strict-Transport-Security", "max-age=63072000; includeSubDomains")
		next.ServeHTTP(w, r)
	})
}

// Recoverer turns a panicking handler into a 500 response. Outside
// production the panic value is included in the message.
func (h *Handler) Recoverer(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		defer func() {
			rec := recover()
			if rec == nil {
				return
			}
			if rec == http.ErrAbortHandler {
				panic(rec)
			}
			slog.Error("panic serving request",
				"panic", fmt.Sprint(rec),
				"method", r.Method,
				"path", r.URL.Path,
				"request_id", RequestIDFromContext(r.Context()),
			)
			msg := "An unexpected error occurred. Please try again later."
			if h.env == "development" {
				msg = fmt.Sprint(rec)
			}
			writeJSON(w, http.StatusInternalServerError, map[string]any{
				"success": false,
				"error":   "Internal Server Error",
				"message": msg,
			})
		}()
		next.ServeHTTP(w, r)
	})
}

// RateLimiter enforces a fixed-window request budget per client IP.
type RateLimiter struct {
	name              string
	errorMessage      string
	trustedProxyCount int
	window            *ratelimit.FixedWindow
}

// NewRateLimiter wraps window. name labels metrics and logs; errorMessage is
// the error text of the 429 body.
func NewRateLimiter(name string, window *ratelimit.FixedWindow, trustedProxyCount int, errorMessage string) *RateLimiter {
	return &RateLimiter{
		name:              name,
		errorMessage:      errorMessage,
		trustedProxyCount: trustedProxyCount,
		window:            window,
	}
}

// Middleware returns an http.Handler that enforces rate limits.
func (rl *RateLimiter) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ip := clientIP(r, rl.trustedProxyCount)
		res := rl.window.Allow(ip)
		now := rl.window.Now()
		retryAfter := res.RetryAfter(now)

		h := w.Header()
		h.Set("RateLimit-Limit", strconv.Itoa(res.Limit))
		h.Set("RateLimit-Remaining", strconv.Itoa(res.Remaining))
		h.Set("RateLimit-Reset", retryAfterSeconds(retryAfter))

		if !res.Allowed {
			metrics.RateLimited.WithLabelValues(rl.name).Inc()
			slog.Warn("rate limit exceeded", "limiter", rl.name, "client_ip", ip, "path", r.URL.Path)

			h.Set("Retry-After", retryAfterSeconds(retryAfter))
			writeJSON(w, http.StatusTooManyRequests, map[string]any{
				"success":    false,
				"error":      rl.errorMessage,
				"message":    fmt.Sprintf("Please wait %s before trying again.", waitText(rl.window.Period().Minutes())),
				"retryAfter": res.ResetAt.Unix(),
			})
			return
		}

		next.ServeHTTP(w, r)
	})
}

func retryAfterSeconds(d time.Duration) string {
	return strconv.Itoa(int(math.Ceil(d.Seconds())))
}

func waitText(minutes float64) string {
	n := int(math.Ceil(minutes))
	if n <= 1 {
		return "1 minute"
	}
	return strconv.Itoa(n) + " minutes"
}

// clientIP extracts the real client IP, reading from the rightmost trusted
// proxy position in X-Forwarded-For to prevent spoofing.
func clientIP(r *http.Request, trustedProxyCount int) string {
	if xff := r.Header.Get("X-Forwarded-For"); xff != "" && trustedProxyCount > 0 {
		parts := strings.Split(xff, ",")
		// The rightmost entry added by our infrastructure is at
		// index len(parts) - trustedProxyCount.
		idx := len(parts) - trustedProxyCount
		if idx >= 0 && idx < len(parts) {
			return strings.TrimSpace(parts[idx])
		}
	}
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}
