package handler

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/portfolio/backend/internal/model"
	"github.com/portfolio/backend/internal/service"
	"github.com/portfolio/backend/internal/validation"
)

const (
	maxBodyBytes = 10 << 20

	successMessage = "Thank you for your message! We'll get back to you soon."
	failureMessage = "We encountered an error while processing your request. Please try again later."
)

// MailVerifier checks outbound mail configuration for GET /api/contact/test.
type MailVerifier interface {
	Verify(ctx context.Context) error
	Configured() bool
	AdminEmail() string
}

// ContactConfig configures ContactHandler.
type ContactConfig struct {
	Production        bool
	TrustedProxyCount int
	VerifyTimeout     time.Duration
}

// ContactHandler handles contact form submission and its diagnostics.
type ContactHandler struct {
	contactService service.ContactService
	verifier       MailVerifier
	cfg            ContactConfig
	now            func() time.Time
}

// NewContactHandler creates a ContactHandler with the given service.
func NewContactHandler(contactService service.ContactService, verifier MailVerifier, cfg ContactConfig) *ContactHandler {
	if cfg.VerifyTimeout <= 0 {
		cfg.VerifyTimeout = 15 * time.Second
	}
	return &ContactHandler{
		contactService: contactService,
		verifier:       verifier,
		cfg:            cfg,
		now:            time.Now,
	}
}

type contactData struct {
	Name  string `json:"name"`
	Email string `json:"email"`
}

type submitResponse struct {
	Success bool        `json:"success"`
	Message string      `json:"message"`
	Data    contactData `json:"data"`
}

// Submit handles POST /api/contact.
func (h *ContactHandler) Submit(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)

	var req model.ContactRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			writeJSON(w, http.StatusRequestEntityTooLarge, map[string]any{
				"success": false,
				"error":   "Payload too large",
			})
			return
		}
		writeJSON(w, http.StatusBadRequest, map[string]any{
			"success": false,
			"error":   "Invalid JSON",
			"message": "The request body contains invalid JSON",
		})
		return
	}

	sc := model.ScoringContext{
		UserAgent: r.UserAgent(),
		Referer:   referer(r),
		ClientIP:  clientIP(r, h.cfg.TrustedProxyCount),
	}

	dec, err := h.contactService.Submit(r.Context(), req, sc)
	if err != nil {
		var verrs validation.Errors
		if errors.As(err, &verrs) {
			writeJSON(w, http.StatusBadRequest, map[string]any{
				"success": false,
				"error":   "Validation failed",
				"details": verrs,
			})
			return
		}
		if !errors.Is(err, service.ErrDispatchFailed) {
			slog.Error("contact submit failed", "error", err, "request_id", RequestIDFromContext(r.Context()))
		}
		writeJSON(w, http.StatusInternalServerError, map[string]any{
			"success": false,
			"error":   "Failed to send message",
			"message": failureMessage,
		})
		return
	}

	// Suppressed and forwarded submissions get the same body.
	writeJSON(w, http.StatusOK, submitResponse{
		Success: true,
		Message: successMessage,
		Data:    contactData{Name: dec.Submission.Name, Email: dec.Submission.Email},
	})
}

// referer accepts both spellings of the header.
func referer(r *http.Request) string {
	if v := r.Header.Get("Referer"); v != "" {
		return v
	}
	return r.Header.Get("Referrer")
}

// Health handles GET /api/contact/health.
func (h *ContactHandler) Health(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"success":   true,
		"message":   "Contact service is running",
		"timestamp": h.now().UTC().Format(time.RFC3339Nano),
		"version":   Version,
	})
}

// TestMail handles GET /api/contact/test. It is disabled in production.
func (h *ContactHandler) TestMail(w http.ResponseWriter, r *http.Request) {
	if h.cfg.Production {
		writeJSON(w, http.StatusForbidden, map[string]any{
			"success": false,
			"error":   "Test endpoint is disabled in production",
		})
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), h.cfg.VerifyTimeout)
	defer cancel()

	err := h.verifier.Verify(ctx)
	if err != nil {
		slog.Warn("mail verification failed", "error", err)
	}

	msg := "Email configuration is valid"
	if err != nil {
		msg = "Email configuration failed. Check your credentials."
	}
	credentials := "Not set"
	if h.verifier.Configured() {
		credentials = "Set"
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"success": err == nil,
		"message": msg,
		"config": map[string]string{
			"smtpCredentials": credentials,
			"adminEmail":      h.verifier.AdminEmail(),
		},
	})
}
