package main

import (
	"net/http"

	"github.com/portfolio/backend/internal/config"
	"github.com/portfolio/backend/internal/handler"
	"github.com/portfolio/backend/internal/metrics"
	"github.com/portfolio/backend/internal/ratelimit"
	"github.com/portfolio/backend/internal/service"
)

type routerDeps struct {
	cfg           config.Config
	contact       service.ContactService
	verifier      handler.MailVerifier
	contactWindow *ratelimit.FixedWindow
	apiWindow     *ratelimit.FixedWindow
}

// newRouter builds the mux and wraps it in the middleware chain, outermost
// first: Recoverer, RequestLogger, SecurityHeaders, CORS.
func newRouter(d routerDeps) http.Handler {
	h := handler.New(handler.Config{
		Env:            d.cfg.Env,
		AllowedOrigins: d.cfg.AllowedOrigins(),
		OriginSuffixes: d.cfg.CORSOriginSuffixes,
	})
	contactHandler := handler.NewContactHandler(d.contact, d.verifier, handler.ContactConfig{
		Production:        d.cfg.IsProduction(),
		TrustedProxyCount: d.cfg.TrustedProxies,
		VerifyTimeout:     d.cfg.Mail.Timeout,
	})

	apiLimiter := handler.NewRateLimiter("api", d.apiWindow, d.cfg.TrustedProxies,
		"Too many requests from this IP. Please try again later.")
	contactLimiter := handler.NewRateLimiter("contact", d.contactWindow, d.cfg.TrustedProxies,
		"Too many requests. You have exceeded the rate limit.")

	// Everything under /api/ counts against the general budget.
	api := func(next http.Handler) http.Handler {
		return apiLimiter.Middleware(next)
	}

	mux := http.NewServeMux()
	mux.HandleFunc("GET /{$}", h.Index)
	mux.HandleFunc("GET /health", h.Health)
	if d.cfg.MetricsEnabled {
		mux.Handle("GET /metrics", metrics.Handler())
	}

	mux.Handle("POST /api/contact", api(contactLimiter.Middleware(http.HandlerFunc(contactHandler.Submit))))
	mux.Handle("GET /api/contact/health", api(http.HandlerFunc(contactHandler.Health)))
	mux.Handle("GET /api/contact/test", api(http.HandlerFunc(contactHandler.TestMail)))
	mux.Handle("/api/", api(http.HandlerFunc(h.NotFound)))
	mux.HandleFunc("/", h.NotFound)

	var next http.Handler = mux
	next = h.CORS(next)
	next = handler.SecurityHeaders(next)
	next = handler.RequestLogger(next)
	next = h.Recoverer(next)
	return next
}
