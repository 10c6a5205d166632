package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"
	_ "time/tzdata"

	"github.com/portfolio/backend/internal/botscore"
	"github.com/portfolio/backend/internal/config"
	"github.com/portfolio/backend/internal/logging"
	"github.com/portfolio/backend/internal/mailer"
	"github.com/portfolio/backend/internal/ratelimit"
	"github.com/portfolio/backend/internal/service"
	"github.com/portfolio/backend/internal/validation"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		logging.Setup("INFO", "json")
		logging.Fatal("failed to load configuration", "error", err)
	}
	logging.Setup(cfg.LogLevel, cfg.LogFormat)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	m := mailer.New(cfg.MailerConfig())
	if !m.Configured() {
		slog.Warn("SMTP credentials not set; contact submissions will fail to send")
	} else {
		go func() {
			vctx, vcancel := context.WithTimeout(ctx, cfg.Mail.Timeout)
			defer vcancel()
			if err := m.Verify(vctx); err != nil {
				slog.Warn("SMTP verification failed", "host", cfg.Mail.Host, "error", err)
				return
			}
			slog.Info("SMTP connection verified", "host", cfg.Mail.Host)
		}()
	}

	engine := botscore.New(botscore.WithThreshold(cfg.BotScoreThreshold))
	contactService := service.NewContactService(validation.New(), engine, m)

	contactWindow := ratelimit.NewFixedWindow(cfg.RateLimit.Contact, cfg.RateLimit.Window)
	apiWindow := ratelimit.NewFixedWindow(cfg.RateLimit.API, cfg.RateLimit.Window)
	contactWindow.StartJanitor(ctx, time.Minute)
	apiWindow.StartJanitor(ctx, time.Minute)

	server := &http.Server{
		Addr: cfg.Addr(),
		Handler: newRouter(routerDeps{
			cfg:           cfg,
			contact:       contactService,
			verifier:      m,
			contactWindow: contactWindow,
			apiWindow:     apiWindow,
		}),
		ReadTimeout:  10 * time.Second,
		WriteTimeout: cfg.Mail.Timeout + 15*time.Second,
	}

	go func() {
		slog.Info("server listening", "addr", server.Addr, "env", cfg.Env, "origins", cfg.AllowedOrigins())
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logging.Fatal("server error", "error", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		slog.Error("shutdown error", "error", err)
	}
	slog.Info("server stopped")
}
