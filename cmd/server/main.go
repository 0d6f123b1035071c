// Satomaru - Community Map Annotation Service
// Copyright 2026 Satomaru Project
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/satomaru-project/satomaru

// Command server runs the Satomaru Map API: an in-memory community map
// annotation backend with PII screening, per-location rate limiting, and an
// append-only audit log.
package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/satomaru-project/satomaru/internal/api"
	"github.com/satomaru-project/satomaru/internal/audit"
	"github.com/satomaru-project/satomaru/internal/config"
	"github.com/satomaru-project/satomaru/internal/logging"
	"github.com/satomaru-project/satomaru/internal/pii"
	"github.com/satomaru-project/satomaru/internal/ratelimit"
	"github.com/satomaru-project/satomaru/internal/store"
)

const shutdownTimeout = 10 * time.Second

func main() {
	cfg, err := config.Load()
	if err != nil {
		logging.Fatal().Err(err).Msg("Failed to load configuration")
	}

	logging.Init(logging.Config{
		Level:  cfg.Log.Level,
		Format: cfg.Log.Format,
	})

	logging.Info().
		Str("version", api.ServiceVersion).
		Str("addr", cfg.Addr()).
		Int("rate_limit_window_seconds", cfg.RateLimit.WindowSeconds).
		Msg("Starting Satomaru Map API")

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	limiter := ratelimit.New(cfg.RateLimitWindow())
	limiter.StartSweepRoutine(ctx, cfg.RateLimit.SweepInterval)

	auditLog := audit.NewStore()
	pins := store.New(pii.New(), limiter, auditLog)

	handler := api.NewHandler(pins, auditLog, cfg)
	srv := handler.NewServer()

	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			logging.Fatal().Err(err).Msg("HTTP server failed")
		}
	case <-ctx.Done():
		logging.Info().Msg("Shutdown signal received")
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logging.Error().Err(err).Msg("Graceful shutdown failed")
		return
	}
	logging.Info().Msg("Server stopped")
}
