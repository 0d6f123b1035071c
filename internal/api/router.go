// Satomaru - Community Map Annotation Service
// Copyright 2026 Satomaru Project
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/satomaru-project/satomaru

package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/go-chi/httprate"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/satomaru-project/satomaru/internal/middleware"
)

// NewRouter builds the chi router with the full middleware chain and all
// routes wired to the handler.
func (h *Handler) NewRouter() chi.Router {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(chimiddleware.RealIP)
	r.Use(chimiddleware.Recoverer)

	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: h.config.Security.AllowedOrigins,
		AllowedMethods: []string{"GET", "POST", "PATCH", "DELETE", "OPTIONS"},
		AllowedHeaders: []string{"Accept", "Content-Type", "X-Request-ID"},
		ExposedHeaders: []string{"X-Request-ID", "Content-Disposition"},
		MaxAge:         h.config.Security.CORSMaxAge,
	}))

	// Transport-level flood protection, separate from the per-location
	// posting limiter inside the store.
	r.Use(httprate.LimitByIP(
		h.config.HTTP.RateLimitRequests,
		h.config.HTTP.RateLimitWindow,
	))

	r.Get("/healthz", h.Health)
	r.Handle("/metrics", promhttp.Handler())

	r.Group(func(r chi.Router) {
		r.Use(middleware.PrometheusMetrics)

		r.Get("/", h.Banner)
		r.Get("/export.csv", h.ExportCSV)

		r.Route("/pins", func(r chi.Router) {
			r.Get("/", h.ListPins)
			r.Post("/", h.CreatePin)
			r.Get("/{id}", h.GetPin)
			r.Patch("/{id}", h.UpdatePin)
			r.Delete("/{id}", h.DeletePin)
		})
	})

	return r
}

// NewServer wraps the router in an http.Server with the configured timeouts.
func (h *Handler) NewServer() *http.Server {
	return &http.Server{
		Addr:         h.config.Addr(),
		Handler:      h.NewRouter(),
		ReadTimeout:  h.config.Server.Timeout,
		WriteTimeout: h.config.Server.Timeout,
		IdleTimeout:  2 * h.config.Server.Timeout,
	}
}
