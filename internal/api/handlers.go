// Satomaru - Community Map Annotation Service
// Copyright 2026 Satomaru Project
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/satomaru-project/satomaru

// Package api provides the HTTP handlers and routing for the Satomaru Map
// API.
//
// Handler methods are split across files:
//   - handlers.go: Handler struct and constructor (this file)
//   - handlers_helpers.go: shared response and parsing helpers
//   - handlers_pins.go: pin CRUD endpoints
//   - handlers_export.go: CSV export endpoint
//   - handlers_health.go: banner and liveness endpoints
//   - router.go: chi route and middleware wiring
package api

import (
	"time"

	"github.com/satomaru-project/satomaru/internal/audit"
	"github.com/satomaru-project/satomaru/internal/config"
	"github.com/satomaru-project/satomaru/internal/store"
)

// Service identity returned by the banner endpoint.
const (
	ServiceName    = "Satomaru Map API"
	ServiceVersion = "0.2.0"
)

// stubActorID is the constant actor id supplied to every operation until a
// real authentication layer exists. The store and audit APIs already take
// an explicit actor parameter, so swapping this for authenticated identity
// later does not touch the core.
const stubActorID = "user_1"

// Handler contains dependencies for API handlers.
type Handler struct {
	pins      *store.PinStore
	auditLog  *audit.Store
	config    *config.Config
	actorID   string
	startTime time.Time
}

// NewHandler creates a new API handler.
//
// Dependencies:
//   - pins: the pin store, already wired to its PII detector, rate
//     limiter, and audit log
//   - auditLog: the audit store, shared with the pin store
//   - cfg: application configuration
func NewHandler(pins *store.PinStore, auditLog *audit.Store, cfg *config.Config) *Handler {
	return &Handler{
		pins:      pins,
		auditLog:  auditLog,
		config:    cfg,
		actorID:   stubActorID,
		startTime: time.Now(),
	}
}

// actor returns the acting user id for a request. Authentication is
// stubbed: every request acts as the same constant user.
func (h *Handler) actor() string {
	return h.actorID
}
