// Satomaru - Community Map Annotation Service
// Copyright 2026 Satomaru Project
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/satomaru-project/satomaru

package api

import (
	"net/http"
	"time"
)

// Banner handles GET /: service identity for smoke checks and clients
// probing which API they reached.
func (h *Handler) Banner(w http.ResponseWriter, r *http.Request) {
	respondSuccess(w, http.StatusOK, map[string]string{
		"message": ServiceName,
		"version": ServiceVersion,
	})
}

// Health handles GET /healthz: process liveness.
func (h *Handler) Health(w http.ResponseWriter, r *http.Request) {
	respondSuccess(w, http.StatusOK, map[string]interface{}{
		"status":  "ok",
		"version": ServiceVersion,
		"uptime":  time.Since(h.startTime).Round(time.Second).String(),
	})
}
