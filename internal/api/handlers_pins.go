// Satomaru - Community Map Annotation Service
// Copyright 2026 Satomaru Project
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/satomaru-project/satomaru

package api

import (
	"errors"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/satomaru-project/satomaru/internal/logging"
	"github.com/satomaru-project/satomaru/internal/metrics"
	"github.com/satomaru-project/satomaru/internal/models"
	"github.com/satomaru-project/satomaru/internal/store"
)

// Rejection messages in the service's display language.
const (
	msgPIIDetected = "個人情報の可能性がある内容が含まれています"
	msgRateLimited = "短時間に同じ場所へ投稿しています"
)

// listPinsRequest carries the validated pagination parameters of GET /pins.
type listPinsRequest struct {
	Page     int `validate:"min=1"`
	PageSize int `validate:"min=1,max=200"`
}

// ListPins handles GET /pins: filtered, paginated listing of active pins.
func (h *Handler) ListPins(w http.ResponseWriter, r *http.Request) {
	req := listPinsRequest{
		Page:     getIntParam(r, "page", 1),
		PageSize: getIntParam(r, "page_size", h.config.API.DefaultPageSize),
	}
	if apiErr := validateRequest(&req); apiErr != nil {
		respondError(w, http.StatusBadRequest, apiErr.Code, apiErr.Message, nil)
		return
	}

	filter := &store.ListFilter{
		Page:     req.Page,
		PageSize: req.PageSize,
		Tag:      r.URL.Query().Get("tag"),
	}

	if bbox := r.URL.Query().Get("bbox"); bbox != "" {
		parsed, err := parseBBox(bbox)
		if err != nil {
			respondError(w, http.StatusBadRequest, "VALIDATION_ERROR", "Invalid bbox format", err)
			return
		}
		filter.BBox = parsed
	}

	var err error
	if filter.Since, err = parseTimeParam(r, "since"); err != nil {
		respondError(w, http.StatusBadRequest, "VALIDATION_ERROR", err.Error(), nil)
		return
	}
	if filter.Until, err = parseTimeParam(r, "until"); err != nil {
		respondError(w, http.StatusBadRequest, "VALIDATION_ERROR", err.Error(), nil)
		return
	}

	if layer := r.URL.Query().Get("layer"); layer != "" {
		if !models.Layer(layer).Valid() {
			respondError(w, http.StatusBadRequest, "VALIDATION_ERROR", "layer must be one of: sumai kurashi manabi asobi other", nil)
			return
		}
		filter.Layer = models.Layer(layer)
	}

	items, total := h.pins.List(filter)

	respondSuccess(w, http.StatusOK, models.PinListResponse{
		Items:    items,
		Page:     req.Page,
		PageSize: req.PageSize,
		Total:    total,
	})
}

// parseBBox parses "min-lng,min-lat,max-lng,max-lat".
func parseBBox(value string) (*store.BBox, error) {
	parts := strings.Split(value, ",")
	if len(parts) != 4 {
		return nil, errors.New("bbox must have 4 comma-separated values")
	}

	coords := make([]float64, 4)
	for i, part := range parts {
		f, err := strconv.ParseFloat(strings.TrimSpace(part), 64)
		if err != nil {
			return nil, err
		}
		coords[i] = f
	}

	return &store.BBox{
		MinLng: coords[0],
		MinLat: coords[1],
		MaxLng: coords[2],
		MaxLat: coords[3],
	}, nil
}

// CreatePin handles POST /pins.
func (h *Handler) CreatePin(w http.ResponseWriter, r *http.Request) {
	var req models.CreatePinRequest
	if !decodeJSONBody(w, r, &req) {
		return
	}
	if apiErr := validateRequest(&req); apiErr != nil {
		respondError(w, http.StatusUnprocessableEntity, apiErr.Code, apiErr.Message, nil)
		return
	}

	pin, err := h.pins.Create(h.actor(), &req)
	if err != nil {
		h.respondPinError(w, err)
		return
	}

	metrics.PinsCreatedTotal.Inc()
	logging.Ctx(r.Context()).Info().Str("pin_id", pin.ID).Str("layer", string(pin.Layer)).Msg("Pin created")

	respondSuccess(w, http.StatusCreated, models.CreatePinResponse{
		ID:        pin.ID,
		CreatedAt: pin.CreatedAt,
	})
}

// GetPin handles GET /pins/{id}. Hidden pins are returned too.
func (h *Handler) GetPin(w http.ResponseWriter, r *http.Request) {
	pin, err := h.pins.Get(chi.URLParam(r, "id"))
	if err != nil {
		h.respondPinError(w, err)
		return
	}
	respondSuccess(w, http.StatusOK, pin)
}

// UpdatePin handles PATCH /pins/{id}: partial update. Absent fields are
// untouched; an explicit empty string is applied.
func (h *Handler) UpdatePin(w http.ResponseWriter, r *http.Request) {
	var req models.UpdatePinRequest
	if !decodeJSONBody(w, r, &req) {
		return
	}
	if apiErr := validateRequest(&req); apiErr != nil {
		respondError(w, http.StatusUnprocessableEntity, apiErr.Code, apiErr.Message, nil)
		return
	}

	pin, err := h.pins.Update(h.actor(), chi.URLParam(r, "id"), &req)
	if err != nil {
		h.respondPinError(w, err)
		return
	}

	logging.Ctx(r.Context()).Info().Str("pin_id", pin.ID).Msg("Pin updated")
	respondSuccess(w, http.StatusOK, pin)
}

// DeletePin handles DELETE /pins/{id}: soft delete. Deleting an
// already-hidden pin succeeds again.
func (h *Handler) DeletePin(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if err := h.pins.SoftDelete(h.actor(), id); err != nil {
		h.respondPinError(w, err)
		return
	}

	metrics.PinsHiddenTotal.Inc()
	logging.Ctx(r.Context()).Info().Str("pin_id", id).Msg("Pin hidden")
	w.WriteHeader(http.StatusNoContent)
}

// respondPinError maps store errors onto the HTTP error taxonomy.
func (h *Handler) respondPinError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, store.ErrNotFound):
		respondError(w, http.StatusNotFound, "NOT_FOUND", "Pin not found", nil)
	case errors.Is(err, store.ErrPIIDetected):
		metrics.PIIRejectionsTotal.Inc()
		respondError(w, http.StatusUnprocessableEntity, "PII_DETECTED", msgPIIDetected, nil)
	case errors.Is(err, store.ErrRateLimited):
		metrics.RateLimitedTotal.Inc()
		respondError(w, http.StatusTooManyRequests, "RATE_LIMIT", msgRateLimited, nil)
	default:
		respondError(w, http.StatusInternalServerError, "INTERNAL_ERROR", "Internal server error", err)
	}
}
