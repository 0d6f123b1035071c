// Satomaru - Community Map Annotation Service
// Copyright 2026 Satomaru Project
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/satomaru-project/satomaru

// Package models defines the data model for map pins and shared API types.
package models

import (
	"time"
)

// Layer is the coarse category of a pin. The keys are the romanized
// Japanese category names used throughout the product: sumai (housing),
// kurashi (living), manabi (learning), asobi (play).
type Layer string

const (
	LayerSumai   Layer = "sumai"
	LayerKurashi Layer = "kurashi"
	LayerManabi  Layer = "manabi"
	LayerAsobi   Layer = "asobi"
	LayerOther   Layer = "other"
)

// Valid reports whether l is one of the known layer keys.
func (l Layer) Valid() bool {
	switch l {
	case LayerSumai, LayerKurashi, LayerManabi, LayerAsobi, LayerOther:
		return true
	}
	return false
}

// Visibility is the audience scope of a pin.
type Visibility string

const (
	VisibilityPersonal Visibility = "personal"
	VisibilityGroup    Visibility = "group"
	VisibilityPublic   Visibility = "public"
)

// Valid reports whether v is a known visibility scope.
func (v Visibility) Valid() bool {
	switch v {
	case VisibilityPersonal, VisibilityGroup, VisibilityPublic:
		return true
	}
	return false
}

// Status is the lifecycle state of a pin. The only transition performed by
// the service is active -> hidden via soft delete; there is no resurrection
// path.
type Status string

const (
	StatusActive Status = "active"
	StatusHidden Status = "hidden"
	StatusDraft  Status = "draft"
)

// Valid reports whether s is a known status.
func (s Status) Valid() bool {
	switch s {
	case StatusActive, StatusHidden, StatusDraft:
		return true
	}
	return false
}

// Pin is a single geotagged annotation record.
//
// JSON field names follow the original wire contract consumed by the web
// clients: createdAt/updatedAt are camelCase, everything else snake_case.
type Pin struct {
	ID         string     `json:"id"`
	Lat        float64    `json:"lat"`
	Lng        float64    `json:"lng"`
	Layer      Layer      `json:"layer"`
	Tag        string     `json:"tag"`
	Note       string     `json:"note"`
	Visibility Visibility `json:"visibility"`
	GroupID    string     `json:"group_id,omitempty"`
	Status     Status     `json:"status"`
	CreatedAt  time.Time  `json:"createdAt"`
	UpdatedAt  *time.Time `json:"updatedAt,omitempty"`
}

// CreatePinRequest is the body of POST /pins.
type CreatePinRequest struct {
	Lat        float64 `json:"lat" validate:"min=-90,max=90"`
	Lng        float64 `json:"lng" validate:"min=-180,max=180"`
	Layer      string  `json:"layer" validate:"required,oneof=sumai kurashi manabi asobi other"`
	Tag        string  `json:"tag" validate:"required"`
	Note       string  `json:"note"`
	Visibility string  `json:"visibility" validate:"required,oneof=personal group public"`
	GroupID    string  `json:"group_id"`
}

// UpdatePinRequest is the body of PATCH /pins/{id}. Pointer fields
// distinguish "absent" (leave unchanged) from an explicit value; an explicit
// empty string is a valid update that clears the field.
type UpdatePinRequest struct {
	Tag        *string `json:"tag"`
	Note       *string `json:"note"`
	Visibility *string `json:"visibility" validate:"omitempty,oneof=personal group public"`
	Status     *string `json:"status" validate:"omitempty,oneof=active hidden draft"`
}

// CreatePinResponse is the payload returned on successful creation.
type CreatePinResponse struct {
	ID        string    `json:"id"`
	CreatedAt time.Time `json:"createdAt"`
}

// PinListResponse wraps a page of pins with pagination metadata.
// Total counts all filtered matches before pagination.
type PinListResponse struct {
	Items    []Pin `json:"items"`
	Page     int   `json:"page"`
	PageSize int   `json:"page_size"`
	Total    int   `json:"total"`
}
