// Satomaru - Community Map Annotation Service
// Copyright 2026 Satomaru Project
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/satomaru-project/satomaru

// Package store holds the in-memory pin collection and implements the
// create/get/update/soft-delete/list/export operations, composing the PII
// detector, rate limiter, and audit log. The store is an explicitly owned,
// injectable object; tests instantiate isolated instances.
package store

import (
	"errors"
	"strconv"
	"sync"
	"time"

	"github.com/satomaru-project/satomaru/internal/audit"
	"github.com/satomaru-project/satomaru/internal/models"
	"github.com/satomaru-project/satomaru/internal/pii"
	"github.com/satomaru-project/satomaru/internal/ratelimit"
)

// Sentinel errors for pin operations.
var (
	// ErrNotFound indicates an unknown pin id.
	ErrNotFound = errors.New("pin not found")

	// ErrPIIDetected indicates the note appears to contain personal information.
	ErrPIIDetected = errors.New("note contains possible personal information")

	// ErrRateLimited indicates the same actor/tag/location posted within the window.
	ErrRateLimited = errors.New("rate limited for this location and tag")
)

// BBox is a geographic bounding box: south-west corner to north-east corner.
type BBox struct {
	MinLng float64
	MinLat float64
	MaxLng float64
	MaxLat float64
}

// Contains reports whether the point lies inside the box (inclusive).
func (b BBox) Contains(lat, lng float64) bool {
	return b.MinLng <= lng && lng <= b.MaxLng && b.MinLat <= lat && lat <= b.MaxLat
}

// ListFilter holds the query parameters of GET /pins. Listing always
// restricts to active pins regardless of other filters.
type ListFilter struct {
	BBox     *BBox
	Since    *time.Time
	Until    *time.Time
	Layer    models.Layer
	Tag      string
	Page     int // 1-indexed
	PageSize int // bounded 1-200 by the handler
}

// ExportFilter holds the query parameters of GET /export.csv. Unlike
// listing, export does not restrict by status and ignores bounding box and
// pagination.
type ExportFilter struct {
	Since *time.Time
	Until *time.Time
	Layer models.Layer
	Tag   string
}

// PinStore is the process-memory pin collection. Insertion order is kept so
// that pagination slices are consistent for a fixed, unfiltered ordering.
// Safe for concurrent use.
type PinStore struct {
	mu      sync.RWMutex
	pins    map[string]*models.Pin
	order   []string
	counter int

	detector *pii.Detector
	limiter  *ratelimit.Limiter
	auditLog *audit.Store

	now func() time.Time
}

// New creates a PinStore wired to the given detector, limiter, and audit
// log.
func New(detector *pii.Detector, limiter *ratelimit.Limiter, auditLog *audit.Store) *PinStore {
	return &PinStore{
		pins:     make(map[string]*models.Pin),
		detector: detector,
		limiter:  limiter,
		auditLog: auditLog,
		now:      time.Now,
	}
}

// nextID assigns the next monotonic pin id. Must be called with mu held.
func (s *PinStore) nextID() string {
	s.counter++
	return "pin_" + strconv.Itoa(s.counter)
}

// Create validates the note against the PII detector and the
// actor/tag/location against the rate limiter, then stores a new active pin
// and appends a CREATE audit entry capturing the full record.
func (s *PinStore) Create(actorID string, req *models.CreatePinRequest) (*models.Pin, error) {
	if s.detector.Detect(req.Note) {
		return nil, ErrPIIDetected
	}
	if s.limiter.CheckAndRecord(actorID, req.Lat, req.Lng, req.Tag) {
		return nil, ErrRateLimited
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	pin := &models.Pin{
		ID:         s.nextID(),
		Lat:        req.Lat,
		Lng:        req.Lng,
		Layer:      models.Layer(req.Layer),
		Tag:        req.Tag,
		Note:       req.Note,
		Visibility: models.Visibility(req.Visibility),
		GroupID:    req.GroupID,
		Status:     models.StatusActive,
		CreatedAt:  s.now().UTC(),
	}

	s.pins[pin.ID] = pin
	s.order = append(s.order, pin.ID)

	s.auditLog.RecordCreate(actorID, pin.ID, *pin)

	snapshot := *pin
	return &snapshot, nil
}

// Get returns the pin regardless of status, including hidden pins.
func (s *PinStore) Get(id string) (*models.Pin, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	pin, ok := s.pins[id]
	if !ok {
		return nil, ErrNotFound
	}
	snapshot := *pin
	return &snapshot, nil
}

// Update applies only the fields present in the request. An explicit empty
// string is a valid update value distinct from an absent field. A provided
// note is gated by the PII detector. Appends an UPDATE audit entry with
// full before/after snapshots.
func (s *PinStore) Update(actorID, id string, req *models.UpdatePinRequest) (*models.Pin, error) {
	if req.Note != nil && s.detector.Detect(*req.Note) {
		return nil, ErrPIIDetected
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	pin, ok := s.pins[id]
	if !ok {
		return nil, ErrNotFound
	}

	old := *pin

	if req.Tag != nil {
		pin.Tag = *req.Tag
	}
	if req.Note != nil {
		pin.Note = *req.Note
	}
	if req.Visibility != nil {
		pin.Visibility = models.Visibility(*req.Visibility)
	}
	if req.Status != nil {
		pin.Status = models.Status(*req.Status)
	}

	now := s.now().UTC()
	pin.UpdatedAt = &now

	s.auditLog.RecordUpdate(actorID, id, old, *pin)

	snapshot := *pin
	return &snapshot, nil
}

// SoftDelete marks the pin hidden, retaining the record. Deleting an
// already-hidden pin is a no-op beyond re-timestamping; both cases append a
// DELETE audit entry with the status transition.
func (s *PinStore) SoftDelete(actorID, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	pin, ok := s.pins[id]
	if !ok {
		return ErrNotFound
	}

	oldStatus := pin.Status
	pin.Status = models.StatusHidden
	now := s.now().UTC()
	pin.UpdatedAt = &now

	s.auditLog.RecordDelete(actorID, id, string(oldStatus), string(models.StatusHidden))
	return nil
}

// List returns the requested page of active pins matching the filter, in
// insertion order, plus the total count of all filtered matches before
// pagination.
func (s *PinStore) List(filter *ListFilter) ([]models.Pin, int) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var matched []models.Pin
	for _, id := range s.order {
		pin := s.pins[id]
		if pin.Status != models.StatusActive {
			continue
		}
		if filter.BBox != nil && !filter.BBox.Contains(pin.Lat, pin.Lng) {
			continue
		}
		if !matchesCommon(pin, filter.Since, filter.Until, filter.Layer, filter.Tag) {
			continue
		}
		matched = append(matched, *pin)
	}

	total := len(matched)

	start := (filter.Page - 1) * filter.PageSize
	if start >= total {
		return []models.Pin{}, total
	}
	end := start + filter.PageSize
	if end > total {
		end = total
	}
	return matched[start:end], total
}

// Export returns all pins matching the filter regardless of status, in
// insertion order.
func (s *PinStore) Export(filter *ExportFilter) []models.Pin {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var matched []models.Pin
	for _, id := range s.order {
		pin := s.pins[id]
		if !matchesCommon(pin, filter.Since, filter.Until, filter.Layer, filter.Tag) {
			continue
		}
		matched = append(matched, *pin)
	}
	return matched
}

// Len returns the number of stored pins, hidden included.
func (s *PinStore) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.pins)
}

// matchesCommon applies the time range (inclusive), layer, and tag filters
// shared by listing and export.
func matchesCommon(pin *models.Pin, since, until *time.Time, layer models.Layer, tag string) bool {
	if since != nil && pin.CreatedAt.Before(*since) {
		return false
	}
	if until != nil && pin.CreatedAt.After(*until) {
		return false
	}
	if layer != "" && pin.Layer != layer {
		return false
	}
	if tag != "" && pin.Tag != tag {
		return false
	}
	return true
}
