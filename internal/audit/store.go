// Satomaru - Community Map Annotation Service
// Copyright 2026 Satomaru Project
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/satomaru-project/satomaru

package audit

import (
	"fmt"
	"sync"
	"time"

	"github.com/goccy/go-json"

	"github.com/satomaru-project/satomaru/internal/logging"
)

// Store is the append-only in-memory audit log. Entry ids are assigned
// sequentially (audit_1, audit_2, ...). Safe for concurrent use.
type Store struct {
	mu      sync.RWMutex
	entries []Entry
	now     func() time.Time
}

// NewStore creates an empty audit store.
func NewStore() *Store {
	return &Store{now: time.Now}
}

// append records an entry with the next sequential id. Must not fail:
// a successful mutation always produces an audit entry.
func (s *Store) append(actorID string, action Action, targetID string, diff interface{}) {
	payload, err := json.Marshal(diff)
	if err != nil {
		// A diff built from our own types should always marshal; keep
		// the trail complete even if it does not.
		logging.Error().Err(err).Str("target_id", targetID).Msg("Failed to marshal audit diff")
		payload = json.RawMessage("{}")
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	s.entries = append(s.entries, Entry{
		ID:         fmt.Sprintf("audit_%d", len(s.entries)+1),
		ActorID:    actorID,
		Action:     action,
		TargetType: TargetTypePin,
		TargetID:   targetID,
		DiffJSON:   payload,
		CreatedAt:  s.now().UTC(),
	})
}

// RecordCreate appends a CREATE entry with the full new record as diff.
func (s *Store) RecordCreate(actorID, targetID string, created interface{}) {
	s.append(actorID, ActionCreate, targetID, created)
}

// RecordUpdate appends an UPDATE entry with full before/after snapshots.
func (s *Store) RecordUpdate(actorID, targetID string, old, updated interface{}) {
	s.append(actorID, ActionUpdate, targetID, UpdateDiff{Old: old, New: updated})
}

// RecordDelete appends a DELETE entry with the status transition.
func (s *Store) RecordDelete(actorID, targetID, oldStatus, newStatus string) {
	s.append(actorID, ActionDelete, targetID, StatusDiff{OldStatus: oldStatus, NewStatus: newStatus})
}

// Query returns entries matching the filter, most recent first.
func (s *Store) Query(filter QueryFilter) []Entry {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var results []Entry
	for i := len(s.entries) - 1; i >= 0; i-- {
		entry := s.entries[i]
		if !matchesFilter(&entry, &filter) {
			continue
		}
		results = append(results, entry)
		if filter.Limit > 0 && len(results) >= filter.Limit {
			break
		}
	}
	return results
}

// matchesFilter returns true if the entry matches all filter criteria.
func matchesFilter(entry *Entry, filter *QueryFilter) bool {
	if filter.ActorID != "" && entry.ActorID != filter.ActorID {
		return false
	}
	if filter.Action != "" && entry.Action != filter.Action {
		return false
	}
	if filter.TargetID != "" && entry.TargetID != filter.TargetID {
		return false
	}
	return true
}

// Len returns the number of recorded entries.
func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.entries)
}

// Last returns the most recent entry, or nil if the log is empty.
func (s *Store) Last() *Entry {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if len(s.entries) == 0 {
		return nil
	}
	entry := s.entries[len(s.entries)-1]
	return &entry
}
