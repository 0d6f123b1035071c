// Satomaru - Community Map Annotation Service
// Copyright 2026 Satomaru Project
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/satomaru-project/satomaru

// Package audit records an append-only trail of successful pin mutations.
// Entries are never mutated or deleted, are owned exclusively by the
// process, and are lost on restart.
package audit

import (
	"time"

	"github.com/goccy/go-json"
)

// Action categorizes a mutation.
type Action string

const (
	ActionCreate Action = "CREATE"
	ActionUpdate Action = "UPDATE"
	ActionDelete Action = "DELETE"
)

// TargetTypePin is the only target type recorded today.
const TargetTypePin = "pin"

// Entry is a single audit record. The diff payload depends on the action:
// a full snapshot for CREATE, an {old,new} pair for UPDATE, and an
// {old_status,new_status} pair for DELETE.
type Entry struct {
	ID         string          `json:"id"`
	ActorID    string          `json:"actor_id"`
	Action     Action          `json:"action"`
	TargetType string          `json:"target_type"`
	TargetID   string          `json:"target_id"`
	DiffJSON   json.RawMessage `json:"diff_json"`
	CreatedAt  time.Time       `json:"created_at"`
}

// UpdateDiff is the diff payload for UPDATE entries.
type UpdateDiff struct {
	Old interface{} `json:"old"`
	New interface{} `json:"new"`
}

// StatusDiff is the diff payload for DELETE entries.
type StatusDiff struct {
	OldStatus string `json:"old_status"`
	NewStatus string `json:"new_status"`
}

// QueryFilter defines filtering options for audit queries.
type QueryFilter struct {
	// ActorID filters by actor.
	ActorID string

	// Action filters by mutation type.
	Action Action

	// TargetID filters by target pin id.
	TargetID string

	// Limit is the maximum number of results, most recent first.
	// Zero means no limit.
	Limit int
}
