// Satomaru - Community Map Annotation Service
// Copyright 2026 Satomaru Project
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/satomaru-project/satomaru

// Package ratelimit implements the per-location posting limiter.
//
// The policy is one post per (actor, tag, rounded location) key within a
// trailing window: a successful check records a timestamp that blocks any
// further attempt at the same key until it falls out of the window.
package ratelimit

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/satomaru-project/satomaru/internal/logging"
)

// DefaultWindow is used when no window is configured.
const DefaultWindow = 60 * time.Second

// Limiter tracks posting timestamps per composite key.
// Locations are rounded to 4 decimal places (~11m) so that nearby posts
// share a key. Safe for concurrent use.
type Limiter struct {
	mu      sync.Mutex
	windows map[string][]time.Time
	window  time.Duration
	now     func() time.Time
}

// New creates a Limiter with the given window. Non-positive windows fall
// back to DefaultWindow.
func New(window time.Duration) *Limiter {
	if window <= 0 {
		window = DefaultWindow
	}
	return &Limiter{
		windows: make(map[string][]time.Time),
		window:  window,
		now:     time.Now,
	}
}

// Key builds the composite limiter key for an actor posting a tag at a
// location.
func Key(actorID string, lat, lng float64, tag string) string {
	return fmt.Sprintf("%s:%s:%.4f:%.4f", actorID, tag, lat, lng)
}

// CheckAndRecord returns true when the actor is limited for this tag and
// location. Timestamps older than the window are pruned first; if any
// remain the attempt is rejected without recording, otherwise the current
// time is recorded and the attempt is allowed.
func (l *Limiter) CheckAndRecord(actorID string, lat, lng float64, tag string) bool {
	key := Key(actorID, lat, lng, tag)
	now := l.now()
	cutoff := now.Add(-l.window)

	l.mu.Lock()
	defer l.mu.Unlock()

	recent := pruneBefore(l.windows[key], cutoff)
	if len(recent) > 0 {
		l.windows[key] = recent
		return true
	}

	l.windows[key] = append(recent, now)
	return false
}

// Window returns the configured window length.
func (l *Limiter) Window() time.Duration {
	return l.window
}

// Len returns the number of tracked keys, including keys whose timestamps
// have all expired but have not been swept yet.
func (l *Limiter) Len() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.windows)
}

// CleanupStale removes keys with no timestamp inside the window and returns
// the number of keys removed. This bounds memory growth over distinct keys
// without changing the observed limiting behavior.
func (l *Limiter) CleanupStale() int {
	cutoff := l.now().Add(-l.window)

	l.mu.Lock()
	defer l.mu.Unlock()

	removed := 0
	for key, stamps := range l.windows {
		recent := pruneBefore(stamps, cutoff)
		if len(recent) == 0 {
			delete(l.windows, key)
			removed++
			continue
		}
		l.windows[key] = recent
	}
	return removed
}

// StartSweepRoutine runs CleanupStale at the given interval until ctx is
// canceled.
func (l *Limiter) StartSweepRoutine(ctx context.Context, interval time.Duration) {
	go func() {
		ticker := time.NewTicker(interval)
		defer ticker.Stop()

		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				if removed := l.CleanupStale(); removed > 0 {
					logging.Debug().Int("removed", removed).Msg("Swept stale rate limit keys")
				}
			}
		}
	}()
}

// pruneBefore drops timestamps at or before cutoff, preserving order.
func pruneBefore(stamps []time.Time, cutoff time.Time) []time.Time {
	var recent []time.Time
	for _, ts := range stamps {
		if ts.After(cutoff) {
			recent = append(recent, ts)
		}
	}
	return recent
}
