// Satomaru - Community Map Annotation Service
// Copyright 2026 Satomaru Project
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/satomaru-project/satomaru

// Package pii provides a heuristic detector for personal information in
// free-text pin notes. It is a gate, not a guarantee: false positives and
// false negatives are accepted behavior.
package pii

import (
	"regexp"
)

// patterns is the fixed, ordered set of matchers: phone numbers with and
// without hyphens, email addresses, and Japanese postal codes with and
// without the 〒 marker. Order matters only for which pattern short-circuits
// first; the result is the same either way.
var patterns = []*regexp.Regexp{
	regexp.MustCompile(`\d{3}-\d{4}-\d{4}`),
	regexp.MustCompile(`\d{11}`),
	regexp.MustCompile(`[a-zA-Z0-9._%+-]+@[a-zA-Z0-9.-]+\.[a-zA-Z]{2,}`),
	regexp.MustCompile(`〒\d{3}-\d{4}`),
	regexp.MustCompile(`\d{3}-\d{4}`),
}

// Detector matches free text against the fixed PII pattern set.
// The zero value is not usable; construct with New.
type Detector struct {
	patterns []*regexp.Regexp
}

// New returns a Detector using the fixed pattern set.
func New() *Detector {
	return &Detector{patterns: patterns}
}

// Detect reports whether text matches any PII pattern.
// Empty text never matches.
func (d *Detector) Detect(text string) bool {
	if text == "" {
		return false
	}
	for _, p := range d.patterns {
		if p.MatchString(text) {
			return true
		}
	}
	return false
}
