// Satomaru - Community Map Annotation Service
// Copyright 2026 Satomaru Project
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/satomaru-project/satomaru

// Package metrics provides Prometheus instrumentation for the API:
// request latency and throughput, pin mutation counts, and the rejection
// counters for the PII and rate-limit gates.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// API endpoint metrics
	APIRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "api_requests_total",
			Help: "Total number of API requests",
		},
		[]string{"method", "path", "status"},
	)

	APIRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "api_request_duration_seconds",
			Help:    "Duration of API requests in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "path"},
	)

	APIActiveRequests = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "api_active_requests",
			Help: "Current number of in-flight API requests",
		},
	)

	// Pin lifecycle metrics
	PinsCreatedTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "pins_created_total",
			Help: "Total number of pins created",
		},
	)

	PinsHiddenTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "pins_hidden_total",
			Help: "Total number of pins soft-deleted",
		},
	)

	// Gate rejection metrics
	PIIRejectionsTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "pii_rejections_total",
			Help: "Total number of create/update attempts rejected by the PII detector",
		},
	)

	RateLimitedTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "pins_rate_limited_total",
			Help: "Total number of create attempts rejected by the posting limiter",
		},
	)
)

// RecordAPIRequest records a completed API request.
func RecordAPIRequest(method, path, status string, duration time.Duration) {
	APIRequestsTotal.WithLabelValues(method, path, status).Inc()
	APIRequestDuration.WithLabelValues(method, path).Observe(duration.Seconds())
}

// TrackActiveRequest increments or decrements the in-flight request gauge.
func TrackActiveRequest(active bool) {
	if active {
		APIActiveRequests.Inc()
	} else {
		APIActiveRequests.Dec()
	}
}
