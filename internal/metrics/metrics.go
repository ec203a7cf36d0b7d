// ForYouPage - Geographic Link Discovery
// Copyright 2026 Bilal (Bilal292)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/Bilal292/foryoupage

// Package metrics defines the Prometheus instruments exported at /metrics.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// Ingestion pipeline

	SubmissionsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "fyp_submissions_total",
			Help: "Link submissions by terminal outcome",
		},
		[]string{"outcome"}, // "created", "check_only", "validation", "platform_not_allowed", "extraction_failed", "rate_limited", "storage_error"
	)

	PinsCreatedTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "fyp_pins_created_total",
			Help: "Pins created, by platform",
		},
		[]string{"platform"},
	)

	// Geolocation

	GeoCacheHits = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "fyp_geo_cache_hits_total",
			Help: "IP-location cache hits",
		},
	)

	GeoCacheMisses = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "fyp_geo_cache_misses_total",
			Help: "IP-location cache misses",
		},
	)

	GeoLookupFailures = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "fyp_geo_lookup_failures_total",
			Help: "External geolocation lookups that degraded to the fallback coordinate",
		},
	)

	// Redirect resolution

	ResolutionsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "fyp_redirect_resolutions_total",
			Help: "Redirect-chain resolutions by result",
		},
		[]string{"result"}, // "resolved", "passthrough", "failed"
	)

	// HTTP

	RequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "fyp_http_request_duration_seconds",
			Help:    "HTTP request duration in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "route", "status"},
	)

	RateLimitedTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "fyp_rate_limited_total",
			Help: "Requests rejected by rate limiting, by policy",
		},
		[]string{"policy"}, // "submit", "strict", "global"
	)
)
