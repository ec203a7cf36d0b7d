// ForYouPage - Geographic Link Discovery
// Copyright 2026 Bilal (Bilal292)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/Bilal292/foryoupage

// Package ratelimit tracks request counts per client-IP key over a sliding
// window and rejects requests beyond a configured threshold. A rejection is
// a normal, user-visible outcome (HTTP 429), never a fault.
package ratelimit

import (
	"net"
	"net/http"
	"strings"
	"time"

	"github.com/Bilal292/foryoupage/internal/cache"
)

// numBuckets divides each window so counts roll off gradually instead of
// resetting all at once.
const numBuckets = 10

// maxTrackedKeys bounds limiter memory against key-cardinality abuse.
const maxTrackedKeys = 100_000

// Limiter enforces one windowed threshold per key.
type Limiter struct {
	store     *cache.SlidingWindowStore
	threshold int64
}

// NewLimiter creates a limiter allowing `requests` per `window` per key.
func NewLimiter(requests int, window time.Duration) *Limiter {
	return NewLimiterWithClock(requests, window, time.Now)
}

// NewLimiterWithClock creates a limiter with an explicit time source so
// tests can roll the window forward deterministically.
func NewLimiterWithClock(requests int, window time.Duration, now func() time.Time) *Limiter {
	return &Limiter{
		store:     cache.NewSlidingWindowStoreWithClock(window, numBuckets, maxTrackedKeys, now),
		threshold: int64(requests),
	}
}

// Allow records one request for key and reports whether it is within the
// threshold. Increment and check are a single atomic operation, so
// concurrent requests cannot both slip under the limit on its last slot.
func (l *Limiter) Allow(key string) bool {
	return l.store.IncrementAndCount(key) <= l.threshold
}

// ClientKey derives the rate-limit key for a request: the first address in
// the X-Forwarded-For chain when present (the originating client behind
// proxies), otherwise the direct peer address.
func ClientKey(r *http.Request) string {
	if forwarded := r.Header.Get("X-Forwarded-For"); forwarded != "" {
		first := forwarded
		if idx := strings.Index(forwarded, ","); idx >= 0 {
			first = forwarded[:idx]
		}
		if ip := strings.TrimSpace(first); ip != "" {
			return ip
		}
	}

	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}
