// ForYouPage - Geographic Link Discovery
// Copyright 2026 Bilal (Bilal292)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/Bilal292/foryoupage

package geo

import (
	"context"
	"net"

	"github.com/Bilal292/foryoupage/internal/logging"
	"github.com/Bilal292/foryoupage/internal/metrics"
)

// LocationCache stores IP→coordinate entries with a TTL owned by the
// backend. Implementations must be safe for concurrent use. A few duplicate
// external lookups racing on the same cold key are acceptable; strict
// single-flight is not required.
type LocationCache interface {
	Get(ip string) (Coordinate, bool)
	Set(ip string, coord Coordinate)
}

// LookupFunc resolves an IP to a coordinate via the external service.
type LookupFunc func(ctx context.Context, ip string) (Coordinate, error)

// Locator resolves client IPs to approximate coordinates. It never returns
// an error: loopback traffic and every lookup failure degrade to the fixed
// fallback coordinate, and failures are not cached so a transient provider
// outage heals on the next request.
type Locator struct {
	cache    LocationCache
	lookup   LookupFunc
	fallback Coordinate
}

// NewLocator creates a Locator over the given cache and lookup function.
func NewLocator(cache LocationCache, lookup LookupFunc, fallback Coordinate) *Locator {
	return &Locator{
		cache:    cache,
		lookup:   lookup,
		fallback: fallback,
	}
}

// Locate returns an approximate coordinate for clientIP.
func (l *Locator) Locate(ctx context.Context, clientIP string) Coordinate {
	if isLoopback(clientIP) {
		return l.fallback
	}

	if coord, ok := l.cache.Get(clientIP); ok {
		metrics.GeoCacheHits.Inc()
		return coord
	}
	metrics.GeoCacheMisses.Inc()

	coord, err := l.lookup(ctx, clientIP)
	if err != nil {
		metrics.GeoLookupFailures.Inc()
		logging.Ctx(ctx).Debug().Str("ip", clientIP).Err(err).Msg("geolocation degraded to fallback")
		return l.fallback
	}

	l.cache.Set(clientIP, coord)
	return coord
}

// isLoopback reports whether ip is a loopback address (local/dev traffic).
// Unparseable addresses are treated as loopback rather than sent to the
// external service.
func isLoopback(ip string) bool {
	parsed := net.ParseIP(ip)
	if parsed == nil {
		return true
	}
	return parsed.IsLoopback()
}
