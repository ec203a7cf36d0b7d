// ForYouPage - Geographic Link Discovery
// Copyright 2026 Bilal (Bilal292)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/Bilal292/foryoupage

package geo

import (
	"github.com/Bilal292/foryoupage/internal/cache"
)

// MemoryCache adapts the in-process TTL cache to the LocationCache
// interface. This is the default backend.
type MemoryCache struct {
	cache *cache.Cache
}

// NewMemoryCache wraps c as a LocationCache.
func NewMemoryCache(c *cache.Cache) *MemoryCache {
	return &MemoryCache{cache: c}
}

// Get returns the cached coordinate for ip, if present and unexpired.
func (m *MemoryCache) Get(ip string) (Coordinate, bool) {
	value, ok := m.cache.Get(ip)
	if !ok {
		return Coordinate{}, false
	}
	coord, ok := value.(Coordinate)
	return coord, ok
}

// Set caches the coordinate for ip with the cache's default TTL.
func (m *MemoryCache) Set(ip string, coord Coordinate) {
	m.cache.Set(ip, coord)
}
