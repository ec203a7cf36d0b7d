// ForYouPage - Geographic Link Discovery
// Copyright 2026 Bilal (Bilal292)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/Bilal292/foryoupage

package supervisor

import (
	"context"
	"time"

	"github.com/Bilal292/foryoupage/internal/cache"
	"github.com/Bilal292/foryoupage/internal/logging"
)

// JanitorService periodically sweeps expired entries out of the in-memory
// geo cache. The cache itself runs no background goroutine; its lifecycle
// belongs here, under supervision.
type JanitorService struct {
	cache    *cache.Cache
	interval time.Duration
}

// NewJanitorService creates a janitor sweeping cache every interval.
func NewJanitorService(c *cache.Cache, interval time.Duration) *JanitorService {
	if interval <= 0 {
		interval = 5 * time.Minute
	}
	return &JanitorService{cache: c, interval: interval}
}

// Serve implements suture.Service.
func (j *JanitorService) Serve(ctx context.Context) error {
	ticker := time.NewTicker(j.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			if evicted := j.cache.Cleanup(); evicted > 0 {
				logging.Debug().Int("evicted", evicted).Msg("geo cache cleanup")
			}
		}
	}
}

func (j *JanitorService) String() string {
	return "geo-cache-janitor"
}
