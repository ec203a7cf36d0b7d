// ForYouPage - Geographic Link Discovery
// Copyright 2026 Bilal (Bilal292)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/Bilal292/foryoupage

// Command server runs the ForYouPage API: it ingests social-video links as
// geographic map pins and serves them by bounding box.
package main

import (
	"context"
	"errors"
	"fmt"
	"math/rand"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/Bilal292/foryoupage/internal/api"
	"github.com/Bilal292/foryoupage/internal/cache"
	"github.com/Bilal292/foryoupage/internal/config"
	"github.com/Bilal292/foryoupage/internal/geo"
	"github.com/Bilal292/foryoupage/internal/logging"
	"github.com/Bilal292/foryoupage/internal/pipeline"
	"github.com/Bilal292/foryoupage/internal/platform"
	"github.com/Bilal292/foryoupage/internal/ratelimit"
	"github.com/Bilal292/foryoupage/internal/resolver"
	"github.com/Bilal292/foryoupage/internal/storage"
	"github.com/Bilal292/foryoupage/internal/supervisor"
)

func main() {
	if err := run(); err != nil {
		logging.Fatal().Err(err).Msg("server exited")
	}
}

func run() error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("load configuration: %w", err)
	}

	logging.Init(logging.Config{
		Level:  cfg.Logging.Level,
		Format: cfg.Logging.Format,
	})
	logging.Info().
		Str("host", cfg.Server.Host).
		Int("port", cfg.Server.Port).
		Msg("starting foryoupage")

	store, err := storage.New(&cfg.Database)
	if err != nil {
		return fmt.Errorf("open storage: %w", err)
	}
	defer store.Close()

	// Geo cache backend: in-memory TTL cache by default, Badger when the
	// 24h of lookups are worth persisting across restarts.
	var (
		locationCache geo.LocationCache
		memCache      *cache.Cache
	)
	switch cfg.Geo.CacheBackend {
	case "badger":
		badgerCache, err := geo.NewBadgerCache(cfg.Geo.BadgerPath, cfg.Geo.CacheTTL)
		if err != nil {
			return fmt.Errorf("open badger geo cache: %w", err)
		}
		defer badgerCache.Close()
		locationCache = badgerCache
	default:
		memCache = cache.New(cfg.Geo.CacheTTL)
		locationCache = geo.NewMemoryCache(memCache)
	}

	geoClient := geo.NewClient(cfg.Geo.EndpointURL, cfg.Geo.Timeout, nil)
	locator := geo.NewLocator(locationCache, geoClient.Lookup, geo.Coordinate{
		Latitude:  cfg.Geo.FallbackLatitude,
		Longitude: cfg.Geo.FallbackLongitude,
	})

	rng := rand.New(rand.NewSource(time.Now().UnixNano()))
	sampler := geo.NewRegionSampler(rng)
	jitterer := geo.NewJitterer(rng, cfg.Pipeline.JitterDegrees)

	res := resolver.New(resolver.Config{
		Timeout:           cfg.Resolver.Timeout,
		OutboundPerSecond: cfg.Resolver.OutboundPerSecond,
	}, nil)

	submitLimiter := ratelimit.NewLimiter(cfg.RateLimit.Submit.Requests, cfg.RateLimit.Submit.Window)
	strictLimiter := ratelimit.NewLimiter(cfg.RateLimit.Strict.Requests, cfg.RateLimit.Strict.Window)

	ingest := pipeline.New(
		submitLimiter,
		&platform.Extractor{AllowTikTokPhotos: cfg.Pipeline.AllowTikTokPhotos},
		res,
		locator,
		sampler,
		jitterer,
		store,
	)

	handler := api.NewHandler(ingest, store, strictLimiter, cfg)
	router := api.NewRouter(handler, cfg)

	server := &http.Server{
		Addr:         fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port),
		Handler:      router,
		ReadTimeout:  cfg.Server.Timeout,
		WriteTimeout: cfg.Server.Timeout,
	}

	tree := supervisor.NewTree()
	tree.Add(supervisor.NewHTTPService(server))
	if memCache != nil {
		tree.Add(supervisor.NewJanitorService(memCache, 5*time.Minute))
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	err = tree.Serve(ctx)
	if err != nil && !errors.Is(err, context.Canceled) {
		return err
	}
	logging.Info().Msg("shutdown complete")
	return nil
}
