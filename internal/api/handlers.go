// ForYouPage - Geographic Link Discovery
// Copyright 2026 Bilal (Bilal292)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/Bilal292/foryoupage

// Package api provides the HTTP boundary: the chi router, middleware, and
// handlers for link submission and pin queries.
package api

import (
	"time"

	"github.com/Bilal292/foryoupage/internal/config"
	"github.com/Bilal292/foryoupage/internal/pipeline"
	"github.com/Bilal292/foryoupage/internal/ratelimit"
	"github.com/Bilal292/foryoupage/internal/storage"
)

// Handler carries the dependencies of all API handlers.
type Handler struct {
	pipeline      *pipeline.Pipeline
	store         storage.PinStore
	strictLimiter *ratelimit.Limiter
	cfg           *config.Config
	startTime     time.Time
}

// NewHandler creates the API handler. The strict limiter guards the
// mutating side endpoints (delete, report) with the tighter policy class.
func NewHandler(p *pipeline.Pipeline, store storage.PinStore, strictLimiter *ratelimit.Limiter, cfg *config.Config) *Handler {
	return &Handler{
		pipeline:      p,
		store:         store,
		strictLimiter: strictLimiter,
		cfg:           cfg,
		startTime:     time.Now(),
	}
}
