// ForYouPage - Geographic Link Discovery
// Copyright 2026 Bilal (Bilal292)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/Bilal292/foryoupage

// Package pipeline orchestrates link ingestion: rate limit → validate →
// classify → resolve → extract → acquire coordinate → jitter → persist.
//
// Every terminal refusal is a *Rejection carrying the API error code and
// HTTP status; transient network failures never surface here because the
// resolver and locator degrade internally.
package pipeline

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"time"

	"github.com/google/uuid"

	"github.com/Bilal292/foryoupage/internal/geo"
	"github.com/Bilal292/foryoupage/internal/logging"
	"github.com/Bilal292/foryoupage/internal/metrics"
	"github.com/Bilal292/foryoupage/internal/models"
	"github.com/Bilal292/foryoupage/internal/platform"
	"github.com/Bilal292/foryoupage/internal/ratelimit"
	"github.com/Bilal292/foryoupage/internal/storage"
	"github.com/Bilal292/foryoupage/internal/validation"
)

// LinkResolver yields the canonical form of a possibly shortened URL.
// Implemented by *resolver.Resolver; tests substitute fakes.
type LinkResolver interface {
	Resolve(ctx context.Context, p models.Platform, rawURL string) string
}

// CoordinateLocator resolves a client IP to an approximate coordinate.
type CoordinateLocator interface {
	Locate(ctx context.Context, clientIP string) geo.Coordinate
}

// CoordinateSampler draws a weighted-random coordinate.
type CoordinateSampler interface {
	Sample() geo.Coordinate
}

// CoordinateJitterer perturbs a coordinate for display declumping.
type CoordinateJitterer interface {
	Jitter(geo.Coordinate) geo.Coordinate
}

// Pipeline is the link-ingestion orchestrator. All dependencies are
// injected; the pipeline owns no shared state of its own.
type Pipeline struct {
	limiter   *ratelimit.Limiter
	extractor *platform.Extractor
	resolver  LinkResolver
	locator   CoordinateLocator
	sampler   CoordinateSampler
	jitterer  CoordinateJitterer
	store     storage.PinStore
	now       func() time.Time
	newID     func() uuid.UUID
}

// New creates a Pipeline.
func New(
	limiter *ratelimit.Limiter,
	extractor *platform.Extractor,
	res LinkResolver,
	locator CoordinateLocator,
	sampler CoordinateSampler,
	jitterer CoordinateJitterer,
	store storage.PinStore,
) *Pipeline {
	return &Pipeline{
		limiter:   limiter,
		extractor: extractor,
		resolver:  res,
		locator:   locator,
		sampler:   sampler,
		jitterer:  jitterer,
		store:     store,
		now:       time.Now,
		newID:     uuid.New,
	}
}

// WithClock overrides the time source (tests).
func (p *Pipeline) WithClock(now func() time.Time) *Pipeline {
	p.now = now
	return p
}

// Result is the successful outcome of a submission: either a created pin or
// a check-only classification.
type Result struct {
	Pin   *models.Pin
	Check *models.CheckLinkResult
}

// Submit runs one link submission through the pipeline. clientIP is the
// already-derived originating client address (see ratelimit.ClientKey).
// The returned error is either a *Rejection or an internal storage error.
func (p *Pipeline) Submit(ctx context.Context, req *models.SubmitLinkRequest, clientIP string) (*Result, error) {
	if !p.limiter.Allow(clientIP) {
		metrics.SubmissionsTotal.WithLabelValues("rate_limited").Inc()
		metrics.RateLimitedTotal.WithLabelValues("submit").Inc()
		return nil, rejectRateLimited()
	}

	// Validation runs after the limiter on purpose: a client over its limit
	// gets 429 regardless of what it sent.
	if verr := validation.ValidateStruct(req); verr != nil {
		metrics.SubmissionsTotal.WithLabelValues("validation").Inc()
		return nil, rejectValidation(verr.Error())
	}
	if rej := validateLink(req); rej != nil {
		metrics.SubmissionsTotal.WithLabelValues("validation").Inc()
		return nil, rej
	}

	kind, ok := platform.Classify(req.Link)
	if !ok {
		metrics.SubmissionsTotal.WithLabelValues("platform_not_allowed").Inc()
		return nil, rejectPlatform()
	}

	if req.CheckOnly {
		metrics.SubmissionsTotal.WithLabelValues("check_only").Inc()
		return &Result{Check: &models.CheckLinkResult{Platform: kind, Allowed: true}}, nil
	}

	canonical := p.resolver.Resolve(ctx, kind, req.Link)

	contentID, err := p.extractor.Extract(kind, canonical)
	if err != nil {
		metrics.SubmissionsTotal.WithLabelValues("extraction_failed").Inc()
		if errors.Is(err, platform.ErrPhotoNotAllowed) {
			return nil, rejectExtraction("TikTok photo posts are not supported")
		}
		return nil, rejectExtraction("Could not find a content identifier in the link")
	}

	coord := p.acquireCoordinate(ctx, req, clientIP)
	coord = p.jitterer.Jitter(coord)

	pin := &models.Pin{
		ID:        p.newID(),
		Latitude:  coord.Latitude,
		Longitude: coord.Longitude,
		CreatedAt: p.now().UTC(),
		IsActive:  true,
		Link: models.PlatformLink{
			Platform:     kind,
			CanonicalURL: canonical,
			ContentID:    contentID,
		},
	}

	if err := p.store.CreatePin(ctx, pin); err != nil {
		metrics.SubmissionsTotal.WithLabelValues("storage_error").Inc()
		return nil, fmt.Errorf("persist pin: %w", err)
	}

	metrics.SubmissionsTotal.WithLabelValues("created").Inc()
	metrics.PinsCreatedTotal.WithLabelValues(string(kind)).Inc()
	logging.Ctx(ctx).Info().
		Str("pin_id", pin.ID.String()).
		Str("platform", string(kind)).
		Msg("pin created")

	return &Result{Pin: pin}, nil
}

// acquireCoordinate applies the coordinate-source precedence:
// client-supplied > random-requested > IP-derived.
func (p *Pipeline) acquireCoordinate(ctx context.Context, req *models.SubmitLinkRequest, clientIP string) geo.Coordinate {
	if req.LocationType == "selected" && req.Latitude != nil && req.Longitude != nil {
		return geo.Coordinate{Latitude: *req.Latitude, Longitude: *req.Longitude}
	}
	if req.LocationType == "random" {
		return p.sampler.Sample()
	}
	return p.locator.Locate(ctx, clientIP)
}

// validateLink checks basic URL well-formedness. Only absolute http/https
// URLs with a host are accepted.
func validateLink(req *models.SubmitLinkRequest) *Rejection {
	if req.Link == "" {
		return rejectValidation("link is required")
	}
	parsed, err := url.Parse(req.Link)
	if err != nil {
		return rejectValidation("link is not a valid URL")
	}
	if parsed.Scheme != "http" && parsed.Scheme != "https" {
		return rejectValidation("link must use http or https")
	}
	if parsed.Host == "" {
		return rejectValidation("link must be an absolute URL")
	}
	if req.LocationType == "selected" && (req.Latitude == nil || req.Longitude == nil) {
		return rejectValidation("latitude and longitude are required for selected location")
	}
	return nil
}
