// ForYouPage - Geographic Link Discovery
// Copyright 2026 Bilal (Bilal292)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/Bilal292/foryoupage

// Package resolver follows redirect chains for known link-shortener URLs to
// obtain the canonical long-form URL. Resolution is best-effort: any
// network failure, timeout, or off-platform redirect target yields the
// original input URL unchanged.
package resolver

import (
	"context"
	"io"
	"net/http"
	"strings"
	"time"

	"golang.org/x/time/rate"

	"github.com/Bilal292/foryoupage/internal/logging"
	"github.com/Bilal292/foryoupage/internal/metrics"
	"github.com/Bilal292/foryoupage/internal/models"
	"github.com/Bilal292/foryoupage/internal/platform"
)

// platformDomains lists the apex domains a resolved URL must still belong
// to. A shortener redirecting anywhere else is treated as a failed
// resolution.
var platformDomains = map[models.Platform]string{
	models.PlatformTikTok:        "tiktok.com",
	models.PlatformYouTubeShorts: "youtube.com",
	models.PlatformInstagram:     "instagram.com",
	models.PlatformReddit:        "reddit.com",
}

// Resolver follows redirects for shortened platform URLs.
type Resolver struct {
	client  *http.Client
	limiter *rate.Limiter
	timeout time.Duration
}

// Config holds resolver settings.
type Config struct {
	// Timeout bounds each outbound resolution, redirects included.
	Timeout time.Duration

	// OutboundPerSecond caps outbound requests across all submissions.
	// 0 means unlimited.
	OutboundPerSecond float64
}

// New creates a Resolver with its own HTTP client. Pass a non-nil client to
// override transport behavior in tests.
func New(cfg Config, client *http.Client) *Resolver {
	if cfg.Timeout <= 0 {
		cfg.Timeout = 5 * time.Second
	}
	if client == nil {
		client = &http.Client{Timeout: cfg.Timeout}
	}

	limiter := rate.NewLimiter(rate.Inf, 1)
	if cfg.OutboundPerSecond > 0 {
		burst := int(cfg.OutboundPerSecond)
		if burst < 1 {
			burst = 1
		}
		limiter = rate.NewLimiter(rate.Limit(cfg.OutboundPerSecond), burst)
	}

	return &Resolver{
		client:  client,
		limiter: limiter,
		timeout: cfg.Timeout,
	}
}

// Resolve returns the canonical form of rawURL for the given platform.
// Non-shortened URLs pass through without a network call. On success the
// final URL is returned only if its host still belongs to the platform's
// domain; otherwise, and on any failure, the input is returned unchanged.
func (r *Resolver) Resolve(ctx context.Context, p models.Platform, rawURL string) string {
	if !platform.IsShortForm(p, rawURL) {
		metrics.ResolutionsTotal.WithLabelValues("passthrough").Inc()
		return rawURL
	}

	ctx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()

	if err := r.limiter.Wait(ctx); err != nil {
		logging.Ctx(ctx).Debug().Str("url", rawURL).Msg("resolver throttle wait aborted")
		return rawURL
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return rawURL
	}

	resp, err := r.client.Do(req)
	if err != nil {
		metrics.ResolutionsTotal.WithLabelValues("failed").Inc()
		logging.Ctx(ctx).Debug().Str("url", rawURL).Err(err).Msg("redirect resolution failed")
		return rawURL
	}
	defer func() {
		_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, 1024))
		_ = resp.Body.Close()
	}()

	final := resp.Request.URL
	if !hostOnPlatform(final.Hostname(), platformDomains[p]) {
		metrics.ResolutionsTotal.WithLabelValues("failed").Inc()
		logging.Ctx(ctx).Debug().
			Str("url", rawURL).
			Str("final_host", final.Hostname()).
			Msg("redirect left platform domain")
		return rawURL
	}

	metrics.ResolutionsTotal.WithLabelValues("resolved").Inc()
	return final.String()
}

// hostOnPlatform reports whether host is the apex domain or a subdomain of it.
func hostOnPlatform(host, domain string) bool {
	if domain == "" {
		return false
	}
	host = strings.ToLower(host)
	return host == domain || strings.HasSuffix(host, "."+domain)
}
