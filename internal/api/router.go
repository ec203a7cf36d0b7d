// ForYouPage - Geographic Link Discovery
// Copyright 2026 Bilal (Bilal292)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/Bilal292/foryoupage

package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/go-chi/httprate"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/Bilal292/foryoupage/internal/config"
	"github.com/Bilal292/foryoupage/internal/metrics"
	"github.com/Bilal292/foryoupage/internal/ratelimit"
)

// NewRouter assembles the chi router: CORS, request IDs, access logging,
// Prometheus instrumentation, a coarse global rate limit, and the API
// routes. The per-endpoint policy limits live inside the pipeline and the
// strict handler guard, not here.
func NewRouter(h *Handler, cfg *config.Config) chi.Router {
	r := chi.NewRouter()

	r.Use(chimiddleware.RealIP)
	r.Use(RequestIDWithLogging())
	r.Use(AccessLog())
	r.Use(PrometheusMetrics())
	r.Use(chimiddleware.Recoverer)

	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: cfg.Server.CORSOrigins,
		AllowedMethods: []string{"GET", "POST", "DELETE", "OPTIONS"},
		AllowedHeaders: []string{"Content-Type"},
		MaxAge:         86400,
	}))

	if !cfg.RateLimit.Disabled {
		r.Use(httprate.Limit(
			cfg.RateLimit.Global.Requests,
			cfg.RateLimit.Global.Window,
			httprate.WithKeyFuncs(func(r *http.Request) (string, error) {
				return ratelimit.ClientKey(r), nil
			}),
			httprate.WithLimitHandler(func(w http.ResponseWriter, r *http.Request) {
				metrics.RateLimitedTotal.WithLabelValues("global").Inc()
				respondError(w, http.StatusTooManyRequests, "RATE_LIMIT_EXCEEDED",
					"Too many requests, try again later", nil)
			}),
		))
	}

	r.Get("/healthz", h.Healthz)
	r.Get("/readyz", h.Readyz)
	r.Handle("/metrics", promhttp.Handler())

	r.Route("/api/v1", func(r chi.Router) {
		r.Post("/links", h.SubmitLink)
		r.Route("/pins", func(r chi.Router) {
			r.Get("/", h.PinsInBounds)
			r.Get("/random", h.RandomPin)
			r.Delete("/{id}", h.DeactivatePin)
			r.Post("/{id}/report", h.ReportPin)
		})
	})

	return r
}
