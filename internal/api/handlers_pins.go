// ForYouPage - Geographic Link Discovery
// Copyright 2026 Bilal (Bilal292)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/Bilal292/foryoupage

package api

import (
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/Bilal292/foryoupage/internal/metrics"
	"github.com/Bilal292/foryoupage/internal/models"
	"github.com/Bilal292/foryoupage/internal/pipeline"
	"github.com/Bilal292/foryoupage/internal/ratelimit"
	"github.com/Bilal292/foryoupage/internal/storage"
)

// SubmitLink handles POST /api/v1/links: the full ingestion pipeline, or a
// classification dry run when checkOnly is set.
func (h *Handler) SubmitLink(w http.ResponseWriter, r *http.Request) {
	var req models.SubmitLinkRequest
	if err := decodeBody(r, &req); err != nil {
		respondError(w, http.StatusBadRequest, "VALIDATION_ERROR", "Malformed request body", nil)
		return
	}

	// Field validation happens inside the pipeline, after its rate-limit
	// check, so over-limit clients see 429 before any 400.
	result, err := h.pipeline.Submit(r.Context(), &req, ratelimit.ClientKey(r))
	if err != nil {
		var rej *pipeline.Rejection
		if errors.As(err, &rej) {
			respondError(w, rej.Status, rej.Code, rej.Message, nil)
			return
		}
		respondError(w, http.StatusInternalServerError, "DATABASE_ERROR", "Could not save the pin", err)
		return
	}

	if result.Check != nil {
		respondJSON(w, http.StatusOK, result.Check)
		return
	}
	respondJSON(w, http.StatusCreated, result.Pin)
}

// PinsInBounds handles GET /api/v1/pins: active pins inside the inclusive
// rectangle given by sw_lat, sw_lng, ne_lat, ne_lng.
func (h *Handler) PinsInBounds(w http.ResponseWriter, r *http.Request) {
	var bounds models.BoundsRequest
	var err error
	if bounds.SWLat, err = queryFloat(r, "sw_lat"); err == nil {
		if bounds.SWLng, err = queryFloat(r, "sw_lng"); err == nil {
			if bounds.NELat, err = queryFloat(r, "ne_lat"); err == nil {
				bounds.NELng, err = queryFloat(r, "ne_lng")
			}
		}
	}
	if err != nil {
		respondError(w, http.StatusBadRequest, "VALIDATION_ERROR", err.Error(), nil)
		return
	}
	if apiErr := validateRequest(&bounds); apiErr != nil {
		respondError(w, http.StatusBadRequest, apiErr.Code, apiErr.Message, nil)
		return
	}

	start := time.Now()
	pins, err := h.store.PinsInBounds(r.Context(), bounds.SWLat, bounds.SWLng, bounds.NELat, bounds.NELng)
	if err != nil {
		respondError(w, http.StatusInternalServerError, "DATABASE_ERROR", "Could not query pins", err)
		return
	}
	respondJSONTimed(w, http.StatusOK, pins, start)
}

// RandomPin handles GET /api/v1/pins/random: one random active pin, for the
// "take me somewhere" map jump.
func (h *Handler) RandomPin(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	pin, err := h.store.RandomPin(r.Context())
	if errors.Is(err, storage.ErrNotFound) {
		respondError(w, http.StatusNotFound, "NOT_FOUND", "No pins exist yet", nil)
		return
	}
	if err != nil {
		respondError(w, http.StatusInternalServerError, "DATABASE_ERROR", "Could not query pins", err)
		return
	}
	respondJSONTimed(w, http.StatusOK, pin, start)
}

// DeactivatePin handles DELETE /api/v1/pins/{id}: soft-deactivation.
func (h *Handler) DeactivatePin(w http.ResponseWriter, r *http.Request) {
	if !h.allowStrict(w, r) {
		return
	}
	id, ok := pinID(w, r)
	if !ok {
		return
	}

	err := h.store.DeactivatePin(r.Context(), id)
	if errors.Is(err, storage.ErrNotFound) {
		respondError(w, http.StatusNotFound, "NOT_FOUND", "Pin not found", nil)
		return
	}
	if err != nil {
		respondError(w, http.StatusInternalServerError, "DATABASE_ERROR", "Could not deactivate pin", err)
		return
	}
	respondJSON(w, http.StatusOK, map[string]interface{}{"id": id, "is_active": false})
}

// ReportPin handles POST /api/v1/pins/{id}/report. Pins reaching the
// configured report threshold are deactivated automatically.
func (h *Handler) ReportPin(w http.ResponseWriter, r *http.Request) {
	if !h.allowStrict(w, r) {
		return
	}
	id, ok := pinID(w, r)
	if !ok {
		return
	}

	count, err := h.store.ReportPin(r.Context(), id, h.cfg.Pipeline.ReportThreshold)
	if errors.Is(err, storage.ErrNotFound) {
		respondError(w, http.StatusNotFound, "NOT_FOUND", "Pin not found", nil)
		return
	}
	if err != nil {
		respondError(w, http.StatusInternalServerError, "DATABASE_ERROR", "Could not report pin", err)
		return
	}
	respondJSON(w, http.StatusOK, map[string]interface{}{"id": id, "report_count": count})
}

// allowStrict enforces the strict per-IP policy class on side endpoints.
func (h *Handler) allowStrict(w http.ResponseWriter, r *http.Request) bool {
	if h.strictLimiter.Allow(ratelimit.ClientKey(r)) {
		return true
	}
	metrics.RateLimitedTotal.WithLabelValues("strict").Inc()
	respondError(w, http.StatusTooManyRequests, "RATE_LIMIT_EXCEEDED", "Too many requests, try again later", nil)
	return false
}

func pinID(w http.ResponseWriter, r *http.Request) (uuid.UUID, bool) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		respondError(w, http.StatusBadRequest, "VALIDATION_ERROR", "id must be a UUID", nil)
		return uuid.Nil, false
	}
	return id, true
}
