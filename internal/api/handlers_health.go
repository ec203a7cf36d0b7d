// ForYouPage - Geographic Link Discovery
// Copyright 2026 Bilal (Bilal292)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/Bilal292/foryoupage

package api

import (
	"net/http"
	"time"
)

// Healthz is the liveness probe.
func (h *Handler) Healthz(w http.ResponseWriter, _ *http.Request) {
	respondJSON(w, http.StatusOK, map[string]interface{}{
		"status": "ok",
		"uptime": time.Since(h.startTime).Round(time.Second).String(),
	})
}

// Readyz is the readiness probe: the service is ready when the store
// answers a trivial query.
func (h *Handler) Readyz(w http.ResponseWriter, r *http.Request) {
	// A zero-area bounds query exercises the full read path cheaply.
	if _, err := h.store.PinsInBounds(r.Context(), 0, 0, 0, 0); err != nil {
		respondError(w, http.StatusServiceUnavailable, "DATABASE_ERROR", "Store not ready", err)
		return
	}
	respondJSON(w, http.StatusOK, map[string]interface{}{"status": "ready"})
}
