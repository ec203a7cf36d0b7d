// ForYouPage - Geographic Link Discovery
// Copyright 2026 Bilal (Bilal292)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/Bilal292/foryoupage

// Package supervisor runs the long-lived services (HTTP server, geo cache
// janitor) under a Suture supervision tree, bridged into zerolog through
// sutureslog.
package supervisor

import (
	"log/slog"
	"time"

	"github.com/thejerf/suture/v4"
	"github.com/thejerf/sutureslog"

	"github.com/Bilal292/foryoupage/internal/logging"
)

// NewTree creates the root supervisor with suture's default failure
// parameters and event logging through the application logger.
func NewTree() *suture.Supervisor {
	handler := &sutureslog.Handler{Logger: slog.New(logging.NewSlogHandler())}

	return suture.New("foryoupage", suture.Spec{
		EventHook:        handler.MustHook(),
		FailureThreshold: 5.0,
		FailureDecay:     30.0,
		FailureBackoff:   15 * time.Second,
		Timeout:          10 * time.Second,
	})
}
