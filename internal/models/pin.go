// ForYouPage - Geographic Link Discovery
// Copyright 2026 Bilal (Bilal292)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/Bilal292/foryoupage

// Package models defines the core domain types shared across the
// application: pins, platform link variants, and the API response envelope.
package models

import (
	"time"

	"github.com/google/uuid"
)

// Platform identifies one of the supported source sites.
type Platform string

// Supported platforms, in classification priority order.
const (
	PlatformTikTok        Platform = "tiktok"
	PlatformYouTubeShorts Platform = "youtube_shorts"
	PlatformInstagram     Platform = "instagram"
	PlatformReddit        Platform = "reddit"
)

// Valid reports whether p is one of the supported platforms.
func (p Platform) Valid() bool {
	switch p {
	case PlatformTikTok, PlatformYouTubeShorts, PlatformInstagram, PlatformReddit:
		return true
	}
	return false
}

// Pin is a persisted map marker representing one submitted link at a
// geographic point. Pins are immutable after creation except for soft
// deactivation and the report counter.
type Pin struct {
	ID          uuid.UUID `json:"id"`
	Latitude    float64   `json:"latitude"`
	Longitude   float64   `json:"longitude"`
	CreatedAt   time.Time `json:"created_at"`
	IsActive    bool      `json:"is_active"`
	ReportCount int       `json:"report_count"`

	// Link is the platform-specific record attached 1:1 to this pin.
	// A pin is never persisted without one.
	Link PlatformLink `json:"link"`
}

// PlatformLink carries the platform-specific fields of a pin: the canonical
// (redirect-free) URL and, where the platform has one, the extracted stable
// content identifier. Exactly one PlatformLink exists per Pin.
//
// ContentID is empty for YouTube Shorts, where the canonical URL itself is
// the stored identifier.
type PlatformLink struct {
	Platform     Platform `json:"platform"`
	CanonicalURL string   `json:"canonical_url"`
	ContentID    string   `json:"content_id,omitempty"`
}
