// ForYouPage - Geographic Link Discovery
// Copyright 2026 Bilal (Bilal292)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/Bilal292/foryoupage

// Package platform classifies submitted URLs against the supported platform
// registry and extracts per-platform stable content identifiers.
package platform

import (
	"regexp"
	"strings"

	"github.com/Bilal292/foryoupage/internal/models"
)

// pattern is one entry of the platform registry.
type pattern struct {
	platform models.Platform
	match    func(lowerURL string) bool
}

// registry is evaluated in order; the first match wins. Classification is
// case-insensitive over the full URL.
var registry = []pattern{
	{
		platform: models.PlatformTikTok,
		match: func(u string) bool {
			return strings.Contains(u, "tiktok.com/")
		},
	},
	{
		platform: models.PlatformYouTubeShorts,
		match: func(u string) bool {
			return strings.Contains(u, "youtube.com/shorts/")
		},
	},
	{
		platform: models.PlatformInstagram,
		match: func(u string) bool {
			return strings.Contains(u, "instagram.com/p/") ||
				strings.Contains(u, "instagram.com/reel/")
		},
	},
	{
		platform: models.PlatformReddit,
		match: func(u string) bool {
			return redditPostPattern.MatchString(u) || redditShortPattern.MatchString(u)
		},
	},
}

var (
	redditPostPattern  = regexp.MustCompile(`reddit\.com/r/[^/]+/comments/`)
	redditShortPattern = regexp.MustCompile(`reddit\.com/r/[^/]+/s/`)
)

// Classify returns the platform a raw URL belongs to. The second return is
// false when no pattern matches, which is a normal outcome (the link is
// simply not allowed), not an error.
func Classify(rawURL string) (models.Platform, bool) {
	lower := strings.ToLower(rawURL)
	for _, p := range registry {
		if p.match(lower) {
			return p.platform, true
		}
	}
	return "", false
}

// IsShortForm reports whether the URL is a known link-shortener form that
// must be resolved before extraction: TikTok's vm./vt. subdomains and
// Reddit's /s/ short permalinks.
func IsShortForm(p models.Platform, rawURL string) bool {
	lower := strings.ToLower(rawURL)
	switch p {
	case models.PlatformTikTok:
		return strings.Contains(lower, "vm.tiktok.com/") || strings.Contains(lower, "vt.tiktok.com/")
	case models.PlatformReddit:
		return redditShortPattern.MatchString(lower)
	}
	return false
}
