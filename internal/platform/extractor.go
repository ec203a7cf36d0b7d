// ForYouPage - Geographic Link Discovery
// Copyright 2026 Bilal (Bilal292)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/Bilal292/foryoupage

package platform

import (
	"errors"
	"net/url"
	"regexp"

	"github.com/Bilal292/foryoupage/internal/models"
)

// Extraction errors. Both mean the URL shape is wrong for the platform
// after resolution; ErrPhotoNotAllowed distinguishes a TikTok photo post
// rejected by policy from a shape that never matched.
var (
	ErrNoContentID     = errors.New("url does not contain a recognizable content id")
	ErrPhotoNotAllowed = errors.New("tiktok photo posts are not allowed")
)

var (
	tiktokVideoPattern = regexp.MustCompile(`(?i)tiktok\.com/@[^/]+/video/(\d+)`)
	tiktokPhotoPattern = regexp.MustCompile(`(?i)tiktok\.com/@[^/]+/photo/(\d+)`)
	instagramPattern   = regexp.MustCompile(`(?i)instagram\.com/(?:p|reel)/([A-Za-z0-9_-]+)`)
	redditIDPattern    = regexp.MustCompile(`(?i)reddit\.com/r/[^/]+/comments/([A-Za-z0-9]+)`)
)

// Extractor pulls stable content identifiers out of canonical URLs.
type Extractor struct {
	// AllowTikTokPhotos selects the policy for TikTok /photo/ URLs: when
	// false they are rejected with ErrPhotoNotAllowed, when true the photo
	// ID is extracted like a video ID.
	AllowTikTokPhotos bool
}

// Extract returns the platform-specific content identifier of canonicalURL.
//
// YouTube Shorts has no separate identifier; the canonical URL itself is
// stored, and Extract returns an empty ID with no error. A shape mismatch
// is a data-quality failure: the caller must abort pin creation.
func (e *Extractor) Extract(p models.Platform, canonicalURL string) (string, error) {
	switch p {
	case models.PlatformTikTok:
		return e.extractTikTok(canonicalURL)
	case models.PlatformYouTubeShorts:
		return "", nil
	case models.PlatformInstagram:
		return extractInstagram(canonicalURL)
	case models.PlatformReddit:
		return extractReddit(canonicalURL)
	}
	return "", ErrNoContentID
}

func (e *Extractor) extractTikTok(canonicalURL string) (string, error) {
	if m := tiktokVideoPattern.FindStringSubmatch(canonicalURL); m != nil {
		return m[1], nil
	}
	if m := tiktokPhotoPattern.FindStringSubmatch(canonicalURL); m != nil {
		if !e.AllowTikTokPhotos {
			return "", ErrPhotoNotAllowed
		}
		return m[1], nil
	}
	return "", ErrNoContentID
}

// extractInstagram strips the query string and fragment before matching so
// that share links with tracking parameters extract the same shortcode.
func extractInstagram(canonicalURL string) (string, error) {
	stripped := canonicalURL
	if u, err := url.Parse(canonicalURL); err == nil {
		u.RawQuery = ""
		u.Fragment = ""
		stripped = u.String()
	}
	if m := instagramPattern.FindStringSubmatch(stripped); m != nil {
		return m[1], nil
	}
	return "", ErrNoContentID
}

func extractReddit(canonicalURL string) (string, error) {
	if m := redditIDPattern.FindStringSubmatch(canonicalURL); m != nil {
		return m[1], nil
	}
	return "", ErrNoContentID
}
