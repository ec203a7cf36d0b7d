// ForYouPage - Geographic Link Discovery
// Copyright 2026 Bilal (Bilal292)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/Bilal292/foryoupage

package models

import (
	"time"
)

// APIResponse is the standardized response wrapper used by all HTTP endpoints.
// It provides a consistent structure for both successful and error responses.
//
// Status field values:
//   - "success": Request completed successfully, see Data field
//   - "error": Request failed, see Error field for details
//
// Example error response:
//
//	{
//	  "status": "error",
//	  "error": {
//	    "code": "PLATFORM_NOT_ALLOWED",
//	    "message": "Link does not match any supported platform"
//	  },
//	  "metadata": {"timestamp": "2026-08-31T12:00:00Z"}
//	}
type APIResponse struct {
	Status   string      `json:"status"`
	Data     interface{} `json:"data"`
	Metadata Metadata    `json:"metadata"`
	Error    *APIError   `json:"error,omitempty"`
}

// Metadata contains response metadata for observability.
type Metadata struct {
	Timestamp   time.Time `json:"timestamp"`
	QueryTimeMS int64     `json:"query_time_ms,omitempty"`
}

// APIError represents an error response with structured details.
//
// Error codes used by this service:
//   - VALIDATION_ERROR: malformed or missing input (bad URL, bad bounds)
//   - PLATFORM_NOT_ALLOWED: the link matches no supported platform
//   - EXTRACTION_FAILED: the resolved URL has no recognizable content ID
//   - RATE_LIMIT_EXCEEDED: too many requests from this client
//   - NOT_FOUND: resource doesn't exist
//   - DATABASE_ERROR: persistence failure
type APIError struct {
	Code    string                 `json:"code"`
	Message string                 `json:"message"`
	Details map[string]interface{} `json:"details,omitempty"`
}

// SubmitLinkRequest is the body of POST /api/v1/links.
//
// Coordinate precedence: an explicit latitude/longitude pair
// (LocationType "selected") wins over a requested random draw
// (LocationType "random"), which wins over IP-derived geolocation.
type SubmitLinkRequest struct {
	Link         string   `json:"link" validate:"required,max=2048"`
	CheckOnly    bool     `json:"checkOnly"`
	LocationType string   `json:"locationType" validate:"omitempty,oneof=selected random"`
	Latitude     *float64 `json:"latitude" validate:"omitempty,latitude"`
	Longitude    *float64 `json:"longitude" validate:"omitempty,longitude"`
}

// CheckLinkResult is the payload returned for checkOnly submissions.
type CheckLinkResult struct {
	Platform Platform `json:"platform"`
	Allowed  bool     `json:"allowed"`
}

// BoundsRequest holds the parsed query parameters of GET /api/v1/pins.
// The rectangle is inclusive on all edges.
type BoundsRequest struct {
	SWLat float64 `validate:"latitude"`
	SWLng float64 `validate:"longitude"`
	NELat float64 `validate:"latitude"`
	NELng float64 `validate:"longitude"`
}
