// ForYouPage - Geographic Link Discovery
// Copyright 2026 Bilal (Bilal292)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/Bilal292/foryoupage

package pipeline

import "net/http"

// Rejection is a terminal, user-visible pipeline outcome: the submission
// was refused for a reason the client can act on. It is distinct from an
// internal failure — rejections are expected traffic and are not logged as
// faults.
type Rejection struct {
	Code    string
	Message string
	Status  int
}

// Error implements the error interface.
func (r *Rejection) Error() string {
	return r.Message
}

// Rejection constructors, one per taxonomy entry.

func rejectValidation(message string) *Rejection {
	return &Rejection{Code: "VALIDATION_ERROR", Message: message, Status: http.StatusBadRequest}
}

func rejectPlatform() *Rejection {
	return &Rejection{
		Code:    "PLATFORM_NOT_ALLOWED",
		Message: "Link does not match any supported platform",
		Status:  http.StatusBadRequest,
	}
}

func rejectExtraction(message string) *Rejection {
	return &Rejection{Code: "EXTRACTION_FAILED", Message: message, Status: http.StatusBadRequest}
}

func rejectRateLimited() *Rejection {
	return &Rejection{
		Code:    "RATE_LIMIT_EXCEEDED",
		Message: "Too many submissions, try again later",
		Status:  http.StatusTooManyRequests,
	}
}
