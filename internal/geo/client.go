// ForYouPage - Geographic Link Discovery
// Copyright 2026 Bilal (Bilal292)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/Bilal292/foryoupage

package geo

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/goccy/go-json"
	gobreaker "github.com/sony/gobreaker/v2"
)

// ErrLookupFailed wraps every client-side geolocation failure so callers
// can treat all of them as one degradable condition.
var ErrLookupFailed = errors.New("ip geolocation lookup failed")

// lookupResponse is the subset of the geolocation API body we read.
type lookupResponse struct {
	Latitude  *float64 `json:"latitude"`
	Longitude *float64 `json:"longitude"`
}

// Client calls the external IP-geolocation HTTP API
// (GET {base}/api/json/{ip}) behind a circuit breaker, so a provider
// outage stops producing outbound calls instead of 5s timeouts per request.
type Client struct {
	baseURL string
	http    *http.Client
	breaker *gobreaker.CircuitBreaker[Coordinate]
}

// NewClient creates a geolocation client. Pass a non-nil httpClient to
// override transport behavior in tests.
func NewClient(baseURL string, timeout time.Duration, httpClient *http.Client) *Client {
	if httpClient == nil {
		httpClient = &http.Client{Timeout: timeout}
	}

	breaker := gobreaker.NewCircuitBreaker[Coordinate](gobreaker.Settings{
		Name:     "geolocation",
		Interval: time.Minute,
		Timeout:  30 * time.Second,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= 5
		},
	})

	return &Client{
		baseURL: baseURL,
		http:    httpClient,
		breaker: breaker,
	}
}

// Lookup resolves ip to a coordinate via the external API. Any transport
// error, non-200 status, malformed body, missing field, or out-of-range
// coordinate returns an error wrapping ErrLookupFailed.
func (c *Client) Lookup(ctx context.Context, ip string) (Coordinate, error) {
	return c.breaker.Execute(func() (Coordinate, error) {
		return c.lookup(ctx, ip)
	})
}

func (c *Client) lookup(ctx context.Context, ip string) (Coordinate, error) {
	url := fmt.Sprintf("%s/api/json/%s", c.baseURL, ip)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return Coordinate{}, fmt.Errorf("%w: %v", ErrLookupFailed, err)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return Coordinate{}, fmt.Errorf("%w: %v", ErrLookupFailed, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return Coordinate{}, fmt.Errorf("%w: status %d", ErrLookupFailed, resp.StatusCode)
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, 1<<16))
	if err != nil {
		return Coordinate{}, fmt.Errorf("%w: %v", ErrLookupFailed, err)
	}

	var parsed lookupResponse
	if err := json.Unmarshal(body, &parsed); err != nil {
		return Coordinate{}, fmt.Errorf("%w: %v", ErrLookupFailed, err)
	}
	if parsed.Latitude == nil || parsed.Longitude == nil {
		return Coordinate{}, fmt.Errorf("%w: response missing coordinates", ErrLookupFailed)
	}

	coord := Coordinate{Latitude: *parsed.Latitude, Longitude: *parsed.Longitude}
	if !coord.InBounds() {
		return Coordinate{}, fmt.Errorf("%w: coordinates out of range", ErrLookupFailed)
	}
	return coord, nil
}
