// ForYouPage - Geographic Link Discovery
// Copyright 2026 Bilal (Bilal292)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/Bilal292/foryoupage

package pipeline

import (
	"context"
	"errors"
	"net/http"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/Bilal292/foryoupage/internal/geo"
	"github.com/Bilal292/foryoupage/internal/models"
	"github.com/Bilal292/foryoupage/internal/platform"
	"github.com/Bilal292/foryoupage/internal/ratelimit"
	"github.com/Bilal292/foryoupage/internal/storage"
)

type fakeResolver struct {
	canonical map[string]string
	calls     int
}

func (f *fakeResolver) Resolve(_ context.Context, _ models.Platform, rawURL string) string {
	f.calls++
	if c, ok := f.canonical[rawURL]; ok {
		return c
	}
	return rawURL
}

type fakeLocator struct {
	coord geo.Coordinate
	calls int
}

func (f *fakeLocator) Locate(context.Context, string) geo.Coordinate {
	f.calls++
	return f.coord
}

type fakeSampler struct {
	coord geo.Coordinate
	calls int
}

func (f *fakeSampler) Sample() geo.Coordinate {
	f.calls++
	return f.coord
}

// identityJitterer keeps coordinates exact so tests can assert on them.
type identityJitterer struct{}

func (identityJitterer) Jitter(c geo.Coordinate) geo.Coordinate { return c }

type fakeStore struct {
	created   []*models.Pin
	createErr error
}

func (f *fakeStore) CreatePin(_ context.Context, pin *models.Pin) error {
	if f.createErr != nil {
		return f.createErr
	}
	f.created = append(f.created, pin)
	return nil
}

func (f *fakeStore) PinsInBounds(context.Context, float64, float64, float64, float64) ([]models.Pin, error) {
	return nil, nil
}

func (f *fakeStore) RandomPin(context.Context) (*models.Pin, error) {
	return nil, storage.ErrNotFound
}

func (f *fakeStore) DeactivatePin(context.Context, uuid.UUID) error { return nil }

func (f *fakeStore) ReportPin(context.Context, uuid.UUID, int) (int, error) { return 0, nil }

type testHarness struct {
	pipeline *Pipeline
	resolver *fakeResolver
	locator  *fakeLocator
	sampler  *fakeSampler
	store    *fakeStore
}

func newHarness(requests int) *testHarness {
	res := &fakeResolver{canonical: map[string]string{}}
	loc := &fakeLocator{coord: geo.Coordinate{Latitude: 51.5, Longitude: -0.12}}
	smp := &fakeSampler{coord: geo.Coordinate{Latitude: 35.6, Longitude: 139.7}}
	st := &fakeStore{}
	p := New(
		ratelimit.NewLimiter(requests, time.Minute),
		&platform.Extractor{},
		res, loc, smp, identityJitterer{}, st,
	)
	return &testHarness{pipeline: p, resolver: res, locator: loc, sampler: smp, store: st}
}

func rejection(t *testing.T, err error) *Rejection {
	t.Helper()
	var rej *Rejection
	if !errors.As(err, &rej) {
		t.Fatalf("error %v is not a *Rejection", err)
	}
	return rej
}

func TestSubmitCreatesPin(t *testing.T) {
	h := newHarness(10)
	created := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	h.pipeline.WithClock(func() time.Time { return created })

	req := &models.SubmitLinkRequest{Link: "https://www.tiktok.com/@user/video/7123456789"}
	result, err := h.pipeline.Submit(context.Background(), req, "203.0.113.7")
	if err != nil {
		t.Fatalf("Submit: %v", err)
	}
	pin := result.Pin
	if pin == nil {
		t.Fatal("Submit returned no pin")
	}
	if pin.Link.Platform != models.PlatformTikTok {
		t.Errorf("platform = %s, want tiktok", pin.Link.Platform)
	}
	if pin.Link.ContentID != "7123456789" {
		t.Errorf("content id = %q, want 7123456789", pin.Link.ContentID)
	}
	if !pin.IsActive {
		t.Error("new pin is not active")
	}
	if !pin.CreatedAt.Equal(created) {
		t.Errorf("created at = %v, want %v", pin.CreatedAt, created)
	}
	if pin.Latitude != h.locator.coord.Latitude || pin.Longitude != h.locator.coord.Longitude {
		t.Errorf("coordinates = (%v, %v), want IP-derived %+v", pin.Latitude, pin.Longitude, h.locator.coord)
	}
	if len(h.store.created) != 1 {
		t.Fatalf("store received %d pins, want 1", len(h.store.created))
	}
}

func TestSubmitRateLimited(t *testing.T) {
	h := newHarness(1)
	req := &models.SubmitLinkRequest{Link: "https://www.tiktok.com/@user/video/1"}

	if _, err := h.pipeline.Submit(context.Background(), req, "203.0.113.7"); err != nil {
		t.Fatalf("first submit: %v", err)
	}
	_, err := h.pipeline.Submit(context.Background(), req, "203.0.113.7")
	rej := rejection(t, err)
	if rej.Code != "RATE_LIMIT_EXCEEDED" || rej.Status != http.StatusTooManyRequests {
		t.Errorf("rejection = %+v, want RATE_LIMIT_EXCEEDED/429", rej)
	}

	// Different client is unaffected.
	if _, err := h.pipeline.Submit(context.Background(), req, "198.51.100.4"); err != nil {
		t.Errorf("other client submit: %v", err)
	}
}

func TestSubmitValidation(t *testing.T) {
	lat := 10.0
	tests := []struct {
		name string
		req  *models.SubmitLinkRequest
	}{
		{"empty link", &models.SubmitLinkRequest{Link: ""}},
		{"bad scheme", &models.SubmitLinkRequest{Link: "ftp://tiktok.com/x"}},
		{"relative url", &models.SubmitLinkRequest{Link: "/just/a/path"}},
		{"selected without coords", &models.SubmitLinkRequest{
			Link: "https://www.tiktok.com/@u/video/1", LocationType: "selected",
		}},
		{"selected missing longitude", &models.SubmitLinkRequest{
			Link: "https://www.tiktok.com/@u/video/1", LocationType: "selected", Latitude: &lat,
		}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := newHarness(10)
			_, err := h.pipeline.Submit(context.Background(), tt.req, "203.0.113.7")
			rej := rejection(t, err)
			if rej.Code != "VALIDATION_ERROR" || rej.Status != http.StatusBadRequest {
				t.Errorf("rejection = %+v, want VALIDATION_ERROR/400", rej)
			}
			if len(h.store.created) != 0 {
				t.Error("rejected submission was persisted")
			}
		})
	}
}

func TestSubmitFieldValidation(t *testing.T) {
	lat := 95.0
	tests := []struct {
		name string
		req  *models.SubmitLinkRequest
	}{
		{"bad location type", &models.SubmitLinkRequest{
			Link: "https://www.tiktok.com/@u/video/1", LocationType: "moon",
		}},
		{"latitude out of range", &models.SubmitLinkRequest{
			Link: "https://www.tiktok.com/@u/video/1", Latitude: &lat,
		}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := newHarness(10)
			_, err := h.pipeline.Submit(context.Background(), tt.req, "203.0.113.7")
			rej := rejection(t, err)
			if rej.Code != "VALIDATION_ERROR" || rej.Status != http.StatusBadRequest {
				t.Errorf("rejection = %+v, want VALIDATION_ERROR/400", rej)
			}
		})
	}
}

func TestSubmitRateLimitCheckedBeforeValidation(t *testing.T) {
	h := newHarness(1)
	valid := &models.SubmitLinkRequest{Link: "https://www.tiktok.com/@u/video/1"}
	if _, err := h.pipeline.Submit(context.Background(), valid, "203.0.113.7"); err != nil {
		t.Fatalf("first submit: %v", err)
	}

	// An over-limit client sees 429 even when the body is also invalid.
	invalid := &models.SubmitLinkRequest{Link: "https://x.com", LocationType: "moon"}
	_, err := h.pipeline.Submit(context.Background(), invalid, "203.0.113.7")
	rej := rejection(t, err)
	if rej.Code != "RATE_LIMIT_EXCEEDED" || rej.Status != http.StatusTooManyRequests {
		t.Errorf("rejection = %+v, want RATE_LIMIT_EXCEEDED/429", rej)
	}
}

func TestSubmitUnsupportedPlatform(t *testing.T) {
	h := newHarness(10)
	req := &models.SubmitLinkRequest{Link: "https://example.com/video/123"}

	_, err := h.pipeline.Submit(context.Background(), req, "203.0.113.7")
	rej := rejection(t, err)
	if rej.Code != "PLATFORM_NOT_ALLOWED" {
		t.Errorf("code = %s, want PLATFORM_NOT_ALLOWED", rej.Code)
	}
	if h.resolver.calls != 0 {
		t.Error("unsupported link reached the resolver")
	}
}

func TestSubmitCheckOnly(t *testing.T) {
	h := newHarness(10)
	req := &models.SubmitLinkRequest{
		Link:      "https://www.youtube.com/shorts/dQw4w9WgXcQ",
		CheckOnly: true,
	}

	result, err := h.pipeline.Submit(context.Background(), req, "203.0.113.7")
	if err != nil {
		t.Fatalf("Submit: %v", err)
	}
	if result.Pin != nil {
		t.Error("check-only submission created a pin")
	}
	if result.Check == nil || result.Check.Platform != models.PlatformYouTubeShorts || !result.Check.Allowed {
		t.Errorf("check result = %+v", result.Check)
	}
	if h.resolver.calls != 0 {
		t.Error("check-only submission triggered resolution")
	}
	if len(h.store.created) != 0 {
		t.Error("check-only submission was persisted")
	}
}

func TestSubmitResolvesShortenedLink(t *testing.T) {
	h := newHarness(10)
	h.resolver.canonical["https://vm.tiktok.com/ZMabc/"] = "https://www.tiktok.com/@user/video/7123456789"

	req := &models.SubmitLinkRequest{Link: "https://vm.tiktok.com/ZMabc/"}
	result, err := h.pipeline.Submit(context.Background(), req, "203.0.113.7")
	if err != nil {
		t.Fatalf("Submit: %v", err)
	}
	if result.Pin.Link.CanonicalURL != "https://www.tiktok.com/@user/video/7123456789" {
		t.Errorf("canonical url = %q", result.Pin.Link.CanonicalURL)
	}
	if result.Pin.Link.ContentID != "7123456789" {
		t.Errorf("content id = %q, want extracted from resolved URL", result.Pin.Link.ContentID)
	}
}

func TestSubmitExtractionFailureDoesNotPersist(t *testing.T) {
	h := newHarness(10)
	// Shortener that fails to resolve: still no content ID to extract.
	req := &models.SubmitLinkRequest{Link: "https://vm.tiktok.com/ZMabc/"}

	_, err := h.pipeline.Submit(context.Background(), req, "203.0.113.7")
	rej := rejection(t, err)
	if rej.Code != "EXTRACTION_FAILED" {
		t.Errorf("code = %s, want EXTRACTION_FAILED", rej.Code)
	}
	if len(h.store.created) != 0 {
		t.Error("failed extraction left a persisted pin")
	}
}

func TestSubmitTikTokPhotoRejectedByDefault(t *testing.T) {
	h := newHarness(10)
	req := &models.SubmitLinkRequest{Link: "https://www.tiktok.com/@user/photo/7123456789"}

	_, err := h.pipeline.Submit(context.Background(), req, "203.0.113.7")
	rej := rejection(t, err)
	if rej.Code != "EXTRACTION_FAILED" {
		t.Errorf("code = %s, want EXTRACTION_FAILED", rej.Code)
	}
}

func TestSubmitCoordinatePrecedence(t *testing.T) {
	lat, lng := -33.87, 151.21

	t.Run("selected beats random and ip", func(t *testing.T) {
		h := newHarness(10)
		req := &models.SubmitLinkRequest{
			Link:         "https://www.tiktok.com/@u/video/1",
			LocationType: "selected",
			Latitude:     &lat,
			Longitude:    &lng,
		}
		result, err := h.pipeline.Submit(context.Background(), req, "203.0.113.7")
		if err != nil {
			t.Fatalf("Submit: %v", err)
		}
		if result.Pin.Latitude != lat || result.Pin.Longitude != lng {
			t.Errorf("coordinates = (%v, %v), want client-supplied", result.Pin.Latitude, result.Pin.Longitude)
		}
		if h.sampler.calls != 0 || h.locator.calls != 0 {
			t.Error("selected location still consulted sampler or locator")
		}
	})

	t.Run("random uses sampler", func(t *testing.T) {
		h := newHarness(10)
		req := &models.SubmitLinkRequest{
			Link:         "https://www.tiktok.com/@u/video/1",
			LocationType: "random",
		}
		result, err := h.pipeline.Submit(context.Background(), req, "203.0.113.7")
		if err != nil {
			t.Fatalf("Submit: %v", err)
		}
		if result.Pin.Latitude != h.sampler.coord.Latitude {
			t.Errorf("latitude = %v, want sampled %v", result.Pin.Latitude, h.sampler.coord.Latitude)
		}
		if h.locator.calls != 0 {
			t.Error("random location still consulted the IP locator")
		}
	})

	t.Run("default uses ip locator", func(t *testing.T) {
		h := newHarness(10)
		req := &models.SubmitLinkRequest{Link: "https://www.tiktok.com/@u/video/1"}
		result, err := h.pipeline.Submit(context.Background(), req, "203.0.113.7")
		if err != nil {
			t.Fatalf("Submit: %v", err)
		}
		if result.Pin.Latitude != h.locator.coord.Latitude {
			t.Errorf("latitude = %v, want IP-derived %v", result.Pin.Latitude, h.locator.coord.Latitude)
		}
		if h.sampler.calls != 0 {
			t.Error("default location consulted the sampler")
		}
	})
}

func TestSubmitStorageErrorIsNotARejection(t *testing.T) {
	h := newHarness(10)
	h.store.createErr = errors.New("disk full")

	req := &models.SubmitLinkRequest{Link: "https://www.tiktok.com/@u/video/1"}
	_, err := h.pipeline.Submit(context.Background(), req, "203.0.113.7")
	if err == nil {
		t.Fatal("Submit succeeded despite storage failure")
	}
	var rej *Rejection
	if errors.As(err, &rej) {
		t.Errorf("storage failure surfaced as a rejection: %+v", rej)
	}
}
