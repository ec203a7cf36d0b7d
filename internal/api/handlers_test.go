// ForYouPage - Geographic Link Discovery
// Copyright 2026 Bilal (Bilal292)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/Bilal292/foryoupage

package api

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/goccy/go-json"
	"github.com/google/uuid"

	"github.com/Bilal292/foryoupage/internal/config"
	"github.com/Bilal292/foryoupage/internal/geo"
	"github.com/Bilal292/foryoupage/internal/models"
	"github.com/Bilal292/foryoupage/internal/pipeline"
	"github.com/Bilal292/foryoupage/internal/platform"
	"github.com/Bilal292/foryoupage/internal/ratelimit"
	"github.com/Bilal292/foryoupage/internal/storage"
)

type stubStore struct {
	pins      map[uuid.UUID]*models.Pin
	boundsErr error
}

func newStubStore() *stubStore {
	return &stubStore{pins: map[uuid.UUID]*models.Pin{}}
}

func (s *stubStore) CreatePin(_ context.Context, pin *models.Pin) error {
	s.pins[pin.ID] = pin
	return nil
}

func (s *stubStore) PinsInBounds(_ context.Context, swLat, swLng, neLat, neLng float64) ([]models.Pin, error) {
	if s.boundsErr != nil {
		return nil, s.boundsErr
	}
	result := []models.Pin{}
	for _, p := range s.pins {
		if p.IsActive &&
			p.Latitude >= swLat && p.Latitude <= neLat &&
			p.Longitude >= swLng && p.Longitude <= neLng {
			result = append(result, *p)
		}
	}
	return result, nil
}

func (s *stubStore) RandomPin(context.Context) (*models.Pin, error) {
	for _, p := range s.pins {
		if p.IsActive {
			return p, nil
		}
	}
	return nil, storage.ErrNotFound
}

func (s *stubStore) DeactivatePin(_ context.Context, id uuid.UUID) error {
	p, ok := s.pins[id]
	if !ok || !p.IsActive {
		return storage.ErrNotFound
	}
	p.IsActive = false
	return nil
}

func (s *stubStore) ReportPin(_ context.Context, id uuid.UUID, deactivateAt int) (int, error) {
	p, ok := s.pins[id]
	if !ok || !p.IsActive {
		return 0, storage.ErrNotFound
	}
	p.ReportCount++
	if deactivateAt > 0 && p.ReportCount >= deactivateAt {
		p.IsActive = false
	}
	return p.ReportCount, nil
}

type passthroughResolver struct{}

func (passthroughResolver) Resolve(_ context.Context, _ models.Platform, rawURL string) string {
	return rawURL
}

type fixedLocator struct{ coord geo.Coordinate }

func (f fixedLocator) Locate(context.Context, string) geo.Coordinate { return f.coord }

type fixedSampler struct{ coord geo.Coordinate }

func (f fixedSampler) Sample() geo.Coordinate { return f.coord }

type noJitter struct{}

func (noJitter) Jitter(c geo.Coordinate) geo.Coordinate { return c }

type testServer struct {
	router http.Handler
	store  *stubStore
	cfg    *config.Config
}

func newTestServer() *testServer {
	cfg := config.Default()
	store := newStubStore()

	ingest := pipeline.New(
		ratelimit.NewLimiter(cfg.RateLimit.Submit.Requests, cfg.RateLimit.Submit.Window),
		&platform.Extractor{AllowTikTokPhotos: cfg.Pipeline.AllowTikTokPhotos},
		passthroughResolver{},
		fixedLocator{coord: geo.Coordinate{Latitude: 51.5, Longitude: -0.12}},
		fixedSampler{coord: geo.Coordinate{Latitude: 35.6, Longitude: 139.7}},
		noJitter{},
		store,
	)
	strictLimiter := ratelimit.NewLimiter(cfg.RateLimit.Strict.Requests, cfg.RateLimit.Strict.Window)
	h := NewHandler(ingest, store, strictLimiter, cfg)
	return &testServer{router: NewRouter(h, cfg), store: store, cfg: cfg}
}

type envelope struct {
	Status string           `json:"status"`
	Data   json.RawMessage  `json:"data"`
	Error  *models.APIError `json:"error"`
}

func (ts *testServer) do(t *testing.T, method, target, body string) (*httptest.ResponseRecorder, envelope) {
	t.Helper()
	req := httptest.NewRequest(method, target, strings.NewReader(body))
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	rec := httptest.NewRecorder()
	ts.router.ServeHTTP(rec, req)

	var env envelope
	if err := json.Unmarshal(rec.Body.Bytes(), &env); err != nil {
		t.Fatalf("%s %s: unmarshal response %q: %v", method, target, rec.Body.String(), err)
	}
	return rec, env
}

func TestSubmitLinkCreatesPin(t *testing.T) {
	ts := newTestServer()

	rec, env := ts.do(t, http.MethodPost, "/api/v1/links",
		`{"link":"https://www.tiktok.com/@user/video/7123456789"}`)
	if rec.Code != http.StatusCreated {
		t.Fatalf("status = %d, want 201; body %s", rec.Code, rec.Body.String())
	}
	if env.Status != "success" {
		t.Errorf("envelope status = %q", env.Status)
	}

	var pin models.Pin
	if err := json.Unmarshal(env.Data, &pin); err != nil {
		t.Fatalf("unmarshal pin: %v", err)
	}
	if pin.Link.Platform != models.PlatformTikTok {
		t.Errorf("platform = %s, want tiktok", pin.Link.Platform)
	}
	if pin.Link.ContentID != "7123456789" {
		t.Errorf("content id = %q", pin.Link.ContentID)
	}
	if len(ts.store.pins) != 1 {
		t.Errorf("store holds %d pins, want 1", len(ts.store.pins))
	}
}

func TestSubmitLinkCheckOnly(t *testing.T) {
	ts := newTestServer()

	rec, env := ts.do(t, http.MethodPost, "/api/v1/links",
		`{"link":"https://www.youtube.com/shorts/dQw4w9WgXcQ","checkOnly":true}`)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}

	var check models.CheckLinkResult
	if err := json.Unmarshal(env.Data, &check); err != nil {
		t.Fatalf("unmarshal check result: %v", err)
	}
	if check.Platform != models.PlatformYouTubeShorts || !check.Allowed {
		t.Errorf("check = %+v", check)
	}
	if len(ts.store.pins) != 0 {
		t.Error("check-only request persisted a pin")
	}
}

func TestSubmitLinkErrors(t *testing.T) {
	tests := []struct {
		name       string
		body       string
		wantStatus int
		wantCode   string
	}{
		{"malformed json", `{"link":`, http.StatusBadRequest, "VALIDATION_ERROR"},
		{"unknown field", `{"link":"https://x.com","surprise":1}`, http.StatusBadRequest, "VALIDATION_ERROR"},
		{"missing link", `{}`, http.StatusBadRequest, "VALIDATION_ERROR"},
		{"bad location type", `{"link":"https://x.com","locationType":"moon"}`, http.StatusBadRequest, "VALIDATION_ERROR"},
		{"out of range latitude", `{"link":"https://x.com","latitude":95.0}`, http.StatusBadRequest, "VALIDATION_ERROR"},
		{"unsupported platform", `{"link":"https://example.com/video/1"}`, http.StatusBadRequest, "PLATFORM_NOT_ALLOWED"},
		{"tiktok photo", `{"link":"https://www.tiktok.com/@u/photo/123"}`, http.StatusBadRequest, "EXTRACTION_FAILED"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ts := newTestServer()
			rec, env := ts.do(t, http.MethodPost, "/api/v1/links", tt.body)
			if rec.Code != tt.wantStatus {
				t.Fatalf("status = %d, want %d; body %s", rec.Code, tt.wantStatus, rec.Body.String())
			}
			if env.Error == nil || env.Error.Code != tt.wantCode {
				t.Errorf("error = %+v, want code %s", env.Error, tt.wantCode)
			}
		})
	}
}

func TestSubmitLinkRateLimited(t *testing.T) {
	ts := newTestServer()
	body := `{"link":"https://www.tiktok.com/@u/video/1"}`

	var rec *httptest.ResponseRecorder
	var env envelope
	for i := 0; i <= ts.cfg.RateLimit.Submit.Requests; i++ {
		rec, env = ts.do(t, http.MethodPost, "/api/v1/links", body)
	}
	if rec.Code != http.StatusTooManyRequests {
		t.Fatalf("status after exceeding limit = %d, want 429", rec.Code)
	}
	if env.Error == nil || env.Error.Code != "RATE_LIMIT_EXCEEDED" {
		t.Errorf("error = %+v", env.Error)
	}
}

func TestPinsInBounds(t *testing.T) {
	ts := newTestServer()
	inside := &models.Pin{ID: uuid.New(), Latitude: 10, Longitude: 10, IsActive: true,
		Link: models.PlatformLink{Platform: models.PlatformTikTok, CanonicalURL: "https://t", ContentID: "1"}}
	outside := &models.Pin{ID: uuid.New(), Latitude: 50, Longitude: 50, IsActive: true,
		Link: models.PlatformLink{Platform: models.PlatformReddit, CanonicalURL: "https://r", ContentID: "2"}}
	ts.store.pins[inside.ID] = inside
	ts.store.pins[outside.ID] = outside

	rec, env := ts.do(t, http.MethodGet, "/api/v1/pins?sw_lat=0&sw_lng=0&ne_lat=20&ne_lng=20", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200; body %s", rec.Code, rec.Body.String())
	}

	var pins []models.Pin
	if err := json.Unmarshal(env.Data, &pins); err != nil {
		t.Fatalf("unmarshal pins: %v", err)
	}
	if len(pins) != 1 || pins[0].ID != inside.ID {
		t.Errorf("pins = %+v, want only the inside pin", pins)
	}
}

func TestPinsInBoundsValidation(t *testing.T) {
	tests := []struct {
		name   string
		target string
	}{
		{"missing sw_lat", "/api/v1/pins?sw_lng=0&ne_lat=1&ne_lng=1"},
		{"non-numeric", "/api/v1/pins?sw_lat=abc&sw_lng=0&ne_lat=1&ne_lng=1"},
		{"latitude out of range", "/api/v1/pins?sw_lat=-95&sw_lng=0&ne_lat=1&ne_lng=1"},
		{"longitude out of range", "/api/v1/pins?sw_lat=0&sw_lng=0&ne_lat=1&ne_lng=181"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ts := newTestServer()
			rec, env := ts.do(t, http.MethodGet, tt.target, "")
			if rec.Code != http.StatusBadRequest {
				t.Fatalf("status = %d, want 400; body %s", rec.Code, rec.Body.String())
			}
			if env.Error == nil || env.Error.Code != "VALIDATION_ERROR" {
				t.Errorf("error = %+v", env.Error)
			}
		})
	}
}

func TestRandomPin(t *testing.T) {
	ts := newTestServer()

	rec, env := ts.do(t, http.MethodGet, "/api/v1/pins/random", "")
	if rec.Code != http.StatusNotFound {
		t.Fatalf("status with no pins = %d, want 404", rec.Code)
	}
	if env.Error == nil || env.Error.Code != "NOT_FOUND" {
		t.Errorf("error = %+v", env.Error)
	}

	pin := &models.Pin{ID: uuid.New(), Latitude: 1, Longitude: 2, IsActive: true,
		Link: models.PlatformLink{Platform: models.PlatformInstagram, CanonicalURL: "https://i", ContentID: "x"}}
	ts.store.pins[pin.ID] = pin

	rec, env = ts.do(t, http.MethodGet, "/api/v1/pins/random", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
	var got models.Pin
	if err := json.Unmarshal(env.Data, &got); err != nil {
		t.Fatalf("unmarshal pin: %v", err)
	}
	if got.ID != pin.ID {
		t.Errorf("pin id = %s, want %s", got.ID, pin.ID)
	}
}

func TestDeactivatePin(t *testing.T) {
	ts := newTestServer()
	pin := &models.Pin{ID: uuid.New(), IsActive: true,
		Link: models.PlatformLink{Platform: models.PlatformTikTok, CanonicalURL: "https://t"}}
	ts.store.pins[pin.ID] = pin

	rec, _ := ts.do(t, http.MethodDelete, "/api/v1/pins/"+pin.ID.String(), "")
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200; body %s", rec.Code, rec.Body.String())
	}
	if pin.IsActive {
		t.Error("pin still active after delete")
	}

	rec, env := ts.do(t, http.MethodDelete, "/api/v1/pins/"+pin.ID.String(), "")
	if rec.Code != http.StatusNotFound {
		t.Fatalf("second delete status = %d, want 404", rec.Code)
	}
	if env.Error == nil || env.Error.Code != "NOT_FOUND" {
		t.Errorf("error = %+v", env.Error)
	}

	rec, env = ts.do(t, http.MethodDelete, "/api/v1/pins/not-a-uuid", "")
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("bad id status = %d, want 400", rec.Code)
	}
	if env.Error == nil || env.Error.Code != "VALIDATION_ERROR" {
		t.Errorf("error = %+v", env.Error)
	}
}

func TestReportPinDeactivatesAtThreshold(t *testing.T) {
	ts := newTestServer()
	ts.cfg.Pipeline.ReportThreshold = 2
	pin := &models.Pin{ID: uuid.New(), IsActive: true,
		Link: models.PlatformLink{Platform: models.PlatformTikTok, CanonicalURL: "https://t"}}
	ts.store.pins[pin.ID] = pin

	target := "/api/v1/pins/" + pin.ID.String() + "/report"
	rec, env := ts.do(t, http.MethodPost, target, "")
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200; body %s", rec.Code, rec.Body.String())
	}
	var payload map[string]interface{}
	if err := json.Unmarshal(env.Data, &payload); err != nil {
		t.Fatalf("unmarshal report payload: %v", err)
	}
	if payload["report_count"].(float64) != 1 {
		t.Errorf("report_count = %v, want 1", payload["report_count"])
	}

	rec, _ = ts.do(t, http.MethodPost, target, "")
	if rec.Code != http.StatusOK {
		t.Fatalf("second report status = %d", rec.Code)
	}
	if pin.IsActive {
		t.Error("pin still active after reaching the report threshold")
	}
}

func TestStrictEndpointsRateLimited(t *testing.T) {
	ts := newTestServer()
	pin := &models.Pin{ID: uuid.New(), IsActive: true,
		Link: models.PlatformLink{Platform: models.PlatformTikTok, CanonicalURL: "https://t"}}
	ts.store.pins[pin.ID] = pin

	target := "/api/v1/pins/" + pin.ID.String() + "/report"
	var rec *httptest.ResponseRecorder
	var env envelope
	for i := 0; i <= ts.cfg.RateLimit.Strict.Requests; i++ {
		rec, env = ts.do(t, http.MethodPost, target, "")
	}
	if rec.Code != http.StatusTooManyRequests {
		t.Fatalf("status after exceeding strict limit = %d, want 429", rec.Code)
	}
	if env.Error == nil || env.Error.Code != "RATE_LIMIT_EXCEEDED" {
		t.Errorf("error = %+v", env.Error)
	}
}

func TestSubmitRateLimitWinsOverInvalidBody(t *testing.T) {
	ts := newTestServer()
	valid := `{"link":"https://www.tiktok.com/@u/video/1"}`
	for i := 0; i < ts.cfg.RateLimit.Submit.Requests; i++ {
		ts.do(t, http.MethodPost, "/api/v1/links", valid)
	}

	rec, env := ts.do(t, http.MethodPost, "/api/v1/links",
		`{"link":"https://x.com","locationType":"moon"}`)
	if rec.Code != http.StatusTooManyRequests {
		t.Fatalf("status = %d, want 429 before any validation verdict", rec.Code)
	}
	if env.Error == nil || env.Error.Code != "RATE_LIMIT_EXCEEDED" {
		t.Errorf("error = %+v", env.Error)
	}
}

func TestQueryEndpointsReportQueryTime(t *testing.T) {
	rec := httptest.NewRecorder()
	respondJSONTimed(rec, http.StatusOK, []string{}, time.Now().Add(-5*time.Millisecond))

	var resp models.APIResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("unmarshal envelope: %v", err)
	}
	if resp.Metadata.QueryTimeMS < 5 {
		t.Errorf("query_time_ms = %d, want >= 5", resp.Metadata.QueryTimeMS)
	}
}

func TestHealthAndReadiness(t *testing.T) {
	ts := newTestServer()

	rec, _ := ts.do(t, http.MethodGet, "/healthz", "")
	if rec.Code != http.StatusOK {
		t.Errorf("healthz status = %d, want 200", rec.Code)
	}

	rec, _ = ts.do(t, http.MethodGet, "/readyz", "")
	if rec.Code != http.StatusOK {
		t.Errorf("readyz status = %d, want 200", rec.Code)
	}

	ts.store.boundsErr = errors.New("store down")
	rec, env := ts.do(t, http.MethodGet, "/readyz", "")
	if rec.Code != http.StatusServiceUnavailable {
		t.Errorf("readyz with failing store = %d, want 503", rec.Code)
	}
	if env.Error == nil || env.Error.Code != "DATABASE_ERROR" {
		t.Errorf("error = %+v", env.Error)
	}
}

func TestSanitizeLogValue(t *testing.T) {
	got := sanitizeLogValue("ok\nfake=entry\x00")
	if strings.ContainsAny(got, "\n\x00") {
		t.Errorf("control characters survived sanitization: %q", got)
	}
	if got != `ok\x0afake=entry\x00` {
		t.Errorf("sanitizeLogValue = %q", got)
	}
}
