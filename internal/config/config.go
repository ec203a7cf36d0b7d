// ForYouPage - Geographic Link Discovery
// Copyright 2026 Bilal (Bilal292)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/Bilal292/foryoupage

// Package config holds all application configuration, loaded with Koanf v2
// in three layers: built-in defaults, an optional YAML config file, and
// FYP_-prefixed environment variable overrides.
//
// Config is immutable after Load() and safe for concurrent reads.
package config

import (
	"fmt"
	"time"
)

// Config holds all application configuration.
type Config struct {
	Server    ServerConfig    `koanf:"server"`
	Database  DatabaseConfig  `koanf:"database"`
	Pipeline  PipelineConfig  `koanf:"pipeline"`
	Geo       GeoConfig       `koanf:"geo"`
	Resolver  ResolverConfig  `koanf:"resolver"`
	RateLimit RateLimitConfig `koanf:"rate_limit"`
	Logging   LoggingConfig   `koanf:"logging"`
}

// ServerConfig holds HTTP server settings.
type ServerConfig struct {
	Host        string        `koanf:"host"`
	Port        int           `koanf:"port"`
	Timeout     time.Duration `koanf:"timeout"`
	CORSOrigins []string      `koanf:"cors_origins"`
}

// DatabaseConfig holds DuckDB settings.
type DatabaseConfig struct {
	// Path is the DuckDB database file. ":memory:" runs fully in-process
	// without persistence, which the tests rely on.
	Path      string `koanf:"path"`
	MaxMemory string `koanf:"max_memory"`
}

// PipelineConfig holds link-ingestion settings.
type PipelineConfig struct {
	// AllowTikTokPhotos controls the policy for TikTok /photo/ URLs.
	// When false (the default) photo posts are rejected at extraction.
	AllowTikTokPhotos bool `koanf:"allow_tiktok_photos"`

	// JitterDegrees is the maximum total jitter applied per axis; each
	// coordinate moves by a uniform offset in ±JitterDegrees/2.
	JitterDegrees float64 `koanf:"jitter_degrees"`

	// ReportThreshold is the report count at which a pin is automatically
	// deactivated. 0 disables auto-deactivation.
	ReportThreshold int `koanf:"report_threshold"`
}

// GeoConfig holds IP-geolocation settings.
type GeoConfig struct {
	// EndpointURL is the base URL of the IP geolocation API. The client
	// issues GET {EndpointURL}/api/json/{ip} and expects a JSON body with
	// "latitude" and "longitude" fields.
	EndpointURL string        `koanf:"endpoint_url"`
	Timeout     time.Duration `koanf:"timeout"`
	CacheTTL    time.Duration `koanf:"cache_ttl"`

	// CacheBackend selects the IP-location cache: "memory" or "badger".
	CacheBackend string `koanf:"cache_backend"`
	BadgerPath   string `koanf:"badger_path"`

	// FallbackLatitude/FallbackLongitude are returned for loopback clients
	// and whenever the external lookup fails.
	FallbackLatitude  float64 `koanf:"fallback_latitude"`
	FallbackLongitude float64 `koanf:"fallback_longitude"`
}

// ResolverConfig holds redirect-resolution settings.
type ResolverConfig struct {
	Timeout time.Duration `koanf:"timeout"`

	// OutboundPerSecond caps outbound redirect-resolution requests across
	// all inbound submissions. 0 means unlimited.
	OutboundPerSecond float64 `koanf:"outbound_per_second"`
}

// RateLimitPolicy is one windowed counter policy.
type RateLimitPolicy struct {
	Requests int           `koanf:"requests"`
	Window   time.Duration `koanf:"window"`
}

// RateLimitConfig holds the per-endpoint rate-limit policies plus a coarse
// global limit applied to every request before routing.
type RateLimitConfig struct {
	Disabled bool `koanf:"disabled"`

	// Submit applies to pin creation (POST /api/v1/links).
	Submit RateLimitPolicy `koanf:"submit"`

	// Strict applies to mutating side endpoints (delete, report).
	Strict RateLimitPolicy `koanf:"strict"`

	// Global is enforced by middleware across all endpoints.
	Global RateLimitPolicy `koanf:"global"`
}

// LoggingConfig holds log output settings.
type LoggingConfig struct {
	Level  string `koanf:"level"`
	Format string `koanf:"format"`
}

// Validate checks configuration consistency. It is called by Load after all
// layers are merged; errors here abort startup.
func (c *Config) Validate() error {
	if c.Server.Port < 1 || c.Server.Port > 65535 {
		return fmt.Errorf("server.port must be 1-65535, got %d", c.Server.Port)
	}
	if c.Database.Path == "" {
		return fmt.Errorf("database.path is required")
	}
	if c.Pipeline.JitterDegrees < 0 {
		return fmt.Errorf("pipeline.jitter_degrees must not be negative")
	}
	if c.Geo.CacheTTL <= 0 {
		return fmt.Errorf("geo.cache_ttl must be positive")
	}
	switch c.Geo.CacheBackend {
	case "memory", "badger":
	default:
		return fmt.Errorf("geo.cache_backend must be memory or badger, got %q", c.Geo.CacheBackend)
	}
	if c.Geo.CacheBackend == "badger" && c.Geo.BadgerPath == "" {
		return fmt.Errorf("geo.badger_path is required when geo.cache_backend is badger")
	}
	if c.Geo.FallbackLatitude < -90 || c.Geo.FallbackLatitude > 90 {
		return fmt.Errorf("geo.fallback_latitude out of range: %f", c.Geo.FallbackLatitude)
	}
	if c.Geo.FallbackLongitude < -180 || c.Geo.FallbackLongitude > 180 {
		return fmt.Errorf("geo.fallback_longitude out of range: %f", c.Geo.FallbackLongitude)
	}
	for name, p := range map[string]RateLimitPolicy{
		"submit": c.RateLimit.Submit,
		"strict": c.RateLimit.Strict,
		"global": c.RateLimit.Global,
	} {
		if p.Requests <= 0 {
			return fmt.Errorf("rate_limit.%s.requests must be positive", name)
		}
		if p.Window <= 0 {
			return fmt.Errorf("rate_limit.%s.window must be positive", name)
		}
	}
	return nil
}
