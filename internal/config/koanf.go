// ForYouPage - Geographic Link Discovery
// Copyright 2026 Bilal (Bilal292)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/Bilal292/foryoupage

package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/providers/structs"
	"github.com/knadh/koanf/v2"
)

// DefaultConfigPaths lists where config files are searched, in priority
// order. The first file found wins.
var DefaultConfigPaths = []string{
	"config.yaml",
	"config.yml",
	"/etc/foryoupage/config.yaml",
	"/etc/foryoupage/config.yml",
}

// ConfigPathEnvVar overrides the config file path when set.
const ConfigPathEnvVar = "FYP_CONFIG_PATH"

// envPrefix is stripped from environment variables before mapping them to
// koanf paths: FYP_GEO_CACHE_TTL -> geo.cache_ttl.
const envPrefix = "FYP_"

// Default returns a Config populated with built-in defaults. Exported so
// tests can start from a valid baseline.
func Default() *Config {
	return &Config{
		Server: ServerConfig{
			Host:        "0.0.0.0",
			Port:        8080,
			Timeout:     30 * time.Second,
			CORSOrigins: []string{},
		},
		Database: DatabaseConfig{
			Path:      "/data/foryoupage.duckdb",
			MaxMemory: "512MB",
		},
		Pipeline: PipelineConfig{
			AllowTikTokPhotos: false,
			JitterDegrees:     0.02,
			ReportThreshold:   5,
		},
		Geo: GeoConfig{
			EndpointURL:       "https://reallyfreegeoip.org",
			Timeout:           5 * time.Second,
			CacheTTL:          24 * time.Hour,
			CacheBackend:      "memory",
			BadgerPath:        "/data/geocache",
			FallbackLatitude:  51.5074, // London, matching the original deployment
			FallbackLongitude: -0.1278,
		},
		Resolver: ResolverConfig{
			Timeout:           5 * time.Second,
			OutboundPerSecond: 10,
		},
		RateLimit: RateLimitConfig{
			Disabled: false,
			Submit:   RateLimitPolicy{Requests: 10, Window: time.Minute},
			Strict:   RateLimitPolicy{Requests: 5, Window: time.Hour},
			Global:   RateLimitPolicy{Requests: 100, Window: time.Minute},
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "json",
		},
	}
}

// Load builds the configuration from defaults, an optional YAML file, and
// FYP_-prefixed environment variables (highest priority), then validates it.
func Load() (*Config, error) {
	k := koanf.New(".")

	if err := k.Load(structs.Provider(Default(), "koanf"), nil); err != nil {
		return nil, fmt.Errorf("load defaults: %w", err)
	}

	if path := findConfigFile(); path != "" {
		if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
			return nil, fmt.Errorf("load config file %s: %w", path, err)
		}
	}

	if err := k.Load(env.Provider(envPrefix, ".", envTransform), nil); err != nil {
		return nil, fmt.Errorf("load environment: %w", err)
	}

	cfg := &Config{}
	if err := k.Unmarshal("", cfg); err != nil {
		return nil, fmt.Errorf("unmarshal configuration: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("configuration invalid: %w", err)
	}
	return cfg, nil
}

// findConfigFile returns the config file path to use, or "" for none.
func findConfigFile() string {
	if path := os.Getenv(ConfigPathEnvVar); path != "" {
		return path
	}
	for _, path := range DefaultConfigPaths {
		if _, err := os.Stat(path); err == nil {
			return path
		}
	}
	return ""
}

// envAliases maps environment variable suffixes (after FYP_) whose koanf
// paths cannot be derived mechanically, because the section or policy name
// itself contains an underscore.
var envAliases = map[string]string{
	"RATE_LIMIT_DISABLED":        "rate_limit.disabled",
	"RATE_LIMIT_SUBMIT_REQUESTS": "rate_limit.submit.requests",
	"RATE_LIMIT_SUBMIT_WINDOW":   "rate_limit.submit.window",
	"RATE_LIMIT_STRICT_REQUESTS": "rate_limit.strict.requests",
	"RATE_LIMIT_STRICT_WINDOW":   "rate_limit.strict.window",
	"RATE_LIMIT_GLOBAL_REQUESTS": "rate_limit.global.requests",
	"RATE_LIMIT_GLOBAL_WINDOW":   "rate_limit.global.window",
}

// envTransform maps FYP_SECTION_SOME_KEY to section.some_key. The first
// underscore separates the section; the rest of the name keeps its
// underscores, matching the koanf struct tags. Names that cannot be split
// mechanically are listed in envAliases.
func envTransform(s string) string {
	trimmed := strings.TrimPrefix(s, envPrefix)
	if path, ok := envAliases[trimmed]; ok {
		return path
	}
	lower := strings.ToLower(trimmed)
	parts := strings.SplitN(lower, "_", 2)
	if len(parts) != 2 {
		return lower
	}
	return parts[0] + "." + parts[1]
}
