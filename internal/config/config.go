// Satomaru - Community Map Annotation Service
// Copyright 2026 Satomaru Project
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/satomaru-project/satomaru

// Package config loads service configuration with koanf: struct defaults
// first, then an optional YAML config file, then environment variables.
// Environment always wins.
package config

import (
	"fmt"
	"time"
)

// Config is the root configuration for the service.
type Config struct {
	Server    ServerConfig    `koanf:"server"`
	Security  SecurityConfig  `koanf:"security"`
	RateLimit RateLimitConfig `koanf:"ratelimit"`
	HTTP      HTTPConfig      `koanf:"http"`
	API       APIConfig       `koanf:"api"`
	Log       LogConfig       `koanf:"log"`
}

// ServerConfig holds HTTP listener settings.
type ServerConfig struct {
	Host    string        `koanf:"host"`
	Port    int           `koanf:"port"`
	Timeout time.Duration `koanf:"timeout"`
}

// SecurityConfig holds the CORS allow-list.
type SecurityConfig struct {
	// AllowedOrigins is the CORS origin allow-list. Configured via the
	// ALLOWED_ORIGINS environment variable as a comma-separated list.
	AllowedOrigins []string `koanf:"allowed_origins"`

	// CORSMaxAge is the preflight cache lifetime in seconds.
	CORSMaxAge int `koanf:"cors_max_age"`
}

// RateLimitConfig holds the posting limiter settings.
type RateLimitConfig struct {
	// WindowSeconds is the sliding window length for the per-location
	// posting limiter. Configured via RATE_LIMIT_WINDOW_SECONDS.
	WindowSeconds int `koanf:"window_seconds"`

	// SweepInterval is how often stale limiter keys are cleaned up.
	SweepInterval time.Duration `koanf:"sweep_interval"`
}

// HTTPConfig holds transport-level protections applied by middleware,
// separate from the domain posting limiter.
type HTTPConfig struct {
	RateLimitRequests int           `koanf:"rate_limit_requests"`
	RateLimitWindow   time.Duration `koanf:"rate_limit_window"`
}

// APIConfig holds pagination bounds for listing.
type APIConfig struct {
	DefaultPageSize int `koanf:"default_page_size"`
	MaxPageSize     int `koanf:"max_page_size"`
}

// LogConfig holds logging settings.
type LogConfig struct {
	Level  string `koanf:"level"`
	Format string `koanf:"format"`
}

// defaultConfig returns a Config with all default values. Defaults are
// applied first, then overridden by config file and env vars.
func defaultConfig() *Config {
	return &Config{
		Server: ServerConfig{
			Host:    "0.0.0.0",
			Port:    8000,
			Timeout: 30 * time.Second,
		},
		Security: SecurityConfig{
			AllowedOrigins: []string{"http://localhost:5173"},
			CORSMaxAge:     86400,
		},
		RateLimit: RateLimitConfig{
			WindowSeconds: 60,
			SweepInterval: 5 * time.Minute,
		},
		HTTP: HTTPConfig{
			RateLimitRequests: 100,
			RateLimitWindow:   time.Minute,
		},
		API: APIConfig{
			DefaultPageSize: 100,
			MaxPageSize:     200,
		},
		Log: LogConfig{
			Level:  "info",
			Format: "json",
		},
	}
}

// RateLimitWindow returns the posting limiter window as a duration.
func (c *Config) RateLimitWindow() time.Duration {
	return time.Duration(c.RateLimit.WindowSeconds) * time.Second
}

// Addr returns the listen address for the HTTP server.
func (c *Config) Addr() string {
	return fmt.Sprintf("%s:%d", c.Server.Host, c.Server.Port)
}

// Validate checks configuration invariants after loading.
func (c *Config) Validate() error {
	if c.Server.Port < 1 || c.Server.Port > 65535 {
		return fmt.Errorf("server.port must be between 1 and 65535, got %d", c.Server.Port)
	}
	if c.RateLimit.WindowSeconds <= 0 {
		return fmt.Errorf("ratelimit.window_seconds must be positive, got %d", c.RateLimit.WindowSeconds)
	}
	if c.API.DefaultPageSize < 1 || c.API.DefaultPageSize > c.API.MaxPageSize {
		return fmt.Errorf("api.default_page_size must be between 1 and %d, got %d",
			c.API.MaxPageSize, c.API.DefaultPageSize)
	}
	if c.API.MaxPageSize < 1 {
		return fmt.Errorf("api.max_page_size must be positive, got %d", c.API.MaxPageSize)
	}
	return nil
}
