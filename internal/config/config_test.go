// Satomaru - Community Map Annotation Service
// Copyright 2026 Satomaru Project
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/satomaru-project/satomaru

package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}

	if cfg.Server.Port != 8000 {
		t.Errorf("Server.Port = %d, want 8000", cfg.Server.Port)
	}
	if cfg.RateLimit.WindowSeconds != 60 {
		t.Errorf("RateLimit.WindowSeconds = %d, want 60", cfg.RateLimit.WindowSeconds)
	}
	if len(cfg.Security.AllowedOrigins) != 1 || cfg.Security.AllowedOrigins[0] != "http://localhost:5173" {
		t.Errorf("AllowedOrigins = %v, want the local dev origin", cfg.Security.AllowedOrigins)
	}
	if cfg.API.DefaultPageSize != 100 || cfg.API.MaxPageSize != 200 {
		t.Errorf("pagination = %d/%d, want 100/200", cfg.API.DefaultPageSize, cfg.API.MaxPageSize)
	}
}

func TestLoadEnvOverrides(t *testing.T) {
	t.Setenv("PORT", "9090")
	t.Setenv("RATE_LIMIT_WINDOW_SECONDS", "120")
	t.Setenv("ALLOWED_ORIGINS", "https://map.example.jp, https://admin.example.jp")
	t.Setenv("LOG_LEVEL", "debug")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}

	if cfg.Server.Port != 9090 {
		t.Errorf("Server.Port = %d, want 9090", cfg.Server.Port)
	}
	if cfg.RateLimit.WindowSeconds != 120 {
		t.Errorf("RateLimit.WindowSeconds = %d, want 120", cfg.RateLimit.WindowSeconds)
	}
	if got := cfg.RateLimitWindow(); got != 120*time.Second {
		t.Errorf("RateLimitWindow() = %v, want 2m", got)
	}
	want := []string{"https://map.example.jp", "https://admin.example.jp"}
	if len(cfg.Security.AllowedOrigins) != 2 ||
		cfg.Security.AllowedOrigins[0] != want[0] ||
		cfg.Security.AllowedOrigins[1] != want[1] {
		t.Errorf("AllowedOrigins = %v, want %v", cfg.Security.AllowedOrigins, want)
	}
	if cfg.Log.Level != "debug" {
		t.Errorf("Log.Level = %q, want debug", cfg.Log.Level)
	}
}

func TestLoadConfigFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	content := []byte("server:\n  port: 8080\nratelimit:\n  window_seconds: 30\n")
	if err := os.WriteFile(path, content, 0o600); err != nil {
		t.Fatalf("writing config file: %v", err)
	}
	t.Setenv(ConfigPathEnvVar, path)

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}

	if cfg.Server.Port != 8080 {
		t.Errorf("Server.Port = %d, want 8080", cfg.Server.Port)
	}
	if cfg.RateLimit.WindowSeconds != 30 {
		t.Errorf("RateLimit.WindowSeconds = %d, want 30", cfg.RateLimit.WindowSeconds)
	}
	// Untouched values keep their defaults.
	if cfg.API.DefaultPageSize != 100 {
		t.Errorf("API.DefaultPageSize = %d, want default 100", cfg.API.DefaultPageSize)
	}
}

func TestEnvBeatsConfigFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	if err := os.WriteFile(path, []byte("server:\n  port: 8080\n"), 0o600); err != nil {
		t.Fatalf("writing config file: %v", err)
	}
	t.Setenv(ConfigPathEnvVar, path)
	t.Setenv("PORT", "9999")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if cfg.Server.Port != 9999 {
		t.Errorf("Server.Port = %d, want env override 9999", cfg.Server.Port)
	}
}

func TestLoadRejectsInvalid(t *testing.T) {
	tests := []struct {
		name  string
		key   string
		value string
	}{
		{"port out of range", "PORT", "70000"},
		{"non-positive window", "RATE_LIMIT_WINDOW_SECONDS", "0"},
		{"default page size above max", "API_DEFAULT_PAGE_SIZE", "500"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Setenv(tt.key, tt.value)
			if _, err := Load(); err == nil {
				t.Errorf("Load accepted %s=%s, want error", tt.key, tt.value)
			}
		})
	}
}

func TestValidate(t *testing.T) {
	cfg := defaultConfig()
	if err := cfg.Validate(); err != nil {
		t.Errorf("defaults should validate: %v", err)
	}

	cfg = defaultConfig()
	cfg.API.MaxPageSize = 0
	if err := cfg.Validate(); err == nil {
		t.Error("zero max page size should be rejected")
	}
}

func TestAddr(t *testing.T) {
	cfg := defaultConfig()
	if got := cfg.Addr(); got != "0.0.0.0:8000" {
		t.Errorf("Addr() = %q, want 0.0.0.0:8000", got)
	}
}
