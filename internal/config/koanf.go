// Satomaru - Community Map Annotation Service
// Copyright 2026 Satomaru Project
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/satomaru-project/satomaru

package config

import (
	"fmt"
	"os"
	"strings"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/providers/structs"
	"github.com/knadh/koanf/v2"
)

// DefaultConfigPaths lists the paths where config files are searched in
// order of priority. The first file found is used.
var DefaultConfigPaths = []string{
	"config.yaml",
	"config.yml",
	"/etc/satomaru/config.yaml",
	"/etc/satomaru/config.yml",
}

// ConfigPathEnvVar overrides the config file path.
const ConfigPathEnvVar = "CONFIG_PATH"

// envKeyMap maps flat environment variables to koanf config paths.
// Names follow the deployment contract of the original service
// (ALLOWED_ORIGINS, RATE_LIMIT_WINDOW_SECONDS) plus conventional
// SECTION_FIELD names for the rest.
var envKeyMap = map[string]string{
	"HOST":                      "server.host",
	"PORT":                      "server.port",
	"SERVER_HOST":               "server.host",
	"SERVER_PORT":               "server.port",
	"SERVER_TIMEOUT":            "server.timeout",
	"ALLOWED_ORIGINS":           "security.allowed_origins",
	"CORS_MAX_AGE":              "security.cors_max_age",
	"RATE_LIMIT_WINDOW_SECONDS": "ratelimit.window_seconds",
	"RATE_LIMIT_SWEEP_INTERVAL": "ratelimit.sweep_interval",
	"HTTP_RATE_LIMIT_REQUESTS":  "http.rate_limit_requests",
	"HTTP_RATE_LIMIT_WINDOW":    "http.rate_limit_window",
	"API_DEFAULT_PAGE_SIZE":     "api.default_page_size",
	"API_MAX_PAGE_SIZE":         "api.max_page_size",
	"LOG_LEVEL":                 "log.level",
	"LOG_FORMAT":                "log.format",
}

// Load builds the configuration: struct defaults, then an optional YAML
// file, then environment variables.
func Load() (*Config, error) {
	k := koanf.New(".")

	if err := k.Load(structs.Provider(defaultConfig(), "koanf"), nil); err != nil {
		return nil, fmt.Errorf("loading defaults: %w", err)
	}

	if path := findConfigFile(); path != "" {
		if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
			return nil, fmt.Errorf("loading config file %s: %w", path, err)
		}
	}

	if err := k.Load(env.Provider("", ".", envTransform), nil); err != nil {
		return nil, fmt.Errorf("loading environment: %w", err)
	}

	if err := processSliceFields(k); err != nil {
		return nil, err
	}

	var cfg Config
	if err := k.Unmarshal("", &cfg); err != nil {
		return nil, fmt.Errorf("unmarshaling config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	return &cfg, nil
}

// findConfigFile returns the first existing config file path, honoring the
// CONFIG_PATH override. Empty string means no config file.
func findConfigFile() string {
	if path := strings.TrimSpace(os.Getenv(ConfigPathEnvVar)); path != "" {
		return path
	}
	for _, path := range DefaultConfigPaths {
		if _, err := os.Stat(path); err == nil {
			return path
		}
	}
	return ""
}

// envTransform maps a recognized environment variable to its koanf path.
// Unrecognized variables are dropped so unrelated environment noise cannot
// leak into the config tree.
func envTransform(key string) string {
	if path, ok := envKeyMap[key]; ok {
		return path
	}
	return ""
}

// processSliceFields splits comma-separated string values into slices for
// fields declared as []string. Environment variables can only carry flat
// strings, so ALLOWED_ORIGINS arrives as "a,b,c".
func processSliceFields(k *koanf.Koanf) error {
	const key = "security.allowed_origins"

	raw := k.Get(key)
	s, ok := raw.(string)
	if !ok {
		return nil
	}

	var origins []string
	for _, part := range strings.Split(s, ",") {
		if trimmed := strings.TrimSpace(part); trimmed != "" {
			origins = append(origins, trimmed)
		}
	}

	return k.Set(key, origins)
}
