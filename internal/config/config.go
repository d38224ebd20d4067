/*
Copyright (C) 2026 Friends Incode

SPDX-License-Identifier: AGPL-3.0-or-later
*/

package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

// Config covers process level configuration read from environment variables.
type Config struct {
	Environment   string
	HTTPBind      string
	HTTPPort      int
	DBDSN         string
	JWTSigningKey string
	MetricsBind   string

	// Compiled query cache
	CacheEnabled  bool
	CacheTTL      time.Duration
	RedisAddr     string
	RedisPassword string
	RedisDB       int

	// Tracing configuration
	TracingEnabled    bool
	OTLPEndpoint      string
	TracingSampleRate float64

	// Autocomplete
	SuggestionLimit int

	LegacyEnvWarnings []string
}

// Load reads environment variables, applies defaults, and validates the result.
func Load() (*Config, error) {
	cfg := &Config{
		Environment:   getEnvAny([]string{"SMARTPLAYLIST_ENV", "SP_ENV"}, "development"),
		HTTPBind:      getEnvAny([]string{"SMARTPLAYLIST_HTTP_BIND", "SP_HTTP_BIND"}, "0.0.0.0"),
		HTTPPort:      getEnvIntAny([]string{"SMARTPLAYLIST_HTTP_PORT", "SP_HTTP_PORT"}, 8080),
		DBDSN:         getEnvAny([]string{"SMARTPLAYLIST_DB_DSN", "SP_DB_DSN"}, "smartplaylist.db"),
		JWTSigningKey: getEnvAny([]string{"SMARTPLAYLIST_JWT_SIGNING_KEY", "SP_JWT_SIGNING_KEY"}, ""),
		MetricsBind:   getEnvAny([]string{"SMARTPLAYLIST_METRICS_BIND", "SP_METRICS_BIND"}, "127.0.0.1:9000"),

		CacheEnabled:  getEnvBoolAny([]string{"SMARTPLAYLIST_CACHE_ENABLED", "SP_CACHE_ENABLED"}, false),
		CacheTTL:      time.Duration(getEnvIntAny([]string{"SMARTPLAYLIST_CACHE_TTL_SECONDS", "SP_CACHE_TTL_SECONDS"}, 300)) * time.Second,
		RedisAddr:     getEnvAny([]string{"SMARTPLAYLIST_REDIS_ADDR", "SP_REDIS_ADDR"}, "localhost:6379"),
		RedisPassword: getEnvAny([]string{"SMARTPLAYLIST_REDIS_PASSWORD", "SP_REDIS_PASSWORD"}, ""),
		RedisDB:       getEnvIntAny([]string{"SMARTPLAYLIST_REDIS_DB", "SP_REDIS_DB"}, 0),

		TracingEnabled:    getEnvBoolAny([]string{"SMARTPLAYLIST_TRACING_ENABLED", "SP_TRACING_ENABLED"}, false),
		OTLPEndpoint:      getEnvAny([]string{"SMARTPLAYLIST_OTLP_ENDPOINT", "SP_OTLP_ENDPOINT"}, "localhost:4317"),
		TracingSampleRate: getEnvFloatAny([]string{"SMARTPLAYLIST_TRACING_SAMPLE_RATE", "SP_TRACING_SAMPLE_RATE"}, 1.0),

		SuggestionLimit: getEnvIntAny([]string{"SMARTPLAYLIST_SUGGESTION_LIMIT", "SP_SUGGESTION_LIMIT"}, 20),
	}

	if cfg.DBDSN == "" {
		return nil, fmt.Errorf("SMARTPLAYLIST_DB_DSN or SP_DB_DSN must be provided")
	}
	if cfg.HTTPPort <= 0 || cfg.HTTPPort > 65535 {
		return nil, fmt.Errorf("invalid http port %d", cfg.HTTPPort)
	}
	if cfg.TracingSampleRate < 0 || cfg.TracingSampleRate > 1 {
		return nil, fmt.Errorf("tracing sample rate must be within [0,1], got %v", cfg.TracingSampleRate)
	}
	if cfg.SuggestionLimit <= 0 {
		cfg.SuggestionLimit = 20
	}
	if strings.EqualFold(cfg.Environment, "production") && cfg.JWTSigningKey == "" {
		return nil, fmt.Errorf("SMARTPLAYLIST_JWT_SIGNING_KEY or SP_JWT_SIGNING_KEY must be provided in production")
	}

	cfg.LegacyEnvWarnings = detectLegacyEnvWarnings()
	return cfg, nil
}

func detectLegacyEnvWarnings() []string {
	legacy := map[string]string{
		"ENVIRONMENT":     "use SMARTPLAYLIST_ENV (or SP_ENV)",
		"JWT_SIGNING_KEY": "use SMARTPLAYLIST_JWT_SIGNING_KEY (or SP_JWT_SIGNING_KEY)",
		"REDIS_ADDR":      "use SMARTPLAYLIST_REDIS_ADDR (or SP_REDIS_ADDR)",
		"TRACING_ENABLED": "use SMARTPLAYLIST_TRACING_ENABLED (or SP_TRACING_ENABLED)",
		"OTLP_ENDPOINT":   "use SMARTPLAYLIST_OTLP_ENDPOINT (or SP_OTLP_ENDPOINT)",
	}

	warnings := make([]string, 0, len(legacy))
	for key, recommendation := range legacy {
		if os.Getenv(key) != "" {
			warnings = append(warnings, fmt.Sprintf("legacy env key %s is set; %s", key, recommendation))
		}
	}
	return warnings
}

// HTTPAddr returns the API listen address.
func (c *Config) HTTPAddr() string {
	return fmt.Sprintf("%s:%d", c.HTTPBind, c.HTTPPort)
}

// getEnvAny returns the first non-empty environment variable value from keys, or def if none set.
func getEnvAny(keys []string, def string) string {
	for _, k := range keys {
		if v := os.Getenv(k); v != "" {
			return v
		}
	}
	return def
}

// getEnvIntAny returns the first set integer environment variable value from keys, or def.
func getEnvIntAny(keys []string, def int) int {
	for _, k := range keys {
		if v := os.Getenv(k); v != "" {
			if parsed, err := strconv.Atoi(v); err == nil {
				return parsed
			}
		}
	}
	return def
}

// getEnvBoolAny returns the first set boolean environment variable value from keys, or def.
func getEnvBoolAny(keys []string, def bool) bool {
	for _, k := range keys {
		if v := os.Getenv(k); v != "" {
			v = strings.ToLower(strings.TrimSpace(v))
			if v == "true" || v == "1" || v == "yes" {
				return true
			}
			if v == "false" || v == "0" || v == "no" {
				return false
			}
		}
	}
	return def
}

// getEnvFloatAny returns the first set float environment variable value from keys, or def.
func getEnvFloatAny(keys []string, def float64) float64 {
	for _, k := range keys {
		if v := os.Getenv(k); v != "" {
			if parsed, err := strconv.ParseFloat(v, 64); err == nil {
				return parsed
			}
		}
	}
	return def
}
