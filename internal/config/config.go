// Package config defines service configuration structures and loading hooks.
//
// Conventions:
//   - Provide New(ctx) to build a Config with defaults.
//   - Loading layers a YAML file, a .env file and the environment on top.
//   - External errors are wrapped with this package's sentinel kinds.
package config

import (
	"context"
	"fmt"
	"strings"
	"time"
)

// Config contains process configuration.
type Config struct {
	// LogLevel controls verbosity: debug, info, warn, error.
	LogLevel string `koanf:"log_level"`
	// LogFormat is text or json.
	LogFormat string `koanf:"log_format"`

	// Addr configures the HTTP listen address, e.g. ":8080".
	Addr string `koanf:"addr"`

	// CropModelPath and FertilizerModelPath point at exported forest documents.
	CropModelPath       string `koanf:"crop_model_path"`
	FertilizerModelPath string `koanf:"fertilizer_model_path"`
	// WatchModels reloads models when their files change.
	WatchModels bool `koanf:"watch_models"`

	// DefaultSoilType is sent to the fertilizer model when a request names none.
	DefaultSoilType string `koanf:"default_soil_type"`

	// RateLimitCapacity enrichment calls are admitted per RateLimitWindowSeconds.
	RateLimitCapacity      int `koanf:"rate_limit_capacity"`
	RateLimitWindowSeconds int `koanf:"rate_limit_window_seconds"`

	// GeminiAPIKey enables enrichment. Falls back to GEMINI_API_KEY, then GOOGLE_API_KEY.
	GeminiAPIKey     string `koanf:"gemini_api_key"`
	GeminiModel      string `koanf:"gemini_model"`
	GeminiAPIVersion string `koanf:"gemini_api_version"`

	// EnrichmentTimeoutMS bounds one enrichment call.
	EnrichmentTimeoutMS int `koanf:"enrichment_timeout_ms"`
	// BreakerFailures consecutive failures open the breaker for BreakerOpenMS.
	BreakerFailures int `koanf:"breaker_failures"`
	BreakerOpenMS   int `koanf:"breaker_open_ms"`

	// TraceExporter is none or stdout.
	TraceExporter string `koanf:"trace_exporter"`
}

// New creates a Config with defaults. Context is accepted first to satisfy
// the project-wide convention.
func New(_ context.Context) *Config {
	return &Config{
		LogLevel:               "info",
		LogFormat:              "text",
		Addr:                   ":9080",
		CropModelPath:          "models/crop_model.json",
		FertilizerModelPath:    "models/fertilizer_model.json",
		WatchModels:            true,
		DefaultSoilType:        "Loamy",
		RateLimitCapacity:      50,
		RateLimitWindowSeconds: 3600,
		GeminiModel:            "gemini-2.0-flash-001",
		GeminiAPIVersion:       "v1alpha",
		EnrichmentTimeoutMS:    15_000,
		BreakerFailures:        5,
		BreakerOpenMS:          30_000,
		TraceExporter:          "none",
	}
}

// RateLimitWindow returns the limiter window.
func (c *Config) RateLimitWindow() time.Duration {
	return time.Duration(c.RateLimitWindowSeconds) * time.Second
}

// EnrichmentTimeout returns the per-call enrichment timeout.
func (c *Config) EnrichmentTimeout() time.Duration {
	return time.Duration(c.EnrichmentTimeoutMS) * time.Millisecond
}

// BreakerOpen returns how long the enrichment breaker stays open.
func (c *Config) BreakerOpen() time.Duration {
	return time.Duration(c.BreakerOpenMS) * time.Millisecond
}

// EnrichmentEnabled reports whether an API key is configured.
func (c *Config) EnrichmentEnabled() bool {
	return strings.TrimSpace(c.GeminiAPIKey) != ""
}

// Validate checks the values the service cannot start without.
func (c *Config) Validate() error {
	switch {
	case c.Addr == "":
		return fmt.Errorf("%w: addr must not be empty", ErrInvalidConfig)
	case c.CropModelPath == "":
		return fmt.Errorf("%w: crop_model_path must not be empty", ErrInvalidConfig)
	case c.RateLimitCapacity <= 0:
		return fmt.Errorf("%w: rate_limit_capacity must be positive", ErrInvalidConfig)
	case c.RateLimitWindowSeconds <= 0:
		return fmt.Errorf("%w: rate_limit_window_seconds must be positive", ErrInvalidConfig)
	case c.EnrichmentTimeoutMS <= 0:
		return fmt.Errorf("%w: enrichment_timeout_ms must be positive", ErrInvalidConfig)
	case c.BreakerFailures <= 0:
		return fmt.Errorf("%w: breaker_failures must be positive", ErrInvalidConfig)
	}
	switch strings.ToLower(c.LogFormat) {
	case "text", "json":
	default:
		return fmt.Errorf("%w: log_format must be text or json", ErrInvalidConfig)
	}
	switch c.TraceExporter {
	case "", "none", "stdout":
	default:
		return fmt.Errorf("%w: trace_exporter must be none or stdout", ErrInvalidConfig)
	}
	return nil
}
