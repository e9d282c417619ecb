package service

import (
	"strings"
	"time"

	"github.com/okian/cropadvisor/internal/adapters/enrichment"
	"github.com/okian/cropadvisor/internal/domain/ratelimit"
	"github.com/okian/cropadvisor/pkg/logger"
)

// Option applies a configuration option to the Service.
type Option func(*Service)

// WithLogger sets a custom logger for the service.
func WithLogger(l logger.Logger) Option {
	return func(s *Service) {
		if l != nil {
			s.logger = l
		}
	}
}

// WithModels sets where the service gets its predictors from.
func WithModels(m Models) Option {
	return func(s *Service) {
		if m != nil {
			s.models = m
		}
	}
}

// WithLimiter sets the limiter that guards enrichment calls.
func WithLimiter(l ratelimit.Limiter) Option {
	return func(s *Service) {
		if l != nil {
			s.limiter = l
		}
	}
}

// WithEnrichment sets the enrichment client.
func WithEnrichment(c enrichment.Client) Option {
	return func(s *Service) {
		if c != nil {
			s.enricher = c
		}
	}
}

// WithEnrichmentTimeout bounds each enrichment call.
func WithEnrichmentTimeout(d time.Duration) Option {
	return func(s *Service) {
		if d > 0 {
			s.enrichmentTimeout = d
		}
	}
}

// WithDefaultSoilType sets the soil type used when a request names none.
func WithDefaultSoilType(soil string) Option {
	return func(s *Service) {
		if strings.TrimSpace(soil) != "" {
			s.defaultSoilType = soil
		}
	}
}
