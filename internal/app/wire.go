package service

import (
	"context"
	"fmt"

	"github.com/okian/cropadvisor/internal/adapters/enrichment"
	"github.com/okian/cropadvisor/internal/adapters/modelstore"
	"github.com/okian/cropadvisor/internal/config"
	"github.com/okian/cropadvisor/internal/domain/ratelimit"
	"github.com/okian/cropadvisor/pkg/logger"
)

// Components are the long-lived parts built from configuration.
type Components struct {
	Service *Service
	Models  *modelstore.Store
	Limiter *ratelimit.WindowLimiter
}

// FromConfig builds the model store, limiter, enrichment client and Service.
// A crop model that fails to load is logged, not returned: requests abort
// with ErrModelLoad until the file appears.
func FromConfig(ctx context.Context, cfg *config.Config, log logger.Logger) (*Components, error) {
	if log == nil {
		log = logger.Get()
	}

	store := modelstore.New(cfg.CropModelPath, cfg.FertilizerModelPath,
		modelstore.WithLogger(log.Named("modelstore")))
	if err := store.Load(ctx); err != nil {
		log.Warn(ctx, "crop model not loaded; predictions will fail until it is available",
			logger.String("path", cfg.CropModelPath), logger.Error(err))
	}

	limiter := ratelimit.NewWindowLimiter(
		ratelimit.WithCapacity(cfg.RateLimitCapacity),
		ratelimit.WithWindow(cfg.RateLimitWindow()),
	)

	var enricher enrichment.Client = enrichment.Disabled{}
	if cfg.EnrichmentEnabled() {
		gc, err := enrichment.NewGemini(ctx, cfg.GeminiAPIKey,
			enrichment.WithModel(cfg.GeminiModel),
			enrichment.WithAPIVersion(cfg.GeminiAPIVersion),
			enrichment.WithBreaker(cfg.BreakerFailures, cfg.BreakerOpen()),
			enrichment.WithLogger(log.Named("enrichment")),
		)
		if err != nil {
			return nil, fmt.Errorf("enrichment client: %w", err)
		}
		enricher = gc
		log.Info(ctx, "enrichment enabled", logger.String("model", gc.Model()))
	} else {
		log.Warn(ctx, "no API key configured; enrichment disabled")
	}

	svc := New(
		WithLogger(log.Named("service")),
		WithModels(store),
		WithLimiter(limiter),
		WithEnrichment(enricher),
		WithEnrichmentTimeout(cfg.EnrichmentTimeout()),
		WithDefaultSoilType(cfg.DefaultSoilType),
	)
	return &Components{Service: svc, Models: store, Limiter: limiter}, nil
}
