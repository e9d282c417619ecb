package smoke

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/okian/cropadvisor/internal/domain/model"
	"github.com/okian/cropadvisor/pkg/logger"
)

// Run checks health, then submits cfg.Requests predictions using cfg.Workers
// concurrent workers. It returns ErrFailures when any prediction failed.
func Run(ctx context.Context, cfg Config) (*Stats, error) {
	if err := validate(&cfg); err != nil {
		return nil, err
	}
	log := logger.Named("smoke")
	stats := &Stats{
		StartTime:   time.Now(),
		Crops:       map[string]int{},
		Fertilizers: map[string]int{},
	}

	log.Info(ctx, "starting smoke run",
		logger.String("baseURL", cfg.BaseURL),
		logger.Int("requests", cfg.Requests),
		logger.Int("workers", cfg.Workers),
		logger.Duration("timeout", cfg.Timeout))

	client := NewHTTPClient(cfg.BaseURL, cfg.Timeout)
	if err := client.Health(ctx); err != nil {
		return nil, fmt.Errorf("service health check failed: %w", err)
	}

	var mu sync.Mutex
	jobs := make(chan int)
	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		defer close(jobs)
		for i := 0; i < cfg.Requests; i++ {
			select {
			case <-gctx.Done():
				return gctx.Err()
			case jobs <- i:
			}
		}
		return nil
	})

	for w := 0; w < cfg.Workers; w++ {
		g.Go(func() error {
			for range jobs {
				res, status, err := client.Predict(gctx, cfg.Reading, cfg.SoilType)
				mu.Lock()
				stats.record(res, status, err)
				mu.Unlock()
			}
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return stats, fmt.Errorf("smoke run interrupted: %w", err)
	}
	stats.Duration = time.Since(stats.StartTime)

	log.Info(ctx, "smoke run finished",
		logger.Int("submitted", stats.Submitted),
		logger.Int("succeeded", stats.Succeeded),
		logger.Int("failed", stats.Failed),
		logger.Int("rateLimited", stats.RateLimited),
		logger.Int("fieldErrors", stats.FieldErrors),
		logger.Duration("duration", stats.Duration))

	if stats.Failed > 0 {
		return stats, fmt.Errorf("%w: %d of %d, first: %s", ErrFailures, stats.Failed, stats.Submitted, stats.FirstFailure)
	}
	return stats, nil
}

func validate(cfg *Config) error {
	if cfg.BaseURL == "" {
		cfg.BaseURL = DefaultBaseURL
	}
	cfg.BaseURL = strings.TrimRight(cfg.BaseURL, "/")
	if cfg.Requests == 0 {
		cfg.Requests = DefaultRequests
	}
	if cfg.Workers == 0 {
		cfg.Workers = 1
	}
	if cfg.Timeout == 0 {
		cfg.Timeout = DefaultTimeout
	}
	if cfg.Reading == (model.SoilReading{}) {
		cfg.Reading = SampleReading
	}
	if cfg.Requests < 0 || cfg.Workers < 0 || cfg.Timeout < 0 {
		return fmt.Errorf("%w: requests, workers and timeout must be positive", ErrInvalidConfig)
	}
	return nil
}

func (s *Stats) record(res Result, status int, err error) {
	s.Submitted++
	if err != nil || status != http.StatusOK {
		s.Failed++
		if s.FirstFailure == "" {
			s.FirstFailure = failureText(res, status, err)
		}
		return
	}
	s.Succeeded++
	if res.Crop != nil {
		s.Crops[*res.Crop]++
	}
	if res.Fertilizer != nil {
		s.Fertilizers[*res.Fertilizer]++
	}
	if res.Error != nil {
		s.FieldErrors++
	}
	if res.Enrichment != nil && strings.HasPrefix(*res.Enrichment, rateLimitPrefix) {
		s.RateLimited++
	}
}

func failureText(res Result, status int, err error) string {
	switch {
	case err != nil:
		return err.Error()
	case res.Error != nil:
		return fmt.Sprintf("status %d: %s", status, *res.Error)
	default:
		return fmt.Sprintf("status %d", status)
	}
}
