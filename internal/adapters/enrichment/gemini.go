// Package enrichment asks a generative language model to explain a crop
// recommendation.
package enrichment

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/sony/gobreaker"
	"google.golang.org/genai"

	"github.com/okian/cropadvisor/internal/domain/model"
	"github.com/okian/cropadvisor/pkg/logger"
	"github.com/okian/cropadvisor/pkg/metrics"
)

// Defaults for the Gemini client.
const (
	DefaultModel      = "gemini-2.0-flash-001"
	DefaultAPIVersion = "v1alpha"

	defaultBreakerFailures = 5
	defaultBreakerOpen     = 30 * time.Second
)

// Client produces a natural-language explanation for a recommended crop.
type Client interface {
	Explain(ctx context.Context, crop string, r model.SoilReading) (string, error)
}

// Generator is the single call the client makes against the model API.
type Generator interface {
	Generate(ctx context.Context, model, prompt string) (string, error)
}

type genaiGenerator struct {
	client *genai.Client
}

func (g *genaiGenerator) Generate(ctx context.Context, modelName, prompt string) (string, error) {
	resp, err := g.client.Models.GenerateContent(ctx, modelName, genai.Text(prompt), nil)
	if err != nil {
		return "", err
	}
	text := resp.Text()
	if strings.TrimSpace(text) == "" {
		return "", ErrEmptyResponse
	}
	return text, nil
}

// GeminiClient calls Gemini through a circuit breaker. It never retries.
type GeminiClient struct {
	gen     Generator
	model   string
	breaker *gobreaker.CircuitBreaker
	log     logger.Logger

	apiVersion      string
	breakerFailures uint32
	breakerOpen     time.Duration
}

var _ Client = (*GeminiClient)(nil)

// NewGemini creates a client backed by the Gemini API.
func NewGemini(ctx context.Context, apiKey string, opts ...Option) (*GeminiClient, error) {
	if strings.TrimSpace(apiKey) == "" {
		return nil, ErrNotConfigured
	}
	c := newClient(opts...)

	gc, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:      apiKey,
		Backend:     genai.BackendGeminiAPI,
		HTTPOptions: genai.HTTPOptions{APIVersion: c.apiVersion},
	})
	if err != nil {
		return nil, fmt.Errorf("create gemini client: %w", err)
	}
	c.gen = &genaiGenerator{client: gc}
	return c, nil
}

// NewWithGenerator creates a client over any Generator.
func NewWithGenerator(gen Generator, opts ...Option) *GeminiClient {
	c := newClient(opts...)
	c.gen = gen
	return c
}

func newClient(opts ...Option) *GeminiClient {
	c := &GeminiClient{
		model:           DefaultModel,
		apiVersion:      DefaultAPIVersion,
		breakerFailures: defaultBreakerFailures,
		breakerOpen:     defaultBreakerOpen,
		log:             logger.Get().Named("enrichment"),
	}
	for _, opt := range opts {
		opt(c)
	}
	c.breaker = gobreaker.NewCircuitBreaker(gobreaker.Settings{
		Name:    "gemini",
		Timeout: c.breakerOpen,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= c.breakerFailures
		},
		// A caller that went away says nothing about the upstream; timeouts still count.
		IsSuccessful: func(err error) bool {
			return err == nil || errors.Is(err, context.Canceled)
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			c.log.Warn(context.Background(), "circuit breaker state changed",
				logger.String("breaker", name),
				logger.String("from", from.String()),
				logger.String("to", to.String()))
		},
	})
	return c
}

// Model returns the model name requests are sent to.
func (c *GeminiClient) Model() string { return c.model }

// Explain asks the model why crop suits r.
func (c *GeminiClient) Explain(ctx context.Context, crop string, r model.SoilReading) (string, error) {
	prompt := BuildPrompt(crop, r)

	start := time.Now()
	out, err := c.breaker.Execute(func() (any, error) {
		return c.gen.Generate(ctx, c.model, prompt)
	})
	if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
		return "", fmt.Errorf("%w: %v", ErrBreakerOpen, err)
	}
	metrics.RecordEnrichmentLatency(float64(time.Since(start).Milliseconds()))
	if err != nil {
		c.log.Debug(ctx, "enrichment call failed", logger.String("crop", crop), logger.Error(err))
		return "", err
	}
	return out.(string), nil
}

// Disabled is used when no API key is configured.
type Disabled struct{}

var _ Client = Disabled{}

// Explain always fails with ErrNotConfigured.
func (Disabled) Explain(context.Context, string, model.SoilReading) (string, error) {
	return "", ErrNotConfigured
}
