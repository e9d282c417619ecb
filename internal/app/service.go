// Package service runs the crop and fertilizer prediction workflow.
package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"
	"unicode"
	"unicode/utf8"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"

	"github.com/okian/cropadvisor/internal/adapters/enrichment"
	"github.com/okian/cropadvisor/internal/adapters/modelstore"
	"github.com/okian/cropadvisor/internal/domain/classifier"
	"github.com/okian/cropadvisor/internal/domain/features"
	"github.com/okian/cropadvisor/internal/domain/model"
	"github.com/okian/cropadvisor/internal/domain/ratelimit"
	"github.com/okian/cropadvisor/pkg/logger"
	"github.com/okian/cropadvisor/pkg/metrics"
	"github.com/okian/cropadvisor/pkg/tracing"
)

const (
	defaultEnrichmentTimeout = 10 * time.Second

	msgInvalidInput   = "Error: Invalid input. Please enter numerical values only."
	msgEnrichmentFail = "Error fetching details from Gemini API: "
)

// Models supplies the predictors for one request.
type Models interface {
	Snapshot(ctx context.Context) modelstore.Snapshot
	Status() []modelstore.Status
	Ready() bool
}

// Request is one prediction request.
type Request struct {
	Reading model.SoilReading
	// SoilType overrides the configured default when non-empty.
	SoilType string
}

// Stats is the service state exposed for monitoring.
type Stats struct {
	RateLimit ratelimit.Stats     `json:"rate_limit"`
	Models    []modelstore.Status `json:"models"`
}

// Service implements the prediction workflow. It is safe for concurrent use;
// the limiter is the only shared mutable state.
type Service struct {
	models            Models
	limiter           ratelimit.Limiter
	enricher          enrichment.Client
	enrichmentTimeout time.Duration
	defaultSoilType   string
	logger            logger.Logger
}

// New constructs a Service. Without WithModels every request aborts with
// ErrModelLoad; without WithEnrichment explanations report a missing API key.
func New(opts ...Option) *Service {
	s := &Service{
		limiter:           ratelimit.NewWindowLimiter(),
		enricher:          enrichment.Disabled{},
		enrichmentTimeout: defaultEnrichmentTimeout,
		defaultSoilType:   features.DefaultSoilType,
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.logger == nil {
		s.logger = logger.Get().Named("service")
	}
	return s
}

// Predict runs the workflow for one reading. The returned error is non-nil
// only when the request aborted: it wraps ErrModelLoad or ErrInvalidInput,
// and the result then carries only the error message.
func (s *Service) Predict(ctx context.Context, req Request) (model.PredictionResult, error) {
	start := time.Now()
	ctx, span := tracing.Tracer().Start(ctx, "prediction.workflow")
	defer span.End()

	res, err := s.run(ctx, req)

	outcome := metrics.OutcomeDone
	switch {
	case errors.Is(err, ErrModelLoad):
		outcome = metrics.OutcomeModelUnavailable
	case errors.Is(err, ErrInvalidInput):
		outcome = metrics.OutcomeInvalidInput
	}
	metrics.RecordPrediction(outcome, float64(time.Since(start).Milliseconds()))

	span.SetAttributes(attribute.String("prediction.stage", res.Stage.String()))
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, outcome)
		s.logger.Warn(ctx, "prediction aborted", logger.String("outcome", outcome), logger.Error(err))
	}
	return res, err
}

func (s *Service) run(ctx context.Context, req Request) (model.PredictionResult, error) {
	res := model.PredictionResult{Stage: model.StageInit}
	r := req.Reading

	if s.models == nil {
		return model.Aborted("Error: no models configured."), fmt.Errorf("%w: no model store", ErrModelLoad)
	}
	snap := s.models.Snapshot(ctx)
	if snap.Crop == nil {
		return model.Aborted(fmt.Sprintf("Error: crop model unavailable: %v", snap.CropErr)),
			fmt.Errorf("%w: %v", ErrModelLoad, snap.CropErr)
	}
	res.Stage = model.StageModelsLoaded

	label, err := s.predictCrop(ctx, snap, r)
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return model.Aborted("Error: request cancelled."), ctxErr
		}
		if errors.Is(err, model.ErrInvalidReading) || errors.Is(err, classifier.ErrInvalidInput) {
			return model.Aborted(msgInvalidInput), fmt.Errorf("%w: %v", ErrInvalidInput, err)
		}
		// The reading was well formed, so the crop model itself does not fit.
		return model.Aborted(fmt.Sprintf("Error: crop model unavailable: %v", err)),
			fmt.Errorf("%w: %v", ErrModelLoad, err)
	}
	crop := displayName(label)
	res.Crop = &crop
	res.Stage = model.StageCropPredicted
	metrics.RecordCrop(crop)

	if fert, msg := s.predictFertilizer(ctx, snap, label, r, req.SoilType); msg != "" {
		res.Error = &msg
		metrics.RecordFertilizerFailure()
	} else {
		res.Fertilizer = &fert
	}
	res.Stage = model.StageFertilizerAttempted

	text := s.enrich(ctx, crop, r)
	res.Enrichment = &text
	res.Stage = model.StageEnrichmentAttempted

	res.Stage = model.StageDone
	return res, nil
}

func (s *Service) predictCrop(ctx context.Context, snap modelstore.Snapshot, r model.SoilReading) (string, error) {
	ctx, span := tracing.Tracer().Start(ctx, "prediction.crop")
	defer span.End()

	if err := r.Validate(); err != nil {
		span.RecordError(err)
		return "", err
	}
	p, err := snap.Crop.Predict(ctx, features.CropRecord(r))
	if err != nil {
		span.RecordError(err)
		return "", err
	}
	span.SetAttributes(
		attribute.String("crop.label", p.Label),
		attribute.Float64("crop.confidence", p.Confidence),
	)
	return p.Label, nil
}

// predictFertilizer returns the fertilizer name, or a message for the error
// field when it could not be predicted.
func (s *Service) predictFertilizer(ctx context.Context, snap modelstore.Snapshot, crop string, r model.SoilReading, soil string) (string, string) {
	ctx, span := tracing.Tracer().Start(ctx, "prediction.fertilizer")
	defer span.End()

	if snap.Fertilizer == nil {
		span.SetStatus(codes.Error, "model unavailable")
		return "", fmt.Sprintf("Error: fertilizer model unavailable: %v", snap.FertilizerErr)
	}
	if strings.TrimSpace(soil) == "" {
		soil = s.defaultSoilType
	}
	q := features.Fertilizer(crop, r, soil)
	span.SetAttributes(
		attribute.String("fertilizer.soil_type", q.SoilType),
		attribute.String("fertilizer.crop_type", q.CropType),
	)

	p, err := snap.Fertilizer.Predict(ctx, features.FertilizerRecord(q))
	if err != nil {
		span.RecordError(err)
		s.logger.Warn(ctx, "fertilizer prediction failed",
			logger.String("crop_type", q.CropType),
			logger.String("soil_type", q.SoilType),
			logger.Error(err))
		return "", fmt.Sprintf("Error: fertilizer prediction failed: %v", err)
	}
	return p.Label, ""
}

// enrich always returns text for the enrichment field.
func (s *Service) enrich(ctx context.Context, crop string, r model.SoilReading) string {
	ctx, span := tracing.Tracer().Start(ctx, "prediction.enrichment")
	defer span.End()

	admitted := s.limiter.TryAcquire(ctx)
	st := s.limiter.Stats()
	metrics.UpdateRateLimit(st.Capacity, st.InWindow)
	span.SetAttributes(attribute.Bool("ratelimit.admitted", admitted))
	if !admitted {
		metrics.RecordEnrichment(metrics.EnrichmentRateLimited)
		return RateLimitMessage(st.Capacity, st.Window)
	}

	ectx, cancel := context.WithTimeout(ctx, s.enrichmentTimeout)
	defer cancel()
	text, err := s.enricher.Explain(ectx, crop, r)
	metrics.RecordEnrichment(enrichmentOutcome(err))
	if err == nil {
		return text
	}

	span.RecordError(err)
	span.SetStatus(codes.Error, "enrichment failed")
	s.logger.Debug(ctx, "enrichment failed", logger.String("crop", crop), logger.Error(err))
	if errors.Is(err, enrichment.ErrNotConfigured) {
		return "Error: " + err.Error() + "."
	}
	return msgEnrichmentFail + err.Error()
}

func enrichmentOutcome(err error) string {
	switch {
	case err == nil:
		return metrics.EnrichmentOK
	case errors.Is(err, context.DeadlineExceeded):
		return metrics.EnrichmentTimeout
	case errors.Is(err, enrichment.ErrBreakerOpen):
		return metrics.EnrichmentBreakerOpen
	case errors.Is(err, enrichment.ErrNotConfigured):
		return metrics.EnrichmentDisabled
	default:
		return metrics.EnrichmentError
	}
}

// RateLimitMessage is the enrichment text used when the limiter rejects a
// call, e.g. "Rate limit of 50 requests per hour exceeded. Please try again later."
func RateLimitMessage(capacity int, window time.Duration) string {
	return fmt.Sprintf("Rate limit of %d requests per %s exceeded. Please try again later.", capacity, windowText(window))
}

func windowText(w time.Duration) string {
	unit := func(n int64, name string) string {
		if n == 1 {
			return name
		}
		return fmt.Sprintf("%d %ss", n, name)
	}
	switch {
	case w >= time.Hour && w%time.Hour == 0:
		return unit(int64(w/time.Hour), "hour")
	case w >= time.Minute && w%time.Minute == 0:
		return unit(int64(w/time.Minute), "minute")
	default:
		return unit(int64(w/time.Second), "second")
	}
}

// displayName upper-cases the first letter and lower-cases the rest.
func displayName(label string) string {
	first, size := utf8.DecodeRuneInString(label)
	if first == utf8.RuneError {
		return label
	}
	return string(unicode.ToUpper(first)) + strings.ToLower(label[size:])
}

// Ready reports whether predictions can be served.
func (s *Service) Ready() bool {
	return s.models != nil && s.models.Ready()
}

// Stats returns limiter and model state.
func (s *Service) Stats() Stats {
	st := Stats{RateLimit: s.limiter.Stats()}
	if s.models != nil {
		st.Models = s.models.Status()
	}
	return st
}
