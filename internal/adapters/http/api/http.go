// Package api declares HTTP contracts and route registration helpers.
package api

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"

	service "github.com/okian/cropadvisor/internal/app"
	"github.com/okian/cropadvisor/internal/domain/model"
	"github.com/okian/cropadvisor/pkg/logger"
)

// Dependencies required by HTTP handlers.
type Dependencies interface {
	Predict(ctx context.Context, req service.Request) (model.PredictionResult, error)
	Ready() bool
	Stats() service.Stats
}

// Mount registers extra routes, such as the docs and the web form, on the router.
type Mount func(r chi.Router)

// Server wires HTTP routes for the business API.
type Server struct {
	predictHandler *PredictHandler
	healthHandler  *HealthHandler
	statsHandler   *StatsHandler
	log            logger.Logger
}

// NewServer creates a new API server with all handlers.
func NewServer(deps Dependencies, opts ...Option) *Server {
	o := options{}
	for _, opt := range opts {
		opt(&o)
	}
	if o.log == nil {
		o.log = logger.Get().Named("http")
	}
	return &Server{
		predictHandler: NewPredictHandler(deps, o.log),
		healthHandler:  NewHealthHandler(deps),
		statsHandler:   NewStatsHandler(deps),
		log:            o.log,
	}
}

// Router returns the chi router serving every API route plus mounts.
func (s *Server) Router(mounts ...Mount) http.Handler {
	r := chi.NewRouter()

	// Order: request id -> access log -> metrics -> recover
	r.Use(RequestIDMiddleware)
	r.Use(AccessLogMiddleware(s.log))
	r.Use(MetricsMiddleware)
	r.Use(RecoverMiddleware(s.log))

	r.NotFound(func(w http.ResponseWriter, _ *http.Request) {
		writeError(w, http.StatusNotFound, "not_found", nil)
	})
	r.MethodNotAllowed(func(w http.ResponseWriter, _ *http.Request) {
		writeError(w, http.StatusMethodNotAllowed, "method_not_allowed", nil)
	})

	s.Register(r)
	for _, m := range mounts {
		m(r)
	}
	return r
}

// Register attaches all API routes to r.
func (s *Server) Register(r chi.Router) {
	r.Post("/predict", s.predictHandler.HandlePredict)
	r.Post("/sendCrop", s.predictHandler.HandlePredict)
	r.Get("/health", s.healthHandler.HandleHealth)
	r.Get("/readyz", s.healthHandler.HandleReady)
	r.Get("/stats", s.statsHandler.HandleStats)
	r.Get("/metrics", s.healthHandler.HandleMetrics)
}

type errorResponse struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, code string, err error) {
	msg := http.StatusText(status)
	if err != nil {
		msg = err.Error()
	}
	writeJSON(w, status, errorResponse{Code: code, Message: msg})
}
