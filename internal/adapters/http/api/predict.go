package api

import (
	"errors"
	"net/http"

	service "github.com/okian/cropadvisor/internal/app"
	"github.com/okian/cropadvisor/internal/domain/model"
	"github.com/okian/cropadvisor/pkg/logger"
)

const msgInvalidInput = "Error: Invalid input. Please enter numerical values only."

// PredictHandler handles prediction requests.
type PredictHandler struct {
	deps Dependencies
	log  logger.Logger
}

// NewPredictHandler creates a new predict handler.
func NewPredictHandler(deps Dependencies, log logger.Logger) *PredictHandler {
	return &PredictHandler{deps: deps, log: log}
}

// HandlePredict handles POST /predict and POST /sendCrop requests.
// Every response body carries crop, fertilizer, enrichment and error.
func (h *PredictHandler) HandlePredict(w http.ResponseWriter, r *http.Request) {
	reading, err := decodeReading(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	if err != nil {
		h.log.Debug(r.Context(), "rejected prediction body", logger.Error(err))
		writeJSON(w, http.StatusBadRequest, model.Aborted(msgInvalidInput))
		return
	}

	res, err := h.deps.Predict(r.Context(), service.Request{
		Reading:  reading,
		SoilType: r.URL.Query().Get("soil_type"),
	})
	writeJSON(w, statusFor(err), res)
}

func statusFor(err error) int {
	switch {
	case err == nil:
		return http.StatusOK
	case errors.Is(err, service.ErrInvalidInput):
		return http.StatusBadRequest
	case errors.Is(err, service.ErrModelLoad):
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}
