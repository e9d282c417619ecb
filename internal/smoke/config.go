// Package smoke exercises a running crop advisor service over HTTP.
package smoke

import (
	"time"

	"github.com/okian/cropadvisor/internal/domain/model"
)

// Config holds configuration for a smoke run.
type Config struct {
	BaseURL  string        // Base URL of the service
	Requests int           // Number of predictions to submit
	Workers  int           // Number of concurrent workers
	Timeout  time.Duration // HTTP request timeout
	SoilType string        // Optional soil_type query value
	Reading  model.SoilReading
}

// SampleReading is the reading posted by default.
var SampleReading = model.SoilReading{N: 50, P: 40, K: 30, Temperature: 25, Humidity: 60, PH: 6.5, Rainfall: 100}

// Result is the service response for one prediction.
type Result struct {
	Crop       *string `json:"crop"`
	Fertilizer *string `json:"fertilizer"`
	Enrichment *string `json:"enrichment"`
	Error      *string `json:"error"`
}

// Stats holds smoke run statistics.
type Stats struct {
	Submitted    int
	Succeeded    int // HTTP 200
	Failed       int // transport errors and non-200 responses
	RateLimited  int // enrichment replaced by the rate-limit notice
	Crops        map[string]int
	Fertilizers  map[string]int
	FieldErrors  int // 200 responses with a populated error field
	StartTime    time.Time
	Duration     time.Duration
	FirstFailure string
}
