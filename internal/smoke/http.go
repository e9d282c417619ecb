package smoke

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"github.com/okian/cropadvisor/internal/domain/model"
)

// HTTPClient talks to the crop advisor API.
type HTTPClient struct {
	client  *http.Client
	baseURL string
}

// NewHTTPClient creates a client with the given per-request timeout.
func NewHTTPClient(baseURL string, timeout time.Duration) *HTTPClient {
	return &HTTPClient{
		client:  &http.Client{Timeout: timeout},
		baseURL: baseURL,
	}
}

// Health returns nil when GET /health answers 200.
func (c *HTTPClient) Health(ctx context.Context) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/health", http.NoBody)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	resp, err := c.client.Do(req)
	if err != nil {
		return fmt.Errorf("%w: %w", ErrUnhealthy, err)
	}
	defer func() { _ = resp.Body.Close() }()
	_, _ = io.Copy(io.Discard, resp.Body)

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("%w: status %d", ErrUnhealthy, resp.StatusCode)
	}
	return nil
}

// Predict posts one reading and returns the decoded body and status code.
func (c *HTTPClient) Predict(ctx context.Context, r model.SoilReading, soilType string) (Result, int, error) {
	body := make(map[string]float64, len(model.FieldNames))
	for i, v := range r.Values() {
		body[model.FieldNames[i]] = v
	}
	data, err := json.Marshal(body)
	if err != nil {
		return Result{}, 0, fmt.Errorf("failed to marshal request body: %w", err)
	}

	target := c.baseURL + "/predict"
	if soilType != "" {
		target += "?soil_type=" + url.QueryEscape(soilType)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, target, bytes.NewReader(data))
	if err != nil {
		return Result{}, 0, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.client.Do(req)
	if err != nil {
		return Result{}, 0, fmt.Errorf("failed to post reading: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	var res Result
	if err := json.NewDecoder(resp.Body).Decode(&res); err != nil {
		return Result{}, resp.StatusCode, fmt.Errorf("failed to decode response: %w", err)
	}
	return res, resp.StatusCode, nil
}
