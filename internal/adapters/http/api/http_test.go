package api_test

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/okian/cropadvisor/internal/adapters/http/api"
	"github.com/okian/cropadvisor/internal/adapters/modelstore"
	service "github.com/okian/cropadvisor/internal/app"
	"github.com/okian/cropadvisor/internal/domain/model"
	"github.com/okian/cropadvisor/internal/domain/ratelimit"
	"github.com/okian/cropadvisor/pkg/logger"
	. "github.com/smartystreets/goconvey/convey"
)

// Mock implementations for testing
type mockDependencies struct {
	mu       sync.Mutex
	requests []service.Request
	result   model.PredictionResult
	err      error
	panicMsg string
	ready    bool
}

func (m *mockDependencies) Predict(_ context.Context, req service.Request) (model.PredictionResult, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.panicMsg != "" {
		panic(m.panicMsg)
	}
	m.requests = append(m.requests, req)
	return m.result, m.err
}

func (m *mockDependencies) Ready() bool { return m.ready }

func (m *mockDependencies) Stats() service.Stats {
	return service.Stats{
		RateLimit: ratelimit.Stats{Capacity: 50, Window: time.Hour, InWindow: 3},
		Models: []modelstore.Status{
			{Name: modelstore.Crop, Loaded: m.ready},
			{Name: modelstore.Fertilizer, Loaded: true},
		},
	}
}

func doneResult() model.PredictionResult {
	return model.PredictionResult{
		Crop:       model.Ptr("Maize"),
		Fertilizer: model.Ptr("28-28"),
		Enrichment: model.Ptr("Maize grows well here."),
		Stage:      model.StageDone,
	}
}

const sampleBody = `{"N":50,"P":40,"K":30,"temperature":25,"humidity":60,"ph":6.5,"rainfall":100}`

func newRouter(deps *mockDependencies, mounts ...api.Mount) http.Handler {
	_ = logger.Init()
	return api.NewServer(deps, api.WithLogger(logger.Get())).Router(mounts...)
}

func serve(h http.Handler, method, target, body string) *httptest.ResponseRecorder {
	var req *http.Request
	if body == "" {
		req = httptest.NewRequest(method, target, http.NoBody)
	} else {
		req = httptest.NewRequest(method, target, strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
	}
	w := httptest.NewRecorder()
	h.ServeHTTP(w, req)
	return w
}

func decodeBody(w *httptest.ResponseRecorder) map[string]any {
	var out map[string]any
	So(json.Unmarshal(w.Body.Bytes(), &out), ShouldBeNil)
	return out
}

func TestPredictEndpoint(t *testing.T) {
	Convey("Given an API router", t, func() {
		deps := &mockDependencies{result: doneResult(), ready: true}
		h := newRouter(deps)

		Convey("When posting a valid reading", func() {
			w := serve(h, http.MethodPost, "/predict", sampleBody)

			Convey("Then it should return 200 with all four fields", func() {
				So(w.Code, ShouldEqual, http.StatusOK)
				So(w.Header().Get("Content-Type"), ShouldEqual, "application/json; charset=utf-8")
				body := decodeBody(w)
				So(body, ShouldContainKey, "crop")
				So(body, ShouldContainKey, "fertilizer")
				So(body, ShouldContainKey, "enrichment")
				So(body, ShouldContainKey, "error")
				So(body["crop"], ShouldEqual, "Maize")
				So(body["fertilizer"], ShouldEqual, "28-28")
				So(body["error"], ShouldBeNil)
			})

			Convey("And the reading should reach the service in model order", func() {
				So(deps.requests, ShouldHaveLength, 1)
				So(deps.requests[0].Reading, ShouldResemble, model.SoilReading{
					N: 50, P: 40, K: 30, Temperature: 25, Humidity: 60, PH: 6.5, Rainfall: 100,
				})
				So(deps.requests[0].SoilType, ShouldEqual, "")
			})
		})

		Convey("When keys are shuffled, mixed case, and values are strings", func() {
			body := `{"RAINFALL":"100","ph":"6.5","Humidity":60,"temperature":" 25 ","k":30,"p":"40","n":50}`
			w := serve(h, http.MethodPost, "/sendCrop?soil_type=Sandy", body)

			Convey("Then the legacy route should accept it", func() {
				So(w.Code, ShouldEqual, http.StatusOK)
				So(deps.requests, ShouldHaveLength, 1)
				So(deps.requests[0].Reading.Rainfall, ShouldEqual, 100)
				So(deps.requests[0].Reading.Temperature, ShouldEqual, 25)
				So(deps.requests[0].SoilType, ShouldEqual, "Sandy")
			})
		})

		Convey("When the body ends with a newline", func() {
			w := serve(h, http.MethodPost, "/predict", sampleBody+"\n")

			Convey("Then it should still be accepted", func() {
				So(w.Code, ShouldEqual, http.StatusOK)
				So(deps.requests, ShouldHaveLength, 1)
			})
		})

		Convey("When the body is malformed", func() {
			cases := []struct {
				name string
				body string
			}{
				{"not json", `N=50`},
				{"array", `[50,40,30,25,60,6.5,100]`},
				{"null", `null`},
				{"missing key", `{"N":50,"P":40,"K":30,"temperature":25,"humidity":60,"ph":6.5}`},
				{"extra key", `{"N":50,"P":40,"K":30,"temperature":25,"humidity":60,"ph":6.5,"rainfall":100,"soil":1}`},
				{"duplicate key", `{"N":50,"n":50,"P":40,"K":30,"temperature":25,"humidity":60,"ph":6.5}`},
				{"word value", `{"N":"abc","P":40,"K":30,"temperature":25,"humidity":60,"ph":6.5,"rainfall":100}`},
				{"null value", `{"N":null,"P":40,"K":30,"temperature":25,"humidity":60,"ph":6.5,"rainfall":100}`},
				{"bool value", `{"N":true,"P":40,"K":30,"temperature":25,"humidity":60,"ph":6.5,"rainfall":100}`},
				{"exact duplicate key", `{"N":1,"N":2,"P":40,"K":30,"temperature":25,"humidity":60,"ph":6.5,"rainfall":100}`},
				{"trailing object", `{"N":50,"P":40,"K":30,"temperature":25,"humidity":60,"ph":6.5,"rainfall":100} {"N":"junk"}`},
				{"trailing garbage", `{"N":50,"P":40,"K":30,"temperature":25,"humidity":60,"ph":6.5,"rainfall":100}x`},
				{"unterminated object", `{"N":50,"P":40,"K":30,"temperature":25,"humidity":60,"ph":6.5,"rainfall":100`},
				{"nested value", `{"N":{"v":50},"P":40,"K":30,"temperature":25,"humidity":60,"ph":6.5,"rainfall":100}`},
			}
			for _, tc := range cases {
				w := serve(h, http.MethodPost, "/predict", tc.body)
				So(w.Code, ShouldEqual, http.StatusBadRequest)
				body := decodeBody(w)
				So(body["error"], ShouldEqual, "Error: Invalid input. Please enter numerical values only.")
				So(body, ShouldContainKey, "crop")
				So(body["crop"], ShouldBeNil)
			}

			Convey("Then the service should never be called", func() {
				So(deps.requests, ShouldBeEmpty)
			})
		})

		Convey("When the service reports invalid input", func() {
			deps.result = model.Aborted("Error: Invalid input. Please enter numerical values only.")
			deps.err = fmt.Errorf("%w: non-finite", service.ErrInvalidInput)
			w := serve(h, http.MethodPost, "/predict", sampleBody)

			Convey("Then it should return 400", func() {
				So(w.Code, ShouldEqual, http.StatusBadRequest)
			})
		})

		Convey("When the crop model is unavailable", func() {
			deps.result = model.Aborted("Error: crop model unavailable: missing")
			deps.err = fmt.Errorf("%w: missing", service.ErrModelLoad)
			w := serve(h, http.MethodPost, "/predict", sampleBody)

			Convey("Then it should return 503 with the error field", func() {
				So(w.Code, ShouldEqual, http.StatusServiceUnavailable)
				So(decodeBody(w)["error"], ShouldContainSubstring, "crop model unavailable")
			})
		})

		Convey("When the service fails unexpectedly", func() {
			deps.result = model.Aborted("Error: request cancelled.")
			deps.err = context.Canceled
			w := serve(h, http.MethodPost, "/predict", sampleBody)

			Convey("Then it should return 500", func() {
				So(w.Code, ShouldEqual, http.StatusInternalServerError)
			})
		})

		Convey("When the service panics", func() {
			deps.panicMsg = "boom"
			w := serve(h, http.MethodPost, "/predict", sampleBody)

			Convey("Then it should return 500 with a generic body", func() {
				So(w.Code, ShouldEqual, http.StatusInternalServerError)
				body := decodeBody(w)
				So(body["error"], ShouldEqual, "Error: internal server error.")
				So(body, ShouldContainKey, "enrichment")
			})
		})

		Convey("When using the wrong method", func() {
			w := serve(h, http.MethodGet, "/predict", "")

			Convey("Then it should return 405 with a JSON body", func() {
				So(w.Code, ShouldEqual, http.StatusMethodNotAllowed)
				So(decodeBody(w)["code"], ShouldEqual, "method_not_allowed")
			})
		})

		Convey("When requesting an unknown path", func() {
			w := serve(h, http.MethodGet, "/unknown", "")

			Convey("Then it should return 404 with a JSON body", func() {
				So(w.Code, ShouldEqual, http.StatusNotFound)
				So(decodeBody(w)["code"], ShouldEqual, "not_found")
			})
		})
	})
}

func TestOperationalEndpoints(t *testing.T) {
	Convey("Given an API router", t, func() {
		deps := &mockDependencies{ready: true}
		h := newRouter(deps)

		Convey("Then health should be constant", func() {
			w := serve(h, http.MethodGet, "/health", "")
			So(w.Code, ShouldEqual, http.StatusOK)
			So(decodeBody(w)["status"], ShouldEqual, "ok")
		})

		Convey("Then readyz should follow the crop model", func() {
			w := serve(h, http.MethodGet, "/readyz", "")
			So(w.Code, ShouldEqual, http.StatusOK)
			So(decodeBody(w)["status"], ShouldEqual, "ready")

			deps.ready = false
			w = serve(h, http.MethodGet, "/readyz", "")
			So(w.Code, ShouldEqual, http.StatusServiceUnavailable)
			body := decodeBody(w)
			So(body["status"], ShouldEqual, "not_ready")
			So(body["models"], ShouldHaveLength, 2)
		})

		Convey("Then stats should report the limiter", func() {
			w := serve(h, http.MethodGet, "/stats", "")
			So(w.Code, ShouldEqual, http.StatusOK)
			rl, ok := decodeBody(w)["rate_limit"].(map[string]any)
			So(ok, ShouldBeTrue)
			So(rl["capacity"], ShouldEqual, float64(50))
			So(rl["in_window"], ShouldEqual, float64(3))
		})

		Convey("Then metrics should expose request counters by route", func() {
			_ = serve(h, http.MethodGet, "/health", "")
			w := serve(h, http.MethodGet, "/metrics", "")
			So(w.Code, ShouldEqual, http.StatusOK)
			So(w.Body.String(), ShouldContainSubstring, "cropadvisor_api_http_requests_total")
			So(w.Body.String(), ShouldContainSubstring, `endpoint="/health"`)
		})
	})
}

func TestRequestID(t *testing.T) {
	Convey("Given an API router", t, func() {
		h := newRouter(&mockDependencies{ready: true})

		Convey("When the client sends no request id", func() {
			w := serve(h, http.MethodGet, "/health", "")

			Convey("Then a UUID should be assigned", func() {
				So(w.Header().Get(api.HeaderRequestID), ShouldHaveLength, 36)
			})
		})

		Convey("When the client sends a request id", func() {
			req := httptest.NewRequest(http.MethodGet, "/health", http.NoBody)
			req.Header.Set(api.HeaderRequestID, "abc-123")
			w := httptest.NewRecorder()
			h.ServeHTTP(w, req)

			Convey("Then it should be echoed", func() {
				So(w.Header().Get(api.HeaderRequestID), ShouldEqual, "abc-123")
			})
		})
	})
}

func TestMounts(t *testing.T) {
	Convey("Given a router with an extra mount", t, func() {
		h := newRouter(&mockDependencies{}, func(r chi.Router) {
			r.Get("/extra", func(w http.ResponseWriter, _ *http.Request) {
				w.WriteHeader(http.StatusTeapot)
			})
		})

		Convey("Then the mounted route should be served", func() {
			w := serve(h, http.MethodGet, "/extra", "")
			So(w.Code, ShouldEqual, http.StatusTeapot)
		})
	})
}
