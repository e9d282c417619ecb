package metrics

import (
	"strings"
	"sync"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	. "github.com/smartystreets/goconvey/convey"
)

func TestMetricsManagerCreation(t *testing.T) {
	Convey("Given metrics manager creation", t, func() {
		Convey("When creating with default options on a fresh registry", func() {
			registry := prometheus.NewRegistry()
			manager := NewManager(WithPrometheusRegistry(registry))
			manager.predictions.WithLabelValues(OutcomeDone).Inc()

			Convey("Then metrics should use the service namespace", func() {
				So(manager, ShouldNotBeNil)
				n, err := testutil.GatherAndCount(registry, "cropadvisor_api_predictions_total")
				So(err, ShouldBeNil)
				So(n, ShouldEqual, 1)
			})
		})

		Convey("When creating with custom options", func() {
			registry := prometheus.NewRegistry()
			manager := NewManager(
				WithNamespace("test"),
				WithSubsystem("unit"),
				WithHistogramBuckets([]float64{0.1, 0.5, 1.0}),
				WithConstLabels(map[string]string{"env": "test"}),
				WithPrometheusRegistry(registry),
			)
			manager.fertilizerFailures.Inc()

			Convey("Then names and labels should follow the options", func() {
				expected := `
# HELP test_unit_fertilizer_failures_total Fertilizer predictions that failed and were reported in the error field
# TYPE test_unit_fertilizer_failures_total counter
test_unit_fertilizer_failures_total{env="test"} 1
`
				err := testutil.GatherAndCompare(registry, strings.NewReader(expected), "test_unit_fertilizer_failures_total")
				So(err, ShouldBeNil)
			})
		})

		Convey("When creating with empty or nil options", func() {
			registry := prometheus.NewRegistry()
			manager := NewManager(
				WithNamespace(""),
				WithSubsystem(""),
				WithHistogramBuckets(nil),
				WithConstLabels(nil),
				WithPrometheusRegistry(nil),
				WithPrometheusRegistry(registry),
			)

			Convey("Then defaults should be kept", func() {
				So(manager.namespace, ShouldEqual, "cropadvisor")
				So(manager.subsystem, ShouldEqual, "api")
				So(manager.histogramBuckets, ShouldNotBeEmpty)
			})
		})
	})
}

func TestMetricsRecording(t *testing.T) {
	Convey("Given the global metrics manager", t, func() {
		Convey("When recording workflow outcomes", func() {
			before := testutil.ToFloat64(globalManager.predictions.WithLabelValues(OutcomeInvalidInput))
			RecordPrediction(OutcomeInvalidInput, 3.5)
			RecordCrop("Maize")
			RecordFertilizerFailure()

			Convey("Then the counters should move", func() {
				So(testutil.ToFloat64(globalManager.predictions.WithLabelValues(OutcomeInvalidInput)), ShouldEqual, before+1)
				So(testutil.ToFloat64(globalManager.cropPredictions.WithLabelValues("Maize")), ShouldBeGreaterThanOrEqualTo, 1)
			})
		})

		Convey("When recording enrichment and limiter state", func() {
			RecordEnrichment(EnrichmentRateLimited)
			RecordEnrichmentLatency(120)
			UpdateRateLimit(50, 12)

			Convey("Then the gauges should hold the latest values", func() {
				So(testutil.ToFloat64(globalManager.rateLimitCapacity), ShouldEqual, 50)
				So(testutil.ToFloat64(globalManager.rateLimitInWindow), ShouldEqual, 12)
				So(testutil.ToFloat64(globalManager.enrichments.WithLabelValues(EnrichmentRateLimited)), ShouldBeGreaterThanOrEqualTo, 1)
			})
		})

		Convey("When a model loads and is later removed", func() {
			RecordModelLoad("crop", true)
			SetModelLoaded("crop", true)
			loaded := testutil.ToFloat64(globalManager.modelLoaded.WithLabelValues("crop"))
			SetModelLoaded("crop", false)

			Convey("Then the loaded gauge should follow", func() {
				So(loaded, ShouldEqual, 1)
				So(testutil.ToFloat64(globalManager.modelLoaded.WithLabelValues("crop")), ShouldEqual, 0)
			})
		})

		Convey("When a model fails to load", func() {
			before := testutil.ToFloat64(globalManager.modelLoads.WithLabelValues("fertilizer", "error"))
			RecordModelLoad("fertilizer", false)

			Convey("Then the error result should be counted", func() {
				So(testutil.ToFloat64(globalManager.modelLoads.WithLabelValues("fertilizer", "error")), ShouldEqual, before+1)
			})
		})

		Convey("When recording HTTP and system metrics", func() {
			So(func() {
				RecordHTTPRequest("/predict", "POST", "200")
				RecordHTTPRequestDuration("/predict", "POST", "200", 12)
				RecordErrorByEndpoint("/predict", "POST", "bad_request")
				UpdateSystemMemoryUsage(1024 * 1024)
				UpdateSystemGoroutineCount(12)
				RecordSystemGCPauseTime(0.3)
			}, ShouldNotPanic)

			Convey("Then they should be exposed on the custom registry", func() {
				n, err := testutil.GatherAndCount(GetRegistry(), "cropadvisor_api_http_requests_total")
				So(err, ShouldBeNil)
				So(n, ShouldBeGreaterThanOrEqualTo, 1)
			})
		})
	})
}

func TestMetricsConcurrency(t *testing.T) {
	Convey("Given concurrent recorders", t, func() {
		before := testutil.ToFloat64(globalManager.predictions.WithLabelValues(OutcomeDone))

		var wg sync.WaitGroup
		for i := 0; i < 10; i++ {
			wg.Add(1)
			go func() {
				defer wg.Done()
				for j := 0; j < 100; j++ {
					RecordPrediction(OutcomeDone, float64(j))
					RecordHTTPRequest("/predict", "POST", "200")
				}
			}()
		}
		wg.Wait()

		Convey("Then no increments should be lost", func() {
			So(testutil.ToFloat64(globalManager.predictions.WithLabelValues(OutcomeDone)), ShouldEqual, before+1000)
		})
	})
}
