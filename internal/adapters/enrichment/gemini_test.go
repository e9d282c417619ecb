package enrichment_test

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/okian/cropadvisor/internal/adapters/enrichment"
	"github.com/okian/cropadvisor/internal/domain/model"
	"github.com/okian/cropadvisor/pkg/logger"
	. "github.com/smartystreets/goconvey/convey"
)

func init() {
	_ = logger.Init()
}

type fakeGenerator struct {
	mu      sync.Mutex
	calls   int
	models  []string
	prompts []string
	reply   string
	err     error
}

func (f *fakeGenerator) Generate(_ context.Context, modelName, prompt string) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls++
	f.models = append(f.models, modelName)
	f.prompts = append(f.prompts, prompt)
	return f.reply, f.err
}

var sample = model.SoilReading{N: 50, P: 40, K: 30, Temperature: 25, Humidity: 60, PH: 6.5, Rainfall: 100}

func TestBuildPrompt(t *testing.T) {
	Convey("Given a crop and a reading", t, func() {
		p := enrichment.BuildPrompt("Maize", sample)

		Convey("Then the prompt should list every reading and name the crop", func() {
			So(p, ShouldContainSubstring, "Nitrogen (N) ratio in soil: 50\n")
			So(p, ShouldContainSubstring, "Temperature: 25°C")
			So(p, ShouldContainSubstring, "Relative Humidity: 60%")
			So(p, ShouldContainSubstring, "pH value of soil: 6.5")
			So(p, ShouldContainSubstring, "Rainfall: 100 mm")
			So(p, ShouldContainSubstring, "Explain why Maize is a suitable crop choice")
		})
	})
}

func TestGeminiClient(t *testing.T) {
	Convey("Given a client over a fake generator", t, func() {
		ctx := context.Background()
		gen := &fakeGenerator{reply: "Maize likes it warm."}
		c := enrichment.NewWithGenerator(gen,
			enrichment.WithModel("test-model"),
			enrichment.WithBreaker(2, time.Hour),
		)

		Convey("When the call succeeds", func() {
			text, err := c.Explain(ctx, "Maize", sample)

			Convey("Then the model text should be returned", func() {
				So(err, ShouldBeNil)
				So(text, ShouldEqual, "Maize likes it warm.")
				So(gen.models, ShouldResemble, []string{"test-model"})
				So(gen.prompts[0], ShouldEqual, enrichment.BuildPrompt("Maize", sample))
			})
		})

		Convey("When the call fails", func() {
			gen.err = errors.New("quota exceeded")
			_, err := c.Explain(ctx, "Maize", sample)

			Convey("Then the cause should be returned without a retry", func() {
				So(err, ShouldNotBeNil)
				So(err.Error(), ShouldContainSubstring, "quota exceeded")
				So(gen.calls, ShouldEqual, 1)
			})
		})

		Convey("When failures reach the breaker threshold", func() {
			gen.err = errors.New("unavailable")
			_, _ = c.Explain(ctx, "Maize", sample)
			_, _ = c.Explain(ctx, "Maize", sample)
			_, err := c.Explain(ctx, "Maize", sample)

			Convey("Then further calls should fail fast", func() {
				So(errors.Is(err, enrichment.ErrBreakerOpen), ShouldBeTrue)
				So(gen.calls, ShouldEqual, 2)
			})
		})

		Convey("When callers keep cancelling their requests", func() {
			gen.err = context.Canceled
			for i := 0; i < 5; i++ {
				_, err := c.Explain(ctx, "Maize", sample)
				So(errors.Is(err, context.Canceled), ShouldBeTrue)
			}
			gen.err = nil
			text, err := c.Explain(ctx, "Maize", sample)

			Convey("Then the breaker should stay closed for the next caller", func() {
				So(err, ShouldBeNil)
				So(text, ShouldEqual, "Maize likes it warm.")
				So(gen.calls, ShouldEqual, 6)
			})
		})

		Convey("When calls keep timing out", func() {
			gen.err = context.DeadlineExceeded
			_, _ = c.Explain(ctx, "Maize", sample)
			_, _ = c.Explain(ctx, "Maize", sample)
			_, err := c.Explain(ctx, "Maize", sample)

			Convey("Then the timeouts should open the breaker", func() {
				So(errors.Is(err, enrichment.ErrBreakerOpen), ShouldBeTrue)
				So(gen.calls, ShouldEqual, 2)
			})
		})
	})
}

func TestNewGemini(t *testing.T) {
	Convey("Given no API key", t, func() {
		_, err := enrichment.NewGemini(context.Background(), "  ")

		Convey("Then ErrNotConfigured should be returned", func() {
			So(errors.Is(err, enrichment.ErrNotConfigured), ShouldBeTrue)
		})
	})

	Convey("Given the disabled client", t, func() {
		_, err := enrichment.Disabled{}.Explain(context.Background(), "Rice", sample)

		Convey("Then every call should report the missing key", func() {
			So(errors.Is(err, enrichment.ErrNotConfigured), ShouldBeTrue)
		})
	})
}
