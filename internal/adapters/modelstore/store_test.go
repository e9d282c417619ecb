package modelstore_test

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"sync/atomic"
	"testing"
	"time"

	"github.com/okian/cropadvisor/internal/adapters/modelstore"
	"github.com/okian/cropadvisor/internal/domain/classifier"
	"github.com/okian/cropadvisor/internal/testutil"
	"github.com/okian/cropadvisor/pkg/logger"
	. "github.com/smartystreets/goconvey/convey"
)

func init() {
	_ = logger.Init()
}

func eventually(cond func() bool) bool {
	deadline := time.Now().Add(5 * time.Second)
	for time.Now().Before(deadline) {
		if cond() {
			return true
		}
		time.Sleep(20 * time.Millisecond)
	}
	return cond()
}

func TestStoreLoad(t *testing.T) {
	Convey("Given model files on disk", t, func() {
		ctx := context.Background()
		dir := t.TempDir()
		cropPath, fertPath, err := testutil.WriteModels(dir)
		So(err, ShouldBeNil)

		Convey("When the store loads them", func() {
			s := modelstore.New(cropPath, fertPath)
			err := s.Load(ctx)
			snap := s.Snapshot(ctx)

			Convey("Then both models should be serving", func() {
				So(err, ShouldBeNil)
				So(s.Ready(), ShouldBeTrue)
				So(snap.Crop, ShouldNotBeNil)
				So(snap.Fertilizer, ShouldNotBeNil)
				So(snap.CropErr, ShouldBeNil)
				So(snap.FertilizerErr, ShouldBeNil)

				st := s.Status()
				So(st, ShouldHaveLength, 2)
				So(st[0].Name, ShouldEqual, modelstore.Crop)
				So(st[0].Loaded, ShouldBeTrue)
				So(st[1].Name, ShouldEqual, modelstore.Fertilizer)
				So(st[1].Error, ShouldBeEmpty)
			})
		})

		Convey("When the crop model is missing", func() {
			s := modelstore.New(filepath.Join(dir, "nope.json"), fertPath)
			err := s.Load(ctx)

			Convey("Then Load should report it and the store should not be ready", func() {
				So(errors.Is(err, classifier.ErrModelNotFound), ShouldBeTrue)
				So(s.Ready(), ShouldBeFalse)
				snap := s.Snapshot(ctx)
				So(snap.Crop, ShouldBeNil)
				So(errors.Is(snap.CropErr, classifier.ErrModelNotFound), ShouldBeTrue)
				So(snap.Fertilizer, ShouldNotBeNil)
				So(s.Status()[0].Error, ShouldContainSubstring, "not found")
			})
		})

		Convey("When a missing model appears later", func() {
			late := filepath.Join(dir, "late.json")
			clock := testutil.NewFakeClock(time.Date(2024, 5, 1, 8, 0, 0, 0, time.UTC))
			s := modelstore.New(cropPath, late,
				modelstore.WithClock(clock.Now),
				modelstore.WithRetryInterval(time.Second))
			So(s.Load(ctx), ShouldBeNil)
			So(s.Snapshot(ctx).Fertilizer, ShouldBeNil)

			So(os.WriteFile(late, []byte(testutil.FertilizerModelJSON), 0o600), ShouldBeNil)

			Convey("Then a snapshot inside the retry interval should not look yet", func() {
				So(s.Snapshot(ctx).Fertilizer, ShouldBeNil)
			})

			Convey("Then the first snapshot after the interval should pick it up", func() {
				clock.Advance(time.Second)
				snap := s.Snapshot(ctx)
				So(snap.Fertilizer, ShouldNotBeNil)
				So(snap.FertilizerErr, ShouldBeNil)
			})
		})
	})
}

func TestStoreRetry(t *testing.T) {
	Convey("Given a store with a counting loader", t, func() {
		ctx := context.Background()
		dir := t.TempDir()
		cropPath, _, err := testutil.WriteModels(dir)
		So(err, ShouldBeNil)

		clock := testutil.NewFakeClock(time.Date(2024, 5, 1, 8, 0, 0, 0, time.UTC))
		var loads atomic.Int64
		s := modelstore.New(cropPath, filepath.Join(dir, "missing.json"),
			modelstore.WithClock(clock.Now),
			modelstore.WithRetryInterval(5*time.Second),
			modelstore.WithLoadFunc(func(path string) (classifier.Predictor, error) {
				loads.Add(1)
				return classifier.Load(path)
			}),
		)
		So(s.Load(ctx), ShouldBeNil)
		So(loads.Load(), ShouldEqual, 2)

		Convey("When many snapshots arrive while the fertilizer model is missing", func() {
			for i := 0; i < 100; i++ {
				So(s.Snapshot(ctx).Fertilizer, ShouldBeNil)
			}

			Convey("Then the file should not be re-read inside the retry interval", func() {
				So(loads.Load(), ShouldEqual, 2)
			})
		})

		Convey("When the retry interval has passed", func() {
			clock.Advance(5 * time.Second)
			s.Snapshot(ctx)
			s.Snapshot(ctx)

			Convey("Then only the failed model should be re-read, once", func() {
				So(loads.Load(), ShouldEqual, 3)
			})
		})
	})
}

func TestStoreReload(t *testing.T) {
	Convey("Given a loaded store", t, func() {
		ctx := context.Background()
		dir := t.TempDir()
		cropPath, fertPath, err := testutil.WriteModels(dir)
		So(err, ShouldBeNil)
		s := modelstore.New(cropPath, fertPath)
		So(s.Load(ctx), ShouldBeNil)
		before := s.Snapshot(ctx).Crop

		Convey("When the crop file is corrupted and reloaded", func() {
			So(os.WriteFile(cropPath, []byte("{"), 0o600), ShouldBeNil)
			err := s.Reload(ctx, modelstore.Crop)

			Convey("Then the previous model should keep serving", func() {
				So(errors.Is(err, classifier.ErrModelCorrupt), ShouldBeTrue)
				So(s.Snapshot(ctx).Crop, ShouldEqual, before)
				So(s.Ready(), ShouldBeTrue)
			})
		})

		Convey("When a model is unloaded", func() {
			So(os.Remove(fertPath), ShouldBeNil)
			s.Unload(ctx, modelstore.Fertilizer)

			Convey("Then it should be reported as not loaded", func() {
				snap := s.Snapshot(ctx)
				So(snap.Fertilizer, ShouldBeNil)
				So(snap.FertilizerErr, ShouldNotBeNil)
			})
		})

		Convey("When reloading an unknown model", func() {
			err := s.Reload(ctx, "weather")

			Convey("Then ErrUnknownModel should be returned", func() {
				So(errors.Is(err, modelstore.ErrUnknownModel), ShouldBeTrue)
			})
		})
	})
}

func TestStoreWatch(t *testing.T) {
	Convey("Given a store watching its model directory", t, func() {
		ctx, cancel := context.WithCancel(context.Background())
		dir := t.TempDir()
		cropPath, fertPath, err := testutil.WriteModels(dir)
		So(err, ShouldBeNil)

		s := modelstore.New(cropPath, fertPath, modelstore.WithDebounce(10*time.Millisecond))
		So(s.Load(ctx), ShouldBeNil)

		done := make(chan error, 1)
		go func() { done <- s.Watch(ctx) }()
		Reset(func() {
			cancel()
			<-done
		})
		// let the watcher register before touching files
		time.Sleep(100 * time.Millisecond)

		Convey("When the fertilizer file is removed", func() {
			So(os.Remove(fertPath), ShouldBeNil)

			Convey("Then the model should be unloaded", func() {
				So(eventually(func() bool { return s.Snapshot(ctx).Fertilizer == nil }), ShouldBeTrue)
			})
		})

		Convey("When the crop file is rewritten", func() {
			before := s.Snapshot(ctx).Crop
			So(os.WriteFile(cropPath, []byte(testutil.CropModelJSON), 0o600), ShouldBeNil)

			Convey("Then a fresh model should be swapped in", func() {
				So(eventually(func() bool { return s.Snapshot(ctx).Crop != before }), ShouldBeTrue)
				So(s.Ready(), ShouldBeTrue)
			})
		})
	})
}
