// Package modelstore keeps the crop and fertilizer models loaded and swaps
// them when their files change.
package modelstore

import (
	"context"
	"fmt"
	"path/filepath"
	"sync"
	"time"

	"github.com/okian/cropadvisor/internal/domain/classifier"
	"github.com/okian/cropadvisor/pkg/logger"
	"github.com/okian/cropadvisor/pkg/metrics"
)

// Model names.
const (
	Crop       = "crop"
	Fertilizer = "fertilizer"
)

// LoadFunc reads one model file.
type LoadFunc func(path string) (classifier.Predictor, error)

// Snapshot is a consistent view of both models for one request.
// A nil predictor comes with the error that kept it from loading.
type Snapshot struct {
	Crop          classifier.Predictor
	Fertilizer    classifier.Predictor
	CropErr       error
	FertilizerErr error
}

// Status describes one model slot.
type Status struct {
	Name     string    `json:"name"`
	Path     string    `json:"path"`
	Loaded   bool      `json:"loaded"`
	LoadedAt time.Time `json:"loaded_at"`
	Error    string    `json:"error,omitempty"`
}

type slot struct {
	name     string
	path     string
	pred     classifier.Predictor
	err      error
	loadedAt time.Time
	// tried is when the file was last read, successful or not.
	tried time.Time
}

// Store owns the loaded models. Readers never wait on a file read for a
// model that is already loaded.
type Store struct {
	log      logger.Logger
	load     LoadFunc
	debounce time.Duration
	retry    time.Duration
	now      func() time.Time

	mu    sync.RWMutex
	slots map[string]*slot
}

// New creates a store for the two model files. Nothing is read until Load or
// the first Snapshot.
func New(cropPath, fertilizerPath string, opts ...Option) *Store {
	s := &Store{
		log:      logger.Get().Named("modelstore"),
		load:     loadForest,
		debounce: defaultDebounce,
		retry:    defaultRetryInterval,
		now:      time.Now,
		slots: map[string]*slot{
			Crop:       {name: Crop, path: cleanPath(cropPath)},
			Fertilizer: {name: Fertilizer, path: cleanPath(fertilizerPath)},
		},
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func loadForest(path string) (classifier.Predictor, error) {
	return classifier.Load(path)
}

func cleanPath(p string) string {
	if abs, err := filepath.Abs(p); err == nil {
		return abs
	}
	return filepath.Clean(p)
}

// Load reads both models. Failures are kept per slot and retried by Snapshot
// at most once per retry interval. The returned error reports the crop model
// only, since the service cannot answer without it.
func (s *Store) Load(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, name := range []string{Crop, Fertilizer} {
		s.reloadLocked(ctx, s.slots[name])
	}
	return s.slots[Crop].err
}

// Snapshot returns the current models, retrying any that are not loaded and
// whose last attempt is older than the retry interval.
func (s *Store) Snapshot(ctx context.Context) Snapshot {
	now := s.now()
	s.mu.RLock()
	due := s.retryDue(s.slots[Crop], now) || s.retryDue(s.slots[Fertilizer], now)
	s.mu.RUnlock()

	if due {
		s.mu.Lock()
		for _, name := range []string{Crop, Fertilizer} {
			// Another request may have retried while we waited for the lock.
			if sl := s.slots[name]; s.retryDue(sl, now) {
				_ = s.reloadLocked(ctx, sl)
			}
		}
		s.mu.Unlock()
	}

	s.mu.RLock()
	defer s.mu.RUnlock()
	return Snapshot{
		Crop:          s.slots[Crop].pred,
		Fertilizer:    s.slots[Fertilizer].pred,
		CropErr:       s.slots[Crop].err,
		FertilizerErr: s.slots[Fertilizer].err,
	}
}

// Reload re-reads one model. On failure the previously loaded model keeps
// serving.
func (s *Store) Reload(ctx context.Context, name string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	sl, ok := s.slots[name]
	if !ok {
		return fmt.Errorf("%w: %s", ErrUnknownModel, name)
	}
	return s.reloadLocked(ctx, sl)
}

// Unload drops a model, e.g. after its file was removed.
func (s *Store) Unload(ctx context.Context, name string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	sl, ok := s.slots[name]
	if !ok {
		return
	}
	sl.pred = nil
	sl.err = fmt.Errorf("%w: %s removed", ErrNotLoaded, sl.path)
	metrics.SetModelLoaded(name, false)
	s.log.Warn(ctx, "model unloaded", logger.String("model", name), logger.String("path", sl.path))
}

func (s *Store) retryDue(sl *slot, now time.Time) bool {
	return sl.pred == nil && now.Sub(sl.tried) >= s.retry
}

func (s *Store) reloadLocked(ctx context.Context, sl *slot) error {
	sl.tried = s.now()
	pred, err := s.load(sl.path)
	metrics.RecordModelLoad(sl.name, err == nil)
	if err != nil {
		if sl.pred != nil {
			s.log.Warn(ctx, "model reload failed, keeping previous version",
				logger.String("model", sl.name), logger.Error(err))
			return err
		}
		sl.err = err
		metrics.SetModelLoaded(sl.name, false)
		s.log.Error(ctx, "model load failed", logger.String("model", sl.name), logger.Error(err))
		return err
	}
	sl.pred, sl.err, sl.loadedAt = pred, nil, s.now()
	metrics.SetModelLoaded(sl.name, true)
	s.log.Info(ctx, "model loaded", logger.String("model", sl.name), logger.String("path", sl.path))
	return nil
}

// Ready reports whether the crop model is serving.
func (s *Store) Ready() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.slots[Crop].pred != nil
}

// Status lists both slots, crop first.
func (s *Store) Status() []Status {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]Status, 0, len(s.slots))
	for _, name := range []string{Crop, Fertilizer} {
		sl := s.slots[name]
		st := Status{Name: sl.name, Path: sl.path, Loaded: sl.pred != nil, LoadedAt: sl.loadedAt}
		if sl.err != nil {
			st.Error = sl.err.Error()
		}
		out = append(out, st)
	}
	return out
}
