package modelstore

import (
	"context"
	"fmt"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/okian/cropadvisor/pkg/logger"
)

// Watch reloads a model when its file is written or created and unloads it
// when the file is removed or renamed away. It blocks until ctx is done.
func (s *Store) Watch(ctx context.Context) error {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("create model watcher: %w", err)
	}
	defer watcher.Close()

	// Directories, not files: editors and exporters replace files by rename.
	byPath := make(map[string]string, len(s.slots))
	dirs := make(map[string]struct{})
	s.mu.RLock()
	for name, sl := range s.slots {
		byPath[sl.path] = name
		dirs[filepath.Dir(sl.path)] = struct{}{}
	}
	s.mu.RUnlock()

	for dir := range dirs {
		if err := watcher.Add(dir); err != nil {
			return fmt.Errorf("watch %s: %w", dir, err)
		}
		s.log.Info(ctx, "watching model directory", logger.String("dir", dir))
	}

	timers := make(map[string]*time.Timer)
	defer func() {
		for _, t := range timers {
			t.Stop()
		}
	}()

	for {
		select {
		case <-ctx.Done():
			return nil

		case event, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			name, tracked := byPath[filepath.Clean(event.Name)]
			if !tracked {
				continue
			}

			switch {
			case event.Has(fsnotify.Write) || event.Has(fsnotify.Create):
				if t, ok := timers[name]; ok {
					t.Stop()
				}
				timers[name] = time.AfterFunc(s.debounce, func() {
					if ctx.Err() != nil {
						return
					}
					_ = s.Reload(ctx, name)
				})
			case event.Has(fsnotify.Remove) || event.Has(fsnotify.Rename):
				if t, ok := timers[name]; ok {
					t.Stop()
				}
				s.Unload(ctx, name)
			}

		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			s.log.Error(ctx, "model watcher error", logger.Error(err))
		}
	}
}
