package registry

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
)

// DefaultDebounce is how long the watcher waits for a burst of file events
// to settle before reloading.
const DefaultDebounce = 200 * time.Millisecond

// Watcher reloads the services file whenever it changes.
//
// It watches the file's directory rather than the file itself, so editors
// and config-map mounts that replace the file by rename are still seen.
type Watcher struct {
	loader   *Loader
	debounce time.Duration
	logger   *slog.Logger

	mu      sync.Mutex
	timer   *time.Timer
	running bool
}

// NewWatcher creates a watcher for loader.Path. A non-positive debounce
// means DefaultDebounce.
func NewWatcher(loader *Loader, debounce time.Duration) *Watcher {
	if debounce <= 0 {
		debounce = DefaultDebounce
	}
	return &Watcher{
		loader:   loader,
		debounce: debounce,
		logger:   loader.logger().With("component", "registry.watcher"),
	}
}

// Run watches until ctx is cancelled. It blocks.
func (w *Watcher) Run(ctx context.Context) error {
	w.mu.Lock()
	if w.running {
		w.mu.Unlock()
		return errors.New("registry: watcher already running")
	}
	w.running = true
	w.mu.Unlock()

	defer func() {
		w.mu.Lock()
		w.running = false
		if w.timer != nil {
			w.timer.Stop()
			w.timer = nil
		}
		w.mu.Unlock()
	}()

	fw, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("registry: create watcher: %w", err)
	}
	defer fw.Close()

	target, err := filepath.Abs(w.loader.Path)
	if err != nil {
		return fmt.Errorf("registry: %w", err)
	}
	if err := fw.Add(filepath.Dir(target)); err != nil {
		return fmt.Errorf("registry: watch %q: %w", filepath.Dir(target), err)
	}

	w.logger.Info("watching services file", "path", target, "debounce_ms", w.debounce.Milliseconds())

	for {
		select {
		case <-ctx.Done():
			w.logger.Info("services file watcher stopped")
			return nil

		case ev, ok := <-fw.Events:
			if !ok {
				return errors.New("registry: watcher events channel closed")
			}
			if !relevant(ev, target) {
				continue
			}
			w.logger.Debug("services file event", "path", ev.Name, "op", ev.Op.String())
			w.trigger(ctx)

		case err, ok := <-fw.Errors:
			if !ok {
				return errors.New("registry: watcher errors channel closed")
			}
			w.logger.Error("services file watcher error", "error", err)
		}
	}
}

func relevant(ev fsnotify.Event, target string) bool {
	if ev.Has(fsnotify.Chmod) && !ev.Has(fsnotify.Write) {
		return false
	}
	name, err := filepath.Abs(ev.Name)
	if err != nil {
		return false
	}
	return name == target
}

// trigger schedules a reload after the debounce window, pushing back any
// reload already pending.
func (w *Watcher) trigger(ctx context.Context) {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.timer != nil {
		w.timer.Stop()
	}
	w.timer = time.AfterFunc(w.debounce, func() {
		if ctx.Err() != nil {
			return
		}
		if _, err := w.loader.Load(ctx); err != nil {
			w.logger.Error("services file reload failed", "error", err)
		}
	})
}
