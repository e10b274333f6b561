package engine

import (
	"context"
	"fmt"
	"path/filepath"
	"sync"
	"sync/atomic"
	"time"

	"github.com/fsnotify/fsnotify"
	"go.uber.org/zap"
)

// SettingsWatcher refreshes a center as soon as its settings file
// changes, instead of waiting for the next dispatch.
type SettingsWatcher struct {
	mu       sync.Mutex
	watcher  *fsnotify.Watcher
	center   *Center
	logger   *zap.Logger
	path     string
	debounce time.Duration
	pending  time.Time
	stopCh   chan struct{}
	doneCh   chan struct{}
	running  bool

	refreshes atomic.Int64
}

func NewSettingsWatcher(center *Center, path string) (*SettingsWatcher, error) {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("could not create settings watcher: %w", err)
	}
	abs, err := filepath.Abs(path)
	if err != nil {
		_ = watcher.Close()
		return nil, fmt.Errorf("could not resolve settings path: %w", err)
	}
	return &SettingsWatcher{
		watcher:  watcher,
		center:   center,
		logger:   center.logger,
		path:     abs,
		debounce: 200 * time.Millisecond,
		stopCh:   make(chan struct{}),
		doneCh:   make(chan struct{}),
	}, nil
}

// Start watches the directory holding the settings file, since saves
// replace the file by renaming a temp file over it. It does not block.
func (w *SettingsWatcher) Start(ctx context.Context) error {
	w.mu.Lock()
	if w.running {
		w.mu.Unlock()
		return nil
	}
	w.running = true
	w.mu.Unlock()

	if err := w.watcher.Add(filepath.Dir(w.path)); err != nil {
		w.mu.Lock()
		w.running = false
		w.mu.Unlock()
		return fmt.Errorf("could not watch settings directory: %w", err)
	}
	w.logger.Debug("watching settings file", zap.String("path", w.path))

	go w.run(ctx)
	return nil
}

// Stop ends the watch loop and waits for it to exit.
func (w *SettingsWatcher) Stop() {
	w.mu.Lock()
	if !w.running {
		w.mu.Unlock()
		return
	}
	w.running = false
	w.mu.Unlock()

	close(w.stopCh)
	<-w.doneCh

	if err := w.watcher.Close(); err != nil {
		w.logger.Warn("could not close settings watcher", zap.Error(err))
	}
}

// Refreshes counts how many refreshes the watcher has triggered.
func (w *SettingsWatcher) Refreshes() int64 {
	return w.refreshes.Load()
}

func (w *SettingsWatcher) run(ctx context.Context) {
	defer close(w.doneCh)

	ticker := time.NewTicker(w.debounce / 4)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-w.stopCh:
			return
		case event, ok := <-w.watcher.Events:
			if !ok {
				return
			}
			w.handleEvent(event)
		case err, ok := <-w.watcher.Errors:
			if !ok {
				return
			}
			w.logger.Warn("settings watcher error", zap.Error(err))
		case <-ticker.C:
			w.flush()
		}
	}
}

func (w *SettingsWatcher) handleEvent(event fsnotify.Event) {
	if filepath.Clean(event.Name) != w.path {
		return
	}
	if !event.Has(fsnotify.Create) && !event.Has(fsnotify.Write) && !event.Has(fsnotify.Rename) {
		return
	}
	w.mu.Lock()
	w.pending = time.Now()
	w.mu.Unlock()
}

// flush refreshes once writes have been quiet for the debounce period.
func (w *SettingsWatcher) flush() {
	w.mu.Lock()
	if w.pending.IsZero() || time.Since(w.pending) < w.debounce {
		w.mu.Unlock()
		return
	}
	w.pending = time.Time{}
	w.mu.Unlock()

	if err := w.center.Refresh(); err != nil {
		w.logger.Warn("settings refresh failed", zap.Error(err))
		return
	}
	w.refreshes.Add(1)
	w.logger.Debug("settings refreshed", zap.String("path", w.path))
}
