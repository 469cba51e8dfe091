package config

import (
	"context"
	"log/slog"
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
)

// defaultDebounce is how long the watcher waits for further writes before
// reloading. Editors typically produce a burst of events per save.
const defaultDebounce = 500 * time.Millisecond

// Watcher reloads a config file on change and hands each valid reload to a
// callback. Invalid or unreadable content keeps the previous config.
type Watcher struct {
	path     string
	debounce time.Duration
	logger   *slog.Logger
	onReload func(*Config)

	watcher *fsnotify.Watcher

	pendingMu sync.Mutex
	pending   bool
}

// NewWatcher creates a watcher for the config file at path. onReload is called
// with each successfully reloaded config.
func NewWatcher(path string, onReload func(*Config), logger *slog.Logger) (*Watcher, error) {
	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}
	if logger == nil {
		logger = slog.Default()
	}

	// Watch the directory, not the file: editors replace files on save and
	// the inode-level watch would be lost.
	if err := fsw.Add(filepath.Dir(path)); err != nil {
		fsw.Close()
		return nil, err
	}

	return &Watcher{
		path:     path,
		debounce: defaultDebounce,
		logger:   logger,
		onReload: onReload,
		watcher:  fsw,
	}, nil
}

// Run processes file events until the context is cancelled.
func (w *Watcher) Run(ctx context.Context) error {
	defer w.watcher.Close()

	timer := time.NewTimer(w.debounce)
	if !timer.Stop() {
		<-timer.C
	}

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()

		case event, ok := <-w.watcher.Events:
			if !ok {
				return nil
			}
			if filepath.Clean(event.Name) != filepath.Clean(w.path) {
				continue
			}
			if event.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Rename) == 0 {
				continue
			}
			w.pendingMu.Lock()
			if !w.pending {
				w.pending = true
				timer.Reset(w.debounce)
			}
			w.pendingMu.Unlock()

		case <-timer.C:
			w.pendingMu.Lock()
			w.pending = false
			w.pendingMu.Unlock()
			w.reload()

		case err, ok := <-w.watcher.Errors:
			if !ok {
				return nil
			}
			w.logger.Warn("Config watch error", slog.String("error", err.Error()))
		}
	}
}

func (w *Watcher) reload() {
	config, err := LoadFromFile(w.path)
	if err != nil {
		w.logger.Warn("Failed to reload config, keeping previous",
			slog.String("path", w.path),
			slog.String("error", err.Error()))
		return
	}
	if err := config.Validate(); err != nil {
		w.logger.Warn("Reloaded config is invalid, keeping previous",
			slog.String("path", w.path),
			slog.String("error", err.Error()))
		return
	}

	w.logger.Info("Config reloaded", slog.String("path", w.path))
	if w.onReload != nil {
		w.onReload(config)
	}
}
