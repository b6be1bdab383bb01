package registry

import (
	"context"
	"fmt"
	"log/slog"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/theoremus-urban-solutions/hkbus-eta/config"
)

// DefaultDebounce is the quiet period after the last file event before a
// reload starts.
const DefaultDebounce = 500 * time.Millisecond

// Watch reloads the data sheet whenever the file at cfg.Path is written,
// created or renamed into place. It blocks until ctx is done. Reload errors
// are logged and the previous data sheet stays active.
func (r *Registry) Watch(ctx context.Context, cfg config.DataSheetConfig, debounce time.Duration) error {
	if cfg.Path == "" {
		return fmt.Errorf("watch data sheet %q: no local path", cfg.Name)
	}
	if debounce <= 0 {
		debounce = DefaultDebounce
	}

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("create watcher: %w", err)
	}
	defer func() { _ = watcher.Close() }()

	// Watch the directory: editors and deploy scripts replace the file.
	target := filepath.Clean(cfg.Path)
	if err := watcher.Add(filepath.Dir(target)); err != nil {
		return fmt.Errorf("watch %s: %w", filepath.Dir(target), err)
	}
	slog.Info("watching data sheet", "path", target)

	var timer *time.Timer
	var fire <-chan time.Time
	for {
		select {
		case <-ctx.Done():
			if timer != nil {
				timer.Stop()
			}
			return nil
		case ev, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			if filepath.Clean(ev.Name) != target || !ev.Has(fsnotify.Write|fsnotify.Create|fsnotify.Rename) {
				continue
			}
			if timer == nil {
				timer = time.NewTimer(debounce)
			} else {
				timer.Reset(debounce)
			}
			fire = timer.C
		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			slog.Warn("data sheet watcher error", "err", err)
		case <-fire:
			fire = nil
			if err := r.Reload(ctx, cfg); err != nil {
				slog.Error("data sheet reload failed", "path", target, "err", err)
			}
		}
	}
}
