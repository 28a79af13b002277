package store

import (
	"context"
	"log/slog"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"
)

// ReloadCallback is invoked after a new store edition has been swapped
// in at the watched path.
type ReloadCallback func()

// Watch monitors the directory containing the store file and calls cb
// whenever the file at path is replaced (the build pipeline writes a
// temp file and renames it over the live store). Events are debounced
// so a build produces a single reload. Watch blocks until ctx is
// cancelled.
func Watch(ctx context.Context, path string, logger *slog.Logger, cb ReloadCallback) error {
	w, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}
	defer w.Close()

	dir := filepath.Dir(path)
	if err := w.Add(dir); err != nil {
		return err
	}
	target := filepath.Base(path)

	logger.Info("store watcher: started", slog.String("path", path))

	var reloadTimer *time.Timer
	var reloadCh <-chan time.Time

	scheduleReload := func() {
		if reloadTimer == nil {
			reloadTimer = time.NewTimer(200 * time.Millisecond)
			reloadCh = reloadTimer.C
		} else {
			reloadTimer.Reset(200 * time.Millisecond)
		}
	}

	for {
		select {
		case <-ctx.Done():
			if reloadTimer != nil {
				reloadTimer.Stop()
			}
			logger.Info("store watcher: stopped")
			return nil

		case ev, ok := <-w.Events:
			if !ok {
				return nil
			}
			if filepath.Base(ev.Name) != target {
				continue
			}
			if ev.Op&(fsnotify.Create|fsnotify.Write|fsnotify.Rename) == 0 {
				continue
			}
			logger.Debug("store watcher: store changed", slog.String("op", ev.Op.String()))
			scheduleReload()

		case <-reloadCh:
			logger.Info("store watcher: new edition detected", slog.String("path", path))
			cb()

		case err, ok := <-w.Errors:
			if !ok {
				return nil
			}
			logger.Warn("store watcher: error", slog.String("error", err.Error()))
		}
	}
}
