// Copyright 2026 Canonical Ltd.
// Licensed under Apache 2.0, see LICENCE file for details.

// Package watch calls a function each time a file is written.
package watch

import (
	"context"
	"fmt"
	"log/slog"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"
)

// Debounce is how long to wait after a write before calling back, so that a
// burst of writes causes a single call.
var Debounce = 200 * time.Millisecond

// Run calls fn once and then after every write to the file until the context
// is done. Errors from fn are logged and do not stop the watch.
func Run(ctx context.Context, logger *slog.Logger, file string, fn func() error) error {
	path, err := filepath.Abs(file)
	if err != nil {
		return fmt.Errorf("cannot watch %s: %w", file, err)
	}

	w, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("cannot watch %s: %w", file, err)
	}
	defer w.Close()

	// Editors often replace the file rather than write it, so the directory
	// is watched instead.
	if err := w.Add(filepath.Dir(path)); err != nil {
		return fmt.Errorf("cannot watch %s: %w", file, err)
	}

	if err := fn(); err != nil {
		logger.Error("render failed", "file", file, "err", err)
	}

	timer := time.NewTimer(Debounce)
	timer.Stop()
	var fire <-chan time.Time
	for {
		select {
		case ev, ok := <-w.Events:
			if !ok {
				return nil
			}
			if ev.Name != path || ev.Op&(fsnotify.Write|fsnotify.Create) == 0 {
				continue
			}
			logger.Debug("file changed", "file", file, "op", ev.Op.String())
			timer.Reset(Debounce)
			fire = timer.C
		case <-fire:
			fire = nil
			if err := fn(); err != nil {
				logger.Error("render failed", "file", file, "err", err)
			}
		case err, ok := <-w.Errors:
			if !ok {
				return nil
			}
			logger.Warn("watch error", "err", err)
		case <-ctx.Done():
			return nil
		}
	}
}
