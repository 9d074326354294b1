package tuning

import (
	"context"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"
	"go.uber.org/zap"
)

// Watch reloads the tuning file whenever it changes and hands every valid
// result to fn. Invalid edits are logged and skipped. It blocks until ctx is
// done.
//
// The parent directory is watched rather than the file so that editors which
// replace the file on save are still seen.
func Watch(ctx context.Context, path string, log *zap.Logger, fn func(Tuning)) error {
	if log == nil {
		log = zap.NewNop()
	}
	w, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}
	defer w.Close()

	abs, err := filepath.Abs(path)
	if err != nil {
		return err
	}
	if err := w.Add(filepath.Dir(abs)); err != nil {
		return err
	}

	// Debounce rapid saves.
	const settle = 200 * time.Millisecond
	timer := time.NewTimer(settle)
	timer.Stop()
	defer timer.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil
		case ev, ok := <-w.Events:
			if !ok {
				return nil
			}
			if filepath.Clean(ev.Name) != abs {
				continue
			}
			if ev.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Rename) == 0 {
				continue
			}
			timer.Reset(settle)
		case err, ok := <-w.Errors:
			if !ok {
				return nil
			}
			log.Warn("tuning watcher", zap.Error(err))
		case <-timer.C:
			t, err := Load(abs)
			if err != nil {
				log.Warn("tuning reload rejected", zap.String("path", abs), zap.Error(err))
				continue
			}
			log.Info("tuning reloaded", zap.String("path", abs))
			fn(t)
		}
	}
}
