// Package watch re-runs a vault scan when files change, with debouncing so
// editor save bursts trigger one rescan instead of many.
package watch

import (
	"context"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/fsnotify/fsnotify"
)

// Run watches root and calls rescan after each debounced burst of file
// events until ctx is cancelled. New directories created at runtime are
// added to the watch list.
func Run(ctx context.Context, root string, debounce time.Duration, logger *slog.Logger, rescan func()) error {
	if debounce <= 0 {
		debounce = 500 * time.Millisecond
	}

	w, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}
	defer w.Close()

	if err := addDirsRecursive(w, root); err != nil {
		return err
	}

	logger.Info("watch: started", slog.String("root", root))

	var timer *time.Timer
	var timerCh <-chan time.Time

	schedule := func() {
		if timer == nil {
			timer = time.NewTimer(debounce)
			timerCh = timer.C
		} else {
			timer.Reset(debounce)
		}
	}

	for {
		select {
		case <-ctx.Done():
			if timer != nil {
				timer.Stop()
			}
			logger.Info("watch: stopped")
			return nil

		case <-timerCh:
			rescan()

		case ev, ok := <-w.Events:
			if !ok {
				return nil
			}
			// Watch new directories as they appear.
			if ev.Op&fsnotify.Create != 0 {
				if info, statErr := os.Stat(ev.Name); statErr == nil && info.IsDir() {
					if addErr := addDirsRecursive(w, ev.Name); addErr != nil {
						logger.Warn("watch: add new dir failed",
							slog.String("path", ev.Name),
							slog.String("error", addErr.Error()))
					}
					schedule()
					continue
				}
			}
			if strings.HasPrefix(filepath.Base(ev.Name), ".") {
				continue
			}
			schedule()

		case werr, ok := <-w.Errors:
			if !ok {
				return nil
			}
			logger.Warn("watch: error", slog.String("error", werr.Error()))
		}
	}
}

// addDirsRecursive adds dir and every subdirectory to the watcher, skipping
// hidden directories.
func addDirsRecursive(w *fsnotify.Watcher, dir string) error {
	return filepath.WalkDir(dir, func(p string, d fs.DirEntry, err error) error {
		if err != nil {
			return nil // unreadable subtree: skip, keep watching the rest
		}
		if !d.IsDir() {
			return nil
		}
		name := d.Name()
		if p != dir && strings.HasPrefix(name, ".") {
			return filepath.SkipDir
		}
		return w.Add(p)
	})
}
