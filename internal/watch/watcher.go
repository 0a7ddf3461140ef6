package watch

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/rungate/rungate/internal/log"
)

// DefaultDebounce batches rapid editor save bursts into one callback.
const DefaultDebounce = 400 * time.Millisecond

// skipDirs are never watched; they churn constantly and are excluded
// from every sensible rule scope anyway.
var skipDirs = map[string]struct{}{
	".git":         {},
	"vendor":       {},
	"node_modules": {},
	"third_party":  {},
}

// Watcher observes a working tree and invokes a callback with the
// batch of changed repository-relative paths after each quiet period.
type Watcher struct {
	// Root is the tree to observe.
	Root string

	// Debounce is the quiet period before a batch fires. Zero means
	// DefaultDebounce.
	Debounce time.Duration

	// OnChange receives the accumulated changed paths. It runs on the
	// watcher goroutine; a slow callback delays the next batch, which
	// is what a gate re-run wants.
	OnChange func(ctx context.Context, changed []string)

	Logger *log.Logger
}

// Run blocks watching the tree until the context is cancelled.
// Directories created while watching are picked up automatically.
func (w *Watcher) Run(ctx context.Context) error {
	logger := w.Logger
	if logger == nil {
		logger = log.DefaultLogger()
	}

	debounce := w.Debounce
	if debounce <= 0 {
		debounce = DefaultDebounce
	}

	fw, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}
	defer fw.Close()

	if err := w.addTree(fw, w.Root); err != nil {
		return err
	}

	logger.Info("watching for changes", "root", w.Root, "debounce", debounce)

	pending := make(map[string]struct{})
	var firstSeen []string

	timer := time.NewTimer(debounce)
	if !timer.Stop() {
		<-timer.C
	}

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()

		case event, ok := <-fw.Events:
			if !ok {
				return nil
			}
			if event.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Rename|fsnotify.Remove) == 0 {
				continue
			}

			// New directories join the watch set.
			if event.Op&fsnotify.Create != 0 {
				if info, statErr := os.Stat(event.Name); statErr == nil && info.IsDir() {
					if err := w.addTree(fw, event.Name); err != nil {
						logger.Warn("failed to watch new directory", "path", event.Name, "error", err)
					}
					continue
				}
			}

			rel, relErr := filepath.Rel(w.Root, event.Name)
			if relErr != nil {
				continue
			}
			rel = filepath.ToSlash(rel)
			if skipPath(rel) {
				continue
			}

			if _, seen := pending[rel]; !seen {
				pending[rel] = struct{}{}
				firstSeen = append(firstSeen, rel)
			}
			timer.Reset(debounce)

		case err, ok := <-fw.Errors:
			if !ok {
				return nil
			}
			logger.Warn("watch error", "error", err)

		case <-timer.C:
			if len(firstSeen) == 0 {
				continue
			}
			batch := firstSeen
			pending = make(map[string]struct{})
			firstSeen = nil

			logger.Debug("change batch", "files", len(batch))
			if w.OnChange != nil {
				w.OnChange(ctx, batch)
			}
		}
	}
}

// addTree registers dir and every subdirectory not in skipDirs.
func (w *Watcher) addTree(fw *fsnotify.Watcher, dir string) error {
	return filepath.WalkDir(dir, func(path string, d os.DirEntry, err error) error {
		if err != nil {
			return nil
		}
		if !d.IsDir() {
			return nil
		}
		if _, skip := skipDirs[d.Name()]; skip {
			return filepath.SkipDir
		}
		return fw.Add(path)
	})
}

func skipPath(rel string) bool {
	for _, part := range strings.Split(rel, "/") {
		if _, skip := skipDirs[part]; skip {
			return true
		}
	}
	return false
}
