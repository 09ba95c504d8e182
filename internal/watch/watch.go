// Package watch monitors manifest roots and triggers a forward sync when a
// manifest file changes on disk.
package watch

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/uiforge/compsync/pkg/logger"
	"github.com/uiforge/compsync/pkg/manifest"
)

// Handler is invoked with a re-parsed manifest after its file changed.
type Handler func(m *manifest.ComponentManifest)

// Watcher debounces filesystem events on manifest files and hands changed
// manifests to a handler.
type Watcher struct {
	store    *manifest.Store
	handler  Handler
	debounce time.Duration
}

// New builds a watcher. A zero debounce defaults to 300ms, enough to
// swallow the write bursts editors produce on save.
func New(store *manifest.Store, handler Handler, debounce time.Duration) *Watcher {
	if debounce <= 0 {
		debounce = 300 * time.Millisecond
	}
	return &Watcher{store: store, handler: handler, debounce: debounce}
}

// Run watches the given roots until the context is cancelled. Directories
// are watched recursively; directories created while watching are added on
// the fly.
func (w *Watcher) Run(ctx context.Context, roots []string) error {
	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("create watcher: %w", err)
	}
	defer func() {
		if cerr := fsw.Close(); cerr != nil {
			logger.Warn("Failed to close watcher", logger.Err(cerr))
		}
	}()

	for _, root := range roots {
		if err := addRecursive(fsw, root); err != nil {
			return err
		}
		logger.Info("Watching manifest root", logger.String("root", root))
	}

	// Pending paths wait out the debounce window before being synced.
	pending := make(map[string]bool)
	timer := time.NewTimer(w.debounce)
	if !timer.Stop() {
		<-timer.C
	}

	for {
		select {
		case <-ctx.Done():
			return nil

		case event, ok := <-fsw.Events:
			if !ok {
				return nil
			}
			if event.Op&fsnotify.Create != 0 {
				if info, statErr := os.Stat(event.Name); statErr == nil && info.IsDir() {
					if err := addRecursive(fsw, event.Name); err != nil {
						logger.Warn("Failed to watch new directory",
							logger.String("dir", event.Name), logger.Err(err))
					}
					continue
				}
			}
			if _, isManifest := manifest.FormatForPath(event.Name); !isManifest {
				continue
			}
			if event.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Rename) == 0 {
				continue
			}
			pending[event.Name] = true
			timer.Reset(w.debounce)

		case <-timer.C:
			for path := range pending {
				w.dispatch(path)
			}
			pending = make(map[string]bool)

		case err, ok := <-fsw.Errors:
			if !ok {
				return nil
			}
			logger.Warn("Watcher error", logger.Err(err))
		}
	}
}

func (w *Watcher) dispatch(path string) {
	if _, err := os.Stat(path); err != nil {
		// Deleted between the event and the debounce firing.
		w.store.Invalidate(path)
		return
	}

	w.store.Invalidate(path)
	m, err := w.store.Load(path)
	if err != nil {
		logger.Warn("Changed manifest failed to parse",
			logger.String("path", path), logger.Err(err))
		return
	}

	logger.Info("Manifest changed", logger.String("component", m.ID))
	w.handler(m)
}

// addRecursive watches dir and every directory below it.
func addRecursive(fsw *fsnotify.Watcher, dir string) error {
	return filepath.WalkDir(dir, func(path string, d os.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			if err := fsw.Add(path); err != nil {
				return fmt.Errorf("watch directory %s: %w", path, err)
			}
		}
		return nil
	})
}
