package archetype

import (
	"context"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/zeusync/npcbrain/internal/core/observability/log"
)

const reloadDebounce = 100 * time.Millisecond

// Watcher reloads a catalog file when it changes on disk. The file's
// directory is watched so editors that replace the file by rename are seen.
type Watcher struct {
	path    string
	watcher *fsnotify.Watcher
	logger  log.Log
}

func NewWatcher(path string, logger log.Log) (*Watcher, error) {
	if logger == nil {
		logger = log.NewNop()
	}
	abs, err := filepath.Abs(path)
	if err != nil {
		return nil, err
	}
	w, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}
	if err = w.Add(filepath.Dir(abs)); err != nil {
		_ = w.Close()
		return nil, err
	}
	return &Watcher{path: abs, watcher: w, logger: logger.Named("archetype.watch")}, nil
}

// Run calls onChange with the built-in catalog merged with the reloaded file
// each time the file changes, until ctx is done. Files that fail to load are
// logged and skipped.
func (w *Watcher) Run(ctx context.Context, onChange func(*Catalog)) error {
	defer w.watcher.Close()

	timer := time.NewTimer(reloadDebounce)
	timer.Stop()
	defer timer.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case err, ok := <-w.watcher.Errors:
			if !ok {
				return nil
			}
			w.logger.Warn("Watch error", log.Err(err))
		case event, ok := <-w.watcher.Events:
			if !ok {
				return nil
			}
			if filepath.Clean(event.Name) != w.path {
				continue
			}
			if event.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Rename) == 0 {
				continue
			}
			// Writes arrive in bursts; reload once they settle.
			timer.Reset(reloadDebounce)
		case <-timer.C:
			catalog, err := w.load()
			if err != nil {
				w.logger.Warn("Reload failed", log.String("file", w.path), log.Err(err))
				continue
			}
			w.logger.Info("Archetypes reloaded", log.String("file", w.path))
			onChange(catalog)
		}
	}
}

// Close stops watching. Run returns once its event channels close.
func (w *Watcher) Close() error {
	return w.watcher.Close()
}

func (w *Watcher) load() (*Catalog, error) {
	extra, err := LoadFile(w.path)
	if err != nil {
		return nil, err
	}
	catalog, err := Defaults()
	if err != nil {
		return nil, err
	}
	catalog.Merge(extra)
	return catalog, nil
}
