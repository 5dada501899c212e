package tileset

import (
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/Le-Vincent56/Procedural-Generation/internal/logger"
)

// debounceWindow coalesces the burst of events editors fire per save
const debounceWindow = 200 * time.Millisecond

// Watcher hot-reloads a Store's catalogs when their files change. A
// reload that fails to parse keeps the previous good catalog in place
// and logs a warning, so a half-saved edit never breaks running solves.
type Watcher struct {
	store    *Store
	watcher  *fsnotify.Watcher
	done     chan struct{}
	stopOnce sync.Once
}

// Watch starts watching the store's catalog directory
func Watch(store *Store) (*Watcher, error) {
	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("failed to create catalog watcher: %w", err)
	}
	if err := fsw.Add(store.dir); err != nil {
		fsw.Close()
		return nil, fmt.Errorf("failed to watch catalog directory: %w", err)
	}

	w := &Watcher{
		store:   store,
		watcher: fsw,
		done:    make(chan struct{}),
	}
	go w.loop()
	logger.Info("Watching catalog directory", "dir", store.dir)
	return w, nil
}

// Close stops the watcher goroutine
func (w *Watcher) Close() {
	w.stopOnce.Do(func() {
		close(w.done)
		w.watcher.Close()
	})
}

func (w *Watcher) loop() {
	pending := make(map[string]fsnotify.Op)
	var flush <-chan time.Time

	for {
		select {
		case event, ok := <-w.watcher.Events:
			if !ok {
				return
			}
			if !isCatalogFile(filepath.Base(event.Name)) {
				continue
			}
			pending[event.Name] |= event.Op
			flush = time.After(debounceWindow)
		case err, ok := <-w.watcher.Errors:
			if !ok {
				return
			}
			logger.Warning("Catalog watcher error", "error", err)
		case <-flush:
			flush = nil
			for path, op := range pending {
				w.apply(path, op)
			}
			pending = make(map[string]fsnotify.Op)
		case <-w.done:
			return
		}
	}
}

// apply handles one coalesced change to a catalog file
func (w *Watcher) apply(path string, op fsnotify.Op) {
	if op&(fsnotify.Remove|fsnotify.Rename) != 0 {
		if _, err := os.Stat(path); err != nil {
			if name, ok := w.store.drop(path); ok {
				logger.Info("Catalog removed", "catalog", name, "file", filepath.Base(path))
			}
			return
		}
	}

	if err := w.store.loadFile(path); err != nil {
		logger.Warning("Keeping previous catalog after failed reload", "file", filepath.Base(path), "error", err)
		return
	}
	logger.Info("Catalog reloaded", "file", filepath.Base(path))
}
