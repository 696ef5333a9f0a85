// Package configwatch hot-reloads herd's settings file: it watches the
// settings file's parent directory (editors and config-writers commonly
// replace files atomically via rename rather than writing in place) and
// debounces bursts of events into a single reload callback.
package configwatch

import (
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/leo/herd/internal/config"
)

const debounceDuration = 250 * time.Millisecond

// ReloadFunc is invoked with the freshly loaded settings after the watched
// file changes. It runs on the debounce timer's goroutine, not the caller's.
type ReloadFunc func(cfg config.AppConfig)

// ErrorFunc is invoked for a watch or reload-time error; it never stops
// the watcher.
type ErrorFunc func(err error)

// Watcher hot-reloads settingsPath whenever it changes on disk.
type Watcher struct {
	settingsPath string
	onReload     ReloadFunc
	onError      ErrorFunc

	fsWatcher *fsnotify.Watcher

	mu    sync.Mutex
	timer *time.Timer
}

// Start begins watching settingsPath's directory. Returns an error only if
// the underlying OS watch could not be established; a missing settings
// file is not an error (the directory is still watched for its creation).
func Start(settingsPath string, onReload ReloadFunc, onError ErrorFunc) (*Watcher, error) {
	fsWatcher, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}
	if err := fsWatcher.Add(filepath.Dir(settingsPath)); err != nil {
		_ = fsWatcher.Close()
		return nil, err
	}

	w := &Watcher{
		settingsPath: settingsPath,
		onReload:     onReload,
		onError:      onError,
		fsWatcher:    fsWatcher,
	}
	go w.run()
	return w, nil
}

func (w *Watcher) run() {
	for {
		select {
		case event, ok := <-w.fsWatcher.Events:
			if !ok {
				return
			}
			if filepath.Clean(event.Name) != filepath.Clean(w.settingsPath) {
				continue
			}
			if !event.Op.Has(fsnotify.Write) && !event.Op.Has(fsnotify.Create) && !event.Op.Has(fsnotify.Rename) {
				continue
			}
			w.debounceReload()
		case err, ok := <-w.fsWatcher.Errors:
			if !ok {
				return
			}
			if w.onError != nil {
				w.onError(err)
			}
		}
	}
}

func (w *Watcher) debounceReload() {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.timer != nil {
		w.timer.Stop()
	}
	w.timer = time.AfterFunc(debounceDuration, func() {
		cfg, err := config.LoadFromPath(w.settingsPath)
		if err != nil {
			if w.onError != nil {
				w.onError(err)
			}
			return
		}
		if w.onReload != nil {
			w.onReload(cfg)
		}
	})
}

// Close stops the watcher.
func (w *Watcher) Close() error {
	w.mu.Lock()
	if w.timer != nil {
		w.timer.Stop()
		w.timer = nil
	}
	w.mu.Unlock()
	return w.fsWatcher.Close()
}
