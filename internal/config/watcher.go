package config

import (
	"context"
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
)

// watcherDebounce coalesces the burst of events editors emit on save.
const watcherDebounce = 100 * time.Millisecond

// Watcher reports changes to the config file.
type Watcher struct {
	watcher *fsnotify.Watcher
	path    string

	onChanged func(path string)
	debounce  time.Duration

	mu        sync.Mutex
	timer     *time.Timer
	closed    bool
	closeOnce sync.Once
}

// NewWatcher watches the directory holding path, so atomic renames by
// editors are seen.
func NewWatcher(path string, onChanged func(path string)) (*Watcher, error) {
	w, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}
	cw := &Watcher{
		watcher:   w,
		path:      filepath.Clean(path),
		onChanged: onChanged,
		debounce:  watcherDebounce,
	}
	if err := w.Add(filepath.Dir(cw.path)); err != nil {
		_ = w.Close()
		return nil, err
	}
	return cw, nil
}

// Run delivers events until ctx is done or the watcher is closed.
func (cw *Watcher) Run(ctx context.Context) error {
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case event, ok := <-cw.watcher.Events:
			if !ok {
				return nil
			}
			if cw.isConfigEvent(event) {
				cw.scheduleNotify()
			}
		case _, ok := <-cw.watcher.Errors:
			if !ok {
				return nil
			}
		}
	}
}

// Close stops the watcher.
func (cw *Watcher) Close() error {
	var err error
	cw.closeOnce.Do(func() {
		cw.mu.Lock()
		cw.closed = true
		if cw.timer != nil {
			cw.timer.Stop()
			cw.timer = nil
		}
		cw.mu.Unlock()
		err = cw.watcher.Close()
	})
	return err
}

func (cw *Watcher) isConfigEvent(event fsnotify.Event) bool {
	if filepath.Clean(event.Name) != cw.path {
		return false
	}
	return event.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Rename) != 0
}

func (cw *Watcher) scheduleNotify() {
	if cw.onChanged == nil {
		return
	}
	cw.mu.Lock()
	defer cw.mu.Unlock()
	if cw.closed {
		return
	}
	if cw.timer == nil {
		cw.timer = time.AfterFunc(cw.debounce, cw.fire)
	} else {
		cw.timer.Reset(cw.debounce)
	}
}

func (cw *Watcher) fire() {
	cw.mu.Lock()
	if cw.closed {
		cw.mu.Unlock()
		return
	}
	cw.timer = nil
	cw.mu.Unlock()

	cw.onChanged(cw.path)
}
