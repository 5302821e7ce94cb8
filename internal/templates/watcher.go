package templates

import (
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"cvforge/internal/errors"

	"github.com/fsnotify/fsnotify"
)

// Watcher reloads a presets file into a Catalog when it changes on disk.
type Watcher struct {
	mu sync.Mutex

	path    string
	catalog *Catalog

	lastModTime time.Time

	fsWatcher     *fsnotify.Watcher
	debounceDelay time.Duration
	debounceTimer *time.Timer

	stopChan   chan struct{}
	reloadChan chan struct{}
	done       chan struct{}

	logger  *errors.Logger
	running bool
}

// NewWatcher creates a watcher for path. A zero delay means 500ms.
func NewWatcher(path string, catalog *Catalog, debounceDelay time.Duration, logger *errors.Logger) *Watcher {
	if debounceDelay == 0 {
		debounceDelay = 500 * time.Millisecond
	}
	return &Watcher{
		path:          path,
		catalog:       catalog,
		debounceDelay: debounceDelay,
		reloadChan:    make(chan struct{}, 1),
		logger:        logger,
	}
}

// Start begins watching. The file's directory is watched as well so that
// editors replacing the file atomically are noticed.
func (w *Watcher) Start() error {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.running {
		return fmt.Errorf("presets watcher is already running")
	}

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("failed to create file watcher: %w", err)
	}

	dir := filepath.Dir(w.path)
	if err := watcher.Add(dir); err != nil {
		watcher.Close()
		return fmt.Errorf("failed to watch directory %s: %w", dir, err)
	}

	if stat, err := os.Stat(w.path); err == nil {
		w.lastModTime = stat.ModTime()
	}

	w.fsWatcher = watcher
	w.stopChan = make(chan struct{})
	w.done = make(chan struct{})
	w.running = true
	go w.watchLoop(watcher, w.stopChan, w.done)

	w.logger.Info("Presets file watcher started", "file", w.path, "debounce_delay", w.debounceDelay)
	return nil
}

// Stop stops watching and waits for the watch loop to exit.
func (w *Watcher) Stop() error {
	w.mu.Lock()
	if !w.running {
		w.mu.Unlock()
		return nil
	}
	close(w.stopChan)
	if w.debounceTimer != nil {
		w.debounceTimer.Stop()
	}
	err := w.fsWatcher.Close()
	w.running = false
	done := w.done
	w.mu.Unlock()

	<-done
	if err != nil {
		w.logger.LogError(err, "Failed to close presets watcher")
		return err
	}
	w.logger.Info("Presets file watcher stopped")
	return nil
}

// IsRunning reports whether the watcher is active.
func (w *Watcher) IsRunning() bool {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.running
}

func (w *Watcher) watchLoop(watcher *fsnotify.Watcher, stop <-chan struct{}, done chan<- struct{}) {
	defer close(done)
	for {
		select {
		case event, ok := <-watcher.Events:
			if !ok {
				return
			}
			if w.shouldProcessEvent(event) {
				w.scheduleReload()
			}

		case err, ok := <-watcher.Errors:
			if !ok {
				return
			}
			w.logger.LogError(err, "Presets watcher error")

		case <-w.reloadChan:
			if w.hasFileChanged() {
				if err := w.catalog.LoadFile(w.path); err != nil {
					// Keep serving the last good presets
					w.logger.LogError(err, "Failed to reload presets file", "file", w.path)
				}
			}

		case <-stop:
			return
		}
	}
}

func (w *Watcher) shouldProcessEvent(event fsnotify.Event) bool {
	if filepath.Clean(event.Name) != filepath.Clean(w.path) {
		return false
	}
	return event.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Rename) != 0
}

func (w *Watcher) hasFileChanged() bool {
	stat, err := os.Stat(w.path)
	if err != nil {
		return false
	}
	w.mu.Lock()
	defer w.mu.Unlock()
	if stat.ModTime().Equal(w.lastModTime) {
		return false
	}
	w.lastModTime = stat.ModTime()
	return true
}

func (w *Watcher) scheduleReload() {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.debounceTimer != nil {
		w.debounceTimer.Stop()
	}
	w.debounceTimer = time.AfterFunc(w.debounceDelay, func() {
		select {
		case w.reloadChan <- struct{}{}:
		default:
			// reload already pending
		}
	})
}
