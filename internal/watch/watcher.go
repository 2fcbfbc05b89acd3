package watch

import (
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"catsort/internal/log"

	"github.com/fsnotify/fsnotify"
)

// FileModification is a file event in the root of a watched directory.
type FileModification struct {
	Dir       string // watched directory the event belongs to
	Path      string
	Info      os.FileInfo
	Timestamp time.Time
	Op        fsnotify.Op
}

// Watcher reports files created or written directly inside the watched
// directories. Watches are not recursive: activity inside category
// directories is never reported.
type Watcher struct {
	logger log.Logging

	// Directories being watched
	directories map[string]bool

	// Channel to receive file modifications
	fileModChan chan FileModification

	// Channel to signal stop, and the loop's exit notification
	stopChan chan struct{}
	done     chan struct{}

	fsWatcher *fsnotify.Watcher

	mutex   sync.RWMutex
	running bool
}

// NewWatcher creates a directory watcher using fsnotify.
func NewWatcher(logger log.Logging) (*Watcher, error) {
	fsWatcher, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("failed to create fsnotify watcher: %w", err)
	}
	if logger == nil {
		logger = log.Default()
	}

	return &Watcher{
		logger:      logger.With(log.F("component", "watcher")),
		directories: make(map[string]bool),
		fileModChan: make(chan FileModification, 64),
		stopChan:    make(chan struct{}),
		fsWatcher:   fsWatcher,
	}, nil
}

// AddDirectory starts watching dir. Adding a directory twice is a no-op.
func (w *Watcher) AddDirectory(dir string) error {
	dir = filepath.Clean(dir)
	info, err := os.Stat(dir)
	if err != nil {
		return fmt.Errorf("error accessing directory: %w", err)
	}
	if !info.IsDir() {
		return fmt.Errorf("%s is not a directory", dir)
	}

	w.mutex.Lock()
	defer w.mutex.Unlock()
	if w.directories[dir] {
		return nil
	}
	if err := w.fsWatcher.Add(dir); err != nil {
		return fmt.Errorf("failed to add directory %s to watcher: %w", dir, err)
	}
	w.directories[dir] = true
	w.logger.With(log.F("directory", dir)).Info("Watching directory")
	return nil
}

// RemoveDirectory stops watching dir.
func (w *Watcher) RemoveDirectory(dir string) {
	dir = filepath.Clean(dir)
	w.mutex.Lock()
	defer w.mutex.Unlock()
	if !w.directories[dir] {
		return
	}
	delete(w.directories, dir)
	if err := w.fsWatcher.Remove(dir); err != nil {
		w.logger.With(log.F("directory", dir), log.F("error", err)).Debug("Failed to remove watch")
	}
	w.logger.With(log.F("directory", dir)).Info("Stopped watching directory")
}

// FileChannel returns the channel that delivers file modification events.
// It is closed by Stop.
func (w *Watcher) FileChannel() <-chan FileModification {
	return w.fileModChan
}

// Start begins delivering events.
func (w *Watcher) Start() error {
	w.mutex.Lock()
	if w.running {
		w.mutex.Unlock()
		return fmt.Errorf("watcher already running")
	}
	w.running = true
	stop := w.stopChan
	w.done = make(chan struct{})
	done := w.done
	w.mutex.Unlock()

	go func() {
		defer close(done)
		w.loop(stop)
	}()
	w.logger.Debug("Watcher started")
	return nil
}

func (w *Watcher) loop(stop <-chan struct{}) {
	for {
		select {
		case event, ok := <-w.fsWatcher.Events:
			if !ok {
				return
			}
			if !event.Op.Has(fsnotify.Create) && !event.Op.Has(fsnotify.Write) {
				continue
			}

			// Lstat: a link to a directory is still a file for our purposes.
			info, err := os.Lstat(event.Name)
			if err != nil {
				if !os.IsNotExist(err) {
					w.logger.With(log.F("file", event.Name), log.F("error", err)).Error("Error stating file")
				}
				continue
			}
			if info.IsDir() {
				continue
			}

			mod := FileModification{
				Dir:       filepath.Dir(event.Name),
				Path:      event.Name,
				Info:      info,
				Timestamp: time.Now(),
				Op:        event.Op,
			}

			// Never block the fsnotify reader; a dropped event only delays
			// the next run until another event or the schedule.
			select {
			case w.fileModChan <- mod:
			default:
				w.logger.With(log.F("file", event.Name)).Warn("Event channel is full, dropped event")
			}

		case err, ok := <-w.fsWatcher.Errors:
			if !ok {
				return
			}
			w.logger.With(log.F("error", err)).Error("fsnotify watcher error")

		case <-stop:
			return
		}
	}
}

// Stop halts the watcher and closes the event channel.
func (w *Watcher) Stop() {
	w.mutex.Lock()
	defer w.mutex.Unlock()

	if !w.running {
		return
	}
	close(w.stopChan)
	if err := w.fsWatcher.Close(); err != nil {
		w.logger.With(log.F("error", err)).Error("Error closing fsnotify watcher")
	}
	// The loop is the only sender; wait for it before closing the channel.
	<-w.done
	w.running = false
	close(w.fileModChan)
	w.logger.Debug("Watcher stopped")
}

// IsRunning returns whether the watcher is currently active.
func (w *Watcher) IsRunning() bool {
	w.mutex.RLock()
	defer w.mutex.RUnlock()
	return w.running
}

// GetDirectories returns the watched directories.
func (w *Watcher) GetDirectories() []string {
	w.mutex.RLock()
	defer w.mutex.RUnlock()
	dirs := make([]string, 0, len(w.directories))
	for dir := range w.directories {
		dirs = append(dirs, dir)
	}
	return dirs
}
