package api

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/sirupsen/logrus"
)

// FileChangeType indicates what type of change occurred.
type FileChangeType string

const (
	FileChangeCreated  FileChangeType = "created"
	FileChangeModified FileChangeType = "modified"
	FileChangeDeleted  FileChangeType = "deleted"
)

// FileChange represents a change to a stored value in the file backend.
type FileChange struct {
	Type FileChangeType `json:"type"`
	Key  string         `json:"key"`  // Storage key the file holds
	Path string         `json:"path"` // Relative to the store directory
}

// FileWatcherSubscriber receives file change notifications.
type FileWatcherSubscriber interface {
	OnFileChange(change FileChange)
}

// FileWatcher watches the file store directory for edits made outside the
// server (another process, a text editor) and notifies subscribers.
type FileWatcher struct {
	watcher     *fsnotify.Watcher
	dir         string
	log         logrus.FieldLogger
	mu          sync.RWMutex
	subscribers []FileWatcherSubscriber
	debounce    map[string]*time.Timer
	debounceMu  sync.Mutex
	delay       time.Duration
	stopCh      chan struct{}
	stopped     bool // Once stopped, cannot restart
	running     bool
}

// NewFileWatcher creates a watcher for a file store directory.
func NewFileWatcher(dir string, log logrus.FieldLogger) (*FileWatcher, error) {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}

	return &FileWatcher{
		watcher:  watcher,
		dir:      dir,
		log:      log,
		debounce: make(map[string]*time.Timer),
		delay:    100 * time.Millisecond,
		stopCh:   make(chan struct{}),
	}, nil
}

// Subscribe adds a subscriber to receive file change notifications.
func (fw *FileWatcher) Subscribe(sub FileWatcherSubscriber) {
	fw.mu.Lock()
	defer fw.mu.Unlock()
	fw.subscribers = append(fw.subscribers, sub)
}

// Start begins watching the directory.
func (fw *FileWatcher) Start() error {
	fw.mu.Lock()
	if fw.running {
		fw.mu.Unlock()
		return nil
	}
	if fw.stopped {
		fw.mu.Unlock()
		return fmt.Errorf("file watcher cannot be restarted after stop")
	}
	fw.running = true
	fw.mu.Unlock()

	if err := fw.watcher.Add(fw.dir); err != nil {
		return fmt.Errorf("failed to watch %s: %w", fw.dir, err)
	}

	go fw.run()
	return nil
}

// Stop stops watching for changes.
func (fw *FileWatcher) Stop() error {
	fw.mu.Lock()
	if !fw.running || fw.stopped {
		fw.mu.Unlock()
		return nil
	}
	fw.running = false
	fw.stopped = true
	fw.mu.Unlock()

	// Cancel all pending debounce timers to prevent them from firing after stop
	fw.debounceMu.Lock()
	for path, timer := range fw.debounce {
		timer.Stop()
		delete(fw.debounce, path)
	}
	fw.debounceMu.Unlock()

	close(fw.stopCh)
	return fw.watcher.Close()
}

func (fw *FileWatcher) run() {
	for {
		select {
		case event, ok := <-fw.watcher.Events:
			if !ok {
				return
			}
			fw.handleEvent(event)

		case err, ok := <-fw.watcher.Errors:
			if !ok {
				return
			}
			fw.log.WithError(err).Warn("File watcher error")

		case <-fw.stopCh:
			return
		}
	}
}

func (fw *FileWatcher) handleEvent(event fsnotify.Event) {
	// Skip temporary files and hidden files
	base := filepath.Base(event.Name)
	if strings.HasPrefix(base, ".") || strings.HasSuffix(base, "~") {
		return
	}

	// Debounce: wait before emitting to coalesce rapid changes
	fw.debounceMu.Lock()
	if timer, exists := fw.debounce[event.Name]; exists {
		timer.Stop()
	}
	fw.debounce[event.Name] = time.AfterFunc(fw.delay, func() {
		fw.emitChange(event)
		fw.debounceMu.Lock()
		delete(fw.debounce, event.Name)
		fw.debounceMu.Unlock()
	})
	fw.debounceMu.Unlock()
}

func (fw *FileWatcher) emitChange(event fsnotify.Event) {
	// Check if watcher was stopped (debounce timer may fire after Stop)
	fw.mu.RLock()
	if fw.stopped {
		fw.mu.RUnlock()
		return
	}
	subs := make([]FileWatcherSubscriber, len(fw.subscribers))
	copy(subs, fw.subscribers)
	fw.mu.RUnlock()

	change, ok := fw.classifyChange(event)
	if !ok {
		return
	}

	for _, sub := range subs {
		sub.OnFileChange(change)
	}
}

// classifyChange maps an event to the key it touched. Only .json files
// directly in the store directory hold values.
func (fw *FileWatcher) classifyChange(event fsnotify.Event) (FileChange, bool) {
	relPath, err := filepath.Rel(fw.dir, event.Name)
	if err != nil || strings.Contains(relPath, string(filepath.Separator)) || strings.HasPrefix(relPath, "..") {
		return FileChange{}, false
	}
	if !strings.HasSuffix(relPath, ".json") {
		return FileChange{}, false
	}

	change := FileChange{
		Key:  strings.TrimSuffix(relPath, ".json"),
		Path: relPath,
	}

	switch {
	case event.Op&fsnotify.Create != 0:
		change.Type = FileChangeCreated
	case event.Op&fsnotify.Write != 0:
		change.Type = FileChangeModified
	case event.Op&fsnotify.Remove != 0:
		change.Type = FileChangeDeleted
	case event.Op&fsnotify.Rename != 0:
		change.Type = FileChangeDeleted // Rename source is effectively deleted
	default:
		return FileChange{}, false
	}
	return change, true
}

// Reloader is the part of the board store a watcher drives.
type Reloader interface {
	Reload(ctx context.Context) (bool, error)
}

// ReloadOnChange reloads the board when the file holding key changes.
// Subscribers of the store hear about the new board as usual.
type ReloadOnChange struct {
	Key    string
	Target Reloader
	Log    logrus.FieldLogger
}

// OnFileChange implements FileWatcherSubscriber.
func (r *ReloadOnChange) OnFileChange(change FileChange) {
	if change.Key != r.Key || change.Type == FileChangeDeleted {
		return
	}

	changed, err := r.Target.Reload(context.Background())
	if err != nil {
		r.Log.WithError(err).Warn("Ignoring unreadable board change on disk")
		return
	}
	if changed {
		r.Log.WithField("path", change.Path).Info("Board reloaded from disk")
	}
}
