package daemon

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/fsnotify/fsnotify"

	mirror "github.com/docmirror/docmirror/internal/mirror/sync"
)

// WatcherOptions configures a FileWatcher.
type WatcherOptions struct {
	// Ignore filters file and directory names; ignored directories are not watched.
	Ignore mirror.IgnoreList
	// Buffer is the capacity of the Events channel (0 = 100)
	Buffer int
}

// FileWatcher watches a directory tree recursively.
// It uses fsnotify for cross-platform file system event monitoring.
type FileWatcher struct {
	watcher *fsnotify.Watcher
	events  chan mirror.Event
	errors  chan error
	done    chan struct{}
	wg      sync.WaitGroup
	mu      sync.Mutex
	running bool
	root    string
	ignore  mirror.IgnoreList
	// dirs is the set of watched directories, used to tell directory
	// deletes from file deletes once the path is gone.
	dirs map[string]struct{}

	// closeWatcher releases the fsnotify watcher (watcher.Close).
	closeWatcher func() error
}

// NewFileWatcher creates a new FileWatcher instance.
// The watcher must be started with Start() before it will emit events.
func NewFileWatcher(opts WatcherOptions) (*FileWatcher, error) {
	if err := opts.Ignore.Validate(); err != nil {
		return nil, fmt.Errorf("invalid ignore pattern: %w", err)
	}

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("failed to create fsnotify watcher: %w", err)
	}

	buffer := opts.Buffer
	if buffer <= 0 {
		buffer = 100
	}

	return &FileWatcher{
		watcher:      watcher,
		events:       make(chan mirror.Event, buffer),
		errors:       make(chan error, 10),
		done:         make(chan struct{}),
		ignore:       opts.Ignore,
		dirs:         make(map[string]struct{}),
		closeWatcher: watcher.Close,
	}, nil
}

// Start begins watching root and every directory below it.
// Returns an error if root cannot be watched.
func (fw *FileWatcher) Start(root string) error {
	fw.mu.Lock()
	defer fw.mu.Unlock()

	if fw.running {
		return fmt.Errorf("watcher already running")
	}

	absRoot, err := filepath.Abs(root)
	if err != nil {
		return fmt.Errorf("failed to resolve root %s: %w", root, err)
	}
	info, err := os.Stat(absRoot)
	if err != nil {
		return fmt.Errorf("failed to watch root directory %s: %w", root, err)
	}
	if !info.IsDir() {
		return fmt.Errorf("failed to watch root directory %s: not a directory", root)
	}
	fw.root = absRoot

	if err := fw.addTreeLocked(absRoot, nil); err != nil {
		// Clean up partial watches
		for dir := range fw.dirs {
			_ = fw.watcher.Remove(dir)
		}
		fw.dirs = make(map[string]struct{})
		return err
	}

	fw.running = true
	fw.wg.Add(1)
	go fw.processEvents()

	return nil
}

// Stop stops watching for file system events and cleans up resources.
// It blocks until the event processing goroutine has exited. Events already
// buffered remain readable from Events() until the channel is drained.
func (fw *FileWatcher) Stop() error {
	fw.mu.Lock()
	if !fw.running {
		fw.mu.Unlock()
		return nil
	}
	fw.running = false
	fw.mu.Unlock()

	// Signal shutdown
	close(fw.done)

	// Close the underlying watcher (this will unblock the event loop).
	// The channels are closed even when this fails so readers never hang.
	closeErr := fw.closeWatcher()

	// Wait for event processing to finish
	fw.wg.Wait()

	// Close channels
	close(fw.events)
	close(fw.errors)

	if closeErr != nil {
		return fmt.Errorf("failed to close watcher: %w", closeErr)
	}
	return nil
}

// Close releases the watcher without starting it. Safe to call after Stop.
func (fw *FileWatcher) Close() error {
	fw.mu.Lock()
	running := fw.running
	fw.mu.Unlock()
	if running {
		return fw.Stop()
	}
	if err := fw.closeWatcher(); err != nil {
		return fmt.Errorf("failed to close watcher: %w", err)
	}
	return nil
}

// Events returns the channel that emits change notifications.
// This channel is closed when the watcher is stopped.
func (fw *FileWatcher) Events() <-chan mirror.Event {
	return fw.events
}

// Errors returns the channel that emits error notifications.
// This channel is closed when the watcher is stopped.
func (fw *FileWatcher) Errors() <-chan error {
	return fw.errors
}

// IsRunning returns true if the watcher is currently running.
func (fw *FileWatcher) IsRunning() bool {
	fw.mu.Lock()
	defer fw.mu.Unlock()
	return fw.running
}

// WatchedDirs returns the number of directories currently watched.
func (fw *FileWatcher) WatchedDirs() int {
	fw.mu.Lock()
	defer fw.mu.Unlock()
	return len(fw.dirs)
}

// processEvents is the main event loop that processes fsnotify events
// and converts them to change events.
func (fw *FileWatcher) processEvents() {
	defer fw.wg.Done()

	for {
		select {
		case <-fw.done:
			return

		case event, ok := <-fw.watcher.Events:
			if !ok {
				return
			}

			for _, ev := range fw.convertEvent(event) {
				if !fw.emit(ev) {
					return
				}
			}

		case err, ok := <-fw.watcher.Errors:
			if !ok {
				return
			}

			select {
			case fw.errors <- err:
			case <-fw.done:
				return
			}
		}
	}
}

func (fw *FileWatcher) emit(ev mirror.Event) bool {
	select {
	case fw.events <- ev:
		return true
	case <-fw.done:
		return false
	}
}

// convertEvent converts an fsnotify event to zero or more change events.
// A newly created directory yields its own event followed by synthetic
// creates for files that appeared inside it before it was watched.
func (fw *FileWatcher) convertEvent(event fsnotify.Event) []mirror.Event {
	path := filepath.Clean(event.Name)
	if fw.ignore.Match(path) {
		return nil
	}

	switch {
	case event.Has(fsnotify.Create):
		info, err := os.Lstat(path)
		if err != nil {
			// Gone already; a remove event follows.
			return nil
		}
		if info.Mode().IsRegular() {
			return []mirror.Event{{Path: path, Op: mirror.OpCreate}}
		}
		if !info.IsDir() {
			// Pipes, sockets, devices and symlinks are not mirrored.
			return nil
		}

		events := []mirror.Event{{Path: path, Op: mirror.OpCreate, IsDir: true}}
		fw.mu.Lock()
		err = fw.addTreeLocked(path, &events)
		fw.mu.Unlock()
		if err != nil {
			fw.reportError(err)
		}
		return events

	case event.Has(fsnotify.Write):
		return []mirror.Event{{Path: path, Op: mirror.OpModify, IsDir: fw.isWatchedDir(path)}}

	case event.Has(fsnotify.Remove), event.Has(fsnotify.Rename):
		// Treat rename as delete (the new name will trigger a create)
		isDir := fw.forgetDir(path)
		return []mirror.Event{{Path: path, Op: mirror.OpDelete, IsDir: isDir}}

	default:
		// Ignore chmod and other events
		return nil
	}
}

// addTreeLocked watches dir and every non-ignored directory below it. When
// synthetic is non-nil, regular files found during the walk are appended to
// it as creates. fw.mu must be held.
func (fw *FileWatcher) addTreeLocked(dir string, synthetic *[]mirror.Event) error {
	return filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			if path == dir {
				return fmt.Errorf("failed to watch directory %s: %w", path, err)
			}
			// A subdirectory vanished mid-walk.
			if errors.Is(err, fs.ErrNotExist) {
				return nil
			}
			return fmt.Errorf("failed to walk %s: %w", path, err)
		}

		if path != dir && fw.ignore.Match(path) {
			if d.IsDir() {
				return filepath.SkipDir
			}
			return nil
		}

		if d.IsDir() {
			if _, ok := fw.dirs[path]; ok {
				return nil
			}
			if err := fw.watcher.Add(path); err != nil {
				return fmt.Errorf("failed to watch directory %s: %w", path, err)
			}
			fw.dirs[path] = struct{}{}
			return nil
		}

		if synthetic != nil && d.Type().IsRegular() {
			*synthetic = append(*synthetic, mirror.Event{Path: path, Op: mirror.OpCreate})
		}
		return nil
	})
}

func (fw *FileWatcher) isWatchedDir(path string) bool {
	fw.mu.Lock()
	defer fw.mu.Unlock()
	_, ok := fw.dirs[path]
	return ok
}

// forgetDir drops path and its descendants from the watched set and
// reports whether path was a watched directory.
func (fw *FileWatcher) forgetDir(path string) bool {
	fw.mu.Lock()
	defer fw.mu.Unlock()

	if _, ok := fw.dirs[path]; !ok {
		return false
	}

	prefix := path + string(filepath.Separator)
	for dir := range fw.dirs {
		if dir == path || strings.HasPrefix(dir, prefix) {
			// fsnotify drops watches on removed directories itself; renamed
			// ones keep a stale watch unless removed here.
			_ = fw.watcher.Remove(dir)
			delete(fw.dirs, dir)
		}
	}
	return true
}

func (fw *FileWatcher) reportError(err error) {
	select {
	case fw.errors <- err:
	default:
	}
}
