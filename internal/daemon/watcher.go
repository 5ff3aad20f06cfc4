package daemon

import (
	"fmt"
	"log/slog"
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
)

// defaultDebounce coalesces the burst of events editors produce on save.
const defaultDebounce = 200 * time.Millisecond

// FileWatcher watches a set of files and reports changes after a quiet
// period. Directories are watched rather than files so that atomic
// rename-on-save is seen.
type FileWatcher struct {
	watcher  *fsnotify.Watcher
	logger   *slog.Logger
	debounce time.Duration
	onChange func(path string)

	mu      sync.Mutex
	files   map[string]bool // Cleaned absolute paths
	dirs    map[string]int  // Watched directory -> file count
	timers  map[string]*time.Timer
	running bool
	done    chan struct{}
	exited  chan struct{}
}

// NewFileWatcher creates a watcher that calls onChange from its own goroutine.
func NewFileWatcher(onChange func(path string), logger *slog.Logger) (*FileWatcher, error) {
	if logger == nil {
		logger = slog.Default()
	}
	w, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("failed to create file watcher: %w", err)
	}

	return &FileWatcher{
		watcher:  w,
		logger:   logger,
		debounce: defaultDebounce,
		onChange: onChange,
		files:    make(map[string]bool),
		dirs:     make(map[string]int),
		timers:   make(map[string]*time.Timer),
		done:     make(chan struct{}),
		exited:   make(chan struct{}),
	}, nil
}

// SetDebounce sets the quiet period. Must be called before Start.
func (fw *FileWatcher) SetDebounce(d time.Duration) {
	fw.debounce = d
}

// Add starts watching path. The file does not need to exist yet.
func (fw *FileWatcher) Add(path string) error {
	path, err := filepath.Abs(path)
	if err != nil {
		return err
	}

	fw.mu.Lock()
	defer fw.mu.Unlock()

	if fw.files[path] {
		return nil
	}

	dir := filepath.Dir(path)
	if fw.dirs[dir] == 0 {
		if err := fw.watcher.Add(dir); err != nil {
			return fmt.Errorf("failed to watch %s: %w", dir, err)
		}
	}
	fw.dirs[dir]++
	fw.files[path] = true
	return nil
}

// Remove stops watching path.
func (fw *FileWatcher) Remove(path string) {
	path, err := filepath.Abs(path)
	if err != nil {
		return
	}

	fw.mu.Lock()
	defer fw.mu.Unlock()

	if !fw.files[path] {
		return
	}
	delete(fw.files, path)

	dir := filepath.Dir(path)
	fw.dirs[dir]--
	if fw.dirs[dir] <= 0 {
		delete(fw.dirs, dir)
		_ = fw.watcher.Remove(dir)
	}
}

// Start begins delivering change events.
func (fw *FileWatcher) Start() {
	fw.mu.Lock()
	defer fw.mu.Unlock()
	if fw.running {
		return
	}
	fw.running = true
	go fw.watch()
}

// watch is the main watch loop.
func (fw *FileWatcher) watch() {
	defer close(fw.exited)

	for {
		select {
		case event, ok := <-fw.watcher.Events:
			if !ok {
				return
			}
			if !event.Has(fsnotify.Write) && !event.Has(fsnotify.Create) && !event.Has(fsnotify.Rename) {
				continue
			}
			fw.schedule(filepath.Clean(event.Name))

		case err, ok := <-fw.watcher.Errors:
			if !ok {
				return
			}
			fw.logger.Warn("file watcher error", "error", err)

		case <-fw.done:
			return
		}
	}
}

func (fw *FileWatcher) schedule(path string) {
	fw.mu.Lock()
	defer fw.mu.Unlock()

	if !fw.files[path] || !fw.running {
		return
	}
	if t, ok := fw.timers[path]; ok {
		t.Reset(fw.debounce)
		return
	}
	fw.timers[path] = time.AfterFunc(fw.debounce, func() {
		fw.mu.Lock()
		delete(fw.timers, path)
		running := fw.running
		fw.mu.Unlock()

		if running {
			fw.logger.Debug("watched file changed", "path", path)
			fw.onChange(path)
		}
	})
}

// Stop stops the watcher and waits for its goroutine to exit.
func (fw *FileWatcher) Stop() error {
	fw.mu.Lock()
	if !fw.running {
		fw.mu.Unlock()
		return fw.watcher.Close()
	}
	fw.running = false
	for path, t := range fw.timers {
		t.Stop()
		delete(fw.timers, path)
	}
	close(fw.done)
	fw.mu.Unlock()

	<-fw.exited
	return fw.watcher.Close()
}
