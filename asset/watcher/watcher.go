package watcher

import (
	"context"
	"fmt"
	"path/filepath"
	"sync"
	"time"

	"github.com/blockspacer/kdtracer/log"
	"github.com/fsnotify/fsnotify"
)

// Watcher reports changes to a set of local files. Bursts of events are
// coalesced into a single notification once no further events arrive for
// the debounce interval.
//
// The parent directories of the watched files are monitored so that
// editors replacing a file via rename are detected as well.
type Watcher struct {
	logger   log.Logger
	fsw      *fsnotify.Watcher
	debounce time.Duration

	mu    sync.Mutex
	files map[string]struct{}
	dirs  map[string]struct{}
}

// Create a new watcher.
func New(debounce time.Duration) (*Watcher, error) {
	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("watcher: failed to create watcher: %w", err)
	}

	return &Watcher{
		logger:   log.New("watcher"),
		fsw:      fsw,
		debounce: debounce,
		files:    make(map[string]struct{}),
		dirs:     make(map[string]struct{}),
	}, nil
}

// Add files to the watch list. Files that are already watched are ignored.
func (w *Watcher) Add(files ...string) error {
	w.mu.Lock()
	defer w.mu.Unlock()

	for _, file := range files {
		absPath, err := filepath.Abs(file)
		if err != nil {
			return fmt.Errorf("watcher: failed to resolve path %s: %w", file, err)
		}
		if _, exists := w.files[absPath]; exists {
			continue
		}

		dir := filepath.Dir(absPath)
		if _, exists := w.dirs[dir]; !exists {
			if err := w.fsw.Add(dir); err != nil {
				return fmt.Errorf("watcher: failed to watch %s: %w", dir, err)
			}
			w.dirs[dir] = struct{}{}
		}

		w.files[absPath] = struct{}{}
		w.logger.Debugf("watching %s", absPath)
	}

	return nil
}

// Get the list of watched files.
func (w *Watcher) Files() []string {
	w.mu.Lock()
	defer w.mu.Unlock()

	files := make([]string, 0, len(w.files))
	for file := range w.files {
		files = append(files, file)
	}
	return files
}

func (w *Watcher) isWatched(file string) bool {
	w.mu.Lock()
	defer w.mu.Unlock()
	_, exists := w.files[filepath.Clean(file)]
	return exists
}

// Process file events until ctx is cancelled or the watcher is closed.
// onChange is invoked from the calling goroutine with the path of the last
// modified file; events arriving while it runs are coalesced into the next
// notification.
func (w *Watcher) Run(ctx context.Context, onChange func(file string)) error {
	var (
		pending string
		fire    <-chan time.Time
		timer   *time.Timer
	)
	defer func() {
		if timer != nil {
			timer.Stop()
		}
	}()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case event, ok := <-w.fsw.Events:
			if !ok {
				return nil
			}
			if !event.Has(fsnotify.Write) && !event.Has(fsnotify.Create) && !event.Has(fsnotify.Rename) {
				continue
			}
			if !w.isWatched(event.Name) {
				continue
			}

			pending = event.Name
			if timer == nil {
				timer = time.NewTimer(w.debounce)
			} else {
				if !timer.Stop() {
					select {
					case <-timer.C:
					default:
					}
				}
				timer.Reset(w.debounce)
			}
			fire = timer.C
		case <-fire:
			fire = nil
			onChange(pending)
		case err, ok := <-w.fsw.Errors:
			if !ok {
				return nil
			}
			w.logger.Warningf("watch error: %v", err)
		}
	}
}

// Stop watching all files.
func (w *Watcher) Close() error {
	return w.fsw.Close()
}
