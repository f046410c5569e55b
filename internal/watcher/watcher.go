// Package watcher monitors a menu definition file and reports content
// changes, so hosts can rebuild menus without restarting.
package watcher

import (
	"crypto/sha256"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
)

// Event represents one observed change to the watched file.
type Event struct {
	Path      string
	Hash      [32]byte
	Size      int64
	Timestamp time.Time
}

// Watcher monitors a single definition file. Changes are debounced and
// deduplicated by content hash: editors that touch the file without changing
// it produce no event.
type Watcher struct {
	fsWatcher *fsnotify.Watcher
	path      string
	debounce  time.Duration

	mu       sync.Mutex
	lastHash [32]byte
	hasHash  bool

	events chan Event
	errors chan error

	done chan struct{}
	wg   sync.WaitGroup
}

// New creates a watcher for path. The file does not have to exist yet; its
// directory does.
func New(path string, debounce time.Duration) (*Watcher, error) {
	absPath, err := filepath.Abs(path)
	if err != nil {
		return nil, err
	}

	fsWatcher, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}

	return &Watcher{
		fsWatcher: fsWatcher,
		path:      absPath,
		debounce:  debounce,
		events:    make(chan Event, 8),
		errors:    make(chan error, 1),
		done:      make(chan struct{}),
	}, nil
}

// Events returns the channel of change events.
func (w *Watcher) Events() <-chan Event {
	return w.events
}

// Errors returns the channel of watch errors.
func (w *Watcher) Errors() <-chan error {
	return w.errors
}

// Start begins watching. The containing directory is watched rather than the
// file itself: editors typically replace the file on save.
func (w *Watcher) Start() error {
	dir := filepath.Dir(w.path)
	if _, err := os.Stat(dir); err != nil {
		return fmt.Errorf("watch %s: %w", dir, err)
	}
	if err := w.fsWatcher.Add(dir); err != nil {
		return fmt.Errorf("watch %s: %w", dir, err)
	}

	// Seed the hash so an unchanged file produces no event later.
	if hash, _, err := hashFile(w.path); err == nil {
		w.mu.Lock()
		w.lastHash = hash
		w.hasHash = true
		w.mu.Unlock()
	}

	w.wg.Add(1)
	go w.eventLoop()

	return nil
}

// Stop ends watching. The event channel is not closed (a late debounce
// timer may still be draining); receivers should select on their own stop
// signal.
func (w *Watcher) Stop() {
	close(w.done)
	w.fsWatcher.Close()
	w.wg.Wait()
}

func (w *Watcher) eventLoop() {
	defer w.wg.Done()

	var debounceTimer *time.Timer

	for {
		select {
		case <-w.done:
			if debounceTimer != nil {
				debounceTimer.Stop()
			}
			return

		case event, ok := <-w.fsWatcher.Events:
			if !ok {
				return
			}
			if filepath.Clean(event.Name) != w.path {
				continue
			}
			if event.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Rename) == 0 {
				continue
			}

			if debounceTimer != nil {
				debounceTimer.Stop()
			}
			debounceTimer = time.AfterFunc(w.debounce, w.emit)

		case err, ok := <-w.fsWatcher.Errors:
			if !ok {
				return
			}
			select {
			case w.errors <- err:
			default:
			}
		}
	}
}

// emit hashes the file and publishes an event if the content changed.
func (w *Watcher) emit() {
	hash, size, err := hashFile(w.path)
	if err != nil {
		select {
		case w.errors <- err:
		default:
		}
		return
	}

	w.mu.Lock()
	unchanged := w.hasHash && hash == w.lastHash
	w.lastHash = hash
	w.hasHash = true
	w.mu.Unlock()

	if unchanged {
		return
	}

	ev := Event{
		Path:      w.path,
		Hash:      hash,
		Size:      size,
		Timestamp: time.Now(),
	}
	select {
	case w.events <- ev:
	case <-w.done:
	}
}

func hashFile(path string) ([32]byte, int64, error) {
	var zero [32]byte

	f, err := os.Open(path)
	if err != nil {
		return zero, 0, err
	}
	defer f.Close()

	h := sha256.New()
	size, err := io.Copy(h, f)
	if err != nil {
		return zero, 0, err
	}

	var hash [32]byte
	copy(hash[:], h.Sum(nil))
	return hash, size, nil
}
