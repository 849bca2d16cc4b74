package filesystem

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/custodia-labs/notewatch/internal/core/ports/driven"
	"github.com/custodia-labs/notewatch/internal/logger"
)

// Ensure Trigger implements the interface.
var _ driven.ChangeTrigger = (*Trigger)(nil)

// DefaultDebounce is how long the trigger waits for a burst of events to
// settle before waking the poll loop.
const DefaultDebounce = 250 * time.Millisecond

// ErrTriggerClosed is returned by Events after Close.
var ErrTriggerClosed = errors.New("trigger closed")

// Trigger turns fsnotify activity under a root into debounced wake-ups.
type Trigger struct {
	rootPath string
	debounce time.Duration

	mu      sync.Mutex
	watcher *fsnotify.Watcher
	closed  bool
}

// NewTrigger creates a trigger for rootPath. A non-positive debounce uses
// DefaultDebounce.
func NewTrigger(rootPath string, debounce time.Duration) *Trigger {
	if debounce <= 0 {
		debounce = DefaultDebounce
	}
	return &Trigger{rootPath: rootPath, debounce: debounce}
}

// Events starts watching and returns the wake-up channel. The channel is
// closed when ctx is done or the trigger is closed. Only one watch may be
// active at a time.
func (t *Trigger) Events(ctx context.Context) (<-chan struct{}, error) {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.closed {
		return nil, ErrTriggerClosed
	}
	if t.watcher != nil {
		return nil, errors.New("trigger already watching")
	}
	if err := checkRoot(t.rootPath); err != nil {
		return nil, err
	}

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("create watcher: %w", err)
	}
	if err := addRecursive(watcher, t.rootPath); err != nil {
		_ = watcher.Close()
		return nil, err
	}
	t.watcher = watcher

	out := make(chan struct{}, 1)
	go t.loop(ctx, watcher, out)
	return out, nil
}

// Close stops watching. It is safe to call more than once.
func (t *Trigger) Close() error {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.closed {
		return nil
	}
	t.closed = true
	if t.watcher == nil {
		return nil
	}
	err := t.watcher.Close()
	t.watcher = nil
	return err
}

func (t *Trigger) loop(ctx context.Context, watcher *fsnotify.Watcher, out chan<- struct{}) {
	defer close(out)
	defer t.release(watcher)

	timer := time.NewTimer(t.debounce)
	timer.Stop()
	defer timer.Stop()

	for {
		select {
		case <-ctx.Done():
			return

		case event, ok := <-watcher.Events:
			if !ok {
				return
			}
			if !t.handleEvent(watcher, event) {
				continue
			}
			timer.Reset(t.debounce)

		case err, ok := <-watcher.Errors:
			if !ok {
				return
			}
			logger.Warn("watch %s: %v", t.rootPath, err)

		case <-timer.C:
			select {
			case out <- struct{}{}:
			default:
				// A wake-up is already pending.
			}
		}
	}
}

// release closes the watcher if it is still the active one.
func (t *Trigger) release(watcher *fsnotify.Watcher) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.watcher == watcher {
		_ = watcher.Close()
		t.watcher = nil
	}
}

// handleEvent reports whether an event may change the set of notes.
// New directories are added to the watch.
func (t *Trigger) handleEvent(watcher *fsnotify.Watcher, event fsnotify.Event) bool {
	rel, err := filepath.Rel(t.rootPath, event.Name)
	if err != nil || isHidden(rel) {
		return false
	}
	if !event.Has(fsnotify.Create) && !event.Has(fsnotify.Write) &&
		!event.Has(fsnotify.Remove) && !event.Has(fsnotify.Rename) {
		return false
	}

	if event.Has(fsnotify.Create) {
		if info, statErr := os.Stat(event.Name); statErr == nil && info.IsDir() {
			if addErr := addRecursive(watcher, event.Name); addErr != nil {
				logger.Warn("watch %s: %v", event.Name, addErr)
			}
		}
	}

	logger.Debug("fs event %s %s", event.Op, rel)
	return true
}

// addRecursive watches dir and every non-hidden directory below it.
func addRecursive(watcher *fsnotify.Watcher, dir string) error {
	return filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			if path == dir {
				return err
			}
			return nil
		}
		if !d.IsDir() {
			return nil
		}
		if path != dir && isHidden(d.Name()) {
			return filepath.SkipDir
		}
		if err := watcher.Add(path); err != nil {
			return fmt.Errorf("watch %s: %w", path, err)
		}
		return nil
	})
}
