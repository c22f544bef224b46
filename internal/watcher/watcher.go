// Package watcher polls directories for graph document changes.
package watcher

import (
	"cmp"
	"context"
	"io/fs"
	"path/filepath"
	"slices"
	"sync"
	"time"
)

// Op is the kind of change observed for a path.
type Op string

const (
	OpCreate Op = "create"
	OpWrite  Op = "write"
	OpRemove Op = "remove"
)

// Event represents a file change event.
type Event struct {
	Path string
	Op   Op
}

// DefaultPollInterval is the default polling interval for file change detection.
const DefaultPollInterval = 500 * time.Millisecond

// DefaultDebounce batches bursts of writes (editors, generators writing
// several graph files) into one rebuild.
const DefaultDebounce = 200 * time.Millisecond

// Watcher watches directories for file changes by polling.
type Watcher struct {
	dirs         []string
	filter       func(path string) bool
	debounce     time.Duration
	pollInterval time.Duration
	onChange     func(ctx context.Context, events []Event)

	mu      sync.Mutex
	pending []Event
	timer   *time.Timer
}

// New creates a watcher over dirs. Only files for which filter returns true
// are tracked; a nil filter tracks every file.
func New(dirs []string, filter func(string) bool, debounce time.Duration, onChange func(ctx context.Context, events []Event)) *Watcher {
	if filter == nil {
		filter = func(string) bool { return true }
	}
	return &Watcher{
		dirs:         dirs,
		filter:       filter,
		debounce:     debounce,
		pollInterval: DefaultPollInterval,
		onChange:     onChange,
	}
}

// SetPollInterval sets the polling interval for file change detection.
func (w *Watcher) SetPollInterval(d time.Duration) {
	w.pollInterval = d
}

// Watch polls until ctx is done. Changes are debounced and delivered to
// onChange sorted by path. A pending batch is dropped when ctx ends.
func (w *Watcher) Watch(ctx context.Context) error {
	snapshot := w.buildSnapshot()

	ticker := time.NewTicker(w.pollInterval)
	defer ticker.Stop()
	defer w.cancelPending()

	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
			next := w.buildSnapshot()
			if events := diff(snapshot, next); len(events) > 0 {
				w.schedule(ctx, events)
			}
			snapshot = next
		}
	}
}

func (w *Watcher) schedule(ctx context.Context, events []Event) {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.pending = append(w.pending, events...)
	if w.timer != nil {
		w.timer.Stop()
	}
	w.timer = time.AfterFunc(w.debounce, func() {
		w.mu.Lock()
		pending := w.pending
		w.pending = nil
		w.mu.Unlock()
		if len(pending) > 0 && ctx.Err() == nil {
			w.onChange(ctx, coalesce(pending))
		}
	})
}

func (w *Watcher) cancelPending() {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.timer != nil {
		w.timer.Stop()
	}
	w.pending = nil
}

type fileInfo struct {
	modTime time.Time
	size    int64
}

func (w *Watcher) buildSnapshot() map[string]fileInfo {
	snap := make(map[string]fileInfo)
	for _, dir := range w.dirs {
		filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
			if err != nil || d.IsDir() || !w.filter(path) {
				return nil
			}
			info, err := d.Info()
			if err != nil {
				return nil
			}
			snap[path] = fileInfo{modTime: info.ModTime(), size: info.Size()}
			return nil
		})
	}
	return snap
}

func diff(old, next map[string]fileInfo) []Event {
	var events []Event

	for path, newInfo := range next {
		if oldInfo, ok := old[path]; ok {
			if !newInfo.modTime.Equal(oldInfo.modTime) || newInfo.size != oldInfo.size {
				events = append(events, Event{Path: path, Op: OpWrite})
			}
		} else {
			events = append(events, Event{Path: path, Op: OpCreate})
		}
	}

	for path := range old {
		if _, ok := next[path]; !ok {
			events = append(events, Event{Path: path, Op: OpRemove})
		}
	}

	return events
}

// coalesce keeps the last event per path and sorts by path.
func coalesce(events []Event) []Event {
	last := make(map[string]Op, len(events))
	for _, e := range events {
		last[e.Path] = e.Op
	}
	out := make([]Event, 0, len(last))
	for path, op := range last {
		out = append(out, Event{Path: path, Op: op})
	}
	slices.SortFunc(out, func(a, b Event) int { return cmp.Compare(a.Path, b.Path) })
	return out
}
