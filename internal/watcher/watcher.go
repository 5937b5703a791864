// Package watcher reports when the indexed corpus changes on disk. The index is
// built once, so a change only marks it stale; a restart picks the change up.
package watcher

import (
	"context"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/fsnotify/fsnotify"
	"go.uber.org/zap"
)

const (
	defaultDebounce = 400 * time.Millisecond
	maxChanges      = 100
)

// Watcher watches corpus files and directories and flags the index as stale
// when a matching file is written, created, removed or renamed.
type Watcher struct {
	roots    []string
	filter   func(path string) bool
	onChange func(path string)
	debounce time.Duration
	logger   *zap.Logger // optional

	mu          sync.Mutex
	watcher     *fsnotify.Watcher
	files       map[string]bool // roots that are single files
	debounceMap map[string]*time.Timer
	changes     []string
	started     bool
	done        chan struct{}
	stopOnce    sync.Once

	stale atomic.Bool
}

// WatcherOption configures a Watcher.
type WatcherOption func(*Watcher)

// WithLogger sets a logger for change warnings and debug events.
func WithLogger(l *zap.Logger) WatcherOption {
	return func(w *Watcher) { w.logger = l }
}

// WithFilter limits which files count as corpus files. The default accepts all.
func WithFilter(f func(path string) bool) WatcherOption {
	return func(w *Watcher) { w.filter = f }
}

// WithOnChange is called once per debounced change.
func WithOnChange(f func(path string)) WatcherOption {
	return func(w *Watcher) { w.onChange = f }
}

// WithDebounce sets how long a path must be quiet before its change is reported.
func WithDebounce(d time.Duration) WatcherOption {
	return func(w *Watcher) {
		if d > 0 {
			w.debounce = d
		}
	}
}

// NewWatcher creates a watcher for roots, each a file or a directory.
func NewWatcher(roots []string, opts ...WatcherOption) *Watcher {
	w := &Watcher{
		filter:      func(string) bool { return true },
		debounce:    defaultDebounce,
		files:       make(map[string]bool),
		debounceMap: make(map[string]*time.Timer),
		done:        make(chan struct{}),
	}
	for _, r := range roots {
		if abs, err := filepath.Abs(r); err == nil {
			w.roots = append(w.roots, filepath.Clean(abs))
		}
	}
	for _, opt := range opts {
		opt(w)
	}
	return w
}

// Start begins watching. It runs until ctx is cancelled or Stop is called.
// Every root must exist.
func (w *Watcher) Start(ctx context.Context) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.started {
		return nil
	}
	fw, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}
	for _, root := range w.roots {
		if err := w.addRootLocked(fw, root); err != nil {
			_ = fw.Close()
			return err
		}
	}
	w.watcher = fw
	w.started = true
	if w.logger != nil {
		w.logger.Debug("watcher started", zap.Strings("roots", w.roots))
	}
	go w.run(ctx, fw)
	return nil
}

func (w *Watcher) addRootLocked(fw *fsnotify.Watcher, root string) error {
	info, err := os.Stat(root)
	if err != nil {
		return err
	}
	if !info.IsDir() {
		// Editors replace files by rename, so watch the directory and filter.
		w.files[root] = true
		return fw.Add(filepath.Dir(root))
	}
	return filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			return fw.Add(path)
		}
		return nil
	})
}

func (w *Watcher) run(ctx context.Context, fw *fsnotify.Watcher) {
	for {
		select {
		case <-ctx.Done():
			w.Stop()
			return
		case <-w.done:
			return
		case ev, ok := <-fw.Events:
			if !ok {
				return
			}
			w.handleEvent(fw, ev)
		case err, ok := <-fw.Errors:
			if !ok {
				return
			}
			if err != nil && w.logger != nil {
				w.logger.Debug("watcher error", zap.Error(err))
			}
		}
	}
}

func (w *Watcher) handleEvent(fw *fsnotify.Watcher, ev fsnotify.Event) {
	path := filepath.Clean(ev.Name)
	if !w.watched(path) {
		return
	}
	if w.logger != nil {
		w.logger.Debug("watcher event", zap.String("op", ev.Op.String()), zap.String("path", path))
	}
	if ev.Has(fsnotify.Create) {
		if info, err := os.Stat(path); err == nil && info.IsDir() {
			w.addNewDirectory(fw, path)
			return
		}
	}
	if ev.Has(fsnotify.Write) || ev.Has(fsnotify.Create) || ev.Has(fsnotify.Remove) || ev.Has(fsnotify.Rename) {
		if w.filter(path) {
			w.debounceChange(path)
		}
	}
}

// addNewDirectory watches a directory created under a root and reports the
// corpus files already inside it.
func (w *Watcher) addNewDirectory(fw *fsnotify.Watcher, dir string) {
	_ = filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return nil
		}
		if d.IsDir() {
			if err := fw.Add(path); err != nil && w.logger != nil {
				w.logger.Debug("watcher failed to add directory", zap.String("path", path), zap.Error(err))
			}
			return nil
		}
		if w.filter(path) {
			w.debounceChange(path)
		}
		return nil
	})
}

// watched reports whether path is a file root or lies under a directory root.
func (w *Watcher) watched(path string) bool {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.files[path] {
		return true
	}
	for _, root := range w.roots {
		if !w.files[root] && inDir(root, path) {
			return true
		}
	}
	return false
}

func inDir(dir, path string) bool {
	rel, err := filepath.Rel(dir, path)
	if err != nil {
		return false
	}
	return rel != ".." && !strings.HasPrefix(rel, ".."+string(filepath.Separator))
}

func (w *Watcher) debounceChange(path string) {
	w.mu.Lock()
	defer w.mu.Unlock()
	if !w.started {
		return
	}
	if t, ok := w.debounceMap[path]; ok {
		t.Stop()
	}
	w.debounceMap[path] = time.AfterFunc(w.debounce, func() { w.markStale(path) })
}

func (w *Watcher) markStale(path string) {
	w.mu.Lock()
	delete(w.debounceMap, path)
	if len(w.changes) < maxChanges {
		w.changes = append(w.changes, path)
	}
	w.mu.Unlock()

	w.stale.Store(true)
	if w.logger != nil {
		w.logger.Warn("corpus changed; index is stale until restart", zap.String("path", path))
	}
	if w.onChange != nil {
		w.onChange(path)
	}
}

// Stale reports whether any corpus file changed since Start.
func (w *Watcher) Stale() bool {
	return w.stale.Load()
}

// Changes returns the changed paths seen so far, oldest first, capped at 100.
func (w *Watcher) Changes() []string {
	w.mu.Lock()
	defer w.mu.Unlock()
	return append([]string(nil), w.changes...)
}

// Roots returns the watched roots as absolute paths.
func (w *Watcher) Roots() []string {
	return append([]string(nil), w.roots...)
}

// Stop stops the watcher and releases resources.
func (w *Watcher) Stop() {
	w.mu.Lock()
	if !w.started {
		w.mu.Unlock()
		return
	}
	for path, t := range w.debounceMap {
		t.Stop()
		delete(w.debounceMap, path)
	}
	_ = w.watcher.Close()
	w.watcher = nil
	w.started = false
	w.mu.Unlock()
	w.stopOnce.Do(func() { close(w.done) })
}
