// Package watcher reports file system changes so that builds can rerun.
package watcher

import (
	"context"
	"errors"
	"io/fs"
	"iter"
	"os"
	"path/filepath"
	"slices"
	"sync"

	"github.com/fsnotify/fsnotify"
	"go.trai.ch/kiln/internal/core/ports"
	"go.trai.ch/zerr"
)

var _ ports.Watcher = (*Watcher)(nil)

var defaultSkip = []string{".git", ".jj", "node_modules"}

const eventChannelBuffer = 100

// Watcher implements ports.Watcher using fsnotify.
type Watcher struct {
	fsWatcher *fsnotify.Watcher
	logger    ports.Logger
	events    chan ports.WatchEvent
	root      string
	skip      map[string]bool
	stopOnce  sync.Once
}

// NewWatcher creates a new file system watcher.
func NewWatcher(logger ports.Logger) (*Watcher, error) {
	fw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, zerr.Wrap(err, "create file watcher")
	}
	return &Watcher{
		fsWatcher: fw,
		logger:    logger,
		events:    make(chan ports.WatchEvent, eventChannelBuffer),
	}, nil
}

// Start watches root recursively. Entries in skip are directory names or
// absolute directory paths that are never watched.
func (w *Watcher) Start(ctx context.Context, root string, skip ...string) error {
	w.root = filepath.Clean(root)
	w.skip = make(map[string]bool, len(defaultSkip)+len(skip))
	for _, s := range slices.Concat(defaultSkip, skip) {
		w.skip[filepath.Clean(s)] = true
	}

	for dir := range w.directories(root) {
		if err := w.fsWatcher.Add(dir); err != nil {
			return zerr.With(zerr.Wrap(err, "watch directory"), "path", dir)
		}
	}

	go w.processEvents(ctx)
	return nil
}

// Stop releases the watcher. The event stream ends afterwards.
func (w *Watcher) Stop() error {
	var err error
	w.stopOnce.Do(func() {
		err = w.fsWatcher.Close()
	})
	return err
}

// Events returns an iterator of file system events.
func (w *Watcher) Events() iter.Seq[ports.WatchEvent] {
	return func(yield func(ports.WatchEvent) bool) {
		for event := range w.events {
			if !yield(event) {
				return
			}
		}
	}
}

func (w *Watcher) skipped(path string) bool {
	return w.skip[filepath.Base(path)] || w.skip[filepath.Clean(path)]
}

func (w *Watcher) directories(root string) iter.Seq[string] {
	return func(yield func(string) bool) {
		_ = filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
			if err != nil {
				return nil //nolint:nilerr // unreadable directories are not watched
			}
			if !d.IsDir() {
				return nil
			}
			if path != root && w.skipped(path) {
				return fs.SkipDir
			}
			if !yield(path) {
				return filepath.SkipAll
			}
			return nil
		})
	}
}

func (w *Watcher) processEvents(ctx context.Context) {
	defer close(w.events)

	for {
		select {
		case <-ctx.Done():
			return
		case event, ok := <-w.fsWatcher.Events:
			if !ok {
				return
			}
			if w.skippedPath(event.Name) {
				continue
			}
			watchEvent, ok := convertEvent(event)
			if !ok {
				continue
			}

			select {
			case w.events <- watchEvent:
			case <-ctx.Done():
				return
			}

			if watchEvent.Operation == ports.OpCreate {
				w.watchNewDirectory(event.Name)
			}
		case err, ok := <-w.fsWatcher.Errors:
			if !ok {
				return
			}
			if w.logger != nil && !errors.Is(err, fsnotify.ErrEventOverflow) {
				w.logger.Error(zerr.Wrap(err, "file watcher"))
			}
		}
	}
}

// skippedPath reports whether path or any of its ancestors below the
// watched root is skipped.
func (w *Watcher) skippedPath(path string) bool {
	for p := filepath.Clean(path); p != w.root; {
		if w.skipped(p) {
			return true
		}
		parent := filepath.Dir(p)
		if parent == p {
			return false
		}
		p = parent
	}
	return false
}

func (w *Watcher) watchNewDirectory(path string) {
	info, err := os.Stat(path)
	if err != nil || !info.IsDir() || w.skipped(path) {
		return
	}
	for dir := range w.directories(path) {
		_ = w.fsWatcher.Add(dir)
	}
}

func convertEvent(event fsnotify.Event) (ports.WatchEvent, bool) {
	switch {
	case event.Has(fsnotify.Write):
		return ports.WatchEvent{Path: event.Name, Operation: ports.OpWrite}, true
	case event.Has(fsnotify.Create):
		return ports.WatchEvent{Path: event.Name, Operation: ports.OpCreate}, true
	case event.Has(fsnotify.Remove):
		return ports.WatchEvent{Path: event.Name, Operation: ports.OpRemove}, true
	case event.Has(fsnotify.Rename):
		return ports.WatchEvent{Path: event.Name, Operation: ports.OpRename}, true
	default:
		return ports.WatchEvent{}, false
	}
}
