package ports

import (
	"context"
	"iter"
)

// WatchOp represents the type of file system operation.
type WatchOp uint8

const (
	// OpCreate indicates a file or directory was created.
	OpCreate WatchOp = iota
	// OpWrite indicates a file was modified.
	OpWrite
	// OpRemove indicates a file or directory was removed.
	OpRemove
	// OpRename indicates a file or directory was renamed.
	OpRename
)

// WatchEvent is a file system change reported by a Watcher.
type WatchEvent struct {
	Path      string
	Operation WatchOp
}

// Watcher reports file system changes below a root directory.
//
//go:generate mockgen -source=watcher.go -destination=mocks/mock_watcher.go -package=mocks
type Watcher interface {
	// Start begins watching root recursively. Directories named in skip are ignored.
	Start(ctx context.Context, root string, skip ...string) error
	// Stop releases the watcher.
	Stop() error
	// Events yields changes until the watcher stops.
	Events() iter.Seq[WatchEvent]
}
