package ports

import (
	"context"
	"io"

	"go.trai.ch/kiln/internal/core/domain"
)

//go:generate mockgen -source=store.go -destination=mocks/mock_store.go -package=mocks

// ObjectStore is a content addressable blob store.
type ObjectStore interface {
	// OpenForRead opens the blob with the given id.
	// It returns domain.ErrObjectNotFound if no such blob exists.
	OpenForRead(ctx context.Context, id domain.ObjectID) (io.ReadCloser, error)
	// CreateWriteStream returns a stream whose content is addressed by its hash once committed.
	CreateWriteStream() (ObjectWriter, error)
	// Exists reports whether a blob is stored locally.
	Exists(id domain.ObjectID) bool
	// Size returns the blob size in bytes or domain.ErrObjectNotFound.
	Size(id domain.ObjectID) (int64, error)
	// Delete removes a blob. Deleting a missing blob is not an error.
	Delete(id domain.ObjectID) error
	// Subscribe registers fn to be called with (id, path) after every commit.
	Subscribe(fn func(id domain.ObjectID, path string))
}

// ObjectWriter accumulates bytes and a running hash.
type ObjectWriter interface {
	io.Writer
	// Commit finalizes the hash and publishes the blob. The first commit of a
	// given content wins; later identical commits are discarded.
	Commit() (domain.ObjectID, error)
	// Abort discards the written bytes.
	Abort() error
	// Close commits the stream if it was neither committed nor aborted.
	Close() error
}

// ObjectMirror is a remote copy of the object store.
type ObjectMirror interface {
	// Push uploads a blob. r may be read more than once after seeking to the start.
	Push(ctx context.Context, id domain.ObjectID, r io.ReadSeeker, size int64) error
	// Fetch downloads a blob into w. It returns domain.ErrObjectNotFound for unknown ids.
	Fetch(ctx context.Context, id domain.ObjectID, w io.Writer) error
}
