package cas

import (
	"crypto/sha256"
	"errors"
	"hash"
	"io"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/google/uuid"
	"go.trai.ch/kiln/internal/core/domain"
	"go.trai.ch/zerr"
)

const blobPerm = 0o444

// writer spools bytes into a temp file while hashing them.
type writer struct {
	store   *Store
	file    *os.File
	hash    hash.Hash
	w       io.Writer
	publish bool
	done    bool
}

func (s *Store) newWriter(publish bool) (*writer, error) {
	name := filepath.Join(s.root, tmpDirName, uuid.NewString())
	//nolint:gosec // name is generated inside the store directory
	f, err := os.OpenFile(name, os.O_CREATE|os.O_EXCL|os.O_WRONLY, domain.FilePerm)
	if err != nil {
		return nil, zerr.Wrap(err, "failed to create object write stream")
	}
	h := sha256.New()
	return &writer{
		store:   s,
		file:    f,
		hash:    h,
		w:       io.MultiWriter(f, h),
		publish: publish,
	}, nil
}

func (w *writer) Write(p []byte) (int, error) {
	if w.done {
		return 0, zerr.Wrap(domain.ErrStreamFinished, "write object")
	}
	return w.w.Write(p)
}

// Commit moves the temp file to its content address. If the blob already
// exists the temp file is dropped.
func (w *writer) Commit() (domain.ObjectID, error) {
	if w.done {
		return domain.EmptyObjectID, zerr.Wrap(domain.ErrStreamFinished, "commit object")
	}
	w.done = true

	tmp := w.file.Name()
	defer func() { _ = os.Remove(tmp) }()

	if err := w.file.Sync(); err != nil {
		_ = w.file.Close()
		return domain.EmptyObjectID, zerr.Wrap(err, "failed to sync object")
	}
	if err := w.file.Close(); err != nil {
		return domain.EmptyObjectID, zerr.Wrap(err, "failed to close object")
	}

	var id domain.ObjectID
	copy(id[:], w.hash.Sum(nil))
	target := w.store.Path(id)

	if err := os.MkdirAll(filepath.Dir(target), domain.DirPerm); err != nil {
		return domain.EmptyObjectID, zerr.With(zerr.Wrap(err, "failed to create object directory"), "id", id.String())
	}
	if err := os.Chmod(tmp, blobPerm); err != nil {
		return domain.EmptyObjectID, zerr.With(zerr.Wrap(err, "failed to seal object"), "id", id.String())
	}
	if err := os.Link(tmp, target); err != nil && !errors.Is(err, fs.ErrExist) {
		return domain.EmptyObjectID, zerr.With(zerr.Wrap(err, "failed to publish object"), "id", id.String())
	}

	if w.publish {
		w.store.publish(id, target)
	}
	return id, nil
}

func (w *writer) Abort() error {
	if w.done {
		return nil
	}
	w.done = true
	_ = w.file.Close()
	if err := os.Remove(w.file.Name()); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return zerr.Wrap(err, "failed to discard object write stream")
	}
	return nil
}

// Close commits the stream unless it already finished.
func (w *writer) Close() error {
	if w.done {
		return nil
	}
	_, err := w.Commit()
	return err
}
