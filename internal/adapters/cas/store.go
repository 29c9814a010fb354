// Package cas implements Content Addressable Storage for build outputs.
package cas

import (
	"context"
	"errors"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"sync"

	"go.trai.ch/kiln/internal/core/domain"
	"go.trai.ch/kiln/internal/core/ports"
	"go.trai.ch/zerr"
)

const tmpDirName = "tmp"

var _ ports.ObjectStore = (*Store)(nil)

// Store keeps blobs under <root>/<first two hex chars>/<remaining hex chars>.
type Store struct {
	root   string
	mirror ports.ObjectMirror
	logger ports.Logger

	mu          sync.RWMutex
	subscribers []func(domain.ObjectID, string)
}

// Option configures a Store.
type Option func(*Store)

// WithMirror fetches blobs that are missing locally from m.
func WithMirror(m ports.ObjectMirror) Option {
	return func(s *Store) { s.mirror = m }
}

// WithLogger reports mirror failures to l.
func WithLogger(l ports.Logger) Option {
	return func(s *Store) { s.logger = l }
}

// NewStore creates a Store rooted at root, creating the directory if needed.
func NewStore(root string, opts ...Option) (*Store, error) {
	s := &Store{root: filepath.Clean(root)}
	for _, opt := range opts {
		opt(s)
	}
	if err := os.MkdirAll(filepath.Join(s.root, tmpDirName), domain.DirPerm); err != nil {
		return nil, zerr.With(zerr.Wrap(err, "failed to create object store directory"), "path", s.root)
	}
	return s, nil
}

// Root returns the store directory.
func (s *Store) Root() string {
	return s.root
}

// Path returns where the blob with the given id lives.
func (s *Store) Path(id domain.ObjectID) string {
	hex := id.String()
	return filepath.Join(s.root, hex[:2], hex[2:])
}

// Subscribe registers fn to be called after every commit.
func (s *Store) Subscribe(fn func(id domain.ObjectID, path string)) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.subscribers = append(s.subscribers, fn)
}

// OpenForRead opens a blob, fetching it from the mirror when it is missing locally.
func (s *Store) OpenForRead(ctx context.Context, id domain.ObjectID) (io.ReadCloser, error) {
	f, err := os.Open(s.Path(id))
	if err == nil {
		return f, nil
	}
	if !errors.Is(err, fs.ErrNotExist) {
		return nil, zerr.With(zerr.Wrap(err, "failed to open object"), "id", id.String())
	}
	if s.mirror == nil {
		return nil, notFound(id)
	}
	if err := s.fetch(ctx, id); err != nil {
		return nil, err
	}
	f, err = os.Open(s.Path(id))
	if err != nil {
		return nil, notFound(id)
	}
	return f, nil
}

func (s *Store) fetch(ctx context.Context, id domain.ObjectID) error {
	w, err := s.newWriter(false)
	if err != nil {
		return err
	}
	if err := s.mirror.Fetch(ctx, id, w); err != nil {
		_ = w.Abort()
		if errors.Is(err, domain.ErrObjectNotFound) {
			return notFound(id)
		}
		if s.logger != nil {
			s.logger.Warn("object mirror fetch failed for " + id.String() + ": " + err.Error())
		}
		return notFound(id)
	}
	got, err := w.Commit()
	if err != nil {
		return err
	}
	if got != id {
		_ = s.Delete(got)
		return zerr.With(zerr.With(zerr.Wrap(domain.ErrObjectNotFound, "mirror returned different content"), "id", id.String()), "got", got.String())
	}
	return nil
}

// CreateWriteStream returns a stream that becomes a blob when committed.
func (s *Store) CreateWriteStream() (ports.ObjectWriter, error) {
	return s.newWriter(true)
}

// Exists reports whether the blob is stored locally.
func (s *Store) Exists(id domain.ObjectID) bool {
	_, err := os.Stat(s.Path(id))
	return err == nil
}

// Size returns the blob size.
func (s *Store) Size(id domain.ObjectID) (int64, error) {
	info, err := os.Stat(s.Path(id))
	if errors.Is(err, fs.ErrNotExist) {
		return 0, notFound(id)
	}
	if err != nil {
		return 0, zerr.With(zerr.Wrap(err, "failed to stat object"), "id", id.String())
	}
	return info.Size(), nil
}

// Delete removes a blob. Missing blobs are ignored.
func (s *Store) Delete(id domain.ObjectID) error {
	if err := os.Remove(s.Path(id)); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return zerr.With(zerr.Wrap(err, "failed to delete object"), "id", id.String())
	}
	return nil
}

func (s *Store) publish(id domain.ObjectID, path string) {
	s.mu.RLock()
	subs := s.subscribers
	s.mu.RUnlock()
	for _, fn := range subs {
		fn(id, path)
	}
}

func notFound(id domain.ObjectID) error {
	return zerr.With(zerr.Wrap(domain.ErrObjectNotFound, "open object"), "id", id.String())
}
