package fs

import (
	"crypto/sha256"
	"encoding/binary"
	"errors"
	"io"
	iofs "io/fs"
	"os"
	"path/filepath"
	"strconv"
	"sync"

	"github.com/cespare/xxhash/v2"
	"go.trai.ch/kiln/internal/core/domain"
	"go.trai.ch/kiln/internal/core/ports"
	"go.trai.ch/zerr"
	"golang.org/x/sync/singleflight"
)

var _ ports.FileTracker = (*Tracker)(nil)

type trackedFile struct {
	stamp   uint64
	version domain.ObjectID
}

// Tracker computes SHA-256 content versions of files. Versions are cached
// until the file's size, modification time or mode changes.
type Tracker struct {
	walker *Walker

	mu    sync.RWMutex
	files map[string]trackedFile
	group singleflight.Group
	hash  func(path string) (domain.ObjectID, error)
}

// NewTracker creates a new Tracker. Directories are versioned by walking them
// with walker.
func NewTracker(walker *Walker) *Tracker {
	return &Tracker{
		walker: walker,
		files:  make(map[string]trackedFile),
		hash:   hashFile,
	}
}

// Version returns the content version of path. Missing files have the empty
// version. A directory's version covers the relative path and content of
// every file below it.
func (t *Tracker) Version(path string) (domain.ObjectID, error) {
	path = filepath.Clean(path)
	info, err := os.Stat(path)
	if errors.Is(err, iofs.ErrNotExist) {
		return domain.EmptyObjectID, nil
	}
	if err != nil {
		return domain.EmptyObjectID, zerr.With(zerr.Wrap(err, "failed to stat input"), "path", path)
	}
	if info.IsDir() {
		return t.dirVersion(path)
	}
	return t.fileVersion(path, info)
}

// Invalidate drops cached versions.
func (t *Tracker) Invalidate(paths ...string) {
	t.mu.Lock()
	defer t.mu.Unlock()
	for _, p := range paths {
		delete(t.files, filepath.Clean(p))
	}
}

func (t *Tracker) fileVersion(path string, info iofs.FileInfo) (domain.ObjectID, error) {
	stamp := statStamp(info)

	t.mu.RLock()
	cached, ok := t.files[path]
	t.mu.RUnlock()
	if ok && cached.stamp == stamp {
		return cached.version, nil
	}

	// Callers only share a hash when they saw the same stat stamp.
	key := path + "\x00" + strconv.FormatUint(stamp, 16)
	v, err, _ := t.group.Do(key, func() (any, error) {
		id, err := t.hash(path)
		if err != nil {
			return domain.EmptyObjectID, err
		}
		t.mu.Lock()
		t.files[path] = trackedFile{stamp: stamp, version: id}
		t.mu.Unlock()
		return id, nil
	})
	if err != nil {
		return domain.EmptyObjectID, err
	}
	return v.(domain.ObjectID), nil
}

func (t *Tracker) dirVersion(root string) (domain.ObjectID, error) {
	h := sha256.New()
	for path := range t.walker.WalkFiles(root) {
		info, err := os.Stat(path)
		if err != nil {
			return domain.EmptyObjectID, zerr.With(zerr.Wrap(err, "failed to stat input"), "path", path)
		}
		id, err := t.fileVersion(path, info)
		if err != nil {
			return domain.EmptyObjectID, err
		}
		rel, err := filepath.Rel(root, path)
		if err != nil {
			return domain.EmptyObjectID, zerr.With(zerr.Wrap(err, "failed to relativize input"), "path", path)
		}
		_, _ = h.Write([]byte(filepath.ToSlash(rel)))
		_, _ = h.Write([]byte{0})
		_, _ = h.Write(id[:])
	}
	var id domain.ObjectID
	copy(id[:], h.Sum(nil))
	return id, nil
}

func hashFile(path string) (domain.ObjectID, error) {
	f, err := os.Open(path) //nolint:gosec // Path is controlled by caller
	if err != nil {
		return domain.EmptyObjectID, zerr.With(zerr.Wrap(err, "failed to open file"), "path", path)
	}
	defer f.Close() //nolint:errcheck // Best effort close in defer

	h := sha256.New()
	if _, err := io.Copy(h, f); err != nil {
		return domain.EmptyObjectID, zerr.With(zerr.Wrap(err, "failed to hash file content"), "path", path)
	}
	var id domain.ObjectID
	copy(id[:], h.Sum(nil))
	return id, nil
}

func statStamp(info iofs.FileInfo) uint64 {
	var buf [24]byte
	binary.LittleEndian.PutUint64(buf[0:8], uint64(info.Size()))                //nolint:gosec // sizes are non-negative
	binary.LittleEndian.PutUint64(buf[8:16], uint64(info.ModTime().UnixNano())) //nolint:gosec // bit pattern only
	binary.LittleEndian.PutUint64(buf[16:24], uint64(info.Mode()))
	return xxhash.Sum64(buf[:])
}
