// Package indexmap implements an append-only, transactional key/value log that
// several processes can share through one file.
package indexmap

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"maps"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/sethvargo/go-retry"
	"go.trai.ch/kiln/internal/core/domain"
	"go.trai.ch/kiln/internal/core/ports"
	"go.trai.ch/zerr"
)

// DefaultLockTimeout bounds how long a flush waits for the file lock.
const DefaultLockTimeout = 10 * time.Second

var errLockBusy = errors.New("index file range is locked")

// Codec converts entries to record payloads and back.
type Codec[K comparable, V any] interface {
	Encode(key K, value V) ([]byte, error)
	Decode(payload []byte) (K, V, error)
}

// Options configures a Store.
type Options struct {
	// UseTransactions keeps added entries in memory until Save.
	// Without it every Add is flushed before it returns.
	UseTransactions bool
	// LockTimeout bounds the wait for the OS file lock. Zero means DefaultLockTimeout.
	LockTimeout time.Duration
	// Logger receives recovery diagnostics. May be nil.
	Logger ports.Logger
}

type entry[K comparable, V any] struct {
	key   K
	value V
	txn   uint64
}

// Store is an append-only log of (key, value) records, or of plain values in
// list mode, backed by a file.
//
// Two mutexes guard it. streamMu owns the file and the read position, mu owns
// the in-memory view. streamMu is only taken by withStream and mu is never
// held when withStream is entered, so the stream lock always comes first.
type Store[K comparable, V any] struct {
	path  string
	codec Codec[K, V]
	opts  Options
	list  bool

	streamMu sync.Mutex
	file     *os.File
	readPos  int64
	tail     tailState

	mu         sync.RWMutex
	closed     bool
	loaded     map[K]V
	values     []V
	unsaved    []entry[K, V]
	unsavedIdx map[K]int
	txn        uint64
}

// Open opens or creates a keyed store at path and loads every committed record.
func Open[K comparable, V any](path string, codec Codec[K, V], opts Options) (*Store[K, V], error) {
	return open(path, codec, opts, false)
}

// OpenList opens or creates a store in list mode: every record is kept, in
// append order, and keys are ignored.
func OpenList[V any](path string, codec Codec[struct{}, V], opts Options) (*Store[struct{}, V], error) {
	return open(path, codec, opts, true)
}

func open[K comparable, V any](path string, codec Codec[K, V], opts Options, list bool) (*Store[K, V], error) {
	if opts.LockTimeout <= 0 {
		opts.LockTimeout = DefaultLockTimeout
	}
	path = filepath.Clean(path)
	if err := os.MkdirAll(filepath.Dir(path), domain.DirPerm); err != nil {
		return nil, zerr.With(zerr.Wrap(errors.Join(domain.ErrIndexOpenFailed, err), "create index directory"), "path", path)
	}
	//nolint:gosec // path is derived from the configured build directory
	f, err := os.OpenFile(path, os.O_RDWR|os.O_CREATE, domain.FilePerm)
	if err != nil {
		return nil, zerr.With(zerr.Wrap(errors.Join(domain.ErrIndexOpenFailed, err), "open index file"), "path", path)
	}

	s := &Store[K, V]{
		path:       path,
		codec:      codec,
		opts:       opts,
		list:       list,
		file:       f,
		loaded:     make(map[K]V),
		unsavedIdx: make(map[K]int),
	}
	if err := s.Refresh(); err != nil {
		_ = f.Close()
		return nil, err
	}
	return s, nil
}

// Path returns the backing file path.
func (s *Store[K, V]) Path() string {
	return s.path
}

// TryGet returns the value for key. Unsaved values shadow loaded ones.
func (s *Store[K, V]) TryGet(key K) (V, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var zero V
	if s.closed {
		return zero, false, zerr.Wrap(domain.ErrNoActiveStream, "index lookup")
	}
	if i, ok := s.unsavedIdx[key]; ok {
		return s.unsaved[i].value, true, nil
	}
	v, ok := s.loaded[key]
	return v, ok, nil
}

// Entries returns a snapshot of every key, unsaved entries included.
func (s *Store[K, V]) Entries() (map[K]V, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.closed {
		return nil, zerr.Wrap(domain.ErrNoActiveStream, "index snapshot")
	}
	out := maps.Clone(s.loaded)
	for _, e := range s.unsaved {
		out[e.key] = e.value
	}
	return out, nil
}

// Values returns every value in append order, unsaved values last.
func (s *Store[K, V]) Values() ([]V, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.closed {
		return nil, zerr.Wrap(domain.ErrNoActiveStream, "index snapshot")
	}
	out := make([]V, 0, len(s.values)+len(s.unsaved))
	out = append(out, s.values...)
	for _, e := range s.unsaved {
		out = append(out, e.value)
	}
	return out, nil
}

// Unsaved returns the number of entries waiting for Save.
func (s *Store[K, V]) Unsaved() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.unsaved)
}

// Add records key -> value. Without transactions the entry is durable when
// Add returns.
func (s *Store[K, V]) Add(key K, value V) error {
	if s.opts.UseTransactions {
		s.mu.Lock()
		defer s.mu.Unlock()
		if s.closed {
			return zerr.Wrap(domain.ErrNoActiveStream, "index add")
		}
		s.appendUnsaved(key, value)
		return nil
	}

	return s.withStream(func(f *os.File) error {
		s.mu.Lock()
		s.appendUnsaved(key, value)
		s.mu.Unlock()
		return s.flush(f)
	})
}

// Save flushes the current transaction.
func (s *Store[K, V]) Save() error {
	return s.withStream(s.flush)
}

// Refresh reads records appended by other writers since the last read.
// A partial record at the end of the file is left for a later refresh.
func (s *Store[K, V]) Refresh() error {
	return s.withStream(func(f *os.File) error {
		size, err := fileSize(f)
		if err != nil {
			return zerr.Wrap(errors.Join(domain.ErrIndexReadFailed, err), "stat index file")
		}
		_, err = s.catchUp(f, size)
		return err
	})
}

// Reset truncates the file and drops every entry, saved or not.
func (s *Store[K, V]) Reset() error {
	return s.withStream(func(f *os.File) error {
		if err := s.lockAt(f, func(*os.File) (int64, error) { return 0, nil }); err != nil {
			return err
		}
		defer func() { _ = unlockFrom(f, 0) }()

		if err := f.Truncate(0); err != nil {
			return zerr.With(zerr.Wrap(errors.Join(domain.ErrIndexWriteFailed, err), "truncate index"), "path", s.path)
		}
		s.readPos = 0

		s.mu.Lock()
		defer s.mu.Unlock()
		clear(s.loaded)
		clear(s.unsavedIdx)
		s.values = nil
		s.unsaved = nil
		return nil
	})
}

// Close releases the file. Unsaved entries are discarded.
func (s *Store[K, V]) Close() error {
	return s.withStream(func(f *os.File) error {
		s.file = nil
		s.mu.Lock()
		s.closed = true
		s.unsaved = nil
		clear(s.unsavedIdx)
		s.mu.Unlock()
		return f.Close()
	})
}

// withStream runs fn holding the stream lock. It is the only place streamMu
// is acquired.
func (s *Store[K, V]) withStream(fn func(f *os.File) error) error {
	s.streamMu.Lock()
	defer s.streamMu.Unlock()

	if s.file == nil {
		return zerr.With(zerr.Wrap(domain.ErrNoActiveStream, "index stream closed"), "path", s.path)
	}
	return fn(s.file)
}

// appendUnsaved requires mu.
func (s *Store[K, V]) appendUnsaved(key K, value V) {
	s.unsaved = append(s.unsaved, entry[K, V]{key: key, value: value, txn: s.txn})
	if !s.list {
		s.unsavedIdx[key] = len(s.unsaved) - 1
	}
}

// flush writes the current transaction. Requires streamMu.
func (s *Store[K, V]) flush(f *os.File) error {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return zerr.Wrap(domain.ErrNoActiveStream, "index flush")
	}
	txn := s.txn
	s.txn++
	var batch []entry[K, V]
	for _, e := range s.unsaved {
		if e.txn == txn {
			batch = append(batch, e)
		}
	}
	s.mu.Unlock()

	if len(batch) == 0 {
		return nil
	}

	var buf []byte
	for _, e := range batch {
		payload, err := s.codec.Encode(e.key, e.value)
		if err != nil {
			s.rollback(txn)
			return zerr.Wrap(errors.Join(domain.ErrIndexWriteFailed, err), "encode index record")
		}
		buf = appendFrame(buf, payload)
	}

	if err := s.writeTail(f, buf); err != nil {
		s.rollback(txn)
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	for _, e := range batch {
		s.promote(e.key, e.value)
	}
	s.dropTxn(txn)
	return nil
}

// writeTail appends buf under the OS lock after catching up with other writers.
func (s *Store[K, V]) writeTail(f *os.File, buf []byte) error {
	var start int64
	err := s.lockAt(f, func(f *os.File) (int64, error) {
		size, err := fileSize(f)
		start = size
		return size, err
	})
	if err != nil {
		return err
	}
	defer func() { _ = unlockFrom(f, start) }()

	end, err := s.catchUp(f, start)
	if err != nil {
		return err
	}
	if end < start {
		// Nobody else can hold a lock overlapping ours, so the torn record is
		// crash residue. Extend the lock down to it and cut it off.
		if err := lockFrom(f, end); err != nil {
			return zerr.With(zerr.Wrap(errors.Join(domain.ErrLockTimeout, err), "lock torn index tail"), "path", s.path)
		}
		dropped := start - end
		start = end
		if err := f.Truncate(end); err != nil {
			return zerr.With(zerr.Wrap(errors.Join(domain.ErrIndexWriteFailed, err), "truncate torn index tail"), "path", s.path)
		}
		if s.opts.Logger != nil {
			s.opts.Logger.Warn(fmt.Sprintf("discarded %d bytes at offset %d of index %s: %s",
				dropped, end, s.path, s.tail))
		}
	}

	if _, err := f.WriteAt(buf, start); err != nil {
		return zerr.With(zerr.Wrap(errors.Join(domain.ErrIndexWriteFailed, err), "append index records"), "path", s.path)
	}
	if err := f.Sync(); err != nil {
		return zerr.With(zerr.Wrap(errors.Join(domain.ErrIndexWriteFailed, err), "sync index file"), "path", s.path)
	}
	s.readPos = start + int64(len(buf))
	return nil
}

// lockAt takes the OS lock on [at, +inf) where at is recomputed on every
// attempt. The lock is only kept if the file did not grow meanwhile.
func (s *Store[K, V]) lockAt(f *os.File, at func(*os.File) (int64, error)) error {
	b := retry.NewExponential(2 * time.Millisecond)
	b = retry.WithCappedDuration(50*time.Millisecond, b)
	b = retry.WithMaxDuration(s.opts.LockTimeout, b)

	err := retry.Do(context.Background(), b, func(context.Context) error {
		start, err := at(f)
		if err != nil {
			return err
		}
		if err := lockFrom(f, start); err != nil {
			if errors.Is(err, errLockBusy) {
				return retry.RetryableError(err)
			}
			return err
		}
		if start == 0 {
			return nil
		}
		now, err := fileSize(f)
		if err != nil {
			_ = unlockFrom(f, start)
			return err
		}
		if now != start {
			_ = unlockFrom(f, start)
			return retry.RetryableError(errLockBusy)
		}
		return nil
	})
	if errors.Is(err, errLockBusy) {
		return zerr.With(zerr.With(zerr.Wrap(domain.ErrLockTimeout, "lock index file"), "path", s.path), "timeout", s.opts.LockTimeout.String())
	}
	if err != nil {
		return zerr.With(zerr.Wrap(errors.Join(domain.ErrIndexWriteFailed, err), "lock index file"), "path", s.path)
	}
	return nil
}

// catchUp loads records in [readPos, size) and returns the end of the last
// complete record. Requires streamMu.
func (s *Store[K, V]) catchUp(f *os.File, size int64) (int64, error) {
	if size < s.readPos {
		// Another writer reset the file.
		s.readPos = 0
		s.mu.Lock()
		clear(s.loaded)
		s.values = nil
		s.mu.Unlock()
	}
	if size == s.readPos {
		return size, nil
	}

	data := make([]byte, size-s.readPos)
	if _, err := f.ReadAt(data, s.readPos); err != nil && !errors.Is(err, io.EOF) {
		return 0, zerr.With(zerr.Wrap(errors.Join(domain.ErrIndexReadFailed, err), "read index file"), "path", s.path)
	}

	type record struct {
		key   K
		value V
	}
	var records []record
	consumed, tail, err := readFrames(bytes.NewReader(data), func(payload []byte) error {
		k, v, err := s.codec.Decode(payload)
		if err != nil {
			return err
		}
		records = append(records, record{key: k, value: v})
		return nil
	})
	if err != nil {
		return 0, zerr.With(zerr.Wrap(errors.Join(domain.ErrIndexReadFailed, err), "decode index record"), "path", s.path)
	}
	s.readPos += consumed
	s.tail = tail

	s.mu.Lock()
	for _, r := range records {
		s.promote(r.key, r.value)
	}
	s.mu.Unlock()
	return s.readPos, nil
}

// promote requires mu.
func (s *Store[K, V]) promote(key K, value V) {
	if s.list {
		s.values = append(s.values, value)
		return
	}
	s.loaded[key] = value
}

// dropTxn removes the entries of txn from the unsaved set. Requires mu.
func (s *Store[K, V]) dropTxn(txn uint64) {
	kept := s.unsaved[:0]
	for _, e := range s.unsaved {
		if e.txn != txn {
			kept = append(kept, e)
		}
	}
	clear(s.unsaved[len(kept):])
	s.unsaved = kept

	clear(s.unsavedIdx)
	if s.list {
		return
	}
	for i, e := range s.unsaved {
		s.unsavedIdx[e.key] = i
	}
}

// rollback returns the entries of a failed flush to the open transaction.
func (s *Store[K, V]) rollback(txn uint64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i := range s.unsaved {
		if s.unsaved[i].txn == txn {
			s.unsaved[i].txn = s.txn
		}
	}
}

func fileSize(f *os.File) (int64, error) {
	info, err := f.Stat()
	if err != nil {
		return 0, err
	}
	return info.Size(), nil
}
