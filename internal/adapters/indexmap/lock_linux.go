//go:build linux

package indexmap

import (
	"errors"
	"io"
	"os"

	"golang.org/x/sys/unix"
)

// Open file description locks belong to the *os.File rather than the process,
// so two stores in one process exclude each other like two processes do.

func lockFrom(f *os.File, start int64) error {
	return setLock(f, unix.F_WRLCK, start)
}

func unlockFrom(f *os.File, start int64) error {
	return setLock(f, unix.F_UNLCK, start)
}

func setLock(f *os.File, typ int16, start int64) error {
	lk := unix.Flock_t{Type: typ, Whence: io.SeekStart, Start: start, Len: 0}
	err := unix.FcntlFlock(f.Fd(), unix.F_OFD_SETLK, &lk)
	if errors.Is(err, unix.EAGAIN) || errors.Is(err, unix.EACCES) {
		return errLockBusy
	}
	return err
}
