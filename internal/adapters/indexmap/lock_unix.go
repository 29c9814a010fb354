//go:build unix && !linux

package indexmap

import (
	"errors"
	"io"
	"os"

	"golang.org/x/sys/unix"
)

// POSIX record locks are owned by the process: they keep other processes out
// but do not separate two stores opened by the same process.

func lockFrom(f *os.File, start int64) error {
	return setLock(f, unix.F_WRLCK, start)
}

func unlockFrom(f *os.File, start int64) error {
	return setLock(f, unix.F_UNLCK, start)
}

func setLock(f *os.File, typ int16, start int64) error {
	lk := unix.Flock_t{Type: typ, Whence: io.SeekStart, Start: start, Len: 0}
	err := unix.FcntlFlock(f.Fd(), unix.F_SETLK, &lk)
	if errors.Is(err, unix.EAGAIN) || errors.Is(err, unix.EACCES) {
		return errLockBusy
	}
	return err
}
