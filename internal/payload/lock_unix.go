//go:build !windows

package payload

import (
	"errors"
	"os"

	"golang.org/x/sys/unix"
)

var flockFn = unix.Flock

// lockFile acquires an exclusive advisory lock on the file.
func lockFile(file *os.File) error {
	return pollLock(func() (bool, error) {
		err := flockFn(int(file.Fd()), unix.LOCK_EX|unix.LOCK_NB)
		if err == nil {
			return true, nil
		}
		if errors.Is(err, unix.EWOULDBLOCK) || errors.Is(err, unix.EAGAIN) {
			return false, nil
		}
		return false, err
	})
}

// unlockFile releases the advisory lock on the file.
func unlockFile(file *os.File) error {
	return flockFn(int(file.Fd()), unix.LOCK_UN)
}
