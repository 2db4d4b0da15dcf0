//go:build windows

package payload

import (
	"errors"
	"os"

	"golang.org/x/sys/windows"
)

const lockRange = 1

// lockFile acquires an exclusive lock on the first byte of the file.
func lockFile(file *os.File) error {
	handle := windows.Handle(file.Fd())
	return pollLock(func() (bool, error) {
		ol := new(windows.Overlapped)
		err := windows.LockFileEx(handle, windows.LOCKFILE_EXCLUSIVE_LOCK|windows.LOCKFILE_FAIL_IMMEDIATELY, 0, lockRange, 0, ol)
		if err == nil {
			return true, nil
		}
		if errors.Is(err, windows.ERROR_LOCK_VIOLATION) {
			return false, nil
		}
		return false, err
	})
}

// unlockFile releases the lock taken by lockFile.
func unlockFile(file *os.File) error {
	return windows.UnlockFileEx(windows.Handle(file.Fd()), 0, lockRange, 0, new(windows.Overlapped))
}
