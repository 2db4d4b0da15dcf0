//go:build windows

package moonerr

import (
	"errors"

	"golang.org/x/sys/windows"
)

// classifyPlatform maps sharing and lock violations to WindowsFileLock. Both
// are raised when a running host keeps an open handle on its resource archive.
func classifyPlatform(err error) (Code, bool) {
	if errors.Is(err, windows.ERROR_SHARING_VIOLATION) || errors.Is(err, windows.ERROR_LOCK_VIOLATION) {
		return CodeWindowsFileLock, true
	}
	return "", false
}
