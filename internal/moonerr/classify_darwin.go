//go:build darwin

package moonerr

import (
	"errors"

	"golang.org/x/sys/unix"
)

// classifyPlatform maps EPERM to MacOSNoPermission. macOS returns it when App
// Management protection denies writes into another application's bundle.
func classifyPlatform(err error) (Code, bool) {
	if errors.Is(err, unix.EPERM) {
		return CodeMacOSNoPermission, true
	}
	return "", false
}
