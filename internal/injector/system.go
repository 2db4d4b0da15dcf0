package injector

import (
	"os"

	"github.com/moonlight-mod/moonlight-installer/internal/fsutil"
	"github.com/moonlight-mod/moonlight-installer/internal/paths"
)

// System is the filesystem surface an injector needs on top of path
// resolution. Install and patch code pass their own System through.
type System interface {
	paths.System
	Mkdir(name string, perm os.FileMode) error
	WriteFileAtomic(filename string, data []byte, perm os.FileMode) error
}

// RealSystem implements System using the OS filesystem.
type RealSystem struct {
	paths.RealSystem
}

// Mkdir creates a single directory.
func (RealSystem) Mkdir(name string, perm os.FileMode) error {
	return os.Mkdir(name, perm)
}

// WriteFileAtomic writes data to a file atomically by writing to a temp file and renaming.
func (RealSystem) WriteFileAtomic(filename string, data []byte, perm os.FileMode) error {
	return fsutil.WriteFileAtomic(filename, data, perm)
}
