package paths

import (
	"os"
	"runtime"

	"github.com/mitchellh/go-homedir"
)

// System abstracts the environment lookups needed to resolve moonlight paths.
// Tests substitute GOOS and the environment to exercise every platform rule
// from a single host.
type System interface {
	GOOS() string
	LookupEnv(key string) (string, bool)
	HomeDir() (string, error)
	Stat(name string) (os.FileInfo, error)
	ReadFile(name string) ([]byte, error)
}

// RealSystem implements System using the running process.
type RealSystem struct{}

// GOOS returns the operating system the binary was built for.
func (RealSystem) GOOS() string {
	return runtime.GOOS
}

// LookupEnv returns the value and presence of an environment variable.
func (RealSystem) LookupEnv(key string) (string, bool) {
	return os.LookupEnv(key)
}

// HomeDir returns the current user's home directory.
func (RealSystem) HomeDir() (string, error) {
	return homedir.Dir()
}

// Stat returns a FileInfo describing the named file.
func (RealSystem) Stat(name string) (os.FileInfo, error) {
	return os.Stat(name)
}

// ReadFile reads the named file.
func (RealSystem) ReadFile(name string) ([]byte, error) {
	return os.ReadFile(name)
}
