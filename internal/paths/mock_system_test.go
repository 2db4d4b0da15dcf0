package paths

import (
	"errors"
	"fmt"
	"os"
)

var errNotMocked = errors.New("testSystem: method not mocked")

// testSystem overrides GOOS, environment and home directory while Stat falls
// back to the real filesystem so fixtures can live in t.TempDir().
type testSystem struct {
	RealSystem

	goos string
	env  map[string]string
	home string
}

func (s *testSystem) GOOS() string {
	return s.goos
}

func (s *testSystem) LookupEnv(key string) (string, bool) {
	v, ok := s.env[key]
	return v, ok
}

func (s *testSystem) HomeDir() (string, error) {
	if s.home == "" {
		return "", fmt.Errorf("%w: HomeDir", errNotMocked)
	}
	return s.home, nil
}

func (s *testSystem) Stat(name string) (os.FileInfo, error) {
	return s.RealSystem.Stat(name)
}
