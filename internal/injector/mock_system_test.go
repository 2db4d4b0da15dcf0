package injector

import (
	"os"
	"path/filepath"
	"testing"
)

// testSystem pins the platform to linux with XDG_CONFIG_HOME inside a temp
// dir; file operations hit the real filesystem.
type testSystem struct {
	RealSystem

	env     map[string]string
	home    string
	mkdirFn func(string, os.FileMode) error
}

func newTestSystem(t *testing.T) (*testSystem, string) {
	t.Helper()
	root := t.TempDir()
	sys := &testSystem{
		env:  map[string]string{"XDG_CONFIG_HOME": filepath.Join(root, "config")},
		home: filepath.Join(root, "home"),
	}
	return sys, root
}

func (s *testSystem) GOOS() string { return "linux" }

func (s *testSystem) LookupEnv(key string) (string, bool) {
	v, ok := s.env[key]
	return v, ok
}

func (s *testSystem) HomeDir() (string, error) { return s.home, nil }

func (s *testSystem) Mkdir(name string, perm os.FileMode) error {
	if s.mkdirFn != nil {
		return s.mkdirFn(name, perm)
	}
	return s.RealSystem.Mkdir(name, perm)
}

func writeFile(t *testing.T, path string, data string) {
	t.Helper()
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(path, []byte(data), 0o644); err != nil {
		t.Fatal(err)
	}
}
