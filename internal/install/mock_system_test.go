package install

import (
	"os"
	"path/filepath"
	"testing"
)

// testSystem substitutes the platform, environment and home directory and
// injects per-path faults; everything else hits the real filesystem under
// t.TempDir().
type testSystem struct {
	RealSystem

	goos       string
	env        map[string]string
	home       string
	renameErrs map[string]error
	removeErrs map[string]error
	writeErrs  map[string]error
}

func newTestSystem(t *testing.T, goos string) (*testSystem, string) {
	t.Helper()
	root := t.TempDir()
	sys := &testSystem{
		goos:       goos,
		home:       filepath.Join(root, "home"),
		env:        map[string]string{},
		renameErrs: map[string]error{},
		removeErrs: map[string]error{},
		writeErrs:  map[string]error{},
	}
	switch goos {
	case "windows":
		sys.env["APPDATA"] = filepath.Join(root, "AppData", "Roaming")
		sys.env["LocalAppData"] = filepath.Join(root, "AppData", "Local")
	case "linux":
		sys.env["XDG_CONFIG_HOME"] = filepath.Join(root, "config")
	}
	return sys, root
}

func (s *testSystem) GOOS() string { return s.goos }

func (s *testSystem) LookupEnv(key string) (string, bool) {
	v, ok := s.env[key]
	return v, ok
}

func (s *testSystem) HomeDir() (string, error) { return s.home, nil }

func (s *testSystem) Rename(oldpath string, newpath string) error {
	if err, ok := s.renameErrs[filepath.Clean(oldpath)]; ok {
		return err
	}
	return s.RealSystem.Rename(oldpath, newpath)
}

func (s *testSystem) RemoveAll(path string) error {
	if err, ok := s.removeErrs[filepath.Clean(path)]; ok {
		return err
	}
	return s.RealSystem.RemoveAll(path)
}

func (s *testSystem) WriteFileAtomic(filename string, data []byte, perm os.FileMode) error {
	if err, ok := s.writeErrs[filepath.Clean(filename)]; ok {
		return err
	}
	return s.RealSystem.WriteFileAtomic(filename, data, perm)
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

func mkdir(t *testing.T, path string) {
	t.Helper()
	if err := os.MkdirAll(path, 0o755); err != nil {
		t.Fatal(err)
	}
}

func fileExists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}
