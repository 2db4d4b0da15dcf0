package payload

import (
	"path/filepath"
	"testing"

	"github.com/moonlight-mod/moonlight-installer/internal/paths"
)

// testSystem points the config dir at a temp directory via MOONLIGHT_DIR.
type testSystem struct {
	paths.RealSystem

	env     map[string]string
	readErr error
}

func (s *testSystem) GOOS() string { return "linux" }

func (s *testSystem) LookupEnv(key string) (string, bool) {
	v, ok := s.env[key]
	return v, ok
}

func (s *testSystem) HomeDir() (string, error) { return "/nonexistent-home", nil }

func (s *testSystem) ReadFile(name string) ([]byte, error) {
	if s.readErr != nil {
		return nil, s.readErr
	}
	return s.RealSystem.ReadFile(name)
}

func newTestSystem(t *testing.T) (*testSystem, string) {
	t.Helper()
	dir := filepath.Join(t.TempDir(), "moonlight-mod")
	return &testSystem{env: map[string]string{paths.EnvMoonlightDir: dir}}, dir
}
