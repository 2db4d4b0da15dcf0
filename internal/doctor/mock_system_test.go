package doctor

import (
	"path/filepath"
	"testing"

	"github.com/moonlight-mod/moonlight-installer/internal/paths"
)

type testSystem struct {
	paths.RealSystem

	env map[string]string
}

func (s testSystem) GOOS() string { return "linux" }

func (s testSystem) LookupEnv(key string) (string, bool) {
	v, ok := s.env[key]
	return v, ok
}

func (s testSystem) HomeDir() (string, error) { return s.env["HOME"], nil }

// newTestSystem points MOONLIGHT_DIR at a fresh temp dir and returns it.
func newTestSystem(t *testing.T, extra map[string]string) (testSystem, string) {
	t.Helper()
	root := t.TempDir()
	dir := filepath.Join(root, "moonlight-mod")
	env := map[string]string{"HOME": root, paths.EnvMoonlightDir: dir}
	for k, v := range extra {
		env[k] = v
	}
	return testSystem{env: env}, dir
}
