package settings

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/moonlight-mod/moonlight-installer/internal/payload"
)

func TestLoadMissingFileReturnsDefaults(t *testing.T) {
	s, err := Load(filepath.Join(t.TempDir(), "settings.toml"))
	require.NoError(t, err)
	assert.Equal(t, Default(), s)
}

func TestParse(t *testing.T) {
	s, err := Parse([]byte("branch = \"nightly\"\ninjector_override = \"/dev/moonlight/dist\"\n"), "test")
	require.NoError(t, err)
	assert.Equal(t, Settings{Branch: payload.BranchNightly, InjectorOverride: "/dev/moonlight/dist"}, s)

	s, err = Parse([]byte(""), "test")
	require.NoError(t, err)
	assert.Equal(t, payload.BranchStable, s.Branch)

	_, err = Parse([]byte("branch = \"beta\"\n"), "test")
	assert.True(t, errors.Is(err, ErrInvalidSettings))

	_, err = Parse([]byte("brnach = \"stable\"\n"), "test")
	assert.Error(t, err)

	_, err = Parse([]byte("branch = "), "test")
	assert.Error(t, err)
}

func TestSaveRoundTripsThroughStore(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "settings.toml")
	store := &Store{Path: path}

	b, err := store.LoadBranch()
	require.NoError(t, err)
	assert.Equal(t, payload.BranchStable, b)

	require.NoError(t, Save(path, Settings{Branch: payload.BranchStable, InjectorOverride: "/x"}))
	require.NoError(t, store.SaveBranch(payload.BranchNightly))

	b, err = store.LoadBranch()
	require.NoError(t, err)
	assert.Equal(t, payload.BranchNightly, b)
	assert.Equal(t, "/x", store.InjectorOverride(), "other settings survive a branch change")
}

func TestSaveBranchReplacesCorruptFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "settings.toml")
	require.NoError(t, os.WriteFile(path, []byte("not = [toml"), 0o644))
	store := &Store{Path: path}

	_, err := store.LoadBranch()
	require.Error(t, err)
	assert.Empty(t, store.InjectorOverride())

	require.NoError(t, store.SaveBranch(payload.BranchNightly))
	b, err := store.LoadBranch()
	require.NoError(t, err)
	assert.Equal(t, payload.BranchNightly, b)
}

func TestPathHonorsEnv(t *testing.T) {
	t.Setenv(EnvSettingsPath, "/tmp/custom.toml")
	assert.Equal(t, "/tmp/custom.toml", Path())

	t.Setenv(EnvSettingsPath, "")
	assert.Equal(t, "settings.toml", filepath.Base(Path()))
}
