package fsutil

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestWriteFileAtomic(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "version")

	require.NoError(t, WriteFileAtomic(path, []byte("v1.0.0"), 0o644))
	require.NoError(t, WriteFileAtomic(path, []byte("v1.1.0"), 0o644))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	require.Equal(t, "v1.1.0", string(data))

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	require.Len(t, entries, 1, "temp files must not be left behind")
}

func TestWriteFileAtomic_RenameFailureCleansUp(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "version")

	orig := osRename
	osRename = func(string, string) error { return errors.New("boom") }
	t.Cleanup(func() { osRename = orig })

	err := WriteFileAtomic(path, []byte("data"), 0o644)
	require.Error(t, err)

	entries, readErr := os.ReadDir(dir)
	require.NoError(t, readErr)
	require.Empty(t, entries)
}

func TestWriteFileAtomic_MissingDir(t *testing.T) {
	err := WriteFileAtomic(filepath.Join(t.TempDir(), "missing", "file"), []byte("x"), 0o644)
	require.Error(t, err)
}
