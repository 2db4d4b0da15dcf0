package terminal

import (
	"os"
	"path/filepath"
	"testing"
)

func TestIsInteractive(t *testing.T) {
	// Depends on how the test binary is attached; only verify it runs.
	_ = IsInteractive()
}

func TestIsTerminalRegularFile(t *testing.T) {
	f, err := os.Create(filepath.Join(t.TempDir(), "out"))
	if err != nil {
		t.Fatal(err)
	}
	defer func() { _ = f.Close() }()
	if IsTerminal(f) {
		t.Fatal("regular file reported as terminal")
	}
	if IsTerminal(nil) {
		t.Fatal("nil file reported as terminal")
	}
}
