package install

import (
	"bytes"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/aymanbagabas/go-udiff"
	"gopkg.in/ini.v1"

	"github.com/moonlight-mod/moonlight-installer/internal/logging"
	"github.com/moonlight-mod/moonlight-installer/internal/messages"
)

// FlatpakConfigGrant is the filesystem permission a sandboxed host needs to
// read the moonlight config dir.
const FlatpakConfigGrant = "xdg-config/moonlight-mod"

const (
	flatpakContextSection = "Context"
	flatpakFilesystemsKey = "filesystems"
)

// FlatpakOverridesPath is the per-user overrides file for the flatpak app id.
func FlatpakOverridesPath(sys System, id string) (string, error) {
	share, err := localShare(sys)
	if err != nil {
		return "", err
	}
	return filepath.Join(userFlatpakHome(sys, share), "overrides", id), nil
}

// EnsureFlatpakOverrides grants the app read-write access to the moonlight
// config dir. It reports whether the overrides file was changed; other
// sections and keys are preserved.
func EnsureFlatpakOverrides(sys System, id string) (bool, error) {
	path, err := FlatpakOverridesPath(sys, id)
	if err != nil {
		return false, err
	}

	before, err := sys.ReadFile(path)
	if err != nil && !errors.Is(err, os.ErrNotExist) {
		return false, fmt.Errorf(messages.InstallReadOverridesFmt, path, err)
	}
	opts := ini.LoadOptions{IgnoreInlineComment: true}
	cfg, err := ini.LoadSources(opts, before)
	if err != nil {
		// Flatpak tolerates more than ini.v1 parses; start over rather than fail the patch.
		log := logging.GetLogger("install")
		log.Warn().Err(err).Str("path", path).Msg(messages.InstallOverridesUnparsedLog)
		cfg = ini.Empty(opts)
	}

	section := cfg.Section(flatpakContextSection)
	entries := splitFilesystems(section.Key(flatpakFilesystemsKey).String())
	if hasReadWriteGrant(entries, FlatpakConfigGrant) {
		return false, nil
	}
	entries = append(withoutGrant(entries, FlatpakConfigGrant), FlatpakConfigGrant)
	section.Key(flatpakFilesystemsKey).SetValue(strings.Join(entries, ";") + ";")

	var buf bytes.Buffer
	if _, err := cfg.WriteTo(&buf); err != nil {
		return false, fmt.Errorf(messages.InstallWriteOverridesFmt, path, err)
	}
	if err := sys.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return false, fmt.Errorf(messages.InstallWriteOverridesFmt, path, err)
	}
	if err := sys.WriteFileAtomic(path, buf.Bytes(), 0o644); err != nil {
		return false, fmt.Errorf(messages.InstallWriteOverridesFmt, path, err)
	}

	log := logging.GetLogger("install")
	log.Info().
		Str("path", path).
		Str("diff", udiff.Unified(path+" (before)", path+" (after)", string(before), buf.String())).
		Msg(messages.InstallOverridesUpdatedLog)
	return true, nil
}

func splitFilesystems(raw string) []string {
	var out []string
	for _, part := range strings.Split(raw, ";") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}

// hasReadWriteGrant matches "path" and "path:rw". Read-only, create and
// negated ("!path") entries do not count.
func hasReadWriteGrant(entries []string, path string) bool {
	for _, entry := range entries {
		if entry == path || entry == path+":rw" {
			return true
		}
	}
	return false
}

// withoutGrant drops every entry for path, whatever its permission suffix.
func withoutGrant(entries []string, path string) []string {
	out := entries[:0]
	for _, entry := range entries {
		name, _, _ := strings.Cut(strings.TrimPrefix(entry, "!"), ":")
		if name != path {
			out = append(out, entry)
		}
	}
	return out
}
