package injector

import (
	"context"
	_ "embed"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/moonlight-mod/moonlight-installer/internal/messages"
	"github.com/moonlight-mod/moonlight-installer/internal/paths"
)

// Names written next to the host archive.
const (
	ShimDirName      = "app"
	PackageJSONName  = "package.json"
	ShimConfigName   = "moonlight.json"
	ShimEntryName    = "injector.js"
	relativeToConfig = "MOONLIGHT"
)

//go:embed assets/injector.js
var shimSource []byte

type packageJSON struct {
	Name    string `json:"name"`
	Main    string `json:"main"`
	Private bool   `json:"private"`
}

type shimEntry struct {
	PathStr    string `json:"pathStr"`
	RelativeTo string `json:"relativeTo"`
}

type shimConfig struct {
	Injector    shimEntry `json:"MOONLIGHT_INJECTOR"`
	PatchedAsar string    `json:"PATCHED_ASAR"`
}

// ShimInjector makes the host load a JavaScript injector on startup by
// placing an app/ directory next to the renamed archive.
type ShimInjector struct {
	Sys        System
	EntryPoint string
}

// Inject writes app/package.json, app/moonlight.json and app/injector.js into
// the directory holding archivePath. The app/ directory must not exist yet.
func (s *ShimInjector) Inject(_ context.Context, archivePath string) error {
	dir := filepath.Join(filepath.Dir(archivePath), ShimDirName)
	if err := s.Sys.Mkdir(dir, 0o755); err != nil {
		if errors.Is(err, os.ErrExist) {
			return fmt.Errorf(messages.InjectorShimExistsFmt, dir)
		}
		return fmt.Errorf(messages.InjectorCreateShimDirFmt, dir, err)
	}

	pkg, err := json.Marshal(packageJSON{Name: "discord", Main: "./" + ShimEntryName, Private: true})
	if err != nil {
		return err
	}
	entry, err := s.entry()
	if err != nil {
		return err
	}
	cfg, err := json.MarshalIndent(shimConfig{Injector: entry, PatchedAsar: filepath.Base(archivePath)}, "", "  ")
	if err != nil {
		return err
	}

	files := []struct {
		name string
		data []byte
	}{
		{PackageJSONName, pkg},
		{ShimConfigName, cfg},
		{ShimEntryName, shimSource},
	}
	for _, f := range files {
		path := filepath.Join(dir, f.name)
		if err := s.Sys.WriteFileAtomic(path, f.data, 0o644); err != nil {
			return fmt.Errorf(messages.InjectorWriteShimFmt, path, err)
		}
	}
	return nil
}

// entry records the injector relative to the config dir when it lives there,
// so hosts with a different view of the filesystem (flatpak) still find it.
func (s *ShimInjector) entry() (shimEntry, error) {
	abs, err := filepath.Abs(s.EntryPoint)
	if err != nil {
		return shimEntry{}, fmt.Errorf(messages.PathsAbsFmt, s.EntryPoint, err)
	}
	configDir, err := paths.ConfigDir(s.Sys)
	if err != nil {
		return shimEntry{PathStr: abs}, nil
	}
	rel, err := filepath.Rel(configDir, abs)
	if err != nil || rel == ".." || strings.HasPrefix(rel, ".."+string(filepath.Separator)) {
		return shimEntry{PathStr: abs}, nil
	}
	return shimEntry{PathStr: filepath.ToSlash(rel), RelativeTo: relativeToConfig}, nil
}
