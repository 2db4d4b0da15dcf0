// Package paths resolves the moonlight configuration directory and the
// location of the injector entry point written into host installations.
package paths

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/moonlight-mod/moonlight-installer/internal/logging"
	"github.com/moonlight-mod/moonlight-installer/internal/messages"
)

// Fixed names under the configuration directory.
const (
	DirName          = "moonlight-mod"
	DownloadDirName  = "dist"
	InjectorFileName = "injector.js"
)

// EnvMoonlightDir replaces the computed configuration directory when set.
const EnvMoonlightDir = "MOONLIGHT_DIR"

// ErrPayloadMissing reports that no injector exists at any candidate path.
// Callers surface it as "needs download" rather than a patch failure.
var ErrPayloadMissing = errors.New(messages.PathsPayloadMissing)

// Source records which candidate produced an injector location.
type Source string

// Injector location sources, in precedence order.
const (
	SourceOverride Source = "override"
	SourceDefault  Source = "default"
)

// Location is a resolved injector entry point.
type Location struct {
	Path   string
	Source Source
}

// ConfigDir returns the platform configuration directory for moonlight.
//
//	windows: %APPDATA%/moonlight-mod
//	darwin:  ~/Library/Application Support/moonlight-mod
//	other:   $XDG_CONFIG_HOME/moonlight-mod, else ~/.config/moonlight-mod
func ConfigDir(sys System) (string, error) {
	if sys == nil {
		return "", errors.New(messages.PathsSystemRequired)
	}
	if override, ok := nonEmptyEnv(sys, EnvMoonlightDir); ok {
		return filepath.Clean(override), nil
	}

	switch sys.GOOS() {
	case "windows":
		appData, ok := nonEmptyEnv(sys, "APPDATA")
		if !ok {
			return "", fmt.Errorf(messages.PathsEnvUnsetFmt, "APPDATA")
		}
		return filepath.Join(appData, DirName), nil
	case "darwin":
		home, err := sys.HomeDir()
		if err != nil {
			return "", fmt.Errorf(messages.PathsResolveHomeFmt, err)
		}
		return filepath.Join(home, "Library", "Application Support", DirName), nil
	default:
		base, err := DotConfig(sys)
		if err != nil {
			return "", err
		}
		return filepath.Join(base, DirName), nil
	}
}

// DotConfig returns $XDG_CONFIG_HOME, falling back to ~/.config.
func DotConfig(sys System) (string, error) {
	if xdgConfig, ok := nonEmptyEnv(sys, "XDG_CONFIG_HOME"); ok {
		return xdgConfig, nil
	}
	home, err := sys.HomeDir()
	if err != nil {
		return "", fmt.Errorf(messages.PathsResolveHomeFmt, err)
	}
	return filepath.Join(home, ".config"), nil
}

// DownloadDir returns the directory the payload is downloaded into.
func DownloadDir(sys System) (string, error) {
	dir, err := ConfigDir(sys)
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, DownloadDirName), nil
}

// DefaultInjectorPath returns the injector path inside the download directory.
func DefaultInjectorPath(sys System) (string, error) {
	dir, err := DownloadDir(sys)
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, InjectorFileName), nil
}

// ResolveInjector picks the injector entry point. An override that exists
// wins; a directory override resolves to its injector file. A missing override
// falls back to the download directory. Nothing is cached so a fresh download
// is picked up on the next call.
func ResolveInjector(sys System, override string) (Location, error) {
	log := logging.GetLogger("paths")
	if override = strings.TrimSpace(override); override != "" {
		candidate, ok, err := existingInjector(sys, override)
		if err != nil {
			return Location{}, err
		}
		if ok {
			return Location{Path: candidate, Source: SourceOverride}, nil
		}
		log.Warn().Str("override", override).Msg(messages.PathsOverrideMissingLog)
	}

	def, err := DefaultInjectorPath(sys)
	if err != nil {
		return Location{}, err
	}
	if _, err := sys.Stat(def); err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return Location{}, fmt.Errorf("%w: %s", ErrPayloadMissing, def)
		}
		return Location{}, fmt.Errorf(messages.PathsStatFmt, def, err)
	}
	return Location{Path: def, Source: SourceDefault}, nil
}

// existingInjector reports the injector file for path when it exists on disk.
func existingInjector(sys System, path string) (string, bool, error) {
	abs, err := filepath.Abs(path)
	if err != nil {
		return "", false, fmt.Errorf(messages.PathsAbsFmt, path, err)
	}
	info, err := sys.Stat(abs)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return "", false, nil
		}
		return "", false, fmt.Errorf(messages.PathsStatFmt, abs, err)
	}
	if !info.IsDir() {
		return abs, true, nil
	}
	inner := filepath.Join(abs, InjectorFileName)
	if _, err := sys.Stat(inner); err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return "", false, nil
		}
		return "", false, fmt.Errorf(messages.PathsStatFmt, inner, err)
	}
	return inner, true, nil
}

func nonEmptyEnv(sys System, key string) (string, bool) {
	value, ok := sys.LookupEnv(key)
	value = strings.TrimSpace(value)
	return value, ok && value != ""
}
