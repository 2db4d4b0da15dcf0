// Package settings persists installer preferences between runs.
package settings

import (
	"bytes"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/adrg/xdg"
	"github.com/pelletier/go-toml/v2"

	"github.com/moonlight-mod/moonlight-installer/internal/fsutil"
	"github.com/moonlight-mod/moonlight-installer/internal/messages"
	"github.com/moonlight-mod/moonlight-installer/internal/payload"
)

// EnvSettingsPath replaces the settings file location.
const EnvSettingsPath = "MOONLIGHT_INSTALLER_SETTINGS"

// ErrInvalidSettings reports a settings file that parses but holds bad values.
var ErrInvalidSettings = errors.New(messages.SettingsInvalid)

// Settings is the on-disk preference file.
type Settings struct {
	Branch           payload.Branch `toml:"branch"`
	InjectorOverride string         `toml:"injector_override,omitempty"`
}

// Default returns the settings used when no file exists.
func Default() Settings {
	return Settings{Branch: payload.BranchStable}
}

// Path returns the settings file path.
func Path() string {
	if p, ok := os.LookupEnv(EnvSettingsPath); ok && strings.TrimSpace(p) != "" {
		return p
	}
	return filepath.Join(xdg.ConfigHome, "moonlight-installer", "settings.toml")
}

// Parse decodes settings TOML. Unknown keys are rejected so typos surface.
func Parse(data []byte, source string) (Settings, error) {
	s := Default()
	decoder := toml.NewDecoder(bytes.NewReader(data))
	decoder.DisallowUnknownFields()
	if err := decoder.Decode(&s); err != nil {
		return Settings{}, fmt.Errorf(messages.SettingsParseFmt, source, err)
	}
	if s.Branch == "" {
		s.Branch = payload.BranchStable
	}
	b, err := payload.ParseBranch(string(s.Branch))
	if err != nil {
		return Settings{}, fmt.Errorf("%w: %s: %w", ErrInvalidSettings, source, err)
	}
	s.Branch = b
	return s, nil
}

// Load reads settings from path. A missing file yields the defaults.
func Load(path string) (Settings, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return Default(), nil
		}
		return Settings{}, fmt.Errorf(messages.SettingsReadFmt, path, err)
	}
	return Parse(data, path)
}

// Save writes settings to path atomically.
func Save(path string, s Settings) error {
	data, err := toml.Marshal(s)
	if err != nil {
		return fmt.Errorf(messages.SettingsEncodeFmt, err)
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf(messages.SettingsWriteFmt, path, err)
	}
	if err := fsutil.WriteFileAtomic(path, data, 0o644); err != nil {
		return fmt.Errorf(messages.SettingsWriteFmt, path, err)
	}
	return nil
}

// Store is a file-backed payload.BranchStore.
type Store struct {
	Path string
}

// NewStore returns a Store at the default settings path.
func NewStore() *Store {
	return &Store{Path: Path()}
}

// LoadBranch returns the persisted branch.
func (s *Store) LoadBranch() (payload.Branch, error) {
	cfg, err := Load(s.Path)
	if err != nil {
		return "", err
	}
	return cfg.Branch, nil
}

// SaveBranch persists b, keeping the other settings.
func (s *Store) SaveBranch(b payload.Branch) error {
	cfg, err := Load(s.Path)
	if err != nil {
		// A corrupt file is replaced rather than blocking the branch switch.
		cfg = Default()
	}
	cfg.Branch = b
	return Save(s.Path, cfg)
}

// InjectorOverride returns the configured injector override, if any.
func (s *Store) InjectorOverride() string {
	cfg, err := Load(s.Path)
	if err != nil {
		return ""
	}
	return cfg.InjectorOverride
}
