package install

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/moonlight-mod/moonlight-installer/internal/messages"
	"github.com/moonlight-mod/moonlight-installer/internal/paths"
)

// ConfigPath is the moonlight config file used by the given channel.
func ConfigPath(sys System, channel Channel) (string, error) {
	dir, err := paths.ConfigDir(sys)
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, channel.ConfigFileName()), nil
}

// Inspect annotates inst with its patch and config state. Probe failures read
// as false so one unreadable installation does not hide the rest.
func Inspect(sys System, inst Installation) Info {
	info := Info{Install: inst}
	info.Patched, _ = IsPatched(sys, inst)
	if cfg, err := ConfigPath(sys, inst.Channel); err == nil {
		info.HasConfig, _ = exists(sys, cfg)
	}
	return info
}

// List detects installations and inspects each one.
func List(sys System) ([]Info, error) {
	installs, err := Detect(sys)
	if err != nil {
		return nil, err
	}
	out := make([]Info, 0, len(installs))
	for _, inst := range installs {
		out = append(out, Inspect(sys, inst))
	}
	return out, nil
}

// ResetConfig moves the channel's config aside as <name>-backup-<unix>.json
// and returns the backup path. A missing config is not an error and yields
// an empty path.
func ResetConfig(sys System, channel Channel, now time.Time) (string, error) {
	cfg, err := ConfigPath(sys, channel)
	if err != nil {
		return "", err
	}
	stem := strings.TrimSuffix(filepath.Base(cfg), filepath.Ext(cfg))
	backup := filepath.Join(filepath.Dir(cfg), fmt.Sprintf("%s-backup-%d.json", stem, now.Unix()))
	if err := sys.Rename(cfg, backup); err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return "", nil
		}
		return "", fmt.Errorf(messages.InstallResetConfigFmt, cfg, err)
	}
	return backup, nil
}
