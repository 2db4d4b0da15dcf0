package install

import (
	"fmt"
	"path/filepath"
	"strings"

	"golang.org/x/text/unicode/norm"

	"github.com/moonlight-mod/moonlight-installer/internal/messages"
)

// Family is the operating-system family an installation was found on.
type Family string

// Supported families.
const (
	FamilyWindows Family = "Windows"
	FamilyMacOS   Family = "MacOS"
	FamilyLinux   Family = "Linux"
)

// FamilyFor maps a GOOS value to a Family. Anything that is not windows or
// darwin is treated as linux.
func FamilyFor(goos string) Family {
	switch goos {
	case "windows":
		return FamilyWindows
	case "darwin":
		return FamilyMacOS
	default:
		return FamilyLinux
	}
}

// Channel is a release channel of the host application.
type Channel string

// Host release channels.
const (
	ChannelStable      Channel = "Stable"
	ChannelPTB         Channel = "PTB"
	ChannelCanary      Channel = "Canary"
	ChannelDevelopment Channel = "Development"
)

// Channels lists every channel in display order.
var Channels = []Channel{ChannelStable, ChannelPTB, ChannelCanary, ChannelDevelopment}

// ParseChannel accepts a channel name case-insensitively.
func ParseChannel(s string) (Channel, error) {
	for _, c := range Channels {
		if strings.EqualFold(strings.TrimSpace(s), string(c)) {
			return c, nil
		}
	}
	return "", fmt.Errorf(messages.InstallUnknownChannelFmt, s)
}

// DirName is the per-user install directory name on Windows and Linux and
// the process name the host runs under.
func (c Channel) DirName() string {
	if c == ChannelStable {
		return "Discord"
	}
	return "Discord" + string(c)
}

// BundleName is the macOS application bundle name without the .app suffix.
func (c Channel) BundleName() string {
	if c == ChannelStable {
		return "Discord"
	}
	return "Discord " + string(c)
}

// ConfigFileName is the moonlight config file name for the channel.
func (c Channel) ConfigFileName() string {
	return strings.ToLower(string(c)) + ".json"
}

// Installation is a detected copy of the host application. It is immutable
// and re-detected on every enumeration.
type Installation struct {
	Family    Family  `json:"family"`
	Channel   Channel `json:"channel"`
	Path      string  `json:"path"`
	FlatpakID string  `json:"flatpak_id,omitempty"`
}

// Key identifies an installation across enumerations.
type Key struct {
	Family  Family
	Channel Channel
	Path    string
}

// Key returns the identity of inst. The path is cleaned and NFC-normalized so
// the same directory reported with different Unicode forms compares equal.
func (inst Installation) Key() Key {
	return Key{
		Family:  inst.Family,
		Channel: inst.Channel,
		Path:    norm.NFC.String(filepath.Clean(inst.Path)),
	}
}

// IsFlatpak reports whether the installation runs inside a flatpak sandbox.
func (inst Installation) IsFlatpak() bool {
	return inst.FlatpakID != ""
}

func (inst Installation) String() string {
	if inst.IsFlatpak() {
		return fmt.Sprintf("%s (flatpak %s) %s", inst.Channel, inst.FlatpakID, inst.Path)
	}
	return fmt.Sprintf("%s %s", inst.Channel, inst.Path)
}

// Info is an installation annotated with its current patch and config state.
type Info struct {
	Install   Installation `json:"install"`
	Patched   bool         `json:"patched"`
	HasConfig bool         `json:"has_config"`
}
