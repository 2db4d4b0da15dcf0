package install

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/moonlight-mod/moonlight-installer/internal/logging"
	"github.com/moonlight-mod/moonlight-installer/internal/messages"
)

// EnvDiscordShareLinux replaces the Linux local share directory searched for
// installations.
const EnvDiscordShareLinux = "MOONLIGHT_DISCORD_SHARE_LINUX"

// Archive names inside an installation's app dir.
const (
	ArchiveName        = "app.asar"
	PatchedArchiveName = "_app.asar"
)

var (
	systemFlatpakHome  = "/var/lib/flatpak"
	macApplicationsDir = "/Applications"
)

type flatpakApp struct {
	id      string
	channel Channel
	dir     string
}

var flatpakApps = []flatpakApp{
	{id: "com.discordapp.Discord", channel: ChannelStable, dir: "discord"},
	{id: "com.discordapp.DiscordCanary", channel: ChannelCanary, dir: "discord-canary"},
}

// Detect enumerates installations on the current platform. The result is
// freshly computed, deduplicated by Key and may be empty.
func Detect(sys System) ([]Installation, error) {
	if sys == nil {
		return nil, errors.New(messages.InstallSystemRequired)
	}
	family := FamilyFor(sys.GOOS())

	var (
		found []Installation
		err   error
	)
	switch family {
	case FamilyWindows:
		found, err = detectWindows(sys)
	case FamilyMacOS:
		found, err = detectMacOS(sys)
	default:
		found, err = detectLinux(sys)
	}
	if err != nil {
		return nil, err
	}

	seen := make(map[Key]struct{}, len(found))
	out := make([]Installation, 0, len(found))
	for _, inst := range found {
		key := inst.Key()
		if _, ok := seen[key]; ok {
			continue
		}
		seen[key] = struct{}{}
		out = append(out, inst)
	}
	log := logging.GetLogger("install")
	log.Debug().Int("count", len(out)).Str("family", string(family)).Msg(messages.InstallDetectedLog)
	return out, nil
}

// detectWindows picks the newest app-* directory under each channel's
// LocalAppData folder. Version directories sort lexically.
func detectWindows(sys System) ([]Installation, error) {
	localAppData, ok := sys.LookupEnv("LocalAppData")
	if !ok || strings.TrimSpace(localAppData) == "" {
		return nil, fmt.Errorf(messages.PathsEnvUnsetFmt, "LocalAppData")
	}

	var out []Installation
	for _, channel := range Channels {
		root := filepath.Join(localAppData, channel.DirName())
		present, err := isDir(sys, root)
		if err != nil {
			return nil, err
		}
		if !present {
			continue
		}
		entries, err := sys.ReadDir(root)
		if err != nil {
			return nil, fmt.Errorf(messages.InstallReadDirFmt, root, err)
		}
		var versions []string
		for _, entry := range entries {
			if entry.IsDir() && strings.HasPrefix(entry.Name(), "app-") {
				versions = append(versions, entry.Name())
			}
		}
		if len(versions) == 0 {
			continue
		}
		sort.Strings(versions)
		out = append(out, Installation{
			Family:  FamilyWindows,
			Channel: channel,
			Path:    filepath.Join(root, versions[len(versions)-1]),
		})
	}
	return out, nil
}

func detectMacOS(sys System) ([]Installation, error) {
	roots := []string{macApplicationsDir}
	if home, err := sys.HomeDir(); err == nil {
		roots = append(roots, filepath.Join(home, "Applications"))
	}

	var out []Installation
	for _, root := range roots {
		for _, channel := range Channels {
			bundle := filepath.Join(root, channel.BundleName()+".app")
			present, err := isDir(sys, bundle)
			if err != nil {
				return nil, err
			}
			if !present {
				continue
			}
			out = append(out, Installation{
				Family:  FamilyMacOS,
				Channel: channel,
				Path:    filepath.Join(bundle, "Contents", "Resources"),
			})
		}
	}
	return out, nil
}

func detectLinux(sys System) ([]Installation, error) {
	share, err := localShare(sys)
	if err != nil {
		return nil, err
	}

	var out []Installation
	for _, channel := range Channels {
		path := filepath.Join(share, channel.DirName())
		present, err := isDir(sys, path)
		if err != nil {
			return nil, err
		}
		if present {
			out = append(out, Installation{Family: FamilyLinux, Channel: channel, Path: path})
		}
	}

	homes := []string{userFlatpakHome(sys, share), systemFlatpakHome}
	for _, home := range homes {
		for _, app := range flatpakApps {
			path := filepath.Join(home, "app", app.id, "current", "active", "files", app.dir)
			present, err := isDir(sys, path)
			if err != nil {
				return nil, err
			}
			if present {
				out = append(out, Installation{Family: FamilyLinux, Channel: app.channel, Path: path, FlatpakID: app.id})
			}
		}
	}
	return out, nil
}

// localShare returns MOONLIGHT_DISCORD_SHARE_LINUX, then XDG_DATA_HOME, then
// ~/.local/share.
func localShare(sys System) (string, error) {
	for _, key := range []string{EnvDiscordShareLinux, "XDG_DATA_HOME"} {
		if v, ok := sys.LookupEnv(key); ok && strings.TrimSpace(v) != "" {
			return v, nil
		}
	}
	home, err := sys.HomeDir()
	if err != nil {
		return "", fmt.Errorf(messages.PathsResolveHomeFmt, err)
	}
	return filepath.Join(home, ".local", "share"), nil
}

// userFlatpakHome prefers the flatpak dir under the configured local share and
// falls back to ~/.local/share/flatpak, which flatpak uses even when
// XDG_DATA_HOME points elsewhere.
func userFlatpakHome(sys System, share string) string {
	primary := filepath.Join(share, "flatpak")
	if ok, _ := isDir(sys, primary); ok {
		return primary
	}
	home, err := sys.HomeDir()
	if err != nil {
		return primary
	}
	fallback := filepath.Join(home, ".local", "share", "flatpak")
	if ok, _ := isDir(sys, fallback); ok {
		return fallback
	}
	return primary
}

// InstallationAt builds an installation from a path outside the detected
// roots. path may name the install directory or the executable inside it, or
// a macOS bundle. ok is false when no host archive, patched or not, sits
// where the installation expects it.
func InstallationAt(sys System, path string) (inst Installation, ok bool, err error) {
	dir := filepath.Clean(path)
	isDirectory, err := isDir(sys, dir)
	if err != nil {
		return Installation{}, false, err
	}
	if !isDirectory {
		dir = filepath.Dir(dir)
	}

	family := FamilyFor(sys.GOOS())
	candidates := []string{dir}
	if family == FamilyMacOS && strings.HasSuffix(dir, ".app") {
		candidates = append(candidates, filepath.Join(dir, "Contents", "Resources"))
	}
	for _, candidate := range candidates {
		inst = Installation{Family: family, Channel: channelFromPath(path), Path: candidate}
		for _, name := range []string{ArchiveName, PatchedArchiveName} {
			present, err := exists(sys, filepath.Join(AppDir(inst), name))
			if err != nil {
				return Installation{}, false, err
			}
			if present {
				return inst, true, nil
			}
		}
	}
	return Installation{}, false, nil
}

// channelFromPath reads the channel from the innermost path element named
// like the host, such as DiscordCanary, "Discord PTB.app" or Discord.exe.
// Paths that name no channel are Stable.
func channelFromPath(path string) Channel {
	for p := filepath.Clean(path); ; p = filepath.Dir(p) {
		name := strings.ToLower(filepath.Base(p))
		name = strings.TrimSuffix(strings.TrimSuffix(name, ".exe"), ".app")
		if rest, found := strings.CutPrefix(name, "discord"); found {
			rest = strings.TrimSpace(rest)
			if rest == "" {
				return ChannelStable
			}
			if c, err := ParseChannel(rest); err == nil {
				return c
			}
		}
		if parent := filepath.Dir(p); parent == p {
			return ChannelStable
		}
	}
}

// AppDir is the directory holding the host archive.
func AppDir(inst Installation) string {
	if inst.Family == FamilyMacOS {
		return inst.Path
	}
	return filepath.Join(inst.Path, "resources")
}

// IsPatched reports whether the host archive is gone from its usual place.
// A host update that writes a fresh app.asar next to stale patch files reads
// as unpatched. Other client mods that move app.asar aside read as patched.
func IsPatched(sys System, inst Installation) (bool, error) {
	present, err := exists(sys, filepath.Join(AppDir(inst), ArchiveName))
	if err != nil {
		return false, err
	}
	return !present, nil
}

func exists(sys System, path string) (bool, error) {
	if _, err := sys.Stat(path); err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return false, nil
		}
		return false, fmt.Errorf(messages.PathsStatFmt, path, err)
	}
	return true, nil
}

func isDir(sys System, path string) (bool, error) {
	info, err := sys.Stat(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) || errors.Is(err, os.ErrPermission) {
			return false, nil
		}
		return false, fmt.Errorf(messages.PathsStatFmt, path, err)
	}
	return info.IsDir(), nil
}
