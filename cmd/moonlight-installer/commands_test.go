package main

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/moonlight-mod/moonlight-installer/internal/backend"
	"github.com/moonlight-mod/moonlight-installer/internal/install"
	"github.com/moonlight-mod/moonlight-installer/internal/mcpserver"
	"github.com/moonlight-mod/moonlight-installer/internal/moonerr"
	"github.com/moonlight-mod/moonlight-installer/internal/patch"
	"github.com/moonlight-mod/moonlight-installer/internal/paths"
	"github.com/moonlight-mod/moonlight-installer/internal/payload"
	"github.com/moonlight-mod/moonlight-installer/internal/terminal"
)

var (
	stableInstall = install.Installation{Family: install.FamilyLinux, Channel: install.ChannelStable, Path: "/share/Discord"}
	canaryInstall = install.Installation{Family: install.FamilyLinux, Channel: install.ChannelCanary, Path: "/share/DiscordCanary"}
)

type fakeInstaller struct {
	installs   []install.Installation
	patched    map[string]bool
	branch     payload.Branch
	installed  string
	latest     string
	patchErrs  []error
	patchCalls int
	overrides  []string
	killed     []*install.Channel
	downloads  []payload.Branch
	backups    map[install.Channel]string
}

func newFakeInstaller() *fakeInstaller {
	return &fakeInstaller{
		installs:  []install.Installation{stableInstall, canaryInstall},
		patched:   map[string]bool{},
		branch:    payload.BranchStable,
		installed: "v1.3.16",
		latest:    "v1.3.17",
		backups:   map[install.Channel]string{},
	}
}

func (f *fakeInstaller) DetectInstalls(context.Context) ([]install.Installation, error) {
	return f.installs, nil
}

func (f *fakeInstaller) GetInstalls(context.Context) ([]install.Info, error) {
	var out []install.Info
	for _, inst := range f.installs {
		out = append(out, install.Info{Install: inst, Patched: f.patched[inst.Path]})
	}
	return out, nil
}

func (f *fakeInstaller) ResolveTarget(_ context.Context, target string) ([]install.Installation, error) {
	for _, inst := range f.installs {
		if inst.Path == target {
			return []install.Installation{inst}, nil
		}
		if c, err := install.ParseChannel(target); err == nil && c == inst.Channel {
			return []install.Installation{inst}, nil
		}
	}
	return nil, errors.New("no installation matches " + target)
}

func (f *fakeInstaller) IsInstallPatched(_ context.Context, inst install.Installation) (bool, error) {
	return f.patched[inst.Path], nil
}

func (f *fakeInstaller) PatchInstall(_ context.Context, inst install.Installation, override string) error {
	f.patchCalls++
	if len(f.patchErrs) > 0 {
		err := f.patchErrs[0]
		f.patchErrs = f.patchErrs[1:]
		if err != nil {
			return err
		}
	}
	f.overrides = append(f.overrides, override)
	f.patched[inst.Path] = true
	return nil
}

func (f *fakeInstaller) UnpatchInstall(_ context.Context, inst install.Installation) error {
	f.patched[inst.Path] = false
	return nil
}

func (f *fakeInstaller) GetMoonlightBranch() payload.Branch { return f.branch }

func (f *fakeInstaller) SetMoonlightBranch(_ context.Context, b payload.Branch) error {
	f.branch = b
	return nil
}

func (f *fakeInstaller) GetDownloadedMoonlight() (string, bool) { return f.installed, f.installed != "" }

func (f *fakeInstaller) GetLatestMoonlightVersion(context.Context, payload.Branch) (string, bool) {
	return f.latest, f.latest != ""
}

func (f *fakeInstaller) DownloadMoonlight(_ context.Context, b payload.Branch) error {
	f.downloads = append(f.downloads, b)
	f.installed = f.latest
	return nil
}

func (f *fakeInstaller) KillDiscord(_ context.Context, ch *install.Channel) error {
	f.killed = append(f.killed, ch)
	return nil
}

func (f *fakeInstaller) ResetConfig(ch install.Channel) (string, error) {
	return f.backups[ch], nil
}

func (f *fakeInstaller) Status(ctx context.Context) (backend.Status, error) {
	infos, _ := f.GetInstalls(ctx)
	return backend.Status{
		Payload:  payload.Snapshot{Branch: f.branch, Installed: f.installed, Latest: f.latest, NeedsUpdate: f.installed != f.latest},
		CanPatch: f.installed != "",
		Installs: infos,
	}, nil
}

type fakePrompter struct {
	selected  []string
	confirm   bool
	confirms  []string
	selectErr error
}

func (p *fakePrompter) MultiSelect(_ string, _ []terminal.Option, selected *[]string) error {
	*selected = p.selected
	return p.selectErr
}

func (p *fakePrompter) Confirm(title string, value *bool) error {
	p.confirms = append(p.confirms, title)
	*value = p.confirm
	return nil
}

type noNetworkSystem struct {
	paths.RealSystem

	dir string
}

func (s noNetworkSystem) LookupEnv(key string) (string, bool) {
	switch key {
	case payload.EnvNoNetwork:
		return "1", true
	case paths.EnvMoonlightDir:
		return s.dir, true
	}
	return "", false
}

// withFakes swaps the CLI seams for fakes and returns the installer.
func withFakes(t *testing.T, interactive bool, prompter *fakePrompter) *fakeInstaller {
	t.Helper()
	f := newFakeInstaller()
	origInstaller, origPrompter, origInteractive, origSpin, origSystem := newInstaller, newPrompter, isInteractive, spin, hostSystem
	t.Cleanup(func() {
		newInstaller, newPrompter, isInteractive, spin, hostSystem = origInstaller, origPrompter, origInteractive, origSpin, origSystem
	})
	newInstaller = func() installer { return f }
	newPrompter = func() terminal.Prompter { return prompter }
	isInteractive = func() bool { return interactive }
	spin = func(ctx context.Context, _ io.Writer, _ string, fn func(context.Context) error) error { return fn(ctx) }
	hostSystem = noNetworkSystem{dir: filepath.Join(t.TempDir(), "moonlight-mod")}
	return f
}

func run(t *testing.T, args ...string) (string, error) {
	t.Helper()
	var out, errOut bytes.Buffer
	err := execute(append([]string{"moonlight-installer"}, args...), &out, &errOut)
	return out.String(), err
}

func TestInstallsJSON(t *testing.T) {
	f := withFakes(t, false, &fakePrompter{})
	f.patched[stableInstall.Path] = true

	out, err := run(t, "installs", "--json")
	require.NoError(t, err)
	var infos []install.Info
	require.NoError(t, json.Unmarshal([]byte(out), &infos))
	require.Len(t, infos, 2)
	assert.True(t, infos[0].Patched)
	assert.Equal(t, canaryInstall, infos[1].Install)
}

func TestInstallsText(t *testing.T) {
	f := withFakes(t, false, &fakePrompter{})
	out, err := run(t, "--no-color", "installs")
	require.NoError(t, err)
	assert.Contains(t, out, "/share/DiscordCanary")

	f.installs = nil
	out, err = run(t, "installs")
	require.NoError(t, err)
	assert.Contains(t, out, "No Discord installations")
}

func TestPatchExplicitTarget(t *testing.T) {
	f := withFakes(t, false, &fakePrompter{})
	out, err := run(t, "patch", "canary", "--moonlight", "/src/moonlight")
	require.NoError(t, err)
	assert.Contains(t, out, "Patched")
	assert.True(t, f.patched[canaryInstall.Path])
	assert.False(t, f.patched[stableInstall.Path])
	assert.Equal(t, []string{"/src/moonlight"}, f.overrides)
}

func TestPatchAmbiguousWithoutTerminal(t *testing.T) {
	withFakes(t, false, &fakePrompter{})
	_, err := run(t, "patch")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "multiple")
}

func TestPatchAllWithYes(t *testing.T) {
	f := withFakes(t, false, &fakePrompter{})
	_, err := run(t, "patch", "--yes")
	require.NoError(t, err)
	assert.True(t, f.patched[stableInstall.Path])
	assert.True(t, f.patched[canaryInstall.Path])
}

func TestPatchInteractiveSelection(t *testing.T) {
	p := &fakePrompter{selected: []string{stableInstall.Path}}
	f := withFakes(t, true, p)
	_, err := run(t, "patch")
	require.NoError(t, err)
	assert.True(t, f.patched[stableInstall.Path])
	assert.False(t, f.patched[canaryInstall.Path])

	p.selected = nil
	_, err = run(t, "patch")
	assert.Error(t, err)
}

func TestPatchKillAndRetryOnFileLock(t *testing.T) {
	p := &fakePrompter{confirm: true}
	f := withFakes(t, true, p)
	f.patchErrs = []error{moonerr.New(moonerr.CodeWindowsFileLock, "app.asar is in use")}

	_, err := run(t, "patch", "stable")
	require.NoError(t, err)
	assert.Equal(t, 2, f.patchCalls)
	require.Len(t, f.killed, 1)
	assert.Equal(t, install.ChannelStable, *f.killed[0])
	assert.Len(t, p.confirms, 1)
}

func TestPatchFileLockDeclined(t *testing.T) {
	p := &fakePrompter{confirm: false}
	f := withFakes(t, true, p)
	f.patchErrs = []error{moonerr.New(moonerr.CodeWindowsFileLock, "app.asar is in use")}

	_, err := run(t, "patch", "stable")
	require.Error(t, err)
	assert.True(t, moonerr.Is(err, moonerr.CodeWindowsFileLock))
	assert.Empty(t, f.killed)
	assert.Equal(t, 1, f.patchCalls)
}

func TestPatchOffersDownloadWhenMissing(t *testing.T) {
	p := &fakePrompter{confirm: true}
	f := withFakes(t, true, p)
	f.installed = ""

	_, err := run(t, "patch", "stable")
	require.NoError(t, err)
	assert.Equal(t, []payload.Branch{payload.BranchStable}, f.downloads)
	assert.True(t, f.patched[stableInstall.Path])
}

func TestPatchNoPayloadHint(t *testing.T) {
	f := withFakes(t, false, &fakePrompter{})
	f.installed = ""
	f.patchErrs = []error{patch.ErrNoPayload}

	_, err := run(t, "patch", "stable")
	require.Error(t, err)
	assert.ErrorIs(t, err, patch.ErrNoPayload)
	assert.Contains(t, err.Error(), "update")
}

func TestUnpatch(t *testing.T) {
	f := withFakes(t, false, &fakePrompter{})
	f.patched[stableInstall.Path] = true
	_, err := run(t, "unpatch", "/share/Discord")
	require.NoError(t, err)
	assert.False(t, f.patched[stableInstall.Path])
}

// hostLinuxSystem keeps detection and the config dir inside root.
type hostLinuxSystem struct {
	install.RealSystem

	root string
}

func (s hostLinuxSystem) GOOS() string { return "linux" }

func (s hostLinuxSystem) LookupEnv(key string) (string, bool) {
	switch key {
	case payload.EnvNoNetwork:
		return "1", true
	case "XDG_CONFIG_HOME":
		return filepath.Join(s.root, "config"), true
	case install.EnvDiscordShareLinux:
		return filepath.Join(s.root, "share"), true
	}
	return "", false
}

func (s hostLinuxSystem) HomeDir() (string, error) { return filepath.Join(s.root, "home"), nil }

type stableStore struct{}

func (stableStore) LoadBranch() (payload.Branch, error) { return payload.BranchStable, nil }
func (stableStore) SaveBranch(payload.Branch) error     { return nil }

func TestUnpatchPathOutsideDetectedRoots(t *testing.T) {
	withFakes(t, false, &fakePrompter{})
	root := t.TempDir()
	newInstaller = func() installer {
		return backend.New(backend.Options{Sys: hostLinuxSystem{root: root}, Store: stableStore{}})
	}

	// A patched portable install: the archive is moved aside and the shim is in place.
	resources := filepath.Join(root, "opt", "DiscordCanary", "resources")
	require.NoError(t, os.MkdirAll(filepath.Join(resources, "app"), 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(resources, "app", "index.js"), []byte("require()"), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(resources, install.PatchedArchiveName), []byte("asar"), 0o644))

	out, err := run(t, "unpatch", filepath.Join(root, "opt", "DiscordCanary"))
	require.NoError(t, err)
	assert.Contains(t, out, "Unpatched")
	assert.FileExists(t, filepath.Join(resources, install.ArchiveName))
	assert.NoDirExists(t, filepath.Join(resources, "app"))

	_, err = run(t, "unpatch", filepath.Join(root, "opt"))
	assert.Error(t, err, "a directory without the host archive is rejected")
}

func TestBranchCommand(t *testing.T) {
	f := withFakes(t, false, &fakePrompter{})
	out, err := run(t, "branch")
	require.NoError(t, err)
	assert.Contains(t, out, "Stable")

	out, err = run(t, "branch", "nightly")
	require.NoError(t, err)
	assert.Equal(t, payload.BranchNightly, f.branch)
	assert.Contains(t, out, "Nightly")

	_, err = run(t, "branch", "beta")
	assert.Error(t, err)
}

func TestStatusJSON(t *testing.T) {
	withFakes(t, false, &fakePrompter{})
	out, err := run(t, "status", "--json")
	require.NoError(t, err)
	var st backend.Status
	require.NoError(t, json.Unmarshal([]byte(out), &st))
	assert.True(t, st.Payload.NeedsUpdate)
	assert.Equal(t, "v1.3.17", st.Payload.Latest)
	assert.Len(t, st.Installs, 2)
}

func TestStatusText(t *testing.T) {
	withFakes(t, false, &fakePrompter{})
	out, err := run(t, "--no-color", "status")
	require.NoError(t, err)
	assert.Contains(t, out, "v1.3.16")
	assert.Contains(t, out, "update available")
}

func TestUpdateCommand(t *testing.T) {
	f := withFakes(t, false, &fakePrompter{})
	out, err := run(t, "update", "--branch", "nightly")
	require.NoError(t, err)
	assert.Equal(t, []payload.Branch{payload.BranchNightly}, f.downloads)
	assert.Equal(t, payload.BranchStable, f.branch)
	assert.Contains(t, out, "v1.3.17")

	_, err = run(t, "update", "--branch", "beta")
	assert.Error(t, err)
}

func TestKillAndResetConfigCommands(t *testing.T) {
	f := withFakes(t, false, &fakePrompter{})
	_, err := run(t, "kill")
	require.NoError(t, err)
	_, err = run(t, "kill", "ptb")
	require.NoError(t, err)
	require.Len(t, f.killed, 2)
	assert.Nil(t, f.killed[0])
	assert.Equal(t, install.ChannelPTB, *f.killed[1])

	out, err := run(t, "reset-config", "canary")
	require.NoError(t, err)
	assert.Contains(t, out, "nothing to reset")

	f.backups[install.ChannelCanary] = "/config/canary-backup-1.json"
	out, err = run(t, "reset-config", "canary")
	require.NoError(t, err)
	assert.Contains(t, out, "/config/canary-backup-1.json")

	_, err = run(t, "reset-config")
	assert.Error(t, err)
}

func TestDoctorReportsMissingPayload(t *testing.T) {
	withFakes(t, false, &fakePrompter{})
	origPath := doctorSettingsPath
	t.Cleanup(func() { doctorSettingsPath = origPath })
	doctorSettingsPath = func() string { return filepath.Join(t.TempDir(), "settings.toml") }

	out, err := run(t, "--no-color", "doctor")
	require.Error(t, err)
	assert.Contains(t, out, "[FAIL]")
	assert.Contains(t, out, "/share/Discord")
}

func TestServeRunsServer(t *testing.T) {
	f := withFakes(t, false, &fakePrompter{})
	orig := runMCPServer
	t.Cleanup(func() { runMCPServer = orig })

	var got installer
	runMCPServer = func(_ context.Context, version string, cmds mcpserver.Commands) error {
		got = cmds.(installer)
		assert.Equal(t, Version, version)
		return nil
	}
	_, err := run(t, "serve")
	require.NoError(t, err)
	assert.Same(t, f, got)
}
