// Package backend is the command boundary consumed by the CLI and the MCP
// server. Each method maps to one installer command.
package backend

import (
	"context"
	"strings"
	"time"

	"github.com/moonlight-mod/moonlight-installer/internal/events"
	"github.com/moonlight-mod/moonlight-installer/internal/injector"
	"github.com/moonlight-mod/moonlight-installer/internal/install"
	"github.com/moonlight-mod/moonlight-installer/internal/logging"
	"github.com/moonlight-mod/moonlight-installer/internal/messages"
	"github.com/moonlight-mod/moonlight-installer/internal/patch"
	"github.com/moonlight-mod/moonlight-installer/internal/payload"
	"github.com/moonlight-mod/moonlight-installer/internal/process"
	"github.com/moonlight-mod/moonlight-installer/internal/settings"
)

// OverrideSource supplies the configured injector override.
type OverrideSource interface {
	InjectorOverride() string
}

// Options wires a Backend. Nil fields get process defaults.
type Options struct {
	Sys       install.System
	Source    payload.Source
	Fetcher   payload.Fetcher
	Store     payload.BranchStore
	Overrides OverrideSource
	Patcher   patch.Patcher
	Bus       *events.Bus
	Now       func() time.Time
	Kill      func(ctx context.Context, channel *install.Channel) (int, error)
}

// Backend holds the long-lived state shared by every command.
type Backend struct {
	sys       install.System
	bus       *events.Bus
	payload   *payload.Manager
	patches   *patch.Manager
	overrides OverrideSource
	now       func() time.Time
	kill      func(ctx context.Context, channel *install.Channel) (int, error)
}

// New builds a Backend and loads the installed payload version from disk.
func New(opts Options) *Backend {
	if opts.Sys == nil {
		opts.Sys = install.RealSystem{}
	}
	if opts.Bus == nil {
		opts.Bus = events.NewBus()
	}
	if opts.Store == nil {
		opts.Store = settings.NewStore()
	}
	if opts.Overrides == nil {
		if store, ok := opts.Store.(OverrideSource); ok {
			opts.Overrides = store
		}
	}
	if opts.Patcher == nil {
		opts.Patcher = &install.Patcher{Sys: opts.Sys, Loader: injector.DefaultLoader{Sys: opts.Sys}}
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	if opts.Kill == nil {
		opts.Kill = process.KillDiscord
	}

	pm := payload.NewManager(payload.Options{
		Sys:     opts.Sys,
		Source:  opts.Source,
		Fetcher: opts.Fetcher,
		Store:   opts.Store,
		Events:  opts.Bus,
	})
	b := &Backend{
		sys:       opts.Sys,
		bus:       opts.Bus,
		payload:   pm,
		patches:   patch.NewManager(opts.Patcher, pm, opts.Bus),
		overrides: opts.Overrides,
		now:       opts.Now,
		kill:      opts.Kill,
	}
	if _, err := pm.ReloadInstalled(); err != nil {
		log := logging.GetLogger("backend")
		log.Warn().Err(err).Msg(messages.BackendReadInstalledLog)
	}
	return b
}

// Subscribe registers an event handler and returns its cancel function.
func (b *Backend) Subscribe(fn func(events.Event)) func() {
	return b.bus.Subscribe(fn)
}

// DetectInstalls enumerates host installations.
func (b *Backend) DetectInstalls(_ context.Context) ([]install.Installation, error) {
	return install.Detect(b.sys)
}

// GetInstalls enumerates installations with their patch and config state.
func (b *Backend) GetInstalls(_ context.Context) ([]install.Info, error) {
	return install.List(b.sys)
}

// IsInstallPatched reports the on-disk patch state.
func (b *Backend) IsInstallPatched(_ context.Context, inst install.Installation) (bool, error) {
	return install.IsPatched(b.sys, inst)
}

// CanPatch reports whether a payload is installed.
func (b *Backend) CanPatch() bool {
	return b.patches.CanPatch()
}

// PatchInstall patches inst. Rejections come back as sentinel errors from
// package patch; mutation failures as *moonerr.Error, after an error event.
func (b *Backend) PatchInstall(ctx context.Context, inst install.Installation, override string) error {
	if strings.TrimSpace(override) == "" && b.overrides != nil {
		override = b.overrides.InjectorOverride()
	}
	res, err := b.patches.Patch(ctx, inst, override)
	if err != nil {
		return err
	}
	if res.Err != nil {
		return res.Err
	}
	return nil
}

// UnpatchInstall unpatches inst.
func (b *Backend) UnpatchInstall(ctx context.Context, inst install.Installation) error {
	res, err := b.patches.Unpatch(ctx, inst)
	if err != nil {
		return err
	}
	if res.Err != nil {
		return res.Err
	}
	return nil
}

// GetMoonlightBranch returns the selected payload branch.
func (b *Backend) GetMoonlightBranch() payload.Branch {
	return b.payload.Branch()
}

// SetMoonlightBranch persists and selects branch, then refreshes versions.
func (b *Backend) SetMoonlightBranch(ctx context.Context, branch payload.Branch) error {
	return b.payload.SetBranch(ctx, branch)
}

// GetDownloadedMoonlight returns the installed payload version, re-read from
// disk, and whether one is present.
func (b *Backend) GetDownloadedMoonlight() (string, bool) {
	v, err := b.payload.ReloadInstalled()
	if err != nil {
		log := logging.GetLogger("backend")
		log.Warn().Err(err).Msg(messages.BackendReadInstalledLog)
	}
	return v, v != ""
}

// GetLatestMoonlightVersion fetches the latest version on branch. Lookup
// failures are logged and reported as absent.
func (b *Backend) GetLatestMoonlightVersion(ctx context.Context, branch payload.Branch) (string, bool) {
	v, err := b.payload.LatestFor(ctx, branch)
	if err != nil {
		log := logging.GetLogger("backend")
		log.Warn().Err(err).Str("branch", string(branch)).Msg(messages.BackendLatestLookupLog)
		return "", false
	}
	return v, v != ""
}

// DownloadMoonlight downloads and installs the payload for branch.
func (b *Backend) DownloadMoonlight(ctx context.Context, branch payload.Branch) error {
	return b.payload.Download(ctx, branch)
}

// Refresh re-reads the installed version and fetches the latest one for the
// selected branch.
func (b *Backend) Refresh(ctx context.Context) error {
	return b.payload.Refresh(ctx)
}

// Payload returns the current branch and versions.
func (b *Backend) Payload() payload.Snapshot {
	return b.payload.Snapshot()
}

// KillDiscord kills the host processes of channel, or of every channel when
// channel is nil.
func (b *Backend) KillDiscord(ctx context.Context, channel *install.Channel) error {
	n, err := b.kill(ctx, channel)
	log := logging.GetLogger("backend")
	log.Info().Int("killed", n).Msg(messages.BackendKilledLog)
	return err
}

// ResetConfig backs up the channel's moonlight config and returns the backup
// path, or "" when there was nothing to back up.
func (b *Backend) ResetConfig(channel install.Channel) (string, error) {
	return install.ResetConfig(b.sys, channel, b.now())
}

// Status is the combined view rendered by status surfaces.
type Status struct {
	Payload  payload.Snapshot `json:"payload"`
	CanPatch bool             `json:"can_patch"`
	Installs []install.Info   `json:"installs"`
}

// Status refreshes versions and enumerates installations. A failed version
// refresh is not fatal; the affected versions read as absent.
func (b *Backend) Status(ctx context.Context) (Status, error) {
	if err := b.payload.Refresh(ctx); err != nil {
		log := logging.GetLogger("backend")
		log.Warn().Err(err).Msg(messages.BackendRefreshLog)
	}
	infos, err := b.GetInstalls(ctx)
	if err != nil {
		return Status{}, err
	}
	return Status{Payload: b.payload.Snapshot(), CanPatch: b.CanPatch(), Installs: infos}, nil
}
