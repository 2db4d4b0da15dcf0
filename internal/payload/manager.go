package payload

import (
	"context"
	"errors"
	"sync"

	"go.uber.org/multierr"
	"golang.org/x/sync/errgroup"

	"github.com/moonlight-mod/moonlight-installer/internal/events"
	"github.com/moonlight-mod/moonlight-installer/internal/logging"
	"github.com/moonlight-mod/moonlight-installer/internal/messages"
	"github.com/moonlight-mod/moonlight-installer/internal/moonerr"
	"github.com/moonlight-mod/moonlight-installer/internal/paths"
)

// ErrDownloadInProgress rejects a download while another one in this process
// holds the payload.
var ErrDownloadInProgress = errors.New(messages.PayloadDownloadInProgress)

// Guard arbitrates the payload directory between downloads, which replace it
// and take the exclusive side, and patch operations, which read it and take
// the shared side. Both sides only ever try; nobody waits.
type Guard struct {
	mu sync.RWMutex
}

// TryLock takes the exclusive side.
func (g *Guard) TryLock() bool { return g.mu.TryLock() }

// Unlock releases the exclusive side.
func (g *Guard) Unlock() { g.mu.Unlock() }

// TryRLock takes the shared side.
func (g *Guard) TryRLock() bool { return g.mu.TryRLock() }

// RUnlock releases the shared side.
func (g *Guard) RUnlock() { g.mu.RUnlock() }

// BranchStore persists the selected branch.
type BranchStore interface {
	LoadBranch() (Branch, error)
	SaveBranch(Branch) error
}

// Fetcher installs a payload for a branch and returns its version.
type Fetcher interface {
	Download(ctx context.Context, branch Branch) (string, error)
}

// Snapshot is a consistent view of the manager state.
type Snapshot struct {
	Branch      Branch `json:"branch"`
	Installed   string `json:"installed_version"`
	Latest      string `json:"latest_version"`
	NeedsUpdate bool   `json:"needs_update"`
}

// Options configures a Manager. Nil fields get process defaults.
type Options struct {
	Sys     paths.System
	Source  Source
	Fetcher Fetcher
	Store   BranchStore
	Events  events.Sink
	Guard   *Guard
}

// Manager owns the selected branch and both versions. The installed version
// is only ever derived from disk.
type Manager struct {
	sys     paths.System
	source  Source
	fetcher Fetcher
	store   BranchStore
	events  events.Sink
	guard   *Guard

	mu        sync.RWMutex
	branch    Branch
	installed string
	latest    string
}

// NewManager builds a Manager and loads the persisted branch. A store that
// cannot be read falls back to stable.
func NewManager(opts Options) *Manager {
	m := &Manager{
		sys:     opts.Sys,
		source:  opts.Source,
		fetcher: opts.Fetcher,
		store:   opts.Store,
		events:  opts.Events,
		guard:   opts.Guard,
		branch:  BranchStable,
	}
	if m.sys == nil {
		m.sys = paths.RealSystem{}
	}
	if m.source == nil {
		m.source = GitHubSource{}
	}
	if m.fetcher == nil {
		m.fetcher = &Downloader{Sys: m.sys, Source: m.source}
	}
	if m.events == nil {
		m.events = events.Discard
	}
	if m.guard == nil {
		m.guard = &Guard{}
	}
	if m.store != nil {
		if b, err := m.store.LoadBranch(); err == nil && b != "" {
			m.branch = b
		} else if err != nil {
			log := logging.GetLogger("payload")
			log.Warn().Err(err).Msg(messages.PayloadLoadBranchLog)
		}
	}
	return m
}

// Guard returns the payload guard shared with patch operations.
func (m *Manager) Guard() *Guard {
	return m.guard
}

// Branch returns the selected branch.
func (m *Manager) Branch() Branch {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.branch
}

// InstalledVersion returns the installed version from the last refresh.
func (m *Manager) InstalledVersion() string {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.installed
}

// LatestVersion returns the latest version from the last refresh.
func (m *Manager) LatestVersion() string {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.latest
}

// NeedsUpdate compares the installed and latest versions.
func (m *Manager) NeedsUpdate() bool {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return NeedsUpdate(m.installed, m.latest)
}

// Snapshot returns branch and versions read under one lock.
func (m *Manager) Snapshot() Snapshot {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return Snapshot{
		Branch:      m.branch,
		Installed:   m.installed,
		Latest:      m.latest,
		NeedsUpdate: NeedsUpdate(m.installed, m.latest),
	}
}

// SetBranch persists b, selects it and refreshes both versions.
func (m *Manager) SetBranch(ctx context.Context, b Branch) error {
	if _, err := ParseBranch(string(b)); err != nil {
		return err
	}
	if m.store != nil {
		if err := m.store.SaveBranch(b); err != nil {
			return err
		}
	}
	m.mu.Lock()
	m.branch = b
	m.mu.Unlock()
	return m.Refresh(ctx)
}

// Refresh re-reads the installed version and fetches the latest one
// concurrently. A side that fails becomes absent; both failures are returned
// together.
func (m *Manager) Refresh(ctx context.Context) error {
	installedErr, latestErr := m.refresh(ctx)
	return multierr.Combine(installedErr, latestErr)
}

func (m *Manager) refresh(ctx context.Context) (installedErr, latestErr error) {
	branch := m.Branch()

	var (
		installed, latest string
		g                 errgroup.Group
	)
	g.Go(func() error {
		installed, installedErr = InstalledVersion(m.sys)
		return nil
	})
	g.Go(func() error {
		latest, latestErr = m.LatestFor(ctx, branch)
		return nil
	})
	_ = g.Wait()

	if latestErr != nil {
		latest = ""
	}
	if installedErr != nil {
		installed = ""
	}

	m.mu.Lock()
	if m.branch == branch {
		m.latest = latest
	}
	m.mu.Unlock()
	m.setInstalled(installed)

	return installedErr, latestErr
}

// LatestFor fetches the latest version on branch without changing state.
// With networking disabled the answer is absent.
func (m *Manager) LatestFor(ctx context.Context, branch Branch) (string, error) {
	if NoNetwork(m.sys) {
		return "", nil
	}
	return m.source.Latest(ctx, branch)
}

// Download installs the latest payload for branch. Only one download runs
// per process and none runs while a patch operation holds the guard.
func (m *Manager) Download(ctx context.Context, branch Branch) error {
	if !m.guard.TryLock() {
		return ErrDownloadInProgress
	}
	defer m.guard.Unlock()

	log := logging.GetLogger("payload")
	version, err := m.fetcher.Download(ctx, branch)
	if err != nil {
		classified := moonerr.Classify(err)
		m.events.Emit(events.Error(classified))
		log.Error().Err(err).Str("branch", string(branch)).Msg(messages.PayloadDownloadFailedLog)
		return classified
	}
	log.Debug().Str("version", version).Msg(messages.PayloadDownloadedLog)

	// The payload is on disk; a failed latest lookup only leaves latest absent.
	installedErr, latestErr := m.refresh(ctx)
	if latestErr != nil {
		log.Warn().Err(latestErr).Msg(messages.PayloadRefreshAfterDownloadLog)
	}
	return installedErr
}

// ReloadInstalled re-reads the installed version from disk. An unreadable
// version file makes it absent.
func (m *Manager) ReloadInstalled() (string, error) {
	installed, err := InstalledVersion(m.sys)
	if err != nil {
		installed = ""
	}
	m.setInstalled(installed)
	return installed, err
}

func (m *Manager) setInstalled(v string) {
	m.mu.Lock()
	changed := m.installed != v
	m.installed = v
	m.mu.Unlock()
	if changed {
		m.events.Emit(events.InstalledVersionChanged(v))
	}
}
