package payload

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/moonlight-mod/moonlight-installer/internal/events"
	"github.com/moonlight-mod/moonlight-installer/internal/moonerr"
)

type fakeSource struct {
	mu     sync.Mutex
	latest map[Branch]string
	err    error
}

func (f *fakeSource) Latest(_ context.Context, b Branch) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.latest[b], f.err
}

func (f *fakeSource) Artifact(ctx context.Context, b Branch) (string, string, error) {
	v, err := f.Latest(ctx, b)
	return "unused", v, err
}

// writingFetcher simulates a download by writing the version file.
type writingFetcher struct {
	dir     string
	version string
	err     error
	started chan struct{}
	release chan struct{}
}

func (f *writingFetcher) Download(context.Context, Branch) (string, error) {
	if f.started != nil {
		close(f.started)
		<-f.release
	}
	if f.err != nil {
		return "", f.err
	}
	if err := os.MkdirAll(f.dir, 0o755); err != nil {
		return "", err
	}
	return f.version, os.WriteFile(filepath.Join(f.dir, InstalledVersionFile), []byte(f.version+"\n"), 0o644)
}

type memoryStore struct {
	branch  Branch
	saveErr error
	loadErr error
}

func (s *memoryStore) LoadBranch() (Branch, error) { return s.branch, s.loadErr }

func (s *memoryStore) SaveBranch(b Branch) error {
	if s.saveErr != nil {
		return s.saveErr
	}
	s.branch = b
	return nil
}

func TestManagerLoadsPersistedBranch(t *testing.T) {
	sys, _ := newTestSystem(t)
	m := NewManager(Options{Sys: sys, Source: &fakeSource{}, Store: &memoryStore{branch: BranchNightly}})
	assert.Equal(t, BranchNightly, m.Branch())

	m = NewManager(Options{Sys: sys, Source: &fakeSource{}, Store: &memoryStore{loadErr: errors.New("corrupt")}})
	assert.Equal(t, BranchStable, m.Branch())
}

func TestManagerRefresh(t *testing.T) {
	sys, dir := newTestSystem(t)
	require.NoError(t, os.MkdirAll(dir, 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(dir, InstalledVersionFile), []byte("v1.0.0"), 0o644))
	rec := &events.Recorder{}
	m := NewManager(Options{Sys: sys, Source: &fakeSource{latest: map[Branch]string{BranchStable: "v1.1.0"}}, Events: rec})

	require.NoError(t, m.Refresh(context.Background()))
	assert.Equal(t, Snapshot{Branch: BranchStable, Installed: "v1.0.0", Latest: "v1.1.0", NeedsUpdate: true}, m.Snapshot())
	assert.Equal(t, []events.Event{events.InstalledVersionChanged("v1.0.0")}, rec.Events())

	require.NoError(t, m.Refresh(context.Background()))
	assert.Len(t, rec.Events(), 1, "unchanged installed version emits nothing")
}

func TestManagerRefreshFailureMakesLatestAbsent(t *testing.T) {
	sys, _ := newTestSystem(t)
	src := &fakeSource{latest: map[Branch]string{BranchStable: "v1.1.0"}}
	m := NewManager(Options{Sys: sys, Source: src})
	require.NoError(t, m.Refresh(context.Background()))
	require.Equal(t, "v1.1.0", m.LatestVersion())

	src.err = errors.New("offline")
	err := m.Refresh(context.Background())
	require.Error(t, err)
	assert.Empty(t, m.LatestVersion())
	assert.False(t, m.NeedsUpdate(), "absent equals absent")
}

func TestManagerNoNetworkLeavesLatestAbsent(t *testing.T) {
	sys, _ := newTestSystem(t)
	sys.env[EnvNoNetwork] = "1"
	m := NewManager(Options{Sys: sys, Source: &fakeSource{err: errors.New("must not be called")}})
	require.NoError(t, m.Refresh(context.Background()))
	assert.Empty(t, m.LatestVersion())
}

func TestManagerSetBranchPersistsAndRefreshes(t *testing.T) {
	sys, _ := newTestSystem(t)
	store := &memoryStore{}
	src := &fakeSource{latest: map[Branch]string{BranchStable: "v1.1.0", BranchNightly: "abc1234"}}
	m := NewManager(Options{Sys: sys, Source: src, Store: store})

	require.NoError(t, m.SetBranch(context.Background(), BranchNightly))
	assert.Equal(t, BranchNightly, store.branch)
	assert.Equal(t, BranchNightly, m.Branch())
	assert.Equal(t, "abc1234", m.LatestVersion())
	assert.Equal(t, KindCommit, KindOf(m.LatestVersion()))

	assert.Error(t, m.SetBranch(context.Background(), Branch("beta")))

	store.saveErr = errors.New("read-only")
	assert.Error(t, m.SetBranch(context.Background(), BranchStable))
	assert.Equal(t, BranchNightly, m.Branch(), "branch changes only after it is persisted")
}

func TestManagerDownloadRederivesInstalledVersion(t *testing.T) {
	sys, dir := newTestSystem(t)
	rec := &events.Recorder{}
	src := &fakeSource{latest: map[Branch]string{BranchStable: "v2.0.0"}}
	m := NewManager(Options{Sys: sys, Source: src, Events: rec, Fetcher: &writingFetcher{dir: dir, version: "v1.9.0"}})
	require.NoError(t, m.Refresh(context.Background()))

	require.NoError(t, m.Download(context.Background(), BranchStable))
	assert.Equal(t, "v1.9.0", m.InstalledVersion(), "installed comes from disk, not from latest")
	assert.True(t, m.NeedsUpdate())
	assert.Equal(t, []events.Event{events.InstalledVersionChanged("v1.9.0")}, rec.Events())
}

func TestManagerDownloadRefreshesLatestVersion(t *testing.T) {
	sys, dir := newTestSystem(t)
	src := &fakeSource{latest: map[Branch]string{BranchStable: "v1.0.0"}}
	m := NewManager(Options{Sys: sys, Source: src, Fetcher: &writingFetcher{dir: dir, version: "v1.1.0"}})
	require.NoError(t, m.Refresh(context.Background()))
	require.Equal(t, "v1.0.0", m.LatestVersion())

	src.mu.Lock()
	src.latest[BranchStable] = "v1.1.0"
	src.mu.Unlock()
	require.NoError(t, m.Download(context.Background(), BranchStable))
	assert.Equal(t, Snapshot{Branch: BranchStable, Installed: "v1.1.0", Latest: "v1.1.0"}, m.Snapshot())
}

func TestManagerDownloadSucceedsWhenLatestLookupFails(t *testing.T) {
	sys, dir := newTestSystem(t)
	src := &fakeSource{latest: map[Branch]string{BranchStable: "v1.1.0"}}
	m := NewManager(Options{Sys: sys, Source: src, Fetcher: &writingFetcher{dir: dir, version: "v1.1.0"}})
	require.NoError(t, m.Refresh(context.Background()))

	src.mu.Lock()
	src.err = errors.New("offline")
	src.mu.Unlock()
	require.NoError(t, m.Download(context.Background(), BranchStable))
	assert.Equal(t, "v1.1.0", m.InstalledVersion())
	assert.Empty(t, m.LatestVersion(), "a failed lookup leaves latest absent")
}

func TestManagerDownloadFailureEmitsError(t *testing.T) {
	sys, dir := newTestSystem(t)
	rec := &events.Recorder{}
	m := NewManager(Options{Sys: sys, Source: &fakeSource{}, Events: rec, Fetcher: &writingFetcher{dir: dir, err: errors.New("connection reset")}})

	err := m.Download(context.Background(), BranchStable)
	require.Error(t, err)
	var classified *moonerr.Error
	require.ErrorAs(t, err, &classified)
	assert.Equal(t, moonerr.CodeUnknown, classified.Code)

	evs := rec.Events()
	require.Len(t, evs, 1)
	assert.Equal(t, events.KindError, evs[0].Kind)
	assert.Empty(t, m.InstalledVersion())
}

func TestManagerRejectsConcurrentDownload(t *testing.T) {
	sys, dir := newTestSystem(t)
	fetcher := &writingFetcher{dir: dir, version: "v1.0.0", started: make(chan struct{}), release: make(chan struct{})}
	m := NewManager(Options{Sys: sys, Source: &fakeSource{}, Fetcher: fetcher})

	done := make(chan error, 1)
	go func() { done <- m.Download(context.Background(), BranchStable) }()
	<-fetcher.started

	assert.ErrorIs(t, m.Download(context.Background(), BranchStable), ErrDownloadInProgress)
	assert.False(t, m.Guard().TryRLock(), "patch operations are excluded during a download")

	close(fetcher.release)
	require.NoError(t, <-done)
	require.True(t, m.Guard().TryRLock())
	m.Guard().RUnlock()
}

func TestManagerDownloadRejectedWhilePatchHoldsGuard(t *testing.T) {
	sys, dir := newTestSystem(t)
	m := NewManager(Options{Sys: sys, Source: &fakeSource{}, Fetcher: &writingFetcher{dir: dir, version: "v1.0.0"}})

	require.True(t, m.Guard().TryRLock())
	assert.ErrorIs(t, m.Download(context.Background(), BranchStable), ErrDownloadInProgress)
	m.Guard().RUnlock()
	assert.NoError(t, m.Download(context.Background(), BranchStable))
}

func TestManagerReloadInstalled(t *testing.T) {
	sys, dir := newTestSystem(t)
	rec := &events.Recorder{}
	m := NewManager(Options{Sys: sys, Source: &fakeSource{}, Events: rec})

	v, err := m.ReloadInstalled()
	require.NoError(t, err)
	assert.Empty(t, v)
	assert.Empty(t, rec.Events())

	require.NoError(t, os.MkdirAll(dir, 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(dir, InstalledVersionFile), []byte("abc1234"), 0o644))
	v, err = m.ReloadInstalled()
	require.NoError(t, err)
	assert.Equal(t, "abc1234", v)

	require.NoError(t, os.Remove(filepath.Join(dir, InstalledVersionFile)))
	_, err = m.ReloadInstalled()
	require.NoError(t, err)
	assert.Equal(t, []events.Event{
		events.InstalledVersionChanged("abc1234"),
		events.InstalledVersionChanged(""),
	}, rec.Events())
}
