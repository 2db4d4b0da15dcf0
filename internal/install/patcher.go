package install

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"

	"go.uber.org/multierr"

	"github.com/moonlight-mod/moonlight-installer/internal/injector"
	"github.com/moonlight-mod/moonlight-installer/internal/logging"
	"github.com/moonlight-mod/moonlight-installer/internal/messages"
	"github.com/moonlight-mod/moonlight-installer/internal/paths"
)

// Patcher applies and removes the moonlight patch on disk. It holds no
// per-installation state; serialization is the caller's job.
type Patcher struct {
	Sys    System
	Loader injector.Loader
}

// NewPatcher returns a Patcher using the real filesystem and the default
// injector loader.
func NewPatcher() *Patcher {
	sys := RealSystem{}
	return &Patcher{Sys: sys, Loader: injector.DefaultLoader{Sys: sys}}
}

// Patch moves the host archive aside and bootstraps the injector against it.
// Nothing is touched when no injector can be resolved. A failed bootstrap is
// rolled back so the installation stays unpatched.
func (p *Patcher) Patch(ctx context.Context, inst Installation, override string) error {
	if p == nil || p.Sys == nil {
		return errors.New(messages.InstallSystemRequired)
	}
	if _, err := paths.ResolveInjector(p.Sys, override); err != nil {
		return err
	}

	appDir := AppDir(inst)
	archive := filepath.Join(appDir, ArchiveName)
	patched := filepath.Join(appDir, PatchedArchiveName)
	shimDir := filepath.Join(appDir, injector.ShimDirName)

	if err := p.clearStale(inst, archive, patched, shimDir); err != nil {
		return err
	}
	shimExisted, err := exists(p.Sys, shimDir)
	if err != nil {
		return err
	}
	if err := p.Sys.Rename(archive, patched); err != nil {
		return fmt.Errorf(messages.InstallRenameArchiveFmt, archive, err)
	}

	if err := injector.Bootstrap(ctx, p.Sys, p.Loader, patched, override); err != nil {
		return multierr.Append(err, p.rollback(archive, patched, shimDir, shimExisted))
	}

	if inst.IsFlatpak() {
		if _, err := EnsureFlatpakOverrides(p.Sys, inst.FlatpakID); err != nil {
			return err
		}
	}
	log := logging.GetLogger("install")
	log.Info().Str("channel", string(inst.Channel)).Str("path", inst.Path).Msg(messages.InstallPatchedLog)
	return nil
}

func (p *Patcher) rollback(archive, patched, shimDir string, shimExisted bool) error {
	var err error
	if !shimExisted {
		if rmErr := p.Sys.RemoveAll(shimDir); rmErr != nil {
			err = multierr.Append(err, fmt.Errorf(messages.InstallRemoveShimFmt, shimDir, rmErr))
		}
	}
	if mvErr := p.Sys.Rename(patched, archive); mvErr != nil {
		err = multierr.Append(err, fmt.Errorf(messages.InstallRestoreArchiveFmt, archive, mvErr))
	}
	return err
}

// Unpatch restores the original archive and removes the shim directory. When
// the host has written a fresh archive since the patch, that archive is kept
// and only the stale leftovers are removed.
func (p *Patcher) Unpatch(_ context.Context, inst Installation) error {
	if p == nil || p.Sys == nil {
		return errors.New(messages.InstallSystemRequired)
	}
	appDir := AppDir(inst)
	archive := filepath.Join(appDir, ArchiveName)
	patched := filepath.Join(appDir, PatchedArchiveName)
	shimDir := filepath.Join(appDir, injector.ShimDirName)

	hasArchive, err := exists(p.Sys, archive)
	if err != nil {
		return err
	}
	if hasArchive {
		return p.clearStale(inst, archive, patched, shimDir)
	}

	if err := p.Sys.Rename(patched, archive); err != nil {
		return fmt.Errorf(messages.InstallRestoreArchiveFmt, archive, err)
	}
	if err := p.Sys.RemoveAll(shimDir); err != nil {
		return fmt.Errorf(messages.InstallRemoveShimFmt, shimDir, err)
	}
	log := logging.GetLogger("install")
	log.Info().Str("channel", string(inst.Channel)).Str("path", inst.Path).Msg(messages.InstallUnpatchedLog)
	return nil
}

// clearStale removes the renamed archive and shim left by an earlier patch
// once the host has put a fresh archive back. Without both archives present
// nothing is stale and nothing is touched.
func (p *Patcher) clearStale(inst Installation, archive, patched, shimDir string) error {
	hasArchive, err := exists(p.Sys, archive)
	if err != nil || !hasArchive {
		return err
	}
	hasPatched, err := exists(p.Sys, patched)
	if err != nil || !hasPatched {
		return err
	}
	if err := p.Sys.RemoveAll(shimDir); err != nil {
		return fmt.Errorf(messages.InstallRemoveShimFmt, shimDir, err)
	}
	if err := p.Sys.RemoveAll(patched); err != nil {
		return fmt.Errorf(messages.InstallRemoveStaleFmt, patched, err)
	}
	log := logging.GetLogger("install")
	log.Info().Str("channel", string(inst.Channel)).Str("path", inst.Path).Msg(messages.InstallStaleClearedLog)
	return nil
}

// IsPatched reports the on-disk patch state of inst.
func (p *Patcher) IsPatched(inst Installation) (bool, error) {
	return IsPatched(p.Sys, inst)
}
