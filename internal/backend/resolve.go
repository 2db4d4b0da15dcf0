package backend

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/moonlight-mod/moonlight-installer/internal/install"
	"github.com/moonlight-mod/moonlight-installer/internal/messages"
)

// ResolveTarget returns the installations matching target, which is either
// a channel name or an installation path. An empty target matches all. A path
// that matches no detected installation is accepted when it holds the host
// archive.
func (b *Backend) ResolveTarget(ctx context.Context, target string) ([]install.Installation, error) {
	installs, err := b.DetectInstalls(ctx)
	if err != nil {
		return nil, err
	}
	target = strings.TrimSpace(target)
	if target == "" {
		return installs, nil
	}

	if channel, err := install.ParseChannel(target); err == nil {
		var out []install.Installation
		for _, inst := range installs {
			if inst.Channel == channel {
				out = append(out, inst)
			}
		}
		if len(out) == 0 {
			return nil, fmt.Errorf(messages.BackendNoInstallForChannelFmt, channel)
		}
		return out, nil
	}

	path := target
	if abs, err := filepath.Abs(target); err == nil {
		path = abs
	}
	want := install.Installation{Path: path}.Key().Path
	for _, inst := range installs {
		if inst.Key().Path == want {
			return []install.Installation{inst}, nil
		}
	}

	// Portable and custom installs live outside the detected roots.
	inst, ok, err := install.InstallationAt(b.sys, path)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, fmt.Errorf(messages.BackendNoInstallForTargetFmt, target)
	}
	return []install.Installation{inst}, nil
}
