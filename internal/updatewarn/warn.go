// Package updatewarn prints a best-effort notice when a newer moonlight
// payload is available for the selected branch.
package updatewarn

import (
	"context"
	"io"

	"github.com/fatih/color"

	"github.com/moonlight-mod/moonlight-installer/internal/messages"
	"github.com/moonlight-mod/moonlight-installer/internal/paths"
	"github.com/moonlight-mod/moonlight-installer/internal/payload"
)

// LatestVersion is a seam for tests.
var LatestVersion = payload.GitHubSource{}.Latest

// InstalledVersion is a seam for tests.
var InstalledVersion = payload.InstalledVersion

// WarnIfOutdated writes a payload update notice to stderr when the installed
// payload differs from the latest on branch. It never returns an error.
func WarnIfOutdated(ctx context.Context, sys paths.System, branch payload.Branch, stderr io.Writer) {
	if sys == nil || payload.NoNetwork(sys) {
		return
	}
	if stderr == nil {
		stderr = io.Discard
	}

	warnColor := color.New(color.FgYellow)
	installed, err := InstalledVersion(sys)
	if err != nil {
		_, _ = warnColor.Fprintf(stderr, messages.UpdateWarnCheckFailedFmt, err)
		return
	}
	latest, err := LatestVersion(ctx, branch)
	if err != nil {
		if payload.IsRateLimitError(err) {
			return
		}
		_, _ = warnColor.Fprintf(stderr, messages.UpdateWarnCheckFailedFmt, err)
		return
	}
	if !payload.NeedsUpdate(installed, latest) {
		return
	}
	if installed == "" {
		_, _ = warnColor.Fprintf(stderr, messages.UpdateWarnNotDownloadedFmt, branch.Name(), latest)
		return
	}
	_, _ = warnColor.Fprintf(stderr, messages.UpdateWarnAvailableFmt, branch.Name(), latest, installed)
}
