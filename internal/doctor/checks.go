// Package doctor runs read-only health checks over the moonlight payload,
// the detected host installations and the installer settings.
package doctor

import (
	"context"
	"errors"
	"fmt"
	"os"

	"github.com/moonlight-mod/moonlight-installer/internal/install"
	"github.com/moonlight-mod/moonlight-installer/internal/messages"
	"github.com/moonlight-mod/moonlight-installer/internal/paths"
	"github.com/moonlight-mod/moonlight-installer/internal/payload"
	"github.com/moonlight-mod/moonlight-installer/internal/settings"
)

// Status is the outcome of a single check.
type Status string

// Check outcomes.
const (
	StatusOK   Status = "OK"
	StatusWarn Status = "WARN"
	StatusFail Status = "FAIL"
)

// Result is one reported check line.
type Result struct {
	Status         Status
	CheckName      string
	Message        string
	Recommendation string
}

// CheckConfigDir verifies the moonlight config directory resolves and, when
// present, is a directory. A missing directory only warns since the first
// download creates it.
func CheckConfigDir(sys paths.System) Result {
	dir, err := paths.ConfigDir(sys)
	if err != nil {
		return Result{
			Status:         StatusFail,
			CheckName:      messages.DoctorCheckNameConfigDir,
			Message:        fmt.Sprintf(messages.DoctorConfigDirUnresolvedFmt, err),
			Recommendation: messages.DoctorConfigDirUnresolvedRecommend,
		}
	}
	info, err := sys.Stat(dir)
	switch {
	case errors.Is(err, os.ErrNotExist):
		return Result{
			Status:         StatusWarn,
			CheckName:      messages.DoctorCheckNameConfigDir,
			Message:        fmt.Sprintf(messages.DoctorConfigDirMissingFmt, dir),
			Recommendation: messages.DoctorDownloadRecommend,
		}
	case err != nil:
		return Result{
			Status:    StatusFail,
			CheckName: messages.DoctorCheckNameConfigDir,
			Message:   fmt.Sprintf(messages.DoctorConfigDirUnresolvedFmt, err),
		}
	case !info.IsDir():
		return Result{
			Status:         StatusFail,
			CheckName:      messages.DoctorCheckNameConfigDir,
			Message:        fmt.Sprintf(messages.DoctorConfigDirNotDirFmt, dir),
			Recommendation: messages.DoctorConfigDirNotDirRecommend,
		}
	}
	return Result{
		Status:    StatusOK,
		CheckName: messages.DoctorCheckNameConfigDir,
		Message:   fmt.Sprintf(messages.DoctorConfigDirOKFmt, dir),
	}
}

// CheckPayload verifies a payload version is recorded and an injector can be
// resolved with the given override.
func CheckPayload(sys paths.System, override string) []Result {
	var results []Result
	version, err := payload.InstalledVersion(sys)
	switch {
	case err != nil:
		results = append(results, Result{
			Status:    StatusFail,
			CheckName: messages.DoctorCheckNamePayload,
			Message:   fmt.Sprintf(messages.DoctorPayloadReadFailedFmt, err),
		})
	case version == "":
		results = append(results, Result{
			Status:         StatusFail,
			CheckName:      messages.DoctorCheckNamePayload,
			Message:        messages.DoctorPayloadMissing,
			Recommendation: messages.DoctorDownloadRecommend,
		})
	default:
		results = append(results, Result{
			Status:    StatusOK,
			CheckName: messages.DoctorCheckNamePayload,
			Message:   fmt.Sprintf(messages.DoctorPayloadInstalledFmt, version, payload.KindOf(version)),
		})
	}

	loc, err := paths.ResolveInjector(sys, override)
	if err != nil {
		rec := ""
		if errors.Is(err, paths.ErrPayloadMissing) {
			rec = messages.DoctorDownloadRecommend
		}
		return append(results, Result{
			Status:         StatusFail,
			CheckName:      messages.DoctorCheckNameInjector,
			Message:        fmt.Sprintf(messages.DoctorInjectorMissingFmt, err),
			Recommendation: rec,
		})
	}
	if override != "" && loc.Source != paths.SourceOverride {
		results = append(results, Result{
			Status:         StatusWarn,
			CheckName:      messages.DoctorCheckNameInjector,
			Message:        fmt.Sprintf(messages.DoctorOverrideIgnoredFmt, override, loc.Path),
			Recommendation: messages.DoctorOverrideIgnoredRecommend,
		})
		return results
	}
	return append(results, Result{
		Status:    StatusOK,
		CheckName: messages.DoctorCheckNameInjector,
		Message:   fmt.Sprintf(messages.DoctorInjectorResolvedFmt, loc.Path),
	})
}

// CheckInstalls reports each detected installation and its patch state.
func CheckInstalls(infos []install.Info, err error) []Result {
	if err != nil {
		return []Result{{
			Status:    StatusFail,
			CheckName: messages.DoctorCheckNameInstalls,
			Message:   fmt.Sprintf(messages.DoctorInstallsFailedFmt, err),
		}}
	}
	if len(infos) == 0 {
		return []Result{{
			Status:         StatusWarn,
			CheckName:      messages.DoctorCheckNameInstalls,
			Message:        messages.DoctorInstallsNone,
			Recommendation: messages.DoctorInstallsNoneRecommend,
		}}
	}
	results := make([]Result, 0, len(infos))
	for _, info := range infos {
		state := messages.DoctorInstallUnpatched
		if info.Patched {
			state = messages.DoctorInstallPatched
		}
		results = append(results, Result{
			Status:    StatusOK,
			CheckName: messages.DoctorCheckNameInstalls,
			Message:   fmt.Sprintf(messages.DoctorInstallFmt, info.Install, state),
		})
	}
	return results
}

// CheckUpdate compares the installed payload with the latest version on
// branch. Lookup failures only warn.
func CheckUpdate(ctx context.Context, sys paths.System, source payload.Source, branch payload.Branch, installed string) Result {
	res := Result{CheckName: messages.DoctorCheckNameUpdate}
	if payload.NoNetwork(sys) {
		res.Status = StatusWarn
		res.Message = fmt.Sprintf(messages.DoctorUpdateSkippedFmt, payload.EnvNoNetwork)
		return res
	}
	latest, err := source.Latest(ctx, branch)
	switch {
	case err != nil && payload.IsRateLimitError(err):
		res.Status = StatusWarn
		res.Message = messages.DoctorUpdateRateLimited
	case err != nil:
		res.Status = StatusWarn
		res.Message = fmt.Sprintf(messages.DoctorUpdateFailedFmt, err)
		res.Recommendation = messages.DoctorUpdateFailedRecommend
	case payload.NeedsUpdate(installed, latest):
		res.Status = StatusWarn
		res.Message = fmt.Sprintf(messages.DoctorUpdateAvailableFmt, branch.Name(), latest, displayVersion(installed))
		res.Recommendation = messages.DoctorDownloadRecommend
	default:
		res.Status = StatusOK
		res.Message = fmt.Sprintf(messages.DoctorUpToDateFmt, branch.Name(), installed)
	}
	return res
}

// CheckSettings verifies the settings file parses.
func CheckSettings(path string) Result {
	s, err := settings.Load(path)
	if err != nil {
		return Result{
			Status:         StatusFail,
			CheckName:      messages.DoctorCheckNameSettings,
			Message:        err.Error(),
			Recommendation: fmt.Sprintf(messages.DoctorSettingsRecommendFmt, path),
		}
	}
	return Result{
		Status:    StatusOK,
		CheckName: messages.DoctorCheckNameSettings,
		Message:   fmt.Sprintf(messages.DoctorSettingsOKFmt, s.Branch.Name()),
	}
}

// HasFailure reports whether any result failed.
func HasFailure(results []Result) bool {
	for _, r := range results {
		if r.Status == StatusFail {
			return true
		}
	}
	return false
}

func displayVersion(v string) string {
	if v == "" {
		return messages.DoctorVersionNone
	}
	return v
}
