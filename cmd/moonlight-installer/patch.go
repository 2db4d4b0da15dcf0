package main

import (
	"context"
	"errors"
	"fmt"
	"io"

	"github.com/spf13/cobra"
	"go.uber.org/multierr"

	"github.com/moonlight-mod/moonlight-installer/internal/install"
	"github.com/moonlight-mod/moonlight-installer/internal/messages"
	"github.com/moonlight-mod/moonlight-installer/internal/moonerr"
	"github.com/moonlight-mod/moonlight-installer/internal/patch"
	"github.com/moonlight-mod/moonlight-installer/internal/terminal"
	"github.com/moonlight-mod/moonlight-installer/internal/updatewarn"
)

func newPatchCmd(root *rootOptions) *cobra.Command {
	var (
		override string
		yes      bool
	)
	cmd := &cobra.Command{
		Use:   messages.PatchUse,
		Short: messages.PatchShort,
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			b := newInstaller()
			if !root.quiet {
				updatewarn.WarnIfOutdated(ctx, hostSystem, b.GetMoonlightBranch(), cmd.ErrOrStderr())
			}
			targets, err := selectInstalls(ctx, b, firstArg(args), yes, messages.PatchSelectTitle)
			if err != nil {
				return err
			}
			if _, ok := b.GetDownloadedMoonlight(); !ok && override == "" {
				if err := offerDownload(ctx, b, cmd.ErrOrStderr(), yes); err != nil {
					return err
				}
			}
			return forEachInstall(cmd.OutOrStdout(), targets, messages.PatchDoneFmt, func(inst install.Installation) error {
				return withKillRetry(ctx, b, inst, yes, func() error {
					return b.PatchInstall(ctx, inst, override)
				})
			})
		},
	}
	cmd.Flags().StringVar(&override, "moonlight", "", messages.FlagMoonlightUsage)
	cmd.Flags().BoolVarP(&yes, "yes", "y", false, messages.FlagYesUsage)
	return cmd
}

func newUnpatchCmd() *cobra.Command {
	var yes bool
	cmd := &cobra.Command{
		Use:   messages.UnpatchUse,
		Short: messages.UnpatchShort,
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			b := newInstaller()
			targets, err := selectInstalls(ctx, b, firstArg(args), yes, messages.UnpatchSelectTitle)
			if err != nil {
				return err
			}
			return forEachInstall(cmd.OutOrStdout(), targets, messages.UnpatchDoneFmt, func(inst install.Installation) error {
				return withKillRetry(ctx, b, inst, yes, func() error {
					return b.UnpatchInstall(ctx, inst)
				})
			})
		},
	}
	cmd.Flags().BoolVarP(&yes, "yes", "y", false, messages.FlagYesUsage)
	return cmd
}

// selectInstalls resolves the explicit target, or picks from the detected
// installations. Several candidates need a prompt unless all is true.
func selectInstalls(ctx context.Context, b installer, target string, all bool, title string) ([]install.Installation, error) {
	if target != "" {
		return b.ResolveTarget(ctx, target)
	}
	installs, err := b.DetectInstalls(ctx)
	if err != nil {
		return nil, err
	}
	switch {
	case len(installs) == 0:
		return nil, errors.New(messages.CLINoInstallsFound)
	case len(installs) == 1 || all:
		return installs, nil
	case !isInteractive():
		return nil, errors.New(messages.CLIAmbiguousTarget)
	}

	options := make([]terminal.Option, len(installs))
	for i, inst := range installs {
		options[i] = terminal.Option{Label: inst.String(), Value: inst.Path}
	}
	var chosen []string
	if err := newPrompter().MultiSelect(title, options, &chosen); err != nil {
		return nil, err
	}
	picked := make(map[string]bool, len(chosen))
	for _, p := range chosen {
		picked[p] = true
	}
	var out []install.Installation
	for _, inst := range installs {
		if picked[inst.Path] {
			out = append(out, inst)
		}
	}
	if len(out) == 0 {
		return nil, errors.New(messages.CLINothingSelected)
	}
	return out, nil
}

// withKillRetry runs op and, when the host holds a file lock, offers to close
// the host and retries once.
func withKillRetry(ctx context.Context, b installer, inst install.Installation, yes bool, op func() error) error {
	err := op()
	if !moonerr.Is(err, moonerr.CodeWindowsFileLock) {
		return err
	}
	if !yes {
		if !isInteractive() {
			return err
		}
		confirmed := false
		title := fmt.Sprintf(messages.CLIKillConfirmFmt, inst.Channel)
		if promptErr := newPrompter().Confirm(title, &confirmed); promptErr != nil || !confirmed {
			return err
		}
	}
	channel := inst.Channel
	if killErr := b.KillDiscord(ctx, &channel); killErr != nil {
		return multierr.Append(err, killErr)
	}
	return op()
}

// offerDownload fetches the payload before patching. Outside a terminal the
// patch proceeds and reports the missing payload.
func offerDownload(ctx context.Context, b installer, stderr io.Writer, yes bool) error {
	if !yes {
		if !isInteractive() {
			return nil
		}
		confirmed := false
		if err := newPrompter().Confirm(messages.CLIDownloadConfirm, &confirmed); err != nil || !confirmed {
			return err
		}
	}
	branch := b.GetMoonlightBranch()
	return spin(ctx, stderr, fmt.Sprintf(messages.UpdateSpinnerFmt, branch.Name()), func(ctx context.Context) error {
		return b.DownloadMoonlight(ctx, branch)
	})
}

// forEachInstall applies op to every installation, reporting each success.
// Failures do not stop later installations and are combined.
func forEachInstall(out io.Writer, installs []install.Installation, doneFmt string, op func(install.Installation) error) error {
	var errs error
	for _, inst := range installs {
		if err := op(inst); err != nil {
			errs = multierr.Append(errs, fmt.Errorf(messages.CLIInstallFailedFmt, inst, explain(err)))
			continue
		}
		_, _ = fmt.Fprintf(out, doneFmt, inst)
	}
	return errs
}

// explain adds a next step to errors the user can act on.
func explain(err error) error {
	switch {
	case errors.Is(err, patch.ErrNoPayload):
		return fmt.Errorf("%w\n%s", err, messages.CLINoPayloadHint)
	case errors.Is(err, patch.ErrBusy), errors.Is(err, patch.ErrPayloadBusy):
		return fmt.Errorf("%w\n%s", err, messages.CLIBusyHint)
	case moonerr.Is(err, moonerr.CodeMacOSNoPermission):
		return fmt.Errorf("%w\n%s", err, messages.CLIMacOSPermissionHint)
	case moonerr.Is(err, moonerr.CodeWindowsFileLock):
		return fmt.Errorf("%w\n%s", err, messages.CLIFileLockHint)
	}
	return err
}

func firstArg(args []string) string {
	if len(args) == 0 {
		return ""
	}
	return args[0]
}
