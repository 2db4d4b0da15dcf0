package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/moonlight-mod/moonlight-installer/internal/messages"
	"github.com/moonlight-mod/moonlight-installer/internal/payload"
)

func newBranchCmd() *cobra.Command {
	return &cobra.Command{
		Use:       messages.BranchUse,
		Short:     messages.BranchShort,
		Args:      cobra.MaximumNArgs(1),
		ValidArgs: []string{string(payload.BranchStable), string(payload.BranchNightly)},
		RunE: func(cmd *cobra.Command, args []string) error {
			b := newInstaller()
			out := cmd.OutOrStdout()
			if len(args) == 0 {
				current := b.GetMoonlightBranch()
				_, _ = fmt.Fprintf(out, messages.BranchCurrentFmt, current.Name(), current.Description())
				return nil
			}
			branch, err := payload.ParseBranch(args[0])
			if err != nil {
				return err
			}
			if err := b.SetMoonlightBranch(cmd.Context(), branch); err != nil {
				return err
			}
			_, _ = fmt.Fprintf(out, messages.BranchSetFmt, branch.Name())
			if installed, ok := b.GetDownloadedMoonlight(); ok {
				if latest, ok := b.GetLatestMoonlightVersion(cmd.Context(), branch); ok && payload.NeedsUpdate(installed, latest) {
					_, _ = fmt.Fprintf(out, messages.BranchUpdateHintFmt, latest)
				}
			}
			return nil
		},
	}
}
