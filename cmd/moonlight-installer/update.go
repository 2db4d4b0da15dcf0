package main

import (
	"context"
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/moonlight-mod/moonlight-installer/internal/messages"
	"github.com/moonlight-mod/moonlight-installer/internal/payload"
)

func newUpdateCmd(root *rootOptions) *cobra.Command {
	var branchName string
	cmd := &cobra.Command{
		Use:   messages.UpdateUse,
		Short: messages.UpdateShort,
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			b := newInstaller()
			branch := b.GetMoonlightBranch()
			if branchName != "" {
				parsed, err := payload.ParseBranch(branchName)
				if err != nil {
					return err
				}
				branch = parsed
			}

			title := fmt.Sprintf(messages.UpdateSpinnerFmt, branch.Name())
			progress := cmd.ErrOrStderr()
			if root.quiet {
				progress = io.Discard
			}
			err := spin(cmd.Context(), progress, title, func(ctx context.Context) error {
				return b.DownloadMoonlight(ctx, branch)
			})
			if err != nil {
				return explain(err)
			}
			version, _ := b.GetDownloadedMoonlight()
			_, _ = fmt.Fprintf(cmd.OutOrStdout(), messages.UpdateDoneFmt, version, branch.Name())
			return nil
		},
	}
	cmd.Flags().StringVar(&branchName, "branch", "", messages.FlagBranchUsage)
	return cmd
}
