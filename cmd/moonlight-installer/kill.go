package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/moonlight-mod/moonlight-installer/internal/install"
	"github.com/moonlight-mod/moonlight-installer/internal/messages"
)

func newKillCmd() *cobra.Command {
	return &cobra.Command{
		Use:   messages.KillUse,
		Short: messages.KillShort,
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			var channel *install.Channel
			if len(args) == 1 {
				c, err := install.ParseChannel(args[0])
				if err != nil {
					return err
				}
				channel = &c
			}
			if err := newInstaller().KillDiscord(cmd.Context(), channel); err != nil {
				return err
			}
			_, _ = fmt.Fprintln(cmd.OutOrStdout(), messages.KillDone)
			return nil
		},
	}
}

func newResetConfigCmd() *cobra.Command {
	return &cobra.Command{
		Use:   messages.ResetConfigUse,
		Short: messages.ResetConfigShort,
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			channel, err := install.ParseChannel(args[0])
			if err != nil {
				return err
			}
			backup, err := newInstaller().ResetConfig(channel)
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			if backup == "" {
				_, _ = fmt.Fprintf(out, messages.ResetConfigNothingFmt, channel)
				return nil
			}
			_, _ = fmt.Fprintf(out, messages.ResetConfigDoneFmt, channel, backup)
			return nil
		},
	}
}
