package main

import (
	"fmt"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/moonlight-mod/moonlight-installer/internal/install"
	"github.com/moonlight-mod/moonlight-installer/internal/messages"
)

func newStatusCmd() *cobra.Command {
	var asJSON bool
	cmd := &cobra.Command{
		Use:   messages.StatusUse,
		Short: messages.StatusShort,
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			st, err := newInstaller().Status(cmd.Context())
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			if asJSON {
				if st.Installs == nil {
					st.Installs = []install.Info{}
				}
				return writeJSON(out, st)
			}

			_, _ = fmt.Fprintf(out, messages.StatusBranchFmt, st.Payload.Branch.Name())
			_, _ = fmt.Fprintf(out, messages.StatusInstalledFmt, orNone(st.Payload.Installed))
			_, _ = fmt.Fprintf(out, messages.StatusLatestFmt, orNone(st.Payload.Latest))
			switch {
			case st.Payload.Latest == "":
				_, _ = fmt.Fprintln(out, color.YellowString(messages.StatusLatestUnknown))
			case st.Payload.NeedsUpdate:
				_, _ = fmt.Fprintln(out, color.YellowString(messages.StatusNeedsUpdate))
			default:
				_, _ = fmt.Fprintln(out, color.GreenString(messages.StatusUpToDate))
			}
			_, _ = fmt.Fprintln(out)
			printInstalls(out, st.Installs)
			return nil
		},
	}
	cmd.Flags().BoolVar(&asJSON, "json", false, messages.FlagJSONUsage)
	return cmd
}

func orNone(v string) string {
	if v == "" {
		return messages.VersionNone
	}
	return v
}
