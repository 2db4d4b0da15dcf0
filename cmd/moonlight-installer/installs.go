package main

import (
	"encoding/json"
	"fmt"
	"io"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/moonlight-mod/moonlight-installer/internal/install"
	"github.com/moonlight-mod/moonlight-installer/internal/messages"
)

func newInstallsCmd() *cobra.Command {
	var asJSON bool
	cmd := &cobra.Command{
		Use:   messages.InstallsUse,
		Short: messages.InstallsShort,
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			infos, err := newInstaller().GetInstalls(cmd.Context())
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			if asJSON {
				if infos == nil {
					infos = []install.Info{}
				}
				return writeJSON(out, infos)
			}
			printInstalls(out, infos)
			return nil
		},
	}
	cmd.Flags().BoolVar(&asJSON, "json", false, messages.FlagJSONUsage)
	return cmd
}

func printInstalls(out io.Writer, infos []install.Info) {
	if len(infos) == 0 {
		_, _ = fmt.Fprintln(out, messages.InstallsNone)
		return
	}
	for _, info := range infos {
		state := color.YellowString(messages.InstallStateUnpatched)
		if info.Patched {
			state = color.GreenString(messages.InstallStatePatched)
		}
		_, _ = fmt.Fprintf(out, messages.InstallLineFmt, state, info.Install.Channel, info.Install.Family, info.Install.Path)
		if info.Install.IsFlatpak() {
			_, _ = fmt.Fprintf(out, messages.InstallFlatpakLineFmt, info.Install.FlatpakID)
		}
		if info.HasConfig {
			_, _ = fmt.Fprintln(out, messages.InstallHasConfigLine)
		}
	}
}

func writeJSON(out io.Writer, v any) error {
	enc := json.NewEncoder(out)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
