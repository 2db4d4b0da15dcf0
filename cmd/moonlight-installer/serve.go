package main

import (
	"github.com/spf13/cobra"

	"github.com/moonlight-mod/moonlight-installer/internal/mcpserver"
	"github.com/moonlight-mod/moonlight-installer/internal/messages"
)

var runMCPServer = mcpserver.Run

func newServeCmd() *cobra.Command {
	return &cobra.Command{
		Use:   messages.ServeUse,
		Short: messages.ServeShort,
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runMCPServer(cmd.Context(), Version, newInstaller())
		},
	}
}
