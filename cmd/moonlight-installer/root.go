package main

import (
	"context"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/moonlight-mod/moonlight-installer/internal/backend"
	"github.com/moonlight-mod/moonlight-installer/internal/events"
	"github.com/moonlight-mod/moonlight-installer/internal/install"
	"github.com/moonlight-mod/moonlight-installer/internal/logging"
	"github.com/moonlight-mod/moonlight-installer/internal/mcpserver"
	"github.com/moonlight-mod/moonlight-installer/internal/messages"
	"github.com/moonlight-mod/moonlight-installer/internal/paths"
	"github.com/moonlight-mod/moonlight-installer/internal/terminal"
)

// installer is the command boundary the CLI drives.
type installer interface {
	mcpserver.Commands
	DetectInstalls(ctx context.Context) ([]install.Installation, error)
}

var (
	newInstaller = func() installer {
		bus := events.NewBus()
		bus.Subscribe(events.LogSink{Logger: logging.GetLogger("events")}.Emit)
		return backend.New(backend.Options{Bus: bus})
	}
	newPrompter   = func() terminal.Prompter { return terminal.NewHuhPrompter() }
	isInteractive = terminal.IsInteractive
	spin          = terminal.Spin
	setupLogging  = logging.Setup
)

var hostSystem paths.System = paths.RealSystem{}

type rootOptions struct {
	verbose int
	noColor bool
	quiet   bool
}

func newRootCmd() *cobra.Command {
	opts := &rootOptions{}
	cmd := &cobra.Command{
		Use:           messages.RootUse,
		Short:         messages.RootShort,
		Long:          messages.RootLong,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			if opts.noColor {
				color.NoColor = true
			}
			setupLogging(opts.verbose, opts.noColor)
		},
	}
	cmd.PersistentFlags().CountVarP(&opts.verbose, flagVerbose, "v", messages.FlagVerboseUsage)
	cmd.PersistentFlags().BoolVar(&opts.noColor, flagNoColor, false, messages.FlagNoColorUsage)
	cmd.PersistentFlags().BoolVarP(&opts.quiet, flagQuiet, "q", false, messages.FlagQuietUsage)

	cmd.AddCommand(
		newInstallsCmd(),
		newPatchCmd(opts),
		newUnpatchCmd(),
		newBranchCmd(),
		newStatusCmd(),
		newUpdateCmd(opts),
		newKillCmd(),
		newResetConfigCmd(),
		newDoctorCmd(),
		newServeCmd(),
	)
	return cmd
}

const (
	flagVerbose = "verbose"
	flagNoColor = "no-color"
	flagQuiet   = "quiet"
)
