package main

import (
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/moonlight-mod/moonlight-installer/internal/doctor"
	"github.com/moonlight-mod/moonlight-installer/internal/messages"
	"github.com/moonlight-mod/moonlight-installer/internal/payload"
	"github.com/moonlight-mod/moonlight-installer/internal/settings"
)

var (
	doctorSource       payload.Source = payload.GitHubSource{}
	doctorSettingsPath                = settings.Path
)

func newDoctorCmd() *cobra.Command {
	return &cobra.Command{
		Use:   messages.DoctorUse,
		Short: messages.DoctorShort,
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			out := cmd.OutOrStdout()
			ctx := cmd.Context()
			_, _ = fmt.Fprintln(out, messages.DoctorHeader)

			settingsPath := doctorSettingsPath()
			results := []doctor.Result{
				doctor.CheckSettings(settingsPath),
				doctor.CheckConfigDir(hostSystem),
			}
			override := ""
			if s, err := settings.Load(settingsPath); err == nil {
				override = s.InjectorOverride
			}
			results = append(results, doctor.CheckPayload(hostSystem, override)...)

			b := newInstaller()
			infos, err := b.GetInstalls(ctx)
			results = append(results, doctor.CheckInstalls(infos, err)...)

			installed, _ := b.GetDownloadedMoonlight()
			results = append(results, doctor.CheckUpdate(ctx, hostSystem, doctorSource, b.GetMoonlightBranch(), installed))

			for _, r := range results {
				printResult(out, r)
			}
			if doctor.HasFailure(results) {
				_, _ = fmt.Fprintln(out, color.RedString(messages.DoctorFailureSummary))
				return errors.New(messages.DoctorFailureError)
			}
			_, _ = fmt.Fprintln(out, color.GreenString(messages.DoctorSuccessSummary))
			return nil
		},
	}
}

func printResult(out io.Writer, r doctor.Result) {
	var status string
	switch r.Status {
	case doctor.StatusOK:
		status = color.GreenString(messages.DoctorStatusOKLabel)
	case doctor.StatusWarn:
		status = color.YellowString(messages.DoctorStatusWarnLabel)
	case doctor.StatusFail:
		status = color.RedString(messages.DoctorStatusFailLabel)
	}

	_, _ = fmt.Fprintf(out, messages.DoctorResultLineFmt, status, r.CheckName, r.Message)
	if r.Recommendation != "" {
		printRecommendation(out, r.Recommendation)
	}
}

// printRecommendation renders a multi-line recommendation with consistent indentation.
func printRecommendation(out io.Writer, recommendation string) {
	lines := strings.Split(recommendation, "\n")
	for i, line := range lines {
		if i == 0 {
			_, _ = fmt.Fprintf(out, "%s%s\n", messages.DoctorRecommendationPrefix, line)
			continue
		}
		if line == "" {
			_, _ = fmt.Fprintf(out, "%s\n", messages.DoctorRecommendationIndent)
			continue
		}
		_, _ = fmt.Fprintf(out, "%s%s\n", messages.DoctorRecommendationIndent, line)
	}
}
