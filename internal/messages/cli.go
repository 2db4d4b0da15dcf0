// Package messages holds every user-facing string and format the installer
// prints, logs, or wraps into errors.
package messages

// CLI messages for user-facing commands and prompts.
const (
	// RootUse is the CLI command name.
	RootUse = "moonlight-installer"
	// RootShort is the short description for the root command.
	RootShort = "Install moonlight into Discord"
	RootLong  = `moonlight-installer finds Discord installations on this machine, downloads the
moonlight payload, and patches or unpatches each installation.

Run without a subcommand to list detected installations.`

	// VersionCommitFmt formats the commit hash for version display.
	VersionCommitFmt = "commit %s"
	VersionBuildFmt  = "built %s"
	VersionFullFmt   = "%s (%s)"
	VersionTemplate  = "{{.Version}}\n"
	VersionNone      = "none"

	FlagVerboseUsage   = "Increase log verbosity (-v info, -vv debug)"
	FlagNoColorUsage   = "Disable colored output"
	FlagQuietUsage     = "Suppress update warnings and progress output"
	FlagJSONUsage      = "Print machine-readable JSON"
	FlagYesUsage       = "Answer yes to every confirmation prompt"
	FlagMoonlightUsage = "Use this injector file or directory instead of the downloaded payload"
	FlagBranchUsage    = "Download this branch instead of the selected one (stable or nightly)"

	InstallsUse           = "installs"
	InstallsShort         = "List detected Discord installations"
	InstallsNone          = "No Discord installations were found."
	InstallStatePatched   = "patched"
	InstallStateUnpatched = "unpatched"
	// InstallLineFmt formats one installation: state, channel, family, path.
	InstallLineFmt        = "[%-9s] %-8s %-10s %s\n"
	InstallFlatpakLineFmt = "            flatpak: %s\n"
	InstallHasConfigLine  = "            has saved config"

	PatchUse           = "patch [target]"
	PatchShort         = "Patch Discord installations with moonlight"
	PatchSelectTitle   = "Select installations to patch"
	PatchDoneFmt       = "Patched %s\n"
	UnpatchUse         = "unpatch [target]"
	UnpatchShort       = "Remove moonlight from Discord installations"
	UnpatchSelectTitle = "Select installations to unpatch"
	UnpatchDoneFmt     = "Unpatched %s\n"

	CLINoInstallsFound     = "no Discord installations found"
	CLIAmbiguousTarget     = "multiple installations match; pass a channel or path, or run interactively"
	CLINothingSelected     = "no installations selected"
	CLIKillConfirmFmt      = "Discord is holding files in %s. Close Discord and retry?"
	CLIDownloadConfirm     = "The moonlight payload is not downloaded. Download it now?"
	CLIInstallFailedFmt    = "%s: %w"
	CLINoPayloadHint       = "run 'moonlight-installer update' to download moonlight first"
	CLIBusyHint            = "another operation on this installation is still running; try again shortly"
	CLIMacOSPermissionHint = "grant your terminal Full Disk Access or App Management in System Settings, then retry"
	CLIFileLockHint        = "close Discord (or run 'moonlight-installer kill') and retry"

	BranchUse           = "branch [stable|nightly]"
	BranchShort         = "Show or select the moonlight branch"
	BranchCurrentFmt    = "%s: %s\n"
	BranchSetFmt        = "Selected branch %s\n"
	BranchUpdateHintFmt = "Version %s is available; run 'moonlight-installer update' to download it\n"

	StatusUse           = "status"
	StatusShort         = "Show the selected branch and payload versions"
	StatusBranchFmt     = "Branch:    %s\n"
	StatusInstalledFmt  = "Installed: %s\n"
	StatusLatestFmt     = "Latest:    %s\n"
	StatusLatestUnknown = "Latest version could not be determined."
	StatusNeedsUpdate   = "Moonlight update available; run 'moonlight-installer update'."
	StatusUpToDate      = "Up to date."

	UpdateUse        = "update"
	UpdateShort      = "Download the latest moonlight payload"
	UpdateSpinnerFmt = "Downloading moonlight %s"
	UpdateDoneFmt    = "Installed moonlight %s (%s)\n"

	KillUse   = "kill [channel]"
	KillShort = "Close running Discord processes"
	KillDone  = "Closed Discord."

	ResetConfigUse        = "reset-config <channel>"
	ResetConfigShort      = "Move a channel's saved Discord config aside"
	ResetConfigNothingFmt = "%s has no saved config; nothing to reset\n"
	ResetConfigDoneFmt    = "Backed up %s config to %s\n"

	ServeUse   = "serve"
	ServeShort = "Serve installer operations over MCP on stdio"

	TerminalRequired        = "this prompt requires an interactive terminal; pass a target or --yes"
	TerminalPromptCancelled = "prompt cancelled"
)
