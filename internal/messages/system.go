package messages

// Classified error messages shown at the UI boundary.
const (
	ErrWindowsFileLockFmt   = "failed to get windows file lock: %s"
	ErrMacOSNoPermissionFmt = "failed to get macos file permission: %s"
	ErrNetworkFailedFmt     = "network request failed: %s"
	ErrUnknownFmt           = "unknown error: %s"
)

// File system helpers.
const (
	FsutilCreateTempFmt = "failed to create temp file for %s: %w"
	FsutilWriteTempFmt  = "failed to write temp file for %s: %w"
	FsutilSyncTempFmt   = "failed to sync temp file for %s: %w"
	FsutilCloseTempFmt  = "failed to close temp file for %s: %w"
	FsutilChmodTempFmt  = "failed to chmod temp file for %s: %w"
	FsutilRenameTempFmt = "failed to replace %s: %w"
)

// Path resolution messages.
const (
	PathsSystemRequired     = "system is required"
	PathsEnvUnsetFmt        = "environment variable %s is not set"
	PathsResolveHomeFmt     = "failed to resolve home directory: %w"
	PathsAbsFmt             = "failed to resolve absolute path for %s: %w"
	PathsStatFmt            = "failed to stat %s: %w"
	PathsPayloadMissing     = "moonlight payload is not downloaded"
	PathsOverrideMissingLog = "injector override does not exist; using downloaded payload"
)

// Process management messages.
const (
	ProcessKilledLog = "killed Discord process"
)

// Settings file messages.
const (
	SettingsInvalid   = "invalid settings"
	SettingsParseFmt  = "failed to parse settings %s: %w"
	SettingsReadFmt   = "failed to read settings %s: %w"
	SettingsEncodeFmt = "failed to encode settings: %w"
	SettingsWriteFmt  = "failed to write settings %s: %w"
)

// Terminal-free surfaces.
const (
	McpRunnerNil          = "mcp runner is nil"
	McpRunServerFailedFmt = "failed to run mcp server: %w"

	McpToolDetectInstalls   = "List detected Discord installations with their patch state."
	McpToolIsInstallPatched = "Report whether the installation matching target is patched."
	McpToolPatchInstall     = "Patch the installation matching target, optionally using an injector override."
	McpToolUnpatchInstall   = "Restore the installation matching target to its unpatched state."
	McpToolGetBranch        = "Return the selected moonlight branch."
	McpToolSetBranch        = "Select and persist a moonlight branch (stable or nightly)."
	McpToolGetDownloaded    = "Return the installed payload version, if any."
	McpToolGetLatest        = "Return the latest payload version on a branch."
	McpToolDownload         = "Download the latest payload for a branch."
	McpToolKillDiscord      = "Close running Discord processes, optionally for one channel."
	McpToolResetConfig      = "Move a channel's saved Discord config aside and return the backup path."
	McpToolStatus           = "Return the selected branch with installed and latest payload versions."

	UpdateWarnCheckFailedFmt   = "Warning: failed to check for moonlight updates: %v\n"
	UpdateWarnNotDownloadedFmt = "Warning: moonlight %s is not downloaded (latest %s); run 'moonlight-installer update'\n"
	UpdateWarnAvailableFmt     = "Warning: moonlight %s update available: %s (installed %s); run 'moonlight-installer update'\n"
)
