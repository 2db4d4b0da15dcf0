package messages

// Doctor messages for the doctor command.
const (
	// DoctorUse is the doctor command name.
	DoctorUse   = "doctor"
	DoctorShort = "Check the payload, installations, and settings for problems"

	DoctorHeader = "🏥 Checking moonlight installer health..."

	DoctorCheckNameConfigDir = "ConfigDir"
	DoctorCheckNamePayload   = "Payload"
	DoctorCheckNameInjector  = "Injector"
	DoctorCheckNameInstalls  = "Installs"
	DoctorCheckNameUpdate    = "Update"
	DoctorCheckNameSettings  = "Settings"

	DoctorConfigDirUnresolvedFmt       = "Cannot resolve the config directory: %v"
	DoctorConfigDirUnresolvedRecommend = "Set MOONLIGHT_DIR to a writable directory."
	DoctorConfigDirMissingFmt          = "Config directory %s does not exist yet"
	DoctorConfigDirNotDirFmt           = "%s exists but is not a directory"
	DoctorConfigDirNotDirRecommend     = "Move the file aside so the installer can create its config directory."
	DoctorConfigDirOKFmt               = "Config directory is %s"

	DoctorPayloadReadFailedFmt = "Cannot read the installed payload version: %v"
	DoctorPayloadMissing       = "No moonlight payload is downloaded"
	DoctorPayloadInstalledFmt  = "Payload %s (%s) is installed"
	DoctorDownloadRecommend    = "Run 'moonlight-installer update' to download the latest payload."

	DoctorInjectorMissingFmt       = "Injector not found: %v"
	DoctorInjectorResolvedFmt      = "Injector resolves to %s"
	DoctorOverrideIgnoredFmt       = "Override %s does not exist; using %s"
	DoctorOverrideIgnoredRecommend = "Fix the --moonlight path or drop it to use the downloaded payload."

	DoctorInstallsFailedFmt     = "Detecting installations failed: %v"
	DoctorInstallsNone          = "No Discord installations were found"
	DoctorInstallsNoneRecommend = "Install Discord, or start it once so its files exist, then rerun doctor."
	DoctorInstallFmt            = "%s is %s"
	DoctorInstallPatched        = "patched"
	DoctorInstallUnpatched      = "not patched"

	DoctorUpdateSkippedFmt      = "Update check skipped because %s is set"
	DoctorUpdateRateLimited     = "Update check hit the GitHub rate limit; try again later"
	DoctorUpdateFailedFmt       = "Update check failed: %v"
	DoctorUpdateFailedRecommend = "Check your network connection and try again."
	DoctorUpdateAvailableFmt    = "%s has %s available (installed: %s)"
	DoctorUpToDateFmt           = "%s payload is up to date (%s)"
	DoctorVersionNone           = "none"

	DoctorSettingsOKFmt        = "Settings select the %s branch"
	DoctorSettingsRecommendFmt = "Fix or delete %s; it is rewritten the next time a branch is selected."

	DoctorFailureSummary = "❌ Some checks failed. Please address the items above."
	DoctorFailureError   = "doctor checks failed"
	DoctorSuccessSummary = "✅ All checks passed."

	DoctorStatusOKLabel        = "[OK]  "
	DoctorStatusWarnLabel      = "[WARN]"
	DoctorStatusFailLabel      = "[FAIL]"
	DoctorResultLineFmt        = "%s %-10s %s\n"
	DoctorRecommendationPrefix = "       💡 "
	DoctorRecommendationIndent = "         "
)
