package messages

// Installation detection and patching messages.
const (
	InstallSystemRequired       = "install system is required"
	InstallUnknownChannelFmt    = "unknown Discord channel %q"
	InstallReadDirFmt           = "failed to read %s: %w"
	InstallRenameArchiveFmt     = "failed to move %s aside: %w"
	InstallRemoveShimFmt        = "failed to remove shim %s: %w"
	InstallRestoreArchiveFmt    = "failed to restore %s: %w"
	InstallResetConfigFmt       = "failed to back up config %s: %w"
	InstallRemoveStaleFmt       = "failed to remove stale archive %s: %w"
	InstallReadOverridesFmt     = "failed to read flatpak overrides %s: %w"
	InstallWriteOverridesFmt    = "failed to write flatpak overrides %s: %w"
	InstallDetectedLog          = "detected Discord installations"
	InstallOverridesUnparsedLog = "flatpak overrides could not be parsed; rewriting"
	InstallOverridesUpdatedLog  = "granted flatpak access to the moonlight config"
	InstallPatchedLog           = "patched installation"
	InstallUnpatchedLog         = "unpatched installation"
	InstallStaleClearedLog      = "removed stale patch files left behind by a host update"

	PatchBusy                = "an operation on this installation is already in progress"
	PatchNoPayload           = "moonlight is not downloaded"
	PatchPayloadBusy         = "the payload is being replaced by a download"
	PatchTransitionLog       = "install transition finished"
	PatchTransitionFailedLog = "install transition failed"

	InjectorSystemRequired   = "injector system is required"
	InjectorLoaderRequired   = "injector loader is required"
	InjectorLocationRequired = "injector location is required"
	InjectorLoadFmt          = "failed to load injector %s: %w"
	InjectorInjectFmt        = "injector %s failed: %w"
	InjectorExecFmt          = "injector %s failed: %s: %w"
	InjectorCreateShimDirFmt = "failed to create shim directory %s: %w"
	InjectorShimExistsFmt    = "shim directory %s already exists"
	InjectorWriteShimFmt     = "failed to write shim file %s: %w"
	InjectorBootstrapLog     = "bootstrapping injector"

	BackendNoInstallForChannelFmt = "no installation found for channel %s"
	BackendNoInstallForTargetFmt  = "no installation found at %s"
	BackendReadInstalledLog       = "failed to read installed payload version"
	BackendLatestLookupLog        = "latest payload version lookup failed"
	BackendRefreshLog             = "payload refresh failed"
	BackendKilledLog              = "closed Discord processes"
)

// Payload download and version messages.
const (
	PayloadUnknownBranchFmt        = "unknown branch %q (want stable or nightly)"
	PayloadDownloaderRequired      = "downloader requires a system and a source"
	PayloadNetworkDisabled         = "network access is disabled"
	PayloadDownloadInProgress      = "a download or patch operation is already using the payload"
	PayloadRateLimitFmt            = "GitHub API rate limit exceeded (status %s, remaining %s)"
	PayloadReleaseMissingVersion   = "latest release has no tag or name"
	PayloadAssetMissingFmt         = "release asset %s missing from %s"
	PayloadDecodeReleaseFmt        = "failed to decode release metadata from %s"
	PayloadEmptyRefFmt             = "empty nightly ref at %s"
	PayloadCreateRequestFmt        = "failed to create request: %w"
	PayloadFetchFmt                = "fetch %s: %w"
	PayloadFetchStatusFmt          = "fetch %s: unexpected status %s"
	PayloadTooLargeFmt             = "download %s exceeds size limit (%d > %d bytes)"
	PayloadExtractTooLargeFmt      = "extracted payload exceeds size limit (%d bytes)"
	PayloadUnsafeEntryFmt          = "refusing unsafe archive entry %q"
	PayloadExtractFmt              = "failed to extract payload: %w"
	PayloadCreateConfigDirFmt      = "failed to create config directory %s: %w"
	PayloadCreateTempFmt           = "failed to create download file: %w"
	PayloadResetTempFmt            = "failed to reset download file: %w"
	PayloadCreateStagingFmt        = "failed to create staging directory: %w"
	PayloadSwapFmt                 = "failed to replace %s: %w"
	PayloadReadVersionFmt          = "failed to read installed version %s: %w"
	PayloadWriteVersionFmt         = "failed to write installed version %s: %w"
	PayloadOpenLockFmt             = "failed to open download lock %s: %w"
	PayloadLockFmt                 = "failed to lock %s: %w"
	PayloadLockTimeoutFmt          = "timed out after %s waiting for another download"
	PayloadDownloadingLog          = "downloading payload"
	PayloadInstalledLog            = "installed payload"
	PayloadDownloadedLog           = "payload download finished"
	PayloadDownloadFailedLog       = "payload download failed"
	PayloadRefreshAfterDownloadLog = "latest version lookup after download failed"
	PayloadLoadBranchLog           = "failed to load selected branch; using stable"
)
