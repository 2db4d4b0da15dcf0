package payload

import (
	"archive/tar"
	"compress/gzip"
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/moonlight-mod/moonlight-installer/internal/fsutil"
	"github.com/moonlight-mod/moonlight-installer/internal/logging"
	"github.com/moonlight-mod/moonlight-installer/internal/messages"
	"github.com/moonlight-mod/moonlight-installer/internal/paths"
)

// Files kept in the config dir next to the payload.
const (
	InstalledVersionFile = ".moonlight-installed-version"
	DownloadLockFile     = ".download.lock"
)

// Environment knobs for downloads.
const (
	EnvNoNetwork        = "MOONLIGHT_NO_NETWORK"
	EnvMaxDownloadBytes = "MOONLIGHT_MAX_DOWNLOAD_BYTES"
)

const (
	defaultMaxDownloadBytes = int64(100 * 1024 * 1024) // 100 MiB
	// extracted payloads may be larger than the compressed tarball.
	extractFactor = 8
)

var (
	osCreateTemp = os.CreateTemp
	osMkdirTemp  = os.MkdirTemp
	osRename     = os.Rename
	osRemoveAll  = os.RemoveAll
)

// ErrNetworkDisabled is returned when MOONLIGHT_NO_NETWORK is set.
var ErrNetworkDisabled = errors.New(messages.PayloadNetworkDisabled)

// InstalledVersion reads the installed payload version. A missing file means
// absent and yields "".
func InstalledVersion(sys paths.System) (string, error) {
	dir, err := paths.ConfigDir(sys)
	if err != nil {
		return "", err
	}
	path := filepath.Join(dir, InstalledVersionFile)
	data, err := sys.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return "", nil
		}
		return "", fmt.Errorf(messages.PayloadReadVersionFmt, path, err)
	}
	return strings.TrimSpace(string(data)), nil
}

// NoNetwork reports whether network access is disabled.
func NoNetwork(sys paths.System) bool {
	v, _ := sys.LookupEnv(EnvNoNetwork)
	return strings.TrimSpace(v) != ""
}

// Downloader fetches a payload tarball and installs it into the download dir.
type Downloader struct {
	Sys    paths.System
	Source Source
}

// NewDownloader returns a Downloader for the running process.
func NewDownloader() *Downloader {
	return &Downloader{Sys: paths.RealSystem{}, Source: GitHubSource{}}
}

// Download installs the latest payload for branch and returns its version.
// The previous payload stays in place until the new one is fully extracted.
// A cross-process file lock keeps concurrent installers from interleaving.
func (d *Downloader) Download(ctx context.Context, branch Branch) (string, error) {
	if d == nil || d.Sys == nil || d.Source == nil {
		return "", errors.New(messages.PayloadDownloaderRequired)
	}
	if NoNetwork(d.Sys) {
		return "", ErrNetworkDisabled
	}
	configDir, err := paths.ConfigDir(d.Sys)
	if err != nil {
		return "", err
	}
	if err := os.MkdirAll(configDir, 0o755); err != nil {
		return "", fmt.Errorf(messages.PayloadCreateConfigDirFmt, configDir, err)
	}

	var version string
	err = withFileLock(filepath.Join(configDir, DownloadLockFile), func() error {
		url, v, err := d.Source.Artifact(ctx, branch)
		if err != nil {
			return err
		}
		version = v
		return d.install(ctx, configDir, url, v)
	})
	if err != nil {
		return "", err
	}
	return version, nil
}

func (d *Downloader) install(ctx context.Context, configDir, url, version string) error {
	log := logging.GetLogger("payload")
	maxBytes := maxDownloadBytes(d.Sys)

	tmp, err := osCreateTemp(configDir, ArtifactName+".tmp-*")
	if err != nil {
		return fmt.Errorf(messages.PayloadCreateTempFmt, err)
	}
	tmpName := tmp.Name()
	defer func() {
		_ = tmp.Close()
		_ = os.Remove(tmpName)
	}()

	log.Info().Str("url", url).Str("version", version).Msg(messages.PayloadDownloadingLog)
	if err := downloadToFile(ctx, url, tmp, maxBytes); err != nil {
		return err
	}
	if _, err := tmp.Seek(0, io.SeekStart); err != nil {
		return fmt.Errorf(messages.PayloadResetTempFmt, err)
	}

	staging, err := osMkdirTemp(configDir, ".dist-staging-*")
	if err != nil {
		return fmt.Errorf(messages.PayloadCreateStagingFmt, err)
	}
	committed := false
	defer func() {
		if !committed {
			_ = osRemoveAll(staging)
		}
	}()

	if err := extractTarGz(tmp, staging, maxBytes*extractFactor); err != nil {
		return err
	}

	dist := filepath.Join(configDir, paths.DownloadDirName)
	if err := swapDir(staging, dist); err != nil {
		return err
	}
	committed = true

	versionPath := filepath.Join(configDir, InstalledVersionFile)
	if err := fsutil.WriteFileAtomic(versionPath, []byte(version), 0o644); err != nil {
		return fmt.Errorf(messages.PayloadWriteVersionFmt, versionPath, err)
	}
	log.Info().Str("version", version).Str("dir", dist).Msg(messages.PayloadInstalledLog)
	return nil
}

// swapDir replaces dst with src. The old dst is moved aside first and removed
// only after src is in place.
func swapDir(src, dst string) error {
	old := dst + ".old"
	if err := osRemoveAll(old); err != nil {
		return fmt.Errorf(messages.PayloadSwapFmt, dst, err)
	}
	hadOld := true
	if err := osRename(dst, old); err != nil {
		if !errors.Is(err, os.ErrNotExist) {
			return fmt.Errorf(messages.PayloadSwapFmt, dst, err)
		}
		hadOld = false
	}
	if err := osRename(src, dst); err != nil {
		if hadOld {
			_ = osRename(old, dst)
		}
		return fmt.Errorf(messages.PayloadSwapFmt, dst, err)
	}
	if hadOld {
		_ = osRemoveAll(old)
	}
	return nil
}

// downloadToFile fetches url into dest, retrying once on transient failures.
func downloadToFile(ctx context.Context, url string, dest *os.File, maxBytes int64) error {
	for attempt := 0; attempt <= fetchRetryCount; attempt++ {
		req, err := newRequest(ctx, url)
		if err != nil {
			return err
		}
		resp, err := httpClient.Do(req)
		if err != nil {
			if shouldRetry(err, 0, attempt) {
				time.Sleep(retryDelay)
				continue
			}
			return fmt.Errorf(messages.PayloadFetchFmt, url, err)
		}
		if resp.StatusCode != http.StatusOK {
			status := resp.StatusCode
			statusText := resp.Status
			_ = resp.Body.Close()
			if shouldRetry(nil, status, attempt) {
				time.Sleep(retryDelay)
				continue
			}
			return fmt.Errorf(messages.PayloadFetchStatusFmt, url, statusText)
		}

		if err := dest.Truncate(0); err != nil {
			_ = resp.Body.Close()
			return fmt.Errorf(messages.PayloadResetTempFmt, err)
		}
		if _, err := dest.Seek(0, io.SeekStart); err != nil {
			_ = resp.Body.Close()
			return fmt.Errorf(messages.PayloadResetTempFmt, err)
		}

		n, copyErr := io.Copy(dest, io.LimitReader(resp.Body, maxBytes+1))
		_ = resp.Body.Close()
		if copyErr != nil {
			if shouldRetry(copyErr, 0, attempt) {
				time.Sleep(retryDelay)
				continue
			}
			return fmt.Errorf(messages.PayloadFetchFmt, url, copyErr)
		}
		if n > maxBytes {
			return fmt.Errorf(messages.PayloadTooLargeFmt, url, n, maxBytes)
		}
		return nil
	}
	return fmt.Errorf(messages.PayloadFetchFmt, url, errors.New("retry budget exhausted"))
}

// extractTarGz unpacks a gzip tarball into dir. Entries escaping dir and
// non-regular files are rejected.
func extractTarGz(r io.Reader, dir string, maxBytes int64) error {
	gz, err := gzip.NewReader(r)
	if err != nil {
		return fmt.Errorf(messages.PayloadExtractFmt, err)
	}
	defer func() { _ = gz.Close() }()

	var total int64
	tr := tar.NewReader(gz)
	for {
		hdr, err := tr.Next()
		if errors.Is(err, io.EOF) {
			return nil
		}
		if err != nil {
			return fmt.Errorf(messages.PayloadExtractFmt, err)
		}
		name := filepath.FromSlash(strings.TrimPrefix(hdr.Name, "./"))
		if name == "" || name == "." {
			continue
		}
		if !filepath.IsLocal(name) {
			return fmt.Errorf(messages.PayloadUnsafeEntryFmt, hdr.Name)
		}
		target := filepath.Join(dir, name)

		switch hdr.Typeflag {
		case tar.TypeDir:
			if err := os.MkdirAll(target, 0o755); err != nil {
				return fmt.Errorf(messages.PayloadExtractFmt, err)
			}
		case tar.TypeReg:
			total += hdr.Size
			if total > maxBytes {
				return fmt.Errorf(messages.PayloadExtractTooLargeFmt, maxBytes)
			}
			if err := writeEntry(tr, target, hdr.Size); err != nil {
				return err
			}
		case tar.TypeXGlobalHeader:
			continue
		default:
			return fmt.Errorf(messages.PayloadUnsafeEntryFmt, hdr.Name)
		}
	}
}

func writeEntry(r io.Reader, target string, size int64) error {
	if err := os.MkdirAll(filepath.Dir(target), 0o755); err != nil {
		return fmt.Errorf(messages.PayloadExtractFmt, err)
	}
	f, err := os.OpenFile(target, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0o644)
	if err != nil {
		return fmt.Errorf(messages.PayloadExtractFmt, err)
	}
	if _, err := io.CopyN(f, r, size); err != nil {
		_ = f.Close()
		return fmt.Errorf(messages.PayloadExtractFmt, err)
	}
	if err := f.Close(); err != nil {
		return fmt.Errorf(messages.PayloadExtractFmt, err)
	}
	return nil
}

func maxDownloadBytes(sys paths.System) int64 {
	raw, _ := sys.LookupEnv(EnvMaxDownloadBytes)
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return defaultMaxDownloadBytes
	}
	v, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || v <= 0 {
		return defaultMaxDownloadBytes
	}
	return v
}
