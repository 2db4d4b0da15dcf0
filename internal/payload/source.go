package payload

import (
	"bufio"
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/tidwall/gjson"

	"github.com/moonlight-mod/moonlight-installer/internal/messages"
)

// Repo is the GitHub repository publishing stable payload releases.
const Repo = "moonlight-mod/moonlight"

// ArtifactName is the release asset holding the payload.
const ArtifactName = "dist.tar.gz"

// UserAgent is sent with every request.
const UserAgent = "moonlight-installer (https://github.com/moonlight-mod/moonlight-installer)"

var (
	stableReleaseURL = "https://api.github.com/repos/" + Repo + "/releases/latest"
	nightlyRefURL    = "https://moonlight-mod.github.io/moonlight/ref"
	nightlyDistURL   = "https://moonlight-mod.github.io/moonlight/dist.tar.gz"
	httpClient       = &http.Client{Timeout: 30 * time.Second}
	retryDelay       = 250 * time.Millisecond
)

const fetchRetryCount = 1

// maxMetadataBytes caps release metadata and ref responses.
const maxMetadataBytes = 4 << 20

// Source reports upstream payload versions and where to fetch them.
type Source interface {
	Latest(ctx context.Context, branch Branch) (string, error)
	Artifact(ctx context.Context, branch Branch) (url string, version string, err error)
}

// RateLimitError indicates GitHub's API rate limit was hit.
type RateLimitError struct {
	StatusCode int
	Status     string
	Remaining  *int
}

func (e *RateLimitError) Error() string {
	remainingText := "unknown"
	if e.Remaining != nil {
		remainingText = strconv.Itoa(*e.Remaining)
	}
	return fmt.Sprintf(messages.PayloadRateLimitFmt, e.Status, remainingText)
}

// IsRateLimitError reports whether err represents a GitHub API rate-limit condition.
func IsRateLimitError(err error) bool {
	var rl *RateLimitError
	return errors.As(err, &rl)
}

// GitHubSource resolves stable releases through the GitHub API and nightly
// builds through the project's pages site.
type GitHubSource struct{}

// Latest returns the newest version on branch.
func (GitHubSource) Latest(ctx context.Context, branch Branch) (string, error) {
	if branch == BranchNightly {
		return nightlyRef(ctx)
	}
	version, _, err := stableRelease(ctx)
	return version, err
}

// Artifact returns the tarball URL and the version it contains.
func (GitHubSource) Artifact(ctx context.Context, branch Branch) (string, string, error) {
	if branch == BranchNightly {
		version, err := nightlyRef(ctx)
		if err != nil {
			return "", "", err
		}
		return nightlyDistURL, version, nil
	}
	version, url, err := stableRelease(ctx)
	if err != nil {
		return "", "", err
	}
	if url == "" {
		return "", "", fmt.Errorf(messages.PayloadAssetMissingFmt, ArtifactName, version)
	}
	return url, version, nil
}

// stableRelease returns the release version (tag, falling back to name) and
// the download URL of the payload asset, if the release carries one.
func stableRelease(ctx context.Context) (string, string, error) {
	body, err := fetch(ctx, stableReleaseURL, "application/vnd.github+json")
	if err != nil {
		return "", "", err
	}
	if !gjson.ValidBytes(body) {
		return "", "", fmt.Errorf(messages.PayloadDecodeReleaseFmt, stableReleaseURL)
	}
	release := gjson.ParseBytes(body)
	version := strings.TrimSpace(release.Get("tag_name").String())
	if version == "" {
		version = strings.TrimSpace(release.Get("name").String())
	}
	if version == "" {
		return "", "", errors.New(messages.PayloadReleaseMissingVersion)
	}
	url := release.Get(`assets.#(name=="` + ArtifactName + `").browser_download_url`).String()
	return version, url, nil
}

// nightlyRef returns the first line of the nightly ref file.
func nightlyRef(ctx context.Context) (string, error) {
	body, err := fetch(ctx, nightlyRefURL, "text/plain")
	if err != nil {
		return "", err
	}
	scanner := bufio.NewScanner(bytes.NewReader(body))
	if scanner.Scan() {
		if ref := strings.TrimSpace(scanner.Text()); ref != "" {
			return ref, nil
		}
	}
	return "", fmt.Errorf(messages.PayloadEmptyRefFmt, nightlyRefURL)
}

// fetch GETs url, retrying once on network errors and 5xx responses.
func fetch(ctx context.Context, url string, accept string) ([]byte, error) {
	if ctx == nil {
		ctx = context.Background()
	}
	for attempt := 0; attempt <= fetchRetryCount; attempt++ {
		req, err := newRequest(ctx, url)
		if err != nil {
			return nil, err
		}
		req.Header.Set("Accept", accept)

		resp, err := httpClient.Do(req)
		if err != nil {
			if shouldRetry(err, 0, attempt) {
				time.Sleep(retryDelay)
				continue
			}
			return nil, fmt.Errorf(messages.PayloadFetchFmt, url, err)
		}

		if resp.StatusCode != http.StatusOK {
			if rateLimitErr := rateLimitErrorFromResponse(resp); rateLimitErr != nil {
				_ = resp.Body.Close()
				return nil, rateLimitErr
			}
			status := resp.StatusCode
			statusText := resp.Status
			_ = resp.Body.Close()
			if shouldRetry(nil, status, attempt) {
				time.Sleep(retryDelay)
				continue
			}
			return nil, fmt.Errorf(messages.PayloadFetchStatusFmt, url, statusText)
		}

		body, err := io.ReadAll(io.LimitReader(resp.Body, maxMetadataBytes))
		_ = resp.Body.Close()
		if err != nil {
			if shouldRetry(err, 0, attempt) {
				time.Sleep(retryDelay)
				continue
			}
			return nil, fmt.Errorf(messages.PayloadFetchFmt, url, err)
		}
		return body, nil
	}
	return nil, fmt.Errorf(messages.PayloadFetchFmt, url, errors.New("retry budget exhausted"))
}

func newRequest(ctx context.Context, url string) (*http.Request, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf(messages.PayloadCreateRequestFmt, err)
	}
	req.Header.Set("User-Agent", UserAgent)
	return req, nil
}

func rateLimitErrorFromResponse(resp *http.Response) *RateLimitError {
	if resp == nil {
		return nil
	}
	if resp.StatusCode == http.StatusTooManyRequests {
		return &RateLimitError{StatusCode: resp.StatusCode, Status: resp.Status}
	}
	// GitHub returns 403 Forbidden for unauthenticated exhaustion; confirm with rate-limit headers.
	if resp.StatusCode == http.StatusForbidden {
		remaining, err := strconv.Atoi(strings.TrimSpace(resp.Header.Get("X-RateLimit-Remaining")))
		if err != nil {
			return nil //nolint:nilerr // Missing or malformed header means we cannot confirm rate limiting.
		}
		if remaining == 0 {
			return &RateLimitError{StatusCode: resp.StatusCode, Status: resp.Status, Remaining: &remaining}
		}
	}
	return nil
}

func shouldRetry(err error, statusCode int, attempt int) bool {
	if attempt >= fetchRetryCount {
		return false
	}
	if err != nil {
		if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
			return false
		}
		// A failed write to the local temp file is not transient.
		var pathErr *os.PathError
		if errors.As(err, &pathErr) {
			return false
		}
		var netErr net.Error
		return errors.As(err, &netErr)
	}
	return statusCode >= 500 && statusCode <= 599
}
