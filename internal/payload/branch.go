// Package payload tracks the moonlight payload: which branch is selected,
// which version is installed locally, which is latest upstream, and the
// download that replaces one with the other.
package payload

import (
	"fmt"
	"strings"

	"golang.org/x/mod/semver"

	"github.com/moonlight-mod/moonlight-installer/internal/messages"
)

// Branch is the payload release stream.
type Branch string

// Payload branches.
const (
	BranchStable  Branch = "stable"
	BranchNightly Branch = "nightly"
)

// Branches lists every branch in display order.
var Branches = []Branch{BranchStable, BranchNightly}

// ParseBranch accepts a branch name case-insensitively.
func ParseBranch(s string) (Branch, error) {
	for _, b := range Branches {
		if strings.EqualFold(strings.TrimSpace(s), string(b)) {
			return b, nil
		}
	}
	return "", fmt.Errorf(messages.PayloadUnknownBranchFmt, s)
}

// Name is the display name of the branch.
func (b Branch) Name() string {
	switch b {
	case BranchNightly:
		return "Nightly"
	default:
		return "Stable"
	}
}

// Description is the one-line summary shown next to the branch picker.
func (b Branch) Description() string {
	switch b {
	case BranchNightly:
		return "In-progress development snapshots while it's being worked on. May contain issues."
	default:
		return "Periodic updates and fixes when they're ready. Suggested for most users."
	}
}

func (b Branch) String() string {
	return string(b)
}

// Kind classifies a payload version string.
type Kind string

// Version kinds. Stable releases carry tags, nightly builds carry commits.
const (
	KindAbsent  Kind = "absent"
	KindTag     Kind = "tag"
	KindCommit  Kind = "commit"
	KindUnknown Kind = "unknown"
)

// KindOf classifies version. Tags are semver-like, optionally without the
// leading v; commits are 7 to 40 hex digits.
func KindOf(version string) Kind {
	v := strings.TrimSpace(version)
	switch {
	case v == "":
		return KindAbsent
	case semver.IsValid(v) || semver.IsValid("v"+v):
		return KindTag
	case isCommit(v):
		return KindCommit
	default:
		return KindUnknown
	}
}

func isCommit(v string) bool {
	if len(v) < 7 || len(v) > 40 {
		return false
	}
	for _, r := range v {
		if !strings.ContainsRune("0123456789abcdefABCDEF", r) {
			return false
		}
	}
	return true
}

// NeedsUpdate reports whether the installed version differs from the latest.
// Absent equals absent; any other mismatch, including absent against present
// on either side, needs an update.
func NeedsUpdate(installed, latest string) bool {
	return installed != latest
}
