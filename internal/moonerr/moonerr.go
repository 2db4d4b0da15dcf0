// Package moonerr classifies failures from filesystem, network and process
// collaborators into the user-facing MoonlightError taxonomy.
package moonerr

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/url"
	"os"

	"github.com/moonlight-mod/moonlight-installer/internal/messages"
)

// Code identifies the class of a MoonlightError.
type Code string

// Error codes surfaced to the UI.
const (
	CodeUnknown           Code = "Unknown"
	CodeWindowsFileLock   Code = "WindowsFileLock"
	CodeMacOSNoPermission Code = "MacOSNoPermission"
	CodeNetworkFailed     Code = "NetworkFailed"
)

// Error is a classified failure. It carries no identity and exists to drive a
// UI error state; the raw message is preserved for user reports.
type Error struct {
	Code    Code   `json:"code"`
	Message string `json:"message"`
	Err     error  `json:"-"`
}

func (e *Error) Error() string {
	switch e.Code {
	case CodeWindowsFileLock:
		return fmt.Sprintf(messages.ErrWindowsFileLockFmt, e.Message)
	case CodeMacOSNoPermission:
		return fmt.Sprintf(messages.ErrMacOSNoPermissionFmt, e.Message)
	case CodeNetworkFailed:
		return fmt.Sprintf(messages.ErrNetworkFailedFmt, e.Message)
	default:
		return fmt.Sprintf(messages.ErrUnknownFmt, e.Message)
	}
}

func (e *Error) Unwrap() error {
	return e.Err
}

// Recoverable reports whether the user can act on the error (close the host,
// grant permissions, retry the network) without filing a report.
func (e *Error) Recoverable() bool {
	return e.Code != CodeUnknown
}

// New builds an Error with the given code and message.
func New(code Code, message string) *Error {
	return &Error{Code: code, Message: message}
}

// Classify converts err into an *Error. Already classified errors are returned
// as is; nil stays nil.
func Classify(err error) *Error {
	if err == nil {
		return nil
	}
	var classified *Error
	if errors.As(err, &classified) {
		return classified
	}
	if code, ok := classifyPlatform(err); ok {
		return &Error{Code: code, Message: err.Error(), Err: err}
	}
	if isNetworkError(err) {
		return &Error{Code: CodeNetworkFailed, Message: err.Error(), Err: err}
	}
	return &Error{Code: CodeUnknown, Message: err.Error(), Err: err}
}

// Is reports whether err classifies as code.
func Is(err error, code Code) bool {
	classified := Classify(err)
	return classified != nil && classified.Code == code
}

// isNetworkError matches transport failures only. syscall.Errno satisfies
// net.Error, so filesystem errors are ruled out before any net check.
func isNetworkError(err error) bool {
	var pathErr *os.PathError
	var linkErr *os.LinkError
	if errors.As(err, &pathErr) || errors.As(err, &linkErr) {
		return false
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return true
	}
	var urlErr *url.Error
	var opErr *net.OpError
	var dnsErr *net.DNSError
	return errors.As(err, &urlErr) || errors.As(err, &opErr) || errors.As(err, &dnsErr)
}
