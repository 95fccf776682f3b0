// Package xerrors defines the error kinds exchanged across the update
// pipeline and the mirror builder, and a small wrapping helper that keeps
// errors.Is/errors.As working through the chain.
package xerrors

import (
	"errors"
	"fmt"

	"github.com/urixen-org/instancesync/src/locale"
)

// Sentinel error kinds. Components compare against these with errors.Is;
// callers that need structured fields (URL, code, ...) wrap one of these
// sentinels with fmt.Errorf("...: %w", ...) via Wrap/Wrapf below.
var (
	// ErrNetwork covers I/O failure while talking to an origin.
	ErrNetwork = fmt.Errorf("network error")
	// ErrHTTPStatus covers a response whose status code did not match what
	// the caller expected.
	ErrHTTPStatus = fmt.Errorf("unexpected http status")
	// ErrDecode covers a malformed response body.
	ErrDecode = fmt.Errorf("decode error")
	// ErrIO covers local filesystem failures.
	ErrIO = fmt.Errorf("io error")
	// ErrHashMismatch is returned when a downloaded or existing file's hash
	// does not match the expected value.
	ErrHashMismatch = fmt.Errorf("hash mismatch")
	// ErrManifestNotFound is returned when no release entry matches the
	// requested game version.
	ErrManifestNotFound = fmt.Errorf("manifest not found")
	// ErrNoSources is returned when a source list is empty.
	ErrNoSources = fmt.Errorf("no sources")
	// ErrArtifactFetchFailed is returned when every source for a task has
	// been exhausted without success.
	ErrArtifactFetchFailed = fmt.Errorf("artifact fetch failed")
	// ErrUpdateRequiredOffline is a policy error: an update is required but
	// no network connection is available.
	ErrUpdateRequiredOffline = fmt.Errorf("update required but offline")
	// ErrUpdateRequiredNoManifest is a policy error: an update is required
	// but the instance has no manifest URL to update from.
	ErrUpdateRequiredNoManifest = fmt.Errorf("update required but instance has no manifest url")
	// ErrCancelled is returned when a caller-requested cancellation unwound
	// an in-flight operation.
	ErrCancelled = fmt.Errorf("cancelled")
)

// Wrap attaches context to err while keeping err (and anything it itself
// wraps) discoverable via errors.Is/errors.As.
func Wrap(err error, context string) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("%s: %w", context, err)
}

// Wrapf is Wrap with a formatted context string.
func Wrapf(err error, format string, args ...any) error {
	if err == nil {
		return nil
	}
	return Wrap(err, fmt.Sprintf(format, args...))
}

// NetworkError reports an I/O failure while fetching url.
func NetworkError(url string, cause error) error {
	return Wrapf(ErrNetwork, "%s: %v", url, cause)
}

// HTTPStatusError reports that url responded with an unexpected status code.
func HTTPStatusError(url string, code int) error {
	return Wrapf(ErrHTTPStatus, "%s: status %d", url, code)
}

// kindKeys maps each sentinel to the locale.Locale message key a caller
// should show the user for it, per spec §7 ("All errors carry a
// user-facing, localized message via the locale collaborator").
var kindKeys = map[error]string{
	ErrNetwork:                  "error.network",
	ErrHTTPStatus:               "error.http_status",
	ErrDecode:                   "error.decode",
	ErrIO:                       "error.io",
	ErrHashMismatch:             "error.hash_mismatch",
	ErrManifestNotFound:         "error.manifest_not_found",
	ErrNoSources:                "error.no_sources",
	ErrArtifactFetchFailed:      "error.artifact_fetch_failed",
	ErrUpdateRequiredOffline:    "error.update_required_offline",
	ErrUpdateRequiredNoManifest: "error.update_required_no_manifest",
	ErrCancelled:                "error.cancelled",
}

// Localize resolves err to one of the sentinels above via errors.Is and asks
// loc for the matching user-facing string, falling back to a generic key for
// errors that don't match any known sentinel (e.g. an unwrapped stdlib
// error from a collaborator this package doesn't know about).
func Localize(loc locale.Locale, err error) string {
	for sentinel, key := range kindKeys {
		if errors.Is(err, sentinel) {
			return loc.Message(key, err.Error())
		}
	}
	return loc.Message("error.unknown", err.Error())
}
