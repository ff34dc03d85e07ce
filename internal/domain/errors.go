package domain

import "errors"

// Sentinel errors for cross-package failure classification. Lower layers
// wrap these so callers can branch with errors.Is without importing
// transport- or provider-specific packages.
//
//	return fmt.Errorf("dial %s: %w", addr, domain.ErrUnreachable)
var (
	// ErrKeyNotFound indicates no usable private key exists at the
	// resolved path(s). Fatal; never retried.
	ErrKeyNotFound = errors.New("ssh private key not found")

	// ErrAuthRejected indicates the host was reachable but rejected the
	// credentials. Fatal; never retried.
	ErrAuthRejected = errors.New("ssh authentication rejected")

	// ErrUnreachable indicates the connection attempt exceeded its
	// bounded wait. Often transient: freshly created servers may still
	// be booting, so callers decide whether to retry.
	ErrUnreachable = errors.New("host unreachable")

	// ErrExecutionFailed indicates the remote script exited non-zero.
	ErrExecutionFailed = errors.New("remote execution failed")

	// ErrTimedOut indicates the execution or result read-back exceeded
	// its deadline. Playbooks are idempotent, so rerunning is safe.
	ErrTimedOut = errors.New("remote operation timed out")

	// ErrMalformedResult indicates the script exited zero but wrote an
	// empty or unparsable result document.
	ErrMalformedResult = errors.New("malformed playbook result")

	// ErrTransport covers any other network-level failure.
	ErrTransport = errors.New("transport error")

	// ErrNotFound indicates the requested inventory record does not exist.
	ErrNotFound = errors.New("not found")

	// ErrConflict indicates a uniqueness conflict, such as a duplicate
	// server name or host in the inventory.
	ErrConflict = errors.New("conflict")
)
