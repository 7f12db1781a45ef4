package checker

import "errors"

var (
	// ErrBusy reports that a check is already in flight on this Checker.
	// Callers retry after the current run finishes; nothing is queued.
	ErrBusy = errors.New("check already in progress")

	// ErrTimeout reports that the session deadline elapsed before the
	// backend completed its turn. Single shot: the caller decides whether
	// to try again.
	ErrTimeout = errors.New("session timed out")

	// ErrEmptyInput reports that the source provider produced no text to
	// analyze.
	ErrEmptyInput = errors.New("no source text to analyze")

	// ErrCancelled reports that the run was stopped by Cancel or by the
	// caller's context before completion.
	ErrCancelled = errors.New("check cancelled")

	// ErrNoCredential reports a request without an API credential.
	ErrNoCredential = errors.New("missing API credential")
)
