// Package errors provides error types and utilities for embedup.
// It extends the standard errors package with wrapping helpers and the
// sentinel errors used across the toolchain, release, and shell layers.
package errors

import (
	"errors"
	"fmt"
)

// Version resolution failures.
var (
	// ErrInvalidVersion indicates a version string that is neither a
	// three- nor a four-component version.
	ErrInvalidVersion = errors.New("invalid toolchain version format")

	// ErrNoMatchingRelease indicates no release in the index matches the
	// requested version.
	ErrNoMatchingRelease = errors.New("no matching release found")
)

// Installation failures.
var (
	// ErrFetch indicates a download could not be completed.
	ErrFetch = errors.New("artifact download failed")

	// ErrUnsupportedArchive indicates an archive extension the fetcher
	// cannot extract.
	ErrUnsupportedArchive = errors.New("unsupported archive format")

	// ErrCreateDirectory indicates a destination directory could not be created.
	ErrCreateDirectory = errors.New("failed to create directory")

	// ErrRemoveDirectory indicates a destination directory could not be removed.
	ErrRemoveDirectory = errors.New("failed to remove directory")

	// ErrScriptExecution indicates a bundled installer script exited non-zero.
	ErrScriptExecution = errors.New("installer script failed")

	// ErrVersionMismatch indicates an existing installation reports a
	// version other than the requested one and could not be replaced.
	ErrVersionMismatch = errors.New("existing installation version mismatch")

	// ErrCloneFailed indicates the framework repository clone step failed.
	ErrCloneFailed = errors.New("repository clone failed")

	// ErrBootstrapFailed indicates the framework bootstrap script failed
	// after a successful clone.
	ErrBootstrapFailed = errors.New("framework bootstrap failed")

	// ErrMissingToolManager indicates the external toolchain manager is
	// not installed on the host.
	ErrMissingToolManager = errors.New("rustup not found on PATH")
)

// Shell integration failures.
var (
	// ErrProbeFailed indicates a shell probe could not complete. Non-fatal:
	// the shell is treated as unavailable.
	ErrProbeFailed = errors.New("shell probe failed")

	// ErrPatchFailed indicates an rc file could not be patched. Fatal for
	// that shell only.
	ErrPatchFailed = errors.New("rc file patch failed")

	// ErrCleanupFailed indicates a sourcing line could not be removed.
	ErrCleanupFailed = errors.New("rc file cleanup failed")
)

// wrappedError wraps an error with additional context
type wrappedError struct {
	msg   string
	cause error
}

// Error implements the error interface
func (e *wrappedError) Error() string {
	if e.cause != nil {
		return fmt.Sprintf("%s: %v", e.msg, e.cause)
	}
	return e.msg
}

// Unwrap returns the underlying error
func (e *wrappedError) Unwrap() error {
	return e.cause
}

// Wrap wraps an error with additional context message.
// If err is nil, Wrap returns nil.
func Wrap(err error, msg string) error {
	if err == nil {
		return nil
	}
	return &wrappedError{
		msg:   msg,
		cause: err,
	}
}

// Wrapf wraps an error with a formatted context message.
// If err is nil, Wrapf returns nil.
func Wrapf(err error, format string, args ...interface{}) error {
	if err == nil {
		return nil
	}
	return &wrappedError{
		msg:   fmt.Sprintf(format, args...),
		cause: err,
	}
}

// Is reports whether any error in err's chain matches target.
func Is(err, target error) bool {
	return errors.Is(err, target)
}

// As finds the first error in err's chain that matches target type.
func As(err error, target interface{}) bool {
	return errors.As(err, target)
}

// Unwrap returns the result of calling the Unwrap method on err.
func Unwrap(err error) error {
	return errors.Unwrap(err)
}

// New creates a new error with the given message.
func New(msg string) error {
	return errors.New(msg)
}

// Errorf creates a new error with a formatted message.
func Errorf(format string, args ...interface{}) error {
	return fmt.Errorf(format, args...)
}

// Join wraps errors.Join from the standard library.
func Join(errs ...error) error {
	return errors.Join(errs...)
}
