// Package syncerr defines the sentinel error kinds shared across BinSync's
// store, scheduler, and controller layers, and the log severity each one
// implies. Kinds mirror the teacher's one-sentinel-per-failure-mode
// convention (gitlib.ErrBranchNotFound, config.ErrInvalidMergeLevel, ...)
// rather than a single generic error type callers would have to unwrap.
package syncerr

import (
	"errors"
	"log/slog"
)

// Sentinel errors, one per error kind.
var (
	// ErrNotConnected is returned by any store operation attempted before connect.
	ErrNotConnected = errors.New("binsync: not connected")
	// ErrMetadataNotFound means a branch lacks a metadata.toml file.
	ErrMetadataNotFound = errors.New("binsync: metadata not found")
	// ErrNetworkFailure wraps a failed pull or push round-trip.
	ErrNetworkFailure = errors.New("binsync: network failure")
	// ErrUnsupportedArtifact is a setter/getter lookup miss for an unknown kind.
	ErrUnsupportedArtifact = errors.New("binsync: unsupported artifact")
	// ErrTypeImportFailure means a referenced struct could not be found anywhere.
	ErrTypeImportFailure = errors.New("binsync: type import failure")
	// ErrFillException covers any error inside the locked decompiler-write block.
	ErrFillException = errors.New("binsync: fill exception")
	// ErrConfigError is an invalid configuration value; defaults are substituted.
	ErrConfigError = errors.New("binsync: config error")
	// ErrFingerprintMismatch means the repo on disk was initialized for a
	// different binary. Unlike every other kind, this is fatal.
	ErrFingerprintMismatch = errors.New("binsync: fingerprint mismatch")
)

// Severity reports the slog level a caught instance of this error kind
// should be logged at, per the propagation policy: background-thread
// failures are logged and swallowed, never raised past the worker boundary.
func Severity(err error) slog.Level {
	switch {
	case errors.Is(err, ErrFingerprintMismatch), errors.Is(err, ErrNotConnected):
		return slog.LevelError
	case errors.Is(err, ErrNetworkFailure), errors.Is(err, ErrFillException):
		return slog.LevelWarn
	case errors.Is(err, ErrUnsupportedArtifact), errors.Is(err, ErrTypeImportFailure),
		errors.Is(err, ErrMetadataNotFound), errors.Is(err, ErrConfigError):
		return slog.LevelInfo
	default:
		return slog.LevelWarn
	}
}

// Fatal reports whether err is one of the two kinds the spec allows to
// propagate all the way to an API-level caller (NotConnected,
// FingerprintMismatch); every other kind is caught and logged at its
// worker boundary.
func Fatal(err error) bool {
	return errors.Is(err, ErrNotConnected) || errors.Is(err, ErrFingerprintMismatch)
}
