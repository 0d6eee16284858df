// Package common provides shared constants, types, and utilities
// used across the xvpnctl application.
package common

import "errors"

// Sentinel errors for helper protocol operations.
// These can be checked with errors.Is() for proper error handling.
var (
	// Connection errors.
	ErrNotConnected     = errors.New("no active connection")
	ErrConnectionFailed = errors.New("connection failed")
	ErrTimeout          = errors.New("operation timed out")

	// Location errors.
	ErrLocationsNotLoaded = errors.New("locations have not been loaded")
	ErrLocationNotFound   = errors.New("location not found")

	// Setup errors.
	ErrManifestNotFound    = errors.New("native messaging manifest not found")
	ErrUnsupportedProtocol = errors.New("unsupported manifest transport type")
	ErrHelperNotFound      = errors.New("helper executable not found")

	// Transport errors.
	ErrTransportClosed = errors.New("transport is closed")
	ErrFrameTooLarge   = errors.New("frame exceeds maximum message size")

	// Configuration errors.
	ErrConfigLoad = errors.New("failed to load configuration")
	ErrConfigSave = errors.New("failed to save configuration")
)

// WrapError wraps an error with additional context.
func WrapError(err error, message string) error {
	if err == nil {
		return nil
	}
	return &wrappedError{
		msg: message,
		err: err,
	}
}

type wrappedError struct {
	msg string
	err error
}

func (e *wrappedError) Error() string {
	return e.msg + ": " + e.err.Error()
}

func (e *wrappedError) Unwrap() error {
	return e.err
}

// StateError reports a workflow that ended in an unexpected terminal state.
// It unwraps to ErrConnectionFailed and carries the state for diagnostics.
type StateError struct {
	// Op is the workflow that failed ("connect" or "disconnect").
	Op string
	// State is the terminal state that was observed.
	State string
}

func (e *StateError) Error() string {
	return e.Op + " failed: helper reported state " + e.State
}

func (e *StateError) Unwrap() error {
	return ErrConnectionFailed
}
