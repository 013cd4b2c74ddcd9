package errors

import (
	"errors"
	"fmt"
	"time"
)

// Common error values for the sprinkler client
var (
	// Configuration errors
	ErrMissingConfig = errors.New("missing required configuration")

	// Authentication errors
	ErrDevSignInDisabled = errors.New("developer sign-in is not available in this build")
	ErrInvalidState      = errors.New("invalid oauth state")
	ErrNoSession         = errors.New("no active session")

	// Wait errors
	ErrTimeout = errors.New("timed out")

	// Table errors
	ErrNotFound    = errors.New("not found")
	ErrInternal    = errors.New("internal error")
	ErrUnsupported = errors.New("unsupported operation")
)

// ConfigurationError reports a required environment value that is absent.
// It is fatal at startup.
type ConfigurationError struct {
	Vars []string
	Err  error
}

func (e *ConfigurationError) Error() string {
	if len(e.Vars) == 0 {
		return fmt.Sprintf("configuration: %v", e.Err)
	}
	return fmt.Sprintf("configuration: %v: %v", e.Err, e.Vars)
}

func (e *ConfigurationError) Unwrap() error { return e.Err }

// AuthError is returned when the remote auth service rejects a call.
type AuthError struct {
	Op  string
	Err error
}

func (e *AuthError) Error() string {
	return fmt.Sprintf("auth %s: %v", e.Op, e.Err)
}

func (e *AuthError) Unwrap() error { return e.Err }

// TimeoutError is returned when a wait exceeds its deadline.
type TimeoutError struct {
	Op    string
	After time.Duration
}

func (e *TimeoutError) Error() string {
	return fmt.Sprintf("%s timed out after %s", e.Op, e.After)
}

func (e *TimeoutError) Unwrap() error { return ErrTimeout }

// RemoteOperationError describes a failed call against the hosted backend.
type RemoteOperationError struct {
	Op      string
	Table   string
	Status  int
	Code    string
	Message string
	Err     error
}

func (e *RemoteOperationError) Error() string {
	msg := e.Message
	if msg == "" && e.Err != nil {
		msg = e.Err.Error()
	}
	if e.Table != "" {
		return fmt.Sprintf("%s %s: %s", e.Op, e.Table, msg)
	}
	return fmt.Sprintf("%s: %s", e.Op, msg)
}

func (e *RemoteOperationError) Unwrap() error { return e.Err }

// ValidationError carries field problems. It is returned as data, never thrown
// across a store boundary.
type ValidationError struct {
	Problems []string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("validation failed: %d problem(s)", len(e.Problems))
}

// Wrapf wraps an error with context using fmt.Errorf
func Wrapf(err error, format string, args ...interface{}) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf(format+": %w", append(args, err)...)
}

// Is reports whether any error in err's chain matches target
func Is(err, target error) bool {
	return errors.Is(err, target)
}

// As finds the first error in err's chain that matches target
func As(err error, target interface{}) bool {
	return errors.As(err, target)
}

// New is errors.New, re-exported so callers need only one errors import.
func New(text string) error {
	return errors.New(text)
}

// Message returns a human readable message for err, or fallback when err has none.
func Message(err error, fallback string) string {
	if err == nil {
		return ""
	}
	var remote *RemoteOperationError
	if As(err, &remote) && remote.Message != "" {
		return remote.Message
	}
	if msg := err.Error(); msg != "" {
		return msg
	}
	return fallback
}
