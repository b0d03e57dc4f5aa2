// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package cli

import "fmt"

// ErrorCategory classifies command errors. The category decides the
// process exit code so scripts can tell bad input apart from a
// machine that cannot be read.
type ErrorCategory string

const (
	// CategoryValidation: bad flags, arguments or configuration.
	CategoryValidation ErrorCategory = "validation"

	// CategoryNotFound: a named file, device or sensor does not exist.
	CategoryNotFound ErrorCategory = "not_found"

	// CategoryUnavailable indicates the hardware or an interface it
	// depends on could not be reached (no permission for /dev/port,
	// no TTY for the monitor). Retrying with more privileges or on
	// other hardware may help.
	CategoryUnavailable ErrorCategory = "unavailable"

	// CategoryInternal indicates an unexpected failure: I/O errors
	// writing a snapshot, encoder failures, bugs.
	CategoryInternal ErrorCategory = "internal"
)

// Exit codes per category. 1 stays the generic failure.
const (
	exitInternal    = 1
	exitValidation  = 2
	exitNotFound    = 3
	exitUnavailable = 4
)

// ToolError is a categorized command error. It wraps the underlying
// error so errors.Is and errors.As still see the full chain; Hint is
// printed after the message when set.
type ToolError struct {
	Category ErrorCategory
	Err      error
	Hint     string
}

func (e *ToolError) Error() string {
	if e.Hint == "" {
		return e.Err.Error()
	}
	return e.Err.Error() + "\n\n" + e.Hint
}

func (e *ToolError) Unwrap() error { return e.Err }

// WithHint attaches a remediation hint and returns the receiver.
func (e *ToolError) WithHint(hint string) *ToolError {
	e.Hint = hint
	return e
}

// ExitCode maps the category to the process exit code; process.Fatal
// picks it up through its exitCoder check.
func (e *ToolError) ExitCode() int {
	switch e.Category {
	case CategoryValidation:
		return exitValidation
	case CategoryNotFound:
		return exitNotFound
	case CategoryUnavailable:
		return exitUnavailable
	default:
		return exitInternal
	}
}

// Validation creates a validation error: the caller provided bad input.
func Validation(format string, args ...any) *ToolError {
	return &ToolError{Category: CategoryValidation, Err: fmt.Errorf(format, args...)}
}

// NotFound creates a not-found error.
func NotFound(format string, args ...any) *ToolError {
	return &ToolError{Category: CategoryNotFound, Err: fmt.Errorf(format, args...)}
}

// Unavailable creates an error for hardware or interfaces that could
// not be reached.
func Unavailable(format string, args ...any) *ToolError {
	return &ToolError{Category: CategoryUnavailable, Err: fmt.Errorf(format, args...)}
}

// Internal creates an internal error: an unexpected failure, bug, or I/O error.
func Internal(format string, args ...any) *ToolError {
	return &ToolError{Category: CategoryInternal, Err: fmt.Errorf(format, args...)}
}
