// Package clierr defines structured error types for the board core and CLI.
// Errors carry a machine-readable code, a human-readable message, an optional
// wrapped cause, and optional details for machine consumption.
package clierr

import (
	"errors"
	"fmt"
	"strconv"
)

// Error codes are stable, uppercase and underscore-separated.
const (
	// ParseError marks malformed structure: missing name heading, non-list
	// column content, unparseable date or number.
	ParseError = "PARSE_ERROR"
	// ValidationError marks schema violations. The message aggregates every
	// violation found.
	ValidationError = "VALIDATION_ERROR"
	// SemanticError marks well-formed input that references something that
	// does not exist or has the wrong type (unknown sprint, unknown filter field).
	SemanticError = "SEMANTIC_ERROR"

	BoardNotFound        = "BOARD_NOT_FOUND"
	BoardAlreadyExists   = "BOARD_ALREADY_EXISTS"
	TaskNotFound         = "TASK_NOT_FOUND"
	TaskAlreadyExists    = "TASK_ALREADY_EXISTS"
	ColumnNotFound       = "COLUMN_NOT_FOUND"
	InvalidInput         = "INVALID_INPUT"
	ConfirmationRequired = "CONFIRMATION_REQUIRED"
	InternalError        = "INTERNAL_ERROR"
)

// Error represents a structured error with a machine-readable code.
type Error struct {
	Code    string
	Message string
	Details map[string]any
	Err     error
}

// Error implements the error interface.
func (e *Error) Error() string {
	if e.Err == nil {
		return e.Message
	}
	if e.Message == "" {
		return e.Err.Error()
	}
	return e.Message + ": " + e.Err.Error()
}

// Unwrap returns the wrapped cause, if any.
func (e *Error) Unwrap() error { return e.Err }

// New creates an Error with the given code and message.
func New(code, message string) *Error {
	return &Error{Code: code, Message: message}
}

// Newf creates an Error with a formatted message.
func Newf(code, format string, args ...any) *Error {
	return &Error{Code: code, Message: fmt.Sprintf(format, args...)}
}

// Wrap returns an Error that prefixes err with an operation context, e.g.
// Wrap(ParseError, "unable to parse index", err). A nil err yields nil.
func Wrap(code, context string, err error) *Error {
	if err == nil {
		return nil
	}
	return &Error{Code: code, Message: context, Err: err}
}

// WithDetails returns the error with the given details map attached.
func (e *Error) WithDetails(details map[string]any) *Error {
	e.Details = details
	return e
}

// HasCode reports whether any *Error in err's chain carries code.
func HasCode(err error, code string) bool {
	for err != nil {
		var e *Error
		if !errors.As(err, &e) {
			return false
		}
		if e.Code == code {
			return true
		}
		err = e.Err
	}
	return false
}

// ExitCode returns 2 for InternalError, 1 for all others.
func (e *Error) ExitCode() int {
	if e.Code == InternalError {
		return 2 //nolint:mnd // exit code 2 for internal errors
	}
	return 1
}

// SilentError signals an exit code without additional output.
// Used by batch operations where results are already written to stdout.
type SilentError struct {
	Code int
}

// Error implements the error interface.
func (e *SilentError) Error() string { return "exit " + strconv.Itoa(e.Code) }
