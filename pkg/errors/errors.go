// Package errors provides structured error types for the untangle analyzer.
//
// This package defines error codes and types that enable:
//   - Consistent error handling across CLI and API
//   - Machine-readable error codes for programmatic handling
//   - Error wrapping with context preservation
//
// # Propagation policy
//
// Construction-time failures (UNKNOWN_NODE, INVALID_GRAPH) are fatal and
// surfaced immediately: an invalid graph makes everything downstream
// meaningless. Everything after the graph is accepted — truncated
// enumeration, failed strategies, unresolved cycles — is accumulated into
// the analysis report instead of being thrown, because the dominant use
// case is "fix what you can, report what you can't".
//
// # Usage
//
//	err := errors.New(errors.ErrCodeInvalidGraph, "duplicate component: %s", id)
//	if errors.Is(err, errors.ErrCodeInvalidGraph) {
//	    // Handle construction failure
//	}
//
//	// Wrap existing errors
//	err := errors.Wrap(errors.ErrCodeUnknownNode, origErr, "edge %s -> %s", from, to)
package errors

import (
	"errors"
	"fmt"
)

// Code represents a machine-readable error code.
type Code string

// Error codes for different error categories.
const (
	// Graph construction errors (fatal).
	ErrCodeUnknownNode  Code = "UNKNOWN_NODE"
	ErrCodeInvalidGraph Code = "INVALID_GRAPH"
	ErrCodeInvalidInput Code = "INVALID_INPUT"

	// Analysis outcomes (accumulated in the report, not thrown).
	ErrCodeEnumerationTruncated Code = "ENUMERATION_TRUNCATED"
	ErrCodeStrategyFailed       Code = "STRATEGY_FAILED"
	ErrCodeUnresolvedCycle      Code = "UNRESOLVED_CYCLE"

	// Infrastructure errors.
	ErrCodeCache       Code = "CACHE_ERROR"
	ErrCodeInternal    Code = "INTERNAL_ERROR"
	ErrCodeUnsupported Code = "UNSUPPORTED"
)

// Error is a structured error with a code and optional cause.
type Error struct {
	Code    Code   // Machine-readable error code
	Message string // Human-readable message
	Cause   error  // Underlying error (optional)
}

// Error implements the error interface.
func (e *Error) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %s: %v", e.Code, e.Message, e.Cause)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// Unwrap returns the underlying cause for errors.Is/As compatibility.
func (e *Error) Unwrap() error {
	return e.Cause
}

// New creates a new Error with the given code and formatted message.
func New(code Code, format string, args ...any) *Error {
	return &Error{
		Code:    code,
		Message: fmt.Sprintf(format, args...),
	}
}

// Wrap creates a new Error wrapping an existing error.
func Wrap(code Code, cause error, format string, args ...any) *Error {
	return &Error{
		Code:    code,
		Message: fmt.Sprintf(format, args...),
		Cause:   cause,
	}
}

// Is reports whether err has the given error code.
// It unwraps the error chain looking for an *Error with a matching code.
func Is(err error, code Code) bool {
	var e *Error
	if errors.As(err, &e) {
		return e.Code == code
	}
	return false
}

// GetCode extracts the error code from an error, if available.
// Returns empty string if the error is not an *Error.
func GetCode(err error) Code {
	var e *Error
	if errors.As(err, &e) {
		return e.Code
	}
	return ""
}

// UserMessage returns a user-friendly message for the error.
// For *Error types, returns the message without the code prefix.
// For other errors, returns the error string as-is.
func UserMessage(err error) string {
	var e *Error
	if errors.As(err, &e) {
		return e.Message
	}
	return err.Error()
}
