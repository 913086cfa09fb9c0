package errors

import (
	"errors"
	"fmt"
	"strings"
)

// Error codes for categorizing errors
const (
	ErrConfig    = "CONFIG"
	ErrScan      = "SCAN"
	ErrStore     = "STORE"
	ErrParams    = "PARAMS"
	ErrAgent     = "AGENT"
	ErrKeygen    = "KEYGEN"
	ErrFS        = "FS"
	ErrClipboard = "CLIPBOARD"
	ErrExec      = "EXEC"
)

// Error represents a structured error with code, message, suggestion, and
// optional cause. Rendered as:
//
//	✗ <What failed>
//
//	  <Why it failed - technical details>
//
//	  <How to fix it - actionable steps>
type Error struct {
	Code       string
	Message    string
	Suggestion string
	Cause      error
}

// New creates a new structured error with the given code, message, and suggestion.
func New(code, message, suggestion string) *Error {
	return &Error{
		Code:       code,
		Message:    message,
		Suggestion: suggestion,
	}
}

// Wrap wraps an existing error with a message, defaulting to ErrExec code.
func Wrap(err error, message string) *Error {
	return &Error{
		Code:    ErrExec,
		Message: message,
		Cause:   err,
	}
}

// WrapWithCode wraps an existing error with a specific code, message, and suggestion.
func WrapWithCode(err error, code, message, suggestion string) *Error {
	return &Error{
		Code:       code,
		Message:    message,
		Suggestion: suggestion,
		Cause:      err,
	}
}

// Error implements the error interface with formatted multi-line output.
func (e *Error) Error() string {
	var b strings.Builder

	// First line: failure symbol + main message
	b.WriteString(fmt.Sprintf("✗ %s\n", e.Message))

	// Include cause if present (why it failed)
	if e.Cause != nil {
		b.WriteString(fmt.Sprintf("\n  %s\n", e.Cause.Error()))
	}

	// Include suggestion if present (how to fix)
	if e.Suggestion != "" {
		b.WriteString(fmt.Sprintf("\n  %s\n", e.Suggestion))
	}

	return b.String()
}

// Unwrap returns the underlying cause for use with errors.Is/errors.As.
func (e *Error) Unwrap() error {
	return e.Cause
}

// IsCode checks if an error is a structured Error with the given code.
func IsCode(err error, code string) bool {
	if err == nil {
		return false
	}
	var skmErr *Error
	if errors.As(err, &skmErr) {
		return skmErr.Code == code
	}
	return false
}

// ExitError carries a process exit code through the error chain so the CLI
// can terminate with the code of a failed external command.
type ExitError struct {
	Code int
}

// NewExitError creates an ExitError for the given exit code.
func NewExitError(code int) *ExitError {
	return &ExitError{Code: code}
}

// Error implements the error interface.
func (e *ExitError) Error() string {
	return fmt.Sprintf("exit code %d", e.Code)
}

// GetExitCode extracts the exit code from an error chain.
// Returns (code, true) if an ExitError is found, (0, false) otherwise.
func GetExitCode(err error) (int, bool) {
	if err == nil {
		return 0, false
	}
	var exitErr *ExitError
	if errors.As(err, &exitErr) {
		return exitErr.Code, true
	}
	return 0, false
}
