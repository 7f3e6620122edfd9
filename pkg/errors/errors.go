// Package errors provides the unified error type and factory functions for
// phreeqprep.  Every layer (domain, application, infrastructure, interfaces)
// reports failures as *AppError so that the CLI, the HTTP API and the logs all
// see the same code, message and detail.
package errors

import (
	"errors"
	"fmt"
	"runtime"
	"strings"
)

// stackDepth is the maximum number of frames captured per error.
const stackDepth = 32

// captureStack returns a formatted call-stack string starting two frames above
// the caller (skipping captureStack itself and New/Wrap).
func captureStack(skip int) string {
	pcs := make([]uintptr, stackDepth)
	n := runtime.Callers(skip+2, pcs)
	if n == 0 {
		return ""
	}
	frames := runtime.CallersFrames(pcs[:n])
	var sb strings.Builder
	for {
		f, more := frames.Next()
		if !strings.Contains(f.File, "runtime/") {
			fmt.Fprintf(&sb, "\n\t%s:%d %s", f.File, f.Line, f.Function)
		}
		if !more {
			break
		}
	}
	return sb.String()
}

// ─────────────────────────────────────────────────────────────────────────────
// AppError
// ─────────────────────────────────────────────────────────────────────────────

// AppError is the single structured error type used throughout phreeqprep.
// It supports Go 1.13+ wrapping so errors.Is / errors.As / errors.Unwrap work
// across layers.
//
// Usage:
//
//	return errors.New(errors.ErrCodeUnknownSection, "'PHASE' is not a valid section")
//	return errors.Wrap(err, errors.ErrCodeDatabaseParse, "failed to read database")
//	return errors.InvalidColumn("Foo", "pitzer").WithDetail("removal disabled")
type AppError struct {
	// Code identifies the failure category.
	Code ErrorCode

	// Message is the primary human-readable description.
	Message string

	// Detail carries supplementary context (valid section names, the
	// database a column was checked against, ...).
	Detail string

	// Cause is the underlying error, if any.
	Cause error

	// Stack is the call stack captured at creation.  It is not part of
	// Error() output.
	Stack string
}

// Error implements the error interface.
// Format: "[<code>] <message>: <detail>"; the detail segment is omitted when empty.
func (e *AppError) Error() string {
	if e.Detail != "" {
		return fmt.Sprintf("[%s] %s: %s", e.Code, e.Message, e.Detail)
	}
	return fmt.Sprintf("[%s] %s", e.Code, e.Message)
}

// Unwrap returns the underlying cause.
func (e *AppError) Unwrap() error {
	return e.Cause
}

// Is reports whether target is an *AppError with the same code.  This lets
// sentinel AppErrors be matched with errors.Is regardless of detail.
func (e *AppError) Is(target error) bool {
	var t *AppError
	if !errors.As(target, &t) {
		return false
	}
	return t.Code == e.Code && (t.Message == "" || t.Message == e.Message)
}

// WithDetail returns a shallow copy of the receiver with Detail set.
// It is safe to call on a nil pointer (returns nil).
func (e *AppError) WithDetail(detail string) *AppError {
	if e == nil {
		return nil
	}
	clone := *e
	clone.Detail = detail
	return &clone
}

// WithCause returns a shallow copy of the receiver with Cause set to err.
func (e *AppError) WithCause(err error) *AppError {
	if e == nil {
		return nil
	}
	clone := *e
	clone.Cause = err
	return &clone
}

// ─────────────────────────────────────────────────────────────────────────────
// Primary factory functions
// ─────────────────────────────────────────────────────────────────────────────

// New constructs a fresh AppError with the given code and message.
func New(code ErrorCode, message string) *AppError {
	return &AppError{
		Code:    code,
		Message: message,
		Stack:   captureStack(1),
	}
}

// Newf is New with fmt.Sprintf formatting.
func Newf(code ErrorCode, format string, args ...interface{}) *AppError {
	return &AppError{
		Code:    code,
		Message: fmt.Sprintf(format, args...),
		Stack:   captureStack(1),
	}
}

// Wrap constructs an AppError that wraps err.  If err is nil, Wrap returns nil
// so it can be used inline.  When err is already an *AppError and code is
// ErrCodeUnknown the original code is preserved.
func Wrap(err error, code ErrorCode, message string) *AppError {
	if err == nil {
		return nil
	}
	if code == ErrCodeUnknown {
		var ae *AppError
		if errors.As(err, &ae) {
			code = ae.Code
		}
	}
	return &AppError{
		Code:    code,
		Message: message,
		Cause:   err,
		Stack:   captureStack(1),
	}
}

// ─────────────────────────────────────────────────────────────────────────────
// Error-chain inspection helpers
// ─────────────────────────────────────────────────────────────────────────────

// IsCode reports whether any error in err's chain is an *AppError with code.
func IsCode(err error, code ErrorCode) bool {
	var ae *AppError
	for err != nil {
		if errors.As(err, &ae) && ae.Code == code {
			return true
		}
		err = errors.Unwrap(err)
	}
	return false
}

// IsNotFound reports whether err's chain carries one of the not-found codes.
func IsNotFound(err error) bool {
	return IsCode(err, ErrCodeNotFound) ||
		IsCode(err, ErrCodeDatabaseNotFound) ||
		IsCode(err, ErrCodeUnknownSection) ||
		IsCode(err, ErrCodeCacheMiss)
}

// IsValidation reports whether err's chain carries a client-input code.
func IsValidation(err error) bool {
	code := GetCode(err)
	return code == ErrCodeValidation ||
		code == ErrCodeBadRequest ||
		code == ErrCodeInvalidColumn ||
		code == ErrCodeAmbiguousName ||
		code == ErrCodeInvalidValue ||
		code == ErrCodeDatabaseInvalidName ||
		code == ErrCodeInvalidFormula
}

// GetCode extracts the ErrorCode from the first *AppError in err's chain.
// It returns ErrCodeOK for nil and ErrCodeUnknown when no AppError is present.
func GetCode(err error) ErrorCode {
	if err == nil {
		return ErrCodeOK
	}
	var ae *AppError
	if errors.As(err, &ae) {
		return ae.Code
	}
	return ErrCodeUnknown
}

// As and Is are re-exported so callers need only one errors import.
func As(err error, target interface{}) bool { return errors.As(err, target) }

func Is(err, target error) bool { return errors.Is(err, target) }

// ─────────────────────────────────────────────────────────────────────────────
// Convenience constructors
// ─────────────────────────────────────────────────────────────────────────────

// NotFound constructs a generic ErrCodeNotFound AppError.
func NotFound(message string) *AppError {
	return &AppError{Code: ErrCodeNotFound, Message: message, Stack: captureStack(1)}
}

// InvalidParam constructs an ErrCodeBadRequest AppError.
func InvalidParam(message string) *AppError {
	return &AppError{Code: ErrCodeBadRequest, Message: message, Stack: captureStack(1)}
}

// Internal constructs an ErrCodeInternal AppError.
func Internal(message string) *AppError {
	return &AppError{Code: ErrCodeInternal, Message: message, Stack: captureStack(1)}
}

// DatabaseNotFound reports that no database file exists at path.
func DatabaseNotFound(path string) *AppError {
	return &AppError{
		Code:    ErrCodeDatabaseNotFound,
		Message: fmt.Sprintf("database file %q does not exist", path),
		Stack:   captureStack(1),
	}
}

// InvalidDatabaseName reports that name matches none of the bundled databases.
func InvalidDatabaseName(name string, valid []string) *AppError {
	return &AppError{
		Code:    ErrCodeDatabaseInvalidName,
		Message: fmt.Sprintf("the database '%s' does not exist", name),
		Detail: fmt.Sprintf("provide a complete path to a database file, or use one of: [%s]",
			strings.Join(valid, ", ")),
		Stack: captureStack(1),
	}
}

// UnknownSection reports a section lookup for a name that is not indexed.
// The detail lists every valid section name.
func UnknownSection(section string, valid []string) *AppError {
	return &AppError{
		Code:    ErrCodeUnknownSection,
		Message: fmt.Sprintf("'%s' is not a valid section", section),
		Detail:  "choose one of: " + strings.Join(valid, ", "),
		Stack:   captureStack(1),
	}
}

// InvalidColumn reports a composition-table key that could neither be kept
// nor translated for database.
func InvalidColumn(column, database string) *AppError {
	return &AppError{
		Code:    ErrCodeInvalidColumn,
		Message: fmt.Sprintf("column '%s' is not a valid input for database '%s'", column, database),
		Stack:   captureStack(1),
	}
}

// AmbiguousName reports that two input keys resolve to the same species name.
func AmbiguousName(name string, candidates ...string) *AppError {
	return &AppError{
		Code:    ErrCodeAmbiguousName,
		Message: fmt.Sprintf("'%s' is ambiguous", name),
		Detail:  "resolved from: " + strings.Join(candidates, ", "),
		Stack:   captureStack(1),
	}
}

//Personal.AI order the ending
