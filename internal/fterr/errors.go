// Package fterr defines the error taxonomy shared by the full-text SQL
// synthesis packages.
//
// Every failure is local to a single build or compile call. Nothing here is
// retried or recovered: callers fail the whole call and surface the error.
package fterr

import (
	"errors"
	"fmt"
)

// Code categorizes synthesis errors.
type Code string

const (
	// CodePrecondition indicates a caller broke an input contract
	// (empty column set, empty index command, missing keywords).
	CodePrecondition Code = "PRECONDITION_VIOLATION"

	// CodeEscaping indicates text could not be rendered as a SQL literal.
	CodeEscaping Code = "ESCAPING_FAILURE"

	// CodeConfigMissing indicates the text search configuration source
	// returned nothing usable.
	CodeConfigMissing Code = "CONFIGURATION_MISSING"

	// CodeQuoting indicates an identifier could not be quoted.
	CodeQuoting Code = "QUOTING_FAILURE"
)

// Error is a synthesis error with a category code.
type Error struct {
	// Code identifies the error category.
	Code Code

	// Op names the operation that failed (e.g. "fulltext.Rank").
	Op string

	// Message is a human-readable description.
	Message string

	// Err is the underlying cause, if any.
	Err error
}

// Error implements the error interface.
func (e *Error) Error() string {
	msg := fmt.Sprintf("%s: %s", e.Code, e.Message)
	if e.Op != "" {
		msg = fmt.Sprintf("%s: %s", e.Op, msg)
	}
	if e.Err != nil {
		msg = fmt.Sprintf("%s: %v", msg, e.Err)
	}
	return msg
}

func (e *Error) Unwrap() error {
	return e.Err
}

// Precondition creates a PreconditionViolation error.
func Precondition(op, format string, args ...any) *Error {
	return &Error{Code: CodePrecondition, Op: op, Message: fmt.Sprintf(format, args...)}
}

// Escaping creates an EscapingFailure error.
func Escaping(op, format string, args ...any) *Error {
	return &Error{Code: CodeEscaping, Op: op, Message: fmt.Sprintf(format, args...)}
}

// ConfigMissing creates a ConfigurationMissing error wrapping cause (may be nil).
func ConfigMissing(op string, cause error) *Error {
	return &Error{
		Code:    CodeConfigMissing,
		Op:      op,
		Message: "text search configuration is not set",
		Err:     cause,
	}
}

// Quoting creates a QuotingFailure error.
func Quoting(op, format string, args ...any) *Error {
	return &Error{Code: CodeQuoting, Op: op, Message: fmt.Sprintf(format, args...)}
}

// CodeOf returns the code of the first *Error in err's chain, or "".
func CodeOf(err error) Code {
	var fe *Error
	if errors.As(err, &fe) {
		return fe.Code
	}
	return ""
}

// IsPrecondition reports whether err is a PreconditionViolation.
func IsPrecondition(err error) bool {
	return CodeOf(err) == CodePrecondition
}

// IsEscaping reports whether err is an EscapingFailure.
func IsEscaping(err error) bool {
	return CodeOf(err) == CodeEscaping
}

// IsConfigMissing reports whether err is a ConfigurationMissing error.
func IsConfigMissing(err error) bool {
	return CodeOf(err) == CodeConfigMissing
}

// IsQuoting reports whether err is a QuotingFailure.
func IsQuoting(err error) bool {
	return CodeOf(err) == CodeQuoting
}
