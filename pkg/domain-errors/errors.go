// Package domainerrors defines the coded error type every module returns
// across its boundary. Codes classify failures for transport mapping and
// retry decisions; the Reason field carries a machine-readable denial
// reason for policy decisions.
package domainerrors

import (
	"errors"
	"fmt"
)

// Code classifies an error for callers that must branch on failure kind.
type Code string

const (
	CodeBadRequest         Code = "BAD_REQUEST"
	CodeValidation         Code = "VALIDATION"
	CodeInvalidInput       Code = "INVALID_INPUT"
	CodeNotFound           Code = "NOT_FOUND"
	CodeConflict           Code = "CONFLICT"
	CodeUnauthorized       Code = "UNAUTHORIZED"
	CodeForbidden          Code = "FORBIDDEN"
	CodePolicyDenied       Code = "POLICY_DENIED"
	CodeInvariantViolation Code = "INVARIANT_VIOLATION"
	CodeTimeout            Code = "TIMEOUT"
	CodeUnavailable        Code = "UNAVAILABLE"
	CodeInternal           Code = "INTERNAL"
)

// Error is the coded error. Reason is set only for policy denials.
type Error struct {
	Code    Code
	Message string
	Reason  string
	Err     error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Code, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func (e *Error) Unwrap() error {
	return e.Err
}

// New returns a coded error with no cause.
func New(code Code, message string) *Error {
	return &Error{Code: code, Message: message}
}

// Newf returns a coded error with a formatted message.
func Newf(code Code, format string, args ...any) *Error {
	return &Error{Code: code, Message: fmt.Sprintf(format, args...)}
}

// Wrap attaches a code and message to a cause. The cause stays reachable
// through errors.Is and errors.As.
func Wrap(err error, code Code, message string) *Error {
	return &Error{Code: code, Message: message, Err: err}
}

// Denied returns a policy denial carrying a machine-readable reason.
func Denied(reason, message string) *Error {
	return &Error{Code: CodePolicyDenied, Message: message, Reason: reason}
}

// HasCode reports whether err or anything it wraps carries the code.
func HasCode(err error, code Code) bool {
	var de *Error
	if !errors.As(err, &de) {
		return false
	}
	return de.Code == code
}

// GetCode returns the code of the outermost coded error, or CodeInternal
// for uncoded errors.
func GetCode(err error) Code {
	var de *Error
	if !errors.As(err, &de) {
		return CodeInternal
	}
	return de.Code
}

// GetReason returns the denial reason, empty for non-denials.
func GetReason(err error) string {
	var de *Error
	if !errors.As(err, &de) {
		return ""
	}
	return de.Reason
}
