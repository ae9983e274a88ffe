// Package domainerrors provides coded errors for the firtrace core.
//
// Services and engines return these at their boundaries so callers can branch
// on the code without string matching. Infrastructure layers return sentinel
// errors (pkg/platform/sentinel) and services translate them into coded errors
// here.
package domainerrors

import (
	"errors"
	"fmt"
)

// Code identifies a class of failure in the error taxonomy.
type Code string

const (
	// Wallet / session codes.
	CodeWalletUnavailable         Code = "wallet_unavailable"
	CodeUserRejected              Code = "user_rejected"
	CodeSignatureRejected         Code = "signature_rejected"
	CodeAuthenticationFailed      Code = "authentication_failed"
	CodeRoleResolutionUnavailable Code = "role_resolution_unavailable"

	// Workflow codes.
	CodeNotAuthorized        Code = "not_authorized"
	CodeInvalidTransition    Code = "invalid_transition"
	CodeInvalidCasePayload   Code = "invalid_case_payload"
	CodeMissingRemark        Code = "missing_remark"
	CodeUnknownPoliceAddress Code = "unknown_police_address"

	// Infrastructure codes.
	CodeLedgerUnavailable Code = "ledger_unavailable"
	CodeInvalidInput      Code = "invalid_input"
	CodeInternal          Code = "internal"
)

// Error is a coded domain error. The Field is optional and names the first
// failing input field for validation errors.
type Error struct {
	Code    Code
	Message string
	Field   string
	cause   error
}

func (e *Error) Error() string {
	if e.Field != "" {
		return fmt.Sprintf("%s: %s (field %q)", e.Code, e.Message, e.Field)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func (e *Error) Unwrap() error { return e.cause }

// New constructs a coded error with a human-readable message.
func New(code Code, message string) *Error {
	return &Error{Code: code, Message: message}
}

// Newf constructs a coded error with a formatted message.
func Newf(code Code, format string, args ...any) *Error {
	return &Error{Code: code, Message: fmt.Sprintf(format, args...)}
}

// NewField constructs a validation error naming the offending field.
func NewField(code Code, field, message string) *Error {
	return &Error{Code: code, Message: message, Field: field}
}

// Wrap attaches a code and message to an underlying cause. The cause remains
// reachable through errors.Is/As.
func Wrap(err error, code Code, message string) *Error {
	return &Error{Code: code, Message: message, cause: err}
}

// HasCode reports whether err (or anything it wraps) carries the given code.
func HasCode(err error, code Code) bool {
	var de *Error
	if errors.As(err, &de) {
		return de.Code == code
	}
	return false
}

// CodeOf extracts the code from err, or CodeInternal when err is not coded.
func CodeOf(err error) Code {
	var de *Error
	if errors.As(err, &de) {
		return de.Code
	}
	return CodeInternal
}
