// Package derrors defines the coded errors services surface to the transport
// layer. Stores speak sentinel errors; services translate them into these so
// handlers can map every failure to an HTTP status and JSON envelope in one
// place.
package derrors

import (
	"errors"
	"net/http"
)

// Code identifies a class of failure the caller can act on.
type Code string

const (
	// CodeValidation covers missing or malformed input; Details names the
	// offending fields.
	CodeValidation Code = "validation_error"
	// CodeNotFound means the referenced record does not exist.
	CodeNotFound Code = "not_found"
	// CodeInvalidState means the operation is not valid for the record's
	// current workflow state (e.g. responding to a non-pending request).
	CodeInvalidState Code = "invalid_state"
	// CodeAlreadyResponded is the idempotency guard for donors who already
	// accepted or declined a request.
	CodeAlreadyResponded Code = "already_responded"
	// CodeMissingLocation means the donor has no usable coordinates on file,
	// a precondition for eligibility updates.
	CodeMissingLocation Code = "missing_location"
	// CodeConflict covers uniqueness violations such as duplicate donors.
	CodeConflict Code = "conflict"
	// CodeUnauthorized covers authentication failures.
	CodeUnauthorized Code = "unauthorized"
	// CodeInternal is the fallback for unexpected lower-layer failures.
	CodeInternal Code = "internal_error"
)

// Error is a coded domain error. Details is optional per-field context for
// validation failures.
type Error struct {
	Code    Code
	Message string
	Details map[string]string
	cause   error
}

func (e *Error) Error() string {
	if e.Message == "" {
		return string(e.Code)
	}
	return e.Message
}

func (e *Error) Unwrap() error { return e.cause }

// New builds a coded error with a human-readable message.
func New(code Code, message string) *Error {
	return &Error{Code: code, Message: message}
}

// Wrap attaches a cause so the original failure stays reachable via
// errors.Is/As while callers see the domain code.
func Wrap(code Code, message string, cause error) *Error {
	return &Error{Code: code, Message: message, cause: cause}
}

// WithDetails returns a validation-style error carrying per-field messages.
func WithDetails(code Code, message string, details map[string]string) *Error {
	return &Error{Code: code, Message: message, Details: details}
}

// Is reports whether err carries the given code.
func Is(err error, code Code) bool {
	var de *Error
	if errors.As(err, &de) {
		return de.Code == code
	}
	return false
}

// CodeOf extracts the code from err, defaulting to CodeInternal.
func CodeOf(err error) Code {
	var de *Error
	if errors.As(err, &de) {
		return de.Code
	}
	return CodeInternal
}

// ToHTTPStatus maps a code to the status the transport layer writes.
func ToHTTPStatus(code Code) int {
	switch code {
	case CodeValidation, CodeMissingLocation:
		return http.StatusBadRequest
	case CodeUnauthorized:
		return http.StatusUnauthorized
	case CodeNotFound:
		return http.StatusNotFound
	case CodeInvalidState, CodeAlreadyResponded, CodeConflict:
		return http.StatusConflict
	default:
		return http.StatusInternalServerError
	}
}
