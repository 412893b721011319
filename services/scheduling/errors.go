package scheduling

import (
	"errors"
	"fmt"
)

// Error codes of the booking engine.
const (
	CodeValidation    = "VALIDATION"
	CodeUnavailable   = "UNAVAILABLE"
	CodeNotFound      = "NOT_FOUND"
	CodeForbidden     = "FORBIDDEN"
	CodePayment       = "PAYMENT_ERROR"
	CodeStateConflict = "STATE_CONFLICT"
	CodePolicyMissing = "POLICY_MISSING"
)

// Error is the engine's typed domain error.
type Error struct {
	Code    string
	Message string
	Cause   error
}

func (e *Error) Error() string {
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func (e *Error) Unwrap() error {
	return e.Cause
}

// NewError constructs a domain error with a formatted message.
func NewError(code, format string, args ...interface{}) error {
	return &Error{Code: code, Message: fmt.Sprintf(format, args...)}
}

// WrapError attaches a cause, keeping the gateway's reason available to
// the caller.
func WrapError(code string, cause error, format string, args ...interface{}) error {
	return &Error{Code: code, Message: fmt.Sprintf(format, args...), Cause: cause}
}

// CodeOf extracts the engine error code, or an empty string for
// non-engine errors.
func CodeOf(err error) string {
	var e *Error
	if errors.As(err, &e) {
		return e.Code
	}
	return ""
}
