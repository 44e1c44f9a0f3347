package messaging

import (
	"errors"
	"fmt"

	"github.com/hazemadel/edumsg/internal/database"
)

// Stable error codes carried to boundary callers. Dashboards key on
// these, so they never change meaning.
const (
	CodeValidation       = "validation_error"
	CodeNotFound         = "not_found"
	CodePermissionDenied = "permission_denied"
	CodeInvalidState     = "invalid_state"
	CodeExternalLookup   = "external_lookup_failure"
)

// Error is the engine's caller-facing failure: a stable code plus a
// human-readable message, optionally wrapping a cause.
type Error struct {
	Code    string `json:"code"`
	Message string `json:"message"`
	cause   error
}

func (e *Error) Error() string {
	if e.cause != nil {
		return fmt.Sprintf("%s: %s: %v", e.Code, e.Message, e.cause)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func (e *Error) Unwrap() error {
	return e.cause
}

func Validationf(format string, args ...interface{}) *Error {
	return &Error{Code: CodeValidation, Message: fmt.Sprintf(format, args...)}
}

func NotFoundf(format string, args ...interface{}) *Error {
	return &Error{Code: CodeNotFound, Message: fmt.Sprintf(format, args...)}
}

func PermissionDeniedf(format string, args ...interface{}) *Error {
	return &Error{Code: CodePermissionDenied, Message: fmt.Sprintf(format, args...)}
}

func InvalidStatef(format string, args ...interface{}) *Error {
	return &Error{Code: CodeInvalidState, Message: fmt.Sprintf(format, args...)}
}

// ExternalLookupErr wraps a collaborator failure; callers are expected
// to treat these as transient.
func ExternalLookupErr(cause error, format string, args ...interface{}) *Error {
	return &Error{Code: CodeExternalLookup, Message: fmt.Sprintf(format, args...), cause: cause}
}

// CodeOf returns the stable code of err, or "" for non-engine errors.
func CodeOf(err error) string {
	var e *Error
	if errors.As(err, &e) {
		return e.Code
	}
	return ""
}

func IsCode(err error, code string) bool {
	return CodeOf(err) == code
}

// fromStore translates store sentinels into the engine taxonomy.
// Unknown errors pass through untouched; the boundary reports those as
// opaque internal failures.
func fromStore(err error) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, database.ErrMessageNotFound):
		return &Error{Code: CodeNotFound, Message: "message not found", cause: err}
	case errors.Is(err, database.ErrInvalidMessage):
		return &Error{Code: CodeValidation, Message: err.Error(), cause: err}
	default:
		return err
	}
}
