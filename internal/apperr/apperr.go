package apperr

import (
	"errors"
	"net/http"
)

// Error kinds. Every error returned to an HTTP caller is classified by one of these,
// anything unclassified is reported as an internal error.
var (
	ErrValidation = errors.New("validation error")
	ErrAuth       = errors.New("authentication failed")
	ErrForbidden  = errors.New("forbidden operation")
	ErrNotFound   = errors.New("not found")
	ErrDuplicate  = errors.New("duplicate")
	ErrAccess     = errors.New("external access failed")
)

// Error is a classified error with a message that is safe to show to callers.
type Error struct {
	Kind    error
	Message string
	Fields  []string
	Err     error
}

// New creates a classified error.
func New(kind error, message string) *Error {
	return &Error{Kind: kind, Message: message}
}

// Wrap classifies an underlying error, keeping it in the chain for logging.
func Wrap(kind error, message string, err error) *Error {
	return &Error{Kind: kind, Message: message, Err: err}
}

// Validation creates a validation error listing the offending fields.
func Validation(message string, fields ...string) *Error {
	return &Error{Kind: ErrValidation, Message: message, Fields: fields}
}

func (e *Error) Error() string {
	if e.Err != nil {
		return e.Message + ": " + e.Err.Error()
	}
	return e.Message
}

func (e *Error) Unwrap() []error {
	if e.Err != nil {
		return []error{e.Kind, e.Err}
	}
	return []error{e.Kind}
}

// Status maps an error to the HTTP status code of its kind.
func Status(err error) int {
	switch {
	case err == nil:
		return http.StatusOK
	case errors.Is(err, ErrValidation), errors.Is(err, ErrDuplicate), errors.Is(err, ErrAccess):
		return http.StatusBadRequest
	case errors.Is(err, ErrAuth):
		return http.StatusUnauthorized
	case errors.Is(err, ErrForbidden):
		return http.StatusForbidden
	case errors.Is(err, ErrNotFound):
		return http.StatusNotFound
	default:
		return http.StatusInternalServerError
	}
}

// Message returns the public message for err, or fallback when err is unclassified.
func Message(err error, fallback string) string {
	var appErr *Error
	if errors.As(err, &appErr) {
		return appErr.Message
	}
	return fallback
}

// Fields returns the field errors attached to err, if any.
func Fields(err error) []string {
	var appErr *Error
	if errors.As(err, &appErr) {
		return appErr.Fields
	}
	return nil
}
