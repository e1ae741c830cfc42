// Package bloberror defines the closed set of storage error codes, their
// HTTP status mapping, and the XML error body written on failed requests.
package bloberror

import (
	"errors"
	"fmt"
)

// StorageError is the error type surfaced by handlers and stores. It carries
// a wire code and a human-readable message; the dispatcher turns it into the
// XML error response.
type StorageError struct {
	Code    Code
	Message string
}

// New returns a StorageError with the code's canonical message.
func New(code Code) *StorageError {
	return &StorageError{Code: code, Message: code.Message()}
}

// WithMessage returns a StorageError with a custom message.
func WithMessage(code Code, format string, args ...any) *StorageError {
	return &StorageError{Code: code, Message: fmt.Sprintf(format, args...)}
}

func (e *StorageError) Error() string {
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// StatusCode returns the HTTP status for this error.
func (e *StorageError) StatusCode() int { return e.Code.StatusCode() }

// IsCode reports whether err is (or wraps) a StorageError with the given code.
func IsCode(err error, code Code) bool {
	var se *StorageError
	if errors.As(err, &se) {
		return se.Code == code
	}
	return false
}

// From extracts the StorageError from err, mapping anything else to
// InternalError so unknown failures never leak implementation detail onto
// the wire.
func From(err error) *StorageError {
	var se *StorageError
	if errors.As(err, &se) {
		return se
	}
	return New(InternalError)
}
