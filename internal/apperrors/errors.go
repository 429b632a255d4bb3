package apperrors

import (
	"errors"
	"fmt"
)

// ErrNotFound indicates that a requested resource could not be found.
var ErrNotFound = errors.New("resource not found")

// ErrValidation indicates that input data failed validation checks.
var ErrValidation = errors.New("validation error")

// ErrInvalidState indicates that the operation is not allowed in the current state of the register.
var ErrInvalidState = errors.New("invalid state")

// ErrConflict indicates that the operation collides with existing state (e.g. an already open register).
var ErrConflict = errors.New("conflict")

// ErrNoOpenRegister indicates that a location has no open register to serve a request.
var ErrNoOpenRegister = errors.New("no open register")

// ErrTransient marks failures that may succeed when retried (lock timeouts, serialization failures).
var ErrTransient = errors.New("transient error")

// AppError carries an HTTP-ish status code along with the underlying cause.
type AppError struct {
	Code    int
	Message string
	Err     error
}

// NewAppError wraps err with a code and a message.
func NewAppError(code int, message string, err error) *AppError {
	return &AppError{Code: code, Message: message, Err: err}
}

func (e *AppError) Error() string {
	if e.Err == nil {
		return e.Message
	}
	return fmt.Sprintf("%s: %v", e.Message, e.Err)
}

func (e *AppError) Unwrap() error {
	return e.Err
}

// IsRetryable reports whether err is worth another attempt.
func IsRetryable(err error) bool {
	return errors.Is(err, ErrTransient)
}

// Kind returns the sentinel err is classified under, or nil for unclassified failures.
func Kind(err error) error {
	for _, kind := range []error{ErrValidation, ErrInvalidState, ErrConflict, ErrNoOpenRegister, ErrNotFound, ErrTransient} {
		if errors.Is(err, kind) {
			return kind
		}
	}
	return nil
}
