package spaceapi

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
)

// Error kinds. Every error returned by Client matches exactly one of them
// with errors.Is.
var (
	ErrNetwork    = errors.New("network error")
	ErrAuth       = errors.New("authentication error")
	ErrNotFound   = errors.New("not found")
	ErrServer     = errors.New("server error")
	ErrValidation = errors.New("validation error")
)

type Error struct {
	Kind    error
	Status  int
	Message string

	cause error
}

func (e *Error) Error() string {
	if e.Status != 0 {
		return fmt.Sprintf("%s (%d): %s", e.Kind, e.Status, e.Message)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Message)
}

func (e *Error) Is(target error) bool {
	return target == e.Kind
}

func (e *Error) Unwrap() error {
	return e.cause
}

// Validation builds a caller-input error.
func Validation(format string, args ...any) *Error {
	return &Error{Kind: ErrValidation, Message: fmt.Sprintf(format, args...)}
}

// Classify maps any error into the taxonomy. Already classified errors are
// returned as is.
func Classify(err error) *Error {
	if err == nil {
		return nil
	}

	var apiErr *Error
	if errors.As(err, &apiErr) {
		return apiErr
	}

	var netErr net.Error
	switch {
	case errors.Is(err, context.DeadlineExceeded):
		return &Error{Kind: ErrNetwork, Message: "request timed out", cause: err}
	case errors.Is(err, context.Canceled):
		return &Error{Kind: ErrNetwork, Message: "request canceled", cause: err}
	case errors.As(err, &netErr):
		return &Error{Kind: ErrNetwork, Message: netErr.Error(), cause: err}
	}

	return &Error{Kind: ErrNetwork, Message: err.Error(), cause: err}
}

func statusError(status int, message string) *Error {
	if message == "" {
		message = http.StatusText(status)
	}

	e := &Error{Status: status, Message: message}

	switch {
	case status == http.StatusUnauthorized, status == http.StatusForbidden:
		e.Kind = ErrAuth
	case status == http.StatusNotFound:
		e.Kind = ErrNotFound
	case status == http.StatusTooManyRequests, status >= 500:
		e.Kind = ErrServer
	default:
		e.Kind = ErrValidation
	}

	return e
}

// UserMessage renders a human readable message for the error kind.
func UserMessage(err error) string {
	e := Classify(err)
	if e == nil {
		return ""
	}

	switch e.Kind {
	case ErrNetwork:
		return "Unable to reach SafeSpace. Check your connection and try again."
	case ErrAuth:
		return "Your session has expired. Please sign in again."
	case ErrNotFound:
		return "This content is no longer available."
	case ErrServer:
		return "SafeSpace is having trouble right now. Please try again later."
	case ErrValidation:
		return e.Message
	}

	return "Something went wrong."
}
