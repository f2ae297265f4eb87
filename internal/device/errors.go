package device

import (
	"errors"
	"fmt"
	"net/http"
)

// ErrorKind classifies a failed device interaction
type ErrorKind string

const (
	// KindValidation - rejected locally, before any network call
	KindValidation ErrorKind = "validation"
	// KindTransient - request failed (network, 5xx) and the retry budget is used up
	KindTransient ErrorKind = "transient"
	// KindRejected - device answered with a non-2xx business error
	KindRejected ErrorKind = "rejected"
	// KindMalformed - device answered 2xx with a body we cannot decode
	KindMalformed ErrorKind = "malformed"
	// KindUnreachable - status polling keeps failing
	KindUnreachable ErrorKind = "unreachable"
)

// Error is the one error type surfaced by the device client, the poller and the commands
type Error struct {
	Kind       ErrorKind `json:"kind"`
	Message    string    `json:"message"`
	Details    string    `json:"details,omitempty"`
	StatusCode int       `json:"status_code,omitempty"`
	Cause      error     `json:"-"`
}

func (e *Error) Error() string {
	msg := e.Message
	if e.StatusCode != 0 {
		msg = fmt.Sprintf("%s (status %d)", msg, e.StatusCode)
	}
	if e.Cause != nil {
		msg = fmt.Sprintf("%s: %s", msg, e.Cause)
	}
	return msg
}

func (e *Error) Unwrap() error {
	return e.Cause
}

func (e *Error) Retryable() bool {
	if e.Kind != KindTransient {
		return false
	}
	return e.StatusCode == 0 ||
		e.StatusCode >= http.StatusInternalServerError ||
		e.StatusCode == http.StatusRequestTimeout ||
		e.StatusCode == http.StatusTooManyRequests
}

func NewValidationError(format string, args ...any) *Error {
	return &Error{
		Kind:    KindValidation,
		Message: fmt.Sprintf(format, args...),
	}
}

func NewUnreachableError(cause error, failedPolls int) *Error {
	return &Error{
		Kind:    KindUnreachable,
		Message: fmt.Sprintf("device unreachable after %d failed status polls", failedPolls),
		Cause:   cause,
	}
}

// KindOf returns the kind of the first *Error in the chain, or "" if there is none
func KindOf(err error) ErrorKind {
	var devErr *Error
	if errors.As(err, &devErr) {
		return devErr.Kind
	}
	return ""
}

func IsKind(err error, kind ErrorKind) bool {
	return KindOf(err) == kind
}

// AsError wraps any error into *Error, keeping it as is if it already is one
func AsError(err error) *Error {
	if err == nil {
		return nil
	}
	var devErr *Error
	if errors.As(err, &devErr) {
		return devErr
	}
	return &Error{
		Kind:    KindTransient,
		Message: "device request failed",
		Cause:   err,
	}
}
