// Package apperr defines the stable error taxonomy shared by every core
// component. Components never return raw errors to the HTTP boundary; they
// wrap failures in an *Error carrying one of the Kind values below, and
// internal/api maps Kind to an HTTP status in a single switch.
package apperr

import "fmt"

// Kind tags an error with its category so the HTTP boundary can translate it
// into a status code without inspecting error strings.
type Kind string

const (
	KindValidation            Kind = "validation"
	KindUnauthenticated        Kind = "unauthenticated"
	KindForbidden              Kind = "forbidden"
	KindNotFound               Kind = "not_found"
	KindConflict               Kind = "conflict"
	KindRateLimited            Kind = "rate_limited"
	KindTooEarly               Kind = "too_early"
	KindDependencyUnavailable  Kind = "dependency_unavailable"
	KindInternal               Kind = "internal"
)

// Error is the concrete error type returned by every core component.
type Error struct {
	Kind    Kind
	Message string
	// RetryAfterSeconds is only meaningful for KindRateLimited.
	RetryAfterSeconds float64
	Err               error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Kind, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Message)
}

func (e *Error) Unwrap() error { return e.Err }

func new_(kind Kind, message string) *Error {
	return &Error{Kind: kind, Message: message}
}

func Validation(message string) *Error           { return new_(KindValidation, message) }
func Unauthenticated(message string) *Error      { return new_(KindUnauthenticated, message) }
func Forbidden(message string) *Error            { return new_(KindForbidden, message) }
func NotFound(message string) *Error             { return new_(KindNotFound, message) }
func Conflict(message string) *Error             { return new_(KindConflict, message) }
func TooEarly(message string) *Error             { return new_(KindTooEarly, message) }
func DependencyUnavailable(message string) *Error { return new_(KindDependencyUnavailable, message) }

func RateLimited(message string, retryAfter float64) *Error {
	return &Error{Kind: KindRateLimited, Message: message, RetryAfterSeconds: retryAfter}
}

func Internal(message string, err error) *Error {
	return &Error{Kind: KindInternal, Message: message, Err: err}
}

// Wrap lifts a generic error into an internal apperr.Error, unless it is
// already one (in which case it is returned unchanged).
func Wrap(err error) *Error {
	if err == nil {
		return nil
	}
	if ae, ok := err.(*Error); ok {
		return ae
	}
	return Internal("unexpected error", err)
}

// As extracts an *Error from a generic error, reporting whether it was one.
func As(err error) (*Error, bool) {
	ae, ok := err.(*Error)
	return ae, ok
}
