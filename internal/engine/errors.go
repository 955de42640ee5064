package engine

import (
	"context"
	"errors"
	"fmt"

	"github.com/mj1618/desktop-uia/internal/model"
)

// Kind classifies engine failures.
type Kind string

const (
	KindWindowNotFound       Kind = "window_not_found"
	KindElementNotFound      Kind = "element_not_found"
	KindStaleIdentity        Kind = "stale_identity"
	KindElementNotActionable Kind = "element_not_actionable"
	KindInvalidQuery         Kind = "invalid_query"
	KindNativeAPIFailure     Kind = "native_api_failure"

	// KindCanceled is reported when the caller's context ended first. It is
	// not a tree failure.
	KindCanceled Kind = "canceled"
)

// Error is the only error type returned across the engine boundary.
type Error struct {
	Kind    Kind
	Message string
	// Err is the wrapped cause, typically a native API error.
	Err error
	// Diagnostics is set for not-found and not-actionable failures.
	Diagnostics *model.Diagnostics
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Kind, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Message)
}

func (e *Error) Unwrap() error { return e.Err }

// Is matches any *Error with the same Kind, so callers can write
// errors.Is(err, engine.ErrElementNotFound).
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	return ok && t.Kind == e.Kind && t.Message == "" && t.Err == nil
}

// Sentinels for errors.Is.
var (
	ErrWindowNotFound       = &Error{Kind: KindWindowNotFound}
	ErrElementNotFound      = &Error{Kind: KindElementNotFound}
	ErrStaleIdentity        = &Error{Kind: KindStaleIdentity}
	ErrElementNotActionable = &Error{Kind: KindElementNotActionable}
	ErrInvalidQuery         = &Error{Kind: KindInvalidQuery}
	ErrNativeAPIFailure     = &Error{Kind: KindNativeAPIFailure}
)

func newError(kind Kind, format string, args ...interface{}) *Error {
	return &Error{Kind: kind, Message: fmt.Sprintf(format, args...)}
}

func wrapNative(err error, format string, args ...interface{}) *Error {
	return &Error{Kind: KindNativeAPIFailure, Message: fmt.Sprintf(format, args...), Err: err}
}

// KindOf returns the Kind of err, or "" when err is nil. Errors that did not
// originate in the engine are reported as native API failures.
func KindOf(err error) Kind {
	if err == nil {
		return ""
	}
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return KindCanceled
	}
	return KindNativeAPIFailure
}

// asEngineError converts any error to *Error.
func asEngineError(err error) *Error {
	var e *Error
	if errors.As(err, &e) {
		return e
	}
	return wrapNative(err, "unexpected failure")
}
