// Package apperr defines the typed errors that cross component boundaries.
// Each error carries a Kind and a message that is safe to show to clients;
// the wrapped cause is for logs only.
package apperr

import (
	"errors"
	"fmt"
)

type Kind string

const (
	KindNotFound             Kind = "NOT_FOUND"
	KindConstraint           Kind = "CONSTRAINT_VIOLATION"
	KindTransport            Kind = "TRANSPORT"
	KindMissingArgument      Kind = "MISSING_ARGUMENT"
	KindArgumentTypeMismatch Kind = "ARGUMENT_TYPE_MISMATCH"
	KindInvalidArgument      Kind = "INVALID_ARGUMENT"
	KindInternal             Kind = "INTERNAL"
)

// Error is a classified failure. Message is client-visible, Err is not.
type Error struct {
	Kind    Kind
	Message string
	Err     error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Kind, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Message)
}

func (e *Error) Unwrap() error { return e.Err }

// Is matches another *Error by Kind, so errors.Is(err, &Error{Kind: KindNotFound})
// works without comparing messages.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	return ok && t.Message == "" && t.Err == nil && t.Kind == e.Kind
}

func New(kind Kind, format string, args ...any) *Error {
	return &Error{Kind: kind, Message: fmt.Sprintf(format, args...)}
}

func Wrap(err error, kind Kind, format string, args ...any) *Error {
	return &Error{Kind: kind, Message: fmt.Sprintf(format, args...), Err: err}
}

func NotFound(format string, args ...any) *Error {
	return New(KindNotFound, format, args...)
}

func Constraint(err error, format string, args ...any) *Error {
	return Wrap(err, KindConstraint, format, args...)
}

func Transport(err error, format string, args ...any) *Error {
	return Wrap(err, KindTransport, format, args...)
}

func InvalidArgument(format string, args ...any) *Error {
	return New(KindInvalidArgument, format, args...)
}

func Internal(err error) *Error {
	return Wrap(err, KindInternal, "internal server error")
}

// KindOf returns the kind of the first *Error in err's chain, or KindInternal.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return KindInternal
}

// Safe reports whether err's client-facing message can be shown as is.
// Transport and internal failures are never safe.
func Safe(err error) (*Error, bool) {
	var e *Error
	if !errors.As(err, &e) {
		return nil, false
	}
	switch e.Kind {
	case KindTransport, KindInternal:
		return e, false
	}
	return e, true
}
