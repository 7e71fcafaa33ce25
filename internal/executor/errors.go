package executor

import (
	"context"
	"errors"

	"github.com/hanpama/membergraph/internal/apperr"
)

const (
	CodeInternal  = "INTERNAL"
	CodeCancelled = "CANCELLED"
	CodeTimeout   = "TIMEOUT"
)

// ErrorPresenter turns a resolver failure into the client-facing error. The
// executor fills in path and locations afterwards.
type ErrorPresenter func(ctx context.Context, err error) GraphQLError

// DefaultErrorPresenter shows the message of classified business errors and
// replaces everything else with a generic message.
func DefaultErrorPresenter(ctx context.Context, err error) GraphQLError {
	var gqlErr *GraphQLError
	if errors.As(err, &gqlErr) {
		return *gqlErr
	}
	if e, ok := apperr.Safe(err); ok {
		return GraphQLError{Message: e.Message, Extensions: map[string]any{"code": string(e.Kind)}}
	}
	switch {
	case errors.Is(err, context.DeadlineExceeded):
		return GraphQLError{Message: "request timed out", Extensions: map[string]any{"code": CodeTimeout}}
	case errors.Is(err, context.Canceled):
		return GraphQLError{Message: "request cancelled", Extensions: map[string]any{"code": CodeCancelled}}
	}
	return GraphQLError{Message: "internal server error", Extensions: map[string]any{"code": CodeInternal}}
}

// expected reports whether err is a classified, client-safe failure or a
// context error; anything else is worth logging.
func expected(err error) bool {
	if _, ok := apperr.Safe(err); ok {
		return true
	}
	var gqlErr *GraphQLError
	return errors.As(err, &gqlErr) || errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded)
}
