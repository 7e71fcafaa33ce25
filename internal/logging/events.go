package logging

import (
	"context"
	"errors"

	"github.com/rs/zerolog"

	apperr "github.com/hanpama/membergraph/internal/apperr"
	eventbus "github.com/hanpama/membergraph/internal/eventbus"
	events "github.com/hanpama/membergraph/internal/events"
	executor "github.com/hanpama/membergraph/internal/executor"
)

// Subscribe logs request events from the global eventbus. Events are logged
// with the request logger found in their context, falling back to base.
func Subscribe(base zerolog.Logger) (unsubscribe func()) {
	s := subscriber{base: base}
	unsubs := []func(){
		eventbus.Subscribe(s.httpFinish),
		eventbus.Subscribe(s.graphqlFinish),
		eventbus.Subscribe(s.repositoryFinish),
	}
	return func() {
		for _, u := range unsubs {
			u()
		}
	}
}

type subscriber struct {
	base zerolog.Logger
}

func (s subscriber) logger(ctx context.Context) *zerolog.Logger {
	if l := zerolog.Ctx(ctx); l.GetLevel() != zerolog.Disabled {
		return l
	}
	return &s.base
}

func (s subscriber) httpFinish(ctx context.Context, e events.HTTPFinish) {
	log := s.logger(ctx)
	ev := log.Info()
	if e.Status >= 500 {
		ev = log.Error()
	}
	ev.Str("method", e.Request.Method).
		Str("path", e.Request.URL.Path).
		Int("status", e.Status).
		Dur("duration", e.Duration).
		Msg("http request")
}

func (s subscriber) graphqlFinish(ctx context.Context, e events.GraphQLFinish) {
	log := s.logger(ctx)
	ev := log.Debug()
	switch {
	case e.Rejected:
		ev = log.Info()
	case hasInternal(e.Errors):
		ev = log.Warn()
	}
	ev = ev.Str("operation", e.OperationName).
		Str("type", e.OperationType).
		Int("errors", len(e.Errors)).
		Dur("duration", e.Duration)
	if e.Rejected {
		ev = ev.Bool("rejected", true).Errs("reasons", e.Errors)
	}
	ev.Msg("graphql operation")
}

func (s subscriber) repositoryFinish(ctx context.Context, e events.RepositoryFinish) {
	log := s.logger(ctx)
	ev := log.Trace()
	switch {
	case e.Err == nil, safe(e.Err):
	case ctx.Err() != nil:
		ev = log.Debug()
	default:
		ev = log.Error()
	}
	ev.Str("entity", e.Entity).
		Str("op", e.Op).
		Int("rows", e.Rows).
		Dur("duration", e.Duration).
		Err(e.Err).
		Msg("repository call")
}

func safe(err error) bool {
	_, ok := apperr.Safe(err)
	return ok
}

// hasInternal reports whether any presented error masks an internal failure.
func hasInternal(errs []error) bool {
	for _, err := range errs {
		var gqlErr executor.GraphQLError
		if errors.As(err, &gqlErr) && gqlErr.Extensions["code"] == executor.CodeInternal {
			return true
		}
	}
	return false
}
