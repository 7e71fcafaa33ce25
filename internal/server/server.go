// Package server exposes an executor over GraphQL-over-HTTP: POST and GET
// operations, JSON batches, CORS and request ids.
package server

import (
	"context"
	"net/http"
	"time"

	"github.com/rs/zerolog"
	"github.com/samber/lo"
	"github.com/vektah/gqlparser/v2/ast"
	"github.com/vektah/gqlparser/v2/gqlerror"

	eventbus "github.com/hanpama/membergraph/internal/eventbus"
	events "github.com/hanpama/membergraph/internal/events"
	executor "github.com/hanpama/membergraph/internal/executor"
	reqid "github.com/hanpama/membergraph/internal/reqid"
	validation "github.com/hanpama/membergraph/internal/validation"
)

// Handler serves one GraphQL endpoint.
type Handler struct {
	exec  *executor.Executor
	valid *validation.Validator
	opt   Options
}

type Options struct {
	// Timeout bounds requests whose context has no deadline. Zero disables it.
	Timeout time.Duration

	// Pretty indents JSON responses.
	Pretty bool

	// MaxBodyBytes limits POST bodies. Zero means unlimited.
	MaxBodyBytes int64

	// CORS is disabled while AllowedOrigins is empty.
	CORS CORSOptions

	// ContextFunc prepares the context of each operation, e.g. to install a
	// fresh per-request loader. Operations of one batch get separate calls.
	ContextFunc func(context.Context) context.Context

	// Logger is the base of the request loggers placed in each context.
	Logger zerolog.Logger
}

type CORSOptions struct {
	AllowedOrigins []string
}

type Option func(*Options)

func WithTimeout(d time.Duration) Option { return func(o *Options) { o.Timeout = d } }
func WithPretty() Option                 { return func(o *Options) { o.Pretty = true } }
func WithMaxBodyBytes(n int64) Option    { return func(o *Options) { o.MaxBodyBytes = n } }
func WithLogger(l zerolog.Logger) Option { return func(o *Options) { o.Logger = l } }

// WithCORS allows the listed origins; "*" allows any.
func WithCORS(origins ...string) Option {
	return func(o *Options) { o.CORS.AllowedOrigins = origins }
}

func WithContextFunc(f func(context.Context) context.Context) Option {
	return func(o *Options) { o.ContextFunc = f }
}

// New creates a handler that checks documents with valid before exec runs
// them.
func New(exec *executor.Executor, valid *validation.Validator, opts ...Option) *Handler {
	op := Options{Timeout: 10 * time.Second, Logger: zerolog.Nop()}
	for _, f := range opts {
		f(&op)
	}
	return &Handler{exec: exec, valid: valid, opt: op}
}

func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	if _, ok := ctx.Deadline(); !ok && h.opt.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, h.opt.Timeout)
		defer cancel()
	}
	ctx, rid := reqid.NewContext(ctx, r.Header.Get(reqid.Header))
	w.Header().Set(reqid.Header, rid)
	ctx = h.opt.Logger.With().Str("request_id", rid).Logger().WithContext(ctx)
	r = r.WithContext(ctx)

	start := time.Now()
	status := http.StatusOK
	eventbus.Publish(ctx, events.HTTPStart{Request: r})
	defer func() {
		eventbus.Publish(ctx, events.HTTPFinish{Request: r, Status: status, Duration: time.Since(start)})
	}()

	switch r.Method {
	case http.MethodGet, http.MethodPost:
	case http.MethodOptions:
		h.allowOrigin(w, r)
		status = http.StatusNoContent
		w.WriteHeader(status)
		return
	default:
		status = http.StatusMethodNotAllowed
		w.Header().Set("Allow", "GET, POST, OPTIONS")
		h.write(w, status, reject("method not allowed").result())
		return
	}

	ops, batched, err := decodeRequest(r, h.opt.MaxBodyBytes)
	if err != nil {
		br := asBadRequest(err)
		status = br.status
		h.write(w, status, br.result())
		return
	}
	h.allowOrigin(w, r)

	results := lo.Map(ops, func(op Request, _ int) *executor.ExecutionResult {
		return h.execute(ctx, op, r.Method)
	})
	if batched {
		h.write(w, status, results)
		return
	}
	h.write(w, status, results[0])
}

// execute validates and runs one operation.
func (h *Handler) execute(ctx context.Context, req Request, method string) *executor.ExecutionResult {
	doc, invalid := h.valid.Load(req.Query)
	if len(invalid) > 0 {
		eventbus.Publish(ctx, events.GraphQLFinish{
			Query:         req.Query,
			OperationName: req.OperationName,
			Rejected:      true,
			Errors:        lo.Map(invalid, func(e *gqlerror.Error, _ int) error { return e }),
		})
		return rejected(invalid)
	}

	var opType string
	if op := selectOperation(doc, req.OperationName); op != nil {
		if method == http.MethodGet && op.Operation == ast.Mutation {
			return reject("mutations must be sent with POST").result()
		}
		opType = string(op.Operation)
	}

	if h.opt.ContextFunc != nil {
		ctx = h.opt.ContextFunc(ctx)
	}
	start := time.Now()
	eventbus.Publish(ctx, events.GraphQLStart{Query: req.Query, OperationName: req.OperationName, OperationType: opType})
	result := h.exec.ExecuteRequest(ctx, doc, req.OperationName, req.Variables, nil)
	eventbus.Publish(ctx, events.GraphQLFinish{
		Query:         req.Query,
		OperationName: req.OperationName,
		OperationType: opType,
		Errors:        lo.Map(result.Errors, func(e executor.GraphQLError, _ int) error { return e }),
		Duration:      time.Since(start),
	})
	return result
}

// selectOperation returns the operation name picks, or the only one when name
// is empty. The executor reports the error when nothing matches.
func selectOperation(doc *ast.QueryDocument, name string) *ast.OperationDefinition {
	if name == "" && len(doc.Operations) == 1 {
		return doc.Operations[0]
	}
	return doc.Operations.ForName(name)
}
