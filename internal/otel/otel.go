// Package otel turns eventbus events into OpenTelemetry spans: one span per
// HTTP request, a child per GraphQL operation and a grandchild per
// repository call.
package otel

import (
	"context"
	"fmt"
	"sync"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace/otlptracegrpc"
	"go.opentelemetry.io/otel/exporters/stdout/stdouttrace"
	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/trace"
	"google.golang.org/grpc"
	"google.golang.org/grpc/credentials/insecure"

	eventbus "github.com/hanpama/membergraph/internal/eventbus"
	events "github.com/hanpama/membergraph/internal/events"
	reqid "github.com/hanpama/membergraph/internal/reqid"
)

const (
	ExporterNone   = "none"
	ExporterStdout = "stdout"
	ExporterOTLP   = "otlp"
)

// Config selects where spans go.
type Config struct {
	// Exporter is one of "none", "stdout" or "otlp". Empty means none.
	Exporter string `mapstructure:"exporter"`
	// Endpoint is the OTLP gRPC collector address.
	Endpoint    string  `mapstructure:"endpoint"`
	ServiceName string  `mapstructure:"service_name"`
	SampleRate  float64 `mapstructure:"sample_rate"`
}

func (c Config) Validate() error {
	switch c.Exporter {
	case "", ExporterNone, ExporterStdout:
	case ExporterOTLP:
		if c.Endpoint == "" {
			return fmt.Errorf("otel: endpoint required for the otlp exporter")
		}
	default:
		return fmt.Errorf("otel: unsupported exporter %q", c.Exporter)
	}
	if c.SampleRate < 0 || c.SampleRate > 1 {
		return fmt.Errorf("otel: sample_rate must be within [0, 1], got %v", c.SampleRate)
	}
	return nil
}

// Setup installs a global tracer provider and subscribes span recording to
// the global eventbus. With no exporter configured nothing is installed.
// The returned function flushes pending spans and unsubscribes.
func Setup(ctx context.Context, cfg Config) (func(context.Context) error, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	var exp sdktrace.SpanExporter
	var err error
	switch cfg.Exporter {
	case "", ExporterNone:
		return func(context.Context) error { return nil }, nil
	case ExporterStdout:
		exp, err = stdouttrace.New()
	case ExporterOTLP:
		exp, err = otlptracegrpc.New(ctx,
			otlptracegrpc.WithEndpoint(cfg.Endpoint),
			otlptracegrpc.WithDialOption(grpc.WithTransportCredentials(insecure.NewCredentials())))
	}
	if err != nil {
		return nil, fmt.Errorf("otel: create %s exporter: %w", cfg.Exporter, err)
	}

	tp := NewTracerProvider(cfg, sdktrace.WithBatcher(exp))
	otel.SetTracerProvider(tp)
	unsubscribe := Register(tp.Tracer("membergraph"))

	return func(ctx context.Context) error {
		unsubscribe()
		return tp.Shutdown(ctx)
	}, nil
}

// NewTracerProvider builds a provider carrying the service resource and the
// configured sampler.
func NewTracerProvider(cfg Config, opts ...sdktrace.TracerProviderOption) *sdktrace.TracerProvider {
	service := cfg.ServiceName
	if service == "" {
		service = "membergraph"
	}
	rate := cfg.SampleRate
	if rate <= 0 {
		rate = 1
	}
	opts = append([]sdktrace.TracerProviderOption{
		sdktrace.WithResource(resource.NewSchemaless(attribute.String("service.name", service))),
		sdktrace.WithSampler(sdktrace.ParentBased(sdktrace.TraceIDRatioBased(rate))),
	}, opts...)
	return sdktrace.NewTracerProvider(opts...)
}

type subscriber struct {
	tracer    trace.Tracer
	httpSpans sync.Map // request id -> trace.Span
	gqlSpans  sync.Map // request id -> trace.Span
	repoSpans sync.Map // call id -> trace.Span
}

// Register subscribes span recording with tracer to the global eventbus.
func Register(tracer trace.Tracer) (unsubscribe func()) {
	s := &subscriber{tracer: tracer}
	unsubs := []func(){
		eventbus.Subscribe(s.httpStart),
		eventbus.Subscribe(s.httpFinish),
		eventbus.Subscribe(s.graphqlStart),
		eventbus.Subscribe(s.graphqlFinish),
		eventbus.Subscribe(s.repositoryStart),
		eventbus.Subscribe(s.repositoryFinish),
	}
	return func() {
		for _, u := range unsubs {
			u()
		}
	}
}

func (s *subscriber) httpStart(ctx context.Context, e events.HTTPStart) {
	rid, _ := reqid.FromContext(ctx)
	_, span := s.tracer.Start(ctx, "http.request", trace.WithSpanKind(trace.SpanKindServer))
	span.SetAttributes(
		attribute.String("http.request.method", e.Request.Method),
		attribute.String("url.path", e.Request.URL.Path),
		attribute.String("request.id", rid),
	)
	s.httpSpans.Store(rid, span)
}

func (s *subscriber) httpFinish(ctx context.Context, e events.HTTPFinish) {
	rid, _ := reqid.FromContext(ctx)
	v, ok := s.httpSpans.LoadAndDelete(rid)
	if !ok {
		return
	}
	span := v.(trace.Span)
	span.SetAttributes(attribute.Int("http.response.status_code", e.Status))
	if e.Status >= 500 {
		span.SetStatus(codes.Error, "")
	}
	span.End()
}

func (s *subscriber) graphqlStart(ctx context.Context, e events.GraphQLStart) {
	rid, _ := reqid.FromContext(ctx)
	parent, _ := withSpan(ctx, &s.httpSpans, rid)
	_, span := s.tracer.Start(parent, "graphql.operation")
	span.SetAttributes(
		attribute.String("graphql.operation.name", e.OperationName),
		attribute.String("graphql.operation.type", e.OperationType),
	)
	s.gqlSpans.Store(rid, span)
}

func (s *subscriber) graphqlFinish(ctx context.Context, e events.GraphQLFinish) {
	if e.Rejected {
		return
	}
	rid, _ := reqid.FromContext(ctx)
	v, ok := s.gqlSpans.LoadAndDelete(rid)
	if !ok {
		return
	}
	span := v.(trace.Span)
	span.SetAttributes(attribute.Int("graphql.error_count", len(e.Errors)))
	span.End()
}

func (s *subscriber) repositoryStart(ctx context.Context, e events.RepositoryStart) {
	rid, _ := reqid.FromContext(ctx)
	parent, ok := withSpan(ctx, &s.gqlSpans, rid)
	if !ok {
		parent, _ = withSpan(ctx, &s.httpSpans, rid)
	}
	_, span := s.tracer.Start(parent, "repository."+e.Op, trace.WithSpanKind(trace.SpanKindClient))
	span.SetAttributes(
		attribute.String("db.entity", e.Entity),
		attribute.String("db.operation", e.Op),
	)
	s.repoSpans.Store(e.CallID, span)
}

func (s *subscriber) repositoryFinish(_ context.Context, e events.RepositoryFinish) {
	v, ok := s.repoSpans.LoadAndDelete(e.CallID)
	if !ok {
		return
	}
	span := v.(trace.Span)
	span.SetAttributes(attribute.Int("db.rows", e.Rows))
	if e.Err != nil {
		span.RecordError(e.Err)
		span.SetStatus(codes.Error, e.Err.Error())
	}
	span.End()
}

// withSpan returns ctx carrying the span stored under rid in spans.
func withSpan(ctx context.Context, spans *sync.Map, rid string) (context.Context, bool) {
	if rid == "" {
		return ctx, false
	}
	if v, ok := spans.Load(rid); ok {
		return trace.ContextWithSpan(ctx, v.(trace.Span)), true
	}
	return ctx, false
}
