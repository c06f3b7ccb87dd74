package tracing

import (
	"context"
	"io"
	"os"
	"sort"
	"sync"

	"github.com/viant/lakeflow/model/failure"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/exporters/stdout/stdouttrace"
	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/trace"
)

const tracerName = "github.com/viant/lakeflow"

// Span attribute keys
const (
	AttrPipeline    = "lakeflow.pipeline"
	AttrExecutionID = "lakeflow.execution.id"
	AttrNodePath    = "lakeflow.node.path"
	AttrNodeKind    = "lakeflow.node.kind"
	AttrErrorKind   = "lakeflow.error.kind"
	AttrFailedNode  = "lakeflow.error.node"
)

var (
	providerOnce sync.Once
	providerErr  error
	provider     *sdktrace.TracerProvider
	output       io.Closer
)

// Init installs a provider exporting spans as JSON lines to outputFile, or stdout when empty.
// The first successful initialisation wins.
func Init(serviceName, serviceVersion, outputFile string) error {
	var w io.Writer = os.Stdout
	if outputFile != "" {
		f, err := os.Create(outputFile)
		if err != nil {
			return err
		}
		w = f
		output = f
	}
	exporter, err := stdouttrace.New(stdouttrace.WithWriter(w))
	if err != nil {
		return err
	}
	return InitWithExporter(serviceName, serviceVersion, exporter)
}

// InitWithExporter installs a provider using the supplied exporter
func InitWithExporter(serviceName, serviceVersion string, exporter sdktrace.SpanExporter) error {
	if exporter == nil {
		return nil
	}
	providerOnce.Do(func() {
		res, err := resource.New(context.Background(),
			resource.WithAttributes(
				attribute.String("service.name", serviceName),
				attribute.String("service.version", serviceVersion),
			),
		)
		if err != nil {
			providerErr = err
			return
		}
		provider = sdktrace.NewTracerProvider(
			sdktrace.WithSpanProcessor(sdktrace.NewSimpleSpanProcessor(exporter)),
			sdktrace.WithResource(res),
		)
		otel.SetTracerProvider(provider)
	})
	return providerErr
}

// Shutdown flushes the provider and closes the trace file
func Shutdown(ctx context.Context) error {
	if provider == nil {
		return nil
	}
	err := provider.Shutdown(ctx)
	if output != nil {
		_ = output.Close()
		output = nil
	}
	return err
}

// Span wraps an otel span
type Span struct {
	span trace.Span
}

// WithAttributes sets string attributes in key order
func (s *Span) WithAttributes(attrs map[string]string) *Span {
	if s == nil || len(attrs) == 0 {
		return s
	}
	keys := make([]string, 0, len(attrs))
	for k := range attrs {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	kvs := make([]attribute.KeyValue, 0, len(keys))
	for _, k := range keys {
		kvs = append(kvs, attribute.String(k, attrs[k]))
	}
	s.span.SetAttributes(kvs...)
	return s
}

// StartPipelineSpan starts the root span of an execution
func StartPipelineSpan(ctx context.Context, pipeline, executionID string) (context.Context, *Span) {
	ctx, span := otel.Tracer(tracerName).Start(ctx, "pipeline "+pipeline,
		trace.WithSpanKind(trace.SpanKindInternal),
		trace.WithAttributes(attribute.String(AttrPipeline, pipeline), attribute.String(AttrExecutionID, executionID)))
	return ctx, &Span{span: span}
}

// StartNodeSpan starts a span for a workflow node; task nodes call external engines
func StartNodeSpan(ctx context.Context, kind, name, path, executionID string) (context.Context, *Span) {
	spanKind := trace.SpanKindInternal
	if kind == "task" {
		spanKind = trace.SpanKindClient
	}
	ctx, span := otel.Tracer(tracerName).Start(ctx, kind+" "+name,
		trace.WithSpanKind(spanKind),
		trace.WithAttributes(
			attribute.String(AttrNodePath, path),
			attribute.String(AttrNodeKind, kind),
			attribute.String(AttrExecutionID, executionID),
		))
	return ctx, &Span{span: span}
}

// EndSpan records the outcome and ends the span; classified failures add their kind and node
func EndSpan(sp *Span, err error) {
	if sp == nil {
		return
	}
	if err == nil {
		sp.span.SetStatus(codes.Ok, "")
		sp.span.End()
		return
	}
	if kind := failure.KindOf(err); kind != "" {
		sp.span.SetAttributes(attribute.String(AttrErrorKind, string(kind)))
		if node := failure.As(err).Node; node != "" {
			sp.span.SetAttributes(attribute.String(AttrFailedNode, node))
		}
	}
	sp.span.RecordError(err)
	sp.span.SetStatus(codes.Error, err.Error())
	sp.span.End()
}
