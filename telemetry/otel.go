package telemetry

import (
	"context"
	"fmt"
	"sync"

	"github.com/sinp-protocol/sinp/core"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/exporters/stdout/stdouttrace"
	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	semconv "go.opentelemetry.io/otel/semconv/v1.17.0"
	"go.opentelemetry.io/otel/trace"
)

// OTelProvider implements core.Telemetry with OpenTelemetry tracing only.
// SINP has no metrics pipeline (see DESIGN.md); RecordMetric exists to
// satisfy the interface and is a no-op.
type OTelProvider struct {
	tracer        trace.Tracer
	traceProvider *sdktrace.TracerProvider
	shutdownOnce  sync.Once
	shutdown      bool
	mu            sync.RWMutex
}

// NewOTelProvider creates a provider that exports spans through exporter,
// tagging them with serviceName.
func NewOTelProvider(serviceName string, exporter sdktrace.SpanExporter) (*OTelProvider, error) {
	if serviceName == "" {
		return nil, fmt.Errorf("service name cannot be empty")
	}

	res := resource.NewWithAttributes(
		semconv.SchemaURL,
		semconv.ServiceNameKey.String(serviceName),
		semconv.ServiceVersionKey.String("1.0.0"),
	)

	traceProvider := sdktrace.NewTracerProvider(
		sdktrace.WithBatcher(exporter),
		sdktrace.WithResource(res),
	)

	return &OTelProvider{
		tracer:        traceProvider.Tracer("sinp"),
		traceProvider: traceProvider,
	}, nil
}

// NewStdoutProvider is a convenience constructor wiring the indented-JSON
// stdout exporter used by the CLI entrypoints.
func NewStdoutProvider(serviceName string) (*OTelProvider, error) {
	exporter, err := stdouttrace.New(stdouttrace.WithPrettyPrint())
	if err != nil {
		return nil, fmt.Errorf("failed to create stdout trace exporter: %w", err)
	}
	return NewOTelProvider(serviceName, exporter)
}

// StartSpan starts a new span, or returns a no-op span once the provider
// has been shut down.
func (o *OTelProvider) StartSpan(ctx context.Context, name string) (context.Context, core.Span) {
	o.mu.RLock()
	defer o.mu.RUnlock()
	if o.shutdown || o.tracer == nil {
		return ctx, &core.NoOpSpan{}
	}

	ctx, span := o.tracer.Start(ctx, name)
	return ctx, &otelSpan{span: span}
}

// RecordMetric is a no-op: SINP exports traces only.
func (o *OTelProvider) RecordMetric(name string, value float64, labels map[string]string) {}

// Shutdown flushes and stops the trace provider. Idempotent.
func (o *OTelProvider) Shutdown(ctx context.Context) (shutdownErr error) {
	o.shutdownOnce.Do(func() {
		o.mu.Lock()
		o.shutdown = true
		o.mu.Unlock()

		if o.traceProvider != nil {
			shutdownErr = o.traceProvider.Shutdown(ctx)
		}
	})
	return shutdownErr
}

// otelSpan wraps an OpenTelemetry span to implement core.Span.
type otelSpan struct {
	span trace.Span
}

func (s *otelSpan) End() {
	s.span.End()
}

func (s *otelSpan) SetAttribute(key string, value interface{}) {
	switch v := value.(type) {
	case string:
		s.span.SetAttributes(attribute.String(key, v))
	case int:
		s.span.SetAttributes(attribute.Int(key, v))
	case int64:
		s.span.SetAttributes(attribute.Int64(key, v))
	case float64:
		s.span.SetAttributes(attribute.Float64(key, v))
	case bool:
		s.span.SetAttributes(attribute.Bool(key, v))
	default:
		s.span.SetAttributes(attribute.String(key, fmt.Sprintf("%v", v)))
	}
}

func (s *otelSpan) RecordError(err error) {
	s.span.RecordError(err)
}
