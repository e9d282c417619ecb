// Package tracing installs the OpenTelemetry tracer provider.
package tracing

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/exporters/stdout/stdouttrace"
	"go.opentelemetry.io/otel/propagation"
	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/trace"
)

// Exporter names accepted by Setup.
const (
	ExporterNone   = "none"
	ExporterStdout = "stdout"
)

const instrumentationName = "github.com/okian/cropadvisor"

// ErrUnknownExporter is returned for exporter names Setup does not support.
var ErrUnknownExporter = errors.New("unknown trace exporter")

// ShutdownFunc flushes and stops the tracer provider.
type ShutdownFunc func(ctx context.Context) error

type options struct {
	serviceName string
	version     string
	out         io.Writer
	pretty      bool
}

// Option configures Setup.
type Option func(*options)

// WithServiceName sets the service.name resource attribute.
func WithServiceName(name string) Option {
	return func(o *options) {
		if name != "" {
			o.serviceName = name
		}
	}
}

// WithVersion sets the service.version resource attribute.
func WithVersion(v string) Option {
	return func(o *options) { o.version = v }
}

// WithWriter redirects the stdout exporter.
func WithWriter(w io.Writer) Option {
	return func(o *options) {
		if w != nil {
			o.out = w
		}
	}
}

// WithPrettyPrint indents exported spans.
func WithPrettyPrint() Option {
	return func(o *options) { o.pretty = true }
}

// Setup installs a global tracer provider for exporter. With ExporterNone
// (or "") the global no-op provider is left in place.
func Setup(ctx context.Context, exporter string, opts ...Option) (ShutdownFunc, error) {
	o := options{serviceName: "cropadvisor", out: os.Stdout}
	for _, opt := range opts {
		opt(&o)
	}

	switch exporter {
	case "", ExporterNone:
		return func(context.Context) error { return nil }, nil
	case ExporterStdout:
	default:
		return nil, fmt.Errorf("%w: %s", ErrUnknownExporter, exporter)
	}

	exOpts := []stdouttrace.Option{stdouttrace.WithWriter(o.out)}
	if o.pretty {
		exOpts = append(exOpts, stdouttrace.WithPrettyPrint())
	}
	exp, err := stdouttrace.New(exOpts...)
	if err != nil {
		return nil, fmt.Errorf("create stdout exporter: %w", err)
	}

	attrs := []attribute.KeyValue{attribute.String("service.name", o.serviceName)}
	if o.version != "" {
		attrs = append(attrs, attribute.String("service.version", o.version))
	}

	provider := sdktrace.NewTracerProvider(
		sdktrace.WithBatcher(exp),
		sdktrace.WithResource(resource.NewSchemaless(attrs...)),
	)
	otel.SetTracerProvider(provider)
	otel.SetTextMapPropagator(propagation.NewCompositeTextMapPropagator(
		propagation.TraceContext{},
		propagation.Baggage{},
	))

	return provider.Shutdown, nil
}

// Tracer returns the service tracer from the global provider.
func Tracer() trace.Tracer {
	return otel.Tracer(instrumentationName)
}
