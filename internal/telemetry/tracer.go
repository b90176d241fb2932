// Package telemetry installs the OpenTelemetry tracer provider used by the
// vigil CLI.
package telemetry

import (
	"context"
	"io"
	"log/slog"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/exporters/stdout/stdouttrace"
	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/trace"
)

// ServiceName is reported as service.name on every span.
const ServiceName = "vigil"

// Shutdown flushes pending spans and releases the provider.
type Shutdown func(context.Context) error

// InitTracer builds a provider exporting pretty-printed spans to w and
// registers it globally. The returned tracer provider is also handed back
// so callers can pass it explicitly.
func InitTracer(w io.Writer, logger *slog.Logger) (trace.TracerProvider, Shutdown, error) {
	exporter, err := stdouttrace.New(
		stdouttrace.WithWriter(w),
		stdouttrace.WithPrettyPrint(),
	)
	if err != nil {
		return nil, nil, err
	}

	res, err := resource.Merge(
		resource.Default(),
		resource.NewSchemaless(attribute.String("service.name", ServiceName)),
	)
	if err != nil {
		return nil, nil, err
	}

	// Synchronous export keeps span output ordered with command output.
	tp := sdktrace.NewTracerProvider(
		sdktrace.WithSyncer(exporter),
		sdktrace.WithResource(res),
	)
	otel.SetTracerProvider(tp)

	logger.Debug("OpenTelemetry initialized", slog.String("service", ServiceName))

	return tp, tp.Shutdown, nil
}
