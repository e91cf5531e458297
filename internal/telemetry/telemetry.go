// Package telemetry configura el TracerProvider global de OpenTelemetry.
package telemetry

import (
	"context"
	"fmt"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace/otlptracehttp"
	"go.opentelemetry.io/otel/propagation"
	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	semconv "go.opentelemetry.io/otel/semconv/v1.21.0"
)

// ShutdownFunc vacía y cierra el exporter.
type ShutdownFunc func(ctx context.Context) error

// Options es lo que Setup toma de la configuración.
type Options struct {
	Endpoint    string // host:port del collector OTLP/HTTP; vacío desactiva el tracing
	ServiceName string
	Insecure    bool
}

var newExporter = func(ctx context.Context, options Options) (sdktrace.SpanExporter, error) {
	exporterOptions := []otlptracehttp.Option{otlptracehttp.WithEndpoint(options.Endpoint)}
	if options.Insecure {
		exporterOptions = append(exporterOptions, otlptracehttp.WithInsecure())
	}
	return otlptracehttp.New(ctx, exporterOptions...)
}

// Setup instala el TracerProvider global y el propagador W3C.
// Sin endpoint no se instala nada: otel queda con su provider no-op.
func Setup(ctx context.Context, options Options) (ShutdownFunc, error) {
	if options.Endpoint == "" {
		return func(context.Context) error { return nil }, nil
	}

	exporter, err := newExporter(ctx, options)
	if err != nil {
		return nil, fmt.Errorf("create otlp exporter: %w", err)
	}

	res, err := resource.New(ctx, resource.WithAttributes(semconv.ServiceName(options.ServiceName)))
	if err != nil {
		return nil, fmt.Errorf("create otel resource: %w", err)
	}

	provider := sdktrace.NewTracerProvider(
		sdktrace.WithBatcher(exporter),
		sdktrace.WithResource(res),
	)

	otel.SetTracerProvider(provider)
	otel.SetTextMapPropagator(propagation.NewCompositeTextMapPropagator(
		propagation.TraceContext{},
		propagation.Baggage{},
	))

	return provider.Shutdown, nil
}
