// Package telemetry configures OpenTelemetry tracing.
package telemetry

import (
	"context"
	"io"
	"os"

	"github.com/rotisserie/eris"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/exporters/stdout/stdouttrace"
	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	semconv "go.opentelemetry.io/otel/semconv/v1.21.0"
	"go.uber.org/zap"
)

// ShutdownFunc flushes and stops the tracer provider.
type ShutdownFunc func(context.Context) error

// InitTracer installs a global tracer provider that exports spans to stdout.
func InitTracer(serviceName string) (ShutdownFunc, error) {
	return initTracer(serviceName, os.Stdout)
}

func initTracer(serviceName string, w io.Writer) (ShutdownFunc, error) {
	exporter, err := stdouttrace.New(stdouttrace.WithWriter(w))
	if err != nil {
		return nil, eris.Wrap(err, "telemetry: create exporter")
	}

	res, err := resource.Merge(
		resource.Default(),
		resource.NewWithAttributes("", semconv.ServiceName(serviceName)),
	)
	if err != nil {
		return nil, eris.Wrap(err, "telemetry: build resource")
	}

	tp := sdktrace.NewTracerProvider(
		sdktrace.WithBatcher(exporter),
		sdktrace.WithResource(res),
	)
	otel.SetTracerProvider(tp)

	zap.L().Info("tracing initialized", zap.String("service", serviceName))
	return tp.Shutdown, nil
}

// Noop is the ShutdownFunc used when tracing is disabled.
func Noop(context.Context) error { return nil }
