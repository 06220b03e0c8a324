package observe

import (
	"context"
	"errors"
	"io"

	"github.com/rs/zerolog"
	"go.opentelemetry.io/otel/exporters/stdout/stdoutmetric"
	"go.opentelemetry.io/otel/exporters/stdout/stdouttrace"
	"go.opentelemetry.io/otel/metric"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/trace"
)

const defaultService = "gidasclient"

// Config configures the bootstrap.
type Config struct {
	// Service names the meter/tracer scope and stamps log lines.
	// Default: "gidasclient".
	Service string

	// Logging options.
	LogLevel string
	Pretty   bool

	// LogWriter is the log destination. Default: os.Stderr.
	LogWriter io.Writer

	// TelemetryWriter receives exported spans and metrics. Default:
	// io.Discard, keeping the bootstrap silent unless asked.
	TelemetryWriter io.Writer
}

// Observability bundles the wired logger, meter and tracer.
type Observability struct {
	Logger zerolog.Logger
	Meter  metric.Meter
	Tracer trace.Tracer

	shutdowns []func(context.Context) error
}

// New wires a logger plus meter and tracer backed by stdout exporters.
// Call Shutdown to flush on exit.
func New(ctx context.Context, cfg Config) (*Observability, error) {
	service := cfg.Service
	if service == "" {
		service = defaultService
	}
	telemetry := cfg.TelemetryWriter
	if telemetry == nil {
		telemetry = io.Discard
	}

	logger := NewLogger(LoggerConfig{
		Level:   cfg.LogLevel,
		Pretty:  cfg.Pretty,
		Writer:  cfg.LogWriter,
		Service: service,
	})

	metricExporter, err := stdoutmetric.New(stdoutmetric.WithWriter(telemetry))
	if err != nil {
		return nil, err
	}
	meterProvider := sdkmetric.NewMeterProvider(
		sdkmetric.WithReader(sdkmetric.NewPeriodicReader(metricExporter)),
	)

	traceExporter, err := stdouttrace.New(stdouttrace.WithWriter(telemetry))
	if err != nil {
		shutdownErr := meterProvider.Shutdown(ctx)
		return nil, errors.Join(err, shutdownErr)
	}
	traceProvider := sdktrace.NewTracerProvider(
		sdktrace.WithBatcher(traceExporter),
	)

	return &Observability{
		Logger: logger,
		Meter:  meterProvider.Meter(service),
		Tracer: traceProvider.Tracer(service),
		shutdowns: []func(context.Context) error{
			meterProvider.Shutdown,
			traceProvider.Shutdown,
		},
	}, nil
}

// Shutdown flushes and stops the providers.
func (o *Observability) Shutdown(ctx context.Context) error {
	var errs []error
	for _, stop := range o.shutdowns {
		if err := stop(ctx); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
