// Package observability sets up process-wide logging, tracing and metrics.
package observability

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strings"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace/otlptracehttp"
	"go.opentelemetry.io/otel/exporters/stdout/stdouttrace"
	"go.opentelemetry.io/otel/metric"
	metricnoop "go.opentelemetry.io/otel/metric/noop"
	"go.opentelemetry.io/otel/propagation"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/trace"
)

// Trace exporters understood by Settings.TraceExporter.
const (
	ExporterOTLP   = "otlp"
	ExporterStdout = "stdout"
	ExporterNone   = "none"
)

// Settings selects how the process reports telemetry.
type Settings struct {
	ServiceName string
	Environment string
	// LogLevel accepts debug, info, warn or error.
	LogLevel string
	// Tenant is stamped on every span and log line.
	Tenant string
	// TraceExporter is otlp, stdout or none. Empty reads OTEL_TRACES_EXPORTER and
	// falls back to otlp.
	TraceExporter string
	// LogOutput defaults to stdout.
	LogOutput *os.File
}

// Instruments is what the rest of the process needs from observability.
type Instruments struct {
	Logger         *slog.Logger
	TracerProvider trace.TracerProvider
	MeterProvider  metric.MeterProvider
	// MetricReader lets callers pull OpenTelemetry metrics on demand.
	MetricReader sdkmetric.Reader
}

// Init installs the JSON slog default, a batching tracer provider and a meter
// provider. The returned shutdown flushes both providers.
func Init(ctx context.Context, settings Settings) (*Instruments, func(context.Context) error, error) {
	logger := newLogger(settings)

	res, err := newResource(ctx, settings)
	if err != nil {
		return nil, nil, fmt.Errorf("build otel resource: %w", err)
	}

	tracerProvider, err := newTracerProvider(ctx, settings, res, logger)
	if err != nil {
		return nil, nil, err
	}
	otel.SetTracerProvider(tracerProvider)
	otel.SetTextMapPropagator(propagation.NewCompositeTextMapPropagator(propagation.TraceContext{}, propagation.Baggage{}))

	reader := sdkmetric.NewManualReader()
	meterProvider := sdkmetric.NewMeterProvider(sdkmetric.WithResource(res), sdkmetric.WithReader(reader))
	otel.SetMeterProvider(meterProvider)

	shutdown := func(ctx context.Context) error {
		return errors.Join(meterProvider.Shutdown(ctx), tracerProvider.Shutdown(ctx))
	}
	return &Instruments{
		Logger:         logger,
		TracerProvider: tracerProvider,
		MeterProvider:  meterProvider,
		MetricReader:   reader,
	}, shutdown, nil
}

func (i *Instruments) Tracer(name string) trace.Tracer {
	if i == nil || i.TracerProvider == nil {
		return otel.Tracer(name)
	}
	return i.TracerProvider.Tracer(name)
}

func (i *Instruments) Meter(name string) metric.Meter {
	if i == nil || i.MeterProvider == nil {
		return metricnoop.NewMeterProvider().Meter(name)
	}
	return i.MeterProvider.Meter(name)
}

// ParseLevel maps a textual level to slog, defaulting to info.
func ParseLevel(level string) slog.Level {
	switch strings.ToLower(strings.TrimSpace(level)) {
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

func newLogger(settings Settings) *slog.Logger {
	out := settings.LogOutput
	if out == nil {
		out = os.Stdout
	}
	logger := slog.New(slog.NewJSONHandler(out, &slog.HandlerOptions{
		Level:     ParseLevel(settings.LogLevel),
		AddSource: true,
	})).With(slog.String("service", settings.ServiceName), slog.String("tenant", settings.Tenant))
	slog.SetDefault(logger)
	return logger
}

func newResource(ctx context.Context, settings Settings) (*resource.Resource, error) {
	environment := settings.Environment
	if environment == "" {
		environment = "local"
	}
	return resource.New(ctx,
		resource.WithFromEnv(),
		resource.WithProcess(),
		resource.WithTelemetrySDK(),
		resource.WithHost(),
		resource.WithAttributes(
			attribute.String("service.name", settings.ServiceName),
			attribute.String("deployment.environment", environment),
			attribute.String("tenant.id", settings.Tenant),
		),
	)
}

func newTracerProvider(ctx context.Context, settings Settings, res *resource.Resource, logger *slog.Logger) (*sdktrace.TracerProvider, error) {
	options := []sdktrace.TracerProviderOption{sdktrace.WithResource(res)}

	exporterName := strings.ToLower(strings.TrimSpace(settings.TraceExporter))
	if exporterName == "" {
		exporterName = strings.ToLower(strings.TrimSpace(os.Getenv("OTEL_TRACES_EXPORTER")))
	}
	switch exporterName {
	case ExporterNone:
	case ExporterStdout:
		exporter, err := stdouttrace.New(stdouttrace.WithPrettyPrint())
		if err != nil {
			return nil, fmt.Errorf("stdout trace exporter: %w", err)
		}
		options = append(options, sdktrace.WithBatcher(exporter))
	case "", ExporterOTLP:
		exporter, err := otlpExporter(ctx)
		if err != nil {
			logger.Warn("OTLP trace exporter unavailable, writing spans to stdout", slog.String("error", err.Error()))
			if exporter, err = stdouttrace.New(stdouttrace.WithPrettyPrint()); err != nil {
				return nil, fmt.Errorf("stdout trace exporter: %w", err)
			}
		}
		options = append(options, sdktrace.WithBatcher(exporter))
	default:
		return nil, fmt.Errorf("unknown trace exporter %q", exporterName)
	}
	return sdktrace.NewTracerProvider(options...), nil
}

func otlpExporter(ctx context.Context) (sdktrace.SpanExporter, error) {
	var opts []otlptracehttp.Option
	if endpoint := strings.TrimSpace(os.Getenv("OTEL_EXPORTER_OTLP_ENDPOINT")); endpoint != "" {
		opts = append(opts, otlptracehttp.WithEndpoint(endpoint))
	}
	if os.Getenv("OTEL_EXPORTER_OTLP_INSECURE") != "0" {
		opts = append(opts, otlptracehttp.WithInsecure())
	}
	return otlptracehttp.New(ctx, opts...)
}
