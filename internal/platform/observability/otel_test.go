package observability

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel/sdk/metric/metricdata"
)

func TestInit_CollectsMetricsWithoutExporter(t *testing.T) {
	logFile, err := os.Create(filepath.Join(t.TempDir(), "log.json"))
	require.NoError(t, err)
	defer logFile.Close()

	ctx := context.Background()
	instruments, shutdown, err := Init(ctx, Settings{
		ServiceName:   "pets-test",
		Tenant:        "diku",
		LogLevel:      "debug",
		TraceExporter: ExporterNone,
		LogOutput:     logFile,
	})
	require.NoError(t, err)
	defer func() { require.NoError(t, shutdown(ctx)) }()

	counter, err := instruments.Meter("pets").Int64Counter("pets.adoptions")
	require.NoError(t, err)
	counter.Add(ctx, 2)

	_, span := instruments.Tracer("pets").Start(ctx, "adopt")
	require.True(t, span.SpanContext().IsValid())
	span.End()

	var collected metricdata.ResourceMetrics
	require.NoError(t, instruments.MetricReader.Collect(ctx, &collected))
	require.Len(t, collected.ScopeMetrics, 1)
	require.Equal(t, "pets.adoptions", collected.ScopeMetrics[0].Metrics[0].Name)

	instruments.Logger.Info("adopted")
	raw, err := os.ReadFile(logFile.Name())
	require.NoError(t, err)
	require.Contains(t, string(raw), `"tenant":"diku"`)
}

func TestInit_RejectsUnknownExporter(t *testing.T) {
	_, _, err := Init(context.Background(), Settings{ServiceName: "pets-test", TraceExporter: "zipkin"})
	require.ErrorContains(t, err, "zipkin")
}

func TestInstruments_NilFallsBackToGlobals(t *testing.T) {
	var instruments *Instruments
	require.NotNil(t, instruments.Tracer("pets"))
	require.NotNil(t, instruments.Meter("pets"))
}
