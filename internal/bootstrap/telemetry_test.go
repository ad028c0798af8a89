package bootstrap

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"challenge-replayer/internal/config"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.uber.org/fx"
	"go.uber.org/fx/fxtest"
	"go.uber.org/zap"
)

func newTelemetryApp(t *testing.T, traceFile string) *fxtest.App {
	t.Helper()

	previous := otel.GetTracerProvider()
	t.Cleanup(func() {
		otel.SetTracerProvider(previous)
	})

	cfg := &config.Config{AppConfig: &config.AppConfig{TraceFile: traceFile}}

	return fxtest.New(t,
		fx.Supply(cfg, zap.NewNop()),
		telemetry(),
	)
}

func TestTelemetryInstallsGlobalProvider(t *testing.T) {
	traceFile := filepath.Join(t.TempDir(), "trace.json")
	app := newTelemetryApp(t, traceFile)

	app.RequireStart()

	_, ok := otel.GetTracerProvider().(*sdktrace.TracerProvider)
	require.True(t, ok, "global tracer provider should be the sdk provider")

	_, span := otel.Tracer("bootstrap_test").Start(context.Background(), "Locate")
	span.End()

	app.RequireStop()

	raw, err := os.ReadFile(traceFile)
	require.NoError(t, err)
	assert.Contains(t, string(raw), `"Name": "Locate"`)
	assert.Contains(t, string(raw), serviceName)
}

func TestTelemetryWithoutTraceFile(t *testing.T) {
	app := newTelemetryApp(t, "")

	app.RequireStart()

	_, ok := otel.GetTracerProvider().(*sdktrace.TracerProvider)
	assert.True(t, ok)

	app.RequireStop()
}
