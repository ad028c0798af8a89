package bootstrap

import (
	"challenge-replayer/internal/config"
	"context"
	"io"
	"os"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/exporters/stdout/stdouttrace"
	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	semconv "go.opentelemetry.io/otel/semconv/v1.21.0"
	"go.uber.org/fx"
	"go.uber.org/zap"
)

const serviceName = "challenge-replayer"

// telemetry provides the tracer provider and forces its construction, so
// that the global provider is replaced before any component starts a span.
func telemetry() fx.Option {
	return fx.Options(
		fx.Provide(newTraceProvider),
		fx.Invoke(installTracing),
	)
}

func installTracing(tp *sdktrace.TracerProvider, config *config.Config, logger *zap.Logger) {
	if config.AppConfig.TraceFile == "" {
		logger.Debug("Tracing enabled, spans discarded")

		return
	}

	logger.Info("Tracing enabled", zap.String("trace_file", config.AppConfig.TraceFile))
}

func newTraceProvider(lc fx.Lifecycle, config *config.Config, logger *zap.Logger) (*sdktrace.TracerProvider, error) {
	var (
		out  io.Writer = io.Discard
		file *os.File
	)

	if path := config.AppConfig.TraceFile; path != "" {
		f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
		if err != nil {
			return nil, err
		}

		out, file = f, f
	}

	exporter, err := stdouttrace.New(
		stdouttrace.WithWriter(out),
		stdouttrace.WithPrettyPrint(),
	)
	if err != nil {
		return nil, err
	}

	res, err := resource.New(
		context.Background(),
		resource.WithAttributes(
			semconv.ServiceName(serviceName),
		),
	)
	if err != nil {
		return nil, err
	}

	tp := sdktrace.NewTracerProvider(
		sdktrace.WithBatcher(exporter),
		sdktrace.WithResource(res),
	)

	otel.SetTracerProvider(tp)

	lc.Append(fx.Hook{
		OnStop: func(ctx context.Context) error {
			err := tp.Shutdown(ctx)

			if file != nil {
				if closeErr := file.Close(); closeErr != nil {
					logger.Warn("Failed to close trace file", zap.Error(closeErr))
				}
			}

			return err
		},
	})

	return tp, nil
}
