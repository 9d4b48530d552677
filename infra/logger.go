package infra

import (
	"context"
	"fmt"
	"log/slog"
	"os"

	"github.com/ptndev/product-image-service/config"
	"go.opentelemetry.io/contrib/bridges/otelslog"
	"go.opentelemetry.io/otel/exporters/otlp/otlplog/otlploghttp"
	sdklog "go.opentelemetry.io/otel/sdk/log"
	"go.opentelemetry.io/otel/sdk/resource"
	semconv "go.opentelemetry.io/otel/semconv/v1.26.0"
)

type LoggerClient struct {
	logger   *slog.Logger
	provider *sdklog.LoggerProvider
}

// InitLoggerClient wires slog into the OTLP log pipeline when an endpoint is
// configured and falls back to JSON on stdout otherwise, so local runs need
// no collector.
func InitLoggerClient(cfg *config.EnvConfig) *LoggerClient {
	if cfg.Grafana.OTLPEndpoint == "" {
		return &LoggerClient{
			logger: slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelInfo})),
		}
	}

	opts := []otlploghttp.Option{
		otlploghttp.WithEndpoint(cfg.Grafana.OTLPEndpoint),
	}
	if cfg.Environment.Mode == "development" {
		opts = append(opts, otlploghttp.WithInsecure())
	}

	exporter, err := otlploghttp.New(context.Background(), opts...)
	if err != nil {
		panic(fmt.Sprintf("Failed to initialize OTLP log exporter: %v", err))
	}

	res, err := resource.Merge(resource.Default(), resource.NewWithAttributes(
		semconv.SchemaURL,
		semconv.ServiceName(cfg.Grafana.ServiceName),
		semconv.DeploymentEnvironment(cfg.Environment.Mode),
	))
	if err != nil {
		panic(fmt.Sprintf("Failed to build OTel resource: %v", err))
	}

	provider := sdklog.NewLoggerProvider(
		sdklog.WithProcessor(sdklog.NewBatchProcessor(exporter)),
		sdklog.WithResource(res),
	)

	return &LoggerClient{
		logger:   otelslog.NewLogger(cfg.Grafana.ServiceName, otelslog.WithLoggerProvider(provider)),
		provider: provider,
	}
}

func (l *LoggerClient) InfoWithContextf(ctx context.Context, format string, args ...interface{}) {
	l.logger.InfoContext(ctx, fmt.Sprintf(format, args...))
}

func (l *LoggerClient) WarningWithContextf(ctx context.Context, format string, args ...interface{}) {
	l.logger.WarnContext(ctx, fmt.Sprintf(format, args...))
}

func (l *LoggerClient) ErrorWithContextf(ctx context.Context, err error, format string, args ...interface{}) {
	if err != nil {
		l.logger.ErrorContext(ctx, fmt.Sprintf(format, args...), slog.String("error", err.Error()))
		return
	}
	l.logger.ErrorContext(ctx, fmt.Sprintf(format, args...))
}

func (l *LoggerClient) Shutdown(ctx context.Context) error {
	if l.provider == nil {
		return nil
	}
	return l.provider.Shutdown(ctx)
}
