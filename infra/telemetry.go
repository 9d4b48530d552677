package infra

import (
	"context"
	"fmt"
	"time"

	"github.com/ptndev/product-image-service/config"
	"go.opentelemetry.io/contrib/instrumentation/runtime"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/exporters/otlp/otlpmetric/otlpmetrichttp"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace/otlptracehttp"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	semconv "go.opentelemetry.io/otel/semconv/v1.26.0"
)

// InitTelemetry sets up OTLP trace and metric providers plus Go runtime
// metrics. Returns a shutdown func; a no-op when no endpoint is configured.
func InitTelemetry(cfg *config.EnvConfig) func(context.Context) error {
	if cfg.Grafana.OTLPEndpoint == "" {
		return func(context.Context) error { return nil }
	}

	ctx := context.Background()

	res, err := resource.Merge(resource.Default(), resource.NewWithAttributes(
		semconv.SchemaURL,
		semconv.ServiceName(cfg.Grafana.ServiceName),
		semconv.DeploymentEnvironment(cfg.Environment.Mode),
	))
	if err != nil {
		panic(fmt.Sprintf("Failed to build OTel resource: %v", err))
	}

	traceOpts := []otlptracehttp.Option{otlptracehttp.WithEndpoint(cfg.Grafana.OTLPEndpoint)}
	metricOpts := []otlpmetrichttp.Option{otlpmetrichttp.WithEndpoint(cfg.Grafana.OTLPEndpoint)}
	if cfg.Environment.Mode == "development" {
		traceOpts = append(traceOpts, otlptracehttp.WithInsecure())
		metricOpts = append(metricOpts, otlpmetrichttp.WithInsecure())
	}

	traceExporter, err := otlptracehttp.New(ctx, traceOpts...)
	if err != nil {
		panic(fmt.Sprintf("Failed to initialize OTLP trace exporter: %v", err))
	}

	metricExporter, err := otlpmetrichttp.New(ctx, metricOpts...)
	if err != nil {
		panic(fmt.Sprintf("Failed to initialize OTLP metric exporter: %v", err))
	}

	tracerProvider := sdktrace.NewTracerProvider(
		sdktrace.WithBatcher(traceExporter),
		sdktrace.WithResource(res),
	)
	otel.SetTracerProvider(tracerProvider)

	meterProvider := sdkmetric.NewMeterProvider(
		sdkmetric.WithReader(sdkmetric.NewPeriodicReader(metricExporter, sdkmetric.WithInterval(30*time.Second))),
		sdkmetric.WithResource(res),
	)
	otel.SetMeterProvider(meterProvider)

	if err := runtime.Start(runtime.WithMeterProvider(meterProvider)); err != nil {
		panic(fmt.Sprintf("Failed to start runtime instrumentation: %v", err))
	}

	return func(ctx context.Context) error {
		if err := tracerProvider.Shutdown(ctx); err != nil {
			return err
		}
		return meterProvider.Shutdown(ctx)
	}
}
