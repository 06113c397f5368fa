package telemetry

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog/log"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/exporters/otlp/otlpmetric/otlpmetricgrpc"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace/otlptracegrpc"
	"go.opentelemetry.io/otel/propagation"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	semconv "go.opentelemetry.io/otel/semconv/v1.24.0"
)

// Config controls the OTLP exporters. Endpoints and headers are read by the exporters
// from the standard OTEL_EXPORTER_OTLP_* environment variables.
type Config struct {
	ServiceName string
	Version     string
	// SampleRatio is the fraction of root traces kept, child spans follow their parent.
	SampleRatio float64
	// MetricInterval is how often work session metrics are pushed.
	MetricInterval time.Duration
}

func (c *Config) defaults() {
	if c.SampleRatio <= 0 || c.SampleRatio > 1 {
		c.SampleRatio = 1
	}
	if c.MetricInterval <= 0 {
		c.MetricInterval = 30 * time.Second
	}
}

// Providers holds the installed trace and meter providers.
type Providers struct {
	shutdowns []func(context.Context) error
}

// Setup installs global trace and meter providers exporting over OTLP gRPC. A provider
// that cannot be created is skipped with a warning so the server still starts.
func Setup(ctx context.Context, cfg Config) (*Providers, error) {
	cfg.defaults()

	res, err := resource.New(ctx,
		resource.WithAttributes(
			semconv.ServiceName(cfg.ServiceName),
			semconv.ServiceVersion(cfg.Version),
		),
		resource.WithFromEnv(),
		resource.WithHost(),
		resource.WithProcessRuntimeVersion(),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create resource: %w", err)
	}

	p := &Providers{}

	if tp, err := newTracerProvider(ctx, res, cfg.SampleRatio); err != nil {
		log.Warn().Err(err).Msg("tracing disabled")
	} else {
		otel.SetTracerProvider(tp)
		p.shutdowns = append(p.shutdowns, tp.Shutdown)
	}

	if mp, err := newMeterProvider(ctx, res, cfg.MetricInterval); err != nil {
		log.Warn().Err(err).Msg("metrics export disabled")
	} else {
		otel.SetMeterProvider(mp)
		p.shutdowns = append(p.shutdowns, mp.Shutdown)
	}

	otel.SetTextMapPropagator(propagation.NewCompositeTextMapPropagator(
		propagation.TraceContext{},
		propagation.Baggage{},
	))

	log.Info().
		Str("service", cfg.ServiceName).
		Float64("sample_ratio", cfg.SampleRatio).
		Dur("metric_interval", cfg.MetricInterval).
		Msg("telemetry enabled")

	return p, nil
}

// Shutdown flushes and stops every provider.
func (p *Providers) Shutdown(ctx context.Context) error {
	var errs []error
	for _, shutdown := range p.shutdowns {
		if err := shutdown(ctx); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

func newTracerProvider(ctx context.Context, res *resource.Resource, ratio float64) (*sdktrace.TracerProvider, error) {
	exporter, err := otlptracegrpc.New(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to create trace exporter: %w", err)
	}

	return sdktrace.NewTracerProvider(
		sdktrace.WithBatcher(exporter, sdktrace.WithBatchTimeout(5*time.Second)),
		sdktrace.WithResource(res),
		sdktrace.WithSampler(sdktrace.ParentBased(sdktrace.TraceIDRatioBased(ratio))),
	), nil
}

func newMeterProvider(ctx context.Context, res *resource.Resource, interval time.Duration) (*sdkmetric.MeterProvider, error) {
	exporter, err := otlpmetricgrpc.New(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to create metric exporter: %w", err)
	}

	return sdkmetric.NewMeterProvider(
		sdkmetric.WithReader(sdkmetric.NewPeriodicReader(exporter, sdkmetric.WithInterval(interval))),
		sdkmetric.WithResource(res),
	), nil
}
