package metrics

import (
	"context"
	"fmt"
	"time"

	"github.com/eventatlas/eventatlas/config"
	"github.com/eventatlas/eventatlas/config/modules"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/exporters/otlp/otlpmetric/otlpmetricgrpc"
	"go.opentelemetry.io/otel/exporters/otlp/otlpmetric/otlpmetrichttp"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/resource"
	semconv "go.opentelemetry.io/otel/semconv/v1.26.0"
)

const (
	prefix              = "eventatlas."
	instrumentationName = "github.com/eventatlas/eventatlas"
)

func newExporter(c modules.Collector) (sdkmetric.Exporter, error) {
	if err := c.Validate(); err != nil {
		return nil, err
	}
	ctx := context.Background()
	switch c.Protocol {
	case modules.OtlpProtocolGRPC:
		return otlpmetricgrpc.New(ctx,
			otlpmetricgrpc.WithEndpoint(c.Endpoint),
			otlpmetricgrpc.WithHeaders(c.Headers),
			otlpmetricgrpc.WithInsecure(),
		)
	default:
		return otlpmetrichttp.New(ctx,
			otlpmetrichttp.WithEndpointURL(c.Endpoint),
			otlpmetrichttp.WithHeaders(c.Headers),
		)
	}
}

func newResource(attributes map[string]string) (*resource.Resource, error) {
	attrs := []attribute.KeyValue{
		semconv.ServiceNameKey.String("eventatlas"),
		semconv.ServiceVersionKey.String(config.VERSION),
	}
	for name, value := range attributes {
		attrs = append(attrs, attribute.String(name, value))
	}
	return resource.New(context.Background(),
		resource.WithFromEnv(),
		resource.WithAttributes(attrs...),
	)
}

// newMeterProvider builds a provider pushing to the configured collector every interval
// and installs it as the global one
func newMeterProvider(cfg modules.MetricsConfig, interval time.Duration) (*sdkmetric.MeterProvider, error) {
	exporter, err := newExporter(cfg.Opentelemetry.Collector())
	if err != nil {
		return nil, fmt.Errorf("failed to setup exporter: %w", err)
	}
	res, err := newResource(cfg.Attributes)
	if err != nil {
		return nil, fmt.Errorf("failed to build resource: %w", err)
	}

	provider := sdkmetric.NewMeterProvider(
		sdkmetric.WithResource(res),
		sdkmetric.WithReader(sdkmetric.NewPeriodicReader(exporter, sdkmetric.WithInterval(interval))),
	)
	otel.SetMeterProvider(provider)
	return provider, nil
}
