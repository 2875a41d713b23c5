package tracing

import (
	"context"
	"fmt"
	"net/url"

	"github.com/eventatlas/eventatlas/config"
	"github.com/eventatlas/eventatlas/config/modules"
	"go.opentelemetry.io/contrib/propagators/autoprop"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace/otlptracegrpc"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace/otlptracehttp"
	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	semconv "go.opentelemetry.io/otel/semconv/v1.26.0"
	"google.golang.org/grpc/encoding/gzip"
)

func newClient(c modules.Collector) (otlptrace.Client, error) {
	if err := c.Validate(); err != nil {
		return nil, err
	}

	if c.Protocol == modules.OtlpProtocolGRPC {
		return otlptracegrpc.NewClient(
			otlptracegrpc.WithEndpoint(c.Endpoint),
			otlptracegrpc.WithHeaders(c.Headers),
			otlptracegrpc.WithCompressor(gzip.Name),
			otlptracegrpc.WithInsecure(),
		), nil
	}

	endpoint, err := url.Parse(c.Endpoint)
	if err != nil {
		return nil, err
	}
	opts := []otlptracehttp.Option{
		otlptracehttp.WithEndpoint(endpoint.Host),
		otlptracehttp.WithHeaders(c.Headers),
		otlptracehttp.WithCompression(otlptracehttp.GzipCompression),
	}
	if endpoint.Scheme == "http" {
		opts = append(opts, otlptracehttp.WithInsecure())
	}
	if endpoint.Path != "" {
		opts = append(opts, otlptracehttp.WithURLPath(endpoint.Path))
	}
	return otlptracehttp.NewClient(opts...), nil
}

// SetupOTEL installs a batching tracer provider and the propagators selected by OTEL_PROPAGATORS
func SetupOTEL(o *modules.TracingConfig) (*sdktrace.TracerProvider, error) {
	client, err := newClient(o.Opentelemetry.Collector())
	if err != nil {
		return nil, fmt.Errorf("failed to setup exporter: %w", err)
	}
	exporter, err := otlptrace.New(context.Background(), client)
	if err != nil {
		return nil, fmt.Errorf("failed to setup exporter: %w", err)
	}

	attrs := []attribute.KeyValue{
		semconv.ServiceNameKey.String("eventatlas"),
		semconv.ServiceVersionKey.String(config.VERSION),
	}
	for k, v := range o.Attributes {
		attrs = append(attrs, attribute.String(k, v))
	}
	res, err := resource.New(context.Background(),
		resource.WithAttributes(attrs...),
		resource.WithFromEnv(),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to build resource: %w", err)
	}

	provider := sdktrace.NewTracerProvider(
		sdktrace.WithSampler(sdktrace.ParentBased(sdktrace.TraceIDRatioBased(o.SamplingRate))),
		sdktrace.WithResource(res),
		sdktrace.WithBatcher(exporter),
	)
	otel.SetTracerProvider(provider)
	otel.SetTextMapPropagator(autoprop.NewTextMapPropagator())

	return provider, nil
}
