package tracing

import (
	"context"
	"time"

	"github.com/eventatlas/eventatlas/config/modules"
	"go.opentelemetry.io/otel"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/trace"
)

const instrumentationName = "github.com/eventatlas/eventatlas"

type Tracer struct {
	provider *sdktrace.TracerProvider
}

// New sets up the global tracer provider, returns nil when tracing is disabled
func New(cfg *modules.TracingConfig) (*Tracer, error) {
	if !cfg.Enabled {
		return nil, nil
	}

	provider, err := SetupOTEL(cfg)
	if err != nil {
		return nil, err
	}

	return &Tracer{provider: provider}, nil
}

func (t *Tracer) Stop() error {
	if t == nil {
		return nil
	}
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return t.provider.Shutdown(ctx)
}

// Start starts a span from the global tracer provider, which is a no-op unless tracing is enabled
func Start(ctx context.Context, spanName string, opts ...trace.SpanStartOption) (context.Context, trace.Span) {
	return otel.Tracer(instrumentationName).Start(ctx, spanName, opts...)
}
