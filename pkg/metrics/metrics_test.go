package metrics

import (
	"context"
	"testing"

	"github.com/eventatlas/eventatlas/config/modules"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/metric/metricdata"
)

func TestNewDisabled(t *testing.T) {
	m, err := New(modules.MetricsConfig{})
	assert.NoError(t, err)
	assert.False(t, m.Enabled)

	assert.NotPanics(t, func() {
		m.JobTotalCounter.With("kind", "ingest").Add(1)
		m.QueuePendingGauge.Set(10)
		m.JobDurationHistogram.Observe(0.5)
		m.collectRuntimeStats()
	})
	assert.NoError(t, m.Stop())
}

func TestLabelValues(t *testing.T) {
	lvs := LabelValues{}.With("kind", "ingest", "status")
	assert.Equal(t, LabelValues{"kind", "ingest", "status", "unknown"}, lvs)

	labels := lvs.ToLabels()
	assert.Len(t, labels, 2)
	assert.Equal(t, "kind", string(labels[0].Key))
	assert.Equal(t, "ingest", labels[0].Value.AsString())
	assert.Equal(t, "unknown", labels[1].Value.AsString())
}

func TestLabelValuesDoNotAlias(t *testing.T) {
	base := make(LabelValues, 0, 8).With("kind", "ingest")
	a := base.With("status", "ok")
	b := base.With("status", "failed")
	assert.Equal(t, LabelValues{"kind", "ingest", "status", "ok"}, a)
	assert.Equal(t, LabelValues{"kind", "ingest", "status", "failed"}, b)
}

func TestInstrumentsRecord(t *testing.T) {
	reader := sdkmetric.NewManualReader()
	meter := sdkmetric.NewMeterProvider(sdkmetric.WithReader(reader)).Meter("test")

	NewCounter(meter, "job.total", "").With("kind", "ingest").Add(2)
	NewGauge(meter, "queue.pending", "").Set(7)
	NewHistogram(meter, "index.rebuild.duration", "", "s", RebuildBuckets...).Observe(42)

	var rm metricdata.ResourceMetrics
	require.NoError(t, reader.Collect(context.Background(), &rm))
	require.Len(t, rm.ScopeMetrics, 1)

	names := make(map[string]metricdata.Aggregation)
	for _, m := range rm.ScopeMetrics[0].Metrics {
		names[m.Name] = m.Data
	}
	sum := names["job.total"].(metricdata.Sum[float64])
	assert.Equal(t, 2.0, sum.DataPoints[0].Value)
	kind, _ := sum.DataPoints[0].Attributes.Value("kind")
	assert.Equal(t, "ingest", kind.AsString())
	assert.Equal(t, 7.0, names["queue.pending"].(metricdata.Gauge[float64]).DataPoints[0].Value)
	hist := names["index.rebuild.duration"].(metricdata.Histogram[float64])
	assert.Equal(t, RebuildBuckets, hist.DataPoints[0].Bounds)
}

func TestBindMeterFactory(t *testing.T) {
	reader := sdkmetric.NewManualReader()
	provider := sdkmetric.NewMeterProvider(sdkmetric.WithReader(reader))
	m := &Metrics{cancel: func() {}, provider: provider}
	m.bind(meterFactory{meter: provider.Meter("test")})

	m.JobTotalCounter.With("kind", "reindex").Add(1)
	m.collectRuntimeStats()

	var rm metricdata.ResourceMetrics
	require.NoError(t, reader.Collect(context.Background(), &rm))
	names := make(map[string]bool)
	for _, sm := range rm.ScopeMetrics {
		for _, metric := range sm.Metrics {
			names[metric.Name] = true
		}
	}
	assert.True(t, names["eventatlas.job.total"])
	assert.True(t, names["eventatlas.runtime.num_goroutine"])
	assert.True(t, names["eventatlas.runtime.heap_objects"])
	assert.False(t, names["eventatlas.job.dead"])

	assert.NoError(t, m.Stop())
}
