package metrics

import (
	"context"

	"github.com/go-kit/kit/metrics"
	"github.com/go-kit/kit/metrics/discard"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

type factory interface {
	counter(name, desc string) metrics.Counter
	gauge(name, desc string) metrics.Gauge
	histogram(name, desc string, buckets ...float64) metrics.Histogram
}

// discardFactory hands out no-op instruments for nodes without exports
type discardFactory struct{}

func (discardFactory) counter(string, string) metrics.Counter { return discard.NewCounter() }
func (discardFactory) gauge(string, string) metrics.Gauge     { return discard.NewGauge() }
func (discardFactory) histogram(string, string, ...float64) metrics.Histogram {
	return discard.NewHistogram()
}

// meterFactory prefixes names and records histograms in seconds
type meterFactory struct {
	meter metric.Meter
}

func (f meterFactory) counter(name, desc string) metrics.Counter {
	return NewCounter(f.meter, prefix+name, desc)
}

func (f meterFactory) gauge(name, desc string) metrics.Gauge {
	return NewGauge(f.meter, prefix+name, desc)
}

func (f meterFactory) histogram(name, desc string, buckets ...float64) metrics.Histogram {
	return NewHistogram(f.meter, prefix+name, desc, "s", buckets...)
}

var (
	// LatencyBuckets suit request and job durations in seconds
	LatencyBuckets = []float64{.005, .01, .025, .05, .1, .25, .5, 1, 2.5, 5, 10}
	// RebuildBuckets suit full index rebuilds in seconds
	RebuildBuckets = []float64{1, 5, 15, 30, 60, 120, 300, 600, 1800}
)

// LabelValues alternates label names and values, a trailing name gets "unknown"
type LabelValues []string

func (lvs LabelValues) With(labelValues ...string) LabelValues {
	if len(labelValues)%2 != 0 {
		labelValues = append(labelValues, "unknown")
	}
	merged := make(LabelValues, 0, len(lvs)+len(labelValues))
	merged = append(merged, lvs...)
	return append(merged, labelValues...)
}

func (lvs LabelValues) ToLabels() []attribute.KeyValue {
	labels := make([]attribute.KeyValue, 0, len(lvs)/2)
	for i := 0; i+1 < len(lvs); i += 2 {
		labels = append(labels, attribute.String(lvs[i], lvs[i+1]))
	}
	return labels
}

func (lvs LabelValues) option() metric.MeasurementOption {
	return metric.WithAttributeSet(attribute.NewSet(lvs.ToLabels()...))
}

// Counter adapts an otel counter to the go-kit interface
type Counter struct {
	lvs LabelValues
	c   metric.Float64Counter
}

func NewCounter(meter metric.Meter, name string, desc string) *Counter {
	c, _ := meter.Float64Counter(name, metric.WithDescription(desc), metric.WithUnit("1"))
	return &Counter{c: c}
}

func (c *Counter) With(labelValues ...string) metrics.Counter {
	return &Counter{lvs: c.lvs.With(labelValues...), c: c.c}
}

func (c *Counter) Add(delta float64) {
	c.c.Add(context.Background(), delta, c.lvs.option())
}

// Gauge records the last value, Add behaves like Set
type Gauge struct {
	lvs LabelValues
	g   metric.Float64Gauge
}

func NewGauge(meter metric.Meter, name string, desc string) *Gauge {
	g, _ := meter.Float64Gauge(name, metric.WithDescription(desc), metric.WithUnit("1"))
	return &Gauge{g: g}
}

func (g *Gauge) With(labelValues ...string) metrics.Gauge {
	return &Gauge{lvs: g.lvs.With(labelValues...), g: g.g}
}

func (g *Gauge) Set(value float64) {
	g.g.Record(context.Background(), value, g.lvs.option())
}

func (g *Gauge) Add(delta float64) {
	g.Set(delta)
}

type Histogram struct {
	lvs LabelValues
	h   metric.Float64Histogram
}

// NewHistogram uses LatencyBuckets when no buckets are given
func NewHistogram(meter metric.Meter, name string, desc string, unit string, buckets ...float64) *Histogram {
	if len(buckets) == 0 {
		buckets = LatencyBuckets
	}
	h, _ := meter.Float64Histogram(name,
		metric.WithDescription(desc),
		metric.WithUnit(unit),
		metric.WithExplicitBucketBoundaries(buckets...),
	)
	return &Histogram{h: h}
}

func (h *Histogram) With(labelValues ...string) metrics.Histogram {
	return &Histogram{lvs: h.lvs.With(labelValues...), h: h.h}
}

func (h *Histogram) Observe(value float64) {
	h.h.Record(context.Background(), value, h.lvs.option())
}
