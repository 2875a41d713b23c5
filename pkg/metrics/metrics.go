package metrics

import (
	"context"
	"runtime"
	"time"

	"github.com/eventatlas/eventatlas/config/modules"
	"github.com/eventatlas/eventatlas/pkg/schedule"
	"github.com/eventatlas/eventatlas/utils"
	"github.com/go-kit/kit/metrics"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.uber.org/zap"
)

const shutdownTimeout = 5 * time.Second

type Metrics struct {
	ctx      context.Context
	cancel   context.CancelFunc
	provider *sdkmetric.MeterProvider

	Enabled  bool
	Interval time.Duration

	RuntimeGoroutine    metrics.Gauge
	RuntimeAlloc        metrics.Gauge
	RuntimeSys          metrics.Gauge
	RuntimeMallocs      metrics.Gauge
	RuntimeFrees        metrics.Gauge
	RuntimeHeapObjects  metrics.Gauge
	RuntimePauseTotalNs metrics.Gauge
	RuntimeGC           metrics.Gauge

	JobTotalCounter       metrics.Counter
	JobFailedCounter      metrics.Counter
	JobDeadCounter        metrics.Counter
	JobDurationHistogram  metrics.Histogram
	QueuePendingGauge     metrics.Gauge
	QueueDeadGauge        metrics.Gauge
	EventPersistedCounter metrics.Counter

	IndexRebuildCounter           metrics.Counter
	IndexRebuildDurationHistogram metrics.Histogram
	IndexDocumentCounter          metrics.Counter

	RequestCounter           metrics.Counter
	RequestDurationHistogram metrics.Histogram
}

func New(cfg modules.MetricsConfig) (*Metrics, error) {
	ctx, cancel := context.WithCancel(context.Background())
	m := &Metrics{
		ctx:     ctx,
		cancel:  cancel,
		Enabled: len(cfg.Exports) > 0,
	}

	if !m.Enabled {
		m.bind(discardFactory{})
		return m, nil
	}

	m.Interval = utils.Seconds(cfg.PushInterval)
	provider, err := newMeterProvider(cfg, m.Interval)
	if err != nil {
		cancel()
		return nil, err
	}
	m.provider = provider
	m.bind(meterFactory{meter: provider.Meter(instrumentationName)})
	schedule.Every(m.ctx, m.Interval, m.collectRuntimeStats)
	zap.S().Infof("enabled metric exports: %v", cfg.Exports)

	return m, nil
}

// bind creates every instrument through f
func (m *Metrics) bind(f factory) {
	m.RuntimeGoroutine = f.gauge("runtime.num_goroutine", "")
	m.RuntimeAlloc = f.gauge("runtime.alloc_bytes", "")
	m.RuntimeSys = f.gauge("runtime.sys_bytes", "")
	m.RuntimeMallocs = f.gauge("runtime.mallocs", "")
	m.RuntimeFrees = f.gauge("runtime.frees", "")
	m.RuntimeHeapObjects = f.gauge("runtime.heap_objects", "")
	m.RuntimePauseTotalNs = f.gauge("runtime.pause_total_ns", "")
	m.RuntimeGC = f.gauge("runtime.num_gc", "")

	m.JobTotalCounter = f.counter("job.total", "jobs processed")
	m.JobFailedCounter = f.counter("job.failed", "job attempts that failed")
	m.JobDeadCounter = f.counter("job.dead", "jobs moved to the dead-letter queue")
	m.JobDurationHistogram = f.histogram("job.duration", "")
	m.QueuePendingGauge = f.gauge("queue.pending", "")
	m.QueueDeadGauge = f.gauge("queue.dead", "")
	m.EventPersistedCounter = f.counter("event.persisted", "")

	m.IndexRebuildCounter = f.counter("index.rebuild.total", "")
	m.IndexRebuildDurationHistogram = f.histogram("index.rebuild.duration", "", RebuildBuckets...)
	m.IndexDocumentCounter = f.counter("index.documents", "documents written to the search index")

	m.RequestCounter = f.counter("request.total", "")
	m.RequestDurationHistogram = f.histogram("request.duration", "")
}

// Stop ends runtime collection and flushes pending exports
func (m *Metrics) Stop() error {
	m.cancel()
	if m.provider == nil {
		return nil
	}
	ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	return m.provider.Shutdown(ctx)
}

func (m *Metrics) collectRuntimeStats() {
	m.RuntimeGoroutine.Set(float64(runtime.NumGoroutine()))

	var stats runtime.MemStats
	runtime.ReadMemStats(&stats)
	for _, g := range []struct {
		gauge metrics.Gauge
		value uint64
	}{
		{m.RuntimeAlloc, stats.Alloc},
		{m.RuntimeSys, stats.Sys},
		{m.RuntimeMallocs, stats.Mallocs},
		{m.RuntimeFrees, stats.Frees},
		{m.RuntimeHeapObjects, stats.HeapObjects},
		{m.RuntimePauseTotalNs, stats.PauseTotalNs},
		{m.RuntimeGC, uint64(stats.NumGC)},
	} {
		g.gauge.Set(float64(g.value))
	}
}
