package status

import (
	"context"
	"time"

	"github.com/eventatlas/eventatlas/indexer"
	"github.com/eventatlas/eventatlas/pkg/taskqueue"
	"github.com/eventatlas/eventatlas/status/health"
	"github.com/eventatlas/eventatlas/utils"
)

const defaultCheckTimeout = 3 * time.Second

type IndexStatuser interface {
	Status(ctx context.Context) (*indexer.Status, error)
}

type QueueStats struct {
	Size        int64 `json:"size"`
	DeadLetters int64 `json:"dead_letters"`
}

type IndexStats struct {
	Collection string            `json:"collection"`
	Physical   string            `json:"physical"`
	Documents  int64             `json:"documents"`
	Degraded   bool              `json:"degraded"`
	Detail     *indexer.Degraded `json:"degraded_detail,omitempty"`
	Error      *string           `json:"error,omitempty"`
}

// Report is the operational state of the catalog
type Report struct {
	Status     health.Status            `json:"status"`
	Components map[string]health.Result `json:"components"`
	Queue      *QueueStats              `json:"queue,omitempty"`
	Index      *IndexStats              `json:"index,omitempty"`
}

func (r *Report) down(component string, err error) {
	r.Status = health.StatusDown
	r.Components[component] = health.Result{Status: health.StatusDown, Error: utils.Pointer(err.Error())}
}

// Reporter gathers health indicators, queue sizes and index state
type Reporter struct {
	indicators []*health.Indicator
	queue      taskqueue.TaskQueue
	indexer    IndexStatuser
	timeout    time.Duration
}

type ReporterOptions struct {
	Indicators []*health.Indicator
	Queue      taskqueue.TaskQueue
	Indexer    IndexStatuser
	// Timeout bounds each indicator check, defaults to 3s
	Timeout time.Duration
}

func NewReporter(opts ReporterOptions) *Reporter {
	return &Reporter{
		indicators: opts.Indicators,
		queue:      opts.Queue,
		indexer:    opts.Indexer,
		timeout:    utils.DefaultIfZero(opts.Timeout, defaultCheckTimeout),
	}
}

func (r *Reporter) Health(ctx context.Context) (health.Status, map[string]health.Result) {
	return health.Run(ctx, r.indicators, r.timeout)
}

func (r *Reporter) queueStats(ctx context.Context) (*QueueStats, error) {
	size, err := r.queue.Size(ctx)
	if err != nil {
		return nil, err
	}
	dead, err := r.queue.DeadLetterSize(ctx)
	if err != nil {
		return nil, err
	}
	return &QueueStats{Size: size, DeadLetters: dead}, nil
}

func (r *Reporter) indexStats(ctx context.Context) *IndexStats {
	st, err := r.indexer.Status(ctx)
	if err != nil {
		return &IndexStats{Error: utils.Pointer(err.Error())}
	}
	return &IndexStats{
		Collection: st.Collection,
		Physical:   st.Physical,
		Documents:  st.Documents,
		Degraded:   st.Degraded != nil,
		Detail:     st.Degraded,
	}
}

// Report never fails. An unreachable queue marks the report DOWN,
// an unreachable index is reported without affecting the status.
func (r *Reporter) Report(ctx context.Context) *Report {
	report := &Report{}
	report.Status, report.Components = r.Health(ctx)

	if r.queue != nil {
		stats, err := r.queueStats(ctx)
		if err != nil {
			report.down("queue", err)
		}
		report.Queue = stats
	}
	if r.indexer != nil {
		report.Index = r.indexStats(ctx)
	}
	return report
}
