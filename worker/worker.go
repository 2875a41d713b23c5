package worker

import (
	"context"
	"errors"
	"fmt"
	"runtime"
	"sync"
	"time"

	"github.com/eventatlas/eventatlas/config/modules"
	"github.com/eventatlas/eventatlas/indexer"
	"github.com/eventatlas/eventatlas/pkg/errs"
	"github.com/eventatlas/eventatlas/pkg/loglimiter"
	"github.com/eventatlas/eventatlas/pkg/metrics"
	"github.com/eventatlas/eventatlas/pkg/pool"
	"github.com/eventatlas/eventatlas/pkg/taskqueue"
	"github.com/eventatlas/eventatlas/pkg/tracing"
	"github.com/eventatlas/eventatlas/utils"
	"github.com/eventatlas/eventatlas/worker/retry"
	"go.uber.org/zap"
)

var (
	ErrServerStarted = errors.New("already started")
	ErrServerStopped = errors.New("already stopped")
)

// Reindexer writes the given events into the search index
type Reindexer interface {
	Upsert(ctx context.Context, hashes []string) (int, error)
}

type Options struct {
	PoolSize        int
	PoolConcurrency int
	MaxAttempts     int
	Backoff         modules.Backoff
	// PollTimeout bounds a single wait for new tasks
	PollTimeout time.Duration
	// BusyDelay is how long a reindex task waits while a rebuild holds the index
	BusyDelay time.Duration
}

func OptionsFromConfig(cfg modules.WorkerConfig) Options {
	return Options{
		PoolSize:        int(cfg.Pool.Size),
		PoolConcurrency: utils.DefaultIfZero(int(cfg.Pool.Concurrency), runtime.NumCPU()),
		MaxAttempts:     int(cfg.MaxAttempts),
		Backoff:         cfg.Backoff,
		PollTimeout:     time.Second,
		BusyDelay:       5 * time.Second,
	}
}

type Worker struct {
	mux     sync.Mutex
	started bool
	ctx     context.Context
	cancel  context.CancelFunc
	done    chan struct{}
	log     *zap.SugaredLogger

	opts      Options
	queue     taskqueue.TaskQueue
	ingester  *Ingester
	reindexer Reindexer
	retry     retry.Policy
	pool      *pool.Pool
	metrics   *metrics.Metrics

	logLimiter *loglimiter.Limiter
}

func NewWorker(opts Options,
	queue taskqueue.TaskQueue,
	ingester *Ingester,
	reindexer Reindexer,
	metrics *metrics.Metrics) *Worker {
	backoff := opts.Backoff
	return &Worker{
		log:        zap.S().Named("worker"),
		opts:       opts,
		queue:      queue,
		ingester:   ingester,
		reindexer:  reindexer,
		metrics:    metrics,
		logLimiter: loglimiter.NewLimiter(30 * time.Second),
		retry: retry.Policy{
			Initial:     utils.Seconds(backoff.Initial),
			Max:         utils.Seconds(backoff.Max),
			Multiplier:  backoff.Multiplier,
			MaxAttempts: opts.MaxAttempts,
			Jitter:      backoff.Jitter,
		},
	}
}

// Start starts worker
func (w *Worker) Start() error {
	w.mux.Lock()
	defer w.mux.Unlock()

	if w.started {
		return ErrServerStarted
	}

	w.ctx, w.cancel = context.WithCancel(context.Background())
	w.done = make(chan struct{})
	w.pool = pool.New(w.opts.PoolSize, w.opts.PoolConcurrency)
	go w.run()

	w.started = true
	w.log.Infof("started with %d workers", w.opts.PoolConcurrency)
	return nil
}

// Stop stops fetching, waits for in-flight tasks to finish.
// Tasks fetched but not yet running are redelivered after the visibility timeout.
func (w *Worker) Stop() error {
	w.mux.Lock()
	defer w.mux.Unlock()

	if !w.started {
		return ErrServerStopped
	}

	w.cancel()
	<-w.done
	w.pool.Shutdown()

	w.started = false
	w.log.Info("stopped")
	return nil
}

func (w *Worker) run() {
	defer close(w.done)

	for {
		if w.ctx.Err() != nil {
			return
		}

		tasks, err := w.queue.Get(w.ctx, &taskqueue.GetOptions{Count: int64(max(w.pool.Idle(), 1))})
		if err != nil {
			if w.ctx.Err() != nil {
				return
			}
			if ok, suppressed := w.logLimiter.Allow("get"); ok {
				w.log.Errorw("failed to get tasks from queue", "error", err, "suppressed", suppressed)
			}
			w.sleep(time.Second)
			continue
		}
		w.logLimiter.Reset("get")

		if len(tasks) == 0 {
			if err := w.queue.Wait(w.ctx, w.opts.PollTimeout); err != nil && w.ctx.Err() == nil {
				if ok, suppressed := w.logLimiter.Allow("wait"); ok {
					w.log.Warnw("failed to wait for tasks", "error", err, "suppressed", suppressed)
				}
				w.sleep(time.Second)
			}
			continue
		}

		for _, task := range tasks {
			task := task
			w.log.Debugf("receive task: %v (attempt %d)", task, task.Attempts)
			err := w.pool.Submit(w.ctx, func() {
				w.process(context.WithoutCancel(w.ctx), task)
			})
			if err != nil {
				return
			}
		}
	}
}

func (w *Worker) sleep(d time.Duration) {
	select {
	case <-w.ctx.Done():
	case <-time.After(d):
	}
}

func (w *Worker) process(ctx context.Context, task *taskqueue.TaskMessage) {
	ctx, span := tracing.Start(ctx, "worker.process")
	defer span.End()

	start := time.Now()
	err := w.handle(ctx, task)
	w.metrics.JobDurationHistogram.With("kind", string(task.Kind)).Observe(time.Since(start).Seconds())

	if err == nil {
		w.metrics.JobTotalCounter.With("kind", string(task.Kind), "status", "succeeded").Add(1)
		if err := w.queue.Delete(ctx, task); err != nil {
			w.log.Errorf("failed to ack task %s: %v", task, err)
		}
		return
	}

	w.metrics.JobTotalCounter.With("kind", string(task.Kind), "status", "failed").Add(1)
	w.fail(ctx, task, err)
}

// fail applies the failure policy: invalid input is dead-lettered at once,
// a busy index is retried without spending an attempt, the rest back off
// until the attempts are exhausted.
func (w *Worker) fail(ctx context.Context, task *taskqueue.TaskMessage, err error) {
	switch {
	case errs.IsValidateError(err):
		w.log.Warnf("task %s rejected: %v", task, err)
		w.deadLetter(ctx, task, err)
	case errors.Is(err, indexer.ErrIndexBusy):
		w.log.Debugf("task %s deferred: %v", task, err)
		if err := w.queue.Schedule(ctx, task, time.Now().Add(w.opts.BusyDelay), true); err != nil {
			w.log.Errorf("failed to reschedule task %s: %v", task, err)
		}
	default:
		w.metrics.JobFailedCounter.With("kind", string(task.Kind)).Add(1)
		delay, ok := w.retry.Next(int(task.Attempts))
		if !ok {
			w.log.Errorf("task %s failed after %d attempts: %v", task, task.Attempts, err)
			w.deadLetter(ctx, task, fmt.Errorf("attempts exhausted: %w", err))
			return
		}
		w.log.Warnf("task %s failed (attempt %d), retrying in %s: %v", task, task.Attempts, delay, err)
		if err := w.queue.Schedule(ctx, task, time.Now().Add(delay), false); err != nil {
			w.log.Errorf("failed to reschedule task %s: %v", task, err)
		}
	}
}

func (w *Worker) deadLetter(ctx context.Context, task *taskqueue.TaskMessage, reason error) {
	w.metrics.JobDeadCounter.With("kind", string(task.Kind)).Add(1)
	if err := w.queue.DeadLetter(ctx, task, reason.Error()); err != nil {
		w.log.Errorf("failed to dead-letter task %s: %v", task, err)
	}
}

func (w *Worker) handle(ctx context.Context, task *taskqueue.TaskMessage) error {
	switch task.Kind {
	case taskqueue.TaskKindIngest:
		data := &IngestData{}
		if err := task.UnmarshalData(data); err != nil {
			return errs.NewValidateError(fmt.Errorf("malformed ingest task: %w", err))
		}
		task.Data = data
		_, err := w.ingester.Ingest(ctx, data)
		return err
	case taskqueue.TaskKindReindex:
		data := &ReindexData{}
		if err := task.UnmarshalData(data); err != nil {
			return errs.NewValidateError(fmt.Errorf("malformed reindex task: %w", err))
		}
		task.Data = data
		n, err := w.reindexer.Upsert(ctx, data.Hashes)
		if err == nil {
			w.log.Debugf("reindexed %d of %d events", n, len(data.Hashes))
		}
		return err
	default:
		return errs.NewValidateError(fmt.Errorf("unknown task kind %q", task.Kind))
	}
}
