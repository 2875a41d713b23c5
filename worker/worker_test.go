package worker

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/eventatlas/eventatlas/config/modules"
	"github.com/eventatlas/eventatlas/db/entities"
	"github.com/eventatlas/eventatlas/indexer"
	"github.com/eventatlas/eventatlas/notify"
	"github.com/eventatlas/eventatlas/pkg/errs"
	"github.com/eventatlas/eventatlas/pkg/metrics"
	"github.com/eventatlas/eventatlas/pkg/taskqueue"
	"github.com/eventatlas/eventatlas/test/fakes"
	"github.com/eventatlas/eventatlas/test/mocks"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"
)

type fakeReindexer struct {
	err   error
	calls atomic.Int32
}

func (r *fakeReindexer) Upsert(ctx context.Context, hashes []string) (int, error) {
	r.calls.Add(1)
	if r.err != nil {
		return 0, r.err
	}
	return len(hashes), nil
}

func newTestWorker(t *testing.T, queue taskqueue.TaskQueue, reindexer Reindexer) *Worker {
	m, err := metrics.New(modules.MetricsConfig{})
	require.NoError(t, err)
	registry := NewSourceRegistry(fakes.NewSourceStore(&entities.Source{Code: "BEARWEEK", Name: "n"}), 16, time.Minute)
	ingester := NewIngester(fakes.NewEventStore(), registry, queue, notify.NoopPublisher{}, m)
	opts := Options{
		PoolSize:        10,
		PoolConcurrency: 2,
		MaxAttempts:     3,
		Backoff:         modules.Backoff{Initial: 1, Max: 60, Multiplier: 2},
		PollTimeout:     10 * time.Millisecond,
		BusyDelay:       5 * time.Second,
	}
	return NewWorker(opts, queue, ingester, reindexer, m)
}

func ingestTask(payload string, attempts int64) *taskqueue.TaskMessage {
	task := taskqueue.NewTaskMessage(taskqueue.TaskKindIngest, ingestData("BEARWEEK", payload))
	task.Attempts = attempts
	return task
}

func reindexTask(attempts int64) *taskqueue.TaskMessage {
	task := taskqueue.NewTaskMessage(taskqueue.TaskKindReindex, &ReindexData{Hashes: []string{"h1", "h2"}})
	task.Attempts = attempts
	return task
}

func TestProcessIngestSucceeded(t *testing.T) {
	ctrl := gomock.NewController(t)
	queue := mocks.NewMockTaskQueue(ctrl)
	w := newTestWorker(t, queue, &fakeReindexer{})

	task := ingestTask(berlinBearWeek, 1)
	gomock.InOrder(
		queue.EXPECT().Add(gomock.Any(), gomock.Len(1)).Return(nil),
		queue.EXPECT().Delete(gomock.Any(), task).Return(nil),
	)
	w.process(context.Background(), task)
}

func TestProcessInvalidPayloadIsDeadLettered(t *testing.T) {
	ctrl := gomock.NewController(t)
	queue := mocks.NewMockTaskQueue(ctrl)
	w := newTestWorker(t, queue, &fakeReindexer{})

	task := ingestTask(`{"name":"x"}`, 1)
	queue.EXPECT().DeadLetter(gomock.Any(), task, gomock.Any()).DoAndReturn(
		func(ctx context.Context, task *taskqueue.TaskMessage, reason string) error {
			assert.Contains(t, reason, "invalid source payload")
			return nil
		})
	w.process(context.Background(), task)
}

func TestProcessUnknownKindIsDeadLettered(t *testing.T) {
	ctrl := gomock.NewController(t)
	queue := mocks.NewMockTaskQueue(ctrl)
	w := newTestWorker(t, queue, &fakeReindexer{})

	task := taskqueue.NewTaskMessage("purge", map[string]string{})
	queue.EXPECT().DeadLetter(gomock.Any(), task, gomock.Any()).Return(nil)
	w.process(context.Background(), task)
}

func TestProcessTransientIsRetried(t *testing.T) {
	ctrl := gomock.NewController(t)
	queue := mocks.NewMockTaskQueue(ctrl)
	reindexer := &fakeReindexer{err: errs.Transientf("search unavailable")}
	w := newTestWorker(t, queue, reindexer)

	task := reindexTask(2)
	start := time.Now()
	queue.EXPECT().Schedule(gomock.Any(), task, gomock.Any(), false).DoAndReturn(
		func(ctx context.Context, task *taskqueue.TaskMessage, at time.Time, refund bool) error {
			// second attempt backs off initial*multiplier
			assert.WithinDuration(t, start.Add(2*time.Second), at, time.Second)
			return nil
		})
	w.process(context.Background(), task)
	assert.EqualValues(t, 1, reindexer.calls.Load())
}

func TestProcessAttemptsExhausted(t *testing.T) {
	ctrl := gomock.NewController(t)
	queue := mocks.NewMockTaskQueue(ctrl)
	w := newTestWorker(t, queue, &fakeReindexer{err: errors.New("boom")})

	task := reindexTask(3)
	queue.EXPECT().DeadLetter(gomock.Any(), task, gomock.Any()).DoAndReturn(
		func(ctx context.Context, task *taskqueue.TaskMessage, reason string) error {
			assert.Equal(t, "attempts exhausted: boom", reason)
			return nil
		})
	w.process(context.Background(), task)
}

func TestProcessIndexBusyIsRefunded(t *testing.T) {
	ctrl := gomock.NewController(t)
	queue := mocks.NewMockTaskQueue(ctrl)
	w := newTestWorker(t, queue, &fakeReindexer{err: indexer.ErrIndexBusy})

	// the last attempt is not dead-lettered while the index is busy
	task := reindexTask(3)
	queue.EXPECT().Schedule(gomock.Any(), task, gomock.Any(), true).Return(nil)
	w.process(context.Background(), task)
}

func TestWorkerLoop(t *testing.T) {
	ctrl := gomock.NewController(t)
	queue := mocks.NewMockTaskQueue(ctrl)
	reindexer := &fakeReindexer{}
	w := newTestWorker(t, queue, reindexer)

	task := reindexTask(1)
	done := make(chan struct{})
	var delivered atomic.Bool
	queue.EXPECT().Get(gomock.Any(), gomock.Any()).DoAndReturn(
		func(ctx context.Context, opts *taskqueue.GetOptions) ([]*taskqueue.TaskMessage, error) {
			if delivered.CompareAndSwap(false, true) {
				return []*taskqueue.TaskMessage{task}, nil
			}
			return nil, nil
		}).MinTimes(1)
	queue.EXPECT().Wait(gomock.Any(), 10*time.Millisecond).DoAndReturn(
		func(ctx context.Context, timeout time.Duration) error {
			select {
			case <-ctx.Done():
			case <-time.After(timeout):
			}
			return nil
		}).AnyTimes()
	queue.EXPECT().Delete(gomock.Any(), task).DoAndReturn(func(ctx context.Context, task *taskqueue.TaskMessage) error {
		close(done)
		return nil
	})

	require.NoError(t, w.Start())
	assert.ErrorIs(t, w.Start(), ErrServerStarted)

	select {
	case <-done:
	case <-time.After(5 * time.Second):
		t.Fatal("task was not processed")
	}
	require.NoError(t, w.Stop())
	assert.ErrorIs(t, w.Stop(), ErrServerStopped)
	assert.EqualValues(t, 1, reindexer.calls.Load())
}

func TestWorkerLoopGetError(t *testing.T) {
	ctrl := gomock.NewController(t)
	queue := mocks.NewMockTaskQueue(ctrl)
	w := newTestWorker(t, queue, &fakeReindexer{})

	called := make(chan struct{}, 1)
	queue.EXPECT().Get(gomock.Any(), gomock.Any()).DoAndReturn(
		func(ctx context.Context, opts *taskqueue.GetOptions) ([]*taskqueue.TaskMessage, error) {
			select {
			case called <- struct{}{}:
			default:
			}
			return nil, errors.New("redis: connection refused")
		}).MinTimes(1)

	require.NoError(t, w.Start())
	<-called
	require.NoError(t, w.Stop())
}
