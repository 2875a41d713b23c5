package schedule

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/robfig/cron/v3"
	"go.uber.org/zap"
)

var ErrDuplicateTask = errors.New("task already added")

// Task runs Do on a cron expression or every Interval after InitialDelay.
// Runs of the same task never overlap, a run still going when the next is due is skipped.
type Task struct {
	Name string
	// Cron is a standard five field expression and takes precedence over Interval
	Cron         string
	InitialDelay time.Duration
	Interval     time.Duration
	// Timeout bounds a single run, zero means no bound
	Timeout time.Duration
	Do      func(ctx context.Context) error
}

func (t *Task) schedule() (cron.Schedule, error) {
	if t.Cron != "" {
		s, err := cron.ParseStandard(t.Cron)
		if err != nil {
			return nil, fmt.Errorf("task %s: invalid cron expression: %w", t.Name, err)
		}
		return s, nil
	}
	if t.Interval <= 0 {
		return nil, fmt.Errorf("task %s: interval must be positive", t.Name)
	}
	return &delayedEvery{delay: t.InitialDelay, interval: t.Interval}, nil
}

// delayedEvery fires once after delay, then every interval
type delayedEvery struct {
	once     sync.Once
	delay    time.Duration
	interval time.Duration
}

func (s *delayedEvery) Next(t time.Time) time.Time {
	next := s.interval
	s.once.Do(func() { next = s.delay })
	return t.Add(next)
}

// Scheduler runs periodic maintenance tasks such as the scheduled index rebuild
type Scheduler struct {
	ctx    context.Context
	cancel context.CancelFunc
	cron   *cron.Cron
	mux    sync.Mutex
	ids    map[string]cron.EntryID
	log    *zap.SugaredLogger
}

func New() *Scheduler {
	ctx, cancel := context.WithCancel(context.Background())
	logger := cron.DiscardLogger
	return &Scheduler{
		ctx:    ctx,
		cancel: cancel,
		cron:   cron.New(cron.WithChain(cron.Recover(logger), cron.SkipIfStillRunning(logger))),
		ids:    make(map[string]cron.EntryID),
		log:    zap.S().Named("schedule"),
	}
}

func (s *Scheduler) Name() string {
	return "schedule"
}

func (s *Scheduler) Add(task *Task) error {
	schedule, err := task.schedule()
	if err != nil {
		return err
	}

	s.mux.Lock()
	defer s.mux.Unlock()
	if _, ok := s.ids[task.Name]; ok {
		return fmt.Errorf("%w: %s", ErrDuplicateTask, task.Name)
	}
	s.ids[task.Name] = s.cron.Schedule(schedule, cron.FuncJob(func() { s.run(task) }))
	return nil
}

// Next reports when the named task runs next, zero before Start
func (s *Scheduler) Next(name string) (time.Time, bool) {
	s.mux.Lock()
	id, ok := s.ids[name]
	s.mux.Unlock()
	if !ok {
		return time.Time{}, false
	}
	return s.cron.Entry(id).Next, true
}

func (s *Scheduler) run(task *Task) {
	ctx := s.ctx
	if task.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, task.Timeout)
		defer cancel()
	}

	start := time.Now()
	if err := task.Do(ctx); err != nil {
		s.log.Warnw("task failed", "task", task.Name, "error", err, "elapsed", time.Since(start))
		return
	}
	s.log.Debugw("task done", "task", task.Name, "elapsed", time.Since(start))
}

func (s *Scheduler) Start() error {
	s.cron.Start()
	return nil
}

// Stop cancels running tasks and waits for them to return or ctx to expire
func (s *Scheduler) Stop(ctx context.Context) error {
	s.cancel()
	select {
	case <-s.cron.Stop().Done():
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
