package pool

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"

	"github.com/eventatlas/eventatlas/pkg/safe"
)

var (
	ErrPoolTerminated = errors.New("pool is terminated")
	ErrNilTask        = errors.New("task is nil")
)

// Pool runs submitted functions on a fixed set of goroutines.
// Shutdown lets running functions finish, queued ones are dropped.
type Pool struct {
	ctx    context.Context
	cancel context.CancelFunc

	workers int
	busy    atomic.Int64

	tasks chan func()
	wg    sync.WaitGroup
}

// New starts workers goroutines sharing a buffer of queueSize pending tasks
func New(queueSize int, workers int) *Pool {
	ctx, cancel := context.WithCancel(context.Background())
	p := &Pool{
		ctx:     ctx,
		cancel:  cancel,
		workers: workers,
		tasks:   make(chan func(), queueSize),
	}
	p.wg.Add(workers)
	for i := 0; i < workers; i++ {
		go p.consume()
	}
	return p
}

// Submit blocks until fn is accepted, ctx is done, or the pool is shut down
func (p *Pool) Submit(ctx context.Context, fn func()) error {
	if fn == nil {
		return ErrNilTask
	}
	if p.ctx.Err() != nil {
		return ErrPoolTerminated
	}

	select {
	case p.tasks <- fn:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	case <-p.ctx.Done():
		return ErrPoolTerminated
	}
}

func (p *Pool) Workers() int {
	return p.workers
}

// Idle is the number of workers neither running nor holding a queued task
func (p *Pool) Idle() int {
	idle := p.workers - int(p.busy.Load()) - len(p.tasks)
	return max(idle, 0)
}

func (p *Pool) consume() {
	defer p.wg.Done()
	for {
		select {
		case <-p.ctx.Done():
			return
		case fn := <-p.tasks:
			p.busy.Add(1)
			safe.Call("pool", fn)
			p.busy.Add(-1)
		}
	}
}

func (p *Pool) Shutdown() {
	if p.ctx.Err() != nil {
		return
	}
	p.cancel()
	p.wg.Wait()
}
