package pool

import (
	"context"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSubmitNil(t *testing.T) {
	p := New(0, 1)
	defer p.Shutdown()
	assert.Equal(t, ErrNilTask, p.Submit(context.Background(), nil))
}

func TestPanicDoesNotKillWorker(t *testing.T) {
	p := New(1, 1)
	defer p.Shutdown()

	require.NoError(t, p.Submit(context.Background(), func() { panic("boom") }))

	done := make(chan struct{})
	require.NoError(t, p.Submit(context.Background(), func() { close(done) }))
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("worker did not survive the panic")
	}
}

func TestSubmitRunsAll(t *testing.T) {
	p := New(5, 2)
	defer p.Shutdown()

	var wg sync.WaitGroup
	var count atomic.Int64
	for i := 0; i < 20; i++ {
		wg.Add(1)
		require.NoError(t, p.Submit(context.Background(), func() {
			defer wg.Done()
			count.Add(1)
		}))
	}
	wg.Wait()
	assert.EqualValues(t, 20, count.Load())
}

func TestSubmitHonoursContext(t *testing.T) {
	p := New(0, 1)
	defer p.Shutdown()

	block := make(chan struct{})
	defer close(block)
	started := make(chan struct{})
	require.NoError(t, p.Submit(context.Background(), func() {
		close(started)
		<-block
	}))
	<-started

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()
	assert.ErrorIs(t, p.Submit(ctx, func() {}), context.DeadlineExceeded)
}

func TestIdle(t *testing.T) {
	p := New(0, 2)
	defer p.Shutdown()
	assert.Equal(t, 2, p.Idle())
	assert.Equal(t, 2, p.Workers())

	block := make(chan struct{})
	defer close(block)
	started := make(chan struct{})
	require.NoError(t, p.Submit(context.Background(), func() {
		close(started)
		<-block
	}))
	<-started
	assert.Equal(t, 1, p.Idle())
}

func TestShutdown(t *testing.T) {
	p := New(1, 1)
	p.Shutdown()
	p.Shutdown()
	assert.Equal(t, ErrPoolTerminated, p.Submit(context.Background(), func() {}))
}

func TestShutdownWaitsForRunning(t *testing.T) {
	p := New(10, 10)

	var started sync.WaitGroup
	var finished atomic.Int64
	started.Add(10)
	for i := 0; i < 10; i++ {
		require.NoError(t, p.Submit(context.Background(), func() {
			started.Done()
			time.Sleep(100 * time.Millisecond)
			finished.Add(1)
		}))
	}
	started.Wait()

	p.Shutdown()
	assert.EqualValues(t, 10, finished.Load())
}
