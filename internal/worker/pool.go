package worker

import (
	"context"
	"errors"
	"fmt"
	"sync/atomic"

	"github.com/alitto/pond/v2"
)

var (
	// ErrStopped is returned for work submitted after Shutdown.
	ErrStopped = errors.New("worker pool stopped")
	// ErrTaskPanic wraps a panic raised inside a task.
	ErrTaskPanic = errors.New("worker task panicked")
)

// Pool runs CPU-heavy generation work on a fixed number of goroutines.
type Pool struct {
	pool    pond.Pool
	workers int
	ctx     context.Context
	cancel  context.CancelFunc
	stopped atomic.Bool
}

// NewPool creates a pool with the given number of workers (at least one).
func NewPool(workers int) *Pool {
	if workers < 1 {
		workers = 1
	}
	ctx, cancel := context.WithCancel(context.Background())
	return &Pool{
		pool:    pond.NewPool(workers, pond.WithContext(ctx)),
		workers: workers,
		ctx:     ctx,
		cancel:  cancel,
	}
}

// Submit queues fn without waiting for it. A panic inside fn is returned
// from the task's Wait as ErrTaskPanic.
func (p *Pool) Submit(fn func() error) (pond.Task, error) {
	if p.stopped.Load() {
		return nil, ErrStopped
	}
	return p.pool.SubmitErr(func() (err error) {
		defer func() {
			if r := recover(); r != nil {
				err = fmt.Errorf("%w: %v", ErrTaskPanic, r)
			}
		}()
		return fn()
	}), nil
}

// Run submits fn and waits for it. Waiting stops early when ctx is done;
// the task itself is never interrupted.
func (p *Pool) Run(ctx context.Context, fn func() error) error {
	task, err := p.Submit(fn)
	if err != nil {
		return err
	}
	select {
	case <-task.Done():
		return task.Wait()
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Workers returns the configured concurrency.
func (p *Pool) Workers() int {
	return p.workers
}

// Waiting returns the number of queued tasks not yet picked up.
func (p *Pool) Waiting() uint64 {
	return p.pool.WaitingTasks()
}

// Running returns the number of busy workers.
func (p *Pool) Running() int64 {
	return p.pool.RunningWorkers()
}

// Shutdown lets queued tasks finish, then releases the workers.
func (p *Pool) Shutdown() {
	if p.stopped.Swap(true) {
		return
	}
	p.pool.StopAndWait()
	p.cancel()
}
