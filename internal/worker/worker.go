package worker

import (
	"context"
	"errors"
	"sync"
)

// ErrStopped is returned by Run once Stop has been called.
var ErrStopped = errors.New("worker pool stopped")

// Task represents a unit of work executed by the pool.
type Task func()

// Pool bounds how many CPU-heavy tasks (password hashing) run at once.
type Pool interface {
	// Submit queues t; after Stop it is dropped.
	Submit(Task)
	// Run hands t to a worker and waits for it to finish or for ctx to end.
	// When ctx ends first the task may still run; its result must be discarded.
	Run(ctx context.Context, t Task) error
	// Stop waits for callers currently handing off work, then drains the queue.
	// Safe to call more than once and concurrently with Run.
	Stop()
}

// NewPool creates a pool with n workers. n<=0 defaults to 1.
func NewPool(n int) Pool {
	if n <= 0 {
		n = 1
	}
	p := &pool{jobs: make(chan Task)}
	p.wg.Add(n)
	for i := 0; i < n; i++ {
		go func() {
			defer p.wg.Done()
			for job := range p.jobs {
				if job != nil {
					job()
				}
			}
		}()
	}
	return p
}

type pool struct {
	jobs chan Task
	wg   sync.WaitGroup

	// mu guards closed; senders hold the read lock so Stop never closes
	// jobs under an in-flight send.
	mu     sync.RWMutex
	closed bool
}

func (p *pool) Submit(t Task) {
	p.mu.RLock()
	defer p.mu.RUnlock()
	if p.closed {
		return
	}
	p.jobs <- t
}

func (p *pool) Run(ctx context.Context, t Task) error {
	done := make(chan struct{})
	job := func() {
		defer close(done)
		t()
	}

	if err := p.send(ctx, job); err != nil {
		return err
	}

	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (p *pool) send(ctx context.Context, job Task) error {
	p.mu.RLock()
	defer p.mu.RUnlock()
	if p.closed {
		return ErrStopped
	}
	select {
	case p.jobs <- job:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (p *pool) Stop() {
	p.mu.Lock()
	if p.closed {
		p.mu.Unlock()
		return
	}
	p.closed = true
	close(p.jobs)
	p.mu.Unlock()
	p.wg.Wait()
}
