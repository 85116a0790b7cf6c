// Package queue bounds the number of synthesis calls in flight. The
// provider degrades badly under concurrent load, so every synthesis
// request passes through a worker pool with a small admission buffer.
package queue

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
)

var (
	// ErrBusy is returned when the pool and its buffer are saturated.
	ErrBusy = errors.New("queue: busy")
	// ErrShutdown is returned for submissions after Shutdown began.
	ErrShutdown = errors.New("queue: shutdown")
)

// Config sizes the pool. Workers is the number of concurrent synthesis
// calls; MaxWaiting is how many submissions may wait for a worker.
type Config struct {
	Workers    int
	MaxWaiting int
}

// Pool runs submitted synthesis work on a fixed set of workers and
// rejects work beyond its capacity instead of queueing unboundedly.
type Pool struct {
	jobs     chan job
	wg       sync.WaitGroup
	inflight sync.WaitGroup

	closeOnce sync.Once
	closed    chan struct{}

	workers int32
	active  atomic.Int32
}

type job struct {
	ctx    context.Context
	fn     func(context.Context) error
	result chan error
}

// NewPool starts the workers and returns a ready pool.
func NewPool(cfg Config) *Pool {
	if cfg.Workers <= 0 {
		cfg.Workers = 1
	}
	if cfg.MaxWaiting < 0 {
		cfg.MaxWaiting = 0
	}

	p := &Pool{
		jobs:    make(chan job, cfg.MaxWaiting),
		closed:  make(chan struct{}),
		workers: int32(cfg.Workers),
	}

	for i := 0; i < cfg.Workers; i++ {
		p.wg.Add(1)
		go p.worker()
	}

	return p
}

// Submit runs fn on a pool worker and blocks until it completes, the
// context ends, or the pool shuts down. Saturation reports ErrBusy
// immediately rather than waiting.
func (p *Pool) Submit(ctx context.Context, fn func(context.Context) error) error {
	select {
	case <-p.closed:
		return ErrShutdown
	default:
	}

	j := job{ctx: ctx, fn: fn, result: make(chan error, 1)}

	if cap(p.jobs) == 0 {
		if p.active.Load() >= p.workers {
			return ErrBusy
		}

		select {
		case p.jobs <- j:
		case <-p.closed:
			return ErrShutdown
		case <-ctx.Done():
			return ctx.Err()
		}
	} else {
		select {
		case p.jobs <- j:
		case <-p.closed:
			return ErrShutdown
		default:
			return ErrBusy
		}
	}

	select {
	case err := <-j.result:
		return err
	case <-ctx.Done():
		return ctx.Err()
	case <-p.closed:
		// allow an in-flight job to finish if already running
		select {
		case err := <-j.result:
			return err
		default:
			return ErrShutdown
		}
	}
}

// Shutdown stops accepting work and waits for in-flight jobs, bounded
// by ctx.
func (p *Pool) Shutdown(ctx context.Context) error {
	p.closeOnce.Do(func() {
		close(p.closed)
		close(p.jobs)
	})

	done := make(chan struct{})
	go func() {
		p.wg.Wait()
		p.inflight.Wait()
		close(done)
	}()

	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (p *Pool) worker() {
	defer p.wg.Done()

	for j := range p.jobs {
		p.inflight.Add(1)
		p.active.Add(1)
		j.result <- j.fn(j.ctx)
		p.active.Add(-1)
		p.inflight.Done()
	}
}
