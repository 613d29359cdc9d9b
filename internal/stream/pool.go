package stream

import (
	"context"

	"golang.org/x/sync/semaphore"
)

// Pool bounds concurrent synthesis calls across all requests. It is created
// once at process start and shared for the lifetime of the process; once the
// pool is saturated, further synthesis calls queue in FIFO order.
type Pool struct {
	sem  *semaphore.Weighted
	size int
}

// NewPool creates a pool admitting up to size concurrent synthesis calls
func NewPool(size int) *Pool {
	if size < 1 {
		size = 1
	}
	return &Pool{
		sem:  semaphore.NewWeighted(int64(size)),
		size: size,
	}
}

// Acquire blocks until a worker slot is free or ctx is done
func (p *Pool) Acquire(ctx context.Context) error {
	return p.sem.Acquire(ctx, 1)
}

// Release returns a worker slot to the pool
func (p *Pool) Release() {
	p.sem.Release(1)
}

// Size returns the pool's worker count
func (p *Pool) Size() int {
	return p.size
}
