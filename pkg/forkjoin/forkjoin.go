// Package forkjoin provides a fixed-size worker pool with a structured
// parallel map-reduce over an index range.
//
// The range [1, n] is cut into one contiguous block per worker. Each worker
// folds the values of its block into a private slot; when it finishes, the
// slot is merged into the shared result under a mutex using the same merge
// function. The call returns only after every worker has finished, so the
// pool's lifetime never outlives the call.
//
// For a commutative merge (sum, logical OR, unordered union) the result
// equals the sequential fold. For an order-sensitive merge such as list
// concatenation, blocks are merged in completion order, so the result holds
// the same elements but possibly in a different order.
package forkjoin

import (
	"context"
	"runtime"
	"sync"

	"golang.org/x/sync/errgroup"
)

// Pool is a fixed-size worker pool. The zero value uses runtime.NumCPU()
// workers.
type Pool struct {
	workers int
}

// New returns a pool of the given size. A size below one means
// runtime.NumCPU().
func New(workers int) *Pool {
	return &Pool{workers: workers}
}

// Workers returns the number of goroutines a call may use.
func (p *Pool) Workers() int {
	if p == nil || p.workers < 1 {
		return runtime.NumCPU()
	}
	return p.workers
}

// MapReduce evaluates fn for every index in [1, n] and folds the results
// with merge, starting each worker from zero().
//
// The first error returned by fn cancels the context passed to the other
// workers, which stop before their next index; that error is returned.
// A panic in fn is not recovered.
func MapReduce[R any](
	ctx context.Context,
	p *Pool,
	n uint64,
	zero func() R,
	fn func(ctx context.Context, i uint64) (R, error),
	merge func(acc, x R) R,
) (R, error) {
	result := zero()
	if n == 0 {
		return result, nil
	}

	workers := uint64(p.Workers())
	if workers > n {
		workers = n
	}
	block := (n + workers - 1) / workers

	var mu sync.Mutex
	g, ctx := errgroup.WithContext(ctx)
	for w := uint64(0); w < workers; w++ {
		lo := w*block + 1
		hi := min(lo+block-1, n)
		if lo > hi {
			break
		}
		g.Go(func() error {
			slot := zero()
			for i := lo; i <= hi; i++ {
				if err := ctx.Err(); err != nil {
					return err
				}
				r, err := fn(ctx, i)
				if err != nil {
					return err
				}
				slot = merge(slot, r)
			}
			mu.Lock()
			result = merge(result, slot)
			mu.Unlock()
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		var empty R
		return empty, err
	}
	return result, nil
}
