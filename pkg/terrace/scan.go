// Package terrace implements the constraint-driven recursion that counts,
// enumerates, detects and compresses the trees on a phylogenetic terrace.
//
// All four computations share one skeleton, [Scan]. Given a leaf set and the
// constraints that still apply to it, Scan either hands an unconstrained set
// to the algorithm's base case, or splits the set into components, visits
// every partition tuple, recurses on both sides with their filtered
// constraints and folds the combined results:
//
//	Scan(L, C):
//	    C empty       -> Base(L)
//	    otherwise     -> apply C to L
//	                     for each tuple (A, B):
//	                         acc = Aggregate(acc, Combine(Scan(A, C|A), Scan(B, C|B)))
//
// An [Algorithm] supplies the hooks; [CountAlgorithm], [FindAllAlgorithm],
// [DetectAlgorithm] and [CompressedAlgorithm] are the four instantiations.
// Algorithms are generic over the leaf set backing, so the hot path is
// resolved at compile time for both [leafset.BitLeafSet] and
// [leafset.UnionFindLeafSet].
//
// Above Options.ParallelThreshold leaves, the top-level tuples are spread
// over a [forkjoin.Pool]. Parallel enumeration yields the same trees as the
// sequential path but not necessarily in the same order.
package terrace

import (
	"context"
	"fmt"
	"time"

	"github.com/matzehuels/terraces/pkg/constraint"
	"github.com/matzehuels/terraces/pkg/errors"
	"github.com/matzehuels/terraces/pkg/forkjoin"
	"github.com/matzehuels/terraces/pkg/leafset"
)

// Algorithm is the set of hooks that turns the recursion into a concrete
// computation with result type R.
type Algorithm[S leafset.LeafSet[S], R any] struct {
	// Name identifies the algorithm in logs.
	Name string

	// Base computes the result for a leaf set without constraints.
	Base func(leaves S) R

	// Combine joins the results of the two sides of one partition tuple.
	Combine func(left, right R) R

	// Zero returns an empty accumulator; Aggregate folds one combined
	// result into it. Aggregate must be associative, and the parallel
	// path also relies on it to merge whole accumulators.
	Zero      func() R
	Aggregate func(acc, x R) R

	// ShortCircuit, if set, is consulted after constraints are applied and
	// may return a final result without visiting any tuple.
	ShortCircuit func(leaves S) (R, bool)

	// Finalize, if set, turns the result over the non-root leaves into a
	// result over all leaves when a root leaf is pinned.
	Finalize func(r R, root int) R

	// Sequential keeps the algorithm off the worker pool.
	Sequential bool
}

// Scan runs alg over leaves and cs. It consumes leaves: constraints are
// applied to it in place. Every constraint must reference members of leaves
// only; callers holding unfiltered constraints use [Run].
func Scan[S leafset.LeafSet[S], R any](ctx context.Context, alg Algorithm[S, R], leaves S, cs []constraint.Constraint, opts Options) (R, error) {
	opts = opts.withDefaults()
	s := &scanner[S, R]{
		alg:  alg,
		opts: opts,
		pool: forkjoin.New(opts.Workers),
	}
	return s.scan(ctx, leaves, cs, 0)
}

// Run is the entry point for callers holding a fresh leaf set. It filters
// cs down to the leaves, and when root is not [Rooted] it pins that leaf:
// the scan runs over the remaining leaves and alg.Finalize attaches the
// root to the result.
func Run[S leafset.LeafSet[S], R any](ctx context.Context, alg Algorithm[S, R], leaves S, cs []constraint.Constraint, root int, opts Options) (R, error) {
	opts = opts.withDefaults()
	start := time.Now()

	if root != Rooted {
		if !leaves.Contains(root) {
			panic(fmt.Sprintf("terrace: root leaf %d is not in the leaf set", root))
		}
		leaves = leaves.Remove(root)
	}
	cs = leaves.FilterConstraints(cs)

	opts.Logger.Debug("scan",
		"algorithm", alg.Name,
		"leaves", leaves.Size(),
		"constraints", len(cs),
		"root", root)

	r, err := Scan(ctx, alg, leaves, cs, opts)
	if err != nil {
		var empty R
		return empty, err
	}
	if root != Rooted && alg.Finalize != nil {
		r = alg.Finalize(r, root)
	}

	opts.Logger.Debug("scan done", "algorithm", alg.Name, "duration", time.Since(start))
	return r, nil
}

type scanner[S leafset.LeafSet[S], R any] struct {
	alg  Algorithm[S, R]
	opts Options
	pool *forkjoin.Pool
}

func (s *scanner[S, R]) scan(ctx context.Context, leaves S, cs []constraint.Constraint, depth int) (R, error) {
	if len(cs) == 0 {
		return s.alg.Base(leaves), nil
	}

	leaves.ApplyConstraints(cs)
	if s.alg.ShortCircuit != nil {
		if r, ok := s.alg.ShortCircuit(leaves); ok {
			return r, nil
		}
	}

	if k := leaves.NumComponents(); k > leafset.MaxComponents {
		var empty R
		return empty, errors.Wrap(errors.ErrCodeBudgetExceeded, ErrBudgetExceeded,
			"%d components at one level exceed the %d whose partition tuples can be indexed", k, leafset.MaxComponents)
	}

	// Partitioned sets are only read by NthPartitionTuple, so the tuple
	// function is safe to call from several workers.
	tuple := func(ctx context.Context, i uint64) (R, error) {
		left, right := leaves.NthPartitionTuple(i)
		l, err := s.scan(ctx, left, left.FilterConstraints(cs), depth+1)
		if err != nil {
			return l, err
		}
		r, err := s.scan(ctx, right, right.FilterConstraints(cs), depth+1)
		if err != nil {
			return r, err
		}
		return s.alg.Combine(l, r), nil
	}

	n := leaves.NumPartitionTuples()
	if s.parallel(leaves.Size(), depth) {
		s.opts.Logger.Debug("parallel scan",
			"algorithm", s.alg.Name,
			"tuples", n,
			"workers", s.pool.Workers())
		return forkjoin.MapReduce(ctx, s.pool, n, s.alg.Zero, tuple, s.alg.Aggregate)
	}

	acc := s.alg.Zero()
	for i := uint64(1); i <= n; i++ {
		r, err := tuple(ctx, i)
		if err != nil {
			return r, err
		}
		acc = s.alg.Aggregate(acc, r)
	}
	return acc, nil
}

// parallel reports whether this call fans out. Only the top-level call does;
// nested calls run inside a worker.
func (s *scanner[S, R]) parallel(size, depth int) bool {
	return depth == 0 &&
		!s.alg.Sequential &&
		size > s.opts.ParallelThreshold &&
		s.pool.Workers() > 1
}
