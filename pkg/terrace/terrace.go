package terrace

import (
	"context"
	"fmt"
	"io"
	"math/big"
	"slices"

	"github.com/matzehuels/terraces/pkg/constraint"
	"github.com/matzehuels/terraces/pkg/errors"
	"github.com/matzehuels/terraces/pkg/leafset"
	"github.com/matzehuels/terraces/pkg/tree"
)

// Count returns the number of trees compatible with cs over leaves. With a
// root other than [Rooted] the trees are unrooted at that leaf.
func Count(ctx context.Context, leaves []int, cs []constraint.Constraint, root int, opts Options) (*big.Int, error) {
	return dispatch(ctx, leaves, cs, root, opts,
		CountAlgorithm[*leafset.BitLeafSet](),
		CountAlgorithm[*leafset.UnionFindLeafSet]())
}

// FindAll enumerates the compatible trees. It counts first and returns an
// error wrapping [ErrBudgetExceeded] if the count exceeds opts.Budget.
func FindAll(ctx context.Context, leaves []int, cs []constraint.Constraint, root int, opts Options) ([]tree.Node, error) {
	if opts.Budget.MaxTrees > 0 {
		count, err := Count(ctx, leaves, cs, root, opts)
		if err != nil {
			return nil, err
		}
		if err := opts.Budget.Check(count); err != nil {
			return nil, err
		}
	}
	return dispatch(ctx, leaves, cs, root, opts,
		FindAllAlgorithm[*leafset.BitLeafSet](),
		FindAllAlgorithm[*leafset.UnionFindLeafSet]())
}

// Detect reports whether more than one tree is compatible with cs, i.e.
// whether the input tree lies on a terrace.
func Detect(ctx context.Context, leaves []int, cs []constraint.Constraint, root int, opts Options) (bool, error) {
	return dispatch(ctx, leaves, cs, root, opts,
		DetectAlgorithm[*leafset.BitLeafSet](),
		DetectAlgorithm[*leafset.UnionFindLeafSet]())
}

// Compressed returns a symbolic tree standing for every compatible tree.
// [tree.CountTrees] of the result equals [Count]. With a pinned root the
// result is attached by [tree.Unroot], so a symbolic top level is paired
// with the root under an Inner node rather than an Unrooted one.
func Compressed(ctx context.Context, leaves []int, cs []constraint.Constraint, root int, opts Options) (tree.Node, error) {
	return dispatch(ctx, leaves, cs, root, opts,
		CompressedAlgorithm[*leafset.BitLeafSet](),
		CompressedAlgorithm[*leafset.UnionFindLeafSet]())
}

// Sink receives enumerated trees as Newick lines.
type Sink interface {
	Emit(newick string) error
}

// SinkFunc adapts a function to a Sink.
type SinkFunc func(newick string) error

// Emit calls f.
func (f SinkFunc) Emit(newick string) error { return f(newick) }

// WriterSink writes one Newick string per line to w.
func WriterSink(w io.Writer) Sink {
	return SinkFunc(func(newick string) error {
		_, err := fmt.Fprintln(w, newick)
		return err
	})
}

// ListTrees enumerates the unrooted trees on the terrace, pinning root on
// one side of every tree, and emits one Newick line per tree to sink. With
// a nil sink nothing is materialised and only the count is computed. The
// count is returned in both cases.
//
// Emission order follows the execution path; a parallel run may emit the
// same trees in a different order than a sequential one.
func ListTrees(ctx context.Context, cs []constraint.Constraint, root int, leaves []int, labels tree.Labels, sink Sink, opts Options) (*big.Int, error) {
	if sink == nil {
		return Count(ctx, leaves, cs, root, opts)
	}
	trees, err := FindAll(ctx, leaves, cs, root, opts)
	if err != nil {
		return nil, err
	}
	for _, t := range trees {
		if err := sink.Emit(tree.Newick(t, labels)); err != nil {
			return nil, fmt.Errorf("emit tree: %w", err)
		}
	}
	return big.NewInt(int64(len(trees))), nil
}

func dispatch[R any](
	ctx context.Context,
	leaves []int,
	cs []constraint.Constraint,
	root int,
	opts Options,
	bits Algorithm[*leafset.BitLeafSet, R],
	uf Algorithm[*leafset.UnionFindLeafSet, R],
) (R, error) {
	var empty R
	if err := opts.Validate(); err != nil {
		return empty, err
	}
	if len(leaves) == 0 {
		return empty, errors.New(errors.ErrCodeInvalidInput, "no leaves")
	}
	if slices.Min(leaves) < 0 {
		return empty, errors.New(errors.ErrCodeInvalidInput, "negative leaf id %d", slices.Min(leaves))
	}
	universe := slices.Max(leaves) + 1
	if root != Rooted {
		if !slices.Contains(leaves, root) {
			return empty, errors.New(errors.ErrCodeInvalidInput, "root leaf %d is not among the leaves", root)
		}
		if distinct := slices.Compact(slices.Sorted(slices.Values(leaves))); len(distinct) < 2 {
			return empty, errors.New(errors.ErrCodeInvalidInput, "an unrooted tree needs at least two leaves")
		}
	}

	switch leafset.Choose(opts.Strategy, len(leaves), len(cs)) {
	case leafset.StrategyUnionFind:
		return Run(ctx, uf, leafset.NewUnionFindLeafSet(universe, leaves...), cs, root, opts)
	default:
		return Run(ctx, bits, leafset.NewBitLeafSet(universe, leaves...), cs, root, opts)
	}
}
