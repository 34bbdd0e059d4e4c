package terrace

import (
	"math/big"

	"github.com/matzehuels/terraces/pkg/leafset"
	"github.com/matzehuels/terraces/pkg/tree"
)

// CountAlgorithm counts the rooted binary trees compatible with the
// constraints. Pinning a root does not change the count, so no Finalize is
// needed.
func CountAlgorithm[S leafset.LeafSet[S]]() Algorithm[S, *big.Int] {
	return Algorithm[S, *big.Int]{
		Name: "count",
		Base: func(leaves S) *big.Int {
			return tree.CountBinaryTrees(leaves.Size())
		},
		Combine: func(l, r *big.Int) *big.Int {
			return new(big.Int).Mul(l, r)
		},
		Zero: func() *big.Int { return new(big.Int) },
		Aggregate: func(acc, x *big.Int) *big.Int {
			return acc.Add(acc, x)
		},
	}
}

// FindAllAlgorithm enumerates the compatible trees. With a pinned root every
// tree is wrapped by [tree.Unroot].
func FindAllAlgorithm[S leafset.LeafSet[S]]() Algorithm[S, []tree.Node] {
	return Algorithm[S, []tree.Node]{
		Name: "enumerate",
		Base: func(leaves S) []tree.Node {
			return tree.AllBinaryTrees(leaves.Leaves())
		},
		Combine: func(left, right []tree.Node) []tree.Node {
			out := make([]tree.Node, 0, len(left)*len(right))
			for _, l := range left {
				for _, r := range right {
					out = append(out, &tree.Inner{Left: l, Right: r})
				}
			}
			return out
		},
		Zero: func() []tree.Node { return nil },
		Aggregate: func(acc, x []tree.Node) []tree.Node {
			return append(acc, x...)
		},
		Finalize: func(trees []tree.Node, root int) []tree.Node {
			out := make([]tree.Node, len(trees))
			for i, t := range trees {
				out[i] = tree.Unroot(root, t)
			}
			return out
		},
	}
}

// DetectAlgorithm reports whether more than one tree is compatible with the
// constraints. As soon as a leaf set splits into three or more components
// (more than one partition tuple) the answer is true and no tuple is
// visited. It never runs on the worker pool.
func DetectAlgorithm[S leafset.LeafSet[S]]() Algorithm[S, bool] {
	return Algorithm[S, bool]{
		Name: "detect",
		Base: func(leaves S) bool {
			return leaves.Size() >= 3
		},
		Combine:   func(l, r bool) bool { return l || r },
		Zero:      func() bool { return false },
		Aggregate: func(acc, x bool) bool { return acc || x },
		ShortCircuit: func(leaves S) (bool, bool) {
			if leaves.NumComponents() >= 3 {
				return true, true
			}
			return false, false
		},
		Sequential: true,
	}
}

// CompressedAlgorithm builds a symbolic tree that stands for every
// compatible tree without materialising them. Unconstrained leaf sets of
// three or more leaves become [tree.AllBinaryCombinations]; tuples that
// yield alternatives are gathered under one [tree.AllTreeCombinations].
func CompressedAlgorithm[S leafset.LeafSet[S]]() Algorithm[S, tree.Node] {
	return Algorithm[S, tree.Node]{
		Name: "compress",
		Base: func(leaves S) tree.Node {
			ids := leaves.Leaves()
			switch len(ids) {
			case 1:
				return &tree.Leaf{ID: ids[0]}
			case 2:
				return &tree.Inner{Left: &tree.Leaf{ID: ids[0]}, Right: &tree.Leaf{ID: ids[1]}}
			}
			return &tree.AllBinaryCombinations{Leaves: ids}
		},
		Combine: func(l, r tree.Node) tree.Node {
			return &tree.Inner{Left: l, Right: r}
		},
		Zero:      func() tree.Node { return nil },
		Aggregate: addAlternative,
		Finalize: func(n tree.Node, root int) tree.Node {
			return tree.Unroot(root, n)
		},
	}
}

// addAlternative returns the union of acc and x. Either may be nil (the
// empty union) or an AllTreeCombinations, whose alternatives are spliced in
// so that merged accumulators stay flat. An AllTreeCombinations acc is
// always one built here and owned by the fold, so it is extended in place;
// x is never modified.
func addAlternative(acc, x tree.Node) tree.Node {
	switch {
	case acc == nil:
		return x
	case x == nil:
		return acc
	}
	if all, ok := acc.(*tree.AllTreeCombinations); ok {
		all.Alternatives = append(all.Alternatives, alternatives(x)...)
		return all
	}
	return &tree.AllTreeCombinations{Alternatives: append([]tree.Node{acc}, alternatives(x)...)}
}

func alternatives(n tree.Node) []tree.Node {
	if all, ok := n.(*tree.AllTreeCombinations); ok {
		return all.Alternatives
	}
	return []tree.Node{n}
}
