package tree

import (
	"fmt"
	"math/big"
)

// CountBinaryTrees returns the number of rooted binary trees over n labelled
// leaves, (2n-3)!! for n >= 2 and 1 for n == 1.
func CountBinaryTrees(n int) *big.Int {
	if n < 1 {
		panic(fmt.Sprintf("tree: cannot count trees over %d leaves", n))
	}
	result := big.NewInt(1)
	for k := int64(3); k <= int64(2*n-3); k += 2 {
		result.Mul(result, big.NewInt(k))
	}
	return result
}

// AllBinaryTrees enumerates every rooted binary tree over leaves.
//
// The first leaf is inserted, in turn, at every edge of every tree built
// over the remaining leaves, and above its root. The result has exactly
// CountBinaryTrees(len(leaves)) pairwise distinct trees.
func AllBinaryTrees(leaves []int) []Node {
	switch len(leaves) {
	case 0:
		return nil
	case 1:
		return []Node{&Leaf{ID: leaves[0]}}
	}
	var out []Node
	for _, t := range AllBinaryTrees(leaves[1:]) {
		out = append(out, insertLeaf(t, leaves[0])...)
	}
	return out
}

// insertLeaf returns every tree obtained by attaching leaf to an edge of t,
// left subtree edges first, then right, then above t itself. Untouched
// subtrees are shared between results; nodes are never mutated.
func insertLeaf(t Node, leaf int) []Node {
	var out []Node
	if in, ok := t.(*Inner); ok {
		for _, l := range insertLeaf(in.Left, leaf) {
			out = append(out, &Inner{Left: l, Right: in.Right})
		}
		for _, r := range insertLeaf(in.Right, leaf) {
			out = append(out, &Inner{Left: in.Left, Right: r})
		}
	}
	return append(out, &Inner{Left: t, Right: &Leaf{ID: leaf}})
}

// CountTrees returns the number of concrete trees n stands for. For a tree
// without symbolic nodes this is 1.
func CountTrees(n Node) *big.Int {
	switch n := n.(type) {
	case *Leaf:
		return big.NewInt(1)
	case *Inner:
		return new(big.Int).Mul(CountTrees(n.Left), CountTrees(n.Right))
	case *Unrooted:
		c := new(big.Int).Mul(CountTrees(n.Root), CountTrees(n.Left))
		return c.Mul(c, CountTrees(n.Right))
	case *AllBinaryCombinations:
		return CountBinaryTrees(len(n.Leaves))
	case *AllTreeCombinations:
		sum := new(big.Int)
		for _, alt := range n.Alternatives {
			sum.Add(sum, CountTrees(alt))
		}
		return sum
	}
	panic(fmt.Sprintf("tree: unknown node %T", n))
}
