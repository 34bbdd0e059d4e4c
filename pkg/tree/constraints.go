package tree

import (
	"fmt"

	"github.com/matzehuels/terraces/pkg/constraint"
)

// ExtractConstraints returns the constraints a rooted binary tree imposes.
//
// For every child subtree spanning more than one leaf, with leftmost leaf l
// and rightmost leaf r, the constraint lca(l, r) < lca(parent span) is
// emitted, anchored on the leaf the two pairs share. Constraints appear in
// postorder, the left child's before the right child's.
//
// ExtractConstraints panics if n is not an [Inner] or if the tree contains
// symbolic or unrooted nodes.
func ExtractConstraints(n Node) []constraint.Constraint {
	if _, ok := n.(*Inner); !ok {
		panic(fmt.Sprintf("tree: cannot extract constraints from %T", n))
	}
	var out []constraint.Constraint
	extract(n, &out)
	return out
}

func extract(n Node, out *[]constraint.Constraint) (leftmost, rightmost int) {
	switch n := n.(type) {
	case *Leaf:
		return n.ID, n.ID
	case *Inner:
		ll, lr := extract(n.Left, out)
		rl, rr := extract(n.Right, out)
		if ll != lr {
			*out = append(*out, constraint.New(ll, ll, lr, rr))
		}
		if rl != rr {
			*out = append(*out, constraint.New(rl, ll, rr, rr))
		}
		return ll, rr
	}
	panic(fmt.Sprintf("tree: cannot extract constraints through %T", n))
}

// Satisfies reports whether the rooted binary tree n honours every
// constraint, i.e. lca(SmallerLeft, SmallerRight) lies strictly below
// lca(BiggerLeft, BiggerRight). Constraints naming a leaf that does not occur
// in n are not satisfied.
func Satisfies(n Node, cs []constraint.Constraint) bool {
	paths := make(map[int][]*Inner)
	var walk func(Node, []*Inner)
	walk = func(n Node, path []*Inner) {
		switch n := n.(type) {
		case *Leaf:
			paths[n.ID] = path
		case *Inner:
			// Full slice expressions keep siblings from sharing a backing array.
			p := append(path[:len(path):len(path)], n)
			walk(n.Left, p)
			walk(n.Right, p)
		default:
			panic(fmt.Sprintf("tree: cannot check constraints on %T", n))
		}
	}
	walk(n, nil)

	depth := func(a, b int) (int, bool) {
		pa, ok := paths[a]
		if !ok {
			return 0, false
		}
		pb, ok := paths[b]
		if !ok {
			return 0, false
		}
		d := 0
		for d < len(pa) && d < len(pb) && pa[d] == pb[d] {
			d++
		}
		return d, true
	}

	for _, c := range cs {
		smaller, ok1 := depth(c.SmallerLeft, c.SmallerRight)
		bigger, ok2 := depth(c.BiggerLeft, c.BiggerRight)
		if !ok1 || !ok2 || smaller <= bigger {
			return false
		}
	}
	return true
}
