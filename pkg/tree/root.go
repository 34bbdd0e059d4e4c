package tree

import (
	"fmt"

	"github.com/matzehuels/terraces/pkg/errors"
)

// RootAt converts a parsed tree into a rooted binary tree hanging off the
// leaf labelled root: the result is Inner(Leaf(root), rest). ids maps every
// leaf label to its leaf id.
//
// The input may be unrooted (a degree-3 pseudoroot) or rooted (a degree-2
// root, which is suppressed). Any other node degree, an unknown label or a
// duplicate label is an error.
func RootAt(p *Parsed, root string, ids map[string]int) (Node, error) {
	parents := make(map[*Parsed]*Parsed)
	seen := make(map[string]bool)
	var anchor *Parsed
	var index func(*Parsed) error
	index = func(n *Parsed) error {
		if n.IsLeaf() {
			if _, ok := ids[n.Label]; !ok {
				return errors.New(errors.ErrCodeSpeciesMismatch, "species %q is not in the data matrix", n.Label)
			}
			if seen[n.Label] {
				return errors.New(errors.ErrCodeInvalidNewick, "species %q appears twice", n.Label)
			}
			seen[n.Label] = true
			if n.Label == root {
				anchor = n
			}
			return nil
		}
		for _, c := range n.Children {
			parents[c] = n
			if err := index(c); err != nil {
				return err
			}
		}
		return nil
	}
	if err := index(p); err != nil {
		return nil, err
	}
	if anchor == nil {
		return nil, errors.New(errors.ErrCodeSpeciesMismatch, "root species %q is not in the tree", root)
	}
	from := parents[anchor]
	if from == nil {
		return nil, errors.New(errors.ErrCodeInvalidNewick, "tree consists of the single leaf %q", root)
	}

	rest, err := orient(from, anchor, parents, ids)
	if err != nil {
		return nil, err
	}
	return &Inner{Left: &Leaf{ID: ids[root]}, Right: rest}, nil
}

// orient builds the subtree reached by entering n from its neighbour via.
// Neighbours are the children in input order followed by the parent.
func orient(n, via *Parsed, parents map[*Parsed]*Parsed, ids map[string]int) (Node, error) {
	var next []*Parsed
	for _, c := range n.Children {
		if c != via {
			next = append(next, c)
		}
	}
	if up := parents[n]; up != nil && up != via {
		next = append(next, up)
	}

	switch len(next) {
	case 0:
		return &Leaf{ID: ids[n.Label]}, nil
	case 1:
		// Degree-2 node, i.e. the root of a rooted input.
		return orient(next[0], n, parents, ids)
	case 2:
		l, err := orient(next[0], n, parents, ids)
		if err != nil {
			return nil, err
		}
		r, err := orient(next[1], n, parents, ids)
		if err != nil {
			return nil, err
		}
		return &Inner{Left: l, Right: r}, nil
	}
	return nil, errors.New(errors.ErrCodeInvalidNewick, "tree is not binary: node with %d neighbours", len(next)+1)
}

// Induce restricts a rooted binary tree to the leaves for which keep returns
// true, collapsing the resulting unary nodes. It returns nil if no leaf is
// kept.
func Induce(n Node, keep func(leaf int) bool) Node {
	switch n := n.(type) {
	case *Leaf:
		if keep(n.ID) {
			return n
		}
		return nil
	case *Inner:
		l, r := Induce(n.Left, keep), Induce(n.Right, keep)
		switch {
		case l != nil && r != nil:
			return &Inner{Left: l, Right: r}
		case l != nil:
			return l
		default:
			return r
		}
	}
	panic(fmt.Sprintf("tree: cannot induce a subtree of %T", n))
}
