// Package constraint defines the lowest-common-ancestor ordering constraints
// that a supertree imposes on the trees of its terrace.
//
// A Constraint (SmallerLeft, BiggerLeft, SmallerRight, BiggerRight) states
//
//	lca(SmallerLeft, SmallerRight) < lca(BiggerLeft, BiggerRight)
//
// i.e. the first pair joins strictly below the second pair. Every constraint
// extracted from a tree is anchored on one side: either SmallerLeft ==
// BiggerLeft or SmallerRight == BiggerRight, so it mentions exactly three
// distinct leaves.
package constraint

import "fmt"

// Constraint is one ordering requirement between two LCA depths.
type Constraint struct {
	SmallerLeft  int
	BiggerLeft   int
	SmallerRight int
	BiggerRight  int
}

// New returns the constraint lca(smallerLeft, smallerRight) <
// lca(biggerLeft, biggerRight). Arguments are ordered as in the struct.
func New(smallerLeft, biggerLeft, smallerRight, biggerRight int) Constraint {
	return Constraint{
		SmallerLeft:  smallerLeft,
		BiggerLeft:   biggerLeft,
		SmallerRight: smallerRight,
		BiggerRight:  biggerRight,
	}
}

// Anchored reports whether c shares a leaf between its two pairs on exactly
// one side, which is the form every extracted constraint takes.
func (c Constraint) Anchored() bool {
	return (c.SmallerLeft == c.BiggerLeft) != (c.SmallerRight == c.BiggerRight)
}

// Leaves returns the three leaves the constraint depends on: both leaves of
// the smaller pair and the free leaf of the bigger pair.
func (c Constraint) Leaves() [3]int {
	if c.SmallerLeft == c.BiggerLeft {
		return [3]int{c.SmallerLeft, c.SmallerRight, c.BiggerRight}
	}
	return [3]int{c.SmallerLeft, c.SmallerRight, c.BiggerLeft}
}

// String renders the constraint as "lca(a,b) < lca(c,d)".
func (c Constraint) String() string {
	return fmt.Sprintf("lca(%d,%d) < lca(%d,%d)", c.SmallerLeft, c.SmallerRight, c.BiggerLeft, c.BiggerRight)
}

// Membership is anything that can answer whether a leaf belongs to it.
type Membership interface {
	Contains(leaf int) bool
}

// Filter returns the constraints whose three relevant leaves are all members
// of set, preserving order. The input slice is not modified.
func Filter(set Membership, cs []Constraint) []Constraint {
	var out []Constraint
	for _, c := range cs {
		l := c.Leaves()
		if set.Contains(l[0]) && set.Contains(l[1]) && set.Contains(l[2]) {
			out = append(out, c)
		}
	}
	return out
}

// Dedupe removes repeated constraints, keeping the first occurrence.
func Dedupe(cs []Constraint) []Constraint {
	seen := make(map[Constraint]struct{}, len(cs))
	out := make([]Constraint, 0, len(cs))
	for _, c := range cs {
		if _, ok := seen[c]; ok {
			continue
		}
		seen[c] = struct{}{}
		out = append(out, c)
	}
	return out
}
