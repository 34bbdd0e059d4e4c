package leafset

import (
	"fmt"
	"slices"

	"github.com/matzehuels/terraces/pkg/constraint"
	"github.com/matzehuels/terraces/pkg/unionfind"
)

// UnionFindLeafSet is a leaf set backed by a union-find arena over the whole
// universe. Leaves outside the set carry the [unionfind.Invalid] sentinel;
// components are identified by their representative.
//
// Every UnionFindLeafSet exclusively owns its arena. NthPartitionTuple hands
// each child a copy, so recursion branches never mutate shared state.
type UnionFindLeafSet struct {
	uf          *unionfind.UnionFind
	size        int
	components  [][]int
	partitioned bool
}

// NewUnionFindLeafSet returns the set of the given leaves over [0, universe).
func NewUnionFindLeafSet(universe int, leaves ...int) *UnionFindLeafSet {
	uf := unionfind.New(universe)
	keep := make([]bool, universe)
	for _, l := range leaves {
		checkLeaf(l, universe)
		keep[l] = true
	}
	s := &UnionFindLeafSet{uf: uf}
	for l, ok := range keep {
		if ok {
			s.size++
		} else {
			uf.Invalidate(l)
		}
	}
	return s
}

// FullUnionFindLeafSet returns the set containing every leaf of [0, universe).
func FullUnionFindLeafSet(universe int) *UnionFindLeafSet {
	return &UnionFindLeafSet{uf: unionfind.New(universe), size: universe}
}

func (s *UnionFindLeafSet) Contains(leaf int) bool {
	return leaf >= 0 && leaf < s.uf.Len() && s.uf.Valid(leaf)
}

func (s *UnionFindLeafSet) Size() int     { return s.size }
func (s *UnionFindLeafSet) Universe() int { return s.uf.Len() }

func (s *UnionFindLeafSet) Leaves() []int {
	out := make([]int, 0, s.size)
	for l := 0; l < s.uf.Len(); l++ {
		if s.uf.Valid(l) {
			out = append(out, l)
		}
	}
	return out
}

// ApplyConstraints resets the members to singletons, keeps non-members
// invalid and merges the smaller-pair leaves of every constraint.
func (s *UnionFindLeafSet) ApplyConstraints(cs []constraint.Constraint) {
	if s.partitioned {
		panic("leafset: constraints already applied")
	}

	leaves := s.Leaves()
	for _, l := range leaves {
		s.uf.MakeSingleton(l)
	}

	for _, c := range cs {
		for _, l := range [2]int{c.SmallerLeft, c.SmallerRight} {
			if !s.Contains(l) {
				panic(fmt.Sprintf("leafset: constraint %v references leaf %d outside the set", c, l))
			}
		}
		s.uf.Merge(c.SmallerLeft, c.SmallerRight)
	}

	// Leaves are visited in ascending order, so components come out sorted
	// by their smallest leaf.
	index := make(map[int]int)
	for _, l := range leaves {
		r := s.uf.Find(l)
		i, ok := index[r]
		if !ok {
			i = len(s.components)
			index[r] = i
			s.components = append(s.components, nil)
		}
		s.components[i] = append(s.components[i], l)
	}
	s.partitioned = true
}

func (s *UnionFindLeafSet) Components() [][]int {
	s.mustBePartitioned()
	out := make([][]int, len(s.components))
	for i, c := range s.components {
		out[i] = slices.Clone(c)
	}
	return out
}

func (s *UnionFindLeafSet) NumComponents() int {
	s.mustBePartitioned()
	return len(s.components)
}

func (s *UnionFindLeafSet) NumPartitionTuples() uint64 {
	s.mustBePartitioned()
	return tupleCount(len(s.components))
}

// NthPartitionTuple copies the arena once per side and invalidates the
// components that belong to the other side. The receiver is only read.
func (s *UnionFindLeafSet) NthPartitionTuple(n uint64) (*UnionFindLeafSet, *UnionFindLeafSet) {
	s.mustBePartitioned()
	checkTupleIndex(n, len(s.components))

	left := &UnionFindLeafSet{uf: s.uf.Clone()}
	right := &UnionFindLeafSet{uf: s.uf.Clone()}
	for i, comp := range s.components {
		keep, drop := right, left
		if isBitSet(n, i) {
			keep, drop = left, right
		}
		keep.size += len(comp)
		for _, l := range comp {
			drop.uf.Invalidate(l)
		}
	}
	return left, right
}

func (s *UnionFindLeafSet) FilterConstraints(cs []constraint.Constraint) []constraint.Constraint {
	return constraint.Filter(s, cs)
}

// Remove returns a reduced copy; the receiver's arena is left untouched.
func (s *UnionFindLeafSet) Remove(leaf int) *UnionFindLeafSet {
	checkLeaf(leaf, s.uf.Len())
	out := &UnionFindLeafSet{uf: s.uf.Clone(), size: s.size}
	if out.uf.Valid(leaf) {
		// Members of leaf's component may hang below it; re-seat them all.
		for l := 0; l < out.uf.Len(); l++ {
			if out.uf.Valid(l) {
				out.uf.MakeSingleton(l)
			}
		}
		out.uf.Invalidate(leaf)
		out.size--
	}
	return out
}

func (s *UnionFindLeafSet) Pop() (int, *UnionFindLeafSet) {
	for l := 0; l < s.uf.Len(); l++ {
		if s.uf.Valid(l) {
			return l, s.Remove(l)
		}
	}
	panic("leafset: pop from empty set")
}

// String renders the members as "{0,1,2}".
func (s *UnionFindLeafSet) String() string {
	return formatLeaves(s.Leaves())
}

func (s *UnionFindLeafSet) mustBePartitioned() {
	if !s.partitioned {
		panic("leafset: constraints not applied")
	}
}

var _ LeafSet[*UnionFindLeafSet] = (*UnionFindLeafSet)(nil)
