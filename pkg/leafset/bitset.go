package leafset

import (
	"fmt"
	"slices"

	"github.com/bits-and-blooms/bitset"

	"github.com/matzehuels/terraces/pkg/constraint"
)

// BitLeafSet is a leaf set backed by a fixed-size bit vector. Components are
// bit vectors over the same universe and are merged with a bitwise OR.
//
// A BitLeafSet is immutable once ApplyConstraints has run, so concurrent
// NthPartitionTuple calls on it are safe.
type BitLeafSet struct {
	bits        *bitset.BitSet
	universe    int
	components  []*bitset.BitSet
	partitioned bool
}

// NewBitLeafSet returns the set of the given leaves over [0, universe).
func NewBitLeafSet(universe int, leaves ...int) *BitLeafSet {
	s := &BitLeafSet{bits: bitset.New(uint(universe)), universe: universe}
	for _, l := range leaves {
		checkLeaf(l, universe)
		s.bits.Set(uint(l))
	}
	return s
}

// FullBitLeafSet returns the set containing every leaf of [0, universe).
func FullBitLeafSet(universe int) *BitLeafSet {
	s := &BitLeafSet{bits: bitset.New(uint(universe)), universe: universe}
	s.bits.FlipRange(0, uint(universe))
	return s
}

func (s *BitLeafSet) Contains(leaf int) bool {
	return leaf >= 0 && leaf < s.universe && s.bits.Test(uint(leaf))
}

func (s *BitLeafSet) Size() int     { return int(s.bits.Count()) }
func (s *BitLeafSet) Universe() int { return s.universe }

func (s *BitLeafSet) Leaves() []int {
	return bitsToLeaves(s.bits)
}

// ApplyConstraints starts from one singleton bit vector per leaf and, for
// every constraint whose two smaller-pair leaves sit in different vectors,
// ORs them together.
func (s *BitLeafSet) ApplyConstraints(cs []constraint.Constraint) {
	if s.partitioned {
		panic("leafset: constraints already applied")
	}

	owner := make(map[int]int, s.Size())
	comps := make([]*bitset.BitSet, 0, s.Size())
	for _, l := range s.Leaves() {
		b := bitset.New(uint(s.universe))
		b.Set(uint(l))
		owner[l] = len(comps)
		comps = append(comps, b)
	}

	for _, c := range cs {
		li, ok := owner[c.SmallerLeft]
		if !ok {
			panic(fmt.Sprintf("leafset: constraint %v references leaf %d outside the set", c, c.SmallerLeft))
		}
		ri, ok := owner[c.SmallerRight]
		if !ok {
			panic(fmt.Sprintf("leafset: constraint %v references leaf %d outside the set", c, c.SmallerRight))
		}
		if li == ri {
			continue
		}
		comps[li].InPlaceUnion(comps[ri])
		for _, l := range bitsToLeaves(comps[ri]) {
			owner[l] = li
		}
		comps[ri] = nil
	}

	s.components = slices.DeleteFunc(comps, func(b *bitset.BitSet) bool { return b == nil })
	slices.SortFunc(s.components, func(a, b *bitset.BitSet) int {
		fa, _ := a.NextSet(0)
		fb, _ := b.NextSet(0)
		return int(fa) - int(fb)
	})
	s.partitioned = true
}

func (s *BitLeafSet) Components() [][]int {
	s.mustBePartitioned()
	out := make([][]int, len(s.components))
	for i, c := range s.components {
		out[i] = bitsToLeaves(c)
	}
	return out
}

func (s *BitLeafSet) NumComponents() int {
	s.mustBePartitioned()
	return len(s.components)
}

func (s *BitLeafSet) NumPartitionTuples() uint64 {
	s.mustBePartitioned()
	return tupleCount(len(s.components))
}

// NthPartitionTuple puts component i on the left when bit i of n is set and
// on the right otherwise. The returned sets are unpartitioned.
func (s *BitLeafSet) NthPartitionTuple(n uint64) (*BitLeafSet, *BitLeafSet) {
	s.mustBePartitioned()
	checkTupleIndex(n, len(s.components))

	left := &BitLeafSet{bits: bitset.New(uint(s.universe)), universe: s.universe}
	right := &BitLeafSet{bits: bitset.New(uint(s.universe)), universe: s.universe}
	for i, c := range s.components {
		if isBitSet(n, i) {
			left.bits.InPlaceUnion(c)
		} else {
			right.bits.InPlaceUnion(c)
		}
	}
	return left, right
}

func (s *BitLeafSet) FilterConstraints(cs []constraint.Constraint) []constraint.Constraint {
	return constraint.Filter(s, cs)
}

func (s *BitLeafSet) Remove(leaf int) *BitLeafSet {
	checkLeaf(leaf, s.universe)
	out := &BitLeafSet{bits: s.bits.Clone(), universe: s.universe}
	out.bits.Clear(uint(leaf))
	return out
}

func (s *BitLeafSet) Pop() (int, *BitLeafSet) {
	first, ok := s.bits.NextSet(0)
	if !ok {
		panic("leafset: pop from empty set")
	}
	return int(first), s.Remove(int(first))
}

// String renders the members as "{0,1,2}".
func (s *BitLeafSet) String() string {
	return formatLeaves(s.Leaves())
}

func (s *BitLeafSet) mustBePartitioned() {
	if !s.partitioned {
		panic("leafset: constraints not applied")
	}
}

func bitsToLeaves(b *bitset.BitSet) []int {
	out := make([]int, 0, b.Count())
	for i, ok := b.NextSet(0); ok; i, ok = b.NextSet(i + 1) {
		out = append(out, int(i))
	}
	return out
}

var _ LeafSet[*BitLeafSet] = (*BitLeafSet)(nil)
