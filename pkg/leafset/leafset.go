// Package leafset provides the leaf-set abstraction the terrace algorithms
// recurse on.
//
// A leaf set is a subset of the fixed universe [0, N). Applying a list of
// constraints turns it into component form: leaves connected by a chain of
// constraints share a component and every other leaf is a singleton.
// Components are then split into two non-empty groups in every possible way
// ("partition tuples"), and each group becomes a new, unpartitioned leaf set.
//
// Two backings implement the same contract:
//
//   - [BitLeafSet] keeps membership and components as dense bit vectors.
//   - [UnionFindLeafSet] keeps membership in a privately owned
//     [unionfind.UnionFind] arena and folds constraints through Merge.
//
// Both order components by their smallest leaf, so for the same input they
// yield the same components and the same n-th partition tuple.
//
// # Preconditions
//
// Violations are caller bugs and panic: a constraint referencing a leaf that
// is not a member, applying constraints twice, asking for partition tuples
// before applying constraints or with fewer than two components, and a tuple
// index outside [1, NumPartitionTuples()].
package leafset

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/matzehuels/terraces/pkg/constraint"
)

// LeafSet is the contract shared by all backings. S is the concrete backing
// type itself, which lets algorithms be instantiated per backing at compile
// time instead of dispatching through an interface on the hot path.
type LeafSet[S any] interface {
	// Contains reports whether leaf is a member.
	Contains(leaf int) bool
	// Size returns the number of members.
	Size() int
	// Universe returns N, the size of the leaf-id universe.
	Universe() int
	// Leaves returns the members in ascending order.
	Leaves() []int

	// ApplyConstraints puts the set into component form.
	ApplyConstraints(cs []constraint.Constraint)
	// Components returns the components in canonical order.
	Components() [][]int
	// NumComponents returns the number of components.
	NumComponents() int
	// NumPartitionTuples returns 2^(k-1) - 1 for k components.
	NumPartitionTuples() uint64
	// NthPartitionTuple splits the components by the bits of n.
	NthPartitionTuple(n uint64) (S, S)

	// FilterConstraints keeps the constraints whose leaves are all members.
	FilterConstraints(cs []constraint.Constraint) []constraint.Constraint
	// Remove returns a copy of the set without leaf.
	Remove(leaf int) S
	// Pop returns the smallest member and a copy of the set without it.
	Pop() (int, S)
}

// Strategy selects a backing.
type Strategy string

// Available strategies.
const (
	StrategyAuto      Strategy = "auto"
	StrategyBitset    Strategy = "bitset"
	StrategyUnionFind Strategy = "unionfind"
)

// ParseStrategy converts a configuration string to a Strategy.
// The empty string means StrategyAuto.
func ParseStrategy(s string) (Strategy, error) {
	switch Strategy(s) {
	case "", StrategyAuto:
		return StrategyAuto, nil
	case StrategyBitset, StrategyUnionFind:
		return Strategy(s), nil
	}
	return "", fmt.Errorf("unknown leaf set strategy %q", s)
}

// Choose resolves StrategyAuto for a problem with the given number of leaves
// and constraints. Union-find wins when merges dominate, i.e. when there are
// at least as many constraints as leaves; otherwise the dense bitset does.
func Choose(s Strategy, leaves, constraints int) Strategy {
	if s != StrategyAuto && s != "" {
		return s
	}
	if constraints >= leaves {
		return StrategyUnionFind
	}
	return StrategyBitset
}

// MaxComponents is the largest component count whose partition tuples can
// be indexed by a uint64.
const MaxComponents = 64

// tupleCount returns 2^(k-1) - 1 and enforces the k > 1 precondition.
func tupleCount(k int) uint64 {
	if k < 2 {
		panic(fmt.Sprintf("leafset: partition tuples need at least 2 components, have %d", k))
	}
	if k > MaxComponents {
		panic(fmt.Sprintf("leafset: %d components exceed the %d that can be indexed", k, MaxComponents))
	}
	return (uint64(1) << (k - 1)) - 1
}

func checkTupleIndex(n uint64, k int) {
	if limit := tupleCount(k); n < 1 || n > limit {
		panic(fmt.Sprintf("leafset: partition tuple %d outside [1, %d]", n, limit))
	}
}

// isBitSet reports whether bit i of n is set.
func isBitSet(n uint64, i int) bool {
	return (n>>uint(i))&1 == 1
}

func checkLeaf(leaf, universe int) {
	if leaf < 0 || leaf >= universe {
		panic(fmt.Sprintf("leafset: leaf %d outside universe [0, %d)", leaf, universe))
	}
}

func formatLeaves(leaves []int) string {
	var b strings.Builder
	b.WriteByte('{')
	for i, l := range leaves {
		if i > 0 {
			b.WriteByte(',')
		}
		b.WriteString(strconv.Itoa(l))
	}
	b.WriteByte('}')
	return b.String()
}
