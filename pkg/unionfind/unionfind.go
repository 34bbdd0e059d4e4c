// Package unionfind implements a disjoint-set arena over the fixed universe
// [0, n) with path compression and union by rank.
//
// A UnionFind is mutated by Find as well as by Merge (path compression
// rewrites parent pointers), so it is not safe for concurrent use. Branches
// of a recursion that run in parallel must each work on their own Clone.
package unionfind

import "fmt"

// Invalid is the parent value of an element that belongs to no set. It lets
// several disjoint leaf sets share one universe without sharing an arena.
const Invalid = -1

// UnionFind is a disjoint-set forest. The zero value is an empty arena.
type UnionFind struct {
	parent []int
	rank   []uint8
}

// New creates an arena of n elements, each in its own singleton set.
func New(n int) *UnionFind {
	uf := &UnionFind{
		parent: make([]int, n),
		rank:   make([]uint8, n),
	}
	uf.AllToSingletons()
	return uf
}

// Len returns the size of the universe.
func (uf *UnionFind) Len() int { return len(uf.parent) }

// AllToSingletons resets every element to its own set, reusing storage.
func (uf *UnionFind) AllToSingletons() {
	for i := range uf.parent {
		uf.parent[i] = i
		uf.rank[i] = 0
	}
}

// MakeSingleton puts u back into a set of its own, clearing an Invalid mark.
func (uf *UnionFind) MakeSingleton(u int) {
	uf.check(u)
	uf.parent[u] = u
	uf.rank[u] = 0
}

// Invalidate removes u from every set. Elements whose path to the root ran
// through u must not be queried afterwards; callers invalidate whole sets.
func (uf *UnionFind) Invalidate(u int) {
	uf.check(u)
	uf.parent[u] = Invalid
	uf.rank[u] = 0
}

// Valid reports whether u belongs to a set.
func (uf *UnionFind) Valid(u int) bool {
	uf.check(u)
	return uf.parent[u] != Invalid
}

// Find returns the representative of the set containing u and points every
// element on the traversed path directly at it.
//
// Find panics if u is outside [0, Len()) or has been invalidated.
func (uf *UnionFind) Find(u int) int {
	uf.check(u)
	if uf.parent[u] == Invalid {
		panic(fmt.Sprintf("unionfind: element %d is invalid", u))
	}
	root := u
	for uf.parent[root] != root {
		root = uf.parent[root]
	}
	for uf.parent[u] != root {
		u, uf.parent[u] = uf.parent[u], root
	}
	return root
}

// Merge unions the sets containing u and v and returns the representative of
// the result. Merging two elements of the same set changes nothing.
func (uf *UnionFind) Merge(u, v int) int {
	ru, rv := uf.Find(u), uf.Find(v)
	if ru == rv {
		return ru
	}
	switch {
	case uf.rank[ru] < uf.rank[rv]:
		ru, rv = rv, ru
	case uf.rank[ru] == uf.rank[rv]:
		uf.rank[ru]++
	}
	uf.parent[rv] = ru
	return ru
}

// Same reports whether u and v are in the same set.
func (uf *UnionFind) Same(u, v int) bool {
	return uf.Find(u) == uf.Find(v)
}

// Clone returns an independent copy of the arena.
func (uf *UnionFind) Clone() *UnionFind {
	return &UnionFind{
		parent: append([]int(nil), uf.parent...),
		rank:   append([]uint8(nil), uf.rank...),
	}
}

func (uf *UnionFind) check(u int) {
	if u < 0 || u >= len(uf.parent) {
		panic(fmt.Sprintf("unionfind: element %d outside universe [0, %d)", u, len(uf.parent)))
	}
}
