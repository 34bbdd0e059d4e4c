// Package tree defines the immutable tree values produced and consumed by
// the terrace algorithms.
//
// A [Node] is one of:
//
//   - [Leaf]: a species, identified by its integer leaf id.
//   - [Inner]: a rooted binary node with exactly two children.
//   - [Unrooted]: the degree-3 pseudoroot of an unrooted binary tree.
//   - [AllBinaryCombinations]: every rooted binary tree over a leaf set.
//   - [AllTreeCombinations]: the union of several alternative subtrees.
//
// The last two are symbolic: they stand for many concrete trees at once and
// only appear in compressed output. Nodes own their children exclusively and
// carry no parent pointer; ancestry is computed on demand where it is needed
// (see [RootAt]).
//
// Leaf ids index into a [Labels] table, which is only consulted when
// rendering Newick text.
package tree

import (
	"strconv"
	"strings"
)

// Node is a tree value. The set of implementations is closed.
type Node interface {
	writeNewick(b *strings.Builder, labels Labels)
}

// Leaf is a single species.
type Leaf struct {
	ID int
}

// Inner is a rooted binary node.
type Inner struct {
	Left, Right Node
}

// Unrooted is the pseudoroot of an unrooted binary tree. Root is the leaf the
// tree was rooted at during analysis; it is rendered first.
type Unrooted struct {
	Root, Left, Right Node
}

// AllBinaryCombinations stands for every rooted binary tree over Leaves.
type AllBinaryCombinations struct {
	Leaves []int
}

// AllTreeCombinations stands for the union of its alternatives. Every
// alternative spans the same leaf set.
type AllTreeCombinations struct {
	Alternatives []Node
}

// Labels maps leaf ids to display names. Ids outside the table render as
// their decimal value.
type Labels []string

// Label returns the display name of id.
func (l Labels) Label(id int) string {
	if id >= 0 && id < len(l) {
		return l[id]
	}
	return strconv.Itoa(id)
}

// Index returns the inverse mapping, name to id.
func (l Labels) Index() map[string]int {
	m := make(map[string]int, len(l))
	for i, name := range l {
		m[name] = i
	}
	return m
}

// Newick renders n as a Newick string terminated by ";".
//
// Symbolic nodes use two non-standard extensions: AllBinaryCombinations is
// written as "{a,b,c}" and AllTreeCombinations as "[A|B]". Output containing
// them is not readable by ordinary Newick parsers.
func Newick(n Node, labels Labels) string {
	var b strings.Builder
	n.writeNewick(&b, labels)
	b.WriteByte(';')
	return b.String()
}

func (n *Leaf) writeNewick(b *strings.Builder, labels Labels) {
	b.WriteString(labels.Label(n.ID))
}

func (n *Inner) writeNewick(b *strings.Builder, labels Labels) {
	b.WriteByte('(')
	n.Left.writeNewick(b, labels)
	b.WriteByte(',')
	n.Right.writeNewick(b, labels)
	b.WriteByte(')')
}

func (n *Unrooted) writeNewick(b *strings.Builder, labels Labels) {
	b.WriteByte('(')
	n.Root.writeNewick(b, labels)
	b.WriteByte(',')
	n.Left.writeNewick(b, labels)
	b.WriteByte(',')
	n.Right.writeNewick(b, labels)
	b.WriteByte(')')
}

func (n *AllBinaryCombinations) writeNewick(b *strings.Builder, labels Labels) {
	b.WriteByte('{')
	for i, id := range n.Leaves {
		if i > 0 {
			b.WriteByte(',')
		}
		b.WriteString(labels.Label(id))
	}
	b.WriteByte('}')
}

func (n *AllTreeCombinations) writeNewick(b *strings.Builder, labels Labels) {
	b.WriteByte('[')
	for i, alt := range n.Alternatives {
		if i > 0 {
			b.WriteByte('|')
		}
		alt.writeNewick(b, labels)
	}
	b.WriteByte(']')
}

// Unroot attaches the root leaf to a tree over the remaining leaves. A
// rooted binary rest becomes an [Unrooted] pseudoroot. A single leaf or a
// symbolic node has no top-level split, so it is paired with the root under
// an [Inner]: "(r,{a,b,c})" denotes the unrooted trees over r, a, b and c.
func Unroot(root int, rest Node) Node {
	if in, ok := rest.(*Inner); ok {
		return &Unrooted{Root: &Leaf{ID: root}, Left: in.Left, Right: in.Right}
	}
	return &Inner{Left: &Leaf{ID: root}, Right: rest}
}

// Leaves returns the leaf ids of n in rendering order. For an
// [AllTreeCombinations] the leaves of the first alternative are returned.
func Leaves(n Node) []int {
	var out []int
	var walk func(Node)
	walk = func(n Node) {
		switch n := n.(type) {
		case *Leaf:
			out = append(out, n.ID)
		case *Inner:
			walk(n.Left)
			walk(n.Right)
		case *Unrooted:
			walk(n.Root)
			walk(n.Left)
			walk(n.Right)
		case *AllBinaryCombinations:
			out = append(out, n.Leaves...)
		case *AllTreeCombinations:
			if len(n.Alternatives) > 0 {
				walk(n.Alternatives[0])
			}
		}
	}
	walk(n)
	return out
}
