package pipeline

import (
	"slices"
	"strings"

	"github.com/matzehuels/terraces/pkg/constraint"
	"github.com/matzehuels/terraces/pkg/errors"
	"github.com/matzehuels/terraces/pkg/missingdata"
	"github.com/matzehuels/terraces/pkg/tree"
)

// Inputs are the parsed and rooted analysis inputs.
type Inputs struct {
	Matrix *missingdata.Matrix

	// Tree is the supertree rooted at Root, as Inner(Leaf(Root), rest).
	Tree tree.Node

	// Root is the leaf id (matrix row) of the root species.
	Root int
}

// Labels returns the species names indexed by leaf id.
func (in *Inputs) Labels() tree.Labels { return in.Matrix.Labels() }

// Leaves returns every leaf id.
func (in *Inputs) Leaves() []int {
	leaves := make([]int, in.Matrix.Species())
	for i := range leaves {
		leaves[i] = i
	}
	return leaves
}

// Parse reads the matrix and the supertree, selects the root species and
// re-roots the tree at it. Every tree leaf must be a matrix species and
// every species must appear in the tree.
func Parse(newick, matrix, root string) (*Inputs, error) {
	m, err := missingdata.Parse(strings.NewReader(matrix))
	if err != nil {
		return nil, err
	}
	p, err := tree.ParseNewick(newick)
	if err != nil {
		return nil, err
	}

	rootID, err := selectRoot(m, root)
	if err != nil {
		return nil, err
	}
	ids := m.Labels().Index()
	t, err := tree.RootAt(p, m.Name(rootID), ids)
	if err != nil {
		return nil, err
	}

	if n := len(tree.Leaves(t)); n != m.Species() {
		missing := missingSpecies(m, p.LeafLabels())
		return nil, errors.New(errors.ErrCodeSpeciesMismatch,
			"tree has %d leaves but the matrix has %d species; not in tree: %s",
			n, m.Species(), strings.Join(missing, ", "))
	}
	return &Inputs{Matrix: m, Tree: t, Root: rootID}, nil
}

func selectRoot(m *missingdata.Matrix, name string) (int, error) {
	if name == "" {
		return m.RootSpecies()
	}
	id, ok := m.Labels().Index()[name]
	if !ok {
		return -1, errors.New(errors.ErrCodeSpeciesMismatch, "root species %q is not in the data matrix", name)
	}
	if !slices.Contains(m.AllRootSpecies(), id) {
		return -1, errors.New(errors.ErrCodeNoRootSpecies, "root species %q lacks data in some partition", name)
	}
	return id, nil
}

func missingSpecies(m *missingdata.Matrix, labels []string) []string {
	var out []string
	for i := 0; i < m.Species(); i++ {
		if !slices.Contains(labels, m.Name(i)) {
			out = append(out, m.Name(i))
		}
	}
	return out
}

// ExtractSupertreeConstraints returns the constraints of the supertree t
// over all partitions of m: for each partition, t is induced on the species
// with data for it, and the constraints of every induced tree with at least
// two leaves are collected. Duplicates are dropped, keeping the first.
func ExtractSupertreeConstraints(t tree.Node, m *missingdata.Matrix) []constraint.Constraint {
	var cs []constraint.Constraint
	for p := 0; p < m.Partitions(); p++ {
		induced := tree.Induce(t, func(leaf int) bool { return m.Has(leaf, p) })
		if _, ok := induced.(*tree.Inner); !ok {
			continue
		}
		cs = append(cs, tree.ExtractConstraints(induced)...)
	}
	return constraint.Dedupe(cs)
}
