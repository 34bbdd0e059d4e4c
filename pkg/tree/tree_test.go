package tree

import (
	"fmt"
	"reflect"
	"slices"
	"testing"

	"github.com/matzehuels/terraces/pkg/constraint"
	"github.com/matzehuels/terraces/pkg/errors"
)

func leaf(id int) Node { return &Leaf{ID: id} }
func inner(l, r Node) Node { return &Inner{Left: l, Right: r} }

var digits = Labels{"1", "2", "3", "4", "5", "6", "7", "8"}

func TestNewick(t *testing.T) {
	tests := []struct {
		name string
		node Node
		want string
	}{
		{"leaf", leaf(0), "1;"},
		{"inner", inner(leaf(0), inner(leaf(1), leaf(2))), "(1,(2,3));"},
		{"unrooted", &Unrooted{Root: leaf(2), Left: leaf(0), Right: inner(leaf(1), leaf(3))}, "(3,1,(2,4));"},
		{"combinations", &AllBinaryCombinations{Leaves: []int{0, 1, 2}}, "{1,2,3};"},
		{
			"alternatives",
			&AllTreeCombinations{Alternatives: []Node{
				inner(leaf(0), &AllBinaryCombinations{Leaves: []int{1, 2}}),
				inner(leaf(1), leaf(2)),
			}},
			"[(1,{2,3})|(2,3)];",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Newick(tt.node, digits); got != tt.want {
				t.Errorf("Newick() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestLabelFallback(t *testing.T) {
	if got := Newick(inner(leaf(0), leaf(12)), Labels{"a"}); got != "(a,12);" {
		t.Errorf("Newick() = %q, want %q", got, "(a,12);")
	}
}

func TestExtractConstraints(t *testing.T) {
	tr := inner(inner(leaf(1), leaf(2)), inner(leaf(3), leaf(4)))
	want := []constraint.Constraint{
		{SmallerLeft: 1, BiggerLeft: 1, SmallerRight: 2, BiggerRight: 4},
		{SmallerLeft: 3, BiggerLeft: 1, SmallerRight: 4, BiggerRight: 4},
	}
	got := ExtractConstraints(tr)
	if !reflect.DeepEqual(got, want) {
		t.Errorf("ExtractConstraints() = %v, want %v", got, want)
	}
	if !Satisfies(tr, got) {
		t.Error("tree does not satisfy its own constraints")
	}
}

func TestExtractConstraintsCaterpillar(t *testing.T) {
	// (((0,1),2),3) fixes every split.
	tr := inner(inner(inner(leaf(0), leaf(1)), leaf(2)), leaf(3))
	got := ExtractConstraints(tr)
	if len(got) != 2 {
		t.Fatalf("ExtractConstraints() returned %d constraints, want 2", len(got))
	}
	if !Satisfies(tr, got) {
		t.Error("tree does not satisfy its own constraints")
	}
	other := inner(inner(leaf(0), inner(leaf(1), leaf(2))), leaf(3))
	if Satisfies(other, got) {
		t.Errorf("%s should violate %v", Newick(other, nil), got)
	}
}

func TestExtractConstraintsOnLeafPanics(t *testing.T) {
	defer func() {
		if recover() == nil {
			t.Error("ExtractConstraints(Leaf) should panic")
		}
	}()
	ExtractConstraints(leaf(0))
}

func TestCountBinaryTrees(t *testing.T) {
	want := []int64{1, 1, 3, 15, 105, 945}
	for i, w := range want {
		n := i + 1
		if got := CountBinaryTrees(n); got.Int64() != w {
			t.Errorf("CountBinaryTrees(%d) = %v, want %d", n, got, w)
		}
	}
}

func TestAllBinaryTreesThreeLeaves(t *testing.T) {
	var got []string
	for _, tr := range AllBinaryTrees([]int{0, 1, 2}) {
		got = append(got, Newick(tr, digits))
	}
	want := []string{"((3,1),2);", "(3,(2,1));", "((3,2),1);"}
	if !slices.Equal(got, want) {
		t.Errorf("AllBinaryTrees() = %v, want %v", got, want)
	}
}

func TestAllBinaryTreesFourLeaves(t *testing.T) {
	var got []string
	for _, tr := range AllBinaryTrees([]int{0, 1, 2, 3}) {
		got = append(got, Newick(tr, digits))
	}
	want := []string{
		"(((4,1),2),3);", "((4,(2,1)),3);", "(((4,2),1),3);", "((4,2),(3,1));", "(((4,2),3),1);",
		"((4,1),(3,2));", "(4,((3,1),2));", "(4,(3,(2,1)));", "(4,((3,2),1));", "((4,(3,2)),1);",
		"(((4,1),3),2);", "((4,(3,1)),2);", "(((4,3),1),2);", "((4,3),(2,1));", "(((4,3),2),1);",
	}
	if !slices.Equal(got, want) {
		t.Errorf("AllBinaryTrees() =\n%v\nwant\n%v", got, want)
	}
}

func TestAllBinaryTreesDistinct(t *testing.T) {
	leaves := []int{0, 1, 2, 3, 4}
	trees := AllBinaryTrees(leaves)
	if int64(len(trees)) != CountBinaryTrees(len(leaves)).Int64() {
		t.Fatalf("len = %d, want %v", len(trees), CountBinaryTrees(len(leaves)))
	}
	seen := map[string]bool{}
	for _, tr := range trees {
		s := Newick(tr, nil)
		if seen[s] {
			t.Errorf("duplicate tree %s", s)
		}
		seen[s] = true
		got := Leaves(tr)
		slices.Sort(got)
		if !slices.Equal(got, leaves) {
			t.Errorf("%s spans %v", s, got)
		}
	}
}

func TestCountTrees(t *testing.T) {
	tests := []struct {
		name string
		node Node
		want int64
	}{
		{"leaf", leaf(0), 1},
		{"binary", inner(leaf(0), leaf(1)), 1},
		{"combinations", &AllBinaryCombinations{Leaves: []int{0, 1, 2, 3}}, 15},
		{
			"product",
			inner(&AllBinaryCombinations{Leaves: []int{0, 1, 2}}, &AllBinaryCombinations{Leaves: []int{3, 4, 5}}),
			9,
		},
		{
			"alternatives",
			&AllTreeCombinations{Alternatives: []Node{
				inner(leaf(0), &AllBinaryCombinations{Leaves: []int{1, 2, 3}}),
				inner(&AllBinaryCombinations{Leaves: []int{0, 1}}, inner(leaf(2), leaf(3))),
			}},
			4,
		},
		{"unrooted", &Unrooted{Root: leaf(0), Left: leaf(1), Right: &AllBinaryCombinations{Leaves: []int{2, 3, 4}}}, 3},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := CountTrees(tt.node); got.Int64() != tt.want {
				t.Errorf("CountTrees() = %v, want %d", got, tt.want)
			}
		})
	}
}

func TestUnroot(t *testing.T) {
	got := Newick(Unroot(4, inner(leaf(0), inner(leaf(1), leaf(2)))), digits)
	if got != "(5,1,(2,3));" {
		t.Errorf("Unroot(inner) = %q", got)
	}
	got = Newick(Unroot(4, leaf(0)), digits)
	if got != "(5,1);" {
		t.Errorf("Unroot(leaf) = %q", got)
	}

	// A symbolic rest has no top-level split to form a pseudoroot with.
	sym := Unroot(4, &AllBinaryCombinations{Leaves: []int{0, 1, 2}})
	if _, ok := sym.(*Inner); !ok {
		t.Fatalf("Unroot(AllBinaryCombinations) = %T, want *Inner", sym)
	}
	if got := Newick(sym, digits); got != "(5,{1,2,3});" {
		t.Errorf("Unroot(AllBinaryCombinations) = %q", got)
	}
	if c := CountTrees(sym); c.Int64() != 3 {
		t.Errorf("CountTrees(Unroot(AllBinaryCombinations)) = %v, want 3", c)
	}

	alts := &AllTreeCombinations{Alternatives: []Node{
		inner(leaf(0), inner(leaf(1), leaf(2))),
		inner(inner(leaf(0), leaf(1)), leaf(2)),
	}}
	if got := Newick(Unroot(4, alts), digits); got != "(5,[(1,(2,3))|((1,2),3)]);" {
		t.Errorf("Unroot(AllTreeCombinations) = %q", got)
	}
}

func TestParseNewick(t *testing.T) {
	tests := []struct {
		name   string
		input  string
		leaves []string
	}{
		{"unrooted", "((s1,s2),s3,(s4,s5));", []string{"s1", "s2", "s3", "s4", "s5"}},
		{"rooted", "(a,(b,c));", []string{"a", "b", "c"}},
		{"branch lengths", "(a:0.1,(b:2,c:1e-3)inner:0.5);", []string{"a", "b", "c"}},
		{"whitespace", " ( a , ( b , c ) ) ; \n", []string{"a", "b", "c"}},
		{"comments", "(a[&note],(b,c));", []string{"a", "b", "c"}},
		{"quoted", "('x y',('it''s',c));", []string{"x y", "it's", "c"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p, err := ParseNewick(tt.input)
			if err != nil {
				t.Fatalf("ParseNewick() error = %v", err)
			}
			if got := p.LeafLabels(); !slices.Equal(got, tt.leaves) {
				t.Errorf("LeafLabels() = %v, want %v", got, tt.leaves)
			}
		})
	}
}

func TestParseNewickErrors(t *testing.T) {
	for _, input := range []string{
		"",
		"(a,b)",
		"(a,b;",
		"(a,,b);",
		"(a,b));",
		"(a:,b);",
		"(a,b); extra",
		"('open,b);",
	} {
		t.Run(input, func(t *testing.T) {
			_, err := ParseNewick(input)
			if err == nil {
				t.Fatalf("ParseNewick(%q) succeeded", input)
			}
			if !errors.Is(err, errors.ErrCodeInvalidNewick) {
				t.Errorf("ParseNewick(%q) error code = %v, want %v", input, errors.GetCode(err), errors.ErrCodeInvalidNewick)
			}
		})
	}
}

func TestRootAt(t *testing.T) {
	labels := Labels{"s1", "s2", "s3", "s4", "s5"}
	tests := []struct {
		name  string
		input string
		root  string
		want  string
	}{
		{"pseudoroot", "((s1,s2),s3,(s4,s5));", "s3", "(s3,((s1,s2),(s4,s5)));"},
		{"deep leaf", "((s1,s2),s3,(s4,s5));", "s1", "(s1,(s2,(s3,(s4,s5))));"},
		{"rooted input", "((s1,s2),(s3,(s4,s5)));", "s4", "(s4,(s5,(s3,(s1,s2))));"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p, err := ParseNewick(tt.input)
			if err != nil {
				t.Fatal(err)
			}
			got, err := RootAt(p, tt.root, labels.Index())
			if err != nil {
				t.Fatalf("RootAt() error = %v", err)
			}
			if s := Newick(got, labels); s != tt.want {
				t.Errorf("RootAt() = %s, want %s", s, tt.want)
			}
		})
	}
}

func TestRootAtErrors(t *testing.T) {
	ids := Labels{"a", "b", "c", "d"}.Index()
	tests := []struct {
		name  string
		input string
		root  string
		code  errors.Code
	}{
		{"unknown species", "(a,b,x);", "a", errors.ErrCodeSpeciesMismatch},
		{"missing root", "(a,b,c);", "d", errors.ErrCodeSpeciesMismatch},
		{"duplicate", "(a,b,a);", "b", errors.ErrCodeInvalidNewick},
		{"multifurcation", "((a,b,c),d);", "d", errors.ErrCodeInvalidNewick},
		{"single leaf", "a;", "a", errors.ErrCodeInvalidNewick},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p, err := ParseNewick(tt.input)
			if err != nil {
				t.Fatal(err)
			}
			_, err = RootAt(p, tt.root, ids)
			if !errors.Is(err, tt.code) {
				t.Errorf("RootAt() error = %v, want code %v", err, tt.code)
			}
		})
	}
}

func TestInduce(t *testing.T) {
	tr := inner(leaf(2), inner(inner(leaf(0), leaf(1)), inner(leaf(3), leaf(4))))
	keep := func(ids ...int) func(int) bool {
		return func(l int) bool { return slices.Contains(ids, l) }
	}

	tests := []struct {
		name string
		keep func(int) bool
		want string
	}{
		{"first partition", keep(0, 1, 2), "(3,(1,2));"},
		{"second partition", keep(2, 3, 4), "(3,(4,5));"},
		{"single", keep(4), "5;"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Newick(Induce(tr, tt.keep), digits); got != tt.want {
				t.Errorf("Induce() = %s, want %s", got, tt.want)
			}
		})
	}
	if Induce(tr, keep()) != nil {
		t.Error("Induce() with nothing kept should be nil")
	}
}

func ExampleNewick() {
	labels := Labels{"human", "chimp", "gorilla"}
	t := &Inner{Left: &Leaf{ID: 2}, Right: &Inner{Left: &Leaf{ID: 0}, Right: &Leaf{ID: 1}}}
	fmt.Println(Newick(t, labels))
	fmt.Println(Newick(&AllBinaryCombinations{Leaves: []int{0, 1, 2}}, labels))
	// Output:
	// (gorilla,(human,chimp));
	// {human,chimp,gorilla};
}
