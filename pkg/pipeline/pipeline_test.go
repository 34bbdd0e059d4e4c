package pipeline

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/charmbracelet/log"

	"github.com/matzehuels/terraces/pkg/cache"
	"github.com/matzehuels/terraces/pkg/constraint"
	"github.com/matzehuels/terraces/pkg/errors"
	"github.com/matzehuels/terraces/pkg/observability"
	"github.com/matzehuels/terraces/pkg/terrace"
)

const (
	tree0 = "((s1,s2),s3,(s4,s5));"
	tree1 = "((s1,s2),s4,(s3,s5));"

	example1 = `5 2
1 0 s1
1 0 s2
1 1 s3
0 1 s4
0 1 s5
`
	example2 = `5 2
1 1 s1
1 1 s2
1 1 s3
1 1 s4
1 1 s5
`
	identity = `6 6
1 0 0 0 0 0 s1
0 1 0 0 0 0 s2
0 0 1 0 0 0 s3
0 0 0 1 0 0 s4
0 0 0 0 1 0 s5
0 0 0 0 0 1 s6
`
	oneFull = `6 6
1 1 1 1 1 1 s1
0 1 0 0 0 0 s2
0 0 1 0 0 0 s3
0 0 0 1 0 0 s4
0 0 0 0 1 0 s5
0 0 0 0 0 1 s6
`
	sixTree = "((s1,s2),(s3,s4),(s5,s6));"
)

func quietRunner(c cache.Cache) *Runner {
	return NewRunner(c, nil, log.New(&strings.Builder{}))
}

func TestExecuteCount(t *testing.T) {
	tests := []struct {
		name   string
		newick string
		matrix string
		want   int64
	}{
		{"tree 0", tree0, example1, 15},
		{"tree 1", tree1, example1, 15},
		{"tree 0 without missing data", tree0, example2, 1},
		{"tree 1 without missing data", tree1, example2, 1},
		{"no constraints", sixTree, oneFull, 105},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res, err := quietRunner(nil).Execute(context.Background(), Options{
				Newick: tt.newick,
				Matrix: tt.matrix,
				Modes:  ModeCount | ModeDetect,
			})
			if err != nil {
				t.Fatalf("Execute() error: %v", err)
			}
			if res.Count.Int64() != tt.want {
				t.Errorf("Count = %s, want %d", res.Count, tt.want)
			}
			if res.OnTerrace != (tt.want > 1) {
				t.Errorf("OnTerrace = %v, want %v", res.OnTerrace, tt.want > 1)
			}
		})
	}
}

func TestExtractSupertreeConstraints(t *testing.T) {
	in, err := Parse(tree0, example1, "")
	if err != nil {
		t.Fatalf("Parse() error: %v", err)
	}
	if got := in.Matrix.Name(in.Root); got != "s3" {
		t.Fatalf("root = %s, want s3", got)
	}

	got := ExtractSupertreeConstraints(in.Tree, in.Matrix)
	want := []constraint.Constraint{
		{SmallerLeft: 0, BiggerLeft: 2, SmallerRight: 1, BiggerRight: 1},
		{SmallerLeft: 3, BiggerLeft: 2, SmallerRight: 4, BiggerRight: 4},
	}
	if len(got) != len(want) {
		t.Fatalf("constraints = %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("constraint %d = %v, want %v", i, got[i], want[i])
		}
	}
}

func TestExtractSupertreeConstraintsSkipsSmallPartitions(t *testing.T) {
	in, err := Parse(sixTree, oneFull, "")
	if err != nil {
		t.Fatal(err)
	}
	if got := ExtractSupertreeConstraints(in.Tree, in.Matrix); len(got) != 0 {
		t.Errorf("constraints = %v, want none", got)
	}
}

func TestExecuteEnumerate(t *testing.T) {
	var trees []string
	res, err := quietRunner(nil).Execute(context.Background(), Options{
		Newick: tree0,
		Matrix: example1,
		Modes:  ModeEnumerate,
		Sink: terrace.SinkFunc(func(newick string) error {
			trees = append(trees, newick)
			return nil
		}),
	})
	if err != nil {
		t.Fatalf("Execute() error: %v", err)
	}
	if !res.Modes.Has(ModeCount) {
		t.Error("ModeEnumerate should imply ModeCount")
	}
	if res.Count.Int64() != 15 || len(trees) != 15 {
		t.Fatalf("Count = %s, trees = %d; want 15, 15", res.Count, len(trees))
	}
	seen := make(map[string]bool)
	for _, tr := range trees {
		if !strings.HasPrefix(tr, "(s3,") || !strings.HasSuffix(tr, ");") {
			t.Errorf("tree %q is not rooted at s3", tr)
		}
		if seen[tr] {
			t.Errorf("tree %q emitted twice", tr)
		}
		seen[tr] = true
	}
}

func TestExecuteDetectOnly(t *testing.T) {
	res, err := quietRunner(nil).Execute(context.Background(), Options{
		Newick: tree0,
		Matrix: example1,
		Modes:  ModeDetect,
	})
	if err != nil {
		t.Fatalf("Execute() error: %v", err)
	}
	if !res.OnTerrace {
		t.Error("OnTerrace = false, want true")
	}
	if res.Count != nil {
		t.Errorf("Count = %s, want nil without ModeCount", res.Count)
	}
}

// sparseInput builds a 70-species dataset where s0 is in every partition,
// s1..s3 share the first one and every other species shares a partition
// only with s0. Rooted at s0, almost every species is its own component.
func sparseInput() (newick, matrix string) {
	const species, partitions = 70, 67

	var m strings.Builder
	fmt.Fprintf(&m, "%d %d\n", species, partitions)
	for s := 0; s < species; s++ {
		for p := 0; p < partitions; p++ {
			has := s == 0 || (p == 0 && s <= 3) || (p > 0 && s == p+3)
			if has {
				m.WriteString("1 ")
			} else {
				m.WriteString("0 ")
			}
		}
		fmt.Fprintf(&m, "s%d\n", s)
	}

	// (s0,s1,(s2,(s3,(...(s68,s69)))));
	var t strings.Builder
	t.WriteString("(s0,s1,")
	for s := 2; s < species-1; s++ {
		fmt.Fprintf(&t, "(s%d,", s)
	}
	fmt.Fprintf(&t, "s%d", species-1)
	t.WriteString(strings.Repeat(")", species-3))
	t.WriteString(");")
	return t.String(), m.String()
}

func TestExecuteManyComponents(t *testing.T) {
	newick, matrix := sparseInput()

	res, err := quietRunner(nil).Execute(context.Background(), Options{
		Newick: newick,
		Matrix: matrix,
		Modes:  ModeDetect,
	})
	if err != nil {
		t.Fatalf("Execute(detect) error: %v", err)
	}
	if !res.OnTerrace {
		t.Error("OnTerrace = false, want true")
	}

	_, err = quietRunner(nil).Execute(context.Background(), Options{
		Newick: newick,
		Matrix: matrix,
		Modes:  ModeCount,
	})
	if !errors.Is(err, errors.ErrCodeBudgetExceeded) {
		t.Errorf("Execute(count) error = %v, want %s", err, errors.ErrCodeBudgetExceeded)
	}
}

func TestExecuteCompress(t *testing.T) {
	res, err := quietRunner(nil).Execute(context.Background(), Options{
		Newick: tree0,
		Matrix: example2,
		Modes:  ModeCompress,
	})
	if err != nil {
		t.Fatalf("Execute() error: %v", err)
	}
	if want := "(s1,s2,(s3,(s4,s5)));"; res.Compressed != want {
		t.Errorf("Compressed = %q, want %q", res.Compressed, want)
	}

	res, err = quietRunner(nil).Execute(context.Background(), Options{
		Newick: tree0,
		Matrix: example1,
		Modes:  ModeCompress,
	})
	if err != nil {
		t.Fatalf("Execute() error: %v", err)
	}
	// Both constraints involve the root, so the rest is unconstrained.
	if want := "(s3,{s1,s2,s4,s5});"; res.Compressed != want {
		t.Errorf("Compressed = %q, want %q", res.Compressed, want)
	}
}

func TestExecuteErrors(t *testing.T) {
	tests := []struct {
		name string
		opts Options
		code errors.Code
	}{
		{"no tree", Options{Matrix: example1}, errors.ErrCodeInvalidInput},
		{"no matrix", Options{Newick: tree0}, errors.ErrCodeInvalidInput},
		{"no root species", Options{Newick: sixTree, Matrix: identity}, errors.ErrCodeNoRootSpecies},
		{"root lacks data", Options{Newick: tree0, Matrix: example1, Root: "s1"}, errors.ErrCodeNoRootSpecies},
		{"unknown root", Options{Newick: tree0, Matrix: example1, Root: "s9"}, errors.ErrCodeSpeciesMismatch},
		{"tree species not in matrix", Options{Newick: "((s1,s2),s3,(s4,s9));", Matrix: example1}, errors.ErrCodeSpeciesMismatch},
		{"matrix species not in tree", Options{Newick: "((s1,s2),s3,s4);", Matrix: example1}, errors.ErrCodeSpeciesMismatch},
		{"bad newick", Options{Newick: "((s1,s2),s3", Matrix: example1}, errors.ErrCodeInvalidNewick},
		{"non-binary tree", Options{Newick: "((s1,s2,s4),s3,s5);", Matrix: example1}, errors.ErrCodeInvalidNewick},
		{"bad matrix", Options{Newick: tree0, Matrix: "5 2\n1 0 s1\n"}, errors.ErrCodeInvalidMatrix},
		{"bad strategy", Options{Newick: tree0, Matrix: example1, Terrace: terrace.Options{Strategy: "nope"}}, errors.ErrCodeInvalidStrategy},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := quietRunner(nil).Execute(context.Background(), tt.opts)
			if err == nil {
				t.Fatal("Execute() error = nil, want error")
			}
			if !errors.Is(err, tt.code) {
				t.Errorf("Execute() error = %v, want code %s", err, tt.code)
			}
		})
	}
}

func TestExecuteBudget(t *testing.T) {
	_, err := quietRunner(nil).Execute(context.Background(), Options{
		Newick:  tree0,
		Matrix:  example1,
		Modes:   ModeEnumerate,
		Sink:    terrace.SinkFunc(func(string) error { return nil }),
		Terrace: terrace.Options{Budget: terrace.Budget{MaxTrees: 10}},
	})
	if !errors.Is(err, errors.ErrCodeBudgetExceeded) {
		t.Errorf("Execute() error = %v, want %s", err, errors.ErrCodeBudgetExceeded)
	}
}

func TestExecuteCache(t *testing.T) {
	fc, err := cache.NewFileCache(t.TempDir())
	if err != nil {
		t.Fatal(err)
	}
	r := quietRunner(fc)
	opts := Options{Newick: tree0, Matrix: example1, Modes: ModeCount | ModeDetect | ModeCompress}

	first, err := r.Execute(context.Background(), opts)
	if err != nil {
		t.Fatalf("first Execute() error: %v", err)
	}
	if first.CacheInfo.Hit {
		t.Error("first run should miss the cache")
	}

	second, err := r.Execute(context.Background(), opts)
	if err != nil {
		t.Fatalf("second Execute() error: %v", err)
	}
	if !second.CacheInfo.Hit {
		t.Fatal("second run should hit the cache")
	}
	if second.Count.Cmp(first.Count) != 0 || second.OnTerrace != first.OnTerrace ||
		second.Compressed != first.Compressed || second.Root != first.Root ||
		second.Stats.Constraints != first.Stats.Constraints {
		t.Errorf("cached result %+v differs from %+v", second, first)
	}

	opts.Refresh = true
	third, err := r.Execute(context.Background(), opts)
	if err != nil {
		t.Fatal(err)
	}
	if third.CacheInfo.Hit {
		t.Error("Refresh should bypass the cache")
	}

	other := Options{Newick: tree0, Matrix: example1, Modes: ModeDetect}
	res, err := r.Execute(context.Background(), other)
	if err != nil {
		t.Fatal(err)
	}
	if res.CacheInfo.Hit {
		t.Error("different modes should not share a cache entry")
	}
}

type recordingHooks struct {
	observability.NoopAnalysisHooks
	started, completed int
	constraints        int
	err                error
}

func (h *recordingHooks) OnAnalysisStart(context.Context, int, int) { h.started++ }
func (h *recordingHooks) OnConstraints(_ context.Context, n int)   { h.constraints = n }
func (h *recordingHooks) OnAnalysisComplete(_ context.Context, _ []string, _ time.Duration, err error) {
	h.completed++
	h.err = err
}

func TestExecuteHooks(t *testing.T) {
	defer observability.Reset()
	h := &recordingHooks{}
	observability.SetAnalysisHooks(h)

	if _, err := quietRunner(nil).Execute(context.Background(), Options{Newick: tree0, Matrix: example1}); err != nil {
		t.Fatal(err)
	}
	if h.started != 1 || h.completed != 1 || h.constraints != 2 || h.err != nil {
		t.Errorf("hooks = %+v, want one start, one completion, 2 constraints", h)
	}

	_, _ = quietRunner(nil).Execute(context.Background(), Options{Newick: sixTree, Matrix: identity})
	if h.completed != 2 || h.err == nil {
		t.Errorf("failed analysis should report its error, got %v", h.err)
	}
}

func TestParseModes(t *testing.T) {
	tests := []struct {
		in      string
		want    Mode
		wantErr bool
	}{
		{"count", ModeCount, false},
		{"count,detect", ModeCount | ModeDetect, false},
		{"Enumerate|compress", ModeEnumerate | ModeCompress, false},
		{"", 0, false},
		{"count,tower", 0, true},
	}
	for _, tt := range tests {
		got, err := ParseModes(tt.in)
		if (err != nil) != tt.wantErr {
			t.Errorf("ParseModes(%q) error = %v, wantErr %v", tt.in, err, tt.wantErr)
			continue
		}
		if got != tt.want {
			t.Errorf("ParseModes(%q) = %v, want %v", tt.in, got, tt.want)
		}
	}
}

func TestModeJSON(t *testing.T) {
	data, err := json.Marshal(ModeCount | ModeCompress)
	if err != nil {
		t.Fatal(err)
	}
	if string(data) != `["count","compress"]` {
		t.Errorf("Marshal = %s", data)
	}

	var opts Options
	if err := json.Unmarshal([]byte(`{"newick":"(a,b,c);","matrix":"3 1","modes":["detect","count"]}`), &opts); err != nil {
		t.Fatal(err)
	}
	if opts.Modes != ModeCount|ModeDetect {
		t.Errorf("Modes = %v, want count|detect", opts.Modes)
	}
	if err := json.Unmarshal([]byte(`{"modes":["tower"]}`), &opts); err == nil {
		t.Error("unknown mode should fail to decode")
	}
	if got := (ModeCount | ModeDetect).String(); got != "count|detect" {
		t.Errorf("String() = %q", got)
	}
}
