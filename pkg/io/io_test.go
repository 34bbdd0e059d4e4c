package io

import (
	"bytes"
	"math/big"
	"path/filepath"
	"strings"
	"testing"
)

func TestReportRoundTrip(t *testing.T) {
	on := true
	count, _ := new(big.Int).SetString("123456789012345678901234567890", 10)
	want := Report{
		Root:        "s3",
		Species:     5,
		Partitions:  2,
		Constraints: 2,
		Count:       count,
		OnTerrace:   &on,
		Compressed:  "(s3,{s1,s2});",
	}

	path := filepath.Join(t.TempDir(), "report.json")
	if err := ExportJSON(want, path); err != nil {
		t.Fatalf("ExportJSON: %v", err)
	}
	got, err := ImportJSON(path)
	if err != nil {
		t.Fatalf("ImportJSON: %v", err)
	}
	if got.Root != want.Root || got.Species != 5 || got.Partitions != 2 || got.Constraints != 2 {
		t.Errorf("ImportJSON() = %+v, want %+v", got, want)
	}
	if got.Count == nil || got.Count.Cmp(count) != 0 {
		t.Errorf("Count = %v, want %v", got.Count, count)
	}
	if got.OnTerrace == nil || !*got.OnTerrace {
		t.Errorf("OnTerrace = %v, want true", got.OnTerrace)
	}
	if got.Compressed != want.Compressed {
		t.Errorf("Compressed = %q, want %q", got.Compressed, want.Compressed)
	}
}

func TestWriteJSONCountIsNumber(t *testing.T) {
	var buf bytes.Buffer
	if err := WriteJSON(Report{Root: "a", Count: big.NewInt(15)}, &buf); err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(buf.String(), `"count": 15`) {
		t.Errorf("count should be a JSON number:\n%s", buf.String())
	}
	if strings.Contains(buf.String(), "on_terrace") {
		t.Errorf("unset fields should be omitted:\n%s", buf.String())
	}
}

func TestReadJSONErrors(t *testing.T) {
	tests := []struct {
		name  string
		input string
	}{
		{"malformed", `{"root":`},
		{"unknown field", `{"root":"a","colour":"red"}`},
		{"missing root", `{"species":3}`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := ReadJSON(strings.NewReader(tt.input)); err == nil {
				t.Error("ReadJSON() error = nil, want error")
			}
		})
	}
}

func TestImportJSONMissingFile(t *testing.T) {
	if _, err := ImportJSON(filepath.Join(t.TempDir(), "nope.json")); err == nil {
		t.Error("ImportJSON() error = nil, want error")
	}
}

func TestTrees(t *testing.T) {
	trees := []string{"(a,(b,c));", "(a,(c,b));"}
	var buf bytes.Buffer
	if err := WriteTrees(trees, &buf); err != nil {
		t.Fatal(err)
	}
	buf.WriteString("\n# comment\n  \n")

	got, err := ReadTrees(&buf)
	if err != nil {
		t.Fatalf("ReadTrees: %v", err)
	}
	if len(got) != 2 || got[0] != trees[0] || got[1] != trees[1] {
		t.Errorf("ReadTrees() = %v, want %v", got, trees)
	}
}
