package io

import (
	"bufio"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"
)

// ReadJSON decodes a report from r.
//
// Unknown fields are rejected so that a mistyped field name in a hand
// edited report is reported instead of silently dropped.
func ReadJSON(r io.Reader) (Report, error) {
	var rep Report
	dec := json.NewDecoder(r)
	dec.DisallowUnknownFields()
	if err := dec.Decode(&rep); err != nil {
		return Report{}, fmt.Errorf("decode: %w", err)
	}
	if rep.Root == "" {
		return Report{}, fmt.Errorf("decode: missing root")
	}
	return rep, nil
}

// ImportJSON reads a report from the JSON file at path.
func ImportJSON(path string) (Report, error) {
	f, err := os.Open(path)
	if err != nil {
		return Report{}, fmt.Errorf("open %s: %w", path, err)
	}
	defer f.Close()
	return ReadJSON(f)
}

// ReadTrees reads a tree list: one Newick string per line. Blank lines and
// lines starting with '#' are skipped. Lines are not parsed.
func ReadTrees(r io.Reader) ([]string, error) {
	var trees []string
	sc := bufio.NewScanner(r)
	sc.Buffer(make([]byte, 64*1024), 16*1024*1024)
	for sc.Scan() {
		line := strings.TrimSpace(sc.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		trees = append(trees, line)
	}
	if err := sc.Err(); err != nil {
		return nil, fmt.Errorf("read trees: %w", err)
	}
	return trees, nil
}
