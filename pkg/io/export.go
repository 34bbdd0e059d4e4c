package io

import (
	"encoding/json"
	"fmt"
	"io"
	"math/big"
	"os"
)

// Report is the JSON form of an analysis result.
type Report struct {
	Root        string   `json:"root"`
	Species     int      `json:"species"`
	Partitions  int      `json:"partitions"`
	Constraints int      `json:"constraints"`
	Count       *big.Int `json:"count,omitempty"`
	OnTerrace   *bool    `json:"on_terrace,omitempty"`
	Compressed  string   `json:"compressed,omitempty"`
	Trees       []string `json:"trees,omitempty"`
}

// WriteJSON encodes r as indented JSON to w.
func WriteJSON(r Report, w io.Writer) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(r); err != nil {
		return fmt.Errorf("encode: %w", err)
	}
	return nil
}

// ExportJSON writes r to a JSON file at path.
func ExportJSON(r Report, path string) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create %s: %w", path, err)
	}
	if err := WriteJSON(r, f); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}

// WriteTrees writes one Newick string per line.
func WriteTrees(trees []string, w io.Writer) error {
	for _, t := range trees {
		if _, err := fmt.Fprintln(w, t); err != nil {
			return err
		}
	}
	return nil
}
