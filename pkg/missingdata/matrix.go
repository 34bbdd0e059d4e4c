// Package missingdata holds the species × partition presence matrix of a
// phylogenomic data set.
//
// Row i of a [Matrix] describes species i, which is also leaf id i in every
// tree built for the analysis; column p is data partition p. A set cell means
// the species has sequence data for that partition.
package missingdata

import (
	"bufio"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/matzehuels/terraces/pkg/errors"
	"github.com/matzehuels/terraces/pkg/tree"
)

// Matrix is a presence/absence matrix. It is immutable after construction.
type Matrix struct {
	species    []string
	partitions int
	data       []bool
}

// New builds a matrix from species names and one row of presence flags per
// species.
func New(species []string, rows [][]bool) (*Matrix, error) {
	if len(species) == 0 {
		return nil, errors.New(errors.ErrCodeInvalidMatrix, "matrix has no species")
	}
	if len(rows) != len(species) {
		return nil, errors.New(errors.ErrCodeInvalidMatrix, "%d species but %d rows", len(species), len(rows))
	}
	m := &Matrix{
		species:    append([]string(nil), species...),
		partitions: len(rows[0]),
	}
	if m.partitions == 0 {
		return nil, errors.New(errors.ErrCodeInvalidMatrix, "matrix has no partitions")
	}
	m.data = make([]bool, 0, len(species)*m.partitions)
	for i, row := range rows {
		if len(row) != m.partitions {
			return nil, errors.New(errors.ErrCodeInvalidMatrix, "species %q has %d partitions, want %d", species[i], len(row), m.partitions)
		}
		m.data = append(m.data, row...)
	}
	if err := m.Validate(); err != nil {
		return nil, err
	}
	return m, nil
}

// Parse reads the data file format:
//
//	<species> <partitions>
//	<0/1 flags> <name>
//	...
//
// Flags may be separated by whitespace or written as one block ("1 0 1" or
// "101"). Blank lines are ignored.
func Parse(r io.Reader) (*Matrix, error) {
	sc := bufio.NewScanner(r)
	line := 0
	next := func() (string, bool) {
		for sc.Scan() {
			line++
			if s := strings.TrimSpace(sc.Text()); s != "" {
				return s, true
			}
		}
		return "", false
	}

	header, ok := next()
	if !ok {
		if err := sc.Err(); err != nil {
			return nil, errors.Wrap(errors.ErrCodeInvalidMatrix, err, "read header")
		}
		return nil, errors.New(errors.ErrCodeInvalidMatrix, "empty data file")
	}
	fields := strings.Fields(header)
	if len(fields) != 2 {
		return nil, errors.New(errors.ErrCodeInvalidMatrix, "line %d: header must be \"<species> <partitions>\"", line)
	}
	nSpecies, err1 := strconv.Atoi(fields[0])
	nParts, err2 := strconv.Atoi(fields[1])
	if err1 != nil || err2 != nil || nSpecies < 1 || nParts < 1 {
		return nil, errors.New(errors.ErrCodeInvalidMatrix, "line %d: invalid header %q", line, header)
	}

	species := make([]string, 0, nSpecies)
	rows := make([][]bool, 0, nSpecies)
	for len(species) < nSpecies {
		s, ok := next()
		if !ok {
			break
		}
		name, row, err := parseRow(s, nParts)
		if err != nil {
			return nil, errors.Wrap(errors.ErrCodeInvalidMatrix, err, "line %d", line)
		}
		species = append(species, name)
		rows = append(rows, row)
	}
	if err := sc.Err(); err != nil {
		return nil, errors.Wrap(errors.ErrCodeInvalidMatrix, err, "read rows")
	}
	if len(species) < nSpecies {
		return nil, errors.New(errors.ErrCodeInvalidMatrix, "header announces %d species, found %d", nSpecies, len(species))
	}
	if extra, ok := next(); ok {
		return nil, errors.New(errors.ErrCodeInvalidMatrix, "line %d: unexpected row %q after %d species", line, extra, nSpecies)
	}
	return New(species, rows)
}

func parseRow(s string, partitions int) (string, []bool, error) {
	row := make([]bool, 0, partitions)
	fields := strings.Fields(s)
	i := 0
	for ; i < len(fields) && len(row) < partitions; i++ {
		for _, c := range fields[i] {
			switch c {
			case '0':
				row = append(row, false)
			case '1':
				row = append(row, true)
			default:
				return "", nil, fmt.Errorf("invalid flag %q in %q", c, fields[i])
			}
		}
	}
	if len(row) != partitions {
		return "", nil, fmt.Errorf("found %d flags, want %d", len(row), partitions)
	}
	if len(fields)-i != 1 {
		return "", nil, fmt.Errorf("expected one species name after the flags, found %d fields", len(fields)-i)
	}
	name := fields[i]
	if err := errors.ValidateSpeciesName(name); err != nil {
		return "", nil, err
	}
	return name, row, nil
}

// Species returns the number of species.
func (m *Matrix) Species() int { return len(m.species) }

// Partitions returns the number of partitions.
func (m *Matrix) Partitions() int { return m.partitions }

// Name returns the name of species i.
func (m *Matrix) Name(i int) string { return m.species[i] }

// Labels returns the species names indexed by leaf id.
func (m *Matrix) Labels() tree.Labels {
	return tree.Labels(append([]string(nil), m.species...))
}

// Has reports whether species has data for partition.
func (m *Matrix) Has(species, partition int) bool {
	return m.data[species*m.partitions+partition]
}

// Present returns the species with data for partition, in row order.
func (m *Matrix) Present(partition int) []int {
	var out []int
	for s := range m.species {
		if m.Has(s, partition) {
			out = append(out, s)
		}
	}
	return out
}

// Complete reports whether every cell is set, i.e. there is no missing data.
func (m *Matrix) Complete() bool {
	for _, v := range m.data {
		if !v {
			return false
		}
	}
	return true
}

// AllRootSpecies returns every species with data in all partitions. Any of
// them is a valid root for the analysis.
func (m *Matrix) AllRootSpecies() []int {
	var out []int
	for s := range m.species {
		if m.hasAll(s) {
			out = append(out, s)
		}
	}
	return out
}

// RootSpecies returns the first species with data in every partition. It
// fails with ErrCodeNoRootSpecies if there is none.
func (m *Matrix) RootSpecies() (int, error) {
	for s := range m.species {
		if m.hasAll(s) {
			return s, nil
		}
	}
	return -1, errors.New(errors.ErrCodeNoRootSpecies,
		"no species has data in all %d partitions; the tree cannot be rooted consistently", m.partitions)
}

func (m *Matrix) hasAll(s int) bool {
	for p := 0; p < m.partitions; p++ {
		if !m.Has(s, p) {
			return false
		}
	}
	return true
}

// Validate rejects duplicate or malformed species names and species without
// data in any partition.
func (m *Matrix) Validate() error {
	seen := make(map[string]bool, len(m.species))
	for s, name := range m.species {
		if err := errors.ValidateSpeciesName(name); err != nil {
			return errors.Wrap(errors.ErrCodeInvalidMatrix, err, "species %d", s)
		}
		if seen[name] {
			return errors.New(errors.ErrCodeInvalidMatrix, "species %q appears twice", name)
		}
		seen[name] = true

		empty := true
		for p := 0; p < m.partitions; p++ {
			if m.Has(s, p) {
				empty = false
				break
			}
		}
		if empty {
			return errors.New(errors.ErrCodeInvalidMatrix, "species %q has no data in any partition", name)
		}
	}
	return nil
}

// String renders the matrix in the data file format.
func (m *Matrix) String() string {
	var b strings.Builder
	fmt.Fprintf(&b, "%d %d\n", len(m.species), m.partitions)
	for s, name := range m.species {
		for p := 0; p < m.partitions; p++ {
			if p > 0 {
				b.WriteByte(' ')
			}
			if m.Has(s, p) {
				b.WriteByte('1')
			} else {
				b.WriteByte('0')
			}
		}
		b.WriteByte(' ')
		b.WriteString(name)
		b.WriteByte('\n')
	}
	return b.String()
}
