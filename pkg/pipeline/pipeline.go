// Package pipeline runs a complete terrace analysis.
//
// It is the one place that turns user inputs (a Newick supertree and a
// missing-data matrix) into results, so the CLI and the HTTP server behave
// identically.
//
// # Stages
//
//  1. Parse: read the matrix and the Newick string
//  2. Root: pick the root species (first species with data in every
//     partition, unless one is given) and re-root the tree at it
//  3. Constraints: induce the tree on each partition's species and extract
//     the ordering constraints of every induced tree
//  4. Analyse: run the requested [Mode]s on the leaves, pinning the root
//
// # Usage
//
//	runner := pipeline.NewRunner(cache, nil, logger)
//	result, err := runner.Execute(ctx, pipeline.Options{
//	    Newick: "((s1,s2),s3,(s4,s5));",
//	    Matrix: matrixText,
//	    Modes:  pipeline.ModeCount | pipeline.ModeDetect,
//	})
//	if err != nil {
//	    log.Fatal(err)
//	}
//	fmt.Println(result.Count, result.OnTerrace)
package pipeline

import (
	"encoding/json"
	"fmt"
	"math/big"
	"strings"
	"time"

	"github.com/charmbracelet/log"

	"github.com/matzehuels/terraces/pkg/constraint"
	"github.com/matzehuels/terraces/pkg/errors"
	"github.com/matzehuels/terraces/pkg/terrace"
)

// =============================================================================
// Modes
// =============================================================================

// Mode is a bit set of analyses to run.
type Mode uint8

const (
	// ModeCount counts the unrooted trees on the terrace.
	ModeCount Mode = 1 << iota
	// ModeEnumerate streams every tree on the terrace to Options.Sink. It
	// implies ModeCount.
	ModeEnumerate
	// ModeDetect decides whether the tree lies on a terrace of size > 1.
	ModeDetect
	// ModeCompress builds the compressed representation of the terrace.
	ModeCompress
)

// ModeAll runs every analysis.
const ModeAll = ModeCount | ModeEnumerate | ModeDetect | ModeCompress

var modeNames = []struct {
	mode Mode
	name string
}{
	{ModeCount, "count"},
	{ModeEnumerate, "enumerate"},
	{ModeDetect, "detect"},
	{ModeCompress, "compress"},
}

// Has reports whether every mode in x is set in m.
func (m Mode) Has(x Mode) bool { return m&x == x }

// Names returns the names of the set modes in canonical order.
func (m Mode) Names() []string {
	var out []string
	for _, mn := range modeNames {
		if m.Has(mn.mode) {
			out = append(out, mn.name)
		}
	}
	return out
}

func (m Mode) String() string {
	if m == 0 {
		return "none"
	}
	return strings.Join(m.Names(), "|")
}

// ParseModes parses a comma or pipe separated list of mode names.
func ParseModes(s string) (Mode, error) {
	var m Mode
	for _, f := range strings.FieldsFunc(s, func(r rune) bool { return r == ',' || r == '|' }) {
		x, err := parseMode(strings.TrimSpace(f))
		if err != nil {
			return 0, err
		}
		m |= x
	}
	return m, nil
}

func parseMode(name string) (Mode, error) {
	for _, mn := range modeNames {
		if strings.EqualFold(name, mn.name) {
			return mn.mode, nil
		}
	}
	return 0, errors.New(errors.ErrCodeInvalidInput, "unknown mode %q (must be one of: count, enumerate, detect, compress)", name)
}

// MarshalJSON encodes m as a list of mode names.
func (m Mode) MarshalJSON() ([]byte, error) {
	names := m.Names()
	if names == nil {
		names = []string{}
	}
	return json.Marshal(names)
}

// UnmarshalJSON decodes a list of mode names.
func (m *Mode) UnmarshalJSON(data []byte) error {
	var names []string
	if err := json.Unmarshal(data, &names); err != nil {
		return fmt.Errorf("modes must be a list of names: %w", err)
	}
	*m = 0
	for _, n := range names {
		x, err := parseMode(n)
		if err != nil {
			return err
		}
		*m |= x
	}
	return nil
}

// =============================================================================
// Options
// =============================================================================

// Options configures one analysis. It is the request body of the HTTP API.
type Options struct {
	// Newick is the supertree: unrooted (degree-3 pseudoroot) or rooted,
	// strictly binary, with one leaf per species.
	Newick string `json:"newick"`

	// Matrix is the missing-data matrix in data file format.
	Matrix string `json:"matrix"`

	// Root names the root species. Empty selects the first species with
	// data in every partition.
	Root string `json:"root,omitempty"`

	// Modes selects the analyses. Zero means ModeCount.
	Modes Mode `json:"modes,omitempty"`

	// Terrace configures the engine (parallelism, strategy, budget).
	Terrace terrace.Options `json:"terrace,omitempty"`

	// Refresh bypasses the cache lookup (the result is still stored).
	Refresh bool `json:"refresh,omitempty"`

	// Sink receives enumerated trees. Enumeration without a sink only counts.
	Sink terrace.Sink `json:"-"`

	Logger *log.Logger `json:"-"`

	// validated tracks whether ValidateAndSetDefaults has been called.
	validated bool
}

// ValidateAndSetDefaults checks required fields and applies defaults.
// It is idempotent.
func (o *Options) ValidateAndSetDefaults() error {
	if o.validated {
		return nil
	}
	if strings.TrimSpace(o.Newick) == "" {
		return errors.New(errors.ErrCodeInvalidInput, "newick tree is required")
	}
	if strings.TrimSpace(o.Matrix) == "" {
		return errors.New(errors.ErrCodeInvalidInput, "data matrix is required")
	}
	if o.Root != "" {
		if err := errors.ValidateSpeciesName(o.Root); err != nil {
			return err
		}
	}
	if o.Modes == 0 {
		o.Modes = ModeCount
	}
	if o.Modes&^ModeAll != 0 {
		return errors.New(errors.ErrCodeInvalidInput, "unknown mode bits %#x", uint8(o.Modes&^ModeAll))
	}
	if o.Modes.Has(ModeEnumerate) {
		o.Modes |= ModeCount
	}
	if err := o.Terrace.Validate(); err != nil {
		return err
	}
	o.validated = true
	return nil
}

// =============================================================================
// Results
// =============================================================================

// Result holds the outputs of one analysis. Fields of modes that were not
// requested are zero.
type Result struct {
	// Modes are the analyses that were run.
	Modes Mode

	// Root is the root species the tree was re-rooted at.
	Root string

	// Constraints are the supertree constraints, with leaf ids equal to
	// matrix rows. Nil when the result came from the cache.
	Constraints []constraint.Constraint

	// Count is the number of unrooted trees on the terrace.
	Count *big.Int

	// OnTerrace reports whether more than one tree shares the terrace.
	OnTerrace bool

	// Compressed is the compressed terrace in extended Newick.
	Compressed string

	Stats     Stats
	CacheInfo CacheInfo
}

// Stats contains analysis statistics.
type Stats struct {
	Species        int
	Partitions     int
	Constraints    int
	ParseTime      time.Duration
	ConstraintTime time.Duration
	AnalysisTime   time.Duration
}

// CacheInfo records whether the result came from the cache.
type CacheInfo struct {
	Hit bool
	Key string
}
