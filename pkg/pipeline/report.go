package pipeline

import (
	tio "github.com/matzehuels/terraces/pkg/io"
)

// Report converts the result into its serializable form. Results of modes
// that were not run are omitted.
func (r *Result) Report() tio.Report {
	rep := tio.Report{
		Root:        r.Root,
		Species:     r.Stats.Species,
		Partitions:  r.Stats.Partitions,
		Constraints: r.Stats.Constraints,
	}
	if r.Modes.Has(ModeCount) {
		rep.Count = r.Count
	}
	if r.Modes.Has(ModeDetect) {
		on := r.OnTerrace
		rep.OnTerrace = &on
	}
	if r.Modes.Has(ModeCompress) {
		rep.Compressed = r.Compressed
	}
	return rep
}

// FromReport rebuilds a result from a report produced for modes.
func FromReport(rep tio.Report, modes Mode) *Result {
	res := &Result{
		Modes:      modes,
		Root:       rep.Root,
		Count:      rep.Count,
		Compressed: rep.Compressed,
		Stats: Stats{
			Species:     rep.Species,
			Partitions:  rep.Partitions,
			Constraints: rep.Constraints,
		},
	}
	if rep.OnTerrace != nil {
		res.OnTerrace = *rep.OnTerrace
	}
	return res
}
