// Package pkg provides the core libraries for terraces, a phylogenetic terrace
// analysis engine.
//
// # Overview
//
// A terrace is the set of unrooted binary trees that induce exactly the same
// subtrees on every partition of a multi-locus dataset with missing data. All
// trees on a terrace score identically, so tree searches that land on one can
// report the whole set instead of a single tree.
//
// The pkg directory is organized by stage:
//
//  1. [missingdata] and [tree] - Inputs (presence matrix, Newick trees)
//  2. [constraint], [unionfind], [leafset] - Constraint extraction and the
//     leaf-set representations the recursion runs on
//  3. [terrace] and [forkjoin] - The counting, enumeration, detection, and
//     compression recursion, optionally fanned out over a worker pool
//  4. [pipeline] - Orchestration (parse → constrain → analyze → cache)
//  5. [io], [render], [cache] - Reports, diagrams, and cached results
//
// # Architecture
//
// The typical data flow:
//
//	Newick tree + presence matrix
//	         ↓
//	    [pipeline.Parse] (root species, rooted tree, partitions)
//	         ↓
//	    [pipeline.ExtractSupertreeConstraints]
//	         ↓
//	    [terrace.Count] / [terrace.FindAll] / [terrace.Detect] / [terrace.Compressed]
//	         ↓
//	    [io.Report], Newick lists, DOT/SVG/PDF/PNG
//
// # Quick Start
//
//	runner := pipeline.NewRunner(cache.NewNullCache(), nil, nil)
//	res, err := runner.Execute(ctx, pipeline.Options{
//	    Newick: "((s1,s2),s3,(s4,s5));",
//	    Matrix: "5 2\n1 0 s1\n1 0 s2\n1 1 s3\n0 1 s4\n0 1 s5\n",
//	    Modes:  pipeline.ModeCount | pipeline.ModeCompress,
//	})
//	fmt.Println(res.Count, res.Compressed)
//
// [missingdata]: https://pkg.go.dev/github.com/matzehuels/terraces/pkg/missingdata
// [tree]: https://pkg.go.dev/github.com/matzehuels/terraces/pkg/tree
// [constraint]: https://pkg.go.dev/github.com/matzehuels/terraces/pkg/constraint
// [unionfind]: https://pkg.go.dev/github.com/matzehuels/terraces/pkg/unionfind
// [leafset]: https://pkg.go.dev/github.com/matzehuels/terraces/pkg/leafset
// [terrace]: https://pkg.go.dev/github.com/matzehuels/terraces/pkg/terrace
// [forkjoin]: https://pkg.go.dev/github.com/matzehuels/terraces/pkg/forkjoin
// [pipeline]: https://pkg.go.dev/github.com/matzehuels/terraces/pkg/pipeline
// [io]: https://pkg.go.dev/github.com/matzehuels/terraces/pkg/io
// [render]: https://pkg.go.dev/github.com/matzehuels/terraces/pkg/render
// [cache]: https://pkg.go.dev/github.com/matzehuels/terraces/pkg/cache
package pkg
