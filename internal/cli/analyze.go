package cli

import (
	"bufio"
	"context"
	stderrors "errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/matzehuels/terraces/pkg/errors"
	tio "github.com/matzehuels/terraces/pkg/io"
	"github.com/matzehuels/terraces/pkg/leafset"
	"github.com/matzehuels/terraces/pkg/pipeline"
	"github.com/matzehuels/terraces/pkg/terrace"
)

// analyzeOpts holds the command-line flags shared by the analysis commands.
type analyzeOpts struct {
	root      string // root species; empty picks the first complete one
	modes     string // analysis modes, comma-separated
	workers   int    // worker pool size
	threshold int    // leaf count above which the recursion fans out
	strategy  string // leaf set backing: auto, bitset, unionfind
	maxTrees  uint64 // enumeration budget
	output    string // file for enumerated trees
	jsonOut   string // file for the JSON report
	noCache   bool
	refresh   bool
}

// analyzeCommand creates the analyze command, which runs any combination of
// modes in one pass.
func (c *CLI) analyzeCommand() *cobra.Command {
	var opts analyzeOpts

	cmd := &cobra.Command{
		Use:   "analyze <tree> <data-file>",
		Short: "Analyse the terrace of a supertree",
		Long: `Analyse the terrace a supertree lies on.

The tree is a binary Newick tree over the species of the data file. The data
file lists, per species, which partitions carry data for it:

  5 2
  1 0 s1
  1 0 s2
  1 1 s3
  0 1 s4
  0 1 s5

Modes are count, enumerate, detect and compress (comma-separated).`,
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			modes, err := pipeline.ParseModes(opts.modes)
			if err != nil {
				return err
			}
			return c.runAnalyze(cmd, args[0], args[1], modes, &opts)
		},
	}

	cmd.Flags().StringVarP(&opts.modes, "modes", "m", "count", "analysis modes: count, enumerate, detect, compress")
	_ = cmd.RegisterFlagCompletionFunc("modes", completeModes)
	addAnalyzeFlags(cmd, &opts)
	return cmd
}

var modeDescriptions = map[pipeline.Mode]string{
	pipeline.ModeCount:     "Count the unrooted trees on the terrace",
	pipeline.ModeEnumerate: "Write every tree on the terrace in Newick format",
	pipeline.ModeDetect:    "Report whether the tree lies on a terrace",
	pipeline.ModeCompress:  "Print the terrace in compressed Newick form",
}

// modeCommand creates a shortcut command running a single mode.
func (c *CLI) modeCommand(m pipeline.Mode) *cobra.Command {
	var opts analyzeOpts

	cmd := &cobra.Command{
		Use:   m.String() + " <tree> <data-file>",
		Short: modeDescriptions[m],
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.runAnalyze(cmd, args[0], args[1], m, &opts)
		},
	}

	addAnalyzeFlags(cmd, &opts)
	return cmd
}

func addAnalyzeFlags(cmd *cobra.Command, opts *analyzeOpts) {
	cmd.Flags().StringVarP(&opts.root, "root", "r", "", "root species (default: first species with data in every partition)")
	cmd.Flags().IntVarP(&opts.workers, "workers", "w", 0, "worker pool size (default: number of CPUs)")
	cmd.Flags().IntVar(&opts.threshold, "threshold", terrace.DefaultParallelThreshold, "leaf count above which work is parallelised")
	cmd.Flags().StringVar(&opts.strategy, "strategy", string(leafset.StrategyAuto), "leaf set backing: auto, bitset, unionfind")
	cmd.Flags().Uint64Var(&opts.maxTrees, "max-trees", 0, "refuse to enumerate terraces with more trees (0: unlimited)")
	cmd.Flags().StringVarP(&opts.output, "output", "o", "", "write enumerated trees to file (default: stdout)")
	cmd.Flags().StringVar(&opts.jsonOut, "json", "", "write a JSON report to file")
	cmd.Flags().BoolVar(&opts.noCache, "no-cache", false, "disable result caching")
	cmd.Flags().BoolVar(&opts.refresh, "refresh", false, "recompute even if a cached result exists")
	_ = cmd.RegisterFlagCompletionFunc("strategy", completeStrategies)
}

// terraceOptions merges the configured engine options with flags the user
// set explicitly.
func (c *CLI) terraceOptions(cmd *cobra.Command, opts *analyzeOpts) terrace.Options {
	to := c.Config.Terrace
	flags := cmd.Flags()
	if flags.Changed("workers") {
		to.Workers = opts.workers
	}
	if flags.Changed("threshold") {
		to.ParallelThreshold = opts.threshold
	}
	if flags.Changed("strategy") {
		to.Strategy = leafset.Strategy(opts.strategy)
	}
	if flags.Changed("max-trees") {
		to.Budget.MaxTrees = opts.maxTrees
	}
	to.Logger = c.Logger
	return to
}

func (c *CLI) runAnalyze(cmd *cobra.Command, treePath, matrixPath string, modes pipeline.Mode, opts *analyzeOpts) error {
	ctx := withLogger(cmd.Context(), c.Logger)

	newick, err := readInput(treePath)
	if err != nil {
		return err
	}
	matrix, err := readInput(matrixPath)
	if err != nil {
		return err
	}

	if opts.refresh && opts.noCache {
		printWarning("--refresh has no effect with --no-cache")
	}

	runner, err := c.newRunner(ctx, opts.noCache)
	if err != nil {
		return err
	}
	defer runner.Close()

	popts := pipeline.Options{
		Newick:  newick,
		Matrix:  matrix,
		Root:    opts.root,
		Modes:   modes,
		Terrace: c.terraceOptions(cmd, opts),
		Refresh: opts.refresh,
	}

	// Trees on stdout leave no room for the summary.
	quiet := false
	closeOut := func() error { return nil }
	if modes.Has(pipeline.ModeEnumerate) {
		var out io.Writer
		if out, closeOut, err = openOutput(opts.output, cmd.OutOrStdout()); err != nil {
			return err
		}
		popts.Sink = terrace.WriterSink(out)
		quiet = opts.output == ""
	}

	res, err := c.execute(ctx, runner, popts, quiet)
	if cerr := closeOut(); err == nil && cerr != nil {
		err = fmt.Errorf("write trees: %w", cerr)
	}
	if err != nil {
		return err
	}

	if opts.jsonOut != "" {
		if err := tio.ExportJSON(res.Report(), opts.jsonOut); err != nil {
			return fmt.Errorf("write report: %w", err)
		}
	}
	if quiet {
		return nil
	}

	printResult(res)
	if opts.output != "" {
		printFile(opts.output)
	}
	if opts.jsonOut != "" {
		printFile(opts.jsonOut)
	}
	return nil
}

// execute runs the pipeline behind a spinner unless output is streamed.
func (c *CLI) execute(ctx context.Context, runner *pipeline.Runner, opts pipeline.Options, quiet bool) (*pipeline.Result, error) {
	if quiet {
		return runner.Execute(ctx, opts)
	}
	spinner := newSpinner(ctx, "Analysing terrace...")
	spinner.Start()
	res, err := runner.Execute(ctx, opts)
	spinner.Stop()
	if err != nil && spinner.Cancelled() {
		return nil, ctx.Err()
	}
	return res, err
}

func printResult(res *pipeline.Result) {
	printSuccess("Analysed terrace rooted at %s", StyleSpecies.Render(res.Root))
	if res.Count != nil {
		printKeyValue("Trees", StyleNumber.Render(res.Count.String()))
	}
	if res.Modes.Has(pipeline.ModeDetect) {
		v := "no"
		if res.OnTerrace {
			v = StyleWarning.Render("yes")
		}
		printKeyValue("On terrace", v)
	}
	if res.Compressed != "" {
		printKeyValue("Compressed", res.Compressed)
	}
	printStats(res.Stats, res.CacheInfo.Hit)
}

// readInput reads a whole input file. "-" reads stdin.
func readInput(path string) (string, error) {
	if path == "-" {
		data, err := io.ReadAll(os.Stdin)
		if err != nil {
			return "", fmt.Errorf("read stdin: %w", err)
		}
		return strings.TrimSpace(string(data)), nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return "", fileError("read", path, err)
	}
	return strings.TrimSpace(string(data)), nil
}

// fileError tags a missing input file with ErrCodeFileNotFound.
func fileError(op, path string, err error) error {
	if stderrors.Is(err, fs.ErrNotExist) {
		return errors.Wrap(errors.ErrCodeFileNotFound, err, "%s %s", op, path)
	}
	return fmt.Errorf("%s %s: %w", op, path, err)
}

// openOutput returns a buffered writer for path, or def when path is empty.
// The returned function flushes and closes it.
func openOutput(path string, def io.Writer) (io.Writer, func() error, error) {
	if path == "" {
		w := bufio.NewWriter(def)
		return w, w.Flush, nil
	}
	f, err := os.Create(path)
	if err != nil {
		return nil, nil, fmt.Errorf("create %s: %w", path, err)
	}
	w := bufio.NewWriter(f)
	return w, func() error {
		if err := w.Flush(); err != nil {
			f.Close()
			return err
		}
		return f.Close()
	}, nil
}
