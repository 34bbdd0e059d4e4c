package cli

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/matzehuels/terraces/pkg/pipeline"
	"github.com/matzehuels/terraces/pkg/render"
	"github.com/matzehuels/terraces/pkg/terrace"
	"github.com/matzehuels/terraces/pkg/tree"
)

// renderOpts holds the command-line flags for the render command.
type renderOpts struct {
	output      string   // output file path (or base path for multiple outputs)
	formats     []string // output formats: "dot", "svg", "pdf", "png"
	root        string   // root species
	compressed  bool     // draw the compressed terrace instead of the input tree
	leftToRight bool     // horizontal layout
}

// renderCommand creates the render command for drawing a tree or its
// compressed terrace.
func (c *CLI) renderCommand() *cobra.Command {
	var formatsStr string
	var opts renderOpts

	cmd := &cobra.Command{
		Use:   "render <tree> <data-file>",
		Short: "Draw the rooted tree or its compressed terrace",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			opts.formats = parseFormats(formatsStr)
			if err := validateFormats(opts.formats); err != nil {
				return err
			}
			return c.runRender(withLogger(cmd.Context(), c.Logger), args[0], args[1], &opts)
		},
	}

	cmd.Flags().StringVarP(&opts.output, "output", "o", "", "output file (single format) or base path (multiple)")
	cmd.Flags().StringVarP(&formatsStr, "format", "f", "", "output format(s): svg (default), dot, pdf, png (comma-separated)")
	cmd.Flags().StringVarP(&opts.root, "root", "r", "", "root species (default: first species with data in every partition)")
	cmd.Flags().BoolVar(&opts.compressed, "compressed", false, "draw the compressed terrace")
	cmd.Flags().BoolVar(&opts.leftToRight, "horizontal", false, "lay the tree out left to right")
	_ = cmd.RegisterFlagCompletionFunc("format", completeFormats)

	return cmd
}

// parseFormats parses the --format flag into a slice of output formats.
// If empty, defaults to ["svg"].
func parseFormats(s string) []string {
	if s == "" {
		return []string{render.FormatSVG}
	}
	return strings.Split(s, ",")
}

// validFormats is the set of supported output formats.
var validFormats = map[string]bool{
	render.FormatDOT: true,
	render.FormatSVG: true,
	render.FormatPDF: true,
	render.FormatPNG: true,
}

// validateFormats checks that all requested formats are valid.
func validateFormats(formats []string) error {
	for _, f := range formats {
		if !validFormats[f] {
			return fmt.Errorf("invalid format: %s (must be 'svg', 'dot', 'pdf', or 'png')", f)
		}
	}
	return nil
}

// basePath derives the base output path from the output and input file paths.
// If output is empty, it strips the extension from input.
// If output has a format extension (.svg, .pdf, etc.), it strips that extension.
func basePath(output, input string) string {
	if output == "" {
		return strings.TrimSuffix(input, filepath.Ext(input))
	}
	ext := filepath.Ext(output)
	if validFormats[strings.TrimPrefix(ext, ".")] {
		return strings.TrimSuffix(output, ext)
	}
	return output
}

func (c *CLI) runRender(ctx context.Context, treePath, matrixPath string, opts *renderOpts) error {
	logger := loggerFromContext(ctx)
	prog := newProgress(logger)

	newick, err := readInput(treePath)
	if err != nil {
		return err
	}
	matrix, err := readInput(matrixPath)
	if err != nil {
		return err
	}

	in, err := pipeline.Parse(newick, matrix, opts.root)
	if err != nil {
		return err
	}
	labels := in.Labels()
	prog.lap("Parsed inputs", "species", in.Matrix.Species(), "root", labels.Label(in.Root))

	n := tree.Unroot(in.Root, restOf(in.Tree))
	title := "rooted at " + labels.Label(in.Root)
	if opts.compressed {
		cs := pipeline.ExtractSupertreeConstraints(in.Tree, in.Matrix)
		topts := c.Config.Terrace
		topts.Logger = logger
		if n, err = terrace.Compressed(ctx, in.Leaves(), cs, in.Root, topts); err != nil {
			return err
		}
		title = fmt.Sprintf("terrace of %s trees, %s", tree.CountTrees(n), title)
	}
	prog.lap("Prepared diagram", "title", title)

	ropts := render.Options{LeftToRight: opts.leftToRight, Title: title}
	base := basePath(opts.output, treePath)
	for _, format := range opts.formats {
		path := base + "." + format
		if len(opts.formats) == 1 && opts.output != "" {
			path = opts.output
		}

		data, err := render.Render(ctx, n, labels, format, ropts)
		if err != nil {
			return fmt.Errorf("%s: %w", format, err)
		}
		if err := os.WriteFile(path, data, 0o644); err != nil {
			return fmt.Errorf("write %s: %w", path, err)
		}
		prog.lap("Rendered", "format", format, "bytes", len(data))
		printFile(path)
	}
	return nil
}

// restOf returns the subtree hanging off the root leaf of a rooted input
// tree.
func restOf(t tree.Node) tree.Node {
	if in, ok := t.(*tree.Inner); ok {
		return in.Right
	}
	return t
}
