package cli

import (
	"fmt"
	"os"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"

	tio "github.com/matzehuels/terraces/pkg/io"
	"github.com/matzehuels/terraces/pkg/pipeline"
	"github.com/matzehuels/terraces/pkg/terrace"
)

// defaultBrowseMaxTrees bounds the enumeration behind an interactive browse.
const defaultBrowseMaxTrees = 100_000

// browseCommand creates the browse command, an interactive list of the trees
// on a terrace.
func (c *CLI) browseCommand() *cobra.Command {
	var opts analyzeOpts

	cmd := &cobra.Command{
		Use:   "browse <trees-file> | <tree> <data-file>",
		Short: "Browse the trees on a terrace interactively",
		Long: `Browse the trees on a terrace interactively.

With one argument, the trees are read from a file written by "terraces
enumerate -o". With a tree and a data file, the terrace is enumerated first.
The selected tree is printed to stdout.`,
		Args: cobra.RangeArgs(1, 2),
		RunE: func(cmd *cobra.Command, args []string) error {
			var (
				trees []string
				title string
				err   error
			)
			if len(args) == 1 {
				trees, err = readTreeFile(args[0])
				title = args[0]
			} else {
				trees, title, err = c.enumerate(cmd, args[0], args[1], &opts)
			}
			if err != nil {
				return err
			}

			model := NewTreeListModel(fmt.Sprintf("%s · %d trees", title, len(trees)), trees)
			final, err := tea.NewProgram(model, tea.WithAltScreen(), tea.WithContext(cmd.Context())).Run()
			if err != nil {
				return fmt.Errorf("browse: %w", err)
			}
			if m, ok := final.(TreeListModel); ok && m.Selected != "" {
				fmt.Fprintln(cmd.OutOrStdout(), m.Selected)
			}
			return nil
		},
	}

	addAnalyzeFlags(cmd, &opts)
	return cmd
}

func readTreeFile(path string) ([]string, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fileError("open", path, err)
	}
	defer f.Close()
	trees, err := tio.ReadTrees(f)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", path, err)
	}
	return trees, nil
}

// enumerate collects the trees on the terrace of the given inputs, bounded
// by defaultBrowseMaxTrees unless a budget is configured.
func (c *CLI) enumerate(cmd *cobra.Command, treePath, matrixPath string, opts *analyzeOpts) ([]string, string, error) {
	ctx := withLogger(cmd.Context(), c.Logger)

	newick, err := readInput(treePath)
	if err != nil {
		return nil, "", err
	}
	matrix, err := readInput(matrixPath)
	if err != nil {
		return nil, "", err
	}

	runner, err := c.newRunner(ctx, true)
	if err != nil {
		return nil, "", err
	}
	defer runner.Close()

	topts := c.terraceOptions(cmd, opts)
	if topts.Budget.MaxTrees == 0 {
		topts.Budget.MaxTrees = defaultBrowseMaxTrees
	}

	var trees []string
	spinner := newSpinner(ctx, "Enumerating terrace...")
	spinner.Start()
	res, err := runner.Execute(ctx, pipeline.Options{
		Newick:  newick,
		Matrix:  matrix,
		Root:    opts.root,
		Modes:   pipeline.ModeEnumerate,
		Terrace: topts,
		Sink: terrace.SinkFunc(func(t string) error {
			trees = append(trees, t)
			if len(trees)%1000 == 0 {
				spinner.SetMessage(fmt.Sprintf("Enumerating terrace... %d trees", len(trees)))
			}
			return nil
		}),
	})
	if err != nil {
		spinner.Stop()
		if spinner.Cancelled() {
			return nil, "", ctx.Err()
		}
		return nil, "", err
	}
	spinner.StopWithSuccess("Enumerated %d trees", len(trees))
	return trees, "terrace rooted at " + res.Root, nil
}
