package cli

import (
	"strings"

	"github.com/spf13/cobra"

	"github.com/matzehuels/terraces/pkg/leafset"
	"github.com/matzehuels/terraces/pkg/pipeline"
	"github.com/matzehuels/terraces/pkg/render"
)

// completionCommand creates the completion command for generating shell completions.
func (c *CLI) completionCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "completion [bash|zsh|fish|powershell]",
		Short: "Generate shell completion scripts",
		Long: `Generate shell completion scripts for terraces.

Bash:
  $ source <(terraces completion bash)

Zsh:
  $ terraces completion zsh > "${fpath[1]}/_terraces"

Fish:
  $ terraces completion fish | source

PowerShell:
  PS> terraces completion powershell | Out-String | Invoke-Expression
`,
		DisableFlagsInUseLine: true,
		ValidArgs:             []string{"bash", "zsh", "fish", "powershell"},
		Args:                  cobra.MatchAll(cobra.ExactArgs(1), cobra.OnlyValidArgs),
		RunE: func(cmd *cobra.Command, args []string) error {
			out := cmd.OutOrStdout()
			switch args[0] {
			case "bash":
				return cmd.Root().GenBashCompletion(out)
			case "zsh":
				return cmd.Root().GenZshCompletion(out)
			case "fish":
				return cmd.Root().GenFishCompletion(out, true)
			case "powershell":
				return cmd.Root().GenPowerShellCompletionWithDesc(out)
			}
			return nil
		},
	}

	return cmd
}

// completeModes completes the last element of a comma-separated mode list.
func completeModes(cmd *cobra.Command, args []string, toComplete string) ([]string, cobra.ShellCompDirective) {
	prefix := ""
	if i := strings.LastIndex(toComplete, ","); i >= 0 {
		prefix = toComplete[:i+1]
	}
	var out []string
	for _, name := range pipeline.ModeAll.Names() {
		if !strings.Contains(prefix, name) {
			out = append(out, prefix+name)
		}
	}
	return out, cobra.ShellCompDirectiveNoSpace
}

func completeStrategies(*cobra.Command, []string, string) ([]string, cobra.ShellCompDirective) {
	return []string{
		string(leafset.StrategyAuto),
		string(leafset.StrategyBitset),
		string(leafset.StrategyUnionFind),
	}, cobra.ShellCompDirectiveNoFileComp
}

func completeFormats(*cobra.Command, []string, string) ([]string, cobra.ShellCompDirective) {
	return []string{render.FormatSVG, render.FormatDOT, render.FormatPDF, render.FormatPNG}, cobra.ShellCompDirectiveNoFileComp
}
