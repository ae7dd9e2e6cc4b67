package main

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"
)

var completionShells = map[string]func(w io.Writer) error{
	"bash":       rootCmd.GenBashCompletion,
	"zsh":        rootCmd.GenZshCompletion,
	"fish":       func(w io.Writer) error { return rootCmd.GenFishCompletion(w, true) },
	"powershell": rootCmd.GenPowerShellCompletion,
}

var completionCmd = &cobra.Command{
	Use:   "completion [bash|zsh|fish|powershell]",
	Short: "Print a shell completion script",
	Long: `Print a completion script for intellimap to stdout.

  $ source <(intellimap completion bash)
  $ intellimap completion zsh > "${fpath[1]}/_intellimap"
  $ intellimap completion fish | source
  PS> intellimap completion powershell | Out-String | Invoke-Expression
`,
	ValidArgs: []string{"bash", "zsh", "fish", "powershell"},
	Args:      cobra.MatchAll(cobra.ExactArgs(1), cobra.OnlyValidArgs),
	RunE: func(cmd *cobra.Command, args []string) error {
		gen, ok := completionShells[args[0]]
		if !ok {
			return fmt.Errorf("unsupported shell %q", args[0])
		}
		return gen(cmd.OutOrStdout())
	},
}

func init() {
	rootCmd.CompletionOptions.DisableDefaultCmd = true
	rootCmd.AddCommand(completionCmd)
}
