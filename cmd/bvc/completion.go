package main

import (
	"fmt"
	"io"
	"os"

	"github.com/obentoo/bvc/internal/common/logger"
	"github.com/spf13/cobra"
)

var completionCmd = &cobra.Command{
	Use:   "completion [bash|zsh|fish|powershell]",
	Short: "Generate shell completion scripts",
	Long: `Print a completion script for bvc on stdout. Besides commands and
flags, it completes the --index kinds and the --sorting modes.

  bash        source <(bvc completion bash)
  zsh         bvc completion zsh > "${fpath[1]}/_bvc"
  fish        bvc completion fish > ~/.config/fish/completions/bvc.fish
  powershell  bvc completion powershell | Out-String | Invoke-Expression`,
	DisableFlagsInUseLine: true,
	ValidArgs:             []string{"bash", "zsh", "fish", "powershell"},
	Args:                  cobra.MatchAll(cobra.ExactArgs(1), cobra.OnlyValidArgs),
	Run: func(cmd *cobra.Command, args []string) {
		if err := writeCompletion(cmd.OutOrStdout(), args[0]); err != nil {
			logger.Error("generating %s completion: %v", args[0], err)
			os.Exit(1)
		}
	},
}

func init() {
	rootCmd.AddCommand(completionCmd)
}

// writeCompletion writes the completion script of shell to out
func writeCompletion(out io.Writer, shell string) error {
	switch shell {
	case "bash":
		return rootCmd.GenBashCompletionV2(out, true)
	case "zsh":
		return rootCmd.GenZshCompletion(out)
	case "fish":
		return rootCmd.GenFishCompletion(out, true)
	case "powershell":
		return rootCmd.GenPowerShellCompletionWithDesc(out)
	}
	return fmt.Errorf("unsupported shell %q", shell)
}
