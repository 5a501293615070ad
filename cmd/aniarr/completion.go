package main

import (
	"os"

	"github.com/spf13/cobra"
)

var completionCmd = &cobra.Command{
	Use:   "completion [bash|zsh|fish|powershell]",
	Short: "Generate shell completion scripts",
	Long: `Generate shell completion scripts for aniarr.

To load completions:

Bash:
  $ source <(aniarr completion bash)
  # To load completions for each session, execute once:
  # Linux:
  $ aniarr completion bash > /etc/bash_completion.d/aniarr
  # macOS:
  $ aniarr completion bash > $(brew --prefix)/etc/bash_completion.d/aniarr

Zsh:
  $ source <(aniarr completion zsh)
  # To load completions for each session, execute once:
  $ aniarr completion zsh > "${fpath[1]}/_aniarr"

Fish:
  $ aniarr completion fish | source
  # To load completions for each session, execute once:
  $ aniarr completion fish > ~/.config/fish/completions/aniarr.fish

PowerShell:
  PS> aniarr completion powershell | Out-String | Invoke-Expression
  # To load completions for each session, execute once:
  PS> aniarr completion powershell > aniarr.ps1
  # and source this file from your PowerShell profile.
`,
	DisableFlagsInUseLine: true,
	ValidArgs:             []string{"bash", "zsh", "fish", "powershell"},
	Args:                  cobra.MatchAll(cobra.ExactArgs(1), cobra.OnlyValidArgs),
	RunE: func(cmd *cobra.Command, args []string) error {
		switch args[0] {
		case "bash":
			return rootCmd.GenBashCompletion(os.Stdout)
		case "zsh":
			return rootCmd.GenZshCompletion(os.Stdout)
		case "fish":
			return rootCmd.GenFishCompletion(os.Stdout, true)
		case "powershell":
			return rootCmd.GenPowerShellCompletionWithDesc(os.Stdout)
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(completionCmd)
}
