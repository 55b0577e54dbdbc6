package cmd

import (
	"github.com/spf13/cobra"
)

var completionCmd = &cobra.Command{
	Use:   "completion <shell>",
	Short: "Print a shell completion script for hitclient",
	Long: `Print a completion script for bash, zsh, fish or powershell.

Completing "hitclient ge<TAB>" or "hitclient post --fi<TAB>" works once the
script is loaded:

  bash        source <(hitclient completion bash)
  zsh         hitclient completion zsh > "${fpath[1]}/_hitclient"
  fish        hitclient completion fish > ~/.config/fish/completions/hitclient.fish
  powershell  hitclient completion powershell | Out-String | Invoke-Expression
`,
	DisableFlagsInUseLine: true,
	ValidArgs:             []string{"bash", "zsh", "fish", "powershell"},
	Args:                  cobra.MatchAll(cobra.ExactArgs(1), cobra.OnlyValidArgs),
	RunE: func(cmd *cobra.Command, args []string) error {
		root, out := cmd.Root(), cmd.OutOrStdout()
		switch args[0] {
		case "zsh":
			return root.GenZshCompletion(out)
		case "fish":
			return root.GenFishCompletion(out, true)
		case "powershell":
			return root.GenPowerShellCompletionWithDesc(out)
		default:
			return root.GenBashCompletionV2(out, true)
		}
	},
}

func init() {
	rootCmd.AddCommand(completionCmd)
}
