package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var (
	version   = "dev"
	buildTime = "unknown"
)

var (
	configFlag   string
	envFileFlag  []string
	logLevelFlag string
	noColorFlag  bool
	verboseFlag  bool
	jsonFlag     bool
)

var rootCmd = &cobra.Command{
	Use:   "hitclient",
	Short: "Session-based HTTP client with multipart forms.",
	Long: `hitclient opens an HTTP session, connects it to a server and sends
GET requests or multipart/form-data POST requests built from the command line.

It also ships a stub server to test against, a stress runner and a local
history of every exchange.`,
	SilenceUsage:      true,
	SilenceErrors:     true,
	PersistentPreRunE: loadSettings,
}

func Execute(v, bt string) {
	version = v
	buildTime = bt
	if err := rootCmd.Execute(); err != nil {
		if !isReported(err) {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		}
		os.Exit(exitCode(err))
	}
}

func init() {
	rootCmd.PersistentFlags().StringVar(&configFlag, "config", getEnvString("HITCLIENT_CONFIG", ""), "Path to config file (env: HITCLIENT_CONFIG)")
	rootCmd.PersistentFlags().StringArrayVar(&envFileFlag, "env-file", nil, "Path to .env file for variable interpolation, repeatable (default: .env, .env.local)")
	rootCmd.PersistentFlags().StringVar(&logLevelFlag, "log-level", getEnvString("HITCLIENT_LOG_LEVEL", ""), "Log level: debug, info, warn, error (env: HITCLIENT_LOG_LEVEL)")
	rootCmd.PersistentFlags().BoolVar(&noColorFlag, "no-color", getEnvBool("HITCLIENT_NO_COLOR", false), "Disable colored output (env: HITCLIENT_NO_COLOR)")
	rootCmd.PersistentFlags().BoolVarP(&verboseFlag, "verbose", "v", false, "Verbose output")
	rootCmd.PersistentFlags().BoolVar(&jsonFlag, "json", false, "Output as JSON")

	rootCmd.AddCommand(getCmd)
	rootCmd.AddCommand(postCmd)
	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(stressCmd)
	rootCmd.AddCommand(historyCmd)
	rootCmd.AddCommand(initCmd)
	rootCmd.AddCommand(versionCmd)
}
