package cmd

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/abdul-hamid-achik/hitclient/packages/core/config"
)

var forceInit bool

var initCmd = &cobra.Command{
	Use:   "init [dir]",
	Short: "Create a config file and a routes file",
	Long: `Create a starter project:

  .hitclient.yaml   client configuration
  routes.yaml       routes for "hitclient serve --routes routes.yaml"

Examples:
  hitclient init
  hitclient init ./demo --force`,
	Args: cobra.MaximumNArgs(1),
	RunE: initCommand,
}

func init() {
	initCmd.Flags().BoolVarP(&forceInit, "force", "f", false, "Overwrite existing files")
}

const exampleRoutes = `routes:
  - name: welcome
    method: GET
    path: /
    body: "Welcome to hitclient\n"

  - name: forgot password
    method: POST
    path: /api/forgotpassword
    contentType: application/json
    body: '{"sent":true}'

  - name: user
    method: GET
    path: /users/{{id}}
    contentType: application/json
    body: '{"id":"{{id}}","name":"Ada"}'
`

func initCommand(cmd *cobra.Command, args []string) error {
	dir := "."
	if len(args) == 1 {
		dir = args[0]
		if err := os.MkdirAll(dir, 0755); err != nil {
			return err
		}
	}

	configFile := filepath.Join(dir, config.ConfigFilenames[0])
	routesFile := filepath.Join(dir, "routes.yaml")

	if !forceInit {
		for _, f := range []string{configFile, routesFile} {
			if _, err := os.Stat(f); err == nil {
				return withExitCode(ExitUsageError, fmt.Errorf("file already exists: %s (use --force to overwrite)", f))
			}
		}
	}

	cfg := config.DefaultConfig()
	cfg.Headers = map[string]string{"Accept": "*/*"}
	cfg.HistoryDB = "sqlite://.hitclient-history.db"
	if err := cfg.SaveConfig(configFile); err != nil {
		return fmt.Errorf("failed to create config file: %w", err)
	}
	fmt.Fprintf(cmd.OutOrStdout(), "Created: %s\n", configFile)

	if err := os.WriteFile(routesFile, []byte(exampleRoutes), 0644); err != nil {
		return fmt.Errorf("failed to create routes file: %w", err)
	}
	fmt.Fprintf(cmd.OutOrStdout(), "Created: %s\n", routesFile)

	fmt.Fprintf(cmd.OutOrStdout(), "\nTry it:\n  hitclient serve --routes routes.yaml &\n  hitclient get /users/42\n")
	return nil
}
