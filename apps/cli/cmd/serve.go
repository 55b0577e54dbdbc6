package cmd

import (
	"context"
	"fmt"
	nethttp "net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/abdul-hamid-achik/hitclient/packages/mock"
)

var (
	servePortFlag   int
	serveRoutesFlag string
	serveWatchFlag  bool
	serveDelayFlag  time.Duration
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start a stub server to send requests against",
	Long: `Start a stub HTTP server. Routes come from a YAML routes file or, without
one, a built-in pair:

  GET  /                    200 Welcome to hitclient
  POST /api/forgotpassword  200 {"sent":true}

Routes file format:

  routes:
    - method: GET
      path: /users/{{id}}
      status: 200
      contentType: application/json
      body: '{"id":"{{id}}"}'

Examples:
  hitclient serve
  hitclient serve --port 3000 --routes routes.yaml --watch
  hitclient serve --delay 100ms`,
	Args: cobra.NoArgs,
	RunE: serveCommand,
}

func init() {
	serveCmd.Flags().IntVarP(&servePortFlag, "port", "p", getEnvInt("HITCLIENT_PORT", 8000), "Port to listen on (env: HITCLIENT_PORT)")
	serveCmd.Flags().StringVar(&serveRoutesFlag, "routes", "", "YAML routes file")
	serveCmd.Flags().BoolVarP(&serveWatchFlag, "watch", "w", false, "Reload the routes file when it changes")
	serveCmd.Flags().DurationVarP(&serveDelayFlag, "delay", "d", 0, "Delay added to every response (e.g. 100ms)")
}

func serveCommand(cmd *cobra.Command, args []string) error {
	if serveWatchFlag && serveRoutesFlag == "" {
		return withExitCode(ExitUsageError, fmt.Errorf("--watch requires --routes"))
	}

	server := mock.NewServer(
		mock.WithPort(servePortFlag),
		mock.WithDelay(serveDelayFlag),
		mock.WithLogger(app.logger.With().Str("component", "serve").Logger()),
	)

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	switch {
	case serveWatchFlag:
		if err := server.Watch(ctx, serveRoutesFlag); err != nil {
			return withExitCode(ExitConfigError, err)
		}
	case serveRoutesFlag != "":
		if err := server.LoadFile(serveRoutesFlag); err != nil {
			return withExitCode(ExitConfigError, err)
		}
	default:
		defaultRoutes(server)
	}

	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "Serving %d routes on http://localhost:%d\n", len(server.GetRoutes()), servePortFlag)
	if app.config.GetVerbose() {
		for _, route := range server.GetRoutes() {
			fmt.Fprintf(out, "  %s\n", route.Summary())
		}
	}

	return server.StartWithContext(ctx)
}

func defaultRoutes(server *mock.Server) {
	server.Handle(nethttp.MethodGet, "/", nethttp.StatusOK, "Welcome to hitclient\n")
	server.Handle(nethttp.MethodPost, "/api/forgotpassword", nethttp.StatusOK, `{"sent":true}`).
		Response.ContentType = "application/json"
}
