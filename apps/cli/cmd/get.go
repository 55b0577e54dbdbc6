package cmd

import (
	nethttp "net/http"

	"github.com/spf13/cobra"

	"github.com/abdul-hamid-achik/hitclient/packages/http"
	"github.com/abdul-hamid-achik/hitclient/packages/session"
)

var getFlags requestFlags

var getCmd = &cobra.Command{
	Use:   "get <url> | <path> | <host[:port]> <path>",
	Short: "Send a GET request",
	Long: `Send a GET request and print the response.

With only a path the host and port come from the config file
(localhost:8000 by default).

Examples:
  hitclient get /
  hitclient get localhost:8000 /
  hitclient get http://localhost:8000/users/1 --capture id=id
  hitclient get api.example.com:443 /status --secure -H "Authorization: Bearer {{token}}"`,
	Args: cobra.RangeArgs(1, 2),
	RunE: getCommand,
}

func init() {
	getFlags.register(getCmd)
}

func getCommand(cmd *cobra.Command, args []string) error {
	return exchange(cmd, nethttp.MethodGet, args, &getFlags, nil,
		func(conn *http.Connection, path string, flags session.Flag, headers map[string]string) (*http.Reader, error) {
			return configure(conn.Get(path), &getFlags, flags, headers).Send()
		})
}
