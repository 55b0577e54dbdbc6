package cmd

import (
	"fmt"
	"runtime"

	"github.com/spf13/cobra"

	"github.com/abdul-hamid-achik/hitclient/packages/session"
)

type versionInfo struct {
	Version   string `json:"version"`
	Built     string `json:"built"`
	Go        string `json:"go"`
	Platform  string `json:"platform"`
	UserAgent string `json:"userAgent"`
	Protocol  string `json:"protocol"`
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print version, build and session defaults",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		info := versionInfo{
			Version:   version,
			Built:     buildTime,
			Go:        runtime.Version(),
			Platform:  runtime.GOOS + "/" + runtime.GOARCH,
			UserAgent: app.config.UserAgent,
			Protocol:  session.SupportedVersion,
		}
		if jsonFlag {
			return writeJSON(cmd.OutOrStdout(), info)
		}

		w := cmd.OutOrStdout()
		fmt.Fprintf(w, "hitclient %s (%s, %s)\n", info.Version, info.Go, info.Platform)
		fmt.Fprintf(w, "Built:      %s\n", info.Built)
		fmt.Fprintf(w, "User-Agent: %s\n", info.UserAgent)
		fmt.Fprintf(w, "Protocol:   %s\n", info.Protocol)
		return nil
	},
}
