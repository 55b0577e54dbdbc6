package cmd

import (
	"cmp"
	"encoding/json"
	"fmt"
	"io"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/abdul-hamid-achik/hitclient/packages/history"
)

var (
	historyDBFlag    string
	historyLimitFlag int
	historyQueryFlag string
	historyClearFlag bool
)

var historyCmd = &cobra.Command{
	Use:   "history",
	Short: "Show recorded exchanges",
	Long: `Show exchanges recorded by get and post when a history database is set
with --history, HITCLIENT_HISTORY or historyDB in the config file.

Examples:
  hitclient history --db sqlite://history.db
  hitclient history --limit 5 --json
  hitclient history --query "SELECT status, COUNT(*) AS n FROM exchanges GROUP BY status"
  hitclient history --clear`,
	Args: cobra.NoArgs,
	RunE: historyCommand,
}

func init() {
	historyCmd.Flags().StringVar(&historyDBFlag, "db", getEnvString("HITCLIENT_HISTORY", ""), "History database (env: HITCLIENT_HISTORY)")
	historyCmd.Flags().IntVarP(&historyLimitFlag, "limit", "l", 20, "Number of exchanges to show, newest first")
	historyCmd.Flags().StringVar(&historyQueryFlag, "query", "", "Run a read-only SELECT against the exchanges table")
	historyCmd.Flags().BoolVar(&historyClearFlag, "clear", false, "Delete every recorded exchange")
}

func historyCommand(cmd *cobra.Command, args []string) error {
	conn := historyDBFlag
	if conn == "" {
		conn = app.config.HistoryDB
	}
	if conn == "" {
		return withExitCode(ExitConfigError, fmt.Errorf("no history database, set --db, HITCLIENT_HISTORY or historyDB"))
	}

	store, err := history.Open(conn)
	if err != nil {
		return withExitCode(ExitConfigError, err)
	}
	defer store.Close()

	out := cmd.OutOrStdout()

	switch {
	case historyClearFlag:
		if err := store.Clear(); err != nil {
			return err
		}
		fmt.Fprintln(out, "History cleared")
		return nil

	case historyQueryFlag != "":
		result, err := store.Query(historyQueryFlag)
		if err != nil {
			return withExitCode(ExitUsageError, err)
		}
		if jsonFlag {
			return writeJSON(out, result.Rows)
		}
		printQueryResult(out, result)
		return nil
	}

	entries, err := store.List(historyLimitFlag)
	if err != nil {
		return err
	}
	if jsonFlag {
		return writeJSON(out, entries)
	}
	printEntries(out, entries)
	return nil
}

func writeJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func printEntries(w io.Writer, entries []history.Entry) {
	if len(entries) == 0 {
		fmt.Fprintln(w, "No exchanges recorded")
		return
	}

	red := color.New(color.FgRed)
	green := color.New(color.FgGreen)

	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tSENT\tMETHOD\tURL\tSTATUS\tTIME\tBYTES")
	for _, e := range entries {
		status := green.Sprint(e.Status)
		switch {
		case e.Failed():
			status = red.Sprint(cmp.Or(e.ErrorKind, "error"))
		case e.Status >= 400:
			status = red.Sprint(e.Status)
		}
		fmt.Fprintf(tw, "%d\t%s\t%s\t%s\t%s\t%s\t%d/%d\n",
			e.ID,
			e.SentAt.Local().Format(time.DateTime),
			e.Method,
			e.URL,
			status,
			e.Duration.Round(time.Millisecond),
			e.RequestBytes,
			e.ResponseBytes,
		)
	}
	tw.Flush()
}

func printQueryResult(w io.Writer, result *history.QueryResult) {
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, strings.ToUpper(strings.Join(result.Columns, "\t")))
	for _, row := range result.Rows {
		values := make([]string, len(result.Columns))
		for i, col := range result.Columns {
			values[i] = fmt.Sprint(row[col])
		}
		fmt.Fprintln(tw, strings.Join(values, "\t"))
	}
	tw.Flush()
}
