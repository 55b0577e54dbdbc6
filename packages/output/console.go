package output

import (
	"fmt"
	"io"
	"os"
	"sort"
	"strings"

	"github.com/fatih/color"
	"github.com/tidwall/pretty"

	"github.com/abdul-hamid-achik/hitclient/packages/session"
)

// formatValue formats a value for display, truncating or summarizing large values
func formatValue(v any, maxLen int) string {
	switch val := v.(type) {
	case []any:
		return fmt.Sprintf("[array with %d items]", len(val))
	case map[string]any:
		return fmt.Sprintf("{object with %d keys}", len(val))
	}
	str := fmt.Sprintf("%v", v)
	if len(str) > maxLen {
		return str[:maxLen] + "..."
	}
	return str
}

type ConsoleFormatter struct {
	writer  io.Writer
	verbose bool
	noColor bool
	quiet   bool
}

type ConsoleOption func(*ConsoleFormatter)

func NewConsoleFormatter(opts ...ConsoleOption) *ConsoleFormatter {
	f := &ConsoleFormatter{
		writer: os.Stdout,
	}
	for _, opt := range opts {
		opt(f)
	}
	if f.noColor {
		color.NoColor = true
	}
	return f
}

func WithWriter(w io.Writer) ConsoleOption {
	return func(f *ConsoleFormatter) {
		f.writer = w
	}
}

func WithVerbose(v bool) ConsoleOption {
	return func(f *ConsoleFormatter) {
		f.verbose = v
	}
}

func WithNoColor(nc bool) ConsoleOption {
	return func(f *ConsoleFormatter) {
		f.noColor = nc
	}
}

// WithQuiet prints only the response body
func WithQuiet(q bool) ConsoleOption {
	return func(f *ConsoleFormatter) {
		f.quiet = q
	}
}

func (f *ConsoleFormatter) FormatExchange(e *Exchange) {
	red := color.New(color.FgRed).SprintFunc()
	cyan := color.New(color.FgCyan).SprintFunc()
	bold := color.New(color.Bold).SprintFunc()
	dim := color.New(color.Faint).SprintFunc()

	if f.quiet {
		if e.Response != nil {
			f.writeBody(e.Response)
		} else if e.Err != nil {
			f.FormatError(e.Err)
		}
		return
	}

	fmt.Fprintf(f.writer, "%s %s\n", bold(e.Method), e.URL)

	if f.verbose {
		for _, k := range sortedKeys(e.Headers) {
			fmt.Fprintf(f.writer, "  %s %s: %s\n", dim(">"), k, e.Headers[k])
		}
		for _, field := range e.Fields {
			fmt.Fprintf(f.writer, "  %s %s=%s\n", dim(">"), field.Name, formatValue(fieldSummary(field), 80))
		}
	}

	if e.Err != nil {
		fmt.Fprintf(f.writer, "  %s %s\n", red("x"), red(describeError(e.Err)))
		return
	}
	if e.Response == nil {
		return
	}

	resp := e.Response
	fmt.Fprintf(f.writer, "  %s %s\n", statusColor(resp.StatusCode)(resp.Status), cyan(fmt.Sprintf("(%dms)", resp.DurationMs())))

	if f.verbose {
		for _, k := range sortedKeys(resp.Headers) {
			fmt.Fprintf(f.writer, "  %s %s: %s\n", dim("<"), k, resp.Headers[k])
		}
	}

	if e.SchemaErr != nil {
		fmt.Fprintf(f.writer, "  %s %v\n", red("✗"), e.SchemaErr)
	}

	if len(e.Captures) > 0 {
		fmt.Fprintf(f.writer, "  Captures:\n")
		for _, name := range sortedKeys(e.Captures) {
			fmt.Fprintf(f.writer, "    %s = %s\n", name, formatValue(e.Captures[name], 100))
		}
	}

	fmt.Fprintln(f.writer)
	f.writeBody(resp)
}

func (f *ConsoleFormatter) writeBody(resp *session.Response) {
	if len(resp.Body) == 0 {
		return
	}

	body := resp.Body
	if resp.IsJSON() {
		body = pretty.Pretty(body)
		if !color.NoColor {
			body = pretty.Color(body, nil)
		}
	}

	_, _ = f.writer.Write(body)
	if !strings.HasSuffix(string(body), "\n") {
		fmt.Fprintln(f.writer)
	}
}

func (f *ConsoleFormatter) FormatError(err error) {
	red := color.New(color.FgRed).SprintFunc()
	fmt.Fprintf(f.writer, "%s %s\n", red("Error:"), describeError(err))
}

func (f *ConsoleFormatter) FormatHeader(version string) {
	bold := color.New(color.Bold).SprintFunc()
	fmt.Fprintf(f.writer, "%s %s\n", bold("hitclient"), version)
}

// describeError makes sure the session error message is shown
func describeError(err error) string {
	kind := session.KindOf(err)
	if kind == session.ErrNone {
		return err.Error()
	}
	msg := err.Error()
	if strings.Contains(msg, kind.String()) {
		return msg
	}
	return fmt.Sprintf("%s (%s)", kind, msg)
}

func statusColor(code int) func(a ...any) string {
	switch {
	case code >= 400:
		return color.New(color.FgRed, color.Bold).SprintFunc()
	case code >= 300:
		return color.New(color.FgYellow, color.Bold).SprintFunc()
	default:
		return color.New(color.FgGreen, color.Bold).SprintFunc()
	}
}

func sortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
