package stress

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/fatih/color"
)

// Reporter handles output for stress tests
type Reporter struct {
	writer     io.Writer
	noColor    bool
	noProgress bool
	verbose    bool

	// Colors
	green  *color.Color
	red    *color.Color
	yellow *color.Color
	cyan   *color.Color
	bold   *color.Color
	dim    *color.Color
}

// ReporterOption configures the reporter
type ReporterOption func(*Reporter)

// WithWriter sets the output writer
func WithWriter(w io.Writer) ReporterOption {
	return func(r *Reporter) {
		r.writer = w
	}
}

// WithNoColor disables colored output
func WithNoColor(noColor bool) ReporterOption {
	return func(r *Reporter) {
		r.noColor = noColor
	}
}

// WithNoProgress disables real-time progress display
func WithNoProgress(noProgress bool) ReporterOption {
	return func(r *Reporter) {
		r.noProgress = noProgress
	}
}

// WithVerbose enables verbose output
func WithVerbose(verbose bool) ReporterOption {
	return func(r *Reporter) {
		r.verbose = verbose
	}
}

// NewReporter creates a new reporter
func NewReporter(opts ...ReporterOption) *Reporter {
	r := &Reporter{
		writer: os.Stdout,
	}

	for _, opt := range opts {
		opt(r)
	}

	if r.noColor {
		color.NoColor = true
	}
	r.green = color.New(color.FgGreen)
	r.red = color.New(color.FgRed)
	r.yellow = color.New(color.FgYellow)
	r.cyan = color.New(color.FgCyan)
	r.bold = color.New(color.Bold)
	r.dim = color.New(color.Faint)

	return r
}

// Header prints the test header
func (r *Reporter) Header(target string, config *Config) {
	fmt.Fprintln(r.writer)
	r.bold.Fprintf(r.writer, "hitclient stress (%s mode)\n", config.Mode)
	fmt.Fprintln(r.writer)

	r.cyan.Fprintf(r.writer, "Stress Testing: %s\n", target)

	var details []string
	if config.Mode == RateMode {
		details = append(details, fmt.Sprintf("Target: %.0f req/s", config.Rate))
	} else if config.ThinkTime > 0 {
		details = append(details, fmt.Sprintf("Think: %s", config.ThinkTime))
	}
	if config.Duration > 0 {
		details = append(details, fmt.Sprintf("Duration: %s", config.Duration))
	}
	if config.Requests > 0 {
		details = append(details, fmt.Sprintf("Requests: %s", formatNumber(config.Requests)))
	}
	details = append(details, fmt.Sprintf("Workers: %d", config.Workers))
	if config.RampUp > 0 {
		details = append(details, fmt.Sprintf("Ramp-up: %s", config.RampUp))
	}

	fmt.Fprintf(r.writer, "%s\n", strings.Join(details, " | "))
	fmt.Fprintln(r.writer)
}

// Progress prints real-time progress
func (r *Reporter) Progress(stats CurrentStats, duration time.Duration) {
	if r.noProgress {
		return
	}

	// Clear line and print progress
	fmt.Fprint(r.writer, "\r\033[K")

	if duration > 0 {
		progress := float64(stats.Elapsed) / float64(duration)
		if progress > 1 {
			progress = 1
		}
		barWidth := 30
		filled := int(progress * float64(barWidth))
		bar := strings.Repeat("━", filled) + strings.Repeat("─", barWidth-filled)

		fmt.Fprintf(r.writer, "Progress %s %s / %s\n", bar, formatDuration(stats.Elapsed), formatDuration(duration))
	} else {
		fmt.Fprintf(r.writer, "Elapsed %s\n", formatDuration(stats.Elapsed))
	}

	// Stats line
	fmt.Fprintf(r.writer, "Requests: ")
	r.bold.Fprintf(r.writer, "%s", formatNumber(stats.Total))
	fmt.Fprintf(r.writer, " total | ")
	r.green.Fprintf(r.writer, "%s", formatNumber(stats.Success))
	fmt.Fprintf(r.writer, " success | ")
	if stats.Errors > 0 {
		r.red.Fprintf(r.writer, "%s", formatNumber(stats.Errors))
	} else {
		fmt.Fprintf(r.writer, "%s", formatNumber(stats.Errors))
	}
	fmt.Fprintf(r.writer, " errors (%.2f%%)\n", stats.ErrorRate*100)

	fmt.Fprintf(r.writer, "Rate: ")
	r.cyan.Fprintf(r.writer, "%.1f", stats.RPS)
	fmt.Fprintf(r.writer, " req/s | Active workers: %d\n", stats.ActiveWorkers)

	fmt.Fprintf(r.writer, "Latency: p50: %s | p95: %s | p99: %s | max: %s\n",
		formatLatency(stats.P50),
		formatLatency(stats.P95),
		formatLatency(stats.P99),
		formatLatency(stats.Max))

	// Move cursor up for next update
	fmt.Fprint(r.writer, "\033[4A")
}

// ClearProgress clears the progress display
func (r *Reporter) ClearProgress() {
	if r.noProgress {
		return
	}
	// Move down and clear the progress lines
	fmt.Fprint(r.writer, "\033[4B\r\033[K\033[A\r\033[K\033[A\r\033[K\033[A\r\033[K")
}

// Summary prints the final summary
func (r *Reporter) Summary(summary *Summary, thresholdResults []ThresholdResult) {
	fmt.Fprintln(r.writer)
	r.bold.Fprintln(r.writer, "STRESS TEST SUMMARY")
	fmt.Fprintln(r.writer, strings.Repeat("─", 40))

	// Duration and totals
	fmt.Fprintf(r.writer, "Duration:   %s\n", formatDuration(summary.Duration))
	fmt.Fprintf(r.writer, "Total:      ")
	r.bold.Fprintf(r.writer, "%s", formatNumber(summary.TotalRequests))
	fmt.Fprintf(r.writer, " requests (%.1f req/s)\n", summary.RPS)

	fmt.Fprintf(r.writer, "Success:    ")
	r.green.Fprintf(r.writer, "%s", formatNumber(summary.SuccessCount))
	fmt.Fprintf(r.writer, " (%.1f%%)\n", summary.SuccessRate*100)

	fmt.Fprintf(r.writer, "Failed:     ")
	if summary.ErrorCount > 0 {
		r.red.Fprintf(r.writer, "%s", formatNumber(summary.ErrorCount))
	} else {
		fmt.Fprintf(r.writer, "%s", formatNumber(summary.ErrorCount))
	}
	fmt.Fprintf(r.writer, " (%.1f%%)\n", summary.ErrorRate*100)

	if len(summary.StatusCodes) > 0 {
		fmt.Fprintln(r.writer)
		r.bold.Fprintln(r.writer, "STATUS CODES")
		for _, code := range sortedCodes(summary.StatusCodes) {
			c := r.green
			if code >= 400 {
				c = r.red
			} else if code >= 300 {
				c = r.yellow
			}
			c.Fprintf(r.writer, "  %d", code)
			fmt.Fprintf(r.writer, ": %s\n", formatNumber(summary.StatusCodes[code]))
		}
	}

	if len(summary.ErrorKinds) > 0 {
		fmt.Fprintln(r.writer)
		r.bold.Fprintln(r.writer, "ERRORS")
		for _, kind := range sortedKeys(summary.ErrorKinds) {
			r.red.Fprintf(r.writer, "  %s", kind)
			fmt.Fprintf(r.writer, ": %s\n", formatNumber(summary.ErrorKinds[kind]))
		}
	}

	// Latency
	fmt.Fprintln(r.writer)
	r.bold.Fprintln(r.writer, "LATENCY (ms)")
	fmt.Fprintf(r.writer, "  p50: %-6s | p95: %-6s | p99: %-6s | max: %s\n",
		formatLatencyMs(summary.P50),
		formatLatencyMs(summary.P95),
		formatLatencyMs(summary.P99),
		formatLatencyMs(summary.Max))
	fmt.Fprintf(r.writer, "  min: %-6s | mean: %-5s | stddev: %s\n",
		formatLatencyMs(summary.Min),
		formatLatencyMs(summary.Mean),
		formatLatencyMs(summary.StdDev))

	// Per-request breakdown (if verbose)
	if r.verbose && len(summary.RequestBreakdown) > 0 {
		fmt.Fprintln(r.writer)
		r.bold.Fprintln(r.writer, "PER-TARGET BREAKDOWN")
		for _, name := range sortedKeys(summary.RequestBreakdown) {
			rs := summary.RequestBreakdown[name]
			fmt.Fprintf(r.writer, "  %s:\n", name)
			fmt.Fprintf(r.writer, "    Total: %s | Success: %s | Errors: %s\n",
				formatNumber(rs.Total), formatNumber(rs.Success), formatNumber(rs.Errors))
			fmt.Fprintf(r.writer, "    p50: %s | p95: %s | p99: %s\n",
				formatLatency(rs.P50), formatLatency(rs.P95), formatLatency(rs.P99))
		}
	}

	// Thresholds
	if len(thresholdResults) > 0 {
		fmt.Fprintln(r.writer)
		r.bold.Fprintln(r.writer, "THRESHOLDS")
		allPassed := true
		for _, tr := range thresholdResults {
			if tr.Passed {
				r.green.Fprintf(r.writer, "  ✓ ")
			} else {
				r.red.Fprintf(r.writer, "  ✗ ")
				allPassed = false
			}
			fmt.Fprintf(r.writer, "%s %s    (actual: %s)\n", tr.Name, tr.Expected, tr.Actual)
		}

		fmt.Fprintln(r.writer)
		if allPassed {
			r.green.Fprintln(r.writer, "All thresholds passed!")
		} else {
			r.red.Fprintln(r.writer, "Some thresholds failed!")
		}
	}

	fmt.Fprintln(r.writer)
}

// JSONReport is the machine-readable form of a run
type JSONReport struct {
	Duration        string                      `json:"duration"`
	Requests        JSONRequests                `json:"requests"`
	Rates           JSONRates                   `json:"rates"`
	Latency         JSONLatency                 `json:"latency"`
	StatusCodes     map[string]int64            `json:"statusCodes,omitempty"`
	Errors          map[string]int64            `json:"errors,omitempty"`
	Thresholds      []ThresholdResult           `json:"thresholds,omitempty"`
	TargetBreakdown map[string]JSONTargetReport `json:"targetBreakdown,omitempty"`
}

type JSONRequests struct {
	Total   int64 `json:"total"`
	Success int64 `json:"success"`
	Failed  int64 `json:"failed"`
}

type JSONRates struct {
	RPS         float64 `json:"rps"`
	SuccessRate float64 `json:"successRate"`
	ErrorRate   float64 `json:"errorRate"`
}

// JSONLatency holds latencies in milliseconds
type JSONLatency struct {
	P50    int64 `json:"p50"`
	P95    int64 `json:"p95"`
	P99    int64 `json:"p99"`
	Min    int64 `json:"min"`
	Max    int64 `json:"max"`
	Mean   int64 `json:"mean"`
	StdDev int64 `json:"stddev"`
}

type JSONTargetReport struct {
	Total   int64 `json:"total"`
	Success int64 `json:"success"`
	Errors  int64 `json:"errors"`
	P50     int64 `json:"p50"`
	P95     int64 `json:"p95"`
	P99     int64 `json:"p99"`
	Mean    int64 `json:"mean"`
}

// NewJSONReport converts a summary and its threshold results
func NewJSONReport(summary *Summary, thresholdResults []ThresholdResult) *JSONReport {
	report := &JSONReport{
		Duration: summary.Duration.String(),
		Requests: JSONRequests{
			Total:   summary.TotalRequests,
			Success: summary.SuccessCount,
			Failed:  summary.ErrorCount,
		},
		Rates: JSONRates{
			RPS:         summary.RPS,
			SuccessRate: summary.SuccessRate,
			ErrorRate:   summary.ErrorRate,
		},
		Latency: JSONLatency{
			P50:    summary.P50.Milliseconds(),
			P95:    summary.P95.Milliseconds(),
			P99:    summary.P99.Milliseconds(),
			Min:    summary.Min.Milliseconds(),
			Max:    summary.Max.Milliseconds(),
			Mean:   summary.Mean.Milliseconds(),
			StdDev: summary.StdDev.Milliseconds(),
		},
		Errors:     summary.ErrorKinds,
		Thresholds: thresholdResults,
	}

	if len(summary.StatusCodes) > 0 {
		report.StatusCodes = make(map[string]int64, len(summary.StatusCodes))
		for code, n := range summary.StatusCodes {
			report.StatusCodes[strconv.Itoa(code)] = n
		}
	}

	if len(summary.RequestBreakdown) > 0 {
		report.TargetBreakdown = make(map[string]JSONTargetReport, len(summary.RequestBreakdown))
		for name, rs := range summary.RequestBreakdown {
			report.TargetBreakdown[name] = JSONTargetReport{
				Total:   rs.Total,
				Success: rs.Success,
				Errors:  rs.Errors,
				P50:     rs.P50.Milliseconds(),
				P95:     rs.P95.Milliseconds(),
				P99:     rs.P99.Milliseconds(),
				Mean:    rs.Mean.Milliseconds(),
			}
		}
	}

	return report
}

// JSONSummary writes the summary as indented JSON
func (r *Reporter) JSONSummary(summary *Summary, thresholdResults []ThresholdResult) error {
	encoder := json.NewEncoder(r.writer)
	encoder.SetIndent("", "  ")
	return encoder.Encode(NewJSONReport(summary, thresholdResults))
}

// formatDuration formats a duration for display
func formatDuration(d time.Duration) string {
	if d < time.Second {
		return fmt.Sprintf("%dms", d.Milliseconds())
	}
	if d < time.Minute {
		return fmt.Sprintf("%.1fs", d.Seconds())
	}
	minutes := int(d.Minutes())
	seconds := int(d.Seconds()) % 60
	if seconds == 0 {
		return fmt.Sprintf("%dm", minutes)
	}
	return fmt.Sprintf("%dm %02ds", minutes, seconds)
}

// formatLatency formats latency for display
func formatLatency(d time.Duration) string {
	if d < time.Millisecond {
		return fmt.Sprintf("%dμs", d.Microseconds())
	}
	if d < time.Second {
		return fmt.Sprintf("%dms", d.Milliseconds())
	}
	return fmt.Sprintf("%.1fs", d.Seconds())
}

// formatLatencyMs formats latency in milliseconds
func formatLatencyMs(d time.Duration) string {
	ms := float64(d.Microseconds()) / 1000
	if ms < 1 {
		return fmt.Sprintf("%.2f", ms)
	}
	if ms < 10 {
		return fmt.Sprintf("%.1f", ms)
	}
	return fmt.Sprintf("%.0f", ms)
}

// formatNumber formats a number with commas
func formatNumber(n int64) string {
	if n < 1000 {
		return fmt.Sprintf("%d", n)
	}

	s := fmt.Sprintf("%d", n)
	result := make([]byte, 0, len(s)+(len(s)-1)/3)

	start := len(s) % 3
	if start == 0 {
		start = 3
	}

	result = append(result, s[:start]...)
	for i := start; i < len(s); i += 3 {
		result = append(result, ',')
		result = append(result, s[i:i+3]...)
	}

	return string(result)
}

func sortedCodes(m map[int]int64) []int {
	codes := make([]int, 0, len(m))
	for code := range m {
		codes = append(codes, code)
	}
	sort.Ints(codes)
	return codes
}

func sortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
