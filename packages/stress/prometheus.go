package stress

import (
	"bufio"
	"fmt"
	"io"
	"strings"
	"time"
)

// WritePrometheus writes summary in the Prometheus text exposition format,
// suitable for the node exporter's textfile collector. Every sample carries
// the target label.
func WritePrometheus(w io.Writer, target string, summary *Summary) error {
	bw := bufio.NewWriter(w)
	labels := fmt.Sprintf(`target="%s"`, sanitizeLabel(target))

	metric := func(name, kind, help string) {
		fmt.Fprintf(bw, "# HELP hitclient_stress_%s %s\n", name, help)
		fmt.Fprintf(bw, "# TYPE hitclient_stress_%s %s\n", name, kind)
	}

	metric("requests_total", "counter", "Requests sent during the run")
	fmt.Fprintf(bw, "hitclient_stress_requests_total{%s} %d\n", labels, summary.TotalRequests)
	metric("requests_failed_total", "counter", "Requests that failed or answered with a non-2xx status")
	fmt.Fprintf(bw, "hitclient_stress_requests_failed_total{%s} %d\n", labels, summary.ErrorCount)

	metric("requests_per_second", "gauge", "Average throughput")
	fmt.Fprintf(bw, "hitclient_stress_requests_per_second{%s} %.2f\n", labels, summary.RPS)

	metric("duration_seconds", "gauge", "Wall time of the run")
	fmt.Fprintf(bw, "hitclient_stress_duration_seconds{%s} %.3f\n", labels, summary.Duration.Seconds())

	metric("latency_ms", "gauge", "Request latency in milliseconds")
	for _, q := range []struct {
		name  string
		value float64
	}{
		{"min", ms(summary.Min)},
		{"0.5", ms(summary.P50)},
		{"0.95", ms(summary.P95)},
		{"0.99", ms(summary.P99)},
		{"max", ms(summary.Max)},
		{"mean", ms(summary.Mean)},
	} {
		fmt.Fprintf(bw, "hitclient_stress_latency_ms{%s,quantile=\"%s\"} %.2f\n", labels, q.name, q.value)
	}

	if len(summary.StatusCodes) > 0 {
		metric("responses_total", "counter", "Responses by HTTP status code")
		for _, code := range sortedCodes(summary.StatusCodes) {
			fmt.Fprintf(bw, "hitclient_stress_responses_total{%s,status=\"%d\"} %d\n", labels, code, summary.StatusCodes[code])
		}
	}

	if len(summary.ErrorKinds) > 0 {
		metric("errors_total", "counter", "Failures by kind")
		for _, kind := range sortedKeys(summary.ErrorKinds) {
			fmt.Fprintf(bw, "hitclient_stress_errors_total{%s,kind=\"%s\"} %d\n", labels, sanitizeLabel(kind), summary.ErrorKinds[kind])
		}
	}

	return bw.Flush()
}

func ms(d time.Duration) float64 {
	return float64(d) / float64(time.Millisecond)
}

// sanitizeLabel escapes a Prometheus label value
func sanitizeLabel(s string) string {
	s = strings.ReplaceAll(s, `\`, `\\`)
	s = strings.ReplaceAll(s, `"`, `\"`)
	s = strings.ReplaceAll(s, "\n", `\n`)
	return s
}
