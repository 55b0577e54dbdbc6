// Package stress drives sustained load against a server through the request
// builder, one session per worker, and reports latency percentiles and
// error rates.
package stress

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"
)

// ExecutionMode defines how the stress test schedules requests
type ExecutionMode int

const (
	// RateMode sends requests at a constant rate (requests per second)
	RateMode ExecutionMode = iota
	// VUMode runs every worker in a loop with think time between requests
	VUMode
)

func (m ExecutionMode) String() string {
	if m == VUMode {
		return "vu"
	}
	return "rate"
}

// Config holds all configuration for a stress test
type Config struct {
	Mode       ExecutionMode
	Duration   time.Duration
	Requests   int64         // stop after this many requests, 0 for no limit
	Rate       float64       // requests per second (RateMode)
	Workers    int           // concurrent sessions
	ThinkTime  time.Duration // time between requests per worker (VUMode)
	RampUp     time.Duration // ramp-up time
	Thresholds Thresholds    // pass/fail thresholds
}

// Thresholds defines pass/fail criteria for the stress test
type Thresholds struct {
	P50        time.Duration // 50th percentile latency
	P95        time.Duration // 95th percentile latency
	P99        time.Duration // 99th percentile latency
	MaxLatency time.Duration // maximum allowed latency
	ErrorRate  float64       // maximum error rate (0.0 - 1.0)
	MinRPS     float64       // minimum requests per second
}

// DefaultConfig returns a Config with sensible defaults
func DefaultConfig() *Config {
	return &Config{
		Mode:     RateMode,
		Duration: 30 * time.Second,
		Rate:     10,
		Workers:  10,
	}
}

// Validate checks if the config is valid
func (c *Config) Validate() error {
	if c.Duration <= 0 && c.Requests <= 0 {
		return fmt.Errorf("duration or request count must be positive")
	}

	if c.Duration < 0 {
		return fmt.Errorf("duration cannot be negative")
	}

	if c.Requests < 0 {
		return fmt.Errorf("request count cannot be negative")
	}

	if c.Mode == RateMode && c.Rate <= 0 {
		return fmt.Errorf("rate must be positive in rate mode")
	}

	if c.Workers < 1 {
		return fmt.Errorf("workers must be at least 1")
	}

	if c.RampUp < 0 {
		return fmt.Errorf("rampUp cannot be negative")
	}

	if c.Duration > 0 && c.RampUp > c.Duration {
		return fmt.Errorf("rampUp cannot exceed duration")
	}

	return nil
}

var thresholdPattern = regexp.MustCompile(`^(\w+)\s*([<>]=?)\s*(.+)$`)

// ParseThresholds parses a threshold string like "p95<200ms,errors<0.1%"
func ParseThresholds(s string) (Thresholds, error) {
	var t Thresholds

	for _, part := range strings.Split(s, ",") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}

		if err := parseThresholdPart(part, &t); err != nil {
			return t, err
		}
	}

	return t, nil
}

func parseThresholdPart(part string, t *Thresholds) error {
	matches := thresholdPattern.FindStringSubmatch(part)
	if len(matches) != 4 {
		return fmt.Errorf("invalid threshold format: %s", part)
	}

	metric := strings.ToLower(matches[1])
	op := matches[2]
	valueStr := strings.TrimSpace(matches[3])

	upper := func(name string) error {
		if op != "<" && op != "<=" {
			return fmt.Errorf("%s threshold must use < or <=", name)
		}
		return nil
	}

	latency := func(name string, dst *time.Duration) error {
		d, err := time.ParseDuration(valueStr)
		if err != nil {
			return fmt.Errorf("invalid duration for %s: %s", name, valueStr)
		}
		if err := upper(name); err != nil {
			return err
		}
		*dst = d
		return nil
	}

	switch metric {
	case "p50":
		return latency("p50", &t.P50)
	case "p95":
		return latency("p95", &t.P95)
	case "p99":
		return latency("p99", &t.P99)
	case "max", "maxlatency":
		return latency("max latency", &t.MaxLatency)

	case "errors", "error", "errorrate":
		percent := strings.HasSuffix(valueStr, "%")
		f, err := strconv.ParseFloat(strings.TrimSuffix(valueStr, "%"), 64)
		if err != nil {
			return fmt.Errorf("invalid error rate: %s", valueStr)
		}
		if percent {
			f = f / 100
		}
		if err := upper("error rate"); err != nil {
			return err
		}
		t.ErrorRate = f

	case "rps", "rate":
		f, err := strconv.ParseFloat(valueStr, 64)
		if err != nil {
			return fmt.Errorf("invalid RPS: %s", valueStr)
		}
		if op != ">" && op != ">=" {
			return fmt.Errorf("RPS threshold must use > or >=")
		}
		t.MinRPS = f

	default:
		return fmt.Errorf("unknown threshold metric: %s", metric)
	}

	return nil
}

// HasThresholds returns true if any thresholds are configured
func (t *Thresholds) HasThresholds() bool {
	return t.P50 > 0 || t.P95 > 0 || t.P99 > 0 || t.MaxLatency > 0 || t.ErrorRate > 0 || t.MinRPS > 0
}

// ThresholdResult holds the result of evaluating a threshold
type ThresholdResult struct {
	Name     string `json:"name"`
	Passed   bool   `json:"passed"`
	Expected string `json:"expected"`
	Actual   string `json:"actual"`
}
