package stress

import (
	"strconv"
	"sync"
	"sync/atomic"
	"time"

	"github.com/HdrHistogram/hdrhistogram-go"
)

const (
	// histogram range in microseconds: 1us to 60s
	minLatencyUs = 1
	maxLatencyUs = 60_000_000
)

func newHistogram() *hdrhistogram.Histogram {
	return hdrhistogram.New(minLatencyUs, maxLatencyUs, 3)
}

func clampLatency(d time.Duration) int64 {
	us := d.Microseconds()
	if us < minLatencyUs {
		return minLatencyUs
	}
	if us > maxLatencyUs {
		return maxLatencyUs
	}
	return us
}

func quantile(h *hdrhistogram.Histogram, q float64) time.Duration {
	return time.Duration(h.ValueAtQuantile(q)) * time.Microsecond
}

// Metrics collects and aggregates stress test metrics
type Metrics struct {
	mu sync.RWMutex

	// Counters
	totalRequests   atomic.Int64
	successRequests atomic.Int64
	errorRequests   atomic.Int64

	// Latency histogram (in microseconds for precision)
	histogram *hdrhistogram.Histogram

	// Per-target metrics
	requestMetrics map[string]*RequestMetrics

	// Response status codes and failure kinds
	statusCounts map[int]int64
	errorKinds   map[string]int64

	// Time series for real-time display
	timeSeries    []TimePoint
	lastTimePoint time.Time

	// Test timing
	startTime time.Time
	endTime   time.Time

	activeWorkers atomic.Int32
}

// RequestMetrics holds metrics for a specific target
type RequestMetrics struct {
	Name      string
	Total     atomic.Int64
	Success   atomic.Int64
	Errors    atomic.Int64
	Histogram *hdrhistogram.Histogram
	mu        sync.Mutex
}

// TimePoint represents a point in time for the time series
type TimePoint struct {
	Timestamp     time.Time
	Requests      int64
	Errors        int64
	P50           time.Duration
	P95           time.Duration
	P99           time.Duration
	ActiveWorkers int32
	RPS           float64
}

// NewMetrics creates a new Metrics collector
func NewMetrics() *Metrics {
	return &Metrics{
		histogram:      newHistogram(),
		requestMetrics: make(map[string]*RequestMetrics),
		statusCounts:   make(map[int]int64),
		errorKinds:     make(map[string]int64),
		timeSeries:     make([]TimePoint, 0, 1000),
	}
}

// Start marks the beginning of the test
func (m *Metrics) Start() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.startTime = time.Now()
	m.lastTimePoint = m.startTime
}

// Stop marks the end of the test
func (m *Metrics) Stop() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.endTime = time.Now()
}

// Record records one exchange. status is 0 when no response was received.
// failure names the kind of error and is empty on success.
func (m *Metrics) Record(name string, duration time.Duration, status int, failure string) {
	m.totalRequests.Add(1)

	failed := failure != ""
	if failed {
		m.errorRequests.Add(1)
	} else {
		m.successRequests.Add(1)
	}

	m.mu.Lock()
	_ = m.histogram.RecordValue(clampLatency(duration))
	if status > 0 {
		m.statusCounts[status]++
	}
	if failed {
		m.errorKinds[failure]++
	}
	m.mu.Unlock()

	if name != "" {
		m.recordRequestMetrics(name, duration, failed)
	}
}

func (m *Metrics) recordRequestMetrics(name string, duration time.Duration, failed bool) {
	m.mu.Lock()
	rm, ok := m.requestMetrics[name]
	if !ok {
		rm = &RequestMetrics{
			Name:      name,
			Histogram: newHistogram(),
		}
		m.requestMetrics[name] = rm
	}
	m.mu.Unlock()

	rm.Total.Add(1)
	if failed {
		rm.Errors.Add(1)
	} else {
		rm.Success.Add(1)
	}

	rm.mu.Lock()
	_ = rm.Histogram.RecordValue(clampLatency(duration))
	rm.mu.Unlock()
}

// IncrementActiveWorkers increments the active worker count
func (m *Metrics) IncrementActiveWorkers() {
	m.activeWorkers.Add(1)
}

// DecrementActiveWorkers decrements the active worker count
func (m *Metrics) DecrementActiveWorkers() {
	m.activeWorkers.Add(-1)
}

// ActiveWorkers returns the number of workers currently running
func (m *Metrics) ActiveWorkers() int32 {
	return m.activeWorkers.Load()
}

// Snapshot captures current metrics for time series
func (m *Metrics) Snapshot() TimePoint {
	now := time.Now()

	m.mu.RLock()
	defer m.mu.RUnlock()

	elapsed := now.Sub(m.lastTimePoint).Seconds()
	if elapsed == 0 {
		elapsed = 1
	}

	total := m.totalRequests.Load()
	prevTotal := int64(0)
	if len(m.timeSeries) > 0 {
		prevTotal = m.timeSeries[len(m.timeSeries)-1].Requests
	}

	return TimePoint{
		Timestamp:     now,
		Requests:      total,
		Errors:        m.errorRequests.Load(),
		P50:           quantile(m.histogram, 50),
		P95:           quantile(m.histogram, 95),
		P99:           quantile(m.histogram, 99),
		ActiveWorkers: m.activeWorkers.Load(),
		RPS:           float64(total-prevTotal) / elapsed,
	}
}

// AddTimePoint adds a time point to the series
func (m *Metrics) AddTimePoint(point TimePoint) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.timeSeries = append(m.timeSeries, point)
	m.lastTimePoint = point.Timestamp
}

// Summary is the final metrics summary
type Summary struct {
	Duration      time.Duration
	TotalRequests int64
	SuccessCount  int64
	ErrorCount    int64

	// Calculated rates
	RPS         float64
	SuccessRate float64
	ErrorRate   float64

	// Latency percentiles
	P50    time.Duration
	P95    time.Duration
	P99    time.Duration
	Min    time.Duration
	Max    time.Duration
	Mean   time.Duration
	StdDev time.Duration

	StatusCodes map[int]int64
	ErrorKinds  map[string]int64

	// Per-target breakdown
	RequestBreakdown map[string]*RequestSummary

	// Time series data
	TimeSeries []TimePoint
}

// RequestSummary holds summary for a specific target
type RequestSummary struct {
	Name    string
	Total   int64
	Success int64
	Errors  int64
	P50     time.Duration
	P95     time.Duration
	P99     time.Duration
	Mean    time.Duration
}

// GetSummary returns the metrics summary
func (m *Metrics) GetSummary() *Summary {
	m.mu.RLock()
	defer m.mu.RUnlock()

	duration := m.endTime.Sub(m.startTime)
	if m.endTime.IsZero() {
		duration = time.Since(m.startTime)
	}

	total := m.totalRequests.Load()
	success := m.successRequests.Load()
	errors := m.errorRequests.Load()

	rps := float64(0)
	if duration.Seconds() > 0 {
		rps = float64(total) / duration.Seconds()
	}

	successRate := float64(0)
	errorRate := float64(0)
	if total > 0 {
		successRate = float64(success) / float64(total)
		errorRate = float64(errors) / float64(total)
	}

	summary := &Summary{
		Duration:      duration,
		TotalRequests: total,
		SuccessCount:  success,
		ErrorCount:    errors,
		RPS:           rps,
		SuccessRate:   successRate,
		ErrorRate:     errorRate,
		P50:           quantile(m.histogram, 50),
		P95:           quantile(m.histogram, 95),
		P99:           quantile(m.histogram, 99),
		Min:           time.Duration(m.histogram.Min()) * time.Microsecond,
		Max:           time.Duration(m.histogram.Max()) * time.Microsecond,
		Mean:          time.Duration(m.histogram.Mean()) * time.Microsecond,
		StdDev:        time.Duration(m.histogram.StdDev()) * time.Microsecond,
		StatusCodes:   make(map[int]int64, len(m.statusCounts)),
		ErrorKinds:    make(map[string]int64, len(m.errorKinds)),
		TimeSeries:    append([]TimePoint(nil), m.timeSeries...),
	}

	for code, n := range m.statusCounts {
		summary.StatusCodes[code] = n
	}
	for kind, n := range m.errorKinds {
		summary.ErrorKinds[kind] = n
	}

	summary.RequestBreakdown = make(map[string]*RequestSummary)
	for name, rm := range m.requestMetrics {
		rm.mu.Lock()
		summary.RequestBreakdown[name] = &RequestSummary{
			Name:    name,
			Total:   rm.Total.Load(),
			Success: rm.Success.Load(),
			Errors:  rm.Errors.Load(),
			P50:     quantile(rm.Histogram, 50),
			P95:     quantile(rm.Histogram, 95),
			P99:     quantile(rm.Histogram, 99),
			Mean:    time.Duration(rm.Histogram.Mean()) * time.Microsecond,
		}
		rm.mu.Unlock()
	}

	return summary
}

// CurrentStats returns current statistics for real-time display
type CurrentStats struct {
	Elapsed       time.Duration
	Total         int64
	Success       int64
	Errors        int64
	RPS           float64
	P50           time.Duration
	P95           time.Duration
	P99           time.Duration
	Max           time.Duration
	ActiveWorkers int32
	ErrorRate     float64
}

// GetCurrentStats returns current statistics
func (m *Metrics) GetCurrentStats() CurrentStats {
	m.mu.RLock()
	defer m.mu.RUnlock()

	elapsed := time.Since(m.startTime)
	total := m.totalRequests.Load()
	success := m.successRequests.Load()
	errors := m.errorRequests.Load()

	rps := float64(0)
	if elapsed.Seconds() > 0 {
		rps = float64(total) / elapsed.Seconds()
	}

	errorRate := float64(0)
	if total > 0 {
		errorRate = float64(errors) / float64(total)
	}

	return CurrentStats{
		Elapsed:       elapsed,
		Total:         total,
		Success:       success,
		Errors:        errors,
		RPS:           rps,
		P50:           quantile(m.histogram, 50),
		P95:           quantile(m.histogram, 95),
		P99:           quantile(m.histogram, 99),
		Max:           time.Duration(m.histogram.Max()) * time.Microsecond,
		ActiveWorkers: m.activeWorkers.Load(),
		ErrorRate:     errorRate,
	}
}

// EvaluateThresholds evaluates the thresholds against the summary
func EvaluateThresholds(summary *Summary, t Thresholds) []ThresholdResult {
	var results []ThresholdResult

	latency := func(name string, limit, actual time.Duration) {
		if limit <= 0 {
			return
		}
		results = append(results, ThresholdResult{
			Name:     name,
			Passed:   actual <= limit,
			Expected: "< " + limit.String(),
			Actual:   actual.String(),
		})
	}

	latency("p50", t.P50, summary.P50)
	latency("p95", t.P95, summary.P95)
	latency("p99", t.P99, summary.P99)
	latency("max latency", t.MaxLatency, summary.Max)

	if t.ErrorRate > 0 {
		results = append(results, ThresholdResult{
			Name:     "error rate",
			Passed:   summary.ErrorRate <= t.ErrorRate,
			Expected: formatPercent(t.ErrorRate),
			Actual:   formatPercent(summary.ErrorRate),
		})
	}

	if t.MinRPS > 0 {
		results = append(results, ThresholdResult{
			Name:     "min RPS",
			Passed:   summary.RPS >= t.MinRPS,
			Expected: "> " + formatFloat(t.MinRPS),
			Actual:   formatFloat(summary.RPS),
		})
	}

	return results
}

func formatPercent(f float64) string {
	return formatFloat(f*100) + "%"
}

func formatFloat(f float64) string {
	if f == float64(int(f)) {
		return strconv.Itoa(int(f))
	}
	return strconv.FormatFloat(f, 'f', 2, 64)
}
