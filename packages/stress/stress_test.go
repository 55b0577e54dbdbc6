package stress

import (
	"bytes"
	"context"
	"encoding/json"
	nethttp "net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/abdul-hamid-achik/hitclient/packages/form"
	"github.com/abdul-hamid-achik/hitclient/packages/http"
	"github.com/abdul-hamid-achik/hitclient/packages/mock"
)

// countingServer serves the mock routes and counts every request it sees
func countingServer(t *testing.T, server *mock.Server) (http.Address, *atomic.Int64) {
	t.Helper()
	var count atomic.Int64
	handler := server.Handler()
	ts := httptest.NewServer(nethttp.HandlerFunc(func(w nethttp.ResponseWriter, r *nethttp.Request) {
		count.Add(1)
		handler.ServeHTTP(w, r)
	}))
	t.Cleanup(ts.Close)

	addr, err := http.ParseAddress(ts.URL)
	require.NoError(t, err)
	return addr, &count
}

func quietReporter(buf *bytes.Buffer) *Reporter {
	return NewReporter(WithWriter(buf), WithNoProgress(true), WithNoColor(true))
}

func TestRunner_RateMode(t *testing.T) {
	server := mock.NewServer()
	server.Handle("GET", "/health", 200, `{"status":"ok"}`)
	addr, count := countingServer(t, server)

	cfg := &Config{
		Mode:     RateMode,
		Duration: time.Second,
		Rate:     20,
		Workers:  4,
	}

	var out bytes.Buffer
	runner := NewRunner(cfg, addr, []Target{GetTarget("/health", nil)}, WithReporter(quietReporter(&out)))

	result, err := runner.Run(context.Background())
	require.NoError(t, err)
	require.NotNil(t, result)

	summary := result.Summary
	assert.Greater(t, summary.TotalRequests, int64(5))
	assert.LessOrEqual(t, summary.TotalRequests, int64(25))
	assert.Equal(t, summary.TotalRequests, summary.SuccessCount)
	assert.Equal(t, summary.TotalRequests, count.Load())
	assert.Equal(t, summary.TotalRequests, summary.StatusCodes[200])
	assert.True(t, result.Passed)

	assert.Contains(t, out.String(), "hitclient stress (rate mode)")
	assert.Contains(t, out.String(), "STRESS TEST SUMMARY")
	assert.Zero(t, runner.Metrics().ActiveWorkers())
}

func TestRunner_RequestCap(t *testing.T) {
	server := mock.NewServer()
	server.Handle("GET", "/", 200, "Welcome")
	addr, count := countingServer(t, server)

	for _, mode := range []ExecutionMode{RateMode, VUMode} {
		cfg := &Config{
			Mode:     mode,
			Duration: 10 * time.Second,
			Requests: 15,
			Rate:     500,
			Workers:  3,
		}
		count.Store(0)

		var out bytes.Buffer
		runner := NewRunner(cfg, addr, []Target{GetTarget("/", nil)}, WithReporter(quietReporter(&out)))

		start := time.Now()
		result, err := runner.Run(context.Background())
		require.NoError(t, err)

		assert.Equal(t, int64(15), result.Summary.TotalRequests, "mode %s", mode)
		assert.Equal(t, int64(15), count.Load(), "mode %s", mode)
		assert.Less(t, time.Since(start), 5*time.Second, "mode %s", mode)
	}
}

func TestRunner_CountsErrorStatusesAndTransportFailures(t *testing.T) {
	server := mock.NewServer()
	server.Handle("GET", "/ok", 200, "ok")
	server.Handle("GET", "/broken", 500, "boom")
	addr, _ := countingServer(t, server)

	cfg := &Config{Mode: VUMode, Requests: 40, Workers: 2}

	var out bytes.Buffer
	runner := NewRunner(cfg, addr, []Target{
		{Path: "/ok", Weight: 1},
		{Path: "/broken", Weight: 1},
	}, WithReporter(quietReporter(&out)))

	result, err := runner.Run(context.Background())
	require.NoError(t, err)

	summary := result.Summary
	assert.Equal(t, int64(40), summary.TotalRequests)
	assert.Equal(t, summary.StatusCodes[500], summary.ErrorCount)
	assert.Equal(t, summary.StatusCodes[500], summary.ErrorKinds["HTTP 500"])
	assert.Positive(t, summary.StatusCodes[200])
	assert.Positive(t, summary.StatusCodes[500])

	require.Contains(t, summary.RequestBreakdown, "GET /ok")
	require.Contains(t, summary.RequestBreakdown, "GET /broken")
	assert.Zero(t, summary.RequestBreakdown["GET /ok"].Errors)

	assert.Contains(t, out.String(), "HTTP 500")

	// nothing listening
	ln := httptest.NewServer(nethttp.NotFoundHandler())
	dead, err := http.ParseAddress(ln.URL)
	require.NoError(t, err)
	ln.Close()

	runner = NewRunner(&Config{Mode: VUMode, Requests: 3, Workers: 1}, dead,
		[]Target{GetTarget("/", nil)}, WithReporter(quietReporter(&out)))
	result, err = runner.Run(context.Background())
	require.NoError(t, err)
	assert.Equal(t, int64(3), result.Summary.ErrorCount)
	assert.Equal(t, int64(3), result.Summary.ErrorKinds["Request failed!"])
	assert.Empty(t, result.Summary.StatusCodes)
}

func TestRunner_PostTarget(t *testing.T) {
	server := mock.NewServer()
	server.Handle("POST", "/api/forgotpassword", 200, "sent")
	addr, _ := countingServer(t, server)

	cfg := &Config{Mode: VUMode, Requests: 5, Workers: 1}
	target := PostTarget("/api/forgotpassword", []form.Field{form.Text("email", "user@example.com")}, map[string]string{"X-Load": "1"})

	var out bytes.Buffer
	runner := NewRunner(cfg, addr, []Target{target}, WithReporter(quietReporter(&out)), WithUserAgent("load-test"))

	result, err := runner.Run(context.Background())
	require.NoError(t, err)
	assert.Equal(t, int64(5), result.Summary.SuccessCount)

	obs, ok := server.LastRequest()
	require.True(t, ok)
	assert.Equal(t, "POST", obs.Method)
	assert.Equal(t, "user@example.com", obs.FormValue("email"))
	assert.Equal(t, "1", obs.Header.Get("X-Load"))
	assert.Equal(t, "load-test", obs.Header.Get("User-Agent"))
}

func TestRunner_Thresholds(t *testing.T) {
	server := mock.NewServer()
	server.Handle("GET", "/", 200, "ok")
	addr, _ := countingServer(t, server)

	cfg := &Config{
		Mode:       VUMode,
		Requests:   10,
		Workers:    2,
		Thresholds: Thresholds{P95: time.Nanosecond, ErrorRate: 0.5},
	}

	var out bytes.Buffer
	runner := NewRunner(cfg, addr, []Target{GetTarget("/", nil)}, WithReporter(quietReporter(&out)))

	result, err := runner.Run(context.Background())
	require.NoError(t, err)
	require.Len(t, result.Thresholds, 2)
	assert.True(t, result.HasThresholdFailures())
	assert.False(t, result.Passed)
	assert.Contains(t, out.String(), "Some thresholds failed!")
}

func TestRunner_VUModeThinkTime(t *testing.T) {
	server := mock.NewServer()
	server.Handle("GET", "/", 200, "ok")
	addr, _ := countingServer(t, server)

	cfg := &Config{
		Mode:      VUMode,
		Duration:  500 * time.Millisecond,
		Workers:   2,
		ThinkTime: 100 * time.Millisecond,
	}

	var out bytes.Buffer
	runner := NewRunner(cfg, addr, []Target{GetTarget("/", nil)}, WithReporter(quietReporter(&out)))

	result, err := runner.Run(context.Background())
	require.NoError(t, err)

	// two workers, one request per think interval each
	assert.GreaterOrEqual(t, result.Summary.TotalRequests, int64(2))
	assert.LessOrEqual(t, result.Summary.TotalRequests, int64(14))
}

func TestRunner_CancelStopsEarly(t *testing.T) {
	server := mock.NewServer()
	server.Handle("GET", "/", 200, "ok")
	addr, _ := countingServer(t, server)

	cfg := &Config{Mode: RateMode, Duration: time.Minute, Rate: 50, Workers: 2}

	var out bytes.Buffer
	runner := NewRunner(cfg, addr, []Target{GetTarget("/", nil)}, WithReporter(quietReporter(&out)))

	ctx, cancel := context.WithTimeout(context.Background(), 300*time.Millisecond)
	defer cancel()

	start := time.Now()
	result, err := runner.Run(ctx)
	require.NoError(t, err)
	assert.Less(t, time.Since(start), 5*time.Second)
	assert.Positive(t, result.Summary.TotalRequests)
}

func TestRunner_Errors(t *testing.T) {
	var out bytes.Buffer
	addr := http.Address{Host: "localhost", Port: 8000}

	_, err := NewRunner(&Config{Mode: RateMode}, addr, []Target{GetTarget("/", nil)}, WithReporter(quietReporter(&out))).Run(context.Background())
	assert.ErrorContains(t, err, "invalid config")

	_, err = NewRunner(DefaultConfig(), addr, nil, WithReporter(quietReporter(&out))).Run(context.Background())
	assert.ErrorIs(t, err, ErrNoTargets)

	_, err = NewRunner(DefaultConfig(), http.Address{Host: "bad host"}, []Target{GetTarget("/", nil)}, WithReporter(quietReporter(&out))).Run(context.Background())
	assert.ErrorContains(t, err, "connecting to")
}

func TestTargetLabel(t *testing.T) {
	assert.Equal(t, "GET /", GetTarget("", nil).Label())
	assert.Equal(t, "GET /status", GetTarget("status", nil).Label())
	assert.Equal(t, "POST /login", PostTarget("/login", []form.Field{form.Text("a", "b")}, nil).Label())
	assert.Equal(t, "named", Target{Name: "named"}.Label())
}

func TestPool_Scale(t *testing.T) {
	m := NewMetrics()
	var started atomic.Int32

	pool := NewPool(m, func(ctx context.Context, id int) {
		started.Add(1)
		<-ctx.Done()
	})

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	pool.Start(ctx, 0)
	assert.Equal(t, 1, pool.Count())

	pool.Scale(4)
	assert.Equal(t, 4, pool.Count())
	assert.Eventually(t, func() bool { return m.ActiveWorkers() == 4 }, time.Second, 5*time.Millisecond)

	pool.Scale(2)
	assert.Equal(t, 2, pool.Count())
	assert.Eventually(t, func() bool { return m.ActiveWorkers() == 2 }, time.Second, 5*time.Millisecond)

	pool.Stop()
	pool.Wait()
	assert.Zero(t, m.ActiveWorkers())
	assert.Equal(t, int32(4), started.Load())

	pool.Scale(3)
	assert.Zero(t, pool.Count())
}

func TestReporter_JSONSummary(t *testing.T) {
	m := NewMetrics()
	m.Start()
	m.Record("GET /", 5*time.Millisecond, 200, "")
	m.Record("GET /", 5*time.Millisecond, 404, "HTTP 404")
	m.Stop()

	var out bytes.Buffer
	r := quietReporter(&out)
	require.NoError(t, r.JSONSummary(m.GetSummary(), []ThresholdResult{{Name: "p95", Passed: true, Expected: "< 1s", Actual: "5ms"}}))

	var decoded map[string]any
	require.NoError(t, json.Unmarshal(out.Bytes(), &decoded))
	assert.Equal(t, map[string]any{"200": float64(1), "404": float64(1)}, decoded["statusCodes"])
	assert.Equal(t, map[string]any{"HTTP 404": float64(1)}, decoded["errors"])
	assert.Contains(t, decoded, "targetBreakdown")
	assert.Len(t, decoded["thresholds"], 1)
}

func TestFormatNumber(t *testing.T) {
	assert.Equal(t, "999", formatNumber(999))
	assert.Equal(t, "1,000", formatNumber(1000))
	assert.Equal(t, "1,234,567", formatNumber(1234567))
	assert.True(t, strings.HasSuffix(formatLatency(1500*time.Microsecond), "ms"))
}
