package stress

import (
	"context"
	"errors"
	"fmt"
	"sync/atomic"
	"time"

	"github.com/rs/zerolog"

	"github.com/abdul-hamid-achik/hitclient/packages/http"
	"github.com/abdul-hamid-achik/hitclient/packages/session"
)

// DefaultUserAgent is the user agent every worker session is opened with
const DefaultUserAgent = "hitclient-stress/1.0"

const (
	progressInterval = 500 * time.Millisecond
	rampInterval     = 100 * time.Millisecond
)

// ErrNoTargets is returned by Run when no target was given
var ErrNoTargets = errors.New("no stress targets")

// Runner executes stress tests. Every worker opens its own session on its
// own goroutine, so sessions are never shared.
type Runner struct {
	config    *Config
	addr      http.Address
	scheduler *Scheduler
	metrics   *Metrics
	reporter  *Reporter
	logger    zerolog.Logger

	userAgent   string
	sessionOpts []session.Option

	issued atomic.Int64
}

// RunnerOption configures the runner
type RunnerOption func(*Runner)

// WithReporter sets the reporter
func WithReporter(reporter *Reporter) RunnerOption {
	return func(r *Runner) {
		r.reporter = reporter
	}
}

// WithUserAgent sets the user agent of worker sessions
func WithUserAgent(userAgent string) RunnerOption {
	return func(r *Runner) {
		r.userAgent = userAgent
	}
}

// WithSessionOptions adds options applied to every worker session
func WithSessionOptions(opts ...session.Option) RunnerOption {
	return func(r *Runner) {
		r.sessionOpts = append(r.sessionOpts, opts...)
	}
}

// WithLogger sets the logger for worker failures
func WithLogger(logger zerolog.Logger) RunnerOption {
	return func(r *Runner) {
		r.logger = logger
	}
}

// NewRunner creates a stress test runner against addr
func NewRunner(config *Config, addr http.Address, targets []Target, opts ...RunnerOption) *Runner {
	r := &Runner{
		config:    config,
		addr:      addr,
		metrics:   NewMetrics(),
		scheduler: NewScheduler(config),
		userAgent: DefaultUserAgent,
		logger:    zerolog.Nop(),
	}

	for _, t := range targets {
		r.scheduler.AddTarget(t)
	}

	for _, opt := range opts {
		opt(r)
	}

	if r.reporter == nil {
		r.reporter = NewReporter()
	}

	return r
}

// Metrics returns the collector the runner records into
func (r *Runner) Metrics() *Metrics {
	return r.metrics
}

// Run executes the stress test until the duration elapses, the request cap
// is reached or ctx is cancelled. Requests in flight are allowed to finish.
func (r *Runner) Run(ctx context.Context) (*Result, error) {
	if err := r.config.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	if r.scheduler.TargetCount() == 0 {
		return nil, ErrNoTargets
	}
	if err := r.probe(); err != nil {
		return nil, err
	}

	r.reporter.Header(r.addr.String(), r.config)

	r.metrics.Start()

	var cancel context.CancelFunc
	if r.config.Duration > 0 {
		ctx, cancel = context.WithTimeout(ctx, r.config.Duration)
	} else {
		ctx, cancel = context.WithCancel(ctx)
	}
	defer cancel()

	progressDone := make(chan struct{})
	go r.progressLoop(progressDone)

	if r.config.Mode == VUMode {
		r.runVUMode(ctx, cancel)
	} else {
		r.runRateMode(ctx, cancel)
	}

	r.metrics.Stop()
	close(progressDone)

	r.reporter.ClearProgress()

	summary := r.metrics.GetSummary()
	var thresholdResults []ThresholdResult
	if r.config.Thresholds.HasThresholds() {
		thresholdResults = EvaluateThresholds(summary, r.config.Thresholds)
	}

	r.reporter.Summary(summary, thresholdResults)

	result := &Result{
		Summary:    summary,
		Thresholds: thresholdResults,
	}
	result.Passed = !result.HasThresholdFailures()
	return result, nil
}

// probe connects once on the calling goroutine so a bad address fails the
// run instead of every worker.
func (r *Runner) probe() error {
	b := http.NewBuilder(r.userAgent, r.sessionOpts...)
	defer b.Close()

	if _, err := b.Connect(r.addr.Host, r.addr.Port); err != nil {
		return fmt.Errorf("connecting to %s: %w", r.addr, err)
	}
	return nil
}

// take reserves one request against the request cap
func (r *Runner) take() bool {
	if r.config.Requests <= 0 {
		return true
	}
	return r.issued.Add(1) <= r.config.Requests
}

// runRateMode paces requests with the scheduler's limiter and hands them to
// a fixed pool of workers.
func (r *Runner) runRateMode(ctx context.Context, cancel context.CancelFunc) {
	tickets := make(chan *Target)

	pool := NewPool(r.metrics, func(ctx context.Context, id int) {
		r.work(ctx, id, func(ctx context.Context) (*Target, bool) {
			select {
			case <-ctx.Done():
				return nil, false
			case t := <-tickets:
				return t, true
			}
		})
	})
	pool.Start(ctx, r.config.Workers)

	startTime := time.Now()
	var rampUpTicker *time.Ticker
	if r.config.RampUp > 0 {
		rampUpTicker = time.NewTicker(rampInterval)
		defer rampUpTicker.Stop()
	}

dispatch:
	for {
		if rampUpTicker != nil {
			select {
			case <-rampUpTicker.C:
				r.scheduler.UpdateRate(r.scheduler.GetCurrentRate(time.Since(startTime)))
			default:
			}
		}

		if !r.take() {
			cancel()
			break
		}

		if err := r.scheduler.Wait(ctx); err != nil {
			break
		}

		select {
		case <-ctx.Done():
			break dispatch
		case tickets <- r.scheduler.SelectTarget():
		}
	}

	pool.Stop()
	pool.Wait()
}

// runVUMode runs every worker in a closed loop with think time
func (r *Runner) runVUMode(ctx context.Context, cancel context.CancelFunc) {
	pool := NewPool(r.metrics, func(ctx context.Context, id int) {
		r.work(ctx, id, func(ctx context.Context) (*Target, bool) {
			if ctx.Err() != nil {
				return nil, false
			}
			if !r.take() {
				cancel()
				return nil, false
			}
			return r.scheduler.SelectTarget(), true
		})
	})
	pool.Start(ctx, r.scheduler.GetCurrentWorkers(0))

	if r.config.RampUp > 0 {
		go func() {
			rampUpTicker := time.NewTicker(rampInterval)
			defer rampUpTicker.Stop()
			startTime := time.Now()

			for {
				select {
				case <-ctx.Done():
					return
				case <-rampUpTicker.C:
					pool.Scale(r.scheduler.GetCurrentWorkers(time.Since(startTime)))
				}
			}
		}()
	}

	<-ctx.Done()

	pool.Stop()
	pool.Wait()
}

// work is the body of a worker: it owns one builder for its lifetime and
// sends whatever next hands it.
func (r *Runner) work(ctx context.Context, id int, next func(context.Context) (*Target, bool)) {
	b := http.NewBuilder(r.userAgent, r.sessionOpts...)
	defer b.Close()

	conn, err := b.Connect(r.addr.Host, r.addr.Port)
	if err != nil {
		r.logger.Error().Err(err).Int("worker", id).Msg("worker could not connect")
		return
	}

	for {
		t, ok := next(ctx)
		if !ok {
			return
		}

		r.execute(conn, t, id)

		if r.config.Mode != VUMode {
			continue
		}
		think := r.config.ThinkTime
		if t.Think > 0 {
			think = t.Think
		}
		if think > 0 {
			select {
			case <-ctx.Done():
				return
			case <-time.After(think):
			}
		}
	}
}

// execute sends one request and records its outcome. Non-2xx responses count
// as errors.
func (r *Runner) execute(conn *http.Connection, t *Target, id int) {
	label := t.Label()
	start := time.Now()

	reader, err := t.send(conn, r.addr.Flags())
	var resp *http.Response
	if err == nil {
		resp, err = reader.Response()
	}
	duration := time.Since(start)

	if err != nil {
		r.logger.Debug().Err(err).Int("worker", id).Str("target", label).Msg("request failed")
		r.metrics.Record(label, duration, 0, failureKind(err))
		return
	}

	failure := ""
	if !resp.IsSuccess() {
		failure = fmt.Sprintf("HTTP %d", resp.StatusCode)
	}
	r.metrics.Record(label, duration, resp.StatusCode, failure)
}

func failureKind(err error) string {
	if kind := session.KindOf(err); kind != session.ErrNone {
		return kind.String()
	}
	return err.Error()
}

// progressLoop updates the progress display
func (r *Runner) progressLoop(done chan struct{}) {
	ticker := time.NewTicker(progressInterval)
	defer ticker.Stop()

	for {
		select {
		case <-done:
			return
		case <-ticker.C:
			stats := r.metrics.GetCurrentStats()
			r.reporter.Progress(stats, r.config.Duration)

			r.metrics.AddTimePoint(r.metrics.Snapshot())
		}
	}
}

// Result holds the final result of a stress test
type Result struct {
	Summary    *Summary
	Thresholds []ThresholdResult
	Passed     bool
}

// HasThresholdFailures returns true if any thresholds failed
func (r *Result) HasThresholdFailures() bool {
	for _, tr := range r.Thresholds {
		if !tr.Passed {
			return true
		}
	}
	return false
}
