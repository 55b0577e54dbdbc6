package cmd

import (
	"context"
	"fmt"
	"maps"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/abdul-hamid-achik/hitclient/packages/stress"
)

var stressCmd = &cobra.Command{
	Use:   "stress <url> | <path> | <host[:port]> <path>",
	Short: "Send sustained load through the request builder",
	Long: `Send requests to one endpoint at a constant rate or from a fixed set of
looping workers, then report latency percentiles and error rates. Every
worker owns its own session.

A target with --field values is sent as a multipart POST, anything else as
a GET.

Examples:
  # 50 requests per second for one minute
  hitclient stress localhost:8000 / --duration 1m --rate 50

  # exactly 1000 requests from 20 looping workers
  hitclient stress / -n 1000 --vus --workers 20

  # POST with ramp-up and thresholds for CI
  hitclient stress /api/forgotpassword --field email=a@b.c --ramp-up 10s \
    --threshold "p95<200ms,errors<1%"`,
	Args: cobra.RangeArgs(1, 2),
	RunE: stressCommand,
}

var (
	stressRequestsFlag   int64
	stressWorkersFlag    int
	stressRateFlag       float64
	stressDurationFlag   time.Duration
	stressVUsFlag        bool
	stressThinkTimeFlag  time.Duration
	stressRampUpFlag     time.Duration
	stressThresholdFlag  string
	stressFieldFlags     []string
	stressHeaderFlags    []string
	stressSecureFlag     bool
	stressNoProgressFlag bool
	stressPrometheusFlag string
)

func init() {
	defaults := stress.DefaultConfig()
	stressCmd.Flags().Int64VarP(&stressRequestsFlag, "requests", "n", 0, "Stop after this many requests (0 for no limit)")
	stressCmd.Flags().IntVarP(&stressWorkersFlag, "workers", "w", defaults.Workers, "Concurrent sessions")
	stressCmd.Flags().Float64VarP(&stressRateFlag, "rate", "r", defaults.Rate, "Requests per second in rate mode")
	stressCmd.Flags().DurationVarP(&stressDurationFlag, "duration", "d", defaults.Duration, "Run time, 0 to rely on --requests")
	stressCmd.Flags().BoolVar(&stressVUsFlag, "vus", false, "Run workers in a closed loop instead of pacing by rate")
	stressCmd.Flags().DurationVarP(&stressThinkTimeFlag, "think-time", "t", 0, "Pause between requests per worker in --vus mode")
	stressCmd.Flags().DurationVar(&stressRampUpFlag, "ramp-up", 0, "Time to reach the full rate or worker count")
	stressCmd.Flags().StringVar(&stressThresholdFlag, "threshold", "", `Pass/fail thresholds, e.g. "p95<200ms,errors<0.1%"`)
	stressCmd.Flags().StringArrayVarP(&stressFieldFlags, "field", "F", nil, "Text form field name=value, makes the target a POST")
	stressCmd.Flags().StringArrayVarP(&stressHeaderFlags, "header", "H", nil, `Extra header "Name: value", repeatable`)
	stressCmd.Flags().BoolVar(&stressSecureFlag, "secure", false, "Use TLS")
	stressCmd.Flags().BoolVar(&stressNoProgressFlag, "no-progress", false, "Disable the live progress line")
	stressCmd.Flags().StringVar(&stressPrometheusFlag, "prometheus", "", "Write the summary to a file in Prometheus text format")
}

func stressCommand(cmd *cobra.Command, args []string) error {
	for i := range args {
		args[i] = app.resolver.Resolve(args[i])
	}
	addr, path, err := resolveTarget(args, app.config, stressSecureFlag)
	if err != nil {
		return err
	}

	cfg, err := buildStressConfig()
	if err != nil {
		return withExitCode(ExitUsageError, err)
	}

	flagHeaders, err := parseHeaders(stressHeaderFlags)
	if err != nil {
		return err
	}
	headers := maps.Clone(app.config.Headers)
	if headers == nil {
		headers = make(map[string]string, len(flagHeaders))
	}
	maps.Copy(headers, flagHeaders)
	headers = app.resolver.ResolveAll(headers)

	fields, err := parseFormFlags(stressFieldFlags, nil, nil, nil)
	if err != nil {
		return withExitCode(ExitUsageError, err)
	}

	target := stress.GetTarget(path, headers)
	if len(fields) > 0 {
		target = stress.PostTarget(path, fields, headers)
	}

	opts, err := app.sessionOptions()
	if err != nil {
		return err
	}

	// with --json the human report goes to stderr
	human := cmd.OutOrStdout()
	if jsonFlag {
		human = cmd.ErrOrStderr()
	}
	reporter := stress.NewReporter(
		stress.WithWriter(human),
		stress.WithNoColor(app.config.GetNoColor()),
		stress.WithNoProgress(stressNoProgressFlag || jsonFlag),
		stress.WithVerbose(app.config.GetVerbose()),
	)

	runner := stress.NewRunner(cfg, addr, []stress.Target{target},
		stress.WithReporter(reporter),
		stress.WithUserAgent(app.config.UserAgent),
		stress.WithSessionOptions(opts...),
		stress.WithLogger(app.logger.With().Str("component", "stress").Logger()),
	)

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	result, err := runner.Run(ctx)
	if err != nil {
		return err
	}

	if jsonFlag {
		summary := stress.NewReporter(stress.WithWriter(cmd.OutOrStdout()), stress.WithNoColor(true))
		if err := summary.JSONSummary(result.Summary, result.Thresholds); err != nil {
			return err
		}
	}

	if stressPrometheusFlag != "" {
		if err := writePrometheusFile(stressPrometheusFlag, addr.String()+path, result.Summary); err != nil {
			return err
		}
	}

	if result.HasThresholdFailures() {
		return reported(ExitRequestFailure, fmt.Errorf("thresholds failed"))
	}
	return nil
}

func buildStressConfig() (*stress.Config, error) {
	cfg := stress.DefaultConfig()
	cfg.Requests = stressRequestsFlag
	cfg.Workers = stressWorkersFlag
	cfg.Rate = stressRateFlag
	cfg.Duration = stressDurationFlag
	cfg.ThinkTime = stressThinkTimeFlag
	cfg.RampUp = stressRampUpFlag
	if stressVUsFlag {
		cfg.Mode = stress.VUMode
	}

	if stressThresholdFlag != "" {
		t, err := stress.ParseThresholds(stressThresholdFlag)
		if err != nil {
			return nil, fmt.Errorf("invalid thresholds: %w", err)
		}
		cfg.Thresholds = t
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func writePrometheusFile(path, target string, summary *stress.Summary) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create metrics file: %w", err)
	}
	if err := stress.WritePrometheus(f, target, summary); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}
