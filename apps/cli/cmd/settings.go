package cmd

import (
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/abdul-hamid-achik/hitclient/packages/core/config"
	"github.com/abdul-hamid-achik/hitclient/packages/core/env"
	"github.com/abdul-hamid-achik/hitclient/packages/log"
	"github.com/abdul-hamid-achik/hitclient/packages/output"
	"github.com/abdul-hamid-achik/hitclient/packages/session"
)

// settings is what every command runs with once flags, config and env
// files have been combined
type settings struct {
	config   *config.Config
	resolver *env.Resolver
	logger   *log.Logger
}

var app = settings{
	config:   config.DefaultConfig(),
	resolver: env.NewResolver(),
	logger:   log.Nop(),
}

func getEnvString(key, defaultVal string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return defaultVal
}

func getEnvBool(key string, defaultVal bool) bool {
	if val := os.Getenv(key); val != "" {
		return val == "true" || val == "1" || val == "yes"
	}
	return defaultVal
}

func getEnvInt(key string, defaultVal int) int {
	if val := os.Getenv(key); val != "" {
		if i, err := strconv.Atoi(val); err == nil {
			return i
		}
	}
	return defaultVal
}

// loadSettings runs before every command
func loadSettings(cmd *cobra.Command, _ []string) error {
	fileConfig, err := config.LoadConfig(configFlag)
	if err != nil {
		return withExitCode(ExitConfigError, err)
	}

	resolver, err := env.Load(envFileFlag...)
	if err != nil {
		return withExitCode(ExitConfigError, fmt.Errorf("failed to load env file: %w", err))
	}

	cfg := config.DefaultConfig().Merge(fileConfig)
	if cmd.Flags().Changed("no-color") {
		cfg.NoColor = config.BoolPtr(noColorFlag)
	}
	if cmd.Flags().Changed("verbose") {
		cfg.Verbose = config.BoolPtr(verboseFlag)
	}
	if logLevelFlag != "" {
		cfg.LogLevel = logLevelFlag
	}
	cfg = cfg.Resolve(resolver.Resolve)

	logger, err := newLogger(cmd.ErrOrStderr(), cfg)
	if err != nil {
		return withExitCode(ExitConfigError, err)
	}

	resolver.SetWarnFunc(func(format string, args ...any) {
		logger.Warn().Msgf(format, args...)
	})

	if cfg.GetNoColor() {
		color.NoColor = true
	}

	app = settings{config: cfg, resolver: resolver, logger: logger}
	return nil
}

func newLogger(w io.Writer, cfg *config.Config) (*log.Logger, error) {
	level, err := log.ParseLevel(cfg.LogLevel)
	if err != nil {
		return nil, err
	}

	opts := []log.Option{log.WithLevel(level)}
	switch strings.ToLower(cfg.LogFormat) {
	case "", "console":
		opts = append(opts, log.WithConsole(cfg.GetNoColor()))
	case "json":
	default:
		return nil, fmt.Errorf("unknown log format %q", cfg.LogFormat)
	}
	return log.New(w, opts...), nil
}

// sessionOptions translates the settings into session options
func (s settings) sessionOptions() ([]session.Option, error) {
	proxyType, err := session.ParseProxyType(s.config.ProxyType)
	if err != nil {
		return nil, withExitCode(ExitConfigError, err)
	}

	opts := []session.Option{
		session.WithLogger(s.logger.With().Str("component", "session").Logger()),
		session.WithProxy(proxyType, s.config.Proxy, s.config.ProxyBypass),
	}
	if s.config.BaseDir != "" {
		opts = append(opts, session.WithBaseDir(s.config.BaseDir))
	}
	if s.config.GetMultiThread() {
		opts = append(opts, session.WithMultiThread())
	}
	return opts, nil
}

func (s settings) formatter(w io.Writer, quiet bool) output.Formatter {
	if jsonFlag {
		return output.NewJSONFormatter(output.JSONWithWriter(w))
	}
	return output.NewConsoleFormatter(
		output.WithWriter(w),
		output.WithNoColor(s.config.GetNoColor()),
		output.WithVerbose(s.config.GetVerbose()),
		output.WithQuiet(quiet),
	)
}
