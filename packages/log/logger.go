// Package log builds the structured loggers used across hitclient.
package log

import (
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/rs/zerolog"
)

// Logger wraps a zerolog.Logger with the writer it was built on
type Logger struct {
	zerolog.Logger
	writer  io.Writer
	console bool
	noColor bool
}

// Option configures a Logger
type Option func(*Logger)

// WithLevel sets the minimum level
func WithLevel(level zerolog.Level) Option {
	return func(l *Logger) {
		l.Logger = l.Logger.Level(level)
	}
}

// WithCaller adds the caller file and line to every event
func WithCaller() Option {
	return func(l *Logger) {
		l.Logger = l.Logger.With().Caller().Logger()
	}
}

// WithConsole renders human readable lines instead of JSON
func WithConsole(noColor bool) Option {
	return func(l *Logger) {
		l.console = true
		l.noColor = noColor
	}
}

// WithComponent tags every event with a component name
func WithComponent(name string) Option {
	return func(l *Logger) {
		l.Logger = l.Logger.With().Str("component", name).Logger()
	}
}

func init() {
	zerolog.TimeFieldFormat = time.RFC3339
}

// New builds a logger writing to w
func New(w io.Writer, opts ...Option) *Logger {
	l := &Logger{writer: w}

	// first pass only collects the output format
	format := &Logger{Logger: zerolog.Nop()}
	for _, opt := range opts {
		opt(format)
	}

	out := w
	if format.console {
		out = zerolog.ConsoleWriter{Out: w, NoColor: format.noColor, TimeFormat: time.TimeOnly}
	}
	l.console = format.console
	l.noColor = format.noColor
	l.Logger = zerolog.New(out).With().Timestamp().Logger()

	for _, opt := range opts {
		opt(l)
	}
	return l
}

// NewStderr builds a console logger on stderr
func NewStderr(opts ...Option) *Logger {
	return New(os.Stderr, append([]Option{WithConsole(false)}, opts...)...)
}

// Nop returns a logger that discards everything
func Nop() *Logger {
	return &Logger{Logger: zerolog.Nop(), writer: io.Discard}
}

// Writer returns the underlying writer
func (l *Logger) Writer() io.Writer {
	return l.writer
}

// ParseLevel parses a level name. An empty name means info.
func ParseLevel(name string) (zerolog.Level, error) {
	name = strings.ToLower(strings.TrimSpace(name))
	if name == "" {
		return zerolog.InfoLevel, nil
	}
	if name == "warning" {
		name = "warn"
	}
	level, err := zerolog.ParseLevel(name)
	if err != nil || level == zerolog.NoLevel {
		return zerolog.NoLevel, fmt.Errorf("unknown log level %q", name)
	}
	return level, nil
}
