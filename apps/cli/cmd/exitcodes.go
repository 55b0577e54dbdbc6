package cmd

import (
	"errors"

	"github.com/abdul-hamid-achik/hitclient/packages/http"
	"github.com/abdul-hamid-achik/hitclient/packages/session"
)

// Exit codes for hitclient CLI
const (
	// ExitSuccess indicates the request succeeded
	ExitSuccess = 0

	// ExitRequestFailure indicates a non-2xx response, a schema violation or
	// failed stress thresholds
	ExitRequestFailure = 1

	// ExitConfigError indicates a configuration error
	ExitConfigError = 3

	// ExitNetworkError indicates a network/connection error
	ExitNetworkError = 4

	// ExitUsageError indicates invalid CLI usage
	ExitUsageError = 64
)

// exitError carries the exit code for err. A reported error has already
// been shown to the user.
type exitError struct {
	code     int
	err      error
	reported bool
}

func (e *exitError) Error() string {
	return e.err.Error()
}

func (e *exitError) Unwrap() error {
	return e.err
}

func withExitCode(code int, err error) error {
	if err == nil {
		return nil
	}
	return &exitError{code: code, err: err}
}

func reported(code int, err error) error {
	if err == nil {
		return nil
	}
	return &exitError{code: code, err: err, reported: true}
}

func isReported(err error) bool {
	var ee *exitError
	return errors.As(err, &ee) && ee.reported
}

// exitCode maps an error returned by a command to a process exit code
func exitCode(err error) int {
	if err == nil {
		return ExitSuccess
	}

	var ee *exitError
	if errors.As(err, &ee) {
		return ee.code
	}

	switch {
	case errors.Is(err, http.ErrMissingTarget), errors.Is(err, http.ErrEmptyForm):
		return ExitUsageError
	case errors.Is(err, http.ErrConnectionNotAvailable):
		return ExitNetworkError
	}

	switch session.KindOf(err) {
	case session.ErrSessionCreationFailed:
		return ExitConfigError
	case session.ErrConnectionFailed, session.ErrRequestFailed:
		return ExitNetworkError
	case session.ErrNone:
		return ExitRequestFailure
	default:
		return ExitUsageError
	}
}
