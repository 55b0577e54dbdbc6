package session

import (
	"errors"
	"fmt"
)

// ErrorKind is the last-error value recorded on a Session.
// ErrorKind implements error so it can be used as an errors.Is target.
type ErrorKind int

const (
	ErrNone ErrorKind = iota

	ErrSessionCreationFailed
	ErrSessionNotAvailable

	ErrConnectionFailed
	ErrConnectionNotAvailable

	ErrRequestFailed
	ErrRequestNotAvailable

	ErrHeaderAddFailed
)

func (k ErrorKind) String() string {
	switch k {
	case ErrNone:
		return "None"
	case ErrSessionCreationFailed:
		return "Session creation failed!"
	case ErrSessionNotAvailable:
		return "Session not available!"
	case ErrConnectionFailed:
		return "Connection failed!"
	case ErrConnectionNotAvailable:
		return "Connection not available!"
	case ErrRequestFailed:
		return "Request failed!"
	case ErrRequestNotAvailable:
		return "Request not available!"
	case ErrHeaderAddFailed:
		return "Headers add failed!"
	default:
		return fmt.Sprintf("ErrorKind(%d)", int(k))
	}
}

func (k ErrorKind) Error() string {
	return k.String()
}

// Error is returned by every failing Session operation
type Error struct {
	Op   string
	Kind ErrorKind
	Err  error
}

func (e *Error) Error() string {
	if e.Err == nil {
		return fmt.Sprintf("%s: %s", e.Op, e.Kind)
	}
	return fmt.Sprintf("%s: %s: %v", e.Op, e.Kind, e.Err)
}

func (e *Error) Unwrap() error {
	return e.Err
}

// Is reports whether target is the ErrorKind of e
func (e *Error) Is(target error) bool {
	kind, ok := target.(ErrorKind)
	return ok && kind == e.Kind
}

// KindOf returns the ErrorKind carried by err, or ErrNone
func KindOf(err error) ErrorKind {
	var se *Error
	if errors.As(err, &se) {
		return se.Kind
	}
	return ErrNone
}

// OwnerViolation is the panic value raised when a session is driven from a
// goroutine other than the one that created it.
type OwnerViolation struct {
	Op     string
	Owner  uint64
	Caller uint64
}

func (v *OwnerViolation) Error() string {
	return fmt.Sprintf("session: %s called from goroutine %d, session is owned by goroutine %d; "+
		"call AllowMultiThread() to permit use from other goroutines", v.Op, v.Caller, v.Owner)
}

var (
	errNoSession       = errors.New("session handle is absent")
	errNotSent         = errors.New("request has not been sent")
	errAlreadySent     = errors.New("request was already sent")
	errRequestReplaced = errors.New("request was replaced by a later request")
	errInvalidTarget   = errors.New("invalid connection target")
)
