package session

import (
	"bytes"
	"runtime"
	"strconv"
)

var goroutinePrefix = []byte("goroutine ")

// goroutineID parses the current goroutine's id from the header line of its
// stack trace ("goroutine 42 [running]:").
func goroutineID() uint64 {
	var buf [64]byte
	n := runtime.Stack(buf[:], false)
	b := bytes.TrimPrefix(buf[:n], goroutinePrefix)
	if i := bytes.IndexByte(b, ' '); i >= 0 {
		b = b[:i]
	}
	id, err := strconv.ParseUint(string(b), 10, 64)
	if err != nil {
		return 0
	}
	return id
}

func (s *Session) checkOwner(op string) {
	if s.multiThread.Load() {
		return
	}
	if caller := goroutineID(); caller != s.owner {
		panic(&OwnerViolation{Op: op, Owner: s.owner, Caller: caller})
	}
}
