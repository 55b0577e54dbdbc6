package env

import (
	"encoding/base64"
	"fmt"
	"math/rand"
	"net/url"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
)

// Func is a built-in function callable as {{name(args)}}
type Func func(args []string) any

// Functions is a registry of built-in functions
type Functions struct {
	funcs map[string]Func
}

func NewFunctions() *Functions {
	f := &Functions{funcs: make(map[string]Func)}
	f.funcs["now"] = funcNow
	f.funcs["timestamp"] = funcTimestamp
	f.funcs["timestampMs"] = funcTimestampMs
	f.funcs["uuid"] = funcUUID
	f.funcs["random"] = funcRandom
	f.funcs["randomEmail"] = funcRandomEmail
	f.funcs["base64"] = funcBase64
	f.funcs["urlEncode"] = funcURLEncode
	return f
}

func (f *Functions) Register(name string, fn Func) {
	f.funcs[name] = fn
}

var funcCallPattern = regexp.MustCompile(`^(\w+)\((.*)\)$`)

// Call evaluates an expression like name(arg1, "arg 2")
func (f *Functions) Call(expr string) (any, bool) {
	matches := funcCallPattern.FindStringSubmatch(expr)
	if matches == nil {
		return nil, false
	}

	fn, ok := f.funcs[matches[1]]
	if !ok {
		return nil, false
	}

	var args []string
	if matches[2] != "" {
		args = parseArgs(matches[2])
	}
	return fn(args), true
}

func parseArgs(s string) []string {
	var args []string
	var current strings.Builder
	inQuote := false
	quoteChar := byte(0)

	for i := 0; i < len(s); i++ {
		ch := s[i]
		switch {
		case !inQuote && (ch == '"' || ch == '\''):
			inQuote = true
			quoteChar = ch
		case inQuote && ch == quoteChar:
			inQuote = false
			quoteChar = 0
		case !inQuote && ch == ',':
			args = append(args, strings.TrimSpace(current.String()))
			current.Reset()
		default:
			current.WriteByte(ch)
		}
	}

	if current.Len() > 0 {
		args = append(args, strings.TrimSpace(current.String()))
	}
	return args
}

func funcNow(_ []string) any {
	return time.Now().UTC().Format(time.RFC3339)
}

func funcTimestamp(_ []string) any {
	return time.Now().Unix()
}

func funcTimestampMs(_ []string) any {
	return time.Now().UnixMilli()
}

func funcUUID(_ []string) any {
	return uuid.New().String()
}

func funcRandom(args []string) any {
	lo, hi := 0, 100
	if len(args) >= 2 {
		if v, err := strconv.Atoi(args[0]); err == nil {
			lo = v
		}
		if v, err := strconv.Atoi(args[1]); err == nil {
			hi = v
		}
	}
	if hi < lo {
		lo, hi = hi, lo
	}
	return rand.Intn(hi-lo+1) + lo
}

func funcRandomEmail(_ []string) any {
	return fmt.Sprintf("user_%s@example.com", strings.ReplaceAll(uuid.New().String()[:8], "-", ""))
}

func funcBase64(args []string) any {
	if len(args) == 0 {
		return ""
	}
	return base64.StdEncoding.EncodeToString([]byte(args[0]))
}

func funcURLEncode(args []string) any {
	if len(args) == 0 {
		return ""
	}
	return url.QueryEscape(args[0])
}
