package env

import (
	"fmt"
	"os"
	"regexp"
	"sort"
	"strings"
	"sync"
)

var (
	variablePattern    = regexp.MustCompile(`\{\{([^}]+)\}\}`)
	envVariablePattern = regexp.MustCompile(`\$\{([A-Za-z_][A-Za-z0-9_]*)\}`)
)

// WarnFunc is a function type for handling warnings
type WarnFunc func(format string, args ...any)

// Resolver expands variable references in strings.
//
// Supported forms:
//   - ${VAR} and {{$VAR}} read the process environment
//   - {{name}} reads a variable set on the resolver
//   - {{fn(args)}} calls a built-in function such as uuid() or timestamp()
//
// Unresolved references are left in place.
type Resolver struct {
	mu        sync.RWMutex
	variables map[string]any
	funcs     *Functions
	lookupEnv func(string) (string, bool)
	warnFunc  WarnFunc
}

func NewResolver() *Resolver {
	return &Resolver{
		variables: make(map[string]any),
		funcs:     NewFunctions(),
		lookupEnv: os.LookupEnv,
	}
}

// SetWarnFunc sets a function to be called when warnings occur (e.g., unresolved variables)
func (r *Resolver) SetWarnFunc(fn WarnFunc) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.warnFunc = fn
}

func (r *Resolver) warn(format string, args ...any) {
	r.mu.RLock()
	fn := r.warnFunc
	r.mu.RUnlock()
	if fn != nil {
		fn(format, args...)
	}
}

func (r *Resolver) SetVariables(vars map[string]any) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for k, v := range vars {
		r.variables[k] = v
	}
}

// SetStrings adds string variables, as loaded from a .env file
func (r *Resolver) SetStrings(vars map[string]string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for k, v := range vars {
		r.variables[k] = v
	}
}

func (r *Resolver) SetVariable(name string, value any) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.variables[name] = value
}

func (r *Resolver) GetVariable(name string) (any, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	v, ok := r.variables[name]
	return v, ok
}

// Resolve expands every reference in input
func (r *Resolver) Resolve(input string) string {
	out := envVariablePattern.ReplaceAllStringFunc(input, func(match string) string {
		name := match[2 : len(match)-1]
		if val, ok := r.lookup(name); ok {
			return val
		}
		r.warn("unresolved environment variable: ${%s}", name)
		return match
	})

	return variablePattern.ReplaceAllStringFunc(out, func(match string) string {
		expr := strings.TrimSpace(match[2 : len(match)-2])

		if strings.HasPrefix(expr, "$") {
			name := expr[1:]
			if val, ok := r.lookup(name); ok {
				return val
			}
			r.warn("unresolved environment variable: $%s", name)
			return match
		}

		if strings.Contains(expr, "(") {
			if result, ok := r.funcs.Call(expr); ok {
				return fmt.Sprintf("%v", result)
			}
			r.warn("unresolved function call: %s", expr)
			return match
		}

		if val, ok := r.GetVariable(expr); ok {
			return fmt.Sprintf("%v", val)
		}

		r.warn("unresolved variable: %s", expr)
		return match
	})
}

// lookup reads the process environment, falling back to resolver variables
// so values from a .env file work without being exported.
func (r *Resolver) lookup(name string) (string, bool) {
	if val, ok := r.lookupEnv(name); ok && val != "" {
		return val, true
	}
	if val, ok := r.GetVariable(name); ok {
		return fmt.Sprintf("%v", val), true
	}
	return "", false
}

func (r *Resolver) ResolveAll(values map[string]string) map[string]string {
	result := make(map[string]string, len(values))
	for k, v := range values {
		result[k] = r.Resolve(v)
	}
	return result
}

// Unresolved returns the distinct references Resolve would leave in input
func (r *Resolver) Unresolved(input string) []string {
	saved := r.swapWarn(nil)
	resolved := r.Resolve(input)
	r.swapWarn(saved)

	seen := make(map[string]bool)
	for _, m := range envVariablePattern.FindAllString(resolved, -1) {
		seen[m] = true
	}
	for _, m := range variablePattern.FindAllString(resolved, -1) {
		seen[m] = true
	}

	refs := make([]string, 0, len(seen))
	for m := range seen {
		refs = append(refs, m)
	}
	sort.Strings(refs)
	return refs
}

func (r *Resolver) swapWarn(fn WarnFunc) WarnFunc {
	r.mu.Lock()
	defer r.mu.Unlock()
	old := r.warnFunc
	r.warnFunc = fn
	return old
}

func (r *Resolver) Clone() *Resolver {
	r.mu.RLock()
	defer r.mu.RUnlock()
	clone := NewResolver()
	clone.lookupEnv = r.lookupEnv
	clone.warnFunc = r.warnFunc
	for k, v := range r.variables {
		clone.variables[k] = v
	}
	return clone
}
