package env

import (
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strconv"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func fakeEnv(vars map[string]string) func(string) (string, bool) {
	return func(name string) (string, bool) {
		v, ok := vars[name]
		return v, ok
	}
}

func TestResolverResolve(t *testing.T) {
	tests := []struct {
		name      string
		input     string
		variables map[string]any
		environ   map[string]string
		expected  string
	}{
		{
			name:     "no variables",
			input:    "hello world",
			expected: "hello world",
		},
		{
			name:      "simple variable",
			input:     "hello {{name}}",
			variables: map[string]any{"name": "world"},
			expected:  "hello world",
		},
		{
			name:      "multiple variables",
			input:     "{{greeting}} {{ name }}!",
			variables: map[string]any{"greeting": "Hello", "name": "World"},
			expected:  "Hello World!",
		},
		{
			name:      "non-string variable",
			input:     "port {{port}}",
			variables: map[string]any{"port": 8000},
			expected:  "port 8000",
		},
		{
			name:     "dollar brace env",
			input:    "Bearer ${TOKEN}",
			environ:  map[string]string{"TOKEN": "abc"},
			expected: "Bearer abc",
		},
		{
			name:     "mustache env",
			input:    "{{$HOME_DIR}}/file",
			environ:  map[string]string{"HOME_DIR": "/home/me"},
			expected: "/home/me/file",
		},
		{
			name:      "env falls back to variables",
			input:     "${API_KEY}",
			variables: map[string]any{"API_KEY": "from-dotenv"},
			expected:  "from-dotenv",
		},
		{
			name:      "process env wins over variables",
			input:     "${API_KEY}",
			variables: map[string]any{"API_KEY": "from-dotenv"},
			environ:   map[string]string{"API_KEY": "from-env"},
			expected:  "from-env",
		},
		{
			name:     "unresolved stays as-is",
			input:    "hello {{unknown}} ${MISSING} {{$ALSO_MISSING}}",
			expected: "hello {{unknown}} ${MISSING} {{$ALSO_MISSING}}",
		},
		{
			name:     "function call",
			input:    "{{base64(\"user:pass\")}}",
			expected: "dXNlcjpwYXNz",
		},
		{
			name:     "unknown function",
			input:    "{{nope()}}",
			expected: "{{nope()}}",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := NewResolver()
			r.lookupEnv = fakeEnv(tt.environ)
			if tt.variables != nil {
				r.SetVariables(tt.variables)
			}

			assert.Equal(t, tt.expected, r.Resolve(tt.input))
		})
	}
}

func TestResolverWarnings(t *testing.T) {
	r := NewResolver()
	r.lookupEnv = fakeEnv(nil)

	var warnings []string
	r.SetWarnFunc(func(format string, args ...any) {
		warnings = append(warnings, fmt.Sprintf(format, args...))
	})

	r.Resolve("{{missing}} ${GONE} {{bad()}}")
	assert.Equal(t, []string{
		"unresolved environment variable: ${GONE}",
		"unresolved variable: missing",
		"unresolved function call: bad()",
	}, warnings)
}

func TestResolverUnresolved(t *testing.T) {
	r := NewResolver()
	r.lookupEnv = fakeEnv(map[string]string{"SET": "1"})
	r.SetVariable("known", "yes")

	warned := false
	r.SetWarnFunc(func(string, ...any) { warned = true })

	refs := r.Unresolved("{{known}} {{b}} ${SET} ${UNSET} {{b}} {{a}}")
	assert.Equal(t, []string{"${UNSET}", "{{a}}", "{{b}}"}, refs)
	assert.False(t, warned)

	assert.Empty(t, r.Unresolved("{{known}} ${SET}"))
}

func TestResolverResolveAllAndClone(t *testing.T) {
	r := NewResolver()
	r.SetStrings(map[string]string{"token": "t1"})

	headers := r.ResolveAll(map[string]string{"Authorization": "Bearer {{token}}"})
	assert.Equal(t, "Bearer t1", headers["Authorization"])

	clone := r.Clone()
	clone.SetVariable("token", "t2")
	assert.Equal(t, "t1", r.Resolve("{{token}}"))
	assert.Equal(t, "t2", clone.Resolve("{{token}}"))
}

func TestFunctions(t *testing.T) {
	f := NewFunctions()

	v, ok := f.Call("uuid()")
	require.True(t, ok)
	assert.Regexp(t, regexp.MustCompile(`^[0-9a-f-]{36}$`), v)

	v, ok = f.Call("random(5, 5)")
	require.True(t, ok)
	assert.Equal(t, 5, v)

	v, ok = f.Call("random(10, 1)")
	require.True(t, ok)
	assert.GreaterOrEqual(t, v, 1)
	assert.LessOrEqual(t, v, 10)

	v, ok = f.Call("urlEncode('a b&c')")
	require.True(t, ok)
	assert.Equal(t, "a+b%26c", v)

	v, ok = f.Call("randomEmail()")
	require.True(t, ok)
	assert.Regexp(t, `^user_[0-9a-f]+@example\.com$`, v)

	v, ok = f.Call("timestamp()")
	require.True(t, ok)
	assert.Positive(t, v)

	f.Register("twice", func(args []string) any { return args[0] + args[0] })
	v, ok = f.Call(`twice("ab")`)
	require.True(t, ok)
	assert.Equal(t, "abab", v)

	_, ok = f.Call("not a call")
	assert.False(t, ok)
}

func TestParseArgs(t *testing.T) {
	assert.Equal(t, []string{"a", "b, c", "d"}, parseArgs(`a, "b, c", 'd'`))
	assert.Nil(t, parseArgs(""))
}

func TestLoad(t *testing.T) {
	dir := t.TempDir()
	first := filepath.Join(dir, "a.env")
	second := filepath.Join(dir, "b.env")
	require.NoError(t, os.WriteFile(first, []byte("HOST=one\nPORT=1\n"), 0644))
	require.NoError(t, os.WriteFile(second, []byte("PORT=2\n"), 0644))

	r, err := Load(first, second)
	require.NoError(t, err)
	r.lookupEnv = fakeEnv(nil)
	assert.Equal(t, "one:2", r.Resolve("{{HOST}}:${PORT}"))

	_, err = Load(filepath.Join(dir, "missing.env"))
	assert.Error(t, err)
}

func TestLoadDefaultsSkipMissing(t *testing.T) {
	t.Chdir(t.TempDir())

	r, err := Load()
	require.NoError(t, err)
	_, ok := r.GetVariable("ANYTHING")
	assert.False(t, ok)

	require.NoError(t, os.WriteFile(".env", []byte("A=1\n"), 0644))
	require.NoError(t, os.WriteFile(".env.local", []byte("A=2\n"), 0644))
	r, err = Load()
	require.NoError(t, err)
	v, _ := r.GetVariable("A")
	assert.Equal(t, "2", v)
}

func TestLoadSystemEnv(t *testing.T) {
	t.Setenv("HITCLIENT_TEST_HOST", "example.com")

	vars := LoadSystemEnv("HITCLIENT_TEST_")
	assert.Equal(t, "example.com", vars["HOST"])

	all := LoadSystemEnv("")
	assert.Equal(t, "example.com", all["HITCLIENT_TEST_HOST"])
}

func TestMergeVariables(t *testing.T) {
	merged := MergeVariables(map[string]any{"a": 1, "b": 1}, map[string]any{"b": 2})
	assert.Equal(t, map[string]any{"a": 1, "b": 2}, merged)
	assert.Equal(t, strconv.Itoa(2), fmt.Sprint(merged["b"]))
}
