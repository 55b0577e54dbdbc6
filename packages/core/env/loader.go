package env

import (
	"os"
	"strings"
)

// DefaultEnvFiles are loaded in order when no env file is given. Later files override earlier ones.
var DefaultEnvFiles = []string{".env", ".env.local"}

// Load builds a resolver seeded from env files. With no paths the default
// files are loaded if they exist; explicitly named files must exist.
func Load(paths ...string) (*Resolver, error) {
	r := NewResolver()

	if len(paths) == 0 {
		for _, path := range DefaultEnvFiles {
			if _, err := os.Stat(path); err != nil {
				continue
			}
			vars, err := LoadDotEnv(path)
			if err != nil {
				return nil, err
			}
			r.SetStrings(vars)
		}
		return r, nil
	}

	for _, path := range paths {
		vars, err := LoadDotEnv(path)
		if err != nil {
			return nil, err
		}
		r.SetStrings(vars)
	}
	return r, nil
}

func MergeVariables(sources ...map[string]any) map[string]any {
	result := make(map[string]any)
	for _, src := range sources {
		for k, v := range src {
			result[k] = v
		}
	}
	return result
}

// LoadSystemEnv returns the process environment. With a prefix, only
// matching keys are returned, with the prefix stripped.
func LoadSystemEnv(prefix string) map[string]any {
	result := make(map[string]any)
	for _, e := range os.Environ() {
		key, value, ok := strings.Cut(e, "=")
		if !ok {
			continue
		}
		if prefix == "" {
			result[key] = value
		} else if rest, found := strings.CutPrefix(key, prefix); found && rest != "" {
			result[rest] = value
		}
	}
	return result
}
