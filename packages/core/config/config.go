package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"
)

// Config represents the hitclient configuration
type Config struct {
	UserAgent   string            `json:"userAgent,omitempty" yaml:"userAgent,omitempty"`
	Host        string            `json:"host,omitempty" yaml:"host,omitempty"`
	Port        int               `json:"port,omitempty" yaml:"port,omitempty"`
	Secure      *bool             `json:"secure,omitempty" yaml:"secure,omitempty"`
	ProxyType   string            `json:"proxyType,omitempty" yaml:"proxyType,omitempty"` // default, none, named, automatic
	Proxy       string            `json:"proxy,omitempty" yaml:"proxy,omitempty"`
	ProxyBypass string            `json:"proxyBypass,omitempty" yaml:"proxyBypass,omitempty"`
	Headers     map[string]string `json:"headers,omitempty" yaml:"headers,omitempty"` // Default headers for all requests
	BaseDir     string            `json:"baseDir,omitempty" yaml:"baseDir,omitempty"` // Root for relative form file paths
	MultiThread *bool             `json:"multiThread,omitempty" yaml:"multiThread,omitempty"`
	NoColor     *bool             `json:"noColor,omitempty" yaml:"noColor,omitempty"`
	Verbose     *bool             `json:"verbose,omitempty" yaml:"verbose,omitempty"`
	LogLevel    string            `json:"logLevel,omitempty" yaml:"logLevel,omitempty"`
	LogFormat   string            `json:"logFormat,omitempty" yaml:"logFormat,omitempty"` // console or json
	HistoryDB   string            `json:"historyDB,omitempty" yaml:"historyDB,omitempty"`
}

// BoolPtr returns a pointer to a bool value
func BoolPtr(b bool) *bool {
	return &b
}

// getBool returns the value of a bool pointer, or the default if nil
func getBool(b *bool, defaultVal bool) bool {
	if b == nil {
		return defaultVal
	}
	return *b
}

// GetSecure returns the secure setting, defaulting to false
func (c *Config) GetSecure() bool {
	return getBool(c.Secure, false)
}

// GetMultiThread returns the multi-thread setting, defaulting to false
func (c *Config) GetMultiThread() bool {
	return getBool(c.MultiThread, false)
}

// GetNoColor returns the no color setting, defaulting to false
func (c *Config) GetNoColor() bool {
	return getBool(c.NoColor, false)
}

// GetVerbose returns the verbose setting, defaulting to false
func (c *Config) GetVerbose() bool {
	return getBool(c.Verbose, false)
}

// ConfigFilenames contains the possible config file names, in search order
var ConfigFilenames = []string{
	".hitclient.yaml",
	".hitclient.yml",
	".hitclient.json",
	"hitclient.config.json",
}

// LoadConfig loads configuration from the specified path or searches for config files
func LoadConfig(path string) (*Config, error) {
	if path != "" {
		return loadConfigFromFile(path)
	}

	// Search for config file in current directory
	return FindAndLoadConfig(".")
}

// FindAndLoadConfig searches for a config file in the given directory
func FindAndLoadConfig(dir string) (*Config, error) {
	for _, filename := range ConfigFilenames {
		configPath := filepath.Join(dir, filename)
		if _, err := os.Stat(configPath); err == nil {
			return loadConfigFromFile(configPath)
		}
	}

	// Return defaults if no config file found
	return DefaultConfig(), nil
}

// loadConfigFromFile loads configuration from a specific file. The format
// follows the extension; anything other than .json is read as YAML.
func loadConfigFromFile(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	config := DefaultConfig()
	if strings.EqualFold(filepath.Ext(path), ".json") {
		err = json.Unmarshal(data, config)
	} else {
		err = yaml.Unmarshal(data, config)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to parse config %s: %w", path, err)
	}

	return config, nil
}

// Merge merges another config into this one, with other taking precedence
func (c *Config) Merge(other *Config) *Config {
	if other == nil {
		return c
	}

	result := *c // Copy

	if other.UserAgent != "" {
		result.UserAgent = other.UserAgent
	}
	if other.Host != "" {
		result.Host = other.Host
	}
	if other.Port > 0 {
		result.Port = other.Port
	}
	if other.ProxyType != "" {
		result.ProxyType = other.ProxyType
	}
	if other.Proxy != "" {
		result.Proxy = other.Proxy
	}
	if other.ProxyBypass != "" {
		result.ProxyBypass = other.ProxyBypass
	}
	if other.BaseDir != "" {
		result.BaseDir = other.BaseDir
	}
	if other.LogLevel != "" {
		result.LogLevel = other.LogLevel
	}
	if other.LogFormat != "" {
		result.LogFormat = other.LogFormat
	}
	if other.HistoryDB != "" {
		result.HistoryDB = other.HistoryDB
	}

	// Boolean flags - only override if explicitly set in other config
	if other.Secure != nil {
		result.Secure = other.Secure
	}
	if other.MultiThread != nil {
		result.MultiThread = other.MultiThread
	}
	if other.NoColor != nil {
		result.NoColor = other.NoColor
	}
	if other.Verbose != nil {
		result.Verbose = other.Verbose
	}

	// Merge headers
	if len(other.Headers) > 0 {
		headers := make(map[string]string, len(c.Headers)+len(other.Headers))
		for k, v := range c.Headers {
			headers[k] = v
		}
		for k, v := range other.Headers {
			headers[k] = v
		}
		result.Headers = headers
	}

	return &result
}

// Resolve expands variable references in string settings with resolve
func (c *Config) Resolve(resolve func(string) string) *Config {
	result := *c
	result.UserAgent = resolve(c.UserAgent)
	result.Host = resolve(c.Host)
	result.Proxy = resolve(c.Proxy)
	result.ProxyBypass = resolve(c.ProxyBypass)
	result.BaseDir = resolve(c.BaseDir)
	result.HistoryDB = resolve(c.HistoryDB)
	if len(c.Headers) > 0 {
		result.Headers = make(map[string]string, len(c.Headers))
		for k, v := range c.Headers {
			result.Headers[k] = resolve(v)
		}
	}
	return &result
}

// SaveConfig saves the configuration to a file, as JSON for .json paths and YAML otherwise
func (c *Config) SaveConfig(path string) error {
	var (
		data []byte
		err  error
	)
	if strings.EqualFold(filepath.Ext(path), ".json") {
		data, err = json.MarshalIndent(c, "", "  ")
	} else {
		data, err = yaml.Marshal(c)
	}
	if err != nil {
		return err
	}

	return os.WriteFile(path, data, 0644)
}
