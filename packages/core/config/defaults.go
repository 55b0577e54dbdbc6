package config

// DefaultUserAgent is sent when no user agent is configured
const DefaultUserAgent = "hitclient/1.0"

// DefaultConfig returns a configuration with default values
func DefaultConfig() *Config {
	return &Config{
		UserAgent:   DefaultUserAgent,
		Host:        "localhost",
		Port:        8000,
		Secure:      BoolPtr(false),
		ProxyType:   "default",
		MultiThread: BoolPtr(false),
		NoColor:     BoolPtr(false),
		Verbose:     BoolPtr(false),
		LogLevel:    "warn",
		LogFormat:   "console",
	}
}

// IsDefault returns true if the config matches defaults
func (c *Config) IsDefault() bool {
	defaults := DefaultConfig()
	return c.UserAgent == defaults.UserAgent &&
		c.Host == defaults.Host &&
		c.Port == defaults.Port &&
		c.GetSecure() == defaults.GetSecure() &&
		c.ProxyType == defaults.ProxyType &&
		c.Proxy == defaults.Proxy &&
		c.ProxyBypass == defaults.ProxyBypass &&
		len(c.Headers) == 0 &&
		c.BaseDir == defaults.BaseDir &&
		c.GetMultiThread() == defaults.GetMultiThread() &&
		c.GetNoColor() == defaults.GetNoColor() &&
		c.GetVerbose() == defaults.GetVerbose() &&
		c.LogLevel == defaults.LogLevel &&
		c.LogFormat == defaults.LogFormat &&
		c.HistoryDB == defaults.HistoryDB
}
