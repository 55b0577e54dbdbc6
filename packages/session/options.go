package session

import (
	"fmt"
	"net"
	"net/http"
	"net/url"
	"strings"

	"github.com/rs/zerolog"
)

// Doer sends a single HTTP request. *http.Client satisfies it.
type Doer interface {
	Do(req *http.Request) (*http.Response, error)
}

// ProxyType selects how the session's transport reaches the network
type ProxyType int

const (
	// DefaultProxy uses the proxy configured in the environment
	DefaultProxy ProxyType = iota
	// NoProxy always connects directly
	NoProxy
	// NamedProxy uses the proxy given by name, except for bypassed hosts
	NamedProxy
	// AutomaticProxy behaves like DefaultProxy
	AutomaticProxy
)

func (p ProxyType) String() string {
	switch p {
	case DefaultProxy:
		return "default"
	case NoProxy:
		return "none"
	case NamedProxy:
		return "named"
	case AutomaticProxy:
		return "automatic"
	default:
		return fmt.Sprintf("ProxyType(%d)", int(p))
	}
}

// ParseProxyType maps a config value to a ProxyType
func ParseProxyType(s string) (ProxyType, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "default":
		return DefaultProxy, nil
	case "none", "no":
		return NoProxy, nil
	case "named":
		return NamedProxy, nil
	case "automatic", "auto":
		return AutomaticProxy, nil
	default:
		return DefaultProxy, fmt.Errorf("unknown proxy type %q", s)
	}
}

// Option configures a Session
type Option func(*Session)

// WithProxy configures the proxy. name and bypass are only used with NamedProxy;
// bypass is a list of hosts separated by ';', ',' or whitespace, where
// "<local>" matches any host without a dot and "*.example.com" matches subdomains.
func WithProxy(proxyType ProxyType, name, bypass string) Option {
	return func(s *Session) {
		s.proxyType = proxyType
		s.proxyName = name
		s.proxyBypass = bypass
	}
}

// WithDoer replaces the session's transport. Proxy options are ignored when set.
func WithDoer(doer Doer) Option {
	return func(s *Session) {
		s.doer = doer
	}
}

// WithLogger sets the logger used for lifecycle events
func WithLogger(logger zerolog.Logger) Option {
	return func(s *Session) {
		s.logger = logger
	}
}

// WithBaseDir confines file-backed form fields to dir
func WithBaseDir(dir string) Option {
	return func(s *Session) {
		s.baseDir = dir
	}
}

// WithMultiThread disables the owner goroutine check from the start
func WithMultiThread() Option {
	return func(s *Session) {
		s.multiThread.Store(true)
	}
}

// newClient builds the default transport: no keep-alives and no redirect following
func newClient(proxyType ProxyType, name, bypass string) (*http.Client, error) {
	transport := &http.Transport{
		DisableKeepAlives: true,
	}

	switch proxyType {
	case DefaultProxy, AutomaticProxy:
		transport.Proxy = http.ProxyFromEnvironment
	case NoProxy:
		transport.Proxy = nil
	case NamedProxy:
		proxy, err := parseProxyURL(name)
		if err != nil {
			return nil, err
		}
		transport.Proxy = bypassProxy(proxy, splitBypass(bypass))
	default:
		return nil, fmt.Errorf("unknown proxy type %d", int(proxyType))
	}

	return &http.Client{
		Transport: transport,
		CheckRedirect: func(req *http.Request, via []*http.Request) error {
			return http.ErrUseLastResponse
		},
	}, nil
}

func parseProxyURL(name string) (*url.URL, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, fmt.Errorf("named proxy requires a proxy name")
	}
	if !strings.Contains(name, "://") {
		name = "http://" + name
	}
	u, err := url.Parse(name)
	if err != nil {
		return nil, fmt.Errorf("invalid proxy %q: %w", name, err)
	}
	if u.Host == "" {
		return nil, fmt.Errorf("invalid proxy %q: missing host", name)
	}
	return u, nil
}

func splitBypass(bypass string) []string {
	return strings.FieldsFunc(bypass, func(r rune) bool {
		return r == ';' || r == ',' || r == ' ' || r == '\t'
	})
}

func bypassProxy(proxy *url.URL, bypass []string) func(*http.Request) (*url.URL, error) {
	return func(req *http.Request) (*url.URL, error) {
		host := req.URL.Hostname()
		for _, pattern := range bypass {
			if matchBypass(pattern, host) {
				return nil, nil
			}
		}
		return proxy, nil
	}
}

func matchBypass(pattern, host string) bool {
	pattern = strings.ToLower(pattern)
	host = strings.ToLower(host)
	switch {
	case pattern == "<local>":
		return !strings.Contains(host, ".") || net.ParseIP(host).IsLoopback()
	case strings.HasPrefix(pattern, "*."):
		return strings.HasSuffix(host, pattern[1:])
	default:
		return pattern == host
	}
}
