package session

import (
	"fmt"
	"net/http"
	"net/url"
	"strings"

	"golang.org/x/net/http/httpguts"
)

// Flag modifies how a request is opened
type Flag uint32

const (
	// FlagSecure sends the request over https regardless of port
	FlagSecure Flag = 1 << iota
	// FlagRefresh asks intermediaries for a fresh copy
	FlagRefresh
	// FlagBypassProxyCache asks proxies not to serve a cached copy
	FlagBypassProxyCache
)

// Has reports whether all bits of f2 are set in f
func (f Flag) Has(f2 Flag) bool {
	return f&f2 == f2
}

// SupportedVersion is the only protocol version the transport writes on the
// request line
const SupportedVersion = "HTTP/1.1"

// RequestOptions are the optional parts of OpenRequest. Version must be empty
// or SupportedVersion.
type RequestOptions struct {
	Version     string
	Referrer    string
	AcceptTypes []string
	Flags       Flag
}

func buildRequest(conn *connection, userAgent, verb, path string, opts RequestOptions) (*http.Request, error) {
	if verb == "" {
		verb = http.MethodGet
	}
	if !httpguts.ValidHeaderFieldName(verb) {
		return nil, fmt.Errorf("invalid verb %q", verb)
	}

	if opts.Version != "" && opts.Version != SupportedVersion {
		return nil, fmt.Errorf("unsupported protocol version %q, only %s is sent", opts.Version, SupportedVersion)
	}

	if !strings.HasPrefix(path, "/") {
		path = "/" + path
	}
	ref, err := url.Parse(path)
	if err != nil {
		return nil, fmt.Errorf("invalid object name %q: %w", path, err)
	}
	if ref.IsAbs() || ref.Host != "" {
		return nil, fmt.Errorf("object name %q must be a path", path)
	}

	base := conn.baseURL(opts.Flags.Has(FlagSecure))
	req, err := http.NewRequest(verb, base.ResolveReference(ref).String(), http.NoBody)
	if err != nil {
		return nil, err
	}

	if userAgent != "" {
		req.Header.Set("User-Agent", userAgent)
	}
	if opts.Referrer != "" {
		req.Header.Set("Referer", opts.Referrer)
	}
	if len(opts.AcceptTypes) > 0 {
		req.Header.Set("Accept", strings.Join(opts.AcceptTypes, ", "))
	}
	if opts.Flags.Has(FlagRefresh) {
		req.Header.Set("Cache-Control", "no-cache")
		req.Header.Set("Pragma", "no-cache")
	}
	if opts.Flags.Has(FlagBypassProxyCache) {
		req.Header.Set("Pragma", "no-cache")
	}
	return req, nil
}

// addHeaders validates and appends headers to req
func addHeaders(req *http.Request, headers http.Header) error {
	for name, values := range headers {
		if !httpguts.ValidHeaderFieldName(name) {
			return fmt.Errorf("invalid header name %q", name)
		}
		for _, v := range values {
			if !httpguts.ValidHeaderFieldValue(v) {
				return fmt.Errorf("invalid value for header %q", name)
			}
			req.Header.Add(name, v)
		}
	}
	return nil
}
