package http

import (
	"fmt"
	"net"
	neturl "net/url"
	"strconv"
	"strings"

	"github.com/abdul-hamid-achik/hitclient/packages/session"
)

// Address is a server a Builder can connect to
type Address struct {
	Host   string
	Port   uint16
	Secure bool
}

func (a Address) String() string {
	scheme := "http"
	if a.Secure {
		scheme = "https"
	}
	return fmt.Sprintf("%s://%s", scheme, net.JoinHostPort(a.Host, strconv.Itoa(int(a.Port))))
}

// Flags returns the request flags implied by the address
func (a Address) Flags() session.Flag {
	if a.Secure {
		return session.FlagSecure
	}
	return 0
}

// ParseAddress accepts "host", "host:port" or an http(s) URL. The port
// defaults to 80, or 443 for https URLs.
func ParseAddress(addr string) (Address, error) {
	addr = strings.TrimSpace(addr)
	if addr == "" {
		return Address{}, fmt.Errorf("empty address")
	}

	if strings.Contains(addr, "://") {
		if err := ValidateURL(addr); err != nil {
			return Address{}, err
		}
		u, _ := neturl.Parse(addr)
		a := Address{Host: u.Hostname(), Secure: u.Scheme == "https", Port: session.DefaultHTTPPort}
		if a.Secure {
			a.Port = session.DefaultHTTPSPort
		}
		if p := u.Port(); p != "" {
			port, err := parsePort(p)
			if err != nil {
				return Address{}, err
			}
			a.Port = port
		}
		return a, nil
	}

	host, portStr, err := net.SplitHostPort(addr)
	if err != nil {
		// no port
		return Address{Host: strings.Trim(addr, "[]"), Port: session.DefaultHTTPPort}, nil
	}
	port, err := parsePort(portStr)
	if err != nil {
		return Address{}, err
	}
	return Address{Host: host, Port: port, Secure: port == session.DefaultHTTPSPort}, nil
}

func parsePort(s string) (uint16, error) {
	port, err := strconv.ParseUint(s, 10, 16)
	if err != nil {
		return 0, fmt.Errorf("invalid port %q", s)
	}
	return uint16(port), nil
}

// ValidateURL checks that a URL is well-formed and uses an allowed scheme
func ValidateURL(rawURL string) error {
	u, err := neturl.Parse(rawURL)
	if err != nil {
		return fmt.Errorf("invalid URL: %v", err)
	}

	if u.Scheme != "http" && u.Scheme != "https" {
		return fmt.Errorf("unsupported URL scheme: %s (only http and https are allowed)", u.Scheme)
	}

	if u.Host == "" {
		return fmt.Errorf("URL must have a host")
	}

	return nil
}
