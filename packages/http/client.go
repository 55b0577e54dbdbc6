package http

import (
	"errors"

	"github.com/abdul-hamid-achik/hitclient/packages/session"
)

var (
	// ErrConnectionNotAvailable is returned by Send when the builder's session has no connection
	ErrConnectionNotAvailable = errors.New("connection not available")
	// ErrMissingTarget is returned by GetRequest.Send when no target was set
	ErrMissingTarget = errors.New("target must be set")
	// ErrEmptyForm is returned by PostRequest.Send when no form data was added
	ErrEmptyForm = errors.New("form data must be set to send")
)

// Builder owns a session and hands out connections bound to it
type Builder struct {
	session *session.Session
}

// NewBuilder opens a session with the given user agent
func NewBuilder(userAgent string, opts ...session.Option) *Builder {
	return &Builder{session: session.New(userAgent, opts...)}
}

// Session exposes the underlying session for low-level calls and error inspection
func (b *Builder) Session() *session.Session {
	return b.session
}

// Close releases every handle held by the session
func (b *Builder) Close() error {
	return b.session.Close()
}

// Connect connects the session to host:port
func (b *Builder) Connect(host string, port uint16) (*Connection, error) {
	if err := b.session.Connect(host, port); err != nil {
		return nil, err
	}
	return &Connection{session: b.session}, nil
}

// Connection starts requests on a connected session
type Connection struct {
	session *session.Session
}

// NewConnection wraps a session that was connected directly
func NewConnection(s *session.Session) *Connection {
	return &Connection{session: s}
}

// Get starts a GET request for target
func (c *Connection) Get(target string) GetRequest {
	return GetRequest{common: common{conn: c, target: target}}
}

// Post starts a POST request for target
func (c *Connection) Post(target string) PostRequest {
	return PostRequest{common: common{conn: c, target: target}}
}

// Do sends any request value on the connection
func (c *Connection) Do(req Request) (*Reader, error) {
	if c == nil || c.session == nil || !c.session.ConnectionAvailable() {
		return nil, ErrConnectionNotAvailable
	}
	if err := req.validate(); err != nil {
		return nil, err
	}

	method, target, opts, header := req.describe()
	if err := c.session.OpenRequest(method, target, opts); err != nil {
		return nil, err
	}
	if err := req.dispatch(c.session, header); err != nil {
		return nil, err
	}

	return &Reader{session: c.session, id: c.session.RequestID()}, nil
}
