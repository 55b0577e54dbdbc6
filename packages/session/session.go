package session

import (
	"bytes"
	"fmt"
	"io"
	"net"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"sync/atomic"
	"time"

	"github.com/rs/zerolog"

	"github.com/abdul-hamid-achik/hitclient/packages/form"
)

const (
	// DefaultHTTPPort is the port used by examples and the CLI when none is given
	DefaultHTTPPort = 80
	// DefaultHTTPSPort selects https when passed to Connect
	DefaultHTTPSPort = 443
)

// State is the position of a Session in its handle lifecycle
type State int

const (
	Idle State = iota
	Connected
	RequestOpen
	Sent
	ResponseReceived
)

func (s State) String() string {
	switch s {
	case Idle:
		return "idle"
	case Connected:
		return "connected"
	case RequestOpen:
		return "request-open"
	case Sent:
		return "sent"
	case ResponseReceived:
		return "response-received"
	default:
		return fmt.Sprintf("State(%d)", int(s))
	}
}

type connection struct {
	host string
	port uint16
}

func (c *connection) baseURL(secure bool) *url.URL {
	scheme := "http"
	if secure || c.port == DefaultHTTPSPort {
		scheme = "https"
	}
	host := c.host
	if c.port != 0 {
		host = net.JoinHostPort(c.host, strconv.Itoa(int(c.port)))
	} else if strings.Contains(host, ":") {
		host = "[" + host + "]"
	}
	return &url.URL{Scheme: scheme, Host: host, Path: "/"}
}

type request struct {
	id       uint64
	req      *http.Request
	resp     *http.Response
	received *Response
	sentAt   time.Time
}

// Session owns the session, connection and request handles. A connection
// requires the session handle and a request requires a connection. All
// handles are released together by Close.
//
// A Session is bound to the goroutine that created it; see AllowMultiThread.
type Session struct {
	userAgent   string
	proxyType   ProxyType
	proxyName   string
	proxyBypass string
	baseDir     string
	logger      zerolog.Logger

	doer     Doer
	conn     *connection
	request  *request
	requests uint64

	lastErr     ErrorKind
	owner       uint64
	multiThread atomic.Bool
}

// New opens a session. A session that could not be created is still
// returned; its LastError is ErrSessionCreationFailed and every later
// operation fails.
func New(userAgent string, opts ...Option) *Session {
	s := &Session{
		userAgent: userAgent,
		logger:    zerolog.Nop(),
		owner:     goroutineID(),
	}

	for _, opt := range opts {
		opt(s)
	}

	if strings.TrimSpace(userAgent) == "" {
		s.lastErr = ErrSessionCreationFailed
		s.doer = nil
		s.logger.Debug().Msg("session creation failed: empty user agent")
		return s
	}

	if s.doer == nil {
		client, err := newClient(s.proxyType, s.proxyName, s.proxyBypass)
		if err != nil {
			s.lastErr = ErrSessionCreationFailed
			s.logger.Debug().Err(err).Msg("session creation failed")
			return s
		}
		s.doer = client
	}

	s.logger.Debug().
		Str("user_agent", userAgent).
		Str("proxy", s.proxyType.String()).
		Uint64("owner", s.owner).
		Msg("session opened")
	return s
}

// Connect sets the target server for subsequent requests. Any open request
// is released. Port 0 uses the scheme's default port.
func (s *Session) Connect(host string, port uint16) error {
	s.checkOwner("Connect")

	if !s.SessionAvailable() {
		return s.fail("connect", ErrConnectionFailed, errNoSession)
	}

	host = strings.TrimSuffix(strings.TrimPrefix(strings.TrimSpace(host), "["), "]")
	if err := validateHost(host); err != nil {
		return s.fail("connect", ErrConnectionFailed, err)
	}

	s.releaseRequest()
	s.conn = &connection{host: host, port: port}
	s.lastErr = ErrNone

	s.logger.Debug().Str("host", host).Uint16("port", port).Msg("connected")
	return nil
}

func validateHost(host string) error {
	if host == "" {
		return fmt.Errorf("%w: empty host", errInvalidTarget)
	}
	if strings.ContainsAny(host, "/?#@ ") {
		return fmt.Errorf("%w: %q is not a host name", errInvalidTarget, host)
	}
	if _, err := url.Parse("http://" + host); err != nil && net.ParseIP(host) == nil {
		return fmt.Errorf("%w: %v", errInvalidTarget, err)
	}
	return nil
}

// OpenRequest prepares a request on the current connection, replacing any
// previously opened request. An empty verb means GET.
func (s *Session) OpenRequest(verb, path string, opts RequestOptions) error {
	s.checkOwner("OpenRequest")

	if err := s.requireConnection("open request"); err != nil {
		return err
	}

	req, err := buildRequest(s.conn, s.userAgent, verb, path, opts)
	if err != nil {
		return s.fail("open request", ErrRequestFailed, err)
	}

	s.releaseRequest()
	s.requests++
	s.request = &request{id: s.requests, req: req}

	s.logger.Debug().Str("method", req.Method).Str("url", req.URL.String()).Msg("request opened")
	return nil
}

// SendRequest sends the open request with optional extra headers and body
func (s *Session) SendRequest(headers http.Header, body []byte) error {
	s.checkOwner("SendRequest")

	if err := s.requireRequest("send request"); err != nil {
		return err
	}
	return s.send("send request", headers, body, "")
}

// SendMultipartForm encodes fields as multipart/form-data and sends them as
// the body of the open request.
func (s *Session) SendMultipartForm(fields []form.Field, headers http.Header) error {
	s.checkOwner("SendMultipartForm")

	const op = "send multipart form"
	if err := s.requireRequest(op); err != nil {
		return err
	}
	if s.request.resp != nil {
		return s.fail(op, ErrRequestFailed, errAlreadySent)
	}

	encoded, err := form.Encode(fields, form.WithBaseDir(s.baseDir))
	if err != nil {
		return s.fail(op, ErrRequestFailed, err)
	}
	return s.send(op, headers, encoded.Data, encoded.ContentType)
}

// send performs one attempt on a copy of the open request. The open request
// takes the attempt's headers and body only when the attempt succeeds.
func (s *Session) send(op string, headers http.Header, body []byte, contentType string) error {
	r := s.request
	if r.resp != nil {
		return s.fail(op, ErrRequestFailed, errAlreadySent)
	}

	attempt := r.req.Clone(r.req.Context())
	if err := addHeaders(attempt, headers); err != nil {
		return s.fail(op, ErrHeaderAddFailed, err)
	}
	if contentType != "" {
		attempt.Header.Set("Content-Type", contentType)
	}

	if len(body) > 0 {
		attempt.Body = io.NopCloser(bytes.NewReader(body))
		attempt.ContentLength = int64(len(body))
		attempt.GetBody = func() (io.ReadCloser, error) {
			return io.NopCloser(bytes.NewReader(body)), nil
		}
	}

	r.sentAt = time.Now()
	resp, err := s.doer.Do(attempt)
	if err != nil {
		return s.fail(op, ErrRequestFailed, err)
	}
	r.req = attempt
	r.resp = resp
	s.lastErr = ErrNone

	s.logger.Debug().
		Str("method", attempt.Method).
		Str("url", attempt.URL.String()).
		Int("body_bytes", len(body)).
		Int("status", resp.StatusCode).
		Msg("request sent")
	return nil
}

// ReceiveResponse reads the whole response body of the sent request into
// memory. Calling it again returns the same response.
func (s *Session) ReceiveResponse() (*Response, error) {
	s.checkOwner("ReceiveResponse")

	if err := s.requireRequest("receive response"); err != nil {
		return nil, err
	}
	return s.receive()
}

// ReceiveResponseFor is ReceiveResponse for the request identified by id.
// It fails with ErrRequestNotAvailable once that request has been replaced
// by a later OpenRequest or released by Connect or Close.
func (s *Session) ReceiveResponseFor(id uint64) (*Response, error) {
	s.checkOwner("ReceiveResponseFor")

	if err := s.requireRequest("receive response"); err != nil {
		return nil, err
	}
	if s.request.id != id {
		return nil, s.fail("receive response", ErrRequestNotAvailable, errRequestReplaced)
	}
	return s.receive()
}

func (s *Session) receive() (*Response, error) {
	r := s.request
	if r.received != nil {
		return r.received, nil
	}
	if r.resp == nil {
		return nil, s.fail("receive response", ErrRequestNotAvailable, errNotSent)
	}

	body, err := readBody(r.resp.Body)
	_ = r.resp.Body.Close()
	if err != nil {
		return nil, s.fail("receive response", ErrRequestFailed, err)
	}

	r.received = toResponse(r.resp, body, time.Since(r.sentAt))
	s.lastErr = ErrNone

	s.logger.Debug().
		Int("status", r.received.StatusCode).
		Int("body_bytes", len(body)).
		Dur("duration", r.received.Duration).
		Msg("response received")
	return r.received, nil
}

// Close releases the request, connection and session handles
func (s *Session) Close() error {
	s.releaseRequest()
	s.conn = nil
	if client, ok := s.doer.(*http.Client); ok {
		client.CloseIdleConnections()
	}
	s.doer = nil
	return nil
}

func (s *Session) releaseRequest() {
	if s.request != nil && s.request.resp != nil && s.request.received == nil {
		_ = s.request.resp.Body.Close()
	}
	s.request = nil
}

func (s *Session) requireSession(op string) error {
	if !s.SessionAvailable() {
		return s.fail(op, ErrSessionNotAvailable, nil)
	}
	return nil
}

func (s *Session) requireConnection(op string) error {
	if err := s.requireSession(op); err != nil {
		return err
	}
	if !s.ConnectionAvailable() {
		return s.fail(op, ErrConnectionNotAvailable, nil)
	}
	return nil
}

func (s *Session) requireRequest(op string) error {
	if err := s.requireConnection(op); err != nil {
		return err
	}
	if !s.RequestAvailable() {
		return s.fail(op, ErrRequestNotAvailable, nil)
	}
	return nil
}

func (s *Session) fail(op string, kind ErrorKind, err error) error {
	s.lastErr = kind
	s.logger.Debug().Str("op", op).Str("kind", kind.String()).AnErr("cause", err).Msg("session operation failed")
	return &Error{Op: op, Kind: kind, Err: err}
}

func (s *Session) SessionAvailable() bool {
	return s.doer != nil
}

func (s *Session) ConnectionAvailable() bool {
	return s.conn != nil
}

func (s *Session) RequestAvailable() bool {
	return s.request != nil
}

// RequestID identifies the open request; it is 0 when none is open.
// Every OpenRequest gets a new id.
func (s *Session) RequestID() uint64 {
	if s.request == nil {
		return 0
	}
	return s.request.id
}

// State reports the furthest lifecycle step reached by the current handles
func (s *Session) State() State {
	switch {
	case s.request != nil && s.request.received != nil:
		return ResponseReceived
	case s.request != nil && s.request.resp != nil:
		return Sent
	case s.request != nil:
		return RequestOpen
	case s.conn != nil:
		return Connected
	default:
		return Idle
	}
}

// LastError returns the kind recorded by the most recent operation
func (s *Session) LastError() ErrorKind {
	return s.lastErr
}

func (s *Session) ErrorSet() bool {
	return s.lastErr != ErrNone
}

func (s *Session) UserAgent() string {
	return s.userAgent
}

func (s *Session) MultiThreadAllowed() bool {
	return s.multiThread.Load()
}

// AllowMultiThread lets any goroutine drive the session. It must itself be
// called from the owner goroutine.
func (s *Session) AllowMultiThread() {
	s.checkOwner("AllowMultiThread")
	s.multiThread.Store(true)
}

func (s *Session) DisallowMultiThread() {
	s.multiThread.Store(false)
}
