// Package mock provides a stub HTTP server with configurable routes that
// records what clients send to it.
package mock

import (
	"context"
	"errors"
	"fmt"
	"io"
	"mime"
	"net"
	"net/http"
	"os"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog"
	"gopkg.in/yaml.v3"
)

// maxObserved bounds the request log kept by the server
const maxObserved = 100

// maxFormMemory is the multipart memory limit used when decoding uploads
const maxFormMemory = 32 << 20

// Server is a stub HTTP server
type Server struct {
	mu       sync.RWMutex
	router   *Router
	observed []Observed

	port   int
	delay  time.Duration
	logger zerolog.Logger
}

// Option is a functional option for Server
type Option func(*Server)

// WithPort sets the server port
func WithPort(port int) Option {
	return func(s *Server) {
		s.port = port
	}
}

// WithDelay adds a delay to all responses
func WithDelay(delay time.Duration) Option {
	return func(s *Server) {
		s.delay = delay
	}
}

// WithLogger sets the request logger
func WithLogger(logger zerolog.Logger) Option {
	return func(s *Server) {
		s.logger = logger
	}
}

// NewServer creates a new stub server
func NewServer(opts ...Option) *Server {
	s := &Server{
		router: NewRouter(),
		port:   8000,
		logger: zerolog.Nop(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// RouteSpec is the file representation of a route
type RouteSpec struct {
	Name        string            `yaml:"name,omitempty"`
	Method      string            `yaml:"method"`
	Path        string            `yaml:"path"`
	Status      int               `yaml:"status,omitempty"`
	ContentType string            `yaml:"contentType,omitempty"`
	Headers     map[string]string `yaml:"headers,omitempty"`
	Body        string            `yaml:"body,omitempty"`
}

// RouteFile is the top-level structure of a routes file
type RouteFile struct {
	Routes []RouteSpec `yaml:"routes"`
}

// Handle registers a route answering method and path with status and body
func (s *Server) Handle(method, path string, status int, body string) *Route {
	route := NewRoute(method, path, &MockResponse{StatusCode: status, Body: body})
	s.AddRoute(route)
	return route
}

// AddRoute registers a route. Routes are matched in registration order.
func (s *Server) AddRoute(route *Route) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.router.AddRoute(route)
}

// LoadFile replaces all routes with those defined in a YAML routes file
func (s *Server) LoadFile(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read routes file %s: %w", path, err)
	}

	router, err := parseRoutes(data)
	if err != nil {
		return fmt.Errorf("failed to parse routes file %s: %w", path, err)
	}

	s.mu.Lock()
	s.router = router
	s.mu.Unlock()
	return nil
}

func parseRoutes(data []byte) (*Router, error) {
	var file RouteFile
	if err := yaml.Unmarshal(data, &file); err != nil {
		return nil, err
	}

	router := NewRouter()
	for i, spec := range file.Routes {
		if spec.Path == "" {
			return nil, fmt.Errorf("route %d: path is required", i)
		}
		method := spec.Method
		if method == "" {
			method = http.MethodGet
		}
		route := NewRoute(method, spec.Path, &MockResponse{
			StatusCode:  spec.Status,
			ContentType: spec.ContentType,
			Headers:     spec.Headers,
			Body:        spec.Body,
		})
		route.Name = spec.Name
		router.AddRoute(route)
	}
	return router, nil
}

// Handler returns the server's http.Handler
func (s *Server) Handler() http.Handler {
	return http.HandlerFunc(s.handleRequest)
}

// Start starts the server and blocks until it fails
func (s *Server) Start() error {
	return s.StartWithContext(context.Background())
}

// StartWithContext starts the server on its port and shuts it down when ctx is done
func (s *Server) StartWithContext(ctx context.Context) error {
	ln, err := net.Listen("tcp", fmt.Sprintf(":%d", s.port))
	if err != nil {
		return err
	}
	return s.Serve(ctx, ln)
}

// Serve serves on ln until ctx is done
func (s *Server) Serve(ctx context.Context, ln net.Listener) error {
	server := &http.Server{
		Handler:           s.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = server.Shutdown(shutdownCtx)
	}()

	s.logger.Info().
		Str("addr", ln.Addr().String()).
		Int("routes", len(s.GetRoutes())).
		Msg("stub server starting")

	for _, route := range s.GetRoutes() {
		s.logger.Debug().
			Str("method", route.Method).
			Str("path", route.PathPattern).
			Int("status", route.Response.StatusCode).
			Msg("route")
	}

	err := server.Serve(ln)
	if errors.Is(err, http.ErrServerClosed) {
		return nil
	}
	return err
}

func (s *Server) handleRequest(w http.ResponseWriter, r *http.Request) {
	start := time.Now()

	if s.delay > 0 {
		time.Sleep(s.delay)
	}

	obs, err := observe(r)
	if err != nil {
		s.logger.Warn().Err(err).Str("method", r.Method).Str("path", r.URL.Path).Msg("failed to decode request body")
	}

	s.mu.Lock()
	s.observed = append(s.observed, obs)
	if len(s.observed) > maxObserved {
		s.observed = s.observed[len(s.observed)-maxObserved:]
	}
	route, params := s.router.Match(r.Method, r.URL.Path)
	s.mu.Unlock()

	if route == nil {
		s.logger.Info().
			Str("method", r.Method).
			Str("path", r.URL.Path).
			Int("status", http.StatusNotFound).
			Dur("duration", time.Since(start)).
			Msg("no route")
		http.NotFound(w, r)
		return
	}

	resp := route.Response
	for key, value := range resp.Headers {
		w.Header().Set(key, value)
	}
	w.Header().Set("Content-Type", resp.ContentType)

	body := resolveBodyParams(resp.Body, params)

	w.WriteHeader(resp.StatusCode)
	_, _ = w.Write([]byte(body))

	s.logger.Info().
		Str("method", r.Method).
		Str("path", r.URL.Path).
		Int("status", resp.StatusCode).
		Dur("duration", time.Since(start)).
		Msg("request")
}

// GetRoutes returns all registered routes
func (s *Server) GetRoutes() []*Route {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]*Route(nil), s.router.Routes()...)
}

// Requests returns the most recent requests received, oldest first
func (s *Server) Requests() []Observed {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]Observed(nil), s.observed...)
}

// LastRequest returns the most recent request received
func (s *Server) LastRequest() (Observed, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if len(s.observed) == 0 {
		return Observed{}, false
	}
	return s.observed[len(s.observed)-1], true
}

// Observed is a request as seen by the server
type Observed struct {
	Method string
	Path   string
	Header http.Header
	Form   map[string][]string
	Files  map[string][]UploadedFile
	Body   []byte
}

// FormValue returns the first value of a decoded form field
func (o Observed) FormValue(name string) string {
	if values := o.Form[name]; len(values) > 0 {
		return values[0]
	}
	return ""
}

// UploadedFile is a file part of a multipart request
type UploadedFile struct {
	Filename    string
	ContentType string
	Data        []byte
}

func observe(r *http.Request) (Observed, error) {
	obs := Observed{
		Method: r.Method,
		Path:   r.URL.Path,
		Header: r.Header.Clone(),
		Form:   make(map[string][]string),
		Files:  make(map[string][]UploadedFile),
	}

	mediaType, _, _ := mime.ParseMediaType(r.Header.Get("Content-Type"))
	switch {
	case mediaType == "multipart/form-data":
		if err := r.ParseMultipartForm(maxFormMemory); err != nil {
			return obs, err
		}
		for name, values := range r.MultipartForm.Value {
			obs.Form[name] = append([]string(nil), values...)
		}
		for name, headers := range r.MultipartForm.File {
			for _, fh := range headers {
				f, err := fh.Open()
				if err != nil {
					return obs, err
				}
				data, err := io.ReadAll(f)
				_ = f.Close()
				if err != nil {
					return obs, err
				}
				obs.Files[name] = append(obs.Files[name], UploadedFile{
					Filename:    fh.Filename,
					ContentType: fh.Header.Get("Content-Type"),
					Data:        data,
				})
			}
		}

	case mediaType == "application/x-www-form-urlencoded":
		if err := r.ParseForm(); err != nil {
			return obs, err
		}
		for name, values := range r.PostForm {
			obs.Form[name] = append([]string(nil), values...)
		}

	case r.Body != nil:
		data, err := io.ReadAll(r.Body)
		if err != nil {
			return obs, err
		}
		obs.Body = data
	}

	if q := r.URL.Query(); len(q) > 0 && len(obs.Form) == 0 {
		for name, values := range q {
			obs.Form[name] = values
		}
	}

	return obs, nil
}

// Summary returns a one-line listing of the route
func (r *Route) Summary() string {
	name := r.Name
	if name == "" {
		name = strings.TrimPrefix(r.PathPattern, "/")
	}
	return fmt.Sprintf("%-6s %-30s -> %d (%s)", r.Method, r.PathPattern, r.Response.StatusCode, name)
}
