package http

import (
	"maps"
	nethttp "net/http"
	"slices"

	"github.com/abdul-hamid-achik/hitclient/packages/form"
	"github.com/abdul-hamid-achik/hitclient/packages/session"
)

// Request is a request value that can be sent on a Connection
type Request interface {
	validate() error
	describe() (method, target string, opts session.RequestOptions, header nethttp.Header)
	dispatch(s *session.Session, header nethttp.Header) error
}

// common holds the settings shared by every request kind
type common struct {
	conn    *Connection
	target  string
	opts    session.RequestOptions
	headers nethttp.Header
}

func (c common) withHeader(key, value string) common {
	h := make(nethttp.Header, len(c.headers)+1)
	maps.Copy(h, c.headers)
	h[nethttp.CanonicalHeaderKey(key)] = append(slices.Clone(h.Values(key)), value)
	c.headers = h
	return c
}

// GetRequest is a GET request under construction. Setters return modified copies.
type GetRequest struct {
	common
}

func (r GetRequest) Version(version string) GetRequest {
	r.opts.Version = version
	return r
}

func (r GetRequest) Referrer(referrer string) GetRequest {
	r.opts.Referrer = referrer
	return r
}

func (r GetRequest) AcceptTypes(types ...string) GetRequest {
	r.opts.AcceptTypes = slices.Clone(types)
	return r
}

func (r GetRequest) Flags(flags session.Flag) GetRequest {
	r.opts.Flags = flags
	return r
}

func (r GetRequest) Header(key, value string) GetRequest {
	r.common = r.withHeader(key, value)
	return r
}

func (r GetRequest) Target() string {
	return r.target
}

// Send opens the request and sends it. The target must be non-empty.
func (r GetRequest) Send() (*Reader, error) {
	return r.conn.Do(r)
}

func (r GetRequest) validate() error {
	if r.target == "" {
		return ErrMissingTarget
	}
	return nil
}

func (r GetRequest) describe() (string, string, session.RequestOptions, nethttp.Header) {
	return nethttp.MethodGet, r.target, r.opts, r.headers
}

func (r GetRequest) dispatch(s *session.Session, header nethttp.Header) error {
	return s.SendRequest(header, nil)
}

// PostRequest is a multipart POST under construction. Setters return modified copies.
type PostRequest struct {
	common
	fields []form.Field
}

func (r PostRequest) Version(version string) PostRequest {
	r.opts.Version = version
	return r
}

func (r PostRequest) Referrer(referrer string) PostRequest {
	r.opts.Referrer = referrer
	return r
}

func (r PostRequest) AcceptTypes(types ...string) PostRequest {
	r.opts.AcceptTypes = slices.Clone(types)
	return r
}

func (r PostRequest) Flags(flags session.Flag) PostRequest {
	r.opts.Flags = flags
	return r
}

func (r PostRequest) Header(key, value string) PostRequest {
	r.common = r.withHeader(key, value)
	return r
}

func (r PostRequest) Target() string {
	return r.target
}

// AddFormData appends a field under name
func (r PostRequest) AddFormData(name string, field form.Field) PostRequest {
	field.Name = name
	r.fields = append(slices.Clone(r.fields), field)
	return r
}

func (r PostRequest) AddText(name, value string) PostRequest {
	return r.AddFormData(name, form.Text(name, value))
}

func (r PostRequest) AddFile(name, path, mimeType string) PostRequest {
	return r.AddFormData(name, form.File(name, path, mimeType))
}

func (r PostRequest) AddBlob(name string, data []byte, mimeType, filename string) PostRequest {
	return r.AddFormData(name, form.Blob(name, data, mimeType, filename))
}

// Fields returns a copy of the form fields added so far
func (r PostRequest) Fields() []form.Field {
	return slices.Clone(r.fields)
}

// Send opens the request and sends the form. At least one field is required.
func (r PostRequest) Send() (*Reader, error) {
	return r.conn.Do(r)
}

func (r PostRequest) validate() error {
	if len(r.fields) == 0 {
		return ErrEmptyForm
	}
	return nil
}

func (r PostRequest) describe() (string, string, session.RequestOptions, nethttp.Header) {
	return nethttp.MethodPost, r.target, r.opts, r.headers
}

func (r PostRequest) dispatch(s *session.Session, header nethttp.Header) error {
	return s.SendMultipartForm(r.fields, header)
}
