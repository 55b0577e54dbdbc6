package http

import (
	"github.com/abdul-hamid-achik/hitclient/packages/session"
)

// Response is a fully received response
type Response = session.Response

// Reader receives the response of a sent request. Each Send returns its own
// Reader; it fails with session.ErrRequestNotAvailable once a later Send on
// the same session has replaced its request.
type Reader struct {
	session *session.Session
	id      uint64
}

// Response reads the whole response into memory
func (r *Reader) Response() (*Response, error) {
	return r.session.ReceiveResponseFor(r.id)
}

// Receive reads the whole response and returns its body as text
func (r *Reader) Receive() (string, error) {
	resp, err := r.Response()
	if err != nil {
		return "", err
	}
	return resp.BodyString(), nil
}
