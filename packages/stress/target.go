package stress

import (
	"fmt"
	nethttp "net/http"
	"strings"
	"time"

	"github.com/abdul-hamid-achik/hitclient/packages/form"
	"github.com/abdul-hamid-achik/hitclient/packages/http"
	"github.com/abdul-hamid-achik/hitclient/packages/session"
)

// Target is a request issued repeatedly during a stress test. A target with
// form fields is sent as a multipart POST, anything else as a GET.
type Target struct {
	Name    string
	Path    string
	Headers map[string]string
	Fields  []form.Field
	Weight  int           // relative weight for target selection (default 1)
	Think   time.Duration // think time after this request in VU mode
}

// GetTarget builds a GET target
func GetTarget(path string, headers map[string]string) Target {
	return Target{Path: path, Headers: headers}
}

// PostTarget builds a multipart POST target
func PostTarget(path string, fields []form.Field, headers map[string]string) Target {
	return Target{Path: path, Fields: fields, Headers: headers}
}

// Method returns the HTTP method the target is sent with
func (t Target) Method() string {
	if len(t.Fields) > 0 {
		return nethttp.MethodPost
	}
	return nethttp.MethodGet
}

// Label returns the name used in reports
func (t Target) Label() string {
	if t.Name != "" {
		return t.Name
	}
	path := t.Path
	if !strings.HasPrefix(path, "/") {
		path = "/" + path
	}
	return fmt.Sprintf("%s %s", t.Method(), path)
}

func (t Target) send(conn *http.Connection, flags session.Flag) (*http.Reader, error) {
	if len(t.Fields) > 0 {
		req := conn.Post(t.Path).Flags(flags)
		for k, v := range t.Headers {
			req = req.Header(k, v)
		}
		for _, f := range t.Fields {
			req = req.AddFormData(f.Name, f)
		}
		return req.Send()
	}

	req := conn.Get(t.Path).Flags(flags)
	for k, v := range t.Headers {
		req = req.Header(k, v)
	}
	return req.Send()
}
