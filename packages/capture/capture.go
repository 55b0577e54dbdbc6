package capture

import (
	"fmt"
	"strings"

	"github.com/tidwall/gjson"

	"github.com/abdul-hamid-achik/hitclient/packages/http"
)

// Source is the part of a response a capture reads
type Source int

const (
	SourceBody Source = iota
	SourceHeader
	SourceStatus
	SourceDuration
)

func (s Source) String() string {
	switch s {
	case SourceBody:
		return "body"
	case SourceHeader:
		return "header"
	case SourceStatus:
		return "status"
	case SourceDuration:
		return "duration"
	default:
		return "unknown"
	}
}

// Capture names a value to extract from a response
type Capture struct {
	Name   string
	Source Source
	Path   string
}

// Parse reads a capture definition of the form name=source[:path].
// A definition without a source prefix is a body path, so "id=data.id"
// and "id=body:data.id" are equivalent.
func Parse(def string) (Capture, error) {
	name, expr, ok := strings.Cut(def, "=")
	name = strings.TrimSpace(name)
	if !ok || name == "" {
		return Capture{}, fmt.Errorf("invalid capture %q: expected name=source:path", def)
	}

	expr = strings.TrimSpace(expr)
	prefix, rest, hasPrefix := strings.Cut(expr, ":")
	switch {
	case expr == "status":
		return Capture{Name: name, Source: SourceStatus}, nil
	case expr == "duration":
		return Capture{Name: name, Source: SourceDuration}, nil
	case hasPrefix && prefix == "header":
		if rest == "" {
			return Capture{}, fmt.Errorf("invalid capture %q: header name required", def)
		}
		return Capture{Name: name, Source: SourceHeader, Path: rest}, nil
	case hasPrefix && prefix == "body":
		return Capture{Name: name, Source: SourceBody, Path: rest}, nil
	case expr == "body":
		return Capture{Name: name, Source: SourceBody}, nil
	default:
		return Capture{Name: name, Source: SourceBody, Path: expr}, nil
	}
}

type Extractor struct {
	response *http.Response
	bodyJSON gjson.Result
}

func NewExtractor(resp *http.Response) *Extractor {
	e := &Extractor{
		response: resp,
	}
	if resp.IsJSON() || gjson.ValidBytes(resp.Body) {
		e.bodyJSON = gjson.ParseBytes(resp.Body)
	}
	return e
}

func (e *Extractor) Extract(c Capture) (any, bool) {
	switch c.Source {
	case SourceBody:
		return e.extractFromBody(c.Path)
	case SourceHeader:
		return e.extractFromHeader(c.Path)
	case SourceStatus:
		return e.response.StatusCode, true
	case SourceDuration:
		return e.response.DurationMs(), true
	default:
		return nil, false
	}
}

// Path extracts a gjson path from a JSON body. An empty path returns the whole body.
func (e *Extractor) Path(path string) (any, bool) {
	return e.extractFromBody(path)
}

func (e *Extractor) extractFromBody(path string) (any, bool) {
	if !e.bodyJSON.Exists() {
		if path == "" {
			return e.response.BodyString(), true
		}
		return nil, false
	}

	if path == "" {
		return e.bodyJSON.Value(), true
	}

	result := e.bodyJSON.Get(path)
	if !result.Exists() {
		return nil, false
	}
	return result.Value(), true
}

func (e *Extractor) extractFromHeader(name string) (any, bool) {
	value := e.response.Header(name)
	if value == "" {
		return nil, false
	}
	return value, true
}

// ExtractAll evaluates every capture, skipping the ones that do not match
func ExtractAll(resp *http.Response, captures []Capture) map[string]any {
	extractor := NewExtractor(resp)
	results := make(map[string]any)

	for _, c := range captures {
		if value, ok := extractor.Extract(c); ok {
			results[c.Name] = value
		}
	}

	return results
}
