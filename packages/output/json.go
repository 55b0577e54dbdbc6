package output

import (
	"encoding/json"
	"io"
	"os"
	"time"

	"github.com/abdul-hamid-achik/hitclient/packages/session"
)

// JSONOutput represents the complete JSON output structure
type JSONOutput struct {
	Summary   JSONSummary    `json:"summary"`
	Exchanges []JSONExchange `json:"exchanges"`
	Time      string         `json:"time"`
}

// JSONSummary counts the exchanges
type JSONSummary struct {
	Total  int `json:"total"`
	Failed int `json:"failed"`
}

// JSONExchange represents a single exchange
type JSONExchange struct {
	Request   JSONRequest    `json:"request"`
	Response  *JSONResponse  `json:"response,omitempty"`
	Error     string         `json:"error,omitempty"`
	ErrorKind string         `json:"errorKind,omitempty"`
	Schema    string         `json:"schemaError,omitempty"`
	Captures  map[string]any `json:"captures,omitempty"`
}

// JSONRequest represents request details
type JSONRequest struct {
	Method  string            `json:"method"`
	URL     string            `json:"url"`
	Headers map[string]string `json:"headers,omitempty"`
	Fields  map[string]string `json:"fields,omitempty"`
}

// JSONResponse represents response details. Body is embedded as JSON when
// the response is JSON and as a string otherwise.
type JSONResponse struct {
	StatusCode int               `json:"statusCode"`
	Status     string            `json:"status"`
	Headers    map[string]string `json:"headers,omitempty"`
	Duration   float64           `json:"duration"`
	Body       any               `json:"body,omitempty"`
}

// JSONFormatter formats exchanges as JSON
type JSONFormatter struct {
	writer    io.Writer
	exchanges []JSONExchange
	failed    int
}

type JSONOption func(*JSONFormatter)

func NewJSONFormatter(opts ...JSONOption) *JSONFormatter {
	f := &JSONFormatter{
		writer:    os.Stdout,
		exchanges: make([]JSONExchange, 0),
	}
	for _, opt := range opts {
		opt(f)
	}
	return f
}

func JSONWithWriter(w io.Writer) JSONOption {
	return func(f *JSONFormatter) {
		f.writer = w
	}
}

func (f *JSONFormatter) FormatExchange(e *Exchange) {
	ex := JSONExchange{
		Request: JSONRequest{
			Method:  e.Method,
			URL:     e.URL,
			Headers: e.Headers,
		},
		Captures: e.Captures,
	}

	if len(e.Fields) > 0 {
		ex.Request.Fields = make(map[string]string, len(e.Fields))
		for _, field := range e.Fields {
			ex.Request.Fields[field.Name] = fieldSummary(field)
		}
	}

	if e.Err != nil {
		ex.Error = e.Err.Error()
		if kind := session.KindOf(e.Err); kind != session.ErrNone {
			ex.ErrorKind = kind.String()
		}
	}

	if e.SchemaErr != nil {
		ex.Schema = e.SchemaErr.Error()
	}

	if r := e.Response; r != nil {
		ex.Response = &JSONResponse{
			StatusCode: r.StatusCode,
			Status:     r.Status,
			Headers:    r.Headers,
			Duration:   float64(r.Duration.Milliseconds()),
			Body:       responseBody(r),
		}
	}

	if e.Failed() {
		f.failed++
	}
	f.exchanges = append(f.exchanges, ex)
}

func responseBody(r *session.Response) any {
	if len(r.Body) == 0 {
		return nil
	}
	if r.IsJSON() && json.Valid(r.Body) {
		return json.RawMessage(r.Body)
	}
	return r.BodyString()
}

func (f *JSONFormatter) FormatError(err error) {
	f.exchanges = append(f.exchanges, JSONExchange{Error: err.Error()})
	f.failed++
}

func (f *JSONFormatter) FormatHeader(version string) {
	// No header needed for JSON output
}

// Flush writes the accumulated JSON output
func (f *JSONFormatter) Flush() error {
	output := JSONOutput{
		Summary: JSONSummary{
			Total:  len(f.exchanges),
			Failed: f.failed,
		},
		Exchanges: f.exchanges,
		Time:      time.Now().Format(time.RFC3339),
	}

	encoder := json.NewEncoder(f.writer)
	encoder.SetIndent("", "  ")
	return encoder.Encode(output)
}
