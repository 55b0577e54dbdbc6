package output

import (
	"time"

	"github.com/abdul-hamid-achik/hitclient/packages/form"
	"github.com/abdul-hamid-achik/hitclient/packages/session"
)

// Exchange is one request and its outcome
type Exchange struct {
	Method   string
	URL      string
	Headers  map[string]string
	Fields   []form.Field
	Response *session.Response
	Err      error
	Captures map[string]any
	// SchemaErr is set when the response body failed schema validation
	SchemaErr error
	SentAt    time.Time
}

// Failed reports whether the exchange errored, got a non-2xx status or
// failed schema validation
func (e *Exchange) Failed() bool {
	if e.Err != nil || e.SchemaErr != nil {
		return true
	}
	return e.Response == nil || !e.Response.IsSuccess()
}

// Formatter renders exchanges
type Formatter interface {
	FormatExchange(e *Exchange)
	FormatError(err error)
	FormatHeader(version string)
}

// Flushable is implemented by formatters that buffer output
type Flushable interface {
	Flush() error
}

func fieldSummary(f form.Field) string {
	switch f.Kind {
	case form.KindFile:
		return "@" + f.Value
	case form.KindBlob:
		return "<blob " + f.Aux + ">"
	default:
		return f.Value
	}
}
