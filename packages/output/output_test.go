package output

import (
	"bytes"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/abdul-hamid-achik/hitclient/packages/form"
	"github.com/abdul-hamid-achik/hitclient/packages/session"
)

func okExchange() *Exchange {
	return &Exchange{
		Method:  "POST",
		URL:     "http://localhost:8000/api/forgotpassword",
		Headers: map[string]string{"X-Trace": "abc"},
		Fields: []form.Field{
			form.Text("email", "user@example.com"),
			form.File("avatar", "avatar.png", "image/png"),
		},
		Response: &session.Response{
			StatusCode: 200,
			Status:     "200 OK",
			Headers:    map[string]string{"Content-Type": "application/json"},
			Body:       []byte(`{"sent":true}`),
			Duration:   12 * time.Millisecond,
		},
		Captures: map[string]any{"sent": true},
	}
}

func TestConsoleFormatter_Exchange(t *testing.T) {
	var buf bytes.Buffer
	f := NewConsoleFormatter(WithWriter(&buf), WithNoColor(true), WithVerbose(true))

	f.FormatExchange(okExchange())
	out := buf.String()

	assert.Contains(t, out, "POST http://localhost:8000/api/forgotpassword")
	assert.Contains(t, out, "> X-Trace: abc")
	assert.Contains(t, out, "> email=user@example.com")
	assert.Contains(t, out, "> avatar=@avatar.png")
	assert.Contains(t, out, "200 OK (12ms)")
	assert.Contains(t, out, "< Content-Type: application/json")
	assert.Contains(t, out, "sent = true")
	assert.Contains(t, out, "\"sent\": true")
}

func TestConsoleFormatter_Quiet(t *testing.T) {
	var buf bytes.Buffer
	f := NewConsoleFormatter(WithWriter(&buf), WithNoColor(true), WithQuiet(true))

	ex := okExchange()
	ex.Response.Headers = map[string]string{"Content-Type": "text/plain"}
	ex.Response.Body = []byte("Welcome")
	f.FormatExchange(ex)

	assert.Equal(t, "Welcome\n", buf.String())
}

func TestConsoleFormatter_Errors(t *testing.T) {
	var buf bytes.Buffer
	f := NewConsoleFormatter(WithWriter(&buf), WithNoColor(true))

	f.FormatExchange(&Exchange{
		Method: "GET",
		URL:    "http://localhost:1/",
		Err:    &session.Error{Op: "send request", Kind: session.ErrRequestFailed, Err: errors.New("connection refused")},
	})
	assert.Contains(t, buf.String(), "x send request: Request failed!: connection refused")

	buf.Reset()
	f.FormatError(errors.New("plain failure"))
	assert.Equal(t, "Error: plain failure\n", buf.String())

	buf.Reset()
	f.FormatHeader("1.0.0")
	assert.Equal(t, "hitclient 1.0.0\n", buf.String())
}

func TestDescribeError(t *testing.T) {
	assert.Equal(t, "boom", describeError(errors.New("boom")))

	wrapped := errors.Join(errors.New("outer"), &session.Error{Op: "connect", Kind: session.ErrConnectionFailed})
	assert.Contains(t, describeError(wrapped), "Connection failed!")
}

func TestJSONFormatter(t *testing.T) {
	var buf bytes.Buffer
	f := NewJSONFormatter(JSONWithWriter(&buf))

	f.FormatHeader("ignored")
	f.FormatExchange(okExchange())
	f.FormatExchange(&Exchange{
		Method: "GET",
		URL:    "http://localhost:1/",
		Err:    &session.Error{Op: "send request", Kind: session.ErrRequestFailed},
	})
	f.FormatExchange(&Exchange{
		Method:   "GET",
		URL:      "http://localhost:8000/",
		Response: &session.Response{StatusCode: 200, Status: "200 OK", Body: []byte("Welcome")},
	})
	require.NoError(t, f.Flush())

	var out JSONOutput
	require.NoError(t, json.Unmarshal(buf.Bytes(), &out))
	assert.Equal(t, 3, out.Summary.Total)
	assert.Equal(t, 1, out.Summary.Failed)
	require.Len(t, out.Exchanges, 3)

	first := out.Exchanges[0]
	assert.Equal(t, "POST", first.Request.Method)
	assert.Equal(t, "user@example.com", first.Request.Fields["email"])
	require.NotNil(t, first.Response)
	assert.Equal(t, map[string]any{"sent": true}, first.Response.Body)

	assert.Equal(t, "Request failed!", out.Exchanges[1].ErrorKind)
	assert.Nil(t, out.Exchanges[1].Response)

	assert.Equal(t, "Welcome", out.Exchanges[2].Response.Body)
}

func TestExchangeFailed(t *testing.T) {
	assert.False(t, okExchange().Failed())

	ex := okExchange()
	ex.Response.StatusCode = 404
	assert.True(t, ex.Failed())

	ex = okExchange()
	ex.SchemaErr = errors.New("schema validation failed")
	assert.True(t, ex.Failed())

	assert.True(t, (&Exchange{}).Failed())
}

func TestFieldSummary(t *testing.T) {
	assert.Equal(t, "v", fieldSummary(form.Text("k", "v")))
	assert.Equal(t, "@a.png", fieldSummary(form.File("k", "a.png", "")))
	assert.Equal(t, "<blob text/plain|n.txt>", fieldSummary(form.Blob("k", []byte("x"), "text/plain", "n.txt")))
}
