package session

import (
	"bufio"
	"bytes"
	"errors"
	"io"
	"net/http"
	"time"
)

// readChunkSize bounds how much a single available-data query can report
const readChunkSize = 8 * 1024

// readBody drains body with a query-available/read loop, stopping once the
// available byte count is zero.
func readBody(body io.Reader) ([]byte, error) {
	reader := bufio.NewReaderSize(body, readChunkSize)
	out := &bytes.Buffer{}

	for {
		size, err := available(reader)
		if size == 0 {
			if err != nil && !errors.Is(err, io.EOF) {
				return out.Bytes(), err
			}
			return out.Bytes(), nil
		}

		chunk := make([]byte, size)
		if _, err := io.ReadFull(reader, chunk); err != nil {
			return out.Bytes(), err
		}
		out.Write(chunk)
	}
}

// available reports the bytes that can be read without blocking on more than
// one underlying read.
func available(reader *bufio.Reader) (int, error) {
	if n := reader.Buffered(); n > 0 {
		return n, nil
	}
	_, err := reader.Peek(1)
	return reader.Buffered(), err
}

func toResponse(resp *http.Response, body []byte, duration time.Duration) *Response {
	headers := make(map[string]string, len(resp.Header))
	for k := range resp.Header {
		headers[k] = resp.Header.Get(k)
	}

	return &Response{
		StatusCode: resp.StatusCode,
		Status:     resp.Status,
		Proto:      resp.Proto,
		Headers:    headers,
		Body:       body,
		Duration:   duration,
	}
}
