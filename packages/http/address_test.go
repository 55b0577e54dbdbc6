package http

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/abdul-hamid-achik/hitclient/packages/session"
)

func TestParseAddress(t *testing.T) {
	tests := []struct {
		input   string
		want    Address
		wantErr bool
	}{
		{input: "localhost", want: Address{Host: "localhost", Port: 80}},
		{input: "localhost:8000", want: Address{Host: "localhost", Port: 8000}},
		{input: "example.com:443", want: Address{Host: "example.com", Port: 443, Secure: true}},
		{input: "http://example.com", want: Address{Host: "example.com", Port: 80}},
		{input: "https://example.com", want: Address{Host: "example.com", Port: 443, Secure: true}},
		{input: "https://example.com:8443/path", want: Address{Host: "example.com", Port: 8443, Secure: true}},
		{input: "[::1]:9000", want: Address{Host: "::1", Port: 9000}},
		{input: " 127.0.0.1 ", want: Address{Host: "127.0.0.1", Port: 80}},
		{input: "", wantErr: true},
		{input: "ftp://example.com", wantErr: true},
		{input: "localhost:99999", wantErr: true},
		{input: "http://example.com:abc", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			got, err := ParseAddress(tt.input)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestAddress_StringAndFlags(t *testing.T) {
	a := Address{Host: "example.com", Port: 443, Secure: true}
	assert.Equal(t, "https://example.com:443", a.String())
	assert.Equal(t, session.FlagSecure, a.Flags())

	b := Address{Host: "::1", Port: 8000}
	assert.Equal(t, "http://[::1]:8000", b.String())
	assert.Equal(t, session.Flag(0), b.Flags())
}

func TestValidateURL(t *testing.T) {
	tests := []struct {
		name    string
		url     string
		wantErr bool
	}{
		{"valid http", "http://example.com", false},
		{"valid https", "https://example.com/path", false},
		{"file scheme", "file:///etc/passwd", true},
		{"javascript scheme", "javascript:alert(1)", true},
		{"missing host", "http://", true},
		{"malformed", "http://[::1", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateURL(tt.url)
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}
