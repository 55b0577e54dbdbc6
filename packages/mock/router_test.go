package mock

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRouter_Match(t *testing.T) {
	router := NewRouter()
	router.AddRoute(NewRoute("GET", "/", &MockResponse{Body: "root"}))
	router.AddRoute(NewRoute("get", "/users/{{id}}", &MockResponse{Body: "user {{id}}"}))
	router.AddRoute(NewRoute("POST", "api/forgotpassword", &MockResponse{StatusCode: 202}))
	router.AddRoute(NewRoute("*", "/any", &MockResponse{}))

	tests := []struct {
		name    string
		method  string
		path    string
		wantNil bool
		pattern string
		params  map[string]string
	}{
		{name: "root", method: "GET", path: "/", pattern: "/", params: map[string]string{}},
		{name: "param", method: "GET", path: "/users/42", pattern: "/users/{{id}}", params: map[string]string{"id": "42"}},
		{name: "trailing slash", method: "GET", path: "/users/42/", pattern: "/users/{{id}}", params: map[string]string{"id": "42"}},
		{name: "method mismatch", method: "DELETE", path: "/users/42", wantNil: true},
		{name: "normalized pattern", method: "POST", path: "/api/forgotpassword", pattern: "/api/forgotpassword", params: map[string]string{}},
		{name: "wildcard method", method: "PATCH", path: "/any", pattern: "/any", params: map[string]string{}},
		{name: "no route", method: "GET", path: "/missing", wantNil: true},
		{name: "nested beyond param", method: "GET", path: "/users/42/posts", wantNil: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			route, params := router.Match(tt.method, tt.path)
			if tt.wantNil {
				assert.Nil(t, route)
				return
			}
			require.NotNil(t, route)
			assert.Equal(t, tt.pattern, route.PathPattern)
			assert.Equal(t, tt.params, params)
		})
	}
}

func TestNewRoute_Defaults(t *testing.T) {
	route := NewRoute("post", "login", &MockResponse{})

	assert.Equal(t, "POST", route.Method)
	assert.Equal(t, "/login", route.PathPattern)
	assert.Equal(t, 200, route.Response.StatusCode)
	assert.Equal(t, "text/plain; charset=utf-8", route.Response.ContentType)
}

func TestCreatePathRegex_QuotesLiterals(t *testing.T) {
	re := createPathRegex("/files/a.b+c")

	assert.True(t, re.MatchString("/files/a.b+c"))
	assert.False(t, re.MatchString("/files/aXbbc"))
}

func TestResolveBodyParams(t *testing.T) {
	body := resolveBodyParams(`{"id": "{{id}}", "again": "{{id}}", "other": "{{other}}"}`, map[string]string{"id": "7"})
	assert.Equal(t, `{"id": "7", "again": "7", "other": "{{other}}"}`, body)
}
