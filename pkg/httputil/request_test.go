package httputil

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gorilla/mux"
	"github.com/stretchr/testify/assert"
)

func TestPathString(t *testing.T) {
	r := httptest.NewRequest(http.MethodGet, "/plugins/raytrace", nil)
	assert.Empty(t, PathString(r, "name"))

	r = mux.SetURLVars(r, map[string]string{"name": "raytrace"})
	assert.Equal(t, "raytrace", PathString(r, "name"))
}

func TestParseQueryString(t *testing.T) {
	r := httptest.NewRequest(http.MethodGet, "/?direction=both", nil)
	assert.Equal(t, "both", ParseQueryString(r, "direction", "dependencies"))
	assert.Equal(t, "x", ParseQueryString(r, "missing", "x"))
}

func TestParseQueryList(t *testing.T) {
	tests := []struct {
		query string
		want  []string
	}{
		{"", nil},
		{"plugins=", nil},
		{"plugins=%20", nil},
		{"plugins=a", []string{"a"}},
		{"plugins=a,b", []string{"a", "b"}},
		{"plugins=b,%20a%20,,c", []string{"b", "a", "c"}},
	}

	for _, tt := range tests {
		t.Run(tt.query, func(t *testing.T) {
			r := httptest.NewRequest(http.MethodGet, "/?"+tt.query, nil)
			assert.Equal(t, tt.want, ParseQueryList(r, "plugins"))
		})
	}
}

func TestParseQueryBool(t *testing.T) {
	tests := []struct {
		query      string
		defaultVal bool
		want       bool
	}{
		{"", true, true},
		{"transitive=false", true, false},
		{"transitive=0", true, false},
		{"transitive=1", false, true},
		{"transitive=maybe", true, true},
	}

	for _, tt := range tests {
		r := httptest.NewRequest(http.MethodGet, "/?"+tt.query, nil)
		assert.Equal(t, tt.want, ParseQueryBool(r, "transitive", tt.defaultVal), tt.query)
	}
}

func TestParseQueryInt(t *testing.T) {
	r := httptest.NewRequest(http.MethodGet, "/?depth=3&bad=x", nil)
	assert.Equal(t, 3, ParseQueryInt(r, "depth", -1))
	assert.Equal(t, -1, ParseQueryInt(r, "bad", -1))
	assert.Equal(t, -1, ParseQueryInt(r, "missing", -1))
}
