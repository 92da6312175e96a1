package httputil

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/gorilla/mux"
)

// PathString returns a path parameter, or "" when the route has none
func PathString(r *http.Request, key string) string {
	return mux.Vars(r)[key]
}

// ParseQueryString extracts a query parameter with a default value
func ParseQueryString(r *http.Request, key, defaultVal string) string {
	if val := r.URL.Query().Get(key); val != "" {
		return val
	}
	return defaultVal
}

// ParseQueryList splits a comma separated query parameter. Blank entries
// are dropped, order is kept, and the result is nil when nothing remains.
func ParseQueryList(r *http.Request, key string) []string {
	raw := r.URL.Query().Get(key)
	if strings.TrimSpace(raw) == "" {
		return nil
	}

	var out []string
	for _, part := range strings.Split(raw, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}

// ParseQueryBool extracts a boolean query parameter with a default value.
// Unparseable values yield the default.
func ParseQueryBool(r *http.Request, key string, defaultVal bool) bool {
	str := r.URL.Query().Get(key)
	if str == "" {
		return defaultVal
	}
	val, err := strconv.ParseBool(str)
	if err != nil {
		return defaultVal
	}
	return val
}

// ParseQueryInt extracts an integer query parameter with a default value.
// Unparseable values yield the default.
func ParseQueryInt(r *http.Request, key string, defaultVal int) int {
	str := r.URL.Query().Get(key)
	if str == "" {
		return defaultVal
	}
	val, err := strconv.Atoi(str)
	if err != nil {
		return defaultVal
	}
	return val
}
