package observability

import (
	"bytes"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestRecoverPanic(t *testing.T) {
	var buf bytes.Buffer
	logger := NewLogger("info", &buf)

	func() {
		defer RecoverPanic(logger, "probe worker")
		panic("symbol table corrupted")
	}()

	assert.Contains(t, buf.String(), "PANIC recovered")
	assert.Contains(t, buf.String(), "probe worker")
}

func TestMustRecover(t *testing.T) {
	assert.NoError(t, MustRecover(nil))
	assert.EqualError(t, MustRecover("boom"), "panic: boom")
}

func TestRecoverMiddleware(t *testing.T) {
	var buf bytes.Buffer
	handler := RecoverMiddleware(NewLogger("info", &buf))(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {
		panic("handler exploded")
	}))

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/plugins", nil))

	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.True(t, strings.Contains(buf.String(), "/plugins"))
}
