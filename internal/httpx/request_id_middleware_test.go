package httpx

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestRequestIDMiddleware(t *testing.T) {
	var seen string
	handler := RequestIDMiddleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seen = RequestIDFrom(r)
	}))

	t.Run("generates an id when absent", func(t *testing.T) {
		w := httptest.NewRecorder()
		handler.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/", nil))

		assert.NotEmpty(t, seen)
		assert.Equal(t, seen, w.Header().Get(requestIDHeader))
	})

	t.Run("echoes a client-provided id", func(t *testing.T) {
		r := httptest.NewRequest(http.MethodGet, "/", nil)
		r.Header.Set(requestIDHeader, "client-id-42")

		w := httptest.NewRecorder()
		handler.ServeHTTP(w, r)

		assert.Equal(t, "client-id-42", seen)
		assert.Equal(t, "client-id-42", w.Header().Get(requestIDHeader))
	})

	t.Run("replaces an oversized id", func(t *testing.T) {
		r := httptest.NewRequest(http.MethodGet, "/", nil)
		r.Header.Set(requestIDHeader, strings.Repeat("x", maxRequestIDLength+1))

		w := httptest.NewRecorder()
		handler.ServeHTTP(w, r)

		assert.NotContains(t, seen, "xx")
		assert.LessOrEqual(t, len(seen), maxRequestIDLength)
	})
}
