package http

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"

	"playlater/internal/httpx"
	"playlater/internal/testutil"
)

func TestAuthMiddleware(t *testing.T) {
	secret := "test-secret"

	var gotUserID, gotRole string
	protected := AuthMiddleware(secret)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotUserID = httpx.UserIDFrom(r)
		gotRole = httpx.RoleFrom(r)
		w.WriteHeader(http.StatusOK)
	}))

	t.Run("valid token reaches the handler with identity", func(t *testing.T) {
		token := testutil.GenerateTestToken(secret, "user-1", "USER")

		w := httptest.NewRecorder()
		protected.ServeHTTP(w, testutil.NewRequestWithAuth(http.MethodGet, "/library", nil, token))

		assert.Equal(t, http.StatusOK, w.Code)
		assert.Equal(t, "user-1", gotUserID)
		assert.Equal(t, "USER", gotRole)
	})

	t.Run("missing header", func(t *testing.T) {
		w := httptest.NewRecorder()
		protected.ServeHTTP(w, testutil.NewRequest(http.MethodGet, "/library", nil))
		assert.Equal(t, http.StatusUnauthorized, w.Code)
	})

	t.Run("expired token", func(t *testing.T) {
		token := testutil.GenerateExpiredToken(secret, "user-1", "USER")

		w := httptest.NewRecorder()
		protected.ServeHTTP(w, testutil.NewRequestWithAuth(http.MethodGet, "/library", nil, token))
		assert.Equal(t, http.StatusUnauthorized, w.Code)
	})

	t.Run("token signed with another secret", func(t *testing.T) {
		token := testutil.GenerateTestToken("other-secret", "user-1", "USER")

		w := httptest.NewRecorder()
		protected.ServeHTTP(w, testutil.NewRequestWithAuth(http.MethodGet, "/library", nil, token))
		assert.Equal(t, http.StatusUnauthorized, w.Code)
	})
}
