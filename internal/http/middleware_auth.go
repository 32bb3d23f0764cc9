package http

import (
	"net/http"
	"strings"

	"playlater/internal/auth"
	"playlater/internal/httpx"
)

func AuthMiddleware(secret string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			authHeader := r.Header.Get("Authorization")
			if !strings.HasPrefix(authHeader, "Bearer ") {
				httpx.JSONError(r, w, http.StatusUnauthorized, "UNAUTHORIZED", "Authentication required", nil)
				return
			}
			token := strings.TrimPrefix(authHeader, "Bearer ")

			claims, err := auth.ParseToken(secret, token)
			if err != nil {
				httpx.JSONError(r, w, http.StatusUnauthorized, "UNAUTHORIZED", "Authentication required", nil)
				return
			}

			ctx := httpx.ContextWithUser(r.Context(), claims.Sub, claims.Role)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}
