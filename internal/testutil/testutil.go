package testutil

import (
	"bytes"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"time"

	"playlater/internal/auth"
	"playlater/internal/entity"

	"github.com/golang-jwt/jwt/v5"
)

// TestUser is a mock user for testing
var TestUser = entity.User{
	ID:        "test-user-id-123",
	Username:  "testuser",
	Email:     "test@example.com",
	Password:  "hashedpassword",
	Role:      "USER",
	CreatedAt: time.Now(),
	UpdatedAt: time.Now(),
}

// TestGame is a mock game for testing
var TestGame = entity.Game{
	ID:           "test-game-id-789",
	IGDBID:       1942,
	Title:        "The Witness",
	Slug:         "the-witness",
	CoverImageID: "co1rcb",
	Summary:      "An exploration puzzle game on a deserted island.",
	CreatedAt:    time.Now(),
	UpdatedAt:    time.Now(),
}

// GenerateTestToken generates a JWT token for testing
func GenerateTestToken(secret, userID, role string) string {
	token, _ := auth.GenerateToken(secret, userID, role, time.Hour)
	return token
}

// GenerateExpiredToken generates an expired JWT token for testing
func GenerateExpiredToken(secret, userID, role string) string {
	c := auth.Claims{
		Sub:  userID,
		Role: role,
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(-time.Hour)),
			IssuedAt:  jwt.NewNumericDate(time.Now().Add(-2 * time.Hour)),
		},
	}
	t := jwt.NewWithClaims(jwt.SigningMethodHS256, c)
	token, _ := t.SignedString([]byte(secret))
	return token
}

// NewRequest creates a new HTTP request for testing
func NewRequest(method, path string, body interface{}) *http.Request {
	var bodyBytes []byte
	if body != nil {
		bodyBytes, _ = json.Marshal(body)
	}
	var r *http.Request
	if bodyBytes != nil {
		r = httptest.NewRequest(method, path, bytes.NewReader(bodyBytes))
		r.Header.Set("Content-Type", "application/json")
	} else {
		r = httptest.NewRequest(method, path, nil)
	}
	return r
}

// NewRequestWithAuth creates a new HTTP request with JWT auth for testing
func NewRequestWithAuth(method, path string, body interface{}, token string) *http.Request {
	r := NewRequest(method, path, body)
	if token != "" {
		r.Header.Set("Authorization", "Bearer "+token)
	}
	return r
}

// RecordResponse records the HTTP response for testing
type RecordResponse struct {
	Code   int
	Header http.Header
	Body   map[string]interface{}
}

// RecordHTTPResponse records the HTTP response
func RecordHTTPResponse(w *httptest.ResponseRecorder) RecordResponse {
	result := w.Result()
	defer result.Body.Close()

	bodyBytes, _ := io.ReadAll(result.Body)

	var bodyMap map[string]interface{}
	if len(bodyBytes) > 0 {
		json.NewDecoder(bytes.NewReader(bodyBytes)).Decode(&bodyMap)
	}

	return RecordResponse{
		Code:   result.StatusCode,
		Header: result.Header,
		Body:   bodyMap,
	}
}
