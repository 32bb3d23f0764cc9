package http

import (
	"errors"
	"log"
	"net/http"

	"playlater/internal/apperr"
	"playlater/internal/httpx"
)

// writeServiceError renders a use-case error per the response policy:
// validation denials keep their specific message, not-found stays generic so
// ownership failures never confirm a row exists, rate limiting asks to retry,
// and everything uncategorized collapses to a generic internal error.
func writeServiceError(r *http.Request, w http.ResponseWriter, err error) {
	var ve *apperr.ValidationError
	switch {
	case errors.As(err, &ve):
		httpx.JSONError(r, w, http.StatusBadRequest, "VALIDATION_ERROR", ve.Message, nil)
	case errors.Is(err, apperr.ErrNotFound):
		httpx.JSONError(r, w, http.StatusNotFound, "NOT_FOUND", "Not found", nil)
	case errors.Is(err, apperr.ErrConflict):
		httpx.JSONError(r, w, http.StatusConflict, "CONFLICT", "This game is already in your library", nil)
	case errors.Is(err, apperr.ErrRateLimited):
		httpx.JSONError(r, w, http.StatusServiceUnavailable, "RATE_LIMITED", "The game catalog is busy. Please try again in a moment.", nil)
	case apperr.IsExternal(err):
		httpx.JSONError(r, w, http.StatusBadGateway, "EXTERNAL_ERROR", "The game catalog is currently unavailable", nil)
	default:
		log.Printf("http: unhandled service error request_id=%s err=%v", httpx.RequestIDFrom(r), err)
		httpx.JSONError(r, w, http.StatusInternalServerError, "INTERNAL_ERROR", "Internal server error", nil)
	}
}
