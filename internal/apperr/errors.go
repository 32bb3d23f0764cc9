// Package apperr defines the error categories shared across services,
// repositories and handlers. Collaborator errors are translated into these at
// the point of detection; raw driver or transport errors never cross the
// use-case boundary.
package apperr

import (
	"errors"
	"fmt"
)

var (
	// ErrNotFound covers missing users, items and games, including rows a
	// caller does not own. Ownership failures deliberately surface as not
	// found so an endpoint never confirms a row's existence to a non-owner.
	ErrNotFound = errors.New("not found")

	// ErrConflict is a persistence unique-constraint collision, typically a
	// lost insert race.
	ErrConflict = errors.New("conflict")

	// ErrRateLimited means the external catalog provider answered 429. Callers
	// may retry after a delay; they must not retry ErrNotFound.
	ErrRateLimited = errors.New("rate limited")
)

// ValidationError is a user-visible rejection: bad input shape, a denied
// status transition, or a duplicate library entry. The message is safe to
// render verbatim.
type ValidationError struct {
	Message string
}

func (e *ValidationError) Error() string { return e.Message }

func Validationf(format string, args ...any) error {
	return &ValidationError{Message: fmt.Sprintf(format, args...)}
}

// IsValidation reports whether err is a ValidationError anywhere in its chain.
func IsValidation(err error) bool {
	var ve *ValidationError
	return errors.As(err, &ve)
}

// ExternalError is a catalog-provider failure: a non-2xx response (StatusCode
// and Body set) or a transport failure (Err set, no response).
type ExternalError struct {
	StatusCode int
	Body       string
	Err        error
}

func (e *ExternalError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("external service error: %v", e.Err)
	}
	return fmt.Sprintf("external service error: status %d: %s", e.StatusCode, e.Body)
}

func (e *ExternalError) Unwrap() error { return e.Err }

func IsExternal(err error) bool {
	var ee *ExternalError
	return errors.As(err, &ee)
}
