// Package apperrors defines the domain error taxonomy shared by both API
// surfaces. Services return these errors, handlers map them to HTTP status
// codes.
package apperrors

import (
	"errors"
	"fmt"
	"net/http"
	"strings"
)

var (
	// ErrUnauthenticated covers a missing, malformed, expired or
	// wrongly-signed session token.
	ErrUnauthenticated = errors.New("not authenticated")

	// ErrNotAuthorized is returned by ownership-filtered mutations when no
	// row matches (id, creator). A caller never learns whether the post
	// exists or merely belongs to someone else.
	ErrNotAuthorized = errors.New("not authorized")

	// ErrNotFound is returned by unscoped reads that miss.
	ErrNotFound = errors.New("not found")

	// ErrAlreadyExists signals a uniqueness violation (duplicate email).
	ErrAlreadyExists = errors.New("already exists")

	// ErrStorage signals a file system failure.
	ErrStorage = errors.New("storage error")

	// ErrPersistence signals a database failure.
	ErrPersistence = errors.New("database error")
)

// ValidationError carries per-field messages for malformed input.
type ValidationError struct {
	Fields map[string]string
}

func (e *ValidationError) Error() string {
	parts := make([]string, 0, len(e.Fields))
	for field, msg := range e.Fields {
		parts = append(parts, field+": "+msg)
	}
	return "invalid input: " + strings.Join(parts, "; ")
}

// NewValidation builds a ValidationError for a single field.
func NewValidation(field, format string, args ...any) *ValidationError {
	return &ValidationError{Fields: map[string]string{field: fmt.Sprintf(format, args...)}}
}

// Add appends a field message, allocating the map on first use.
func (e *ValidationError) Add(field, format string, args ...any) {
	if e.Fields == nil {
		e.Fields = make(map[string]string)
	}
	e.Fields[field] = fmt.Sprintf(format, args...)
}

// OrNil returns the error if any field failed, nil otherwise.
func (e *ValidationError) OrNil() error {
	if len(e.Fields) == 0 {
		return nil
	}
	return e
}

// HTTPStatus maps a domain error to its HTTP status code. Wrapped errors
// match through errors.Is/errors.As.
func HTTPStatus(err error) int {
	var ve *ValidationError
	switch {
	case errors.As(err, &ve):
		return http.StatusUnprocessableEntity
	case errors.Is(err, ErrUnauthenticated):
		return http.StatusUnauthorized
	case errors.Is(err, ErrNotAuthorized):
		return http.StatusForbidden
	case errors.Is(err, ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, ErrAlreadyExists):
		return http.StatusUnprocessableEntity
	default:
		return http.StatusInternalServerError
	}
}
