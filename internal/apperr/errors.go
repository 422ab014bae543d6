// Package apperr holds the error kinds surfaced to API clients.
package apperr

import "errors"

var (
	ErrInvalidFormat = errors.New("invalid format")
	ErrInvalidField  = errors.New("invalid field")
	ErrNotFound      = errors.New("not found")
	ErrConflict      = errors.New("conflict")
	ErrUnauthorized  = errors.New("unauthorized")
)

// Code returns the stable client-facing code for err, or "internal".
func Code(err error) string {
	switch {
	case errors.Is(err, ErrInvalidFormat):
		return "invalid_format"
	case errors.Is(err, ErrInvalidField):
		return "invalid_field"
	case errors.Is(err, ErrNotFound):
		return "not_found"
	case errors.Is(err, ErrConflict):
		return "conflict"
	case errors.Is(err, ErrUnauthorized):
		return "unauthorized"
	default:
		return "internal"
	}
}
