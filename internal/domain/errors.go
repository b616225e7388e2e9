package domain

import (
	"errors"
	"sort"
	"strings"
)

// ErrNotFound is returned by repo and service functions when the requested
// resource does not exist, or exists but is not visible to the caller.
// Handlers should map this to HTTP 404.
var ErrNotFound = errors.New("not found")

// ErrValidation is returned by service functions when input fails business
// rule validation (e.g. missing title, end date before start date).
// Handlers should map this to HTTP 422 Unprocessable Entity.
var ErrValidation = errors.New("validation error")

// ErrConflict is returned by repo functions when a write violates a
// uniqueness constraint (e.g. a username that is already taken).
var ErrConflict = errors.New("conflict")

// ErrUnauthenticated is returned when credentials or a session token do not
// identify a user. Handlers should map this to HTTP 401.
var ErrUnauthenticated = errors.New("unauthenticated")

// FieldErrors maps a field name to a human-readable message.
// It satisfies error and unwraps to ErrValidation, so callers can test with
// errors.Is(err, ErrValidation) and recover the messages with errors.As.
type FieldErrors map[string]string

// Error joins the messages in field-name order so the output is stable.
func (f FieldErrors) Error() string {
	keys := make([]string, 0, len(f))
	for k := range f {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	parts := make([]string, 0, len(keys))
	for _, k := range keys {
		parts = append(parts, k+": "+f[k])
	}
	return "validation error: " + strings.Join(parts, "; ")
}

// Unwrap lets errors.Is match ErrValidation.
func (f FieldErrors) Unwrap() error {
	return ErrValidation
}

// Add records msg for field unless the field already has a message.
// The first problem found for a field is the one reported.
func (f FieldErrors) Add(field, msg string) {
	if _, ok := f[field]; !ok {
		f[field] = msg
	}
}

// Err returns f as an error, or nil when no field failed.
func (f FieldErrors) Err() error {
	if len(f) == 0 {
		return nil
	}
	return f
}
