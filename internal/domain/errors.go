package domain

import "errors"

// Sentinel errors for the API error taxonomy. Services return these (possibly
// wrapped); the HTTP layer maps them to status codes with errors.Is.
var (
	// ErrUnauthorized means no verified caller identity was presented.
	ErrUnauthorized = errors.New("authorization required")
	// ErrForbidden means the caller is authenticated but lacks ownership.
	ErrForbidden = errors.New("forbidden")
	// ErrNotFound means a referenced key does not resolve.
	ErrNotFound = errors.New("not found")
	// ErrConflict covers duplicate registration/wishlist entries and
	// exhausted capacity.
	ErrConflict = errors.New("conflict")
	// ErrInvalidInput covers missing or malformed required fields.
	ErrInvalidInput = errors.New("invalid input")

	// Query request errors.
	ErrInvalidFilter            = errors.New("filter contains invalid field or operator")
	ErrInvalidFilterValue       = errors.New("filter value cannot be coerced")
	ErrMultipleInequalityFields = errors.New("inequality filter is allowed on only one field")
)
