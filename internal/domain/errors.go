package domain

import "errors"

var (
	// ErrMissingIdentifier means the OpenID claimed_id was absent or empty.
	ErrMissingIdentifier = errors.New("missing steam identifier")
	// ErrMalformedIdentifier means the claimed_id had no trailing path segment.
	ErrMalformedIdentifier = errors.New("malformed steam identifier")
	// ErrProfileNotFound means Steam returned no player for the requested id.
	ErrProfileNotFound = errors.New("steam profile not found")
	// ErrUpstreamUnavailable wraps any failed third-party HTTP call.
	ErrUpstreamUnavailable  = errors.New("upstream unavailable")
	ErrAuthenticationFailed = errors.New("authentication failed")
	ErrUnauthenticated      = errors.New("unauthenticated")
	ErrForbidden            = errors.New("forbidden")
	// ErrPersistenceFailure marks storage errors that are logged but not surfaced.
	ErrPersistenceFailure = errors.New("persistence failure")

	ErrNotFound     = errors.New("not found")
	ErrInvalidInput = errors.New("invalid input")
)
