// Package errs contains sentinel errors used across layers for stable error mapping.
package errs

import "errors"

// Common sentinels across repo/service/transport layers.
var (
	// ErrValidation indicates missing or malformed input.
	ErrValidation = errors.New("validation")

	// ErrNotFound indicates the requested entity does not exist.
	ErrNotFound = errors.New("not found")

	// ErrAlreadyExists indicates a unique constraint violation (e.g., username taken).
	ErrAlreadyExists = errors.New("already exists")

	// ErrInvalidCredentials indicates a password mismatch on login.
	ErrInvalidCredentials = errors.New("invalid credentials")

	// ErrMissingToken indicates a protected call without a bearer token.
	ErrMissingToken = errors.New("missing token")

	// ErrInvalidToken indicates a bearer token with bad signature, claims or expiry.
	ErrInvalidToken = errors.New("invalid token")

	// ErrForbidden indicates an authenticated caller acting on someone else's resource.
	ErrForbidden = errors.New("forbidden")

	// ErrRateLimited indicates temporary login lock due to rate limiting.
	ErrRateLimited = errors.New("rate limited")
)
