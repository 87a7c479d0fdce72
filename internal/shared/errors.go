package shared

import "errors"

var (

	// common errors
	ErrorNotFound = errors.New("not found")

	// validation errors, surfaced synchronously to the creating client
	ErrorValidation = errors.New("validation error")

	// ErrorSessionExpired means the token or file still resolves but its TTL
	// has passed. Kept distinct from ErrorNotFound so the HTTP layer can
	// answer 410 instead of 404.
	ErrorSessionExpired = errors.New("session expired")

	ErrorAlreadyExists = errors.New("already exists")

	// upload-specific errors
	ErrorRateLimited = errors.New("rate limited by storage provider")

	// sweep-trigger errors
	ErrorUnauthorized = errors.New("unauthorized")
)
