// Package errs contains sentinel errors used across layers for stable error mapping.
package errs

import "errors"

// Common sentinels across client/service/repo layers.
var (
	// ErrValidation indicates rejected input (e.g. Start without client or task).
	ErrValidation = errors.New("validation failed")

	// ErrUnauthorized indicates a missing, expired or otherwise invalid token.
	ErrUnauthorized = errors.New("unauthorized")

	// ErrNotFound indicates the requested entity does not exist.
	ErrNotFound = errors.New("not found")

	// ErrAlreadyExists indicates a unique constraint violation (e.g., username taken).
	ErrAlreadyExists = errors.New("already exists")

	// ErrTimerOpen indicates an open timer already exists for the user.
	ErrTimerOpen = errors.New("timer already open")

	// ErrTimerClosed indicates the timer was already finalized.
	ErrTimerClosed = errors.New("timer already stopped")

	// ErrRateLimited indicates too many failed login attempts.
	ErrRateLimited = errors.New("rate limited")

	// ErrServer indicates a 5xx response from the backend.
	ErrServer = errors.New("server error")

	// ErrNetwork indicates the request never produced an HTTP response.
	ErrNetwork = errors.New("network error")
)
