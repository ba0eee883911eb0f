package internal

import "errors"

// Sentinel errors for the request boundary. Handlers map these to HTTP
// statuses with errors.Is; everything else is treated as internal.
var (
	// ErrValidation: bad input shape or range.
	ErrValidation = errors.New("invalid input")
	// ErrAuth: login rejected. The message must not reveal whether the
	// user key exists or only the password was wrong.
	ErrAuth = errors.New("wrong password or unknown user")
	// ErrNotAuthenticated: the action requires an active session.
	ErrNotAuthenticated = errors.New("not logged in")
	// ErrIdempotency: the once-per-day action was already performed today.
	ErrIdempotency = errors.New("already done today")
	// ErrNotFound: the referenced record does not exist.
	ErrNotFound = errors.New("record not found")
	// ErrStorage: the persisted record could not be read or written.
	ErrStorage = errors.New("storage failure")
)
