package auth

import "errors"

var (
	// ErrInvalidCredentials covers every authentication failure: unknown
	// username, wrong password, or a failed invite-token check. Callers must
	// not be able to tell which part failed.
	ErrInvalidCredentials = errors.New("auth: invalid credentials")

	// ErrNoSession means the presented secret resolves to no live session.
	// An expired session and one that never existed are indistinguishable.
	ErrNoSession = errors.New("auth: session expired or does not exist")

	// ErrTokenExpired means the presented secret resolves to no live token.
	ErrTokenExpired = errors.New("auth: token expired or does not exist")

	// ErrNotLoggedIn means the session is valid but carries no LOGIN cookie.
	ErrNotLoggedIn = errors.New("auth: not logged in")

	// ErrCapabilityMismatch means the consumable token is valid but bound to
	// a different consumer than the one requested.
	ErrCapabilityMismatch = errors.New("auth: token not valid for capability")

	ErrNotFound      = errors.New("auth: not found")
	ErrAlreadyExists = errors.New("auth: already exists")
)
