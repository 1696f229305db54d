package scope

import "errors"

var (
	// ErrScopeClosed is returned when invoking through a Scope after Close.
	ErrScopeClosed = errors.New("scope is closed")

	// ErrNoClient is returned when no client binary is configured anywhere
	// on the chain.
	ErrNoClient = errors.New("no client binary configured")
)
