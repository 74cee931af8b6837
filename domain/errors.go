package domain

import "errors"

// Base errors for the game error taxonomy. Operations wrap these with a
// human-readable reason, so callers classify with errors.Is and surface the
// full message to the client.
var (
	ErrValidation = errors.New("invalid-request")
	ErrNotFound   = errors.New("game-not-found")
	ErrState      = errors.New("invalid-game-state")
	ErrCapacity   = errors.New("capacity-exceeded")
	ErrConflict   = errors.New("conflict")
)

// ErrUnexpectedStore wraps store failures that are not part of the taxonomy.
var ErrUnexpectedStore = errors.New("unexpected-store-error")
