package model

import "errors"

// Common errors used across the application
var (
	// Not-found errors
	ErrPlayerNotFound     = errors.New("player not found")
	ErrMatchNotFound      = errors.New("match not found")
	ErrCredentialNotFound = errors.New("credential not found")

	// Confirmation errors
	ErrNotParticipant    = errors.New("player is not a participant in this match")
	ErrInvalidMatchState = errors.New("match is not in a state that allows this action")
	ErrConcurrentUpdate  = errors.New("match was modified concurrently, try again")

	// Directory and scheduling errors
	ErrSamePlayer           = errors.New("a match needs two different players")
	ErrPlayerHasOpenMatches = errors.New("player is referenced by an unfinished match")
	ErrEmailExists          = errors.New("email already in use")
	ErrInvalidRank          = errors.New("rank is out of range")
	ErrInvalidRecord        = errors.New("wins and losses must not be negative")
)

// IsNotFound reports whether err is one of the not-found errors
func IsNotFound(err error) bool {
	return errors.Is(err, ErrPlayerNotFound) ||
		errors.Is(err, ErrMatchNotFound) ||
		errors.Is(err, ErrCredentialNotFound)
}
