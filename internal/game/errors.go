package game

import "errors"

var (
	// ErrInvalidBet is returned when a bet falls outside [MinBet, MaxBet].
	ErrInvalidBet = errors.New("bet amount out of range")

	// ErrInvalidState is returned when an operation is attempted against a
	// session in the wrong status.
	ErrInvalidState = errors.New("invalid session state")

	// ErrAlreadyQueued is returned on a duplicate queue join.
	ErrAlreadyQueued = errors.New("player already in queue")

	// ErrNotFound is returned for an unknown session or queue entry.
	ErrNotFound = errors.New("not found")

	// ErrNoWinnings is returned when a claim is attempted with nothing owed.
	ErrNoWinnings = errors.New("no winnings to claim")
)
