package pairing

import "errors"

var (
	ErrTeamNotFound        = errors.New("team not found in current arrangement")
	ErrParticipantNotFound = errors.New("participant not registered for this session")

	// ErrCapacityExceeded is a user-visible rejection: the target team already
	// holds two members and the board never silently overflows.
	ErrCapacityExceeded = errors.New("team already has two members")

	// ErrInvariantViolation means a mutation would have produced a corrupt
	// arrangement (duplicate member, oversized team, duplicate team id). The
	// mutation is aborted before anything is persisted.
	ErrInvariantViolation = errors.New("arrangement invariant violated")
)
