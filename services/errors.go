package services

import "errors"

// Errors shared across services and the HTTP mapping.
var (
	ErrNotFound = errors.New("requested resource not found")

	// ErrPersistenceFailure wraps a failed or timed-out store write. The
	// in-memory board has already been rolled back when this is returned;
	// the caller should retry.
	ErrPersistenceFailure = errors.New("failed to persist changes")

	// Validation and business rules
	ErrPasswordTooShort     = errors.New("password is too short")
	ErrMemberNameRequired   = errors.New("member name is required")
	ErrEventDateRequired    = errors.New("event date is required")
	ErrEventDateInPast      = errors.New("event date must be in the future")
	ErrNoUpcomingEvent      = errors.New("no upcoming session to sign up for")
	ErrAlreadySignedUp      = errors.New("already signed up for this session")
	ErrSignupCancelNotOwner = errors.New("only the signup owner or an admin can cancel it")

	// Authentication
	ErrAuthInvalidCredentials = errors.New("invalid email or password")
	ErrAuthEmailTaken         = errors.New("email is already taken")

	// Entity-specific lookups
	ErrUserNotFound        = errors.New("user not found")
	ErrParticipantNotFound = errors.New("participant not found")
	ErrSessionNotFound     = errors.New("session not found")

	// Invite delivery
	ErrInviteDeliveryFailed = errors.New("failed to deliver invite email")
)
