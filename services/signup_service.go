package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/yamlrg/connect/models"
	"github.com/yamlrg/connect/repositories"
)

// SignupService owns the registration workflow around the roster: self
// signup for the next round, cancellation, and admin manual entries. The
// assignment engine never creates or deletes roster records itself.
type SignupService interface {
	// SignUp registers a user for the next upcoming event.
	SignUp(ctx context.Context, userID string) (*models.Participant, error)
	// Cancel deletes a signup. Admins can cancel anyone's; members only
	// their own.
	Cancel(ctx context.Context, participantID, currentUserID string, isAdmin bool) error
	// AddManualMember registers a name-only participant for a session, for
	// people who asked to join outside the app.
	AddManualMember(ctx context.Context, sessionKey, name string) (*models.Participant, error)
	// SignupForNextEvent reports a user's signup for the next upcoming
	// event, or nil when not signed up.
	SignupForNextEvent(ctx context.Context, userID string) (*models.Participant, error)
}

type signupService struct {
	participantRepo repositories.ParticipantRepository
	userRepo        repositories.UserRepository
	eventRepo       repositories.EventRepository
}

func NewSignupService(
	participantRepo repositories.ParticipantRepository,
	userRepo repositories.UserRepository,
	eventRepo repositories.EventRepository,
) SignupService {
	return &signupService{
		participantRepo: participantRepo,
		userRepo:        userRepo,
		eventRepo:       eventRepo,
	}
}

func (s *signupService) SignUp(ctx context.Context, userID string) (*models.Participant, error) {
	user, err := s.userRepo.GetByID(ctx, userID)
	if err != nil {
		if errors.Is(err, repositories.ErrUserNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, fmt.Errorf("failed to load user %s: %w", userID, err)
	}

	event, err := s.eventRepo.NextUpcoming(ctx, time.Now().UTC())
	if err != nil {
		if errors.Is(err, repositories.ErrEventNotFound) {
			return nil, ErrNoUpcomingEvent
		}
		return nil, fmt.Errorf("failed to find next event: %w", err)
	}

	participant := &models.Participant{
		UserID:     user.ID,
		UserName:   user.DisplayName,
		UserEmail:  user.Email,
		SessionKey: event.SessionKey(),
	}
	if err := s.participantRepo.Create(ctx, participant); err != nil {
		if errors.Is(err, repositories.ErrParticipantConflict) {
			return nil, ErrAlreadySignedUp
		}
		return nil, fmt.Errorf("failed to create signup: %w", err)
	}
	return participant, nil
}

func (s *signupService) Cancel(ctx context.Context, participantID, currentUserID string, isAdmin bool) error {
	participant, err := s.participantRepo.FindByID(ctx, participantID)
	if err != nil {
		if errors.Is(err, repositories.ErrParticipantNotFound) {
			return ErrParticipantNotFound
		}
		return fmt.Errorf("failed to load signup %s: %w", participantID, err)
	}
	if !isAdmin && participant.UserID != currentUserID {
		return ErrSignupCancelNotOwner
	}
	return s.participantRepo.Delete(ctx, participantID)
}

func (s *signupService) AddManualMember(ctx context.Context, sessionKey, name string) (*models.Participant, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, ErrMemberNameRequired
	}

	participant := &models.Participant{
		UserID:      fmt.Sprintf("manual_%d", time.Now().UnixNano()),
		UserName:    name,
		UserEmail:   "manual@entry.com",
		SessionKey:  sessionKey,
		ManualEntry: true,
	}
	if err := s.participantRepo.Create(ctx, participant); err != nil {
		return nil, fmt.Errorf("failed to add manual member: %w", err)
	}
	return participant, nil
}

func (s *signupService) SignupForNextEvent(ctx context.Context, userID string) (*models.Participant, error) {
	event, err := s.eventRepo.NextUpcoming(ctx, time.Now().UTC())
	if err != nil {
		if errors.Is(err, repositories.ErrEventNotFound) {
			return nil, ErrNoUpcomingEvent
		}
		return nil, fmt.Errorf("failed to find next event: %w", err)
	}
	participant, err := s.participantRepo.FindByUserAndSession(ctx, userID, event.SessionKey())
	if err != nil {
		if errors.Is(err, repositories.ErrParticipantNotFound) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to look up signup: %w", err)
	}
	return participant, nil
}
