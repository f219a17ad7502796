package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/yamlrg/connect/models"
	"github.com/yamlrg/connect/repositories"
)

// InviteService tracks the invite half of a signup's status record. The
// invite flags live next to the match fields but are written independently,
// so the synchronization protocol and this service never race each other.
type InviteService interface {
	// SendMatchInvite emails the participant their session invite and marks
	// invite_sent. Manual entries have no reachable address and only get the
	// flag.
	SendMatchInvite(ctx context.Context, participantID string) (*models.Participant, error)
	SetInviteAccepted(ctx context.Context, participantID string, accepted bool) (*models.Participant, error)
}

type inviteService struct {
	participantRepo repositories.ParticipantRepository
	email           EmailSender
	logger          *slog.Logger
}

func NewInviteService(participantRepo repositories.ParticipantRepository, email EmailSender, logger *slog.Logger) InviteService {
	return &inviteService{participantRepo: participantRepo, email: email, logger: logger}
}

func (s *inviteService) SendMatchInvite(ctx context.Context, participantID string) (*models.Participant, error) {
	participant, err := s.participantRepo.FindByID(ctx, participantID)
	if err != nil {
		if errors.Is(err, repositories.ErrParticipantNotFound) {
			return nil, ErrParticipantNotFound
		}
		return nil, fmt.Errorf("failed to load participant %s: %w", participantID, err)
	}

	if !participant.ManualEntry {
		data := matchInviteData{
			Name:    participant.UserName,
			Session: participant.SessionKey,
		}
		if participant.Status.MatchedWithName != nil {
			data.PartnerName = *participant.Status.MatchedWithName
		}
		body, err := renderMatchInvite(data)
		if err != nil {
			return nil, err
		}
		subject := "Your Gradient Connect session: " + participant.SessionKey
		if err := s.email.SendEmail([]string{participant.UserEmail}, subject, body); err != nil {
			s.logger.Error("invite email delivery failed",
				slog.String("participant", participantID), slog.Any("error", err))
			return nil, fmt.Errorf("%w: %v", ErrInviteDeliveryFailed, err)
		}
	}

	if err := s.participantRepo.SetInviteSent(ctx, participantID, true); err != nil {
		return nil, fmt.Errorf("failed to record invite_sent: %w", err)
	}
	participant.Status.InviteSent = true
	return participant, nil
}

func (s *inviteService) SetInviteAccepted(ctx context.Context, participantID string, accepted bool) (*models.Participant, error) {
	participant, err := s.participantRepo.FindByID(ctx, participantID)
	if err != nil {
		if errors.Is(err, repositories.ErrParticipantNotFound) {
			return nil, ErrParticipantNotFound
		}
		return nil, fmt.Errorf("failed to load participant %s: %w", participantID, err)
	}
	if err := s.participantRepo.SetInviteAccepted(ctx, participantID, accepted); err != nil {
		return nil, fmt.Errorf("failed to record invite_accepted: %w", err)
	}
	participant.Status.InviteAccepted = accepted
	return participant, nil
}
