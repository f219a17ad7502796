package services

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/yamlrg/connect/repositories"
)

// SessionInfo is one entry of the session selector: the opaque key, its
// parsed date when the key is date-shaped, and how many signups it has.
// Sessions created from events keep appearing even with zero signups.
type SessionInfo struct {
	Key     string    `json:"key"`
	Date    time.Time `json:"date,omitempty"`
	Signups int       `json:"signups"`
}

type SessionService interface {
	// ListSessions returns all known session keys, most recent first.
	ListSessions(ctx context.Context) ([]SessionInfo, error)
	// CurrentSessionKey returns the most recent session key.
	CurrentSessionKey(ctx context.Context) (string, error)
}

type sessionService struct {
	participantRepo repositories.ParticipantRepository
	eventRepo       repositories.EventRepository
}

func NewSessionService(participantRepo repositories.ParticipantRepository, eventRepo repositories.EventRepository) SessionService {
	return &sessionService{participantRepo: participantRepo, eventRepo: eventRepo}
}

func (s *sessionService) ListSessions(ctx context.Context) ([]SessionInfo, error) {
	counts, err := s.participantRepo.SessionCounts(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to load signup counts: %w", err)
	}
	events, err := s.eventRepo.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to load events: %w", err)
	}

	byKey := make(map[string]SessionInfo)
	// Event dates first, so sessions with no signups yet still show up.
	for _, e := range events {
		key := e.SessionKey()
		byKey[key] = SessionInfo{Key: key, Date: e.Date.UTC()}
	}
	for _, c := range counts {
		info, ok := byKey[c.SessionKey]
		if !ok {
			info = SessionInfo{Key: c.SessionKey}
			if d, parsed := parseSessionKey(c.SessionKey); parsed {
				info.Date = d
			}
		}
		info.Signups = c.Signups
		byKey[c.SessionKey] = info
	}

	sessions := make([]SessionInfo, 0, len(byKey))
	for _, info := range byKey {
		sessions = append(sessions, info)
	}
	sort.Slice(sessions, func(i, j int) bool {
		a, b := sessions[i], sessions[j]
		if a.Date.IsZero() != b.Date.IsZero() {
			return b.Date.IsZero() // dated sessions before undated ones
		}
		if !a.Date.Equal(b.Date) {
			return a.Date.After(b.Date)
		}
		return a.Key < b.Key
	})
	return sessions, nil
}

func (s *sessionService) CurrentSessionKey(ctx context.Context) (string, error) {
	sessions, err := s.ListSessions(ctx)
	if err != nil {
		return "", err
	}
	if len(sessions) == 0 {
		return "", ErrSessionNotFound
	}
	return sessions[0].Key, nil
}
