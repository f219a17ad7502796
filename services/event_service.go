package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/yamlrg/connect/models"
	"github.com/yamlrg/connect/repositories"
)

// eventHourUTC is when every Gradient Connect round starts. Event dates are
// normalized to it so session keys derived from the date are stable no matter
// what time the admin picked.
const eventHourUTC = 17

type EventService interface {
	CreateEvent(ctx context.Context, date time.Time) (*models.Event, error)
	ListEvents(ctx context.Context) ([]models.Event, error)
	NextUpcoming(ctx context.Context) (*models.Event, error)
	// CompleteElapsedEvents marks past upcoming events completed; run
	// periodically by the scheduler in main.
	CompleteElapsedEvents(ctx context.Context) error
}

type eventService struct {
	eventRepo repositories.EventRepository
	logger    *slog.Logger
}

func NewEventService(eventRepo repositories.EventRepository, logger *slog.Logger) EventService {
	return &eventService{eventRepo: eventRepo, logger: logger}
}

func (s *eventService) CreateEvent(ctx context.Context, date time.Time) (*models.Event, error) {
	if date.IsZero() {
		return nil, ErrEventDateRequired
	}
	d := date.UTC()
	d = time.Date(d.Year(), d.Month(), d.Day(), eventHourUTC, 0, 0, 0, time.UTC)
	if d.Before(time.Now().UTC()) {
		return nil, ErrEventDateInPast
	}

	event := &models.Event{Date: d, Status: models.EventUpcoming}
	if err := s.eventRepo.Create(ctx, event); err != nil {
		return nil, fmt.Errorf("failed to create event: %w", err)
	}
	return event, nil
}

func (s *eventService) ListEvents(ctx context.Context) ([]models.Event, error) {
	return s.eventRepo.List(ctx)
}

func (s *eventService) NextUpcoming(ctx context.Context) (*models.Event, error) {
	event, err := s.eventRepo.NextUpcoming(ctx, time.Now().UTC())
	if err != nil {
		if errors.Is(err, repositories.ErrEventNotFound) {
			return nil, ErrNoUpcomingEvent
		}
		return nil, err
	}
	return event, nil
}

func (s *eventService) CompleteElapsedEvents(ctx context.Context) error {
	n, err := s.eventRepo.CompleteElapsed(ctx, time.Now().UTC())
	if err != nil {
		return err
	}
	if n > 0 {
		s.logger.Info("events marked completed", slog.Int64("count", n))
	}
	return nil
}
