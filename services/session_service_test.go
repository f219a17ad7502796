package services

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/yamlrg/connect/models"
	"github.com/yamlrg/connect/repositories"
)

type fakeEventRepo struct {
	mu     sync.Mutex
	events []models.Event
}

func (r *fakeEventRepo) Create(ctx context.Context, e *models.Event) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if e.ID == "" {
		e.ID = e.Date.Format("event-2006-01-02")
	}
	r.events = append(r.events, *e)
	return nil
}

func (r *fakeEventRepo) List(ctx context.Context) ([]models.Event, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]models.Event(nil), r.events...), nil
}

func (r *fakeEventRepo) NextUpcoming(ctx context.Context, after time.Time) (*models.Event, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var next *models.Event
	for i, e := range r.events {
		if e.Status != models.EventUpcoming || e.Date.Before(after) {
			continue
		}
		if next == nil || e.Date.Before(next.Date) {
			next = &r.events[i]
		}
	}
	if next == nil {
		return nil, repositories.ErrEventNotFound
	}
	e := *next
	return &e, nil
}

func (r *fakeEventRepo) CompleteElapsed(ctx context.Context, now time.Time) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var n int64
	for i, e := range r.events {
		if e.Status == models.EventUpcoming && e.Date.Before(now) {
			r.events[i].Status = models.EventCompleted
			n++
		}
	}
	return n, nil
}

func eventOn(year int, month time.Month, day int) models.Event {
	return models.Event{
		Date:   time.Date(year, month, day, 17, 0, 0, 0, time.UTC),
		Status: models.EventUpcoming,
	}
}

func TestListSessionsOrdersMostRecentFirst(t *testing.T) {
	older := eventOn(2026, time.June, 6)
	newer := eventOn(2026, time.July, 4)
	er := &fakeEventRepo{events: []models.Event{older, newer}}

	pr := newFakeParticipantRepo(
		sessionParticipant("a", older.SessionKey()),
		sessionParticipant("b", older.SessionKey()),
	)
	svc := NewSessionService(pr, er)

	sessions, err := svc.ListSessions(context.Background())
	require.NoError(t, err)
	require.Len(t, sessions, 2)

	// The newer event leads even though nobody signed up for it yet.
	assert.Equal(t, "July 4, 2026", sessions[0].Key)
	assert.Equal(t, 0, sessions[0].Signups)
	assert.Equal(t, "June 6, 2026", sessions[1].Key)
	assert.Equal(t, 2, sessions[1].Signups)
}

func TestListSessionsKeepsSessionsWithoutEvents(t *testing.T) {
	// Signups can outlive their event record; the key alone carries the date.
	pr := newFakeParticipantRepo(sessionParticipant("a", "May 1, 2026"))
	svc := NewSessionService(pr, &fakeEventRepo{})

	sessions, err := svc.ListSessions(context.Background())
	require.NoError(t, err)
	require.Len(t, sessions, 1)
	assert.Equal(t, "May 1, 2026", sessions[0].Key)
	assert.Equal(t, 1, sessions[0].Signups)
	assert.Equal(t, time.Date(2026, time.May, 1, 0, 0, 0, 0, time.UTC), sessions[0].Date)
}

func TestListSessionsPutsUndatedKeysLast(t *testing.T) {
	pr := newFakeParticipantRepo(
		sessionParticipant("a", "legacy-import"),
		sessionParticipant("b", "August 1, 2026"),
	)
	svc := NewSessionService(pr, &fakeEventRepo{})

	sessions, err := svc.ListSessions(context.Background())
	require.NoError(t, err)
	require.Len(t, sessions, 2)
	assert.Equal(t, "August 1, 2026", sessions[0].Key)
	assert.Equal(t, "legacy-import", sessions[1].Key)
}

func TestCurrentSessionKey(t *testing.T) {
	er := &fakeEventRepo{events: []models.Event{eventOn(2026, time.July, 4)}}
	svc := NewSessionService(newFakeParticipantRepo(), er)

	key, err := svc.CurrentSessionKey(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "July 4, 2026", key)
}

func TestCurrentSessionKeyEmpty(t *testing.T) {
	svc := NewSessionService(newFakeParticipantRepo(), &fakeEventRepo{})

	_, err := svc.CurrentSessionKey(context.Background())
	assert.ErrorIs(t, err, ErrSessionNotFound)
}
