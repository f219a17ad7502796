package services

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/yamlrg/connect/models"
)

func TestCreateEventNormalizesToSessionHour(t *testing.T) {
	er := &fakeEventRepo{}
	svc := NewEventService(er, testLogger())

	picked := time.Date(2100, time.March, 15, 9, 30, 0, 0, time.FixedZone("CET", 3600))
	event, err := svc.CreateEvent(context.Background(), picked)
	require.NoError(t, err)

	assert.Equal(t, time.Date(2100, time.March, 15, 17, 0, 0, 0, time.UTC), event.Date)
	assert.Equal(t, "March 15, 2100", event.SessionKey())
	assert.Equal(t, models.EventUpcoming, event.Status)
}

func TestCreateEventValidation(t *testing.T) {
	svc := NewEventService(&fakeEventRepo{}, testLogger())
	ctx := context.Background()

	_, err := svc.CreateEvent(ctx, time.Time{})
	assert.ErrorIs(t, err, ErrEventDateRequired)

	_, err = svc.CreateEvent(ctx, time.Date(2020, time.January, 1, 17, 0, 0, 0, time.UTC))
	assert.ErrorIs(t, err, ErrEventDateInPast)
}

func TestCompleteElapsedEvents(t *testing.T) {
	past := eventOn(2020, time.January, 1)
	future := eventOn(2100, time.January, 1)
	er := &fakeEventRepo{events: []models.Event{past, future}}
	svc := NewEventService(er, testLogger())

	require.NoError(t, svc.CompleteElapsedEvents(context.Background()))

	events, err := er.List(context.Background())
	require.NoError(t, err)
	assert.Equal(t, models.EventCompleted, events[0].Status)
	assert.Equal(t, models.EventUpcoming, events[1].Status)
}

func TestNextUpcomingMapsMissingEvent(t *testing.T) {
	svc := NewEventService(&fakeEventRepo{}, testLogger())

	_, err := svc.NextUpcoming(context.Background())
	assert.ErrorIs(t, err, ErrNoUpcomingEvent)
}
