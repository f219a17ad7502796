package models

import "time"

type EventStatus string

const (
	EventUpcoming  EventStatus = "upcoming"
	EventCompleted EventStatus = "completed"
)

type Event struct {
	ID        string      `json:"id" db:"id"`
	Date      time.Time   `json:"date" db:"date"`
	Status    EventStatus `json:"status" db:"status"`
	CreatedAt time.Time   `json:"created_at" db:"created_at"`
}

// SessionKeyLayout is the format used to derive opaque session keys from
// event dates. Kept human-readable because the keys double as labels in the
// admin session selector.
const SessionKeyLayout = "January 2, 2006"

// SessionKey returns the session key all signups for this event share.
func (e Event) SessionKey() string {
	return e.Date.UTC().Format(SessionKeyLayout)
}
