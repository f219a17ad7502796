package models

import "time"

// TeamMember is the slim participant reference kept inside an arrangement
// document. Profile data lives on the roster record; only what the board and
// the match-status writes need is duplicated here.
type TeamMember struct {
	ParticipantID string `json:"participant_id"`
	UserID        string `json:"user_id"`
	UserName      string `json:"user_name"`
}

type Team struct {
	ID      string       `json:"id"`
	Members []TeamMember `json:"members"`
	Notes   *string      `json:"notes,omitempty"`

	// PreviouslyPaired marks a full team whose two members were matched in an
	// earlier session. Derived per snapshot, never persisted.
	PreviouslyPaired bool `json:"previously_paired,omitempty"`
}

// Arrangement is the persisted team layout for one session. It is written as
// a whole document on every save; NextTeamID keeps team ids unique across
// deletions and reloads.
type Arrangement struct {
	SessionKey string    `json:"session_key" db:"session_key"`
	Teams      []Team    `json:"teams" db:"teams"`
	NextTeamID int       `json:"next_team_id" db:"next_team_id"`
	UpdatedAt  time.Time `json:"updated_at" db:"updated_at"`
}
