package models

import "time"

// MatchStatus is the per-signup status sub-record. It is stored as a single
// jsonb value so targeted updates can merge individual fields without
// rewriting the whole record.
type MatchStatus struct {
	InviteSent      bool    `json:"invite_sent"`
	InviteAccepted  bool    `json:"invite_accepted"`
	Matched         bool    `json:"matched"`
	MatchedWith     *string `json:"matched_with,omitempty"`
	MatchedWithName *string `json:"matched_with_name,omitempty"`
}

// Unmatched reports whether the record carries no pairing information.
func (s MatchStatus) Unmatched() bool {
	return !s.Matched && s.MatchedWith == nil && s.MatchedWithName == nil
}

type Participant struct {
	ID          string      `json:"id" db:"id"`
	UserID      string      `json:"user_id" db:"user_id"`
	UserName    string      `json:"user_name" db:"user_name"`
	UserEmail   string      `json:"user_email" db:"user_email"`
	SessionKey  string      `json:"session_key" db:"session_key"`
	Status      MatchStatus `json:"status" db:"status"`
	ManualEntry bool        `json:"manual_entry,omitempty" db:"manual_entry"`
	CreatedAt   time.Time   `json:"created_at" db:"created_at"`
}
