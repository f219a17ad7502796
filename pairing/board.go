package pairing

import (
	"fmt"
	"strconv"

	"github.com/yamlrg/connect/models"
)

// TeamCapacity is the hard member limit per team. Gradient Connect pairs
// people one-on-one, so a team is either empty, half-formed, or a pair.
const TeamCapacity = 2

// Snapshot is the read view handed to the presentation layer: the ordered
// team list plus the derived unassigned pool. It shares nothing with the
// board's internal state.
type Snapshot struct {
	SessionKey string               `json:"session_key"`
	Teams      []models.Team        `json:"teams"`
	Pool       []models.Participant `json:"pool"`
}

// Board is the in-memory assignment state for one loaded session. It owns the
// team layout; the unassigned pool is always derived from the roster, never
// mutated directly. A Board is not safe for concurrent use; the service
// layer serializes access per session.
type Board struct {
	sessionKey string
	teams      []models.Team
	nextTeamID int

	roster map[string]models.Participant
	order  []string // roster ids in registration order, for a stable pool
}

// NewBoard builds the board for a session from the registered participants
// and the persisted arrangement. A nil arrangement means the session has
// never been laid out: it starts with a single empty team. A non-nil
// arrangement is trusted as ground truth for team membership.
func NewBoard(sessionKey string, roster []models.Participant, arr *models.Arrangement) *Board {
	b := &Board{
		sessionKey: sessionKey,
		roster:     make(map[string]models.Participant, len(roster)),
	}
	for _, p := range roster {
		if _, ok := b.roster[p.ID]; ok {
			continue
		}
		b.roster[p.ID] = p
		b.order = append(b.order, p.ID)
	}

	if arr == nil {
		b.teams = []models.Team{{ID: "1", Members: []models.TeamMember{}}}
		b.nextTeamID = 2
		return b
	}

	b.teams = cloneTeams(arr.Teams)
	b.nextTeamID = arr.NextTeamID
	if b.nextTeamID <= 0 {
		// Older documents did not carry the counter; rebuild it from the
		// highest numeric id so fresh ids never collide with live teams.
		max := 0
		for _, t := range b.teams {
			if n, err := strconv.Atoi(t.ID); err == nil && n > max {
				max = n
			}
		}
		b.nextTeamID = max + 1
	}
	return b
}

func (b *Board) SessionKey() string { return b.sessionKey }

// Participant returns the roster record for an id.
func (b *Board) Participant(id string) (models.Participant, bool) {
	p, ok := b.roster[id]
	return p, ok
}

// UpdateStatus replaces the cached roster status after a successful store
// write, so subsequent snapshots reflect it.
func (b *Board) UpdateStatus(id string, status models.MatchStatus) {
	if p, ok := b.roster[id]; ok {
		p.Status = status
		b.roster[id] = p
	}
}

// Assign places a participant into the given team. Assigning a participant to
// the team it is already in is a no-op. The participant is removed from any
// other team first; capacity and uniqueness are verified before the board is
// touched.
func (b *Board) Assign(participantID, teamID string) error {
	member, ok := b.memberRef(participantID)
	if !ok {
		return fmt.Errorf("%w: %s", ErrParticipantNotFound, participantID)
	}

	idx := b.teamIndex(teamID)
	if idx < 0 {
		return fmt.Errorf("%w: %s", ErrTeamNotFound, teamID)
	}
	for _, m := range b.teams[idx].Members {
		if m.ParticipantID == participantID {
			return nil
		}
	}
	if len(b.teams[idx].Members) >= TeamCapacity {
		return ErrCapacityExceeded
	}

	next := removeMember(cloneTeams(b.teams), participantID)
	next[idx].Members = append(next[idx].Members, member)
	return b.commit(next)
}

// AssignAuto places a participant into the first team with room, creating a
// new team when every existing one is full. This is the documented behavior
// behind "drop an unassigned participant onto the board while all teams are
// at capacity". It returns the id of the team that received the participant.
func (b *Board) AssignAuto(participantID string) (string, error) {
	if _, ok := b.memberRef(participantID); !ok {
		return "", fmt.Errorf("%w: %s", ErrParticipantNotFound, participantID)
	}
	for _, t := range b.teams {
		if len(t.Members) < TeamCapacity {
			return t.ID, b.Assign(participantID, t.ID)
		}
	}
	teamID := b.CreateTeam()
	return teamID, b.Assign(participantID, teamID)
}

// Unassign removes a participant from whichever team holds it. Removing a
// participant that is not assigned is a no-op, not an error: the end state is
// what the caller asked for either way.
func (b *Board) Unassign(participantID string) error {
	next := removeMember(cloneTeams(b.teams), participantID)
	return b.commit(next)
}

// CreateTeam appends a new empty team and returns its id. Ids come from a
// monotonic per-session counter, so they stay unique even after deletions.
func (b *Board) CreateTeam() string {
	id := strconv.Itoa(b.nextTeamID)
	b.nextTeamID++
	b.teams = append(b.teams, models.Team{ID: id, Members: []models.TeamMember{}})
	return id
}

// DeleteTeam removes a team. Its members fall back into the derived pool;
// nobody is ever silently dropped.
func (b *Board) DeleteTeam(teamID string) error {
	idx := b.teamIndex(teamID)
	if idx < 0 {
		return fmt.Errorf("%w: %s", ErrTeamNotFound, teamID)
	}
	next := cloneTeams(b.teams)
	next = append(next[:idx], next[idx+1:]...)
	return b.commit(next)
}

// SetNotes updates a team's free-text annotation. An empty string clears it.
// Pure metadata: membership and statuses are untouched.
func (b *Board) SetNotes(teamID, notes string) error {
	idx := b.teamIndex(teamID)
	if idx < 0 {
		return fmt.Errorf("%w: %s", ErrTeamNotFound, teamID)
	}
	if notes == "" {
		b.teams[idx].Notes = nil
	} else {
		b.teams[idx].Notes = &notes
	}
	return nil
}

// Reset clears the board back to a single empty team, as if the session had
// just been initialized. The counter keeps advancing.
func (b *Board) Reset() {
	b.teams = []models.Team{{ID: strconv.Itoa(b.nextTeamID), Members: []models.TeamMember{}}}
	b.nextTeamID++
}

// Teams returns a copy of the current team layout.
func (b *Board) Teams() []models.Team {
	return cloneTeams(b.teams)
}

// Arrangement renders the board as the document to persist. Always a full,
// validated layout, never a partial patch.
func (b *Board) Arrangement() models.Arrangement {
	return models.Arrangement{
		SessionKey: b.sessionKey,
		Teams:      cloneTeams(b.teams),
		NextTeamID: b.nextTeamID,
	}
}

// Restore rewinds the board to a previously captured arrangement. Used to
// roll back the in-memory state when a store write fails, so the visible
// board never diverges from what is durable.
func (b *Board) Restore(arr models.Arrangement) {
	b.teams = cloneTeams(arr.Teams)
	b.nextTeamID = arr.NextTeamID
}

// Snapshot is the only read path: current teams plus the derived pool, in
// roster registration order. Pure: no store access and no shared state.
func (b *Board) Snapshot() Snapshot {
	assigned := make(map[string]struct{})
	for _, t := range b.teams {
		for _, m := range t.Members {
			assigned[m.ParticipantID] = struct{}{}
		}
	}
	pool := make([]models.Participant, 0, len(b.order))
	for _, id := range b.order {
		if _, ok := assigned[id]; !ok {
			pool = append(pool, b.roster[id])
		}
	}
	return Snapshot{
		SessionKey: b.sessionKey,
		Teams:      cloneTeams(b.teams),
		Pool:       pool,
	}
}

// memberRef resolves a participant id to the slim reference stored inside
// teams. Roster records win; a participant that only exists inside the
// persisted arrangement (signup removed after pairing) is still movable.
func (b *Board) memberRef(participantID string) (models.TeamMember, bool) {
	if p, ok := b.roster[participantID]; ok {
		return models.TeamMember{ParticipantID: p.ID, UserID: p.UserID, UserName: p.UserName}, true
	}
	for _, t := range b.teams {
		for _, m := range t.Members {
			if m.ParticipantID == participantID {
				return m, true
			}
		}
	}
	return models.TeamMember{}, false
}

func (b *Board) teamIndex(teamID string) int {
	for i, t := range b.teams {
		if t.ID == teamID {
			return i
		}
	}
	return -1
}

// commit verifies the invariants on the candidate layout and only then swaps
// it in. A violation aborts the mutation with the board unchanged.
func (b *Board) commit(next []models.Team) error {
	if err := validateTeams(next); err != nil {
		return err
	}
	b.teams = next
	return nil
}

// validateTeams checks the three arrangement invariants: unique team ids,
// team size within capacity, and no participant in more than one team.
func validateTeams(teams []models.Team) error {
	teamIDs := make(map[string]struct{}, len(teams))
	seen := make(map[string]string)
	for _, t := range teams {
		if _, dup := teamIDs[t.ID]; dup {
			return fmt.Errorf("%w: duplicate team id %s", ErrInvariantViolation, t.ID)
		}
		teamIDs[t.ID] = struct{}{}
		if len(t.Members) > TeamCapacity {
			return fmt.Errorf("%w: team %s has %d members", ErrInvariantViolation, t.ID, len(t.Members))
		}
		for _, m := range t.Members {
			if other, dup := seen[m.ParticipantID]; dup {
				return fmt.Errorf("%w: participant %s in teams %s and %s",
					ErrInvariantViolation, m.ParticipantID, other, t.ID)
			}
			seen[m.ParticipantID] = t.ID
		}
	}
	return nil
}

func removeMember(teams []models.Team, participantID string) []models.Team {
	for i, t := range teams {
		kept := t.Members[:0]
		for _, m := range t.Members {
			if m.ParticipantID != participantID {
				kept = append(kept, m)
			}
		}
		teams[i].Members = kept
	}
	return teams
}

func cloneTeams(teams []models.Team) []models.Team {
	out := make([]models.Team, len(teams))
	for i, t := range teams {
		out[i] = t
		out[i].Members = append([]models.TeamMember(nil), t.Members...)
		if t.Notes != nil {
			n := *t.Notes
			out[i].Notes = &n
		}
	}
	return out
}
