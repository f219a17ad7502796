package pairing

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/yamlrg/connect/models"
)

func testRoster(ids ...string) []models.Participant {
	roster := make([]models.Participant, 0, len(ids))
	for _, id := range ids {
		roster = append(roster, models.Participant{
			ID:       id,
			UserID:   "user-" + id,
			UserName: "Name " + id,
		})
	}
	return roster
}

func TestNewBoardStartsWithSingleEmptyTeam(t *testing.T) {
	board := NewBoard("July 4, 2026", testRoster("a", "b"), nil)

	teams := board.Teams()
	require.Len(t, teams, 1)
	assert.Equal(t, "1", teams[0].ID)
	assert.Empty(t, teams[0].Members)

	snap := board.Snapshot()
	require.Len(t, snap.Pool, 2)
	assert.Equal(t, "a", snap.Pool[0].ID)
	assert.Equal(t, "b", snap.Pool[1].ID)
}

func TestNewBoardRebuildsCounterFromLegacyArrangement(t *testing.T) {
	arr := &models.Arrangement{
		SessionKey: "July 4, 2026",
		Teams: []models.Team{
			{ID: "3", Members: []models.TeamMember{}},
			{ID: "7", Members: []models.TeamMember{}},
		},
	}
	board := NewBoard("July 4, 2026", nil, arr)

	assert.Equal(t, "8", board.CreateTeam())
}

func TestAssignMovesParticipantBetweenTeams(t *testing.T) {
	board := NewBoard("s", testRoster("a", "b", "c"), nil)
	require.Equal(t, "2", board.CreateTeam())

	require.NoError(t, board.Assign("a", "1"))
	require.NoError(t, board.Assign("b", "1"))
	require.NoError(t, board.Assign("c", "2"))

	// Moving a out of the full team leaves b behind alone.
	require.NoError(t, board.Assign("a", "2"))

	teams := board.Teams()
	require.Len(t, teams, 2)
	require.Len(t, teams[0].Members, 1)
	assert.Equal(t, "b", teams[0].Members[0].ParticipantID)
	require.Len(t, teams[1].Members, 2)

	snap := board.Snapshot()
	assert.Empty(t, snap.Pool)
}

func TestAssignIsIdempotent(t *testing.T) {
	board := NewBoard("s", testRoster("a", "b"), nil)
	require.NoError(t, board.Assign("a", "1"))
	require.NoError(t, board.Assign("b", "1"))

	before := board.Teams()
	require.NoError(t, board.Assign("a", "1"))
	assert.Equal(t, before, board.Teams())
}

func TestAssignRejectsFullTeamUnchanged(t *testing.T) {
	board := NewBoard("s", testRoster("a", "b", "c"), nil)
	require.NoError(t, board.Assign("a", "1"))
	require.NoError(t, board.Assign("b", "1"))

	before := board.Snapshot()
	err := board.Assign("c", "1")
	require.ErrorIs(t, err, ErrCapacityExceeded)
	assert.Equal(t, before, board.Snapshot())
}

func TestAssignErrors(t *testing.T) {
	board := NewBoard("s", testRoster("a"), nil)

	assert.ErrorIs(t, board.Assign("ghost", "1"), ErrParticipantNotFound)
	assert.ErrorIs(t, board.Assign("a", "99"), ErrTeamNotFound)
}

func TestAssignAutoCreatesTeamWhenAllFull(t *testing.T) {
	board := NewBoard("s", testRoster("a", "b", "c"), nil)
	require.NoError(t, board.Assign("a", "1"))
	require.NoError(t, board.Assign("b", "1"))

	teamID, err := board.AssignAuto("c")
	require.NoError(t, err)
	assert.Equal(t, "2", teamID)

	teams := board.Teams()
	require.Len(t, teams, 2)
	require.Len(t, teams[1].Members, 1)
	assert.Equal(t, "c", teams[1].Members[0].ParticipantID)
}

func TestAssignAutoPrefersExistingRoom(t *testing.T) {
	board := NewBoard("s", testRoster("a", "b"), nil)
	require.NoError(t, board.Assign("a", "1"))

	teamID, err := board.AssignAuto("b")
	require.NoError(t, err)
	assert.Equal(t, "1", teamID)
	require.Len(t, board.Teams(), 1)
}

func TestUnassignReturnsParticipantToPool(t *testing.T) {
	board := NewBoard("s", testRoster("a", "b"), nil)
	require.NoError(t, board.Assign("a", "1"))
	require.NoError(t, board.Assign("b", "1"))

	require.NoError(t, board.Unassign("a"))

	snap := board.Snapshot()
	require.Len(t, snap.Pool, 1)
	assert.Equal(t, "a", snap.Pool[0].ID)
	require.Len(t, snap.Teams[0].Members, 1)
	assert.Equal(t, "b", snap.Teams[0].Members[0].ParticipantID)

	// Unassigning someone already in the pool is a no-op.
	require.NoError(t, board.Unassign("a"))
}

func TestDeleteTeamReleasesMembers(t *testing.T) {
	board := NewBoard("s", testRoster("a", "b"), nil)
	require.NoError(t, board.Assign("a", "1"))
	require.NoError(t, board.Assign("b", "1"))

	require.NoError(t, board.DeleteTeam("1"))

	snap := board.Snapshot()
	assert.Empty(t, snap.Teams)
	assert.Len(t, snap.Pool, 2)

	assert.ErrorIs(t, board.DeleteTeam("1"), ErrTeamNotFound)
}

func TestTeamIDsNeverReused(t *testing.T) {
	board := NewBoard("s", nil, nil)

	id2 := board.CreateTeam()
	require.NoError(t, board.DeleteTeam(id2))
	id3 := board.CreateTeam()

	assert.NotEqual(t, id2, id3)
	assert.Equal(t, "3", id3)
}

func TestSetNotes(t *testing.T) {
	board := NewBoard("s", nil, nil)

	require.NoError(t, board.SetNotes("1", "meets thursdays"))
	teams := board.Teams()
	require.NotNil(t, teams[0].Notes)
	assert.Equal(t, "meets thursdays", *teams[0].Notes)

	require.NoError(t, board.SetNotes("1", ""))
	assert.Nil(t, board.Teams()[0].Notes)

	assert.ErrorIs(t, board.SetNotes("99", "x"), ErrTeamNotFound)
}

func TestResetLeavesSingleEmptyTeamWithFreshID(t *testing.T) {
	board := NewBoard("s", testRoster("a", "b"), nil)
	require.NoError(t, board.Assign("a", "1"))
	board.CreateTeam()

	board.Reset()

	teams := board.Teams()
	require.Len(t, teams, 1)
	assert.Equal(t, "3", teams[0].ID)
	assert.Empty(t, teams[0].Members)
	assert.Len(t, board.Snapshot().Pool, 2)
}

func TestRestoreRewindsLayout(t *testing.T) {
	board := NewBoard("s", testRoster("a", "b"), nil)
	require.NoError(t, board.Assign("a", "1"))
	saved := board.Arrangement()

	require.NoError(t, board.Assign("b", "1"))
	board.Restore(saved)

	teams := board.Teams()
	require.Len(t, teams[0].Members, 1)
	assert.Equal(t, "a", teams[0].Members[0].ParticipantID)
}

func TestBoardMovesOrphanedArrangementMember(t *testing.T) {
	// The signup was deleted after pairing; the arrangement still names it.
	arr := &models.Arrangement{
		SessionKey: "s",
		Teams: []models.Team{
			{ID: "1", Members: []models.TeamMember{
				{ParticipantID: "gone", UserID: "user-gone", UserName: "Gone"},
			}},
			{ID: "2", Members: []models.TeamMember{}},
		},
		NextTeamID: 3,
	}
	board := NewBoard("s", nil, arr)

	require.NoError(t, board.Assign("gone", "2"))
	teams := board.Teams()
	assert.Empty(t, teams[0].Members)
	require.Len(t, teams[1].Members, 1)
	assert.Equal(t, "gone", teams[1].Members[0].ParticipantID)
}

func TestSnapshotIsDetachedFromBoard(t *testing.T) {
	board := NewBoard("s", testRoster("a"), nil)
	require.NoError(t, board.Assign("a", "1"))

	snap := board.Snapshot()
	snap.Teams[0].Members[0].UserName = "mutated"

	assert.Equal(t, "Name a", board.Teams()[0].Members[0].UserName)
}

func TestValidateTeamsRejectsCorruptLayouts(t *testing.T) {
	member := func(id string) models.TeamMember {
		return models.TeamMember{ParticipantID: id, UserID: "user-" + id}
	}

	tests := []struct {
		name  string
		teams []models.Team
	}{
		{
			name: "duplicate team ids",
			teams: []models.Team{
				{ID: "1"}, {ID: "1"},
			},
		},
		{
			name: "over capacity",
			teams: []models.Team{
				{ID: "1", Members: []models.TeamMember{member("a"), member("b"), member("c")}},
			},
		},
		{
			name: "participant in two teams",
			teams: []models.Team{
				{ID: "1", Members: []models.TeamMember{member("a")}},
				{ID: "2", Members: []models.TeamMember{member("a")}},
			},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.ErrorIs(t, validateTeams(tt.teams), ErrInvariantViolation)
		})
	}
}
