package pairing

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/yamlrg/connect/models"
)

func member(id string) models.TeamMember {
	return models.TeamMember{ParticipantID: id, UserID: "user-" + id, UserName: "Name " + id}
}

func team(id string, members ...models.TeamMember) models.Team {
	if members == nil {
		members = []models.TeamMember{}
	}
	return models.Team{ID: id, Members: members}
}

func matchedWith(partnerID string) models.MatchStatus {
	userID := "user-" + partnerID
	userName := "Name " + partnerID
	return models.MatchStatus{Matched: true, MatchedWith: &userID, MatchedWithName: &userName}
}

func updatesByID(updates []StatusUpdate) map[string]StatusUpdate {
	m := make(map[string]StatusUpdate, len(updates))
	for _, u := range updates {
		m[u.ParticipantID] = u
	}
	return m
}

func TestDiffStatusesCompletingPairMatchesBoth(t *testing.T) {
	before := []models.Team{team("1", member("a"))}
	after := []models.Team{team("1", member("a"), member("b"))}

	updates := updatesByID(DiffStatuses(before, after))
	require.Len(t, updates, 2)

	a := updates["a"]
	assert.True(t, a.Matched)
	assert.Equal(t, "user-b", *a.MatchedWith)
	assert.Equal(t, "Name b", *a.MatchedWithName)

	b := updates["b"]
	assert.True(t, b.Matched)
	assert.Equal(t, "user-a", *b.MatchedWith)
}

func TestDiffStatusesBreakingPairResetsBoth(t *testing.T) {
	before := []models.Team{team("1", member("a"), member("b")), team("2")}
	after := []models.Team{team("1", member("b")), team("2", member("a"))}

	updates := updatesByID(DiffStatuses(before, after))
	require.Len(t, updates, 2)

	// The moved member and the one left behind both lose their match.
	for _, id := range []string{"a", "b"} {
		u := updates[id]
		assert.False(t, u.Matched, id)
		assert.Nil(t, u.MatchedWith, id)
		assert.Nil(t, u.MatchedWithName, id)
	}
}

func TestDiffStatusesUntouchedPairsAreSilent(t *testing.T) {
	stable := team("1", member("a"), member("b"))
	before := []models.Team{stable, team("2", member("c"))}
	after := []models.Team{stable, team("2", member("c"), member("d"))}

	updates := updatesByID(DiffStatuses(before, after))
	require.Len(t, updates, 2)
	assert.Contains(t, updates, "c")
	assert.Contains(t, updates, "d")
	assert.NotContains(t, updates, "a")
	assert.NotContains(t, updates, "b")
}

func TestDiffStatusesSwapRepointsEveryone(t *testing.T) {
	before := []models.Team{
		team("1", member("a"), member("b")),
		team("2", member("c"), member("d")),
	}
	after := []models.Team{
		team("1", member("a"), member("c")),
		team("2", member("b"), member("d")),
	}

	updates := updatesByID(DiffStatuses(before, after))
	require.Len(t, updates, 4)
	assert.Equal(t, "user-c", *updates["a"].MatchedWith)
	assert.Equal(t, "user-d", *updates["b"].MatchedWith)
	assert.Equal(t, "user-a", *updates["c"].MatchedWith)
	assert.Equal(t, "user-b", *updates["d"].MatchedWith)
}

func TestDiffStatusesIdenticalLayoutsProduceNothing(t *testing.T) {
	layout := []models.Team{team("1", member("a"), member("b")), team("2", member("c"))}
	assert.Empty(t, DiffStatuses(layout, layout))
}

func TestDiffStatusesHalfTeamMembersStayUnmatched(t *testing.T) {
	before := []models.Team{team("1")}
	after := []models.Team{team("1", member("a"))}

	// Joining a team alone pairs nobody.
	assert.Empty(t, DiffStatuses(before, after))
}

func TestReconcileStatusesRepairsDivergentRoster(t *testing.T) {
	teams := []models.Team{team("1", member("a"), member("b"))}
	roster := []models.Participant{
		{ID: "a", UserID: "user-a", Status: matchedWith("b")},     // correct
		{ID: "b", UserID: "user-b"},                               // missing its match
		{ID: "c", UserID: "user-c", Status: matchedWith("a")},     // stale match
		{ID: "d", UserID: "user-d", Status: models.MatchStatus{}}, // correct
	}

	updates := updatesByID(ReconcileStatuses(teams, roster))
	require.Len(t, updates, 2)

	b := updates["b"]
	assert.True(t, b.Matched)
	assert.Equal(t, "user-a", *b.MatchedWith)

	c := updates["c"]
	assert.False(t, c.Matched)
	assert.Nil(t, c.MatchedWith)
}

func TestReconcileStatusesConvergedRosterIsSilent(t *testing.T) {
	teams := []models.Team{team("1", member("a"), member("b"))}
	roster := []models.Participant{
		{ID: "a", UserID: "user-a", Status: matchedWith("b")},
		{ID: "b", UserID: "user-b", Status: matchedWith("a")},
	}
	assert.Empty(t, ReconcileStatuses(teams, roster))
}
