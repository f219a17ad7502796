package pairing

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/yamlrg/connect/models"
)

func TestPairKeyIsOrderIndependent(t *testing.T) {
	assert.Equal(t, PairKey("u1", "u2"), PairKey("u2", "u1"))
	assert.NotEqual(t, PairKey("u1", "u2"), PairKey("u1", "u3"))
}

func TestBuildPairHistorySkipsPartialTeams(t *testing.T) {
	history := BuildPairHistory([]models.Arrangement{
		{Teams: []models.Team{
			team("1", member("a"), member("b")),
			team("2", member("c")),
			team("3"),
		}},
	})

	assert.Len(t, history, 1)
	_, ok := history[PairKey("user-a", "user-b")]
	assert.True(t, ok)
}

func TestAnnotateFlagsRepeatPairs(t *testing.T) {
	history := BuildPairHistory([]models.Arrangement{
		{Teams: []models.Team{team("1", member("a"), member("b"))}},
		{Teams: []models.Team{team("1", member("c"), member("d"))}},
	})

	teams := []models.Team{
		team("1", member("b"), member("a")), // same pair, opposite order
		team("2", member("a"), member("c")), // never paired
		team("3", member("d")),              // partial, never flagged
	}
	history.Annotate(teams)

	assert.True(t, teams[0].PreviouslyPaired)
	assert.False(t, teams[1].PreviouslyPaired)
	assert.False(t, teams[2].PreviouslyPaired)
}

func TestAnnotateClearsStaleFlags(t *testing.T) {
	teams := []models.Team{team("1", member("a"), member("b"))}
	teams[0].PreviouslyPaired = true

	PairHistory{}.Annotate(teams)
	assert.False(t, teams[0].PreviouslyPaired)
}
