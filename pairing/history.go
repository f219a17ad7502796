package pairing

import (
	"sort"
	"strings"

	"github.com/yamlrg/connect/models"
)

// PairKey builds an order-independent key for two user ids, matching how
// historical pairings are compared across sessions.
func PairKey(userA, userB string) string {
	pair := []string{userA, userB}
	sort.Strings(pair)
	return strings.Join(pair, "_")
}

// PairHistory is the set of user-id pairs that shared a full team in any
// earlier session's arrangement.
type PairHistory map[string]struct{}

// BuildPairHistory collects the pair keys of every full team across the given
// arrangements. Callers pass only arrangements dated before the session of
// interest.
func BuildPairHistory(arrangements []models.Arrangement) PairHistory {
	history := make(PairHistory)
	for _, arr := range arrangements {
		for _, t := range arr.Teams {
			if len(t.Members) != TeamCapacity {
				continue
			}
			history[PairKey(t.Members[0].UserID, t.Members[1].UserID)] = struct{}{}
		}
	}
	return history
}

// Annotate flags every full team whose members were paired in an earlier
// session. The flag is derived presentation data and is never persisted.
func (h PairHistory) Annotate(teams []models.Team) {
	for i, t := range teams {
		if len(t.Members) != TeamCapacity {
			teams[i].PreviouslyPaired = false
			continue
		}
		_, seen := h[PairKey(t.Members[0].UserID, t.Members[1].UserID)]
		teams[i].PreviouslyPaired = seen
	}
}
