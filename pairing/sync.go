package pairing

import "github.com/yamlrg/connect/models"

// StatusUpdate is one pending roster write: the match fields a participant's
// status record should hold. Invite flags are deliberately absent; the
// protocol never touches them.
type StatusUpdate struct {
	ParticipantID   string
	Matched         bool
	MatchedWith     *string
	MatchedWithName *string
}

// DiffStatuses computes the minimal roster writes needed after a layout
// change. A participant is affected iff their partner changed: members of a
// newly full team get matched pointing at each other, members of a broken
// pair are reset, including the one who was not moved. Everyone else keeps
// their record untouched, so concurrent edits to invite flags are not raced.
func DiffStatuses(before, after []models.Team) []StatusUpdate {
	prev := partnersOf(before)
	next := partnersOf(after)

	var updates []StatusUpdate
	for _, id := range orderedIDs(before, after) {
		p, hadPartner := prev[id]
		n, hasPartner := next[id]
		if hadPartner == hasPartner && p.ParticipantID == n.ParticipantID {
			continue
		}
		updates = append(updates, statusFor(id, n, hasPartner))
	}
	return updates
}

// ReconcileStatuses recomputes every roster record's correct match status
// from the arrangement alone and returns updates for the divergent ones.
// Run on session load or on demand to repair the window left by a crash
// between the arrangement write and the status fan-out.
func ReconcileStatuses(teams []models.Team, roster []models.Participant) []StatusUpdate {
	partners := partnersOf(teams)

	var updates []StatusUpdate
	for _, p := range roster {
		partner, ok := partners[p.ID]
		want := statusFor(p.ID, partner, ok)
		if matchFieldsEqual(p.Status, want) {
			continue
		}
		updates = append(updates, want)
	}
	return updates
}

// partnersOf maps each member of a full team to the other member. Teams with
// fewer than two members pair nobody.
func partnersOf(teams []models.Team) map[string]models.TeamMember {
	partners := make(map[string]models.TeamMember)
	for _, t := range teams {
		if len(t.Members) != TeamCapacity {
			continue
		}
		partners[t.Members[0].ParticipantID] = t.Members[1]
		partners[t.Members[1].ParticipantID] = t.Members[0]
	}
	return partners
}

func statusFor(id string, partner models.TeamMember, matched bool) StatusUpdate {
	u := StatusUpdate{ParticipantID: id}
	if matched {
		u.Matched = true
		userID, userName := partner.UserID, partner.UserName
		u.MatchedWith = &userID
		u.MatchedWithName = &userName
	}
	return u
}

func matchFieldsEqual(s models.MatchStatus, u StatusUpdate) bool {
	return s.Matched == u.Matched &&
		strPtrEqual(s.MatchedWith, u.MatchedWith) &&
		strPtrEqual(s.MatchedWithName, u.MatchedWithName)
}

func strPtrEqual(a, b *string) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	return *a == *b
}

// orderedIDs returns every participant id appearing in either layout, in
// stable first-seen order, so fan-out and tests are deterministic.
func orderedIDs(layouts ...[]models.Team) []string {
	var ids []string
	seen := make(map[string]struct{})
	for _, teams := range layouts {
		for _, t := range teams {
			for _, m := range t.Members {
				if _, ok := seen[m.ParticipantID]; ok {
					continue
				}
				seen[m.ParticipantID] = struct{}{}
				ids = append(ids, m.ParticipantID)
			}
		}
	}
	return ids
}
