package repositories

import (
	"crypto/rand"
	"encoding/hex"
)

// newID produces a store-assigned opaque identifier. 12 random bytes keeps
// ids short enough to read in logs while collision-free in practice; inserts
// still guard with unique constraints.
func newID() string {
	b := make([]byte, 12)
	if _, err := rand.Read(b); err != nil {
		panic(err) // crypto/rand failure means the process is unusable
	}
	return hex.EncodeToString(b)
}
