package model

import "time"

// DefaultMarker is written into a ledger cell to mark a claim.
const DefaultMarker = "OT"

// ClaimState is the claimed/unclaimed split of the ledger for one date.
// Both lists keep sheet (header) order.
type ClaimState struct {
	Date      time.Time `json:"date"`
	Row       int       `json:"row"`
	Claimed   []string  `json:"claimed"`
	Unclaimed []string  `json:"unclaimed"`
}

// AllClaimed reports whether nobody is left to claim for the date.
func (s ClaimState) AllClaimed() bool {
	return len(s.Unclaimed) == 0
}
