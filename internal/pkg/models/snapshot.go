package models

import "time"

// Snapshot is one fetched copy of a match page.
type Snapshot struct {
	ID        string    `json:"id"`
	MatchID   string    `json:"match_id"`
	Markup    string    `json:"markup"`
	FetchedAt time.Time `json:"fetched_at"`
}
