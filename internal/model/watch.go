package model

import "time"

// WatchState is the persisted watchlist: investor IDs to track for new
// filings and symbols to include in scheduled analysis.
type WatchState struct {
	Investors []string  `json:"investors"`
	Symbols   []string  `json:"symbols"`
	UpdatedAt time.Time `json:"updated_at"`
}
