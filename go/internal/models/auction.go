package models

import (
	"time"

	"github.com/google/uuid"
)

// AuctionStatus represents the lifecycle state of an auction
type AuctionStatus string

const (
	AuctionStatusLive   AuctionStatus = "live"
	AuctionStatusSold   AuctionStatus = "sold"
	AuctionStatusUnsold AuctionStatus = "unsold"
)

// Terminal reports whether the status is a settled end state.
func (s AuctionStatus) Terminal() bool {
	return s == AuctionStatusSold || s == AuctionStatusUnsold
}

// Auction is one live or settled auction for a single player.
// CurrentPrice never decreases while the auction is live, and equals
// BasePrice for as long as LeaderTeamID is nil.
type Auction struct {
	ID           uuid.UUID     `json:"id"`
	PlayerID     uuid.UUID     `json:"player_id"`
	PlayerName   string        `json:"player_name"`
	BasePrice    int64         `json:"base_price"`
	CurrentPrice int64         `json:"current_price"`
	LeaderTeamID *uuid.UUID    `json:"leader_team_id,omitempty"`
	Status       AuctionStatus `json:"status"`
	CreatedAt    time.Time     `json:"created_at"`
}
