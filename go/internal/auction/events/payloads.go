package events

import (
	"time"
)

// Event payload types shared between the engine, outbox and gateway packages

// AuctionStartedPayload is the payload for an AuctionStarted event
type AuctionStartedPayload struct {
	AuctionID    string    `json:"auction_id"`
	PlayerID     string    `json:"player_id"`
	PlayerName   string    `json:"player_name"`
	BasePrice    int64     `json:"base_price"`
	StartedAt    time.Time `json:"started_at"`
	ExpiresInSec int       `json:"expires_in_sec"`
}

// AuctionUpdatedPayload is the payload for an AuctionUpdated event,
// emitted each time a bid is accepted
type AuctionUpdatedPayload struct {
	AuctionID    string    `json:"auction_id"`
	Price        int64     `json:"price"`
	LeaderName   string    `json:"leader_name"`
	BidAt        time.Time `json:"bid_at"`
	ExpiresInSec int       `json:"expires_in_sec"`
}

// AuctionSoldPayload is the payload for an AuctionSold event
type AuctionSoldPayload struct {
	AuctionID  string    `json:"auction_id"`
	PlayerID   string    `json:"player_id"`
	PlayerName string    `json:"player_name"`
	TeamID     string    `json:"team_id"`
	TeamName   string    `json:"team_name"`
	Price      int64     `json:"price"`
	NewBudget  int64     `json:"new_budget"`
	SoldAt     time.Time `json:"sold_at"`
}

// AuctionUnsoldPayload is the payload for an AuctionUnsold event
type AuctionUnsoldPayload struct {
	AuctionID  string    `json:"auction_id"`
	PlayerID   string    `json:"player_id"`
	PlayerName string    `json:"player_name"`
	ClosedAt   time.Time `json:"closed_at"`
}

// StatsUpdatedPayload is the payload for a StatsUpdated event
type StatsUpdatedPayload struct {
	TotalPlayers  int `json:"total_players"`
	SoldPlayers   int `json:"sold_players"`
	UnsoldPlayers int `json:"unsold_players"`
}

// BidRejectedPayload is the payload for a BidRejected event, addressed
// to the rejected bidder rather than broadcast
type BidRejectedPayload struct {
	AuctionID string `json:"auction_id"`
	TeamID    string `json:"team_id"`
	Reason    string `json:"reason"`
}

// ActivityPayload is the payload for an Activity event on the shared feed
type ActivityPayload struct {
	Message   string    `json:"message"`
	Timestamp time.Time `json:"timestamp"`
}
