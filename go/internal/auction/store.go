package auction

import (
	"context"

	"github.com/google/uuid"
	"github.com/mcdev12/auctionhouse/go/internal/auction/events"
	"github.com/mcdev12/auctionhouse/go/internal/models"
)

// Store defines what the engine needs from durable storage. Reads seed
// in-memory state; writes record committed transitions. Every write can fail
// independently of in-memory state and is retried out of band on failure.
type Store interface {
	GetPlayer(ctx context.Context, playerID uuid.UUID) (*models.Player, error)
	GetTeamBudget(ctx context.Context, teamID uuid.UUID) (int64, error)
	GetTeamName(ctx context.Context, teamID uuid.UUID) (string, error)

	CreateAuction(ctx context.Context, a models.Auction) error
	UpdateAuctionBid(ctx context.Context, auctionID uuid.UUID, price int64, teamID uuid.UUID) error
	PersistStatus(ctx context.Context, auctionID uuid.UUID, status models.AuctionStatus) error
	PersistSale(ctx context.Context, playerID, teamID uuid.UUID, price int64) error
	PersistBudget(ctx context.Context, teamID uuid.UUID, newBudget int64) error

	Stats(ctx context.Context) (events.StatsUpdatedPayload, error)
}

// Eligibility answers whether a caller may bid at all, and for which team.
type Eligibility interface {
	// BiddingTeam returns the team the user bids for, or ErrNotEligible if
	// the user has no team assignment or no bidding authorization.
	BiddingTeam(ctx context.Context, userID uuid.UUID) (uuid.UUID, error)
}

// Publisher receives engine events for broadcast. Implementations must not
// block: the engine publishes while holding per-auction locks.
type Publisher interface {
	Publish(e events.Envelope)
}

// Retrier accepts failed persistence operations and retries them out of
// band until they succeed.
type Retrier interface {
	Enqueue(op string, fn func(ctx context.Context) error)
}
