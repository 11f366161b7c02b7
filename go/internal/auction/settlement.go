package auction

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/mcdev12/auctionhouse/go/internal/auction/events"
	"github.com/mcdev12/auctionhouse/go/internal/models"
	"github.com/rs/zerolog/log"
)

const (
	triggerTimer = "timer"
	triggerAdmin = "admin"
)

// settle moves an auction out of Live exactly once. Both expiry triggers
// (the scheduler and ForceUnsold) converge here; the status guard makes a
// duplicate fire a no-op, so cancellation never has to win the race against
// a firing timer.
//
// The in-memory transition commits under the auction lock. Store writes
// happen after release and never roll the transition back: a persistence
// failure is queued for retry instead (un-selling a player whose timer
// already expired would be worse than a temporarily stale store).
func (e *Engine) settle(ctx context.Context, auctionID uuid.UUID, trigger string) error {
	var (
		snap      models.Auction
		settled   bool
		newBudget int64
	)
	err := e.registry.WithLock(auctionID, func(a *models.Auction) error {
		if a.Status != models.AuctionStatusLive {
			log.Debug().
				Str("auction_id", auctionID.String()).
				Str("trigger", trigger).
				Str("status", string(a.Status)).
				Msg("settlement skipped, auction already settled")
			return nil
		}
		e.scheduler.Cancel(auctionID)

		if a.LeaderTeamID == nil {
			a.Status = models.AuctionStatusUnsold
			// Published under the lock: a Reopen becomes valid the moment
			// this transition commits, and its AuctionStarted must not reach
			// the feed ahead of the unsold envelope.
			e.publishUnsold(*a)
		} else {
			a.Status = models.AuctionStatusSold
			// The debit and the status transition are one committed unit.
			// The insufficient-funds guard should be unreachable because
			// bids are pre-checked; if it ever trips, the sale stands and
			// the ledger keeps the old balance for the operator to resolve.
			var err error
			newBudget, err = e.ledger.Debit(*a.LeaderTeamID, a.CurrentPrice)
			if err != nil && !errors.Is(err, ErrInsufficientFunds) {
				return err
			}
			if errors.Is(err, ErrInsufficientFunds) {
				log.Error().Err(err).
					Str("auction_id", auctionID.String()).
					Str("team_id", a.LeaderTeamID.String()).
					Msg("settlement debit refused by ledger guard")
			}
		}
		snap = *a
		settled = true
		return nil
	})
	if err != nil {
		return err
	}
	if !settled {
		return nil
	}

	if snap.Status == models.AuctionStatusSold {
		e.finishSold(ctx, snap, newBudget)
	} else {
		e.finishUnsold(ctx, snap)
	}

	// Advisory aggregate broadcast; never allowed to block or fail the
	// settlement itself.
	go e.broadcastStats()

	log.Info().
		Str("auction_id", auctionID.String()).
		Str("trigger", trigger).
		Str("status", string(snap.Status)).
		Msg("auction settled")
	return nil
}

func (e *Engine) finishSold(ctx context.Context, snap models.Auction, newBudget int64) {
	teamID := *snap.LeaderTeamID
	teamName, err := e.store.GetTeamName(ctx, teamID)
	if err != nil {
		log.Error().Err(err).Str("team_id", teamID.String()).Msg("resolve winning team name")
		teamName = teamID.String()
	}

	if err := e.store.PersistStatus(ctx, snap.ID, models.AuctionStatusSold); err != nil {
		e.deferPersist("sold status", err, func(ctx context.Context) error {
			return e.store.PersistStatus(ctx, snap.ID, models.AuctionStatusSold)
		})
	}
	if err := e.store.PersistSale(ctx, snap.PlayerID, teamID, snap.CurrentPrice); err != nil {
		e.deferPersist("sale record", err, func(ctx context.Context) error {
			return e.store.PersistSale(ctx, snap.PlayerID, teamID, snap.CurrentPrice)
		})
	}
	if err := e.store.PersistBudget(ctx, teamID, newBudget); err != nil {
		e.deferPersist("budget debit", err, func(ctx context.Context) error {
			return e.store.PersistBudget(ctx, teamID, newBudget)
		})
	}

	env, err := events.New(snap.ID, events.EventTypeAuctionSold, events.AuctionSoldPayload{
		AuctionID:  snap.ID.String(),
		PlayerID:   snap.PlayerID.String(),
		PlayerName: snap.PlayerName,
		TeamID:     teamID.String(),
		TeamName:   teamName,
		Price:      snap.CurrentPrice,
		NewBudget:  newBudget,
		SoldAt:     e.clock.Now(),
	})
	if err != nil {
		log.Error().Err(err).Msg("build AuctionSold event")
	} else {
		e.publisher.Publish(env)
	}
	e.publishActivity(snap.ID, fmt.Sprintf("Player '%s' was sold to '%s' for %d.", snap.PlayerName, teamName, snap.CurrentPrice))
}

func (e *Engine) finishUnsold(ctx context.Context, snap models.Auction) {
	if err := e.store.PersistStatus(ctx, snap.ID, models.AuctionStatusUnsold); err != nil {
		e.deferPersist("unsold status", err, func(ctx context.Context) error {
			return e.store.PersistStatus(ctx, snap.ID, models.AuctionStatusUnsold)
		})
	}
}

// publishUnsold needs no store I/O, so it runs inside the settlement
// critical section to keep the feed in commit order.
func (e *Engine) publishUnsold(a models.Auction) {
	env, err := events.New(a.ID, events.EventTypeAuctionUnsold, events.AuctionUnsoldPayload{
		AuctionID:  a.ID.String(),
		PlayerID:   a.PlayerID.String(),
		PlayerName: a.PlayerName,
		ClosedAt:   e.clock.Now(),
	})
	if err != nil {
		log.Error().Err(err).Msg("build AuctionUnsold event")
	} else {
		e.publisher.Publish(env)
	}
	e.publishActivity(a.ID, fmt.Sprintf("Player '%s' went unsold as the timer ran out.", a.PlayerName))
}

// Stats reports the current sold/unsold/total player counts.
func (e *Engine) Stats(ctx context.Context) (events.StatsUpdatedPayload, error) {
	return e.store.Stats(ctx)
}

// BroadcastStats pushes a fresh StatsUpdated event to subscribers. Settlement
// triggers this internally; callers invoke it when registrations change the
// totals outside the engine.
func (e *Engine) BroadcastStats() {
	go e.broadcastStats()
}

func (e *Engine) broadcastStats() {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	stats, err := e.store.Stats(ctx)
	if err != nil {
		log.Warn().Err(err).Msg("stats recomputation failed")
		return
	}
	env, err := events.New(uuid.Nil, events.EventTypeStatsUpdated, stats)
	if err != nil {
		log.Error().Err(err).Msg("build StatsUpdated event")
		return
	}
	e.publisher.Publish(env)
}
