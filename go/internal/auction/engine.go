package auction

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jonboulle/clockwork"
	"github.com/mcdev12/auctionhouse/go/internal/auction/events"
	"github.com/mcdev12/auctionhouse/go/internal/models"
	"github.com/rs/zerolog/log"
)

// Config holds the two expiry windows of the auction engine.
type Config struct {
	// NoBidDuration is how long a freshly started (or reopened) auction
	// waits for a first bid before going unsold.
	NoBidDuration time.Duration
	// BidDuration is how long the auction stays open after each accepted
	// bid before settling to the current leader.
	BidDuration time.Duration
}

// DefaultConfig mirrors the production windows: 120s grace period, 15s
// extension per bid.
func DefaultConfig() Config {
	return Config{
		NoBidDuration: 120 * time.Second,
		BidDuration:   15 * time.Second,
	}
}

// Engine is the live auction state machine. It owns the registry, the
// budget ledger and the expiry scheduler, validates and applies bids, and
// settles auctions exactly once when their timer runs out.
type Engine struct {
	registry    *Registry
	ledger      *Ledger
	scheduler   *Scheduler
	store       Store
	eligibility Eligibility
	publisher   Publisher
	retrier     Retrier
	clock       Clock
	cfg         Config
}

// NewEngine wires an engine from its collaborators. Pass
// clockwork.NewRealClock() in production; tests inject a FakeClock.
func NewEngine(store Store, eligibility Eligibility, publisher Publisher, retrier Retrier, clock Clock, cfg Config) *Engine {
	if clock == nil {
		clock = clockwork.NewRealClock()
	}
	e := &Engine{
		registry:    NewRegistry(),
		ledger:      NewLedger(store),
		store:       store,
		eligibility: eligibility,
		publisher:   publisher,
		retrier:     retrier,
		clock:       clock,
		cfg:         cfg,
	}
	e.scheduler = NewScheduler(clock, e.onTimerExpiry)
	return e
}

// StartAuction opens a live auction for a player at their base price and
// arms the no-bid timer. Fails with ErrDuplicateSubject if the player
// already has a non-terminal auction.
func (e *Engine) StartAuction(ctx context.Context, playerID uuid.UUID) (models.Auction, error) {
	player, err := e.store.GetPlayer(ctx, playerID)
	if err != nil {
		return models.Auction{}, fmt.Errorf("look up player %s: %w", playerID, err)
	}

	a := models.Auction{
		ID:           uuid.New(),
		PlayerID:     player.ID,
		PlayerName:   player.Username,
		BasePrice:    player.BasePrice,
		CurrentPrice: player.BasePrice,
		Status:       models.AuctionStatusLive,
		CreatedAt:    e.clock.Now(),
	}
	if err := e.registry.Create(a); err != nil {
		return models.Auction{}, err
	}

	// In-memory state is authoritative; a store failure here is retried
	// out of band like any settlement write.
	if err := e.store.CreateAuction(ctx, a); err != nil {
		e.deferPersist("create auction", err, func(ctx context.Context) error {
			return e.store.CreateAuction(ctx, a)
		})
	}

	e.scheduler.Arm(context.WithoutCancel(ctx), a.ID, e.cfg.NoBidDuration)
	e.publishStarted(a, e.cfg.NoBidDuration)
	e.publishActivity(a.ID, fmt.Sprintf("Auction started for player '%s' with a base price of %d.", a.PlayerName, a.BasePrice))

	log.Info().
		Str("auction_id", a.ID.String()).
		Str("player", a.PlayerName).
		Int64("base_price", a.BasePrice).
		Msg("auction started")
	return a, nil
}

// Reopen puts an unsold auction back up at its base price with a fresh
// no-bid timer. Fails with ErrInvalidState unless the auction is unsold.
func (e *Engine) Reopen(ctx context.Context, auctionID uuid.UUID) (models.Auction, error) {
	var snap models.Auction
	err := e.registry.WithLock(auctionID, func(a *models.Auction) error {
		if a.Status != models.AuctionStatusUnsold {
			return fmt.Errorf("reopen %s in status %q: %w", auctionID, a.Status, ErrInvalidState)
		}
		a.Status = models.AuctionStatusLive
		a.CurrentPrice = a.BasePrice
		a.LeaderTeamID = nil
		snap = *a
		e.scheduler.Arm(context.WithoutCancel(ctx), a.ID, e.cfg.NoBidDuration)
		e.publishStarted(*a, e.cfg.NoBidDuration)
		return nil
	})
	if err != nil {
		return models.Auction{}, err
	}

	if err := e.store.PersistStatus(ctx, auctionID, models.AuctionStatusLive); err != nil {
		e.deferPersist("reopen status", err, func(ctx context.Context) error {
			return e.store.PersistStatus(ctx, auctionID, models.AuctionStatusLive)
		})
	}
	e.publishActivity(auctionID, fmt.Sprintf("Player '%s' is being re-auctioned.", snap.PlayerName))

	log.Info().Str("auction_id", auctionID.String()).Str("player", snap.PlayerName).Msg("auction reopened")
	return snap, nil
}

// PlaceBid validates and applies one bid. On success it returns the new
// current price; on failure it returns one of the typed validation errors
// and leaves the auction untouched.
func (e *Engine) PlaceBid(ctx context.Context, userID, auctionID uuid.UUID, amount int64) (int64, error) {
	teamID, err := e.eligibility.BiddingTeam(ctx, userID)
	if err != nil {
		return 0, err
	}
	if amount <= 0 {
		return 0, fmt.Errorf("bid of %d: %w", amount, ErrStaleBid)
	}

	// Warm the ledger and resolve the team name before taking the auction
	// lock; no store I/O happens inside the critical section.
	if err := e.ledger.Ensure(ctx, teamID); err != nil {
		return 0, err
	}
	teamName, err := e.store.GetTeamName(ctx, teamID)
	if err != nil {
		return 0, fmt.Errorf("look up team %s: %w", teamID, err)
	}

	var (
		newPrice   int64
		playerName string
	)
	err = e.registry.WithLock(auctionID, func(a *models.Auction) error {
		if a.Status != models.AuctionStatusLive {
			return fmt.Errorf("auction %s: %w", auctionID, ErrNotLive)
		}
		if amount <= a.CurrentPrice {
			return fmt.Errorf("bid %d at current price %d: %w", amount, a.CurrentPrice, ErrStaleBid)
		}
		// Budget is re-read under the lock so a concurrent win on another
		// auction cannot leave this team overcommitted.
		budget, err := e.ledger.Budget(teamID)
		if err != nil {
			return err
		}
		if amount > budget {
			return fmt.Errorf("bid %d with budget %d: %w", amount, budget, ErrBudgetExceeded)
		}

		a.CurrentPrice = amount
		a.LeaderTeamID = &teamID
		newPrice = amount
		playerName = a.PlayerName

		e.scheduler.Arm(context.WithoutCancel(ctx), a.ID, e.cfg.BidDuration)
		e.publishUpdated(*a, teamName, e.cfg.BidDuration)
		return nil
	})
	if err != nil {
		return 0, err
	}

	if err := e.store.UpdateAuctionBid(ctx, auctionID, newPrice, teamID); err != nil {
		e.deferPersist("bid update", err, func(ctx context.Context) error {
			return e.store.UpdateAuctionBid(ctx, auctionID, newPrice, teamID)
		})
	}
	e.publishActivity(auctionID, fmt.Sprintf("Team '%s' bid %d on '%s'.", teamName, newPrice, playerName))

	log.Info().
		Str("auction_id", auctionID.String()).
		Str("team", teamName).
		Int64("amount", newPrice).
		Msg("bid accepted")
	return newPrice, nil
}

// ForceUnsold is the administrative expiry trigger. It converges on the same
// idempotent settlement routine as timer expiry.
func (e *Engine) ForceUnsold(ctx context.Context, auctionID uuid.UUID) error {
	if _, err := e.registry.Get(auctionID); err != nil {
		return err
	}
	return e.settle(ctx, auctionID, triggerAdmin)
}

// Auction returns a snapshot of one auction.
func (e *Engine) Auction(auctionID uuid.UUID) (models.Auction, error) {
	return e.registry.Get(auctionID)
}

// LiveAuctions returns snapshots of all auctions currently accepting bids.
func (e *Engine) LiveAuctions() []models.Auction {
	return e.registry.Live()
}

// TimerDeadlines returns remaining seconds per live auction for the
// gateway's timer-sync reply.
func (e *Engine) TimerDeadlines() map[uuid.UUID]int {
	return e.scheduler.Deadlines()
}

// SetTeamBudget overwrites a team's budget, admin path. The ledger is
// updated first so in-flight bid validation sees the new balance.
func (e *Engine) SetTeamBudget(ctx context.Context, teamID uuid.UUID, budget int64) error {
	e.ledger.SetBudget(teamID, budget)
	if err := e.store.PersistBudget(ctx, teamID, budget); err != nil {
		e.deferPersist("budget update", err, func(ctx context.Context) error {
			return e.store.PersistBudget(ctx, teamID, budget)
		})
	}
	return nil
}

func (e *Engine) onTimerExpiry(auctionID uuid.UUID) {
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	if err := e.settle(ctx, auctionID, triggerTimer); err != nil {
		log.Error().Err(err).Str("auction_id", auctionID.String()).Msg("settlement after timer expiry failed")
	}
}

// deferPersist logs a failed store write and hands it to the retrier. The
// in-memory transition stays committed either way.
func (e *Engine) deferPersist(op string, err error, fn func(ctx context.Context) error) {
	perr := &PersistenceError{Op: op, Err: err}
	log.Error().Err(perr).Msg("store write failed, queued for retry")
	if e.retrier != nil {
		e.retrier.Enqueue(op, fn)
	}
}

func (e *Engine) publishStarted(a models.Auction, window time.Duration) {
	env, err := events.New(a.ID, events.EventTypeAuctionStarted, events.AuctionStartedPayload{
		AuctionID:    a.ID.String(),
		PlayerID:     a.PlayerID.String(),
		PlayerName:   a.PlayerName,
		BasePrice:    a.BasePrice,
		StartedAt:    e.clock.Now(),
		ExpiresInSec: int(window / time.Second),
	})
	if err != nil {
		log.Error().Err(err).Msg("build AuctionStarted event")
		return
	}
	e.publisher.Publish(env)
}

func (e *Engine) publishUpdated(a models.Auction, leaderName string, window time.Duration) {
	env, err := events.New(a.ID, events.EventTypeAuctionUpdated, events.AuctionUpdatedPayload{
		AuctionID:    a.ID.String(),
		Price:        a.CurrentPrice,
		LeaderName:   leaderName,
		BidAt:        e.clock.Now(),
		ExpiresInSec: int(window / time.Second),
	})
	if err != nil {
		log.Error().Err(err).Msg("build AuctionUpdated event")
		return
	}
	e.publisher.Publish(env)
}

func (e *Engine) publishActivity(auctionID uuid.UUID, message string) {
	env, err := events.New(auctionID, events.EventTypeActivity, events.ActivityPayload{
		Message:   message,
		Timestamp: e.clock.Now(),
	})
	if err != nil {
		log.Error().Err(err).Msg("build Activity event")
		return
	}
	e.publisher.Publish(env)
}
