package auction

import (
	"sync"

	"github.com/google/uuid"
	"github.com/mcdev12/auctionhouse/go/internal/models"
	"github.com/rs/zerolog/log"
)

// Registry is the single source of truth for which auctions exist and their
// current mutable state. Every auction owns its own mutex; bids and
// settlements on independent auctions never contend with each other.
//
// All mutation of price, leader and status goes through WithLock. Entries are
// never freed mid-process: a settled auction keeps its entry (and lock) so a
// duplicate timer fire or a Reopen can still find it, but it drops out of the
// live index.
type Registry struct {
	mu       sync.RWMutex
	entries  map[uuid.UUID]*entry
	byPlayer map[uuid.UUID]uuid.UUID // player id -> most recent auction id
}

type entry struct {
	mu      sync.Mutex
	auction models.Auction
}

func NewRegistry() *Registry {
	return &Registry{
		entries:  make(map[uuid.UUID]*entry),
		byPlayer: make(map[uuid.UUID]uuid.UUID),
	}
}

// Create registers a new live auction for a player. It fails with
// ErrDuplicateSubject if the player already has a non-terminal auction.
func (r *Registry) Create(a models.Auction) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if existingID, ok := r.byPlayer[a.PlayerID]; ok {
		existing := r.entries[existingID]
		existing.mu.Lock()
		terminal := existing.auction.Status.Terminal()
		existing.mu.Unlock()
		if !terminal {
			return ErrDuplicateSubject
		}
	}

	r.entries[a.ID] = &entry{auction: a}
	r.byPlayer[a.PlayerID] = a.ID

	log.Debug().
		Str("auction_id", a.ID.String()).
		Str("player_id", a.PlayerID.String()).
		Int64("base_price", a.BasePrice).
		Msg("registered live auction")
	return nil
}

// WithLock runs fn with exclusive access to one auction's mutable state.
// fn gets a pointer into the registry entry; any writes it makes are the
// committed state once it returns. The lock is released on every exit path.
func (r *Registry) WithLock(auctionID uuid.UUID, fn func(a *models.Auction) error) error {
	r.mu.RLock()
	e, ok := r.entries[auctionID]
	r.mu.RUnlock()
	if !ok {
		return ErrAuctionNotFound
	}

	e.mu.Lock()
	defer e.mu.Unlock()
	return fn(&e.auction)
}

// Get returns a snapshot of one auction.
func (r *Registry) Get(auctionID uuid.UUID) (models.Auction, error) {
	var snap models.Auction
	err := r.WithLock(auctionID, func(a *models.Auction) error {
		snap = *a
		return nil
	})
	return snap, err
}

// Live returns snapshots of all auctions currently accepting bids.
func (r *Registry) Live() []models.Auction {
	r.mu.RLock()
	entries := make([]*entry, 0, len(r.entries))
	for _, e := range r.entries {
		entries = append(entries, e)
	}
	r.mu.RUnlock()

	live := make([]models.Auction, 0, len(entries))
	for _, e := range entries {
		e.mu.Lock()
		if e.auction.Status == models.AuctionStatusLive {
			live = append(live, e.auction)
		}
		e.mu.Unlock()
	}
	return live
}
