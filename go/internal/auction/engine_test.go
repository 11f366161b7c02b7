package auction

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/jonboulle/clockwork"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mcdev12/auctionhouse/go/internal/auction/events"
	"github.com/mcdev12/auctionhouse/go/internal/models"
)

// fakeStore is an in-memory Store with switchable write failures.
type fakeStore struct {
	mu      sync.Mutex
	players map[uuid.UUID]models.Player
	budgets map[uuid.UUID]int64
	names   map[uuid.UUID]string

	failWrites bool
	saleCount  int
	statuses   map[uuid.UUID]models.AuctionStatus
}

func newFakeStore() *fakeStore {
	return &fakeStore{
		players:  make(map[uuid.UUID]models.Player),
		budgets:  make(map[uuid.UUID]int64),
		names:    make(map[uuid.UUID]string),
		statuses: make(map[uuid.UUID]models.AuctionStatus),
	}
}

func (s *fakeStore) addPlayer(username string, basePrice int64) uuid.UUID {
	s.mu.Lock()
	defer s.mu.Unlock()
	id := uuid.New()
	s.players[id] = models.Player{ID: id, Username: username, BasePrice: basePrice}
	return id
}

func (s *fakeStore) addTeam(name string, budget int64) uuid.UUID {
	s.mu.Lock()
	defer s.mu.Unlock()
	id := uuid.New()
	s.budgets[id] = budget
	s.names[id] = name
	return id
}

func (s *fakeStore) GetPlayer(ctx context.Context, playerID uuid.UUID) (*models.Player, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	p, ok := s.players[playerID]
	if !ok {
		return nil, ErrPlayerNotFound
	}
	return &p, nil
}

func (s *fakeStore) GetTeamBudget(ctx context.Context, teamID uuid.UUID) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	b, ok := s.budgets[teamID]
	if !ok {
		return 0, ErrTeamNotFound
	}
	return b, nil
}

func (s *fakeStore) GetTeamName(ctx context.Context, teamID uuid.UUID) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	n, ok := s.names[teamID]
	if !ok {
		return "", ErrTeamNotFound
	}
	return n, nil
}

func (s *fakeStore) writeErr(op string) error {
	if s.failWrites {
		return fmt.Errorf("simulated %s failure", op)
	}
	return nil
}

func (s *fakeStore) CreateAuction(ctx context.Context, a models.Auction) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.writeErr("create"); err != nil {
		return err
	}
	s.statuses[a.ID] = a.Status
	return nil
}

func (s *fakeStore) UpdateAuctionBid(ctx context.Context, auctionID uuid.UUID, price int64, teamID uuid.UUID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.writeErr("bid")
}

func (s *fakeStore) PersistStatus(ctx context.Context, auctionID uuid.UUID, status models.AuctionStatus) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.writeErr("status"); err != nil {
		return err
	}
	s.statuses[auctionID] = status
	return nil
}

func (s *fakeStore) PersistSale(ctx context.Context, playerID, teamID uuid.UUID, price int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.writeErr("sale"); err != nil {
		return err
	}
	s.saleCount++
	return nil
}

func (s *fakeStore) PersistBudget(ctx context.Context, teamID uuid.UUID, newBudget int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.writeErr("budget"); err != nil {
		return err
	}
	s.budgets[teamID] = newBudget
	return nil
}

func (s *fakeStore) Stats(ctx context.Context) (events.StatsUpdatedPayload, error) {
	return events.StatsUpdatedPayload{}, nil
}

func (s *fakeStore) sales() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.saleCount
}

// fakeEligibility maps users straight to teams.
type fakeEligibility struct {
	teams map[uuid.UUID]uuid.UUID
}

func (f *fakeEligibility) BiddingTeam(ctx context.Context, userID uuid.UUID) (uuid.UUID, error) {
	teamID, ok := f.teams[userID]
	if !ok {
		return uuid.Nil, ErrNotEligible
	}
	return teamID, nil
}

// capturePublisher records published envelopes.
type capturePublisher struct {
	mu       sync.Mutex
	recorded []events.Envelope
}

func (p *capturePublisher) Publish(e events.Envelope) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.recorded = append(p.recorded, e)
}

func (p *capturePublisher) all() []events.Envelope {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]events.Envelope(nil), p.recorded...)
}

func (p *capturePublisher) count(typ events.EventType) int {
	p.mu.Lock()
	defer p.mu.Unlock()
	n := 0
	for _, e := range p.recorded {
		if e.Type == typ {
			n++
		}
	}
	return n
}

// captureRetrier records deferred persistence operations.
type captureRetrier struct {
	mu  sync.Mutex
	ops []string
}

func (r *captureRetrier) Enqueue(op string, fn func(ctx context.Context) error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.ops = append(r.ops, op)
}

func (r *captureRetrier) count() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.ops)
}

type engineFixture struct {
	engine    *Engine
	store     *fakeStore
	publisher *capturePublisher
	retrier   *captureRetrier
	clock     *clockwork.FakeClock
	users     *fakeEligibility
}

func newEngineFixture(t *testing.T) *engineFixture {
	t.Helper()
	store := newFakeStore()
	publisher := &capturePublisher{}
	retrier := &captureRetrier{}
	clock := clockwork.NewFakeClock()
	users := &fakeEligibility{teams: make(map[uuid.UUID]uuid.UUID)}
	engine := NewEngine(store, users, publisher, retrier, clock, DefaultConfig())
	return &engineFixture{
		engine:    engine,
		store:     store,
		publisher: publisher,
		retrier:   retrier,
		clock:     clock,
		users:     users,
	}
}

func (f *engineFixture) addBidder(teamName string, budget int64) (userID, teamID uuid.UUID) {
	teamID = f.store.addTeam(teamName, budget)
	userID = uuid.New()
	f.users.teams[userID] = teamID
	return userID, teamID
}

func (f *engineFixture) awaitStatus(t *testing.T, auctionID uuid.UUID, want models.AuctionStatus) {
	t.Helper()
	require.Eventually(t, func() bool {
		a, err := f.engine.Auction(auctionID)
		return err == nil && a.Status == want
	}, 2*time.Second, 5*time.Millisecond, "auction never reached status %s", want)
}

func TestStartAuction(t *testing.T) {
	f := newEngineFixture(t)
	playerID := f.store.addPlayer("striker", 500)

	a, err := f.engine.StartAuction(context.Background(), playerID)
	require.NoError(t, err)
	assert.Equal(t, models.AuctionStatusLive, a.Status)
	assert.Equal(t, int64(500), a.CurrentPrice)
	assert.Nil(t, a.LeaderTeamID)
	assert.Equal(t, 1, f.publisher.count(events.EventTypeAuctionStarted))

	live := f.engine.LiveAuctions()
	require.Len(t, live, 1)
	assert.Equal(t, a.ID, live[0].ID)
}

func TestStartAuction_DuplicatePlayerRejected(t *testing.T) {
	f := newEngineFixture(t)
	playerID := f.store.addPlayer("striker", 500)

	_, err := f.engine.StartAuction(context.Background(), playerID)
	require.NoError(t, err)

	_, err = f.engine.StartAuction(context.Background(), playerID)
	assert.ErrorIs(t, err, ErrDuplicateSubject)
}

func TestStartAuction_AllowedAgainAfterSettlement(t *testing.T) {
	f := newEngineFixture(t)
	playerID := f.store.addPlayer("striker", 500)

	a, err := f.engine.StartAuction(context.Background(), playerID)
	require.NoError(t, err)
	require.NoError(t, f.engine.ForceUnsold(context.Background(), a.ID))

	_, err = f.engine.StartAuction(context.Background(), playerID)
	assert.NoError(t, err)
}

func TestPlaceBid_Accepted(t *testing.T) {
	f := newEngineFixture(t)
	playerID := f.store.addPlayer("striker", 500)
	userID, teamID := f.addBidder("Wolves", 10000)

	a, err := f.engine.StartAuction(context.Background(), playerID)
	require.NoError(t, err)

	price, err := f.engine.PlaceBid(context.Background(), userID, a.ID, 600)
	require.NoError(t, err)
	assert.Equal(t, int64(600), price)

	snap, err := f.engine.Auction(a.ID)
	require.NoError(t, err)
	require.NotNil(t, snap.LeaderTeamID)
	assert.Equal(t, teamID, *snap.LeaderTeamID)
	assert.Equal(t, 1, f.publisher.count(events.EventTypeAuctionUpdated))
}

func TestPlaceBid_Rejections(t *testing.T) {
	f := newEngineFixture(t)
	playerID := f.store.addPlayer("striker", 500)
	userID, _ := f.addBidder("Wolves", 1000)
	rivalID, _ := f.addBidder("Bears", 1000)

	a, err := f.engine.StartAuction(context.Background(), playerID)
	require.NoError(t, err)

	t.Run("unknown user", func(t *testing.T) {
		_, err := f.engine.PlaceBid(context.Background(), uuid.New(), a.ID, 600)
		assert.ErrorIs(t, err, ErrNotEligible)
	})

	t.Run("unknown auction", func(t *testing.T) {
		_, err := f.engine.PlaceBid(context.Background(), userID, uuid.New(), 600)
		assert.ErrorIs(t, err, ErrAuctionNotFound)
	})

	t.Run("bid at base price", func(t *testing.T) {
		_, err := f.engine.PlaceBid(context.Background(), userID, a.ID, 500)
		assert.ErrorIs(t, err, ErrStaleBid)
	})

	t.Run("bid over budget", func(t *testing.T) {
		_, err := f.engine.PlaceBid(context.Background(), userID, a.ID, 1001)
		assert.ErrorIs(t, err, ErrBudgetExceeded)

		snap, err := f.engine.Auction(a.ID)
		require.NoError(t, err)
		assert.Equal(t, int64(500), snap.CurrentPrice)
		assert.Nil(t, snap.LeaderTeamID)
	})

	t.Run("tie with current price", func(t *testing.T) {
		_, err := f.engine.PlaceBid(context.Background(), userID, a.ID, 600)
		require.NoError(t, err)
		_, err = f.engine.PlaceBid(context.Background(), rivalID, a.ID, 600)
		assert.ErrorIs(t, err, ErrStaleBid)
	})

	t.Run("settled auction", func(t *testing.T) {
		require.NoError(t, f.engine.ForceUnsold(context.Background(), a.ID))
		_, err := f.engine.PlaceBid(context.Background(), rivalID, a.ID, 700)
		assert.ErrorIs(t, err, ErrNotLive)
	})
}

func TestAuctionExpiresUnsoldWithoutBids(t *testing.T) {
	f := newEngineFixture(t)
	playerID := f.store.addPlayer("striker", 500)

	a, err := f.engine.StartAuction(context.Background(), playerID)
	require.NoError(t, err)

	f.clock.Advance(DefaultConfig().NoBidDuration)
	f.awaitStatus(t, a.ID, models.AuctionStatusUnsold)

	assert.Equal(t, 0, f.store.sales())
	require.Eventually(t, func() bool {
		return f.publisher.count(events.EventTypeAuctionUnsold) == 1
	}, time.Second, 5*time.Millisecond)
}

func TestAuctionSellsToLeaderAfterBidWindow(t *testing.T) {
	f := newEngineFixture(t)
	playerID := f.store.addPlayer("striker", 500)
	userID, teamID := f.addBidder("Wolves", 10000)

	a, err := f.engine.StartAuction(context.Background(), playerID)
	require.NoError(t, err)

	_, err = f.engine.PlaceBid(context.Background(), userID, a.ID, 800)
	require.NoError(t, err)

	f.clock.Advance(DefaultConfig().BidDuration)
	f.awaitStatus(t, a.ID, models.AuctionStatusSold)

	require.Eventually(t, func() bool { return f.store.sales() == 1 }, time.Second, 5*time.Millisecond)

	budget, err := f.store.GetTeamBudget(context.Background(), teamID)
	require.NoError(t, err)
	assert.Equal(t, int64(9200), budget)
	assert.Equal(t, 1, f.publisher.count(events.EventTypeAuctionSold))
}

func TestBidExtendsExpiry(t *testing.T) {
	f := newEngineFixture(t)
	playerID := f.store.addPlayer("striker", 500)
	user1, _ := f.addBidder("Wolves", 10000)
	user2, team2 := f.addBidder("Bears", 10000)

	a, err := f.engine.StartAuction(context.Background(), playerID)
	require.NoError(t, err)

	_, err = f.engine.PlaceBid(context.Background(), user1, a.ID, 800)
	require.NoError(t, err)

	// 10s into the 15s window a counter-bid lands and resets it.
	f.clock.Advance(10 * time.Second)
	_, err = f.engine.PlaceBid(context.Background(), user2, a.ID, 900)
	require.NoError(t, err)

	// The original window would have ended here; the auction must stay live.
	f.clock.Advance(10 * time.Second)
	snap, err := f.engine.Auction(a.ID)
	require.NoError(t, err)
	assert.Equal(t, models.AuctionStatusLive, snap.Status)

	f.clock.Advance(5 * time.Second)
	f.awaitStatus(t, a.ID, models.AuctionStatusSold)

	snap, err = f.engine.Auction(a.ID)
	require.NoError(t, err)
	require.NotNil(t, snap.LeaderTeamID)
	assert.Equal(t, team2, *snap.LeaderTeamID)
	assert.Equal(t, int64(900), snap.CurrentPrice)
}

func TestSettlementIsIdempotent(t *testing.T) {
	f := newEngineFixture(t)
	playerID := f.store.addPlayer("striker", 500)
	userID, teamID := f.addBidder("Wolves", 1000)

	a, err := f.engine.StartAuction(context.Background(), playerID)
	require.NoError(t, err)
	_, err = f.engine.PlaceBid(context.Background(), userID, a.ID, 800)
	require.NoError(t, err)

	require.NoError(t, f.engine.ForceUnsold(context.Background(), a.ID))
	require.NoError(t, f.engine.ForceUnsold(context.Background(), a.ID))

	// Advance past the armed window too; the dead timer must not settle again.
	f.clock.Advance(time.Minute)
	time.Sleep(50 * time.Millisecond)

	assert.Equal(t, 1, f.store.sales())
	assert.Equal(t, 1, f.publisher.count(events.EventTypeAuctionSold))

	budget, err := f.store.GetTeamBudget(context.Background(), teamID)
	require.NoError(t, err)
	assert.Equal(t, int64(200), budget, "budget debited exactly once")
}

func TestConcurrentBidsKeepPriceMonotonic(t *testing.T) {
	f := newEngineFixture(t)
	playerID := f.store.addPlayer("striker", 500)
	user1, _ := f.addBidder("Wolves", 10000)
	user2, team2 := f.addBidder("Bears", 10000)

	a, err := f.engine.StartAuction(context.Background(), playerID)
	require.NoError(t, err)

	var wg sync.WaitGroup
	errs := make([]error, 2)
	wg.Add(2)
	go func() {
		defer wg.Done()
		_, errs[0] = f.engine.PlaceBid(context.Background(), user1, a.ID, 1000)
	}()
	go func() {
		defer wg.Done()
		_, errs[1] = f.engine.PlaceBid(context.Background(), user2, a.ID, 1100)
	}()
	wg.Wait()

	// Whatever the interleaving, the higher bid must win and the lower one
	// either landed first or bounced as stale.
	snap, err := f.engine.Auction(a.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(1100), snap.CurrentPrice)
	require.NotNil(t, snap.LeaderTeamID)
	assert.Equal(t, team2, *snap.LeaderTeamID)

	require.NoError(t, errs[1])
	if errs[0] != nil {
		assert.ErrorIs(t, errs[0], ErrStaleBid)
	}
}

func TestBudgetSpansAuctions(t *testing.T) {
	f := newEngineFixture(t)
	player1 := f.store.addPlayer("striker", 500)
	player2 := f.store.addPlayer("keeper", 100)
	userID, _ := f.addBidder("Wolves", 1000)

	a1, err := f.engine.StartAuction(context.Background(), player1)
	require.NoError(t, err)
	a2, err := f.engine.StartAuction(context.Background(), player2)
	require.NoError(t, err)

	_, err = f.engine.PlaceBid(context.Background(), userID, a1.ID, 800)
	require.NoError(t, err)

	f.clock.Advance(DefaultConfig().BidDuration)
	f.awaitStatus(t, a1.ID, models.AuctionStatusSold)

	// Only 200 left after the first win.
	_, err = f.engine.PlaceBid(context.Background(), userID, a2.ID, 500)
	assert.ErrorIs(t, err, ErrBudgetExceeded)

	_, err = f.engine.PlaceBid(context.Background(), userID, a2.ID, 200)
	assert.NoError(t, err)
}

func TestReopen(t *testing.T) {
	f := newEngineFixture(t)
	playerID := f.store.addPlayer("striker", 500)
	userID, _ := f.addBidder("Wolves", 10000)

	a, err := f.engine.StartAuction(context.Background(), playerID)
	require.NoError(t, err)

	t.Run("live auction cannot reopen", func(t *testing.T) {
		_, err := f.engine.Reopen(context.Background(), a.ID)
		assert.ErrorIs(t, err, ErrInvalidState)
	})

	require.NoError(t, f.engine.ForceUnsold(context.Background(), a.ID))

	reopened, err := f.engine.Reopen(context.Background(), a.ID)
	require.NoError(t, err)
	assert.Equal(t, models.AuctionStatusLive, reopened.Status)
	assert.Equal(t, int64(500), reopened.CurrentPrice)
	assert.Nil(t, reopened.LeaderTeamID)

	price, err := f.engine.PlaceBid(context.Background(), userID, a.ID, 600)
	require.NoError(t, err)
	assert.Equal(t, int64(600), price)
}

func TestUnsoldEventPrecedesReopenOnFeed(t *testing.T) {
	f := newEngineFixture(t)
	playerID := f.store.addPlayer("striker", 500)

	a, err := f.engine.StartAuction(context.Background(), playerID)
	require.NoError(t, err)

	f.clock.Advance(DefaultConfig().NoBidDuration)

	// Reopen becomes valid the moment the unsold transition commits; race
	// it against the settling scheduler goroutine.
	require.Eventually(t, func() bool {
		_, err := f.engine.Reopen(context.Background(), a.ID)
		return err == nil
	}, time.Second, time.Millisecond)

	unsoldAt, reopenedAt, started := -1, -1, 0
	for i, e := range f.publisher.all() {
		switch e.Type {
		case events.EventTypeAuctionUnsold:
			unsoldAt = i
		case events.EventTypeAuctionStarted:
			started++
			if started == 2 {
				reopenedAt = i
			}
		}
	}
	require.Equal(t, 2, started)
	require.GreaterOrEqual(t, unsoldAt, 0)
	assert.Less(t, unsoldAt, reopenedAt)
}

func TestPersistenceFailureDoesNotRollBackBid(t *testing.T) {
	f := newEngineFixture(t)
	playerID := f.store.addPlayer("striker", 500)
	userID, _ := f.addBidder("Wolves", 10000)

	a, err := f.engine.StartAuction(context.Background(), playerID)
	require.NoError(t, err)

	f.store.mu.Lock()
	f.store.failWrites = true
	f.store.mu.Unlock()

	price, err := f.engine.PlaceBid(context.Background(), userID, a.ID, 800)
	require.NoError(t, err, "store failure must not reject the bid")
	assert.Equal(t, int64(800), price)

	snap, err := f.engine.Auction(a.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(800), snap.CurrentPrice)
	assert.Equal(t, 1, f.retrier.count(), "failed write handed to retrier")
}

func TestForceUnsoldUnknownAuction(t *testing.T) {
	f := newEngineFixture(t)
	err := f.engine.ForceUnsold(context.Background(), uuid.New())
	assert.ErrorIs(t, err, ErrAuctionNotFound)
}

func TestSetTeamBudgetFeedsLedger(t *testing.T) {
	f := newEngineFixture(t)
	playerID := f.store.addPlayer("striker", 500)
	userID, teamID := f.addBidder("Wolves", 1000)

	a, err := f.engine.StartAuction(context.Background(), playerID)
	require.NoError(t, err)

	_, err = f.engine.PlaceBid(context.Background(), userID, a.ID, 900)
	require.NoError(t, err)

	require.NoError(t, f.engine.SetTeamBudget(context.Background(), teamID, 5000))

	_, err = f.engine.PlaceBid(context.Background(), userID, a.ID, 4000)
	assert.NoError(t, err, "raised budget visible to in-flight bidding")
}

func TestPersistenceErrorWrapsCause(t *testing.T) {
	cause := errors.New("connection reset")
	perr := &PersistenceError{Op: "sale record", Err: cause}
	assert.ErrorIs(t, perr, cause)
	assert.Contains(t, perr.Error(), "sale record")
}
