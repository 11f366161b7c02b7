package auction

import (
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mcdev12/auctionhouse/go/internal/models"
)

func liveAuction(playerID uuid.UUID) models.Auction {
	return models.Auction{
		ID:           uuid.New(),
		PlayerID:     playerID,
		PlayerName:   "striker",
		BasePrice:    500,
		CurrentPrice: 500,
		Status:       models.AuctionStatusLive,
	}
}

func TestRegistryCreateAndGet(t *testing.T) {
	r := NewRegistry()
	a := liveAuction(uuid.New())

	require.NoError(t, r.Create(a))

	snap, err := r.Get(a.ID)
	require.NoError(t, err)
	assert.Equal(t, a, snap)

	_, err = r.Get(uuid.New())
	assert.ErrorIs(t, err, ErrAuctionNotFound)
}

func TestRegistryRejectsSecondLiveAuctionPerPlayer(t *testing.T) {
	r := NewRegistry()
	playerID := uuid.New()

	require.NoError(t, r.Create(liveAuction(playerID)))
	assert.ErrorIs(t, r.Create(liveAuction(playerID)), ErrDuplicateSubject)
}

func TestRegistryAllowsNewAuctionAfterTerminal(t *testing.T) {
	r := NewRegistry()
	playerID := uuid.New()
	first := liveAuction(playerID)
	require.NoError(t, r.Create(first))

	require.NoError(t, r.WithLock(first.ID, func(a *models.Auction) error {
		a.Status = models.AuctionStatusUnsold
		return nil
	}))

	assert.NoError(t, r.Create(liveAuction(playerID)))
}

func TestRegistryWithLockCommitsMutations(t *testing.T) {
	r := NewRegistry()
	a := liveAuction(uuid.New())
	teamID := uuid.New()
	require.NoError(t, r.Create(a))

	require.NoError(t, r.WithLock(a.ID, func(a *models.Auction) error {
		a.CurrentPrice = 750
		a.LeaderTeamID = &teamID
		return nil
	}))

	snap, err := r.Get(a.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(750), snap.CurrentPrice)
	require.NotNil(t, snap.LeaderTeamID)
	assert.Equal(t, teamID, *snap.LeaderTeamID)
}

func TestRegistryLiveExcludesSettled(t *testing.T) {
	r := NewRegistry()
	a1 := liveAuction(uuid.New())
	a2 := liveAuction(uuid.New())
	require.NoError(t, r.Create(a1))
	require.NoError(t, r.Create(a2))

	require.NoError(t, r.WithLock(a1.ID, func(a *models.Auction) error {
		a.Status = models.AuctionStatusSold
		return nil
	}))

	live := r.Live()
	require.Len(t, live, 1)
	assert.Equal(t, a2.ID, live[0].ID)
}
