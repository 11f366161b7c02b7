package auction

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type staticBudgetSource struct {
	budgets map[uuid.UUID]int64
}

func (s *staticBudgetSource) GetTeamBudget(ctx context.Context, teamID uuid.UUID) (int64, error) {
	b, ok := s.budgets[teamID]
	if !ok {
		return 0, errors.New("unknown team")
	}
	return b, nil
}

func TestLedgerEnsureLoadsOnce(t *testing.T) {
	teamID := uuid.New()
	source := &staticBudgetSource{budgets: map[uuid.UUID]int64{teamID: 1000}}
	ledger := NewLedger(source)

	require.NoError(t, ledger.Ensure(context.Background(), teamID))

	// The source is only consulted on first load; later source changes are
	// invisible because the in-memory balance is authoritative.
	source.budgets[teamID] = 9999
	require.NoError(t, ledger.Ensure(context.Background(), teamID))

	budget, err := ledger.Budget(teamID)
	require.NoError(t, err)
	assert.Equal(t, int64(1000), budget)
}

func TestLedgerEnsureUnknownTeam(t *testing.T) {
	ledger := NewLedger(&staticBudgetSource{budgets: map[uuid.UUID]int64{}})
	err := ledger.Ensure(context.Background(), uuid.New())
	assert.Error(t, err)
}

func TestLedgerDebit(t *testing.T) {
	teamID := uuid.New()
	ledger := NewLedger(&staticBudgetSource{budgets: map[uuid.UUID]int64{teamID: 1000}})
	require.NoError(t, ledger.Ensure(context.Background(), teamID))

	balance, err := ledger.Debit(teamID, 300)
	require.NoError(t, err)
	assert.Equal(t, int64(700), balance)

	_, err = ledger.Debit(teamID, 701)
	assert.ErrorIs(t, err, ErrInsufficientFunds)

	// A refused debit leaves the balance untouched.
	budget, err := ledger.Budget(teamID)
	require.NoError(t, err)
	assert.Equal(t, int64(700), budget)
}

func TestLedgerSetBudget(t *testing.T) {
	teamID := uuid.New()
	ledger := NewLedger(&staticBudgetSource{budgets: map[uuid.UUID]int64{}})

	// SetBudget may create the account; admin updates do not require a
	// previous Ensure.
	ledger.SetBudget(teamID, 500)
	budget, err := ledger.Budget(teamID)
	require.NoError(t, err)
	assert.Equal(t, int64(500), budget)

	ledger.SetBudget(teamID, 50)
	budget, err = ledger.Budget(teamID)
	require.NoError(t, err)
	assert.Equal(t, int64(50), budget)
}

func TestLedgerConcurrentDebits(t *testing.T) {
	teamID := uuid.New()
	ledger := NewLedger(&staticBudgetSource{budgets: map[uuid.UUID]int64{teamID: 1000}})
	require.NoError(t, ledger.Ensure(context.Background(), teamID))

	const workers = 20
	var wg sync.WaitGroup
	succeeded := make([]bool, workers)
	wg.Add(workers)
	for i := range workers {
		go func(n int) {
			defer wg.Done()
			if _, err := ledger.Debit(teamID, 100); err == nil {
				succeeded[n] = true
			}
		}(i)
	}
	wg.Wait()

	wins := 0
	for _, ok := range succeeded {
		if ok {
			wins++
		}
	}
	assert.Equal(t, 10, wins, "exactly the affordable number of debits succeed")

	budget, err := ledger.Budget(teamID)
	require.NoError(t, err)
	assert.Equal(t, int64(0), budget)
}
