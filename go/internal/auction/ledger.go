package auction

import (
	"context"
	"fmt"
	"sync"

	"github.com/google/uuid"
)

// BudgetSource loads a team's committed budget the first time the ledger
// sees that team.
type BudgetSource interface {
	GetTeamBudget(ctx context.Context, teamID uuid.UUID) (int64, error)
}

// Ledger holds each team's current spendable budget. Once a team is loaded
// the in-memory balance is authoritative; settlement debits it exactly once
// per won auction and the new balance is persisted out of band.
//
// Accounts are synchronized per team so settlements for different teams on
// different auctions never serialize against each other.
type Ledger struct {
	source BudgetSource

	mu       sync.RWMutex
	accounts map[uuid.UUID]*account
}

type account struct {
	mu     sync.Mutex
	budget int64
}

func NewLedger(source BudgetSource) *Ledger {
	return &Ledger{
		source:   source,
		accounts: make(map[uuid.UUID]*account),
	}
}

// Ensure loads the team's budget from the source if the ledger has not seen
// it yet. Callers that go on to read the budget under an auction lock call
// this first so no store I/O happens while the lock is held.
func (l *Ledger) Ensure(ctx context.Context, teamID uuid.UUID) error {
	l.mu.RLock()
	_, ok := l.accounts[teamID]
	l.mu.RUnlock()
	if ok {
		return nil
	}

	budget, err := l.source.GetTeamBudget(ctx, teamID)
	if err != nil {
		return fmt.Errorf("load budget for team %s: %w", teamID, err)
	}

	l.mu.Lock()
	defer l.mu.Unlock()
	if _, ok := l.accounts[teamID]; !ok {
		l.accounts[teamID] = &account{budget: budget}
	}
	return nil
}

// Budget returns the team's latest committed balance. It reflects every
// debit applied so far, not a point-in-time cache.
func (l *Ledger) Budget(teamID uuid.UUID) (int64, error) {
	acct, err := l.account(teamID)
	if err != nil {
		return 0, err
	}
	acct.mu.Lock()
	defer acct.mu.Unlock()
	return acct.budget, nil
}

// Debit decreases a team's budget by amount and returns the new balance.
// It fails with ErrInsufficientFunds rather than letting the balance go
// negative, even though the bid processor pre-checks.
func (l *Ledger) Debit(teamID uuid.UUID, amount int64) (int64, error) {
	acct, err := l.account(teamID)
	if err != nil {
		return 0, err
	}
	acct.mu.Lock()
	defer acct.mu.Unlock()
	if amount > acct.budget {
		return acct.budget, fmt.Errorf("debit %d from team %s (balance %d): %w",
			amount, teamID, acct.budget, ErrInsufficientFunds)
	}
	acct.budget -= amount
	return acct.budget, nil
}

// SetBudget overwrites a team's balance. Used by the admin budget update
// path, never by settlement.
func (l *Ledger) SetBudget(teamID uuid.UUID, budget int64) {
	l.mu.Lock()
	acct, ok := l.accounts[teamID]
	if !ok {
		l.accounts[teamID] = &account{budget: budget}
		l.mu.Unlock()
		return
	}
	l.mu.Unlock()

	acct.mu.Lock()
	acct.budget = budget
	acct.mu.Unlock()
}

func (l *Ledger) account(teamID uuid.UUID) (*account, error) {
	l.mu.RLock()
	defer l.mu.RUnlock()
	acct, ok := l.accounts[teamID]
	if !ok {
		return nil, fmt.Errorf("team %s not loaded in ledger", teamID)
	}
	return acct, nil
}
