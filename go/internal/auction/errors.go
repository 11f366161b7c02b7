package auction

import (
	"errors"
	"fmt"
)

// Validation failures reported synchronously to the caller. None of these
// leave the auction's in-memory state mutated.
var (
	// ErrDuplicateSubject is returned when a player already has a non-terminal auction
	ErrDuplicateSubject = errors.New("player already has an open auction")

	// ErrInvalidState is returned when an operation is attempted in the wrong status
	ErrInvalidState = errors.New("auction is not in a valid state for this operation")

	// ErrNotLive is returned when a bid targets a settled or unknown-status auction
	ErrNotLive = errors.New("auction is not live")

	// ErrStaleBid is returned when a bid is not strictly greater than the current price
	ErrStaleBid = errors.New("bid must be strictly greater than current price")

	// ErrBudgetExceeded is returned when a bid exceeds the team's current budget
	ErrBudgetExceeded = errors.New("bid exceeds team budget")

	// ErrInsufficientFunds is the defensive ledger guard against a negative balance
	ErrInsufficientFunds = errors.New("insufficient funds")

	// ErrNotEligible is returned when the caller has no team or no bidding authorization
	ErrNotEligible = errors.New("not authorized to bid")

	// ErrAuctionNotFound is returned when the auction id is unknown to the registry
	ErrAuctionNotFound = errors.New("auction not found")
)

// PersistenceError wraps a store failure during settlement. The in-memory
// transition has already committed when this is raised; the write is retried
// out of band and the error is surfaced for logging only.
type PersistenceError struct {
	Op  string
	Err error
}

func (e *PersistenceError) Error() string {
	return fmt.Sprintf("persistence failed for %s: %v", e.Op, e.Err)
}

func (e *PersistenceError) Unwrap() error {
	return e.Err
}
