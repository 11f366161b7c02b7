package models

import (
	"time"

	"github.com/google/uuid"
)

// Team is a bidding team with a spendable budget.
// Budget is debited only at settlement, exactly once per won auction.
type Team struct {
	ID        uuid.UUID `json:"id"`
	Name      string    `json:"name"`
	Budget    int64     `json:"budget"`
	CreatedAt time.Time `json:"created_at"`
}
