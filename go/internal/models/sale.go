package models

import (
	"time"

	"github.com/google/uuid"
)

// Sale records a settled auction won by a team.
type Sale struct {
	ID       uuid.UUID `json:"id"`
	PlayerID uuid.UUID `json:"player_id"`
	TeamID   uuid.UUID `json:"team_id"`
	Price    int64     `json:"price"`
	SoldAt   time.Time `json:"sold_at"`
}
