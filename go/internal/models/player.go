package models

import (
	"time"

	"github.com/google/uuid"
)

// Player is a registered player available for auction.
type Player struct {
	ID          uuid.UUID  `json:"id"`
	Username    string     `json:"username"`
	DiscordName string     `json:"discord_name"`
	BasePrice   int64      `json:"base_price"`
	GameLevel   string     `json:"game_level"`
	TeamID      *uuid.UUID `json:"team_id,omitempty"`
	CreatedAt   time.Time  `json:"created_at"`
}
