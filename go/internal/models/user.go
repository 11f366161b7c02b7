package models

import (
	"time"

	"github.com/google/uuid"
)

// UserRole distinguishes admins from team managers
type UserRole string

const (
	UserRoleAdmin  UserRole = "admin"
	UserRoleBidder UserRole = "bidder"
)

// User is an account that can administer or bid in auctions.
// PasswordHash is opaque to this service; authentication is handled upstream.
type User struct {
	ID           uuid.UUID  `json:"id"`
	Username     string     `json:"username"`
	PasswordHash string     `json:"-"`
	Role         UserRole   `json:"role"`
	IsApproved   bool       `json:"is_approved"`
	TeamID       *uuid.UUID `json:"team_id,omitempty"`
	CanBid       bool       `json:"can_bid"`
	CreatedAt    time.Time  `json:"created_at"`
}
