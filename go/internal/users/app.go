package users

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"github.com/mcdev12/auctionhouse/go/internal/auction"
	"github.com/mcdev12/auctionhouse/go/internal/models"
)

// UsersRepository defines what the app layer needs from the repository
type UsersRepository interface {
	CreateUser(ctx context.Context, req CreateUserRequest) (*models.User, error)
	GetUser(ctx context.Context, id uuid.UUID) (*models.User, error)
	GetUserByUsername(ctx context.Context, username string) (*models.User, error)
	Approve(ctx context.Context, id uuid.UUID, teamID uuid.UUID) (*models.User, error)
	SetCanBid(ctx context.Context, id uuid.UUID, canBid bool) (*models.User, error)
	ListPending(ctx context.Context) ([]models.User, error)
}

// App handles user business logic and answers bid eligibility for the
// auction engine.
type App struct {
	repo UsersRepository
}

func NewApp(repo UsersRepository) *App {
	return &App{repo: repo}
}

// CreateUser creates a new unapproved user
func (a *App) CreateUser(ctx context.Context, req CreateUserRequest) (*models.User, error) {
	if req.Username == "" {
		return nil, fmt.Errorf("username is required")
	}
	if req.Role != models.UserRoleAdmin && req.Role != models.UserRoleBidder {
		return nil, fmt.Errorf("invalid role %q", req.Role)
	}

	if existing, err := a.repo.GetUserByUsername(ctx, req.Username); err == nil && existing != nil {
		return nil, fmt.Errorf("username %q is taken", req.Username)
	}

	user, err := a.repo.CreateUser(ctx, req)
	if err != nil {
		return nil, err
	}

	log.Info().
		Str("user_id", user.ID.String()).
		Str("username", user.Username).
		Str("role", string(user.Role)).
		Msg("created user")
	return user, nil
}

func (a *App) GetUser(ctx context.Context, id uuid.UUID) (*models.User, error) {
	return a.repo.GetUser(ctx, id)
}

func (a *App) ListPending(ctx context.Context) ([]models.User, error) {
	return a.repo.ListPending(ctx)
}

// Approve approves a pending user and binds them to a team.
func (a *App) Approve(ctx context.Context, id uuid.UUID, teamID uuid.UUID) (*models.User, error) {
	if teamID == uuid.Nil {
		return nil, fmt.Errorf("team_id is required")
	}

	user, err := a.repo.Approve(ctx, id, teamID)
	if err != nil {
		return nil, err
	}

	log.Info().
		Str("user_id", user.ID.String()).
		Str("team_id", teamID.String()).
		Msg("approved user")
	return user, nil
}

// SetCanBid toggles whether the user may place bids.
func (a *App) SetCanBid(ctx context.Context, id uuid.UUID, canBid bool) (*models.User, error) {
	user, err := a.repo.SetCanBid(ctx, id, canBid)
	if err != nil {
		return nil, err
	}

	log.Info().
		Str("user_id", user.ID.String()).
		Bool("can_bid", canBid).
		Msg("updated bidding permission")
	return user, nil
}

// BiddingTeam implements the auction engine's eligibility check. A user may
// bid only if they are approved, have bidding enabled and belong to a team.
func (a *App) BiddingTeam(ctx context.Context, userID uuid.UUID) (uuid.UUID, error) {
	user, err := a.repo.GetUser(ctx, userID)
	if err != nil {
		if errors.Is(err, ErrUserNotFound) {
			return uuid.Nil, auction.ErrNotEligible
		}
		return uuid.Nil, err
	}

	if !user.IsApproved || !user.CanBid || user.TeamID == nil {
		return uuid.Nil, auction.ErrNotEligible
	}
	return *user.TeamID, nil
}
