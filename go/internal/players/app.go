package players

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"github.com/mcdev12/auctionhouse/go/internal/models"
)

// ErrRegistrationClosed is returned when a registration arrives outside the
// configured registration window.
var ErrRegistrationClosed = errors.New("registration is closed")

// PlayersRepository defines what the app layer needs from the repository
type PlayersRepository interface {
	RegisterPlayer(ctx context.Context, req RegisterPlayerRequest) (*models.Player, error)
	GetPlayer(ctx context.Context, id uuid.UUID) (*models.Player, error)
	GetPlayerByUsername(ctx context.Context, username string) (*models.Player, error)
	ListPlayers(ctx context.Context) ([]models.Player, error)
	ListUnassigned(ctx context.Context) ([]models.Player, error)
}

// RegistrationGate answers whether player registration is currently open.
type RegistrationGate interface {
	RegistrationOpen(ctx context.Context) (bool, error)
}

// App handles player business logic
type App struct {
	repo PlayersRepository
	gate RegistrationGate
}

func NewApp(repo PlayersRepository, gate RegistrationGate) *App {
	return &App{repo: repo, gate: gate}
}

// RegisterPlayer registers a new player if the registration window is open.
func (a *App) RegisterPlayer(ctx context.Context, req RegisterPlayerRequest) (*models.Player, error) {
	if req.Username == "" {
		return nil, fmt.Errorf("username is required")
	}
	if req.BasePrice <= 0 {
		return nil, fmt.Errorf("base_price must be positive")
	}

	open, err := a.gate.RegistrationOpen(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to check registration window: %w", err)
	}
	if !open {
		return nil, ErrRegistrationClosed
	}

	if existing, err := a.repo.GetPlayerByUsername(ctx, req.Username); err == nil && existing != nil {
		return nil, fmt.Errorf("player %q is already registered", req.Username)
	}

	player, err := a.repo.RegisterPlayer(ctx, req)
	if err != nil {
		return nil, err
	}

	log.Info().
		Str("player_id", player.ID.String()).
		Str("username", player.Username).
		Int64("base_price", player.BasePrice).
		Msg("registered player")
	return player, nil
}

func (a *App) GetPlayer(ctx context.Context, id uuid.UUID) (*models.Player, error) {
	return a.repo.GetPlayer(ctx, id)
}

func (a *App) ListPlayers(ctx context.Context) ([]models.Player, error) {
	return a.repo.ListPlayers(ctx)
}

// ListUnassigned returns the pool of players still waiting to be auctioned.
func (a *App) ListUnassigned(ctx context.Context) ([]models.Player, error) {
	return a.repo.ListUnassigned(ctx)
}
