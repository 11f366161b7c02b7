package teams

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"github.com/mcdev12/auctionhouse/go/internal/models"
)

// TeamsRepository defines what the app layer needs from the repository
type TeamsRepository interface {
	CreateTeam(ctx context.Context, req CreateTeamRequest) (*models.Team, error)
	GetTeam(ctx context.Context, id uuid.UUID) (*models.Team, error)
	ListTeams(ctx context.Context) ([]models.Team, error)
	UpdateBudget(ctx context.Context, id uuid.UUID, budget int64) (*models.Team, error)
	Roster(ctx context.Context, teamID uuid.UUID) ([]models.Player, error)
}

// BudgetSync pushes an admin budget change into the live auction ledger so
// running auctions see the new balance immediately.
type BudgetSync interface {
	SetTeamBudget(ctx context.Context, teamID uuid.UUID, budget int64) error
}

// App handles team business logic
type App struct {
	repo TeamsRepository
	sync BudgetSync
}

func NewApp(repo TeamsRepository, sync BudgetSync) *App {
	return &App{repo: repo, sync: sync}
}

// CreateTeam creates a new team with validation
func (a *App) CreateTeam(ctx context.Context, req CreateTeamRequest) (*models.Team, error) {
	if req.Name == "" {
		return nil, fmt.Errorf("name is required")
	}
	if req.Budget < 0 {
		return nil, fmt.Errorf("budget cannot be negative")
	}

	team, err := a.repo.CreateTeam(ctx, req)
	if err != nil {
		return nil, err
	}

	log.Info().
		Str("team_id", team.ID.String()).
		Str("name", team.Name).
		Int64("budget", team.Budget).
		Msg("created team")
	return team, nil
}

func (a *App) GetTeam(ctx context.Context, id uuid.UUID) (*models.Team, error) {
	return a.repo.GetTeam(ctx, id)
}

func (a *App) ListTeams(ctx context.Context) ([]models.Team, error) {
	return a.repo.ListTeams(ctx)
}

func (a *App) Roster(ctx context.Context, teamID uuid.UUID) ([]models.Player, error) {
	if _, err := a.repo.GetTeam(ctx, teamID); err != nil {
		return nil, err
	}
	return a.repo.Roster(ctx, teamID)
}

// SetBudget updates a team's budget in the store and the live ledger.
func (a *App) SetBudget(ctx context.Context, id uuid.UUID, budget int64) (*models.Team, error) {
	if budget < 0 {
		return nil, fmt.Errorf("budget cannot be negative")
	}

	team, err := a.repo.UpdateBudget(ctx, id, budget)
	if err != nil {
		return nil, err
	}
	if err := a.sync.SetTeamBudget(ctx, team.ID, team.Budget); err != nil {
		return nil, fmt.Errorf("failed to sync ledger budget: %w", err)
	}

	log.Info().
		Str("team_id", team.ID.String()).
		Int64("budget", team.Budget).
		Msg("updated team budget")
	return team, nil
}
