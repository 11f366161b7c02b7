package teams

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/mcdev12/auctionhouse/go/internal/models"
	"github.com/mcdev12/auctionhouse/go/internal/sqlutil"
)

var ErrTeamNotFound = errors.New("team not found")

type Repository struct {
	db *sql.DB
}

func NewRepository(db *sql.DB) *Repository {
	return &Repository{db: db}
}

type CreateTeamRequest struct {
	Name   string `json:"name"`
	Budget int64  `json:"budget"`
}

func (r *Repository) CreateTeam(ctx context.Context, req CreateTeamRequest) (*models.Team, error) {
	const query = `
		INSERT INTO teams (id, name, budget, created_at)
		VALUES ($1, $2, $3, $4)
		RETURNING id, name, budget, created_at`

	var team models.Team
	err := r.db.QueryRowContext(ctx, query, uuid.New(), req.Name, req.Budget, time.Now().UTC()).
		Scan(&team.ID, &team.Name, &team.Budget, &team.CreatedAt)
	if err != nil {
		return nil, fmt.Errorf("failed to create team: %w", err)
	}
	return &team, nil
}

func (r *Repository) GetTeam(ctx context.Context, id uuid.UUID) (*models.Team, error) {
	const query = `SELECT id, name, budget, created_at FROM teams WHERE id = $1`

	var team models.Team
	err := r.db.QueryRowContext(ctx, query, id).
		Scan(&team.ID, &team.Name, &team.Budget, &team.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrTeamNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get team: %w", err)
	}
	return &team, nil
}

func (r *Repository) ListTeams(ctx context.Context) ([]models.Team, error) {
	const query = `SELECT id, name, budget, created_at FROM teams ORDER BY name`

	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to list teams: %w", err)
	}
	defer rows.Close()

	var teams []models.Team
	for rows.Next() {
		var team models.Team
		if err := rows.Scan(&team.ID, &team.Name, &team.Budget, &team.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan team: %w", err)
		}
		teams = append(teams, team)
	}
	return teams, rows.Err()
}

func (r *Repository) UpdateBudget(ctx context.Context, id uuid.UUID, budget int64) (*models.Team, error) {
	const query = `
		UPDATE teams SET budget = $2 WHERE id = $1
		RETURNING id, name, budget, created_at`

	var team models.Team
	err := r.db.QueryRowContext(ctx, query, id, budget).
		Scan(&team.ID, &team.Name, &team.Budget, &team.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrTeamNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to update team budget: %w", err)
	}
	return &team, nil
}

// Roster returns the players currently assigned to the team.
func (r *Repository) Roster(ctx context.Context, teamID uuid.UUID) ([]models.Player, error) {
	const query = `
		SELECT id, username, discord_name, base_price, game_level, team_id, created_at
		FROM players WHERE team_id = $1 ORDER BY username`

	rows, err := r.db.QueryContext(ctx, query, teamID)
	if err != nil {
		return nil, fmt.Errorf("failed to get team roster: %w", err)
	}
	defer rows.Close()

	var players []models.Player
	for rows.Next() {
		var p models.Player
		var tid uuid.NullUUID
		if err := rows.Scan(&p.ID, &p.Username, &p.DiscordName, &p.BasePrice, &p.GameLevel, &tid, &p.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan player: %w", err)
		}
		p.TeamID = sqlutil.FromNullUUID(tid)
		players = append(players, p)
	}
	return players, rows.Err()
}
