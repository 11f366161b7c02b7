package players

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

var ErrPlayerNotFound = errors.New("player not found")

type Repository struct {
	db *sql.DB
}

func NewRepository(db *sql.DB) *Repository {
	return &Repository{db: db}
}

type RegisterPlayerRequest struct {
	Username    string `json:"username"`
	DiscordName string `json:"discord_name"`
	BasePrice   int64  `json:"base_price"`
	GameLevel   string `json:"game_level"`
}

const playerColumns = `id, username, discord_name, base_price, game_level, team_id, created_at`

func (r *Repository) RegisterPlayer(ctx context.Context, req RegisterPlayerRequest) (*models.Player, error) {
	const query = `
		INSERT INTO players (id, username, discord_name, base_price, game_level, created_at)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING ` + playerColumns

	row := r.db.QueryRowContext(ctx, query,
		uuid.New(), req.Username, req.DiscordName, req.BasePrice, req.GameLevel, time.Now().UTC())
	player, err := scanPlayer(row)
	if err != nil {
		return nil, fmt.Errorf("failed to register player: %w", err)
	}
	return player, nil
}

func (r *Repository) GetPlayer(ctx context.Context, id uuid.UUID) (*models.Player, error) {
	const query = `SELECT ` + playerColumns + ` FROM players WHERE id = $1`

	player, err := scanPlayer(r.db.QueryRowContext(ctx, query, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrPlayerNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get player: %w", err)
	}
	return player, nil
}

func (r *Repository) GetPlayerByUsername(ctx context.Context, username string) (*models.Player, error) {
	const query = `SELECT ` + playerColumns + ` FROM players WHERE username = $1`

	player, err := scanPlayer(r.db.QueryRowContext(ctx, query, username))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrPlayerNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get player by username: %w", err)
	}
	return player, nil
}

func (r *Repository) ListPlayers(ctx context.Context) ([]models.Player, error) {
	const query = `SELECT ` + playerColumns + ` FROM players ORDER BY username`
	return r.queryPlayers(ctx, query)
}

// ListUnassigned returns players not yet on any team, ordered by registration
// time so the admin can run the auction in arrival order.
func (r *Repository) ListUnassigned(ctx context.Context) ([]models.Player, error) {
	const query = `SELECT ` + playerColumns + ` FROM players WHERE team_id IS NULL ORDER BY created_at`
	return r.queryPlayers(ctx, query)
}

func (r *Repository) queryPlayers(ctx context.Context, query string, args ...any) ([]models.Player, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list players: %w", err)
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

type rowScanner interface {
	Scan(dest ...any) error
}

func scanPlayer(row rowScanner) (*models.Player, error) {
	var p models.Player
	var tid uuid.NullUUID
	if err := row.Scan(&p.ID, &p.Username, &p.DiscordName, &p.BasePrice, &p.GameLevel, &tid, &p.CreatedAt); err != nil {
		return nil, err
	}
	p.TeamID = sqlutil.FromNullUUID(tid)
	return &p, nil
}
