package auction

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/mcdev12/auctionhouse/go/internal/auction/events"
	"github.com/mcdev12/auctionhouse/go/internal/models"
	"github.com/mcdev12/auctionhouse/go/internal/sqlutil"
)

// ErrPlayerNotFound and ErrTeamNotFound translate sql.ErrNoRows from store
// reads into something callers can test for.
var (
	ErrPlayerNotFound = errors.New("player not found")
	ErrTeamNotFound   = errors.New("team not found")
)

// Repository implements Store over Postgres.
type Repository struct {
	db *sql.DB
}

func NewRepository(db *sql.DB) *Repository {
	return &Repository{db: db}
}

func (r *Repository) GetPlayer(ctx context.Context, playerID uuid.UUID) (*models.Player, error) {
	var (
		p      models.Player
		teamID uuid.NullUUID
	)
	err := r.db.QueryRowContext(ctx, `
		SELECT id, username, discord_name, base_price, game_level, team_id, created_at
		FROM players WHERE id = $1`, playerID).
		Scan(&p.ID, &p.Username, &p.DiscordName, &p.BasePrice, &p.GameLevel, &teamID, &p.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("player %s: %w", playerID, ErrPlayerNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get player: %w", err)
	}
	p.TeamID = sqlutil.FromNullUUID(teamID)
	return &p, nil
}

func (r *Repository) GetTeamBudget(ctx context.Context, teamID uuid.UUID) (int64, error) {
	var budget int64
	err := r.db.QueryRowContext(ctx, `SELECT budget FROM teams WHERE id = $1`, teamID).Scan(&budget)
	if errors.Is(err, sql.ErrNoRows) {
		return 0, fmt.Errorf("team %s: %w", teamID, ErrTeamNotFound)
	}
	if err != nil {
		return 0, fmt.Errorf("failed to get team budget: %w", err)
	}
	return budget, nil
}

func (r *Repository) GetTeamName(ctx context.Context, teamID uuid.UUID) (string, error) {
	var name string
	err := r.db.QueryRowContext(ctx, `SELECT name FROM teams WHERE id = $1`, teamID).Scan(&name)
	if errors.Is(err, sql.ErrNoRows) {
		return "", fmt.Errorf("team %s: %w", teamID, ErrTeamNotFound)
	}
	if err != nil {
		return "", fmt.Errorf("failed to get team name: %w", err)
	}
	return name, nil
}

func (r *Repository) CreateAuction(ctx context.Context, a models.Auction) error {
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO auctions (id, player_id, player_name, base_price, current_price, status, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)`,
		a.ID, a.PlayerID, a.PlayerName, a.BasePrice, a.CurrentPrice, a.Status, a.CreatedAt)
	if err != nil {
		return fmt.Errorf("failed to create auction: %w", err)
	}
	return nil
}

func (r *Repository) UpdateAuctionBid(ctx context.Context, auctionID uuid.UUID, price int64, teamID uuid.UUID) error {
	_, err := r.db.ExecContext(ctx, `
		UPDATE auctions SET current_price = $2, leader_team_id = $3 WHERE id = $1`,
		auctionID, price, teamID)
	if err != nil {
		return fmt.Errorf("failed to update auction bid: %w", err)
	}
	return nil
}

func (r *Repository) PersistStatus(ctx context.Context, auctionID uuid.UUID, status models.AuctionStatus) error {
	_, err := r.db.ExecContext(ctx, `UPDATE auctions SET status = $2 WHERE id = $1`, auctionID, status)
	if err != nil {
		return fmt.Errorf("failed to persist auction status: %w", err)
	}
	return nil
}

// PersistSale records the sale and assigns the player to the winning team
// in one transaction.
func (r *Repository) PersistSale(ctx context.Context, playerID, teamID uuid.UUID, price int64) error {
	err := sqlutil.Run(ctx, r.db, func(tx *sql.Tx) error {
		if _, err := tx.ExecContext(ctx, `
			INSERT INTO sold_players (id, player_id, team_id, price, sold_at)
			VALUES ($1, $2, $3, $4, now())`,
			uuid.New(), playerID, teamID, price); err != nil {
			return err
		}
		_, err := tx.ExecContext(ctx, `UPDATE players SET team_id = $2 WHERE id = $1`, playerID, teamID)
		return err
	})
	if err != nil {
		return fmt.Errorf("failed to persist sale: %w", err)
	}
	return nil
}

func (r *Repository) PersistBudget(ctx context.Context, teamID uuid.UUID, newBudget int64) error {
	_, err := r.db.ExecContext(ctx, `UPDATE teams SET budget = $2 WHERE id = $1`, teamID, newBudget)
	if err != nil {
		return fmt.Errorf("failed to persist budget: %w", err)
	}
	return nil
}

func (r *Repository) Stats(ctx context.Context) (events.StatsUpdatedPayload, error) {
	var stats events.StatsUpdatedPayload
	err := r.db.QueryRowContext(ctx, `
		SELECT
			(SELECT COUNT(id) FROM players),
			(SELECT COUNT(id) FROM sold_players),
			(SELECT COUNT(id) FROM auctions WHERE status = 'unsold')`).
		Scan(&stats.TotalPlayers, &stats.SoldPlayers, &stats.UnsoldPlayers)
	if err != nil {
		return events.StatsUpdatedPayload{}, fmt.Errorf("failed to compute stats: %w", err)
	}
	return stats, nil
}
