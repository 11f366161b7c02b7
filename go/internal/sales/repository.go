package sales

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// SaleRecord is a settled sale joined with its player and team names, ready
// for display and export.
type SaleRecord struct {
	ID          uuid.UUID `json:"id"`
	PlayerID    uuid.UUID `json:"player_id"`
	PlayerName  string    `json:"player_name"`
	DiscordName string    `json:"discord_name"`
	GameLevel   string    `json:"game_level"`
	TeamID      uuid.UUID `json:"team_id"`
	TeamName    string    `json:"team_name"`
	Price       int64     `json:"price"`
	SoldAt      time.Time `json:"sold_at"`
}

type Repository struct {
	db *sql.DB
}

func NewRepository(db *sql.DB) *Repository {
	return &Repository{db: db}
}

const saleQuery = `
	SELECT s.id, s.player_id, p.username, p.discord_name, p.game_level,
	       s.team_id, t.name, s.price, s.sold_at
	FROM sold_players s
	JOIN players p ON p.id = s.player_id
	JOIN teams t ON t.id = s.team_id`

// ListSales returns every settled sale, newest first.
func (r *Repository) ListSales(ctx context.Context) ([]SaleRecord, error) {
	return r.querySales(ctx, saleQuery+` ORDER BY s.sold_at DESC`)
}

// ListSalesByTeam returns a team's purchases, newest first.
func (r *Repository) ListSalesByTeam(ctx context.Context, teamID uuid.UUID) ([]SaleRecord, error) {
	return r.querySales(ctx, saleQuery+` WHERE s.team_id = $1 ORDER BY s.sold_at DESC`, teamID)
}

func (r *Repository) querySales(ctx context.Context, query string, args ...any) ([]SaleRecord, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list sales: %w", err)
	}
	defer rows.Close()

	var sales []SaleRecord
	for rows.Next() {
		var s SaleRecord
		err := rows.Scan(&s.ID, &s.PlayerID, &s.PlayerName, &s.DiscordName, &s.GameLevel,
			&s.TeamID, &s.TeamName, &s.Price, &s.SoldAt)
		if err != nil {
			return nil, fmt.Errorf("failed to scan sale: %w", err)
		}
		sales = append(sales, s)
	}
	return sales, rows.Err()
}
