package export

import (
	"encoding/csv"
	"fmt"
	"io"
	"strconv"
	"time"

	"github.com/mcdev12/auctionhouse/go/internal/models"
	"github.com/mcdev12/auctionhouse/go/internal/sales"
)

// WriteSales writes every settled sale as CSV, one row per sold player.
func WriteSales(w io.Writer, records []sales.SaleRecord) error {
	cw := csv.NewWriter(w)

	header := []string{"player", "discord", "game_level", "team", "price", "sold_at"}
	if err := cw.Write(header); err != nil {
		return fmt.Errorf("failed to write CSV header: %w", err)
	}

	for _, s := range records {
		row := []string{
			s.PlayerName,
			s.DiscordName,
			s.GameLevel,
			s.TeamName,
			strconv.FormatInt(s.Price, 10),
			s.SoldAt.UTC().Format(time.RFC3339),
		}
		if err := cw.Write(row); err != nil {
			return fmt.Errorf("failed to write CSV row: %w", err)
		}
	}

	cw.Flush()
	return cw.Error()
}

// WriteRoster writes a team's current roster as CSV.
func WriteRoster(w io.Writer, team models.Team, players []models.Player) error {
	cw := csv.NewWriter(w)

	header := []string{"team", "player", "discord", "game_level", "base_price"}
	if err := cw.Write(header); err != nil {
		return fmt.Errorf("failed to write CSV header: %w", err)
	}

	for _, p := range players {
		row := []string{
			team.Name,
			p.Username,
			p.DiscordName,
			p.GameLevel,
			strconv.FormatInt(p.BasePrice, 10),
		}
		if err := cw.Write(row); err != nil {
			return fmt.Errorf("failed to write CSV row: %w", err)
		}
	}

	cw.Flush()
	return cw.Error()
}
