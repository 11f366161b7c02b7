package export

import (
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mcdev12/auctionhouse/go/internal/models"
	"github.com/mcdev12/auctionhouse/go/internal/sales"
)

func TestWriteSales(t *testing.T) {
	var sb strings.Builder
	records := []sales.SaleRecord{
		{
			PlayerName:  "striker",
			DiscordName: "striker#1234",
			GameLevel:   "pro",
			TeamName:    "Wolves",
			Price:       900,
			SoldAt:      time.Date(2025, 6, 1, 18, 30, 0, 0, time.UTC),
		},
	}

	require.NoError(t, WriteSales(&sb, records))

	lines := strings.Split(strings.TrimSpace(sb.String()), "\n")
	require.Len(t, lines, 2)
	assert.Equal(t, "player,discord,game_level,team,price,sold_at", lines[0])
	assert.Equal(t, "striker,striker#1234,pro,Wolves,900,2025-06-01T18:30:00Z", lines[1])
}

func TestWriteSalesEmpty(t *testing.T) {
	var sb strings.Builder
	require.NoError(t, WriteSales(&sb, nil))
	assert.Equal(t, "player,discord,game_level,team,price,sold_at\n", sb.String())
}

func TestWriteRoster(t *testing.T) {
	var sb strings.Builder
	team := models.Team{ID: uuid.New(), Name: "Wolves", Budget: 5000}
	players := []models.Player{
		{Username: "striker", DiscordName: "striker#1234", GameLevel: "pro", BasePrice: 500},
		{Username: "keeper", DiscordName: "keeper#5678", GameLevel: "amateur", BasePrice: 100},
	}

	require.NoError(t, WriteRoster(&sb, team, players))

	lines := strings.Split(strings.TrimSpace(sb.String()), "\n")
	require.Len(t, lines, 3)
	assert.Equal(t, "team,player,discord,game_level,base_price", lines[0])
	assert.Equal(t, "Wolves,striker,striker#1234,pro,500", lines[1])
	assert.Equal(t, "Wolves,keeper,keeper#5678,amateur,100", lines[2])
}
