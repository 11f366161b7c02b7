package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/mcdev12/auctionhouse/go/internal/dbconfig"
)

// Player mirrors the JSON seed file
type Player struct {
	Username    string `json:"username"`
	DiscordName string `json:"discord_name"`
	BasePrice   int64  `json:"base_price"`
	GameLevel   string `json:"game_level"`
}

func main() {
	path := "go/internal/assets/players.json"
	if len(os.Args) > 1 {
		path = os.Args[1]
	}

	data, err := os.ReadFile(path)
	if err != nil {
		fmt.Fprintf(os.Stderr, "read JSON: %v\n", err)
		os.Exit(1)
	}
	var players []Player
	if err := json.Unmarshal(data, &players); err != nil {
		fmt.Fprintf(os.Stderr, "unmarshal JSON: %v\n", err)
		os.Exit(1)
	}

	cfg := dbconfig.NewConfigFromEnv()
	pool, err := pgxpool.New(context.Background(), cfg.DSN())
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to connect: %v\n", err)
		os.Exit(1)
	}
	defer pool.Close()

	var (
		total    = len(players)
		inserted int
		skipped  int
		errs     int
	)

	for _, p := range players {
		cmdTag, err := pool.Exec(context.Background(), `
            INSERT INTO players (id, username, discord_name, base_price, game_level, created_at)
            VALUES ($1, $2, $3, $4, $5, now())
            ON CONFLICT (username) DO NOTHING
        `, uuid.New(), p.Username, p.DiscordName, p.BasePrice, p.GameLevel)
		if err != nil {
			fmt.Fprintf(os.Stderr, "error inserting player %s: %v\n", p.Username, err)
			errs++
			continue
		}
		if cmdTag.RowsAffected() == 1 {
			inserted++
		} else {
			skipped++
		}
	}

	fmt.Printf("players: %d total, %d inserted, %d skipped, %d errors\n", total, inserted, skipped, errs)
	if errs > 0 {
		os.Exit(1)
	}
}
