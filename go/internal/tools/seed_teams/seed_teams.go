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

// Team mirrors the JSON seed file
type Team struct {
	Name   string `json:"name"`
	Budget int64  `json:"budget"`
}

func main() {
	path := "go/internal/assets/teams.json"
	if len(os.Args) > 1 {
		path = os.Args[1]
	}

	// 1) Load the JSON snapshot
	data, err := os.ReadFile(path)
	if err != nil {
		fmt.Fprintf(os.Stderr, "read JSON: %v\n", err)
		os.Exit(1)
	}
	var teams []Team
	if err := json.Unmarshal(data, &teams); err != nil {
		fmt.Fprintf(os.Stderr, "unmarshal JSON: %v\n", err)
		os.Exit(1)
	}

	// 2) Connect using shared dbconfig
	cfg := dbconfig.NewConfigFromEnv()
	pool, err := pgxpool.New(context.Background(), cfg.DSN())
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to connect: %v\n", err)
		os.Exit(1)
	}
	defer pool.Close()

	// 3) Upsert and count
	var (
		total    = len(teams)
		inserted int
		skipped  int
		errs     int
	)

	for _, t := range teams {
		cmdTag, err := pool.Exec(context.Background(), `
            INSERT INTO teams (id, name, budget, created_at)
            VALUES ($1, $2, $3, now())
            ON CONFLICT (name) DO NOTHING
        `, uuid.New(), t.Name, t.Budget)
		if err != nil {
			fmt.Fprintf(os.Stderr, "error inserting team %s: %v\n", t.Name, err)
			errs++
			continue
		}
		if cmdTag.RowsAffected() == 1 {
			inserted++
		} else {
			skipped++
		}
	}

	fmt.Printf("teams: %d total, %d inserted, %d skipped, %d errors\n", total, inserted, skipped, errs)
	if errs > 0 {
		os.Exit(1)
	}
}
