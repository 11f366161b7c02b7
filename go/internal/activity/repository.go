package activity

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/mcdev12/auctionhouse/go/internal/models"
)

type Repository struct {
	db *sql.DB
}

func NewRepository(db *sql.DB) *Repository {
	return &Repository{db: db}
}

func (r *Repository) Insert(ctx context.Context, message string, at time.Time) error {
	const query = `INSERT INTO activity_log (message, created_at) VALUES ($1, $2)`

	if _, err := r.db.ExecContext(ctx, query, message, at); err != nil {
		return fmt.Errorf("failed to insert activity entry: %w", err)
	}
	return nil
}

// Recent returns the newest entries, most recent first.
func (r *Repository) Recent(ctx context.Context, limit int) ([]models.ActivityEntry, error) {
	if limit <= 0 {
		limit = 50
	}
	const query = `SELECT id, message, created_at FROM activity_log ORDER BY created_at DESC LIMIT $1`

	rows, err := r.db.QueryContext(ctx, query, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list activity entries: %w", err)
	}
	defer rows.Close()

	var entries []models.ActivityEntry
	for rows.Next() {
		var e models.ActivityEntry
		if err := rows.Scan(&e.ID, &e.Message, &e.Timestamp); err != nil {
			return nil, fmt.Errorf("failed to scan activity entry: %w", err)
		}
		entries = append(entries, e)
	}
	return entries, rows.Err()
}
