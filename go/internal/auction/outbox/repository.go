package outbox

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/sqlc-dev/pqtype"

	"github.com/mcdev12/auctionhouse/go/internal/auction/events"
)

// Repository persists outbox rows in the auction_outbox table.
type Repository struct {
	db *sql.DB
}

func NewRepository(db *sql.DB) *Repository {
	return &Repository{db: db}
}

// InsertEvent records an engine event for later relay.
func (r *Repository) InsertEvent(ctx context.Context, env events.Envelope) error {
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO auction_outbox (id, auction_id, event_type, payload, created_at)
		VALUES ($1, $2, $3, $4, $5)`,
		env.ID, env.AuctionID, string(env.Type),
		pqtype.NullRawMessage{RawMessage: env.Data, Valid: len(env.Data) > 0},
		env.Timestamp)
	if err != nil {
		return fmt.Errorf("failed to insert outbox event: %w", err)
	}
	return nil
}

// ClaimPending returns up to limit unpublished events, oldest first.
func (r *Repository) ClaimPending(ctx context.Context, limit int) ([]OutboxEvent, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT id, auction_id, event_type, payload, created_at
		FROM auction_outbox
		WHERE published_at IS NULL
		ORDER BY created_at
		LIMIT $1`, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to claim pending events: %w", err)
	}
	defer rows.Close()

	var out []OutboxEvent
	for rows.Next() {
		var (
			ev      OutboxEvent
			payload pqtype.NullRawMessage
		)
		if err := rows.Scan(&ev.ID, &ev.AuctionID, &ev.EventType, &payload, &ev.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan outbox event: %w", err)
		}
		if payload.Valid {
			ev.Payload = payload.RawMessage
		}
		out = append(out, ev)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate outbox events: %w", err)
	}
	return out, nil
}

// MarkPublished stamps an event as relayed.
func (r *Repository) MarkPublished(ctx context.Context, id uuid.UUID, at time.Time) error {
	_, err := r.db.ExecContext(ctx, `
		UPDATE auction_outbox SET published_at = $2 WHERE id = $1 AND published_at IS NULL`,
		id, at)
	if err != nil {
		return fmt.Errorf("failed to mark outbox event published: %w", err)
	}
	return nil
}
