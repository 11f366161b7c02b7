package users

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

var ErrUserNotFound = errors.New("user not found")

type Repository struct {
	db *sql.DB
}

func NewRepository(db *sql.DB) *Repository {
	return &Repository{db: db}
}

type CreateUserRequest struct {
	Username     string          `json:"username"`
	PasswordHash string          `json:"-"`
	Role         models.UserRole `json:"role"`
	TeamID       *uuid.UUID      `json:"team_id,omitempty"`
}

const userColumns = `id, username, password_hash, role, is_approved, team_id, can_bid, created_at`

func (r *Repository) CreateUser(ctx context.Context, req CreateUserRequest) (*models.User, error) {
	const query = `
		INSERT INTO users (id, username, password_hash, role, is_approved, team_id, can_bid, created_at)
		VALUES ($1, $2, $3, $4, false, $5, false, $6)
		RETURNING ` + userColumns

	row := r.db.QueryRowContext(ctx, query,
		uuid.New(), req.Username, req.PasswordHash, req.Role, sqlutil.ToNullUUID(req.TeamID), time.Now().UTC())
	user, err := scanUser(row)
	if err != nil {
		return nil, fmt.Errorf("failed to create user: %w", err)
	}
	return user, nil
}

func (r *Repository) GetUser(ctx context.Context, id uuid.UUID) (*models.User, error) {
	const query = `SELECT ` + userColumns + ` FROM users WHERE id = $1`

	user, err := scanUser(r.db.QueryRowContext(ctx, query, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrUserNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get user: %w", err)
	}
	return user, nil
}

func (r *Repository) GetUserByUsername(ctx context.Context, username string) (*models.User, error) {
	const query = `SELECT ` + userColumns + ` FROM users WHERE username = $1`

	user, err := scanUser(r.db.QueryRowContext(ctx, query, username))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrUserNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get user by username: %w", err)
	}
	return user, nil
}

// Approve marks the user approved and assigns them to a team.
func (r *Repository) Approve(ctx context.Context, id uuid.UUID, teamID uuid.UUID) (*models.User, error) {
	const query = `
		UPDATE users SET is_approved = true, team_id = $2 WHERE id = $1
		RETURNING ` + userColumns

	user, err := scanUser(r.db.QueryRowContext(ctx, query, id, teamID))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrUserNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to approve user: %w", err)
	}
	return user, nil
}

// SetCanBid toggles a user's bidding permission.
func (r *Repository) SetCanBid(ctx context.Context, id uuid.UUID, canBid bool) (*models.User, error) {
	const query = `
		UPDATE users SET can_bid = $2 WHERE id = $1
		RETURNING ` + userColumns

	user, err := scanUser(r.db.QueryRowContext(ctx, query, id, canBid))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrUserNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to set can_bid: %w", err)
	}
	return user, nil
}

func (r *Repository) ListPending(ctx context.Context) ([]models.User, error) {
	const query = `SELECT ` + userColumns + ` FROM users WHERE NOT is_approved ORDER BY created_at`

	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to list pending users: %w", err)
	}
	defer rows.Close()

	var users []models.User
	for rows.Next() {
		user, err := scanUser(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan user: %w", err)
		}
		users = append(users, *user)
	}
	return users, rows.Err()
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanUser(row rowScanner) (*models.User, error) {
	var u models.User
	var tid uuid.NullUUID
	if err := row.Scan(&u.ID, &u.Username, &u.PasswordHash, &u.Role, &u.IsApproved, &tid, &u.CanBid, &u.CreatedAt); err != nil {
		return nil, err
	}
	u.TeamID = sqlutil.FromNullUUID(tid)
	return &u, nil
}
