package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/smartpetcare/feeder-backend/internal/db"
)

// UserRepo handles account profiles and credentials
type UserRepo struct {
	pool *pgxpool.Pool
}

// NewUserRepo creates a new user repository
func NewUserRepo(pool *pgxpool.Pool) *UserRepo {
	return &UserRepo{pool: pool}
}

// GetByEmail returns the user for an email, or nil when no account exists
func (r *UserRepo) GetByEmail(ctx context.Context, email string) (*db.User, error) {
	query := `
		SELECT id, email, first_name, last_name, password_hash, created_at
		FROM users
		WHERE email = $1
	`

	var user db.User
	err := r.pool.QueryRow(ctx, query, email).Scan(
		&user.ID,
		&user.Email,
		&user.FirstName,
		&user.LastName,
		&user.PasswordHash,
		&user.CreatedAt,
	)
	if err != nil {
		if isNoRows(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to query user: %w", err)
	}

	return &user, nil
}

// Create inserts a new account and returns the stored row
func (r *UserRepo) Create(ctx context.Context, email, firstName, lastName, passwordHash string) (*db.User, error) {
	query := `
		INSERT INTO users (email, first_name, last_name, password_hash, created_at)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING id, email, first_name, last_name, password_hash, created_at
	`

	now := time.Now()
	var user db.User
	err := r.pool.QueryRow(ctx, query, email, firstName, lastName, passwordHash, now).Scan(
		&user.ID,
		&user.Email,
		&user.FirstName,
		&user.LastName,
		&user.PasswordHash,
		&user.CreatedAt,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create user: %w", err)
	}

	return &user, nil
}

// UpdatePassword replaces the stored credential for an email
func (r *UserRepo) UpdatePassword(ctx context.Context, email, passwordHash string) error {
	result, err := r.pool.Exec(ctx,
		`UPDATE users SET password_hash = $1 WHERE email = $2`,
		passwordHash, email,
	)
	if err != nil {
		return fmt.Errorf("failed to update password: %w", err)
	}
	if result.RowsAffected() == 0 {
		return fmt.Errorf("no user found for email")
	}
	return nil
}
