package repository

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"
)

// UserTokens groups the push tokens of one account
type UserTokens struct {
	Email  string
	Tokens []string
}

// TokenRepo handles FCM push token storage
type TokenRepo struct {
	pool *pgxpool.Pool
}

// NewTokenRepo creates a new push token repository
func NewTokenRepo(pool *pgxpool.Pool) *TokenRepo {
	return &TokenRepo{pool: pool}
}

// Save stores a token for an email; duplicates are ignored
func (r *TokenRepo) Save(ctx context.Context, email, fcmToken string) error {
	_, err := r.pool.Exec(ctx, `
		INSERT INTO push_tokens (email, fcm_token)
		VALUES ($1, $2)
		ON CONFLICT (email, fcm_token) DO NOTHING
	`, email, fcmToken)
	if err != nil {
		return fmt.Errorf("failed to save push token: %w", err)
	}
	return nil
}

// ListByEmail returns all tokens registered for an email; an empty slice
// means no token available, which is not an error
func (r *TokenRepo) ListByEmail(ctx context.Context, email string) ([]string, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT fcm_token FROM push_tokens WHERE email = $1`,
		email,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to list push tokens: %w", err)
	}
	defer rows.Close()

	var tokens []string
	for rows.Next() {
		var token string
		if err := rows.Scan(&token); err != nil {
			return nil, fmt.Errorf("failed to scan push token: %w", err)
		}
		tokens = append(tokens, token)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows iteration error: %w", err)
	}

	return tokens, nil
}

// ListGroupedByEmail returns every stored token grouped per account, for the
// daily broadcast job
func (r *TokenRepo) ListGroupedByEmail(ctx context.Context) ([]UserTokens, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT email, fcm_token FROM push_tokens ORDER BY email`,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to list push tokens: %w", err)
	}
	defer rows.Close()

	var grouped []UserTokens
	for rows.Next() {
		var email, token string
		if err := rows.Scan(&email, &token); err != nil {
			return nil, fmt.Errorf("failed to scan push token: %w", err)
		}
		if n := len(grouped); n > 0 && grouped[n-1].Email == email {
			grouped[n-1].Tokens = append(grouped[n-1].Tokens, token)
			continue
		}
		grouped = append(grouped, UserTokens{Email: email, Tokens: []string{token}})
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows iteration error: %w", err)
	}

	return grouped, nil
}
