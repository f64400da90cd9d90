package repository

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/smartpetcare/feeder-backend/internal/db"
	"github.com/smartpetcare/feeder-backend/internal/otp"
)

// OtpRepo stores at most one live passcode per email. The single-row upsert
// is the only atomicity the flow relies on.
type OtpRepo struct {
	pool *pgxpool.Pool
}

// NewOtpRepo creates a new OTP repository
func NewOtpRepo(pool *pgxpool.Pool) *OtpRepo {
	return &OtpRepo{pool: pool}
}

// Upsert overwrites any pending passcode for the email; only the latest
// request stays valid
func (r *OtpRepo) Upsert(ctx context.Context, record *db.OtpRecord) error {
	query := `
		INSERT INTO otp_codes (email, code_hash, expires_at)
		VALUES ($1, $2, $3)
		ON CONFLICT (email) DO UPDATE SET
			code_hash  = EXCLUDED.code_hash,
			expires_at = EXCLUDED.expires_at
	`

	_, err := r.pool.Exec(ctx, query, record.Email, record.CodeHash, record.ExpiresAt)
	if err != nil {
		return fmt.Errorf("failed to upsert otp record: %w", err)
	}

	return nil
}

// Get loads the pending record for an email. Absence maps to
// otp.ErrNoSuchRequest so the verifier can report it precisely.
func (r *OtpRepo) Get(ctx context.Context, email string) (*db.OtpRecord, error) {
	query := `
		SELECT email, code_hash, expires_at
		FROM otp_codes
		WHERE email = $1
	`

	var record db.OtpRecord
	err := r.pool.QueryRow(ctx, query, email).Scan(
		&record.Email,
		&record.CodeHash,
		&record.ExpiresAt,
	)
	if err != nil {
		if isNoRows(err) {
			return nil, otp.ErrNoSuchRequest
		}
		return nil, fmt.Errorf("failed to query otp record: %w", err)
	}

	return &record, nil
}

// Delete removes the record once a flow completes. Expired records are left
// in place until overwritten by a fresh request.
func (r *OtpRepo) Delete(ctx context.Context, email string) error {
	_, err := r.pool.Exec(ctx, `DELETE FROM otp_codes WHERE email = $1`, email)
	if err != nil {
		return fmt.Errorf("failed to delete otp record: %w", err)
	}
	return nil
}
