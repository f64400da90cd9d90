package repository

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"
)

// DeviceRepo handles the factory device registry and ownership links
type DeviceRepo struct {
	pool *pgxpool.Pool
}

// NewDeviceRepo creates a new device repository
func NewDeviceRepo(pool *pgxpool.Pool) *DeviceRepo {
	return &DeviceRepo{pool: pool}
}

// Exists reports whether the device id is a known factory unit
func (r *DeviceRepo) Exists(ctx context.Context, deviceID string) (bool, error) {
	var found bool
	err := r.pool.QueryRow(ctx,
		`SELECT EXISTS (SELECT 1 FROM device_registry WHERE device_id = $1)`,
		deviceID,
	).Scan(&found)
	if err != nil {
		return false, fmt.Errorf("failed to check device registry: %w", err)
	}
	return found, nil
}

// DisplayName returns the device display name; empty when unknown or unnamed
func (r *DeviceRepo) DisplayName(ctx context.Context, deviceID string) (string, error) {
	var name string
	err := r.pool.QueryRow(ctx,
		`SELECT display_name FROM device_registry WHERE device_id = $1`,
		deviceID,
	).Scan(&name)
	if err != nil {
		if isNoRows(err) {
			return "", nil
		}
		return "", fmt.Errorf("failed to query display name: %w", err)
	}
	return name, nil
}

// OwnerEmail returns the owning account for a device. The bool is false when
// the device is unregistered; that is a valid outcome, not an error.
func (r *DeviceRepo) OwnerEmail(ctx context.Context, deviceID string) (string, bool, error) {
	var email string
	err := r.pool.QueryRow(ctx,
		`SELECT email FROM device_ownership WHERE device_id = $1`,
		deviceID,
	).Scan(&email)
	if err != nil {
		if isNoRows(err) {
			return "", false, nil
		}
		return "", false, fmt.Errorf("failed to query device owner: %w", err)
	}
	return email, true, nil
}

// IsOwned reports whether any ownership link exists for the device
func (r *DeviceRepo) IsOwned(ctx context.Context, deviceID string) (bool, error) {
	_, owned, err := r.OwnerEmail(ctx, deviceID)
	return owned, err
}

// IsOwnedBy reports whether the device is linked to the given email
func (r *DeviceRepo) IsOwnedBy(ctx context.Context, deviceID, email string) (bool, error) {
	var found bool
	err := r.pool.QueryRow(ctx,
		`SELECT EXISTS (SELECT 1 FROM device_ownership WHERE device_id = $1 AND email = $2)`,
		deviceID, email,
	).Scan(&found)
	if err != nil {
		return false, fmt.Errorf("failed to check device ownership: %w", err)
	}
	return found, nil
}

// LinkOwner creates the ownership link. Uniqueness per device is checked by
// the caller before insert, per the registration contract.
func (r *DeviceRepo) LinkOwner(ctx context.Context, deviceID, email string) error {
	_, err := r.pool.Exec(ctx,
		`INSERT INTO device_ownership (device_id, email) VALUES ($1, $2)`,
		deviceID, email,
	)
	if err != nil {
		return fmt.Errorf("failed to link device owner: %w", err)
	}
	return nil
}

// ListOwnedDevices returns the device ids linked to an email
func (r *DeviceRepo) ListOwnedDevices(ctx context.Context, email string) ([]string, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT device_id FROM device_ownership WHERE email = $1 ORDER BY device_id`,
		email,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to list owned devices: %w", err)
	}
	defer rows.Close()

	var ids []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("failed to scan device id: %w", err)
		}
		ids = append(ids, id)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows iteration error: %w", err)
	}

	return ids, nil
}
