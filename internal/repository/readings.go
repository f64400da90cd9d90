package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/smartpetcare/feeder-backend/internal/db"
)

// ReadingsRepo handles current-status and status-history persistence
type ReadingsRepo struct {
	pool *pgxpool.Pool
}

// NewReadingsRepo creates a new readings repository
func NewReadingsRepo(pool *pgxpool.Pool) *ReadingsRepo {
	return &ReadingsRepo{pool: pool}
}

// UpsertCurrent overwrites the single current-status row for the device.
// Last writer wins; one logical row per device_id.
func (r *ReadingsRepo) UpsertCurrent(ctx context.Context, reading *db.DeviceReading) error {
	query := `
		INSERT INTO device_status (device_id, food_weighted, water_level, main_stock, recorded_at)
		VALUES ($1, $2, $3, $4, $5)
		ON CONFLICT (device_id) DO UPDATE SET
			food_weighted = EXCLUDED.food_weighted,
			water_level   = EXCLUDED.water_level,
			main_stock    = EXCLUDED.main_stock,
			recorded_at   = EXCLUDED.recorded_at
	`

	_, err := r.pool.Exec(ctx, query,
		reading.DeviceID,
		reading.FoodWeighted,
		reading.WaterLevel,
		reading.MainStock,
		reading.RecordedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to upsert device status: %w", err)
	}

	return nil
}

// AppendHistory adds the reading to the append-only history table
func (r *ReadingsRepo) AppendHistory(ctx context.Context, reading *db.DeviceReading) error {
	query := `
		INSERT INTO device_status_history (device_id, food_weighted, water_level, main_stock, recorded_at)
		VALUES ($1, $2, $3, $4, $5)
	`

	_, err := r.pool.Exec(ctx, query,
		reading.DeviceID,
		reading.FoodWeighted,
		reading.WaterLevel,
		reading.MainStock,
		reading.RecordedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to append status history: %w", err)
	}

	return nil
}

// GetCurrent returns the current status row for one device, or nil when the
// device has never reported
func (r *ReadingsRepo) GetCurrent(ctx context.Context, deviceID string) (*db.DeviceReading, error) {
	query := `
		SELECT device_id, food_weighted, water_level, main_stock, recorded_at
		FROM device_status
		WHERE device_id = $1
	`

	var reading db.DeviceReading
	err := r.pool.QueryRow(ctx, query, deviceID).Scan(
		&reading.DeviceID,
		&reading.FoodWeighted,
		&reading.WaterLevel,
		&reading.MainStock,
		&reading.RecordedAt,
	)
	if err != nil {
		if isNoRows(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to query device status: %w", err)
	}

	return &reading, nil
}

// ListFoodHistory returns the food weight samples recorded since the given
// time, oldest first, skipping rows without a weight
func (r *ReadingsRepo) ListFoodHistory(ctx context.Context, deviceID string, since time.Time) ([]db.FoodSample, error) {
	query := `
		SELECT recorded_at, food_weighted
		FROM device_status_history
		WHERE device_id = $1 AND recorded_at >= $2 AND food_weighted IS NOT NULL
		ORDER BY recorded_at
	`

	rows, err := r.pool.Query(ctx, query, deviceID, since)
	if err != nil {
		return nil, fmt.Errorf("failed to query food history: %w", err)
	}
	defer rows.Close()

	var samples []db.FoodSample
	for rows.Next() {
		var s db.FoodSample
		if err := rows.Scan(&s.RecordedAt, &s.FoodWeighted); err != nil {
			return nil, fmt.Errorf("failed to scan food sample: %w", err)
		}
		samples = append(samples, s)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows iteration error: %w", err)
	}

	return samples, nil
}
