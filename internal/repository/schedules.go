package repository

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/smartpetcare/feeder-backend/internal/db"
)

// ScheduleRepo handles feeding schedules
type ScheduleRepo struct {
	pool *pgxpool.Pool
}

// NewScheduleRepo creates a new schedule repository
func NewScheduleRepo(pool *pgxpool.Pool) *ScheduleRepo {
	return &ScheduleRepo{pool: pool}
}

// ListByDevice returns the feeding schedule of a device
func (r *ScheduleRepo) ListByDevice(ctx context.Context, deviceID string) ([]db.FeedSchedule, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT device_id, email, feed_time, amount_grams
		FROM feed_schedules
		WHERE device_id = $1
		ORDER BY feed_time
	`, deviceID)
	if err != nil {
		return nil, fmt.Errorf("failed to list schedules: %w", err)
	}
	defer rows.Close()

	var schedules []db.FeedSchedule
	for rows.Next() {
		var s db.FeedSchedule
		if err := rows.Scan(&s.DeviceID, &s.Email, &s.FeedTime, &s.AmountGrams); err != nil {
			return nil, fmt.Errorf("failed to scan schedule: %w", err)
		}
		schedules = append(schedules, s)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows iteration error: %w", err)
	}

	return schedules, nil
}

// Replace swaps the full schedule of a device for the given entries in one
// transaction
func (r *ScheduleRepo) Replace(ctx context.Context, deviceID, email string, entries []db.FeedSchedule) error {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	_, err = tx.Exec(ctx,
		`DELETE FROM feed_schedules WHERE device_id = $1 AND email = $2`,
		deviceID, email,
	)
	if err != nil {
		return fmt.Errorf("failed to clear schedule: %w", err)
	}

	for _, entry := range entries {
		_, err = tx.Exec(ctx, `
			INSERT INTO feed_schedules (device_id, email, feed_time, amount_grams)
			VALUES ($1, $2, $3, $4)
		`, deviceID, email, entry.FeedTime, entry.AmountGrams)
		if err != nil {
			return fmt.Errorf("failed to insert schedule entry: %w", err)
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("failed to commit schedule: %w", err)
	}

	return nil
}
