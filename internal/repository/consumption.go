package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/smartpetcare/feeder-backend/internal/db"
)

// ConsumptionRepo handles append-only food consumption events
type ConsumptionRepo struct {
	pool *pgxpool.Pool
}

// NewConsumptionRepo creates a new consumption repository
func NewConsumptionRepo(pool *pgxpool.Pool) *ConsumptionRepo {
	return &ConsumptionRepo{pool: pool}
}

// Append inserts one consumption event. Events are never mutated or deleted.
func (r *ConsumptionRepo) Append(ctx context.Context, event *db.ConsumptionEvent) error {
	query := `
		INSERT INTO consumption_events (device_id, grams, recorded_at)
		VALUES ($1, $2, $3)
	`

	_, err := r.pool.Exec(ctx, query, event.DeviceID, event.Grams, event.RecordedAt)
	if err != nil {
		return fmt.Errorf("failed to insert consumption event: %w", err)
	}

	return nil
}

// ListSince returns a device's consumption events recorded at or after the
// given instant, oldest first.
func (r *ConsumptionRepo) ListSince(ctx context.Context, deviceID string, since time.Time) ([]db.ConsumptionEvent, error) {
	query := `
		SELECT device_id, grams, recorded_at
		FROM consumption_events
		WHERE device_id = $1 AND recorded_at >= $2
		ORDER BY recorded_at ASC
	`

	rows, err := r.pool.Query(ctx, query, deviceID, since)
	if err != nil {
		return nil, fmt.Errorf("failed to query consumption events: %w", err)
	}
	defer rows.Close()

	var events []db.ConsumptionEvent
	for rows.Next() {
		var event db.ConsumptionEvent
		if err := rows.Scan(&event.DeviceID, &event.Grams, &event.RecordedAt); err != nil {
			return nil, fmt.Errorf("failed to scan consumption event: %w", err)
		}
		events = append(events, event)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to read consumption events: %w", err)
	}

	return events, nil
}
