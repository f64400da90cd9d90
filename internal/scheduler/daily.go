// Package scheduler runs the daily reminder broadcast: once per day at a
// configured local time, every user with registered push tokens gets the
// water-change reminder.
package scheduler

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/smartpetcare/feeder-backend/internal/repository"
)

const (
	reminderTitle = "Daily Reminder"
	reminderBody  = "Don't forget to change and clean your pet's water today to keep them healthy!"
)

// TokenSource lists registered push tokens grouped per account
type TokenSource interface {
	ListGroupedByEmail(ctx context.Context) ([]repository.UserTokens, error)
}

// Notifier queues push notifications
type Notifier interface {
	EnqueuePush(ctx context.Context, tokens []string, title, body string) error
}

// Daily fires the reminder broadcast once per day
type Daily struct {
	hour   int
	minute int
	tokens TokenSource
	notify Notifier
	logger *zap.Logger
}

// NewDaily creates a scheduler firing at the given "HH:MM" local time
func NewDaily(at string, tokens TokenSource, notify Notifier, logger *zap.Logger) (*Daily, error) {
	parsed, err := time.Parse("15:04", at)
	if err != nil {
		return nil, fmt.Errorf("invalid reminder time %q: %w", at, err)
	}
	return &Daily{
		hour:   parsed.Hour(),
		minute: parsed.Minute(),
		tokens: tokens,
		notify: notify,
		logger: logger,
	}, nil
}

// Start runs the scheduler loop until the context is cancelled
func (d *Daily) Start(ctx context.Context) {
	go d.run(ctx)
}

func (d *Daily) run(ctx context.Context) {
	for {
		next := nextRun(time.Now(), d.hour, d.minute)
		d.logger.Info("next daily reminder scheduled", zap.Time("at", next))

		timer := time.NewTimer(time.Until(next))
		select {
		case <-ctx.Done():
			timer.Stop()
			return
		case <-timer.C:
			d.broadcast(ctx)
		}
	}
}

// broadcast enqueues the reminder per user; one user's failure never stops
// the rest
func (d *Daily) broadcast(ctx context.Context) {
	users, err := d.tokens.ListGroupedByEmail(ctx)
	if err != nil {
		d.logger.Error("failed to load push tokens for daily reminder", zap.Error(err))
		return
	}

	sent := 0
	for _, user := range users {
		if len(user.Tokens) == 0 {
			continue
		}
		if err := d.notify.EnqueuePush(ctx, user.Tokens, reminderTitle, reminderBody); err != nil {
			d.logger.Error("failed to queue daily reminder",
				zap.Error(err),
				zap.String("email", user.Email),
			)
			continue
		}
		sent++
	}
	d.logger.Info("daily reminder broadcast queued",
		zap.Int("users", sent),
	)
}

// nextRun returns the next wall-clock occurrence of hour:minute strictly
// after now
func nextRun(now time.Time, hour, minute int) time.Time {
	next := time.Date(now.Year(), now.Month(), now.Day(), hour, minute, 0, 0, now.Location())
	if !next.After(now) {
		next = next.AddDate(0, 0, 1)
	}
	return next
}
