package scheduler

import (
	"context"
	"errors"
	"testing"
	"time"

	"go.uber.org/zap"

	"github.com/smartpetcare/feeder-backend/internal/repository"
)

type fakeTokenSource struct {
	users []repository.UserTokens
	err   error
}

func (f *fakeTokenSource) ListGroupedByEmail(context.Context) ([]repository.UserTokens, error) {
	return f.users, f.err
}

type queuedPush struct {
	tokens []string
	title  string
	body   string
}

type fakeNotifier struct {
	pushes  []queuedPush
	failFor string // email is not visible here, so fail on first token match
}

func (f *fakeNotifier) EnqueuePush(_ context.Context, tokens []string, title, body string) error {
	if f.failFor != "" && len(tokens) > 0 && tokens[0] == f.failFor {
		return errors.New("broker down")
	}
	f.pushes = append(f.pushes, queuedPush{tokens: tokens, title: title, body: body})
	return nil
}

func TestNextRun(t *testing.T) {
	loc := time.UTC
	tests := []struct {
		name string
		now  time.Time
		want time.Time
	}{
		{
			"before today's slot",
			time.Date(2026, 9, 1, 7, 30, 0, 0, loc),
			time.Date(2026, 9, 1, 9, 0, 0, 0, loc),
		},
		{
			"after today's slot",
			time.Date(2026, 9, 1, 10, 0, 0, 0, loc),
			time.Date(2026, 9, 2, 9, 0, 0, 0, loc),
		},
		{
			"exactly at the slot rolls to tomorrow",
			time.Date(2026, 9, 1, 9, 0, 0, 0, loc),
			time.Date(2026, 9, 2, 9, 0, 0, 0, loc),
		},
		{
			"month boundary",
			time.Date(2026, 8, 31, 23, 0, 0, 0, loc),
			time.Date(2026, 9, 1, 9, 0, 0, 0, loc),
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := nextRun(tt.now, 9, 0)
			if !got.Equal(tt.want) {
				t.Errorf("nextRun(%v) = %v, want %v", tt.now, got, tt.want)
			}
		})
	}
}

func TestNewDailyRejectsBadTime(t *testing.T) {
	if _, err := NewDaily("25:99", &fakeTokenSource{}, &fakeNotifier{}, zap.NewNop()); err == nil {
		t.Error("expected error for invalid time")
	}
	if _, err := NewDaily("09:00", &fakeTokenSource{}, &fakeNotifier{}, zap.NewNop()); err != nil {
		t.Errorf("unexpected error: %v", err)
	}
}

func TestBroadcastQueuesPerUser(t *testing.T) {
	tokens := &fakeTokenSource{users: []repository.UserTokens{
		{Email: "a@example.com", Tokens: []string{"A1", "A2"}},
		{Email: "b@example.com", Tokens: []string{"B1"}},
		{Email: "empty@example.com", Tokens: nil},
	}}
	notifier := &fakeNotifier{}
	d, err := NewDaily("09:00", tokens, notifier, zap.NewNop())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	d.broadcast(context.Background())

	if len(notifier.pushes) != 2 {
		t.Fatalf("queued %d pushes, want 2", len(notifier.pushes))
	}
	if notifier.pushes[0].title != "Daily Reminder" {
		t.Errorf("title = %q", notifier.pushes[0].title)
	}
	if notifier.pushes[0].body != reminderBody {
		t.Errorf("body = %q", notifier.pushes[0].body)
	}
	if len(notifier.pushes[0].tokens) != 2 {
		t.Errorf("tokens = %v", notifier.pushes[0].tokens)
	}
}

func TestBroadcastContinuesPastFailures(t *testing.T) {
	tokens := &fakeTokenSource{users: []repository.UserTokens{
		{Email: "a@example.com", Tokens: []string{"FAIL"}},
		{Email: "b@example.com", Tokens: []string{"B1"}},
	}}
	notifier := &fakeNotifier{failFor: "FAIL"}
	d, err := NewDaily("09:00", tokens, notifier, zap.NewNop())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	d.broadcast(context.Background())

	if len(notifier.pushes) != 1 {
		t.Fatalf("queued %d pushes, want 1", len(notifier.pushes))
	}
	if notifier.pushes[0].tokens[0] != "B1" {
		t.Errorf("tokens = %v", notifier.pushes[0].tokens)
	}
}

func TestBroadcastTokenSourceFailureIsContained(t *testing.T) {
	tokens := &fakeTokenSource{err: errors.New("db down")}
	notifier := &fakeNotifier{}
	d, err := NewDaily("09:00", tokens, notifier, zap.NewNop())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	d.broadcast(context.Background())

	if len(notifier.pushes) != 0 {
		t.Errorf("queued %d pushes, want 0", len(notifier.pushes))
	}
}
