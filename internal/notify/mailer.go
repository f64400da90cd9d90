package notify

import (
	"context"

	"github.com/smartpetcare/feeder-backend/internal/email"
)

// PasscodeMailer adapts the publisher to the OTP service's mailer contract:
// the verification email goes through the queue like every other side effect.
type PasscodeMailer struct {
	publisher *Publisher
}

// NewPasscodeMailer creates a new passcode mailer
func NewPasscodeMailer(publisher *Publisher) *PasscodeMailer {
	return &PasscodeMailer{publisher: publisher}
}

// SendPasscode queues the verification email for an address
func (m *PasscodeMailer) SendPasscode(ctx context.Context, to, code string) error {
	return m.publisher.EnqueueEmail(ctx, to, email.PasscodeSubject, email.PasscodeHTML(code))
}
