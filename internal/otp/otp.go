// Package otp implements the one-time passcode flow used for signup and
// password reset: issue a 6-digit code, store only its hash with an expiry,
// verify later submissions against it.
package otp

import (
	"context"
	"errors"
	"fmt"
	"math/rand"
	"time"

	"github.com/smartpetcare/feeder-backend/internal/db"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"
)

var (
	// ErrNoSuchRequest means no pending passcode exists for the email
	ErrNoSuchRequest = errors.New("no passcode request found")
	// ErrExpired means the pending passcode is past its expiry
	ErrExpired = errors.New("passcode has expired")
	// ErrIncorrect means the submitted code does not match the stored hash
	ErrIncorrect = errors.New("incorrect passcode")
)

// Store persists at most one live passcode record per email
type Store interface {
	Upsert(ctx context.Context, record *db.OtpRecord) error
	Get(ctx context.Context, email string) (*db.OtpRecord, error)
	Delete(ctx context.Context, email string) error
}

// Mailer delivers the plaintext code to the user
type Mailer interface {
	SendPasscode(ctx context.Context, email, code string) error
}

// Service issues and verifies passcodes
type Service struct {
	store  Store
	mailer Mailer
	ttl    time.Duration
	logger *zap.Logger
}

// NewService creates a new OTP service
func NewService(store Store, mailer Mailer, ttlMinutes int, logger *zap.Logger) *Service {
	return &Service{
		store:  store,
		mailer: mailer,
		ttl:    time.Duration(ttlMinutes) * time.Minute,
		logger: logger,
	}
}

// Issue generates a fresh 6-digit code for the email, stores its hash with
// an expiry and triggers delivery. A new request invalidates any prior
// pending code. Delivery failure is logged but does not roll back the stored
// record.
func (s *Service) Issue(ctx context.Context, email string) error {
	code := generateCode()

	hash, err := bcrypt.GenerateFromPassword([]byte(code), bcrypt.DefaultCost)
	if err != nil {
		return fmt.Errorf("failed to hash passcode: %w", err)
	}

	record := &db.OtpRecord{
		Email:     email,
		CodeHash:  string(hash),
		ExpiresAt: time.Now().Add(s.ttl),
	}
	if err := s.store.Upsert(ctx, record); err != nil {
		return fmt.Errorf("failed to store passcode: %w", err)
	}

	if err := s.mailer.SendPasscode(ctx, email, code); err != nil {
		s.logger.Error("failed to deliver passcode email",
			zap.Error(err),
			zap.String("email", email),
		)
	}

	return nil
}

// Verify checks the submitted code against the pending record and leaves the
// record untouched. Expiry and hash match are both evaluated so callers can
// report the exact failure; expiry takes precedence when both fail.
func (s *Service) Verify(ctx context.Context, email, code string) error {
	record, err := s.store.Get(ctx, email)
	if err != nil {
		return err
	}

	expired := time.Now().After(record.ExpiresAt)
	incorrect := bcrypt.CompareHashAndPassword([]byte(record.CodeHash), []byte(code)) != nil

	if expired {
		return ErrExpired
	}
	if incorrect {
		return ErrIncorrect
	}
	return nil
}

// Consume deletes the pending record once a flow completes. Expired records
// are never proactively deleted; they simply fail verification until
// overwritten.
func (s *Service) Consume(ctx context.Context, email string) error {
	if err := s.store.Delete(ctx, email); err != nil {
		return fmt.Errorf("failed to consume passcode: %w", err)
	}
	return nil
}

// generateCode draws a code uniformly from [100000, 999999]
func generateCode() string {
	return fmt.Sprintf("%06d", rand.Intn(900000)+100000)
}
