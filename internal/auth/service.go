package auth

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"

	"github.com/smartpetcare/feeder-backend/internal/apperr"
	"github.com/smartpetcare/feeder-backend/internal/db"
	"github.com/smartpetcare/feeder-backend/internal/otp"
)

// UserStore persists account records
type UserStore interface {
	GetByEmail(ctx context.Context, email string) (*db.User, error)
	Create(ctx context.Context, email, firstName, lastName, passwordHash string) (*db.User, error)
	UpdatePassword(ctx context.Context, email, passwordHash string) error
}

// TokenStore persists push registration tokens
type TokenStore interface {
	Save(ctx context.Context, email, fcmToken string) error
}

// Passcodes is the one-time passcode flow behind signup and password reset
type Passcodes interface {
	Issue(ctx context.Context, email string) error
	Verify(ctx context.Context, email, code string) error
	Consume(ctx context.Context, email string) error
}

// SignupParams carries everything the final signup step needs
type SignupParams struct {
	Email     string
	FirstName string
	LastName  string
	Password  string
	Code      string
	FCMToken  string
}

// Session is a logged-in identity and its access token
type Session struct {
	Token     string `json:"token"`
	Email     string `json:"email"`
	FirstName string `json:"first_name"`
	LastName  string `json:"last_name"`
}

// Service implements the account flows
type Service struct {
	users     UserStore
	tokens    TokenStore
	passcodes Passcodes
	jwt       *JWTService
	logger    *zap.Logger
}

// NewService creates a new auth service
func NewService(users UserStore, tokens TokenStore, passcodes Passcodes, jwt *JWTService, logger *zap.Logger) *Service {
	return &Service{
		users:     users,
		tokens:    tokens,
		passcodes: passcodes,
		jwt:       jwt,
		logger:    logger,
	}
}

// RequestSignupCode starts a signup by emailing a passcode. Existing accounts
// are rejected up front so the user learns immediately rather than after
// entering the code.
func (s *Service) RequestSignupCode(ctx context.Context, email string) error {
	user, err := s.users.GetByEmail(ctx, email)
	if err != nil {
		return fmt.Errorf("failed to look up account: %w", err)
	}
	if user != nil {
		return apperr.Conflict("Email already registered")
	}
	if err := s.passcodes.Issue(ctx, email); err != nil {
		return fmt.Errorf("failed to issue signup passcode: %w", err)
	}
	return nil
}

// CompleteSignup verifies the passcode, creates the account and returns a
// session. The passcode is consumed only after the account exists, so a
// failed creation leaves the code usable for a retry.
func (s *Service) CompleteSignup(ctx context.Context, params SignupParams) (*Session, error) {
	if err := s.passcodes.Verify(ctx, params.Email, params.Code); err != nil {
		return nil, signupVerifyError(err)
	}

	existing, err := s.users.GetByEmail(ctx, params.Email)
	if err != nil {
		return nil, fmt.Errorf("failed to look up account: %w", err)
	}
	if existing != nil {
		return nil, apperr.Conflict("Email already registered")
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(params.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, fmt.Errorf("failed to hash password: %w", err)
	}

	user, err := s.users.Create(ctx, params.Email, params.FirstName, params.LastName, string(hash))
	if err != nil {
		return nil, fmt.Errorf("failed to create account: %w", err)
	}

	if params.FCMToken != "" {
		if err := s.tokens.Save(ctx, user.Email, params.FCMToken); err != nil {
			// The account exists; the token can re-register on next login
			s.logger.Error("failed to save push token during signup",
				zap.Error(err),
				zap.String("email", user.Email),
			)
		}
	}

	if err := s.passcodes.Consume(ctx, params.Email); err != nil {
		s.logger.Error("failed to consume signup passcode",
			zap.Error(err),
			zap.String("email", params.Email),
		)
	}

	return s.newSession(user)
}

// Login authenticates email and password, registering the push token on
// success. Missing accounts and wrong passwords are indistinguishable to
// the caller.
func (s *Service) Login(ctx context.Context, email, password, fcmToken string) (*Session, error) {
	user, err := s.users.GetByEmail(ctx, email)
	if err != nil {
		return nil, fmt.Errorf("failed to look up account: %w", err)
	}
	if user == nil {
		return nil, apperr.Auth("Invalid email or password")
	}
	if bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)) != nil {
		return nil, apperr.Auth("Invalid email or password")
	}

	if fcmToken != "" {
		if err := s.tokens.Save(ctx, user.Email, fcmToken); err != nil {
			s.logger.Error("failed to save push token during login",
				zap.Error(err),
				zap.String("email", user.Email),
			)
		}
	}

	return s.newSession(user)
}

// RequestPasswordResetCode emails a reset passcode. Requests for unknown
// emails succeed without sending anything, so the endpoint never reveals
// which addresses have accounts.
func (s *Service) RequestPasswordResetCode(ctx context.Context, email string) error {
	user, err := s.users.GetByEmail(ctx, email)
	if err != nil {
		return fmt.Errorf("failed to look up account: %w", err)
	}
	if user == nil {
		return nil
	}
	if err := s.passcodes.Issue(ctx, email); err != nil {
		return fmt.Errorf("failed to issue reset passcode: %w", err)
	}
	return nil
}

// VerifyPasswordResetCode checks a reset passcode without consuming it, so
// the client can gate the new-password form. Failures are reported
// specifically at this step.
func (s *Service) VerifyPasswordResetCode(ctx context.Context, email, code string) error {
	if err := s.passcodes.Verify(ctx, email, code); err != nil {
		return signupVerifyError(err)
	}
	return nil
}

// ConfirmPasswordReset re-verifies the passcode and sets the new password.
// All passcode failures collapse into one generic error here; the specific
// reason was already reported at the verify step.
func (s *Service) ConfirmPasswordReset(ctx context.Context, email, code, newPassword string) error {
	if err := s.passcodes.Verify(ctx, email, code); err != nil {
		if errors.Is(err, otp.ErrNoSuchRequest) || errors.Is(err, otp.ErrExpired) || errors.Is(err, otp.ErrIncorrect) {
			return apperr.Auth("Invalid or expired verification code")
		}
		return fmt.Errorf("failed to verify reset passcode: %w", err)
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(newPassword), bcrypt.DefaultCost)
	if err != nil {
		return fmt.Errorf("failed to hash password: %w", err)
	}
	if err := s.users.UpdatePassword(ctx, email, string(hash)); err != nil {
		return fmt.Errorf("failed to update password: %w", err)
	}

	if err := s.passcodes.Consume(ctx, email); err != nil {
		s.logger.Error("failed to consume reset passcode",
			zap.Error(err),
			zap.String("email", email),
		)
	}
	return nil
}

func (s *Service) newSession(user *db.User) (*Session, error) {
	token, err := s.jwt.Generate(user.ID, user.Email)
	if err != nil {
		return nil, fmt.Errorf("failed to create session: %w", err)
	}
	return &Session{
		Token:     token,
		Email:     user.Email,
		FirstName: user.FirstName,
		LastName:  user.LastName,
	}, nil
}

// signupVerifyError maps passcode failures to client-facing errors with the
// exact reason preserved
func signupVerifyError(err error) error {
	switch {
	case errors.Is(err, otp.ErrNoSuchRequest):
		return apperr.Auth("No verification code requested for this email")
	case errors.Is(err, otp.ErrExpired):
		return apperr.Auth("Verification code has expired")
	case errors.Is(err, otp.ErrIncorrect):
		return apperr.Auth("Incorrect verification code")
	default:
		return fmt.Errorf("failed to verify passcode: %w", err)
	}
}
