package auth

import (
	"context"
	"errors"
	"testing"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"

	"github.com/smartpetcare/feeder-backend/internal/apperr"
	"github.com/smartpetcare/feeder-backend/internal/db"
	"github.com/smartpetcare/feeder-backend/internal/otp"
)

type fakeUserStore struct {
	users      map[string]*db.User
	updateFail error
}

func newFakeUserStore() *fakeUserStore {
	return &fakeUserStore{users: map[string]*db.User{}}
}

func (f *fakeUserStore) GetByEmail(_ context.Context, email string) (*db.User, error) {
	return f.users[email], nil
}

func (f *fakeUserStore) Create(_ context.Context, email, firstName, lastName, passwordHash string) (*db.User, error) {
	user := &db.User{
		ID:           uuid.New(),
		Email:        email,
		FirstName:    firstName,
		LastName:     lastName,
		PasswordHash: passwordHash,
	}
	f.users[email] = user
	return user, nil
}

func (f *fakeUserStore) UpdatePassword(_ context.Context, email, passwordHash string) error {
	if f.updateFail != nil {
		return f.updateFail
	}
	if user, ok := f.users[email]; ok {
		user.PasswordHash = passwordHash
	}
	return nil
}

type fakeTokenStore struct {
	saved map[string][]string
	err   error
}

func newFakeTokenStore() *fakeTokenStore {
	return &fakeTokenStore{saved: map[string][]string{}}
}

func (f *fakeTokenStore) Save(_ context.Context, email, fcmToken string) error {
	if f.err != nil {
		return f.err
	}
	f.saved[email] = append(f.saved[email], fcmToken)
	return nil
}

type fakePasscodes struct {
	issued    []string
	consumed  []string
	verifyErr error
	issueErr  error
}

func (f *fakePasscodes) Issue(_ context.Context, email string) error {
	if f.issueErr != nil {
		return f.issueErr
	}
	f.issued = append(f.issued, email)
	return nil
}

func (f *fakePasscodes) Verify(context.Context, string, string) error {
	return f.verifyErr
}

func (f *fakePasscodes) Consume(_ context.Context, email string) error {
	f.consumed = append(f.consumed, email)
	return nil
}

func newTestService(users *fakeUserStore, tokens *fakeTokenStore, passcodes *fakePasscodes) *Service {
	return NewService(users, tokens, passcodes, NewJWTService("test-secret"), zap.NewNop())
}

func requireKind(t *testing.T, err error, kind apperr.Kind) {
	t.Helper()
	var appErr *apperr.Error
	if !errors.As(err, &appErr) {
		t.Fatalf("expected apperr.Error, got %v", err)
	}
	if appErr.Kind != kind {
		t.Fatalf("kind = %v, want %v (message %q)", appErr.Kind, kind, appErr.Message)
	}
}

func TestRequestSignupCodeNewEmail(t *testing.T) {
	passcodes := &fakePasscodes{}
	s := newTestService(newFakeUserStore(), newFakeTokenStore(), passcodes)

	if err := s.RequestSignupCode(context.Background(), "new@example.com"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(passcodes.issued) != 1 || passcodes.issued[0] != "new@example.com" {
		t.Errorf("issued = %v", passcodes.issued)
	}
}

func TestRequestSignupCodeExistingEmailConflicts(t *testing.T) {
	users := newFakeUserStore()
	users.users["taken@example.com"] = &db.User{Email: "taken@example.com"}
	passcodes := &fakePasscodes{}
	s := newTestService(users, newFakeTokenStore(), passcodes)

	err := s.RequestSignupCode(context.Background(), "taken@example.com")
	requireKind(t, err, apperr.KindConflict)
	if len(passcodes.issued) != 0 {
		t.Error("no passcode should be issued for an existing account")
	}
}

func TestCompleteSignupCreatesAccountAndSession(t *testing.T) {
	users := newFakeUserStore()
	tokens := newFakeTokenStore()
	passcodes := &fakePasscodes{}
	s := newTestService(users, tokens, passcodes)

	session, err := s.CompleteSignup(context.Background(), SignupParams{
		Email:     "new@example.com",
		FirstName: "Ada",
		LastName:  "Lovelace",
		Password:  "s3cret",
		Code:      "123456",
		FCMToken:  "fcm-token",
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if session.Token == "" {
		t.Error("expected a session token")
	}
	if session.FirstName != "Ada" || session.Email != "new@example.com" {
		t.Errorf("session = %+v", session)
	}

	user := users.users["new@example.com"]
	if user == nil {
		t.Fatal("expected account created")
	}
	if bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte("s3cret")) != nil {
		t.Error("stored hash does not match password")
	}
	if len(tokens.saved["new@example.com"]) != 1 {
		t.Error("expected push token saved")
	}
	if len(passcodes.consumed) != 1 {
		t.Error("expected passcode consumed")
	}
}

func TestCompleteSignupVerifyFailuresAreSpecific(t *testing.T) {
	tests := []struct {
		name      string
		verifyErr error
	}{
		{"no request", otp.ErrNoSuchRequest},
		{"expired", otp.ErrExpired},
		{"incorrect", otp.ErrIncorrect},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			users := newFakeUserStore()
			passcodes := &fakePasscodes{verifyErr: tt.verifyErr}
			s := newTestService(users, newFakeTokenStore(), passcodes)

			_, err := s.CompleteSignup(context.Background(), SignupParams{
				Email: "a@example.com", Password: "p", Code: "000000",
			})
			requireKind(t, err, apperr.KindAuth)
			if len(users.users) != 0 {
				t.Error("no account should exist after a failed verify")
			}
			if len(passcodes.consumed) != 0 {
				t.Error("passcode must survive a failed verify")
			}
		})
	}
}

func TestCompleteSignupTokenSaveFailureDoesNotFailSignup(t *testing.T) {
	tokens := newFakeTokenStore()
	tokens.err = errors.New("db down")
	s := newTestService(newFakeUserStore(), tokens, &fakePasscodes{})

	_, err := s.CompleteSignup(context.Background(), SignupParams{
		Email: "a@example.com", Password: "p", Code: "123456", FCMToken: "T",
	})
	if err != nil {
		t.Fatalf("signup should survive a token save failure: %v", err)
	}
}

func TestLoginSuccessSavesToken(t *testing.T) {
	users := newFakeUserStore()
	hash, _ := bcrypt.GenerateFromPassword([]byte("s3cret"), bcrypt.MinCost)
	users.users["a@example.com"] = &db.User{
		ID: uuid.New(), Email: "a@example.com", FirstName: "Ada", PasswordHash: string(hash),
	}
	tokens := newFakeTokenStore()
	s := newTestService(users, tokens, &fakePasscodes{})

	session, err := s.Login(context.Background(), "a@example.com", "s3cret", "fcm-1")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if session.Token == "" {
		t.Error("expected a session token")
	}
	if len(tokens.saved["a@example.com"]) != 1 {
		t.Error("expected push token saved on login")
	}
}

func TestLoginWrongPasswordAndUnknownEmailLookAlike(t *testing.T) {
	users := newFakeUserStore()
	hash, _ := bcrypt.GenerateFromPassword([]byte("right"), bcrypt.MinCost)
	users.users["a@example.com"] = &db.User{ID: uuid.New(), Email: "a@example.com", PasswordHash: string(hash)}
	s := newTestService(users, newFakeTokenStore(), &fakePasscodes{})

	_, errWrongPass := s.Login(context.Background(), "a@example.com", "wrong", "")
	_, errNoUser := s.Login(context.Background(), "nobody@example.com", "right", "")

	requireKind(t, errWrongPass, apperr.KindAuth)
	requireKind(t, errNoUser, apperr.KindAuth)
	if apperr.Message(errWrongPass) != apperr.Message(errNoUser) {
		t.Error("wrong password and unknown email must return the same message")
	}
}

func TestRequestPasswordResetCodeMasksUnknownEmail(t *testing.T) {
	passcodes := &fakePasscodes{}
	s := newTestService(newFakeUserStore(), newFakeTokenStore(), passcodes)

	if err := s.RequestPasswordResetCode(context.Background(), "nobody@example.com"); err != nil {
		t.Fatalf("unknown email must not error: %v", err)
	}
	if len(passcodes.issued) != 0 {
		t.Error("no passcode should be issued for an unknown email")
	}
}

func TestRequestPasswordResetCodeKnownEmailIssues(t *testing.T) {
	users := newFakeUserStore()
	users.users["a@example.com"] = &db.User{Email: "a@example.com"}
	passcodes := &fakePasscodes{}
	s := newTestService(users, newFakeTokenStore(), passcodes)

	if err := s.RequestPasswordResetCode(context.Background(), "a@example.com"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(passcodes.issued) != 1 {
		t.Error("expected passcode issued for known email")
	}
}

func TestConfirmPasswordResetCoalescesFailures(t *testing.T) {
	for _, verifyErr := range []error{otp.ErrNoSuchRequest, otp.ErrExpired, otp.ErrIncorrect} {
		users := newFakeUserStore()
		s := newTestService(users, newFakeTokenStore(), &fakePasscodes{verifyErr: verifyErr})

		err := s.ConfirmPasswordReset(context.Background(), "a@example.com", "000000", "newpass")
		requireKind(t, err, apperr.KindAuth)
		if apperr.Message(err) != "Invalid or expired verification code" {
			t.Errorf("message = %q for %v", apperr.Message(err), verifyErr)
		}
	}
}

func TestConfirmPasswordResetUpdatesAndConsumes(t *testing.T) {
	users := newFakeUserStore()
	oldHash, _ := bcrypt.GenerateFromPassword([]byte("old"), bcrypt.MinCost)
	users.users["a@example.com"] = &db.User{Email: "a@example.com", PasswordHash: string(oldHash)}
	passcodes := &fakePasscodes{}
	s := newTestService(users, newFakeTokenStore(), passcodes)

	if err := s.ConfirmPasswordReset(context.Background(), "a@example.com", "123456", "newpass"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if bcrypt.CompareHashAndPassword([]byte(users.users["a@example.com"].PasswordHash), []byte("newpass")) != nil {
		t.Error("password was not updated")
	}
	if len(passcodes.consumed) != 1 {
		t.Error("expected passcode consumed after reset")
	}
}

func TestJWTRoundTrip(t *testing.T) {
	svc := NewJWTService("test-secret")
	id := uuid.New()

	token, err := svc.Generate(id, "a@example.com")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	claims, err := svc.Validate(token)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if claims.UserID != id || claims.Email != "a@example.com" {
		t.Errorf("claims = %+v", claims)
	}
}

func TestJWTRejectsWrongSecret(t *testing.T) {
	token, err := NewJWTService("secret-a").Generate(uuid.New(), "a@example.com")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if _, err := NewJWTService("secret-b").Validate(token); err == nil {
		t.Error("expected validation failure with a different secret")
	}
}
