package httpapi

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/smartpetcare/feeder-backend/internal/apperr"
	"github.com/smartpetcare/feeder-backend/internal/auth"
	"github.com/smartpetcare/feeder-backend/internal/db"
)

type fakeAuth struct {
	requestSignupErr error
	loginSession     *auth.Session
	loginErr         error
	resetRequests    []string
}

func (f *fakeAuth) RequestSignupCode(_ context.Context, email string) error {
	return f.requestSignupErr
}

func (f *fakeAuth) CompleteSignup(context.Context, auth.SignupParams) (*auth.Session, error) {
	return &auth.Session{Token: "t", Email: "a@example.com"}, nil
}

func (f *fakeAuth) Login(context.Context, string, string, string) (*auth.Session, error) {
	return f.loginSession, f.loginErr
}

func (f *fakeAuth) RequestPasswordResetCode(_ context.Context, email string) error {
	f.resetRequests = append(f.resetRequests, email)
	return nil
}

func (f *fakeAuth) VerifyPasswordResetCode(context.Context, string, string) error { return nil }

func (f *fakeAuth) ConfirmPasswordReset(context.Context, string, string, string) error { return nil }

type fakeDevices struct {
	registry map[string]string   // device_id -> display name
	owners   map[string]string   // device_id -> email
	owned    map[string][]string // email -> device ids
}

func newFakeDevices() *fakeDevices {
	return &fakeDevices{
		registry: map[string]string{},
		owners:   map[string]string{},
		owned:    map[string][]string{},
	}
}

func (f *fakeDevices) Exists(_ context.Context, deviceID string) (bool, error) {
	_, ok := f.registry[deviceID]
	return ok, nil
}

func (f *fakeDevices) DisplayName(_ context.Context, deviceID string) (string, error) {
	return f.registry[deviceID], nil
}

func (f *fakeDevices) IsOwned(_ context.Context, deviceID string) (bool, error) {
	_, ok := f.owners[deviceID]
	return ok, nil
}

func (f *fakeDevices) IsOwnedBy(_ context.Context, deviceID, email string) (bool, error) {
	return f.owners[deviceID] == email, nil
}

func (f *fakeDevices) LinkOwner(_ context.Context, deviceID, email string) error {
	f.owners[deviceID] = email
	f.owned[email] = append(f.owned[email], deviceID)
	return nil
}

func (f *fakeDevices) ListOwnedDevices(_ context.Context, email string) ([]string, error) {
	return f.owned[email], nil
}

type fakeReadings struct {
	current map[string]*db.DeviceReading
	history []db.FoodSample
}

func (f *fakeReadings) GetCurrent(_ context.Context, deviceID string) (*db.DeviceReading, error) {
	return f.current[deviceID], nil
}

func (f *fakeReadings) ListFoodHistory(context.Context, string, time.Time) ([]db.FoodSample, error) {
	return f.history, nil
}

type fakeConsumption struct {
	events []db.ConsumptionEvent
}

func (f *fakeConsumption) ListSince(context.Context, string, time.Time) ([]db.ConsumptionEvent, error) {
	return f.events, nil
}

type fakeSchedules struct {
	entries map[string][]db.FeedSchedule
}

func newFakeSchedules() *fakeSchedules {
	return &fakeSchedules{entries: map[string][]db.FeedSchedule{}}
}

func (f *fakeSchedules) ListByDevice(_ context.Context, deviceID string) ([]db.FeedSchedule, error) {
	return f.entries[deviceID], nil
}

func (f *fakeSchedules) Replace(_ context.Context, deviceID, email string, entries []db.FeedSchedule) error {
	f.entries[deviceID] = entries
	return nil
}

type publishedMessage struct {
	topic    string
	retained bool
	payload  []byte
}

type fakePublisher struct {
	messages []publishedMessage
}

func (f *fakePublisher) Publish(topic string, qos byte, retained bool, payload []byte) error {
	f.messages = append(f.messages, publishedMessage{topic: topic, retained: retained, payload: payload})
	return nil
}

type fakePinger struct {
	err error
}

func (f *fakePinger) Ping(context.Context) error { return f.err }

type testEnv struct {
	handler   http.Handler
	auth      *fakeAuth
	devices   *fakeDevices
	readings  *fakeReadings
	schedules *fakeSchedules
	publisher *fakePublisher
	pinger    *fakePinger
	jwt       *auth.JWTService
}

func newTestEnv() *testEnv {
	env := &testEnv{
		auth:      &fakeAuth{},
		devices:   newFakeDevices(),
		readings:  &fakeReadings{current: map[string]*db.DeviceReading{}},
		schedules: newFakeSchedules(),
		publisher: &fakePublisher{},
		pinger:    &fakePinger{},
		jwt:       auth.NewJWTService("test-secret"),
	}
	router := NewRouter(
		env.auth, env.jwt, env.devices, env.readings, &fakeConsumption{},
		env.schedules, env.publisher, env.pinger, "petfeeder", zap.NewNop(),
	)
	env.handler = router.Handler()
	return env
}

func (env *testEnv) request(t *testing.T, method, path, body, token string) *httptest.ResponseRecorder {
	t.Helper()
	var reader *strings.Reader
	if body == "" {
		reader = strings.NewReader("{}")
	} else {
		reader = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, path, reader)
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	env.handler.ServeHTTP(rec, req)
	return rec
}

func (env *testEnv) token(t *testing.T, email string) string {
	t.Helper()
	token, err := env.jwt.Generate(uuid.New(), email)
	if err != nil {
		t.Fatalf("failed to generate token: %v", err)
	}
	return token
}

func TestHealthEndpoint(t *testing.T) {
	env := newTestEnv()

	rec := env.request(t, http.MethodGet, "/status", "", "")
	if rec.Code != http.StatusOK {
		t.Errorf("status = %d, want 200", rec.Code)
	}

	env.pinger.err = context.DeadlineExceeded
	rec = env.request(t, http.MethodGet, "/status", "", "")
	if rec.Code != http.StatusServiceUnavailable {
		t.Errorf("degraded status = %d, want 503", rec.Code)
	}
}

func TestSignupRequestOTPValidation(t *testing.T) {
	env := newTestEnv()

	rec := env.request(t, http.MethodPost, "/auth/signup/request-otp", `{"email":""}`, "")
	if rec.Code != http.StatusBadRequest {
		t.Errorf("status = %d, want 400", rec.Code)
	}
}

func TestSignupRequestOTPConflictMapped(t *testing.T) {
	env := newTestEnv()
	env.auth.requestSignupErr = apperr.Conflict("Email already registered")

	rec := env.request(t, http.MethodPost, "/auth/signup/request-otp", `{"email":"a@example.com"}`, "")
	if rec.Code != http.StatusConflict {
		t.Errorf("status = %d, want 409", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), "Email already registered") {
		t.Errorf("body = %s", rec.Body.String())
	}
}

func TestLoginReturnsSession(t *testing.T) {
	env := newTestEnv()
	env.auth.loginSession = &auth.Session{Token: "jwt-token", Email: "a@example.com"}

	rec := env.request(t, http.MethodPost, "/auth/login", `{"email":"a@example.com","password":"p"}`, "")
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), "jwt-token") {
		t.Errorf("body = %s", rec.Body.String())
	}
}

func TestLoginAuthErrorMapped(t *testing.T) {
	env := newTestEnv()
	env.auth.loginErr = apperr.Auth("Invalid email or password")

	rec := env.request(t, http.MethodPost, "/auth/login", `{"email":"a@example.com","password":"p"}`, "")
	if rec.Code != http.StatusUnauthorized {
		t.Errorf("status = %d, want 401", rec.Code)
	}
}

func TestResetRequestResponseNeverVaries(t *testing.T) {
	env := newTestEnv()

	recA := env.request(t, http.MethodPost, "/auth/password-reset/request-otp", `{"email":"known@example.com"}`, "")
	recB := env.request(t, http.MethodPost, "/auth/password-reset/request-otp", `{"email":"unknown@example.com"}`, "")
	if recA.Code != http.StatusOK || recB.Code != http.StatusOK {
		t.Fatalf("statuses = %d, %d", recA.Code, recB.Code)
	}
	if recA.Body.String() != recB.Body.String() {
		t.Error("reset-request responses must be identical for any email")
	}
}

func TestProtectedRoutesRequireToken(t *testing.T) {
	env := newTestEnv()

	rec := env.request(t, http.MethodGet, "/api/devices", "", "")
	if rec.Code != http.StatusUnauthorized {
		t.Errorf("no token: status = %d, want 401", rec.Code)
	}

	rec = env.request(t, http.MethodGet, "/api/devices", "", "not-a-jwt")
	if rec.Code != http.StatusUnauthorized {
		t.Errorf("bad token: status = %d, want 401", rec.Code)
	}

	rec = env.request(t, http.MethodGet, "/api/devices", "", env.token(t, "a@example.com"))
	if rec.Code != http.StatusOK {
		t.Errorf("valid token: status = %d, want 200", rec.Code)
	}
}

func TestRegisterDeviceFlow(t *testing.T) {
	env := newTestEnv()
	env.devices.registry["ABC123"] = "Kitchen Feeder"
	token := env.token(t, "a@example.com")

	rec := env.request(t, http.MethodPost, "/api/devices/register", `{"device_id":"NOPE"}`, token)
	if rec.Code != http.StatusNotFound {
		t.Errorf("unknown device: status = %d, want 404", rec.Code)
	}

	rec = env.request(t, http.MethodPost, "/api/devices/register", `{"device_id":"ABC123"}`, token)
	if rec.Code != http.StatusCreated {
		t.Fatalf("register: status = %d, want 201", rec.Code)
	}
	if env.devices.owners["ABC123"] != "a@example.com" {
		t.Error("ownership link not created")
	}

	rec = env.request(t, http.MethodPost, "/api/devices/register", `{"device_id":"ABC123"}`, env.token(t, "b@example.com"))
	if rec.Code != http.StatusConflict {
		t.Errorf("already owned: status = %d, want 409", rec.Code)
	}
}

func TestFullReportHidesUnownedDevice(t *testing.T) {
	env := newTestEnv()
	env.devices.registry["ABC123"] = "Kitchen Feeder"
	env.devices.owners["ABC123"] = "owner@example.com"

	rec := env.request(t, http.MethodGet, "/api/devices/ABC123/full-report", "", env.token(t, "other@example.com"))
	if rec.Code != http.StatusNotFound {
		t.Errorf("status = %d, want 404", rec.Code)
	}
}

func TestFullReportForOwner(t *testing.T) {
	env := newTestEnv()
	env.devices.registry["ABC123"] = "Kitchen Feeder"
	env.devices.owners["ABC123"] = "a@example.com"
	water := "ok"
	env.readings.current["ABC123"] = &db.DeviceReading{
		DeviceID: "ABC123", WaterLevel: &water, RecordedAt: time.Now(),
	}

	rec := env.request(t, http.MethodGet, "/api/devices/ABC123/full-report", "", env.token(t, "a@example.com"))
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, body = %s", rec.Code, rec.Body.String())
	}
	if !strings.Contains(rec.Body.String(), "Kitchen Feeder") {
		t.Errorf("body = %s", rec.Body.String())
	}
}

func TestSetScheduleValidatesAndPublishes(t *testing.T) {
	env := newTestEnv()
	env.devices.registry["ABC123"] = "Kitchen Feeder"
	env.devices.owners["ABC123"] = "a@example.com"
	token := env.token(t, "a@example.com")

	rec := env.request(t, http.MethodPost, "/api/devices/ABC123/schedule",
		`{"schedule":[{"feed_time":"25:99","amount_grams":50}]}`, token)
	if rec.Code != http.StatusBadRequest {
		t.Errorf("invalid time: status = %d, want 400", rec.Code)
	}
	if len(env.publisher.messages) != 0 {
		t.Error("nothing should be published on validation failure")
	}

	rec = env.request(t, http.MethodPost, "/api/devices/ABC123/schedule",
		`{"schedule":[{"feed_time":"08:30","amount_grams":50},{"feed_time":"18:00","amount_grams":40}]}`, token)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, body = %s", rec.Code, rec.Body.String())
	}

	if len(env.schedules.entries["ABC123"]) != 2 {
		t.Errorf("stored %d entries, want 2", len(env.schedules.entries["ABC123"]))
	}
	if len(env.publisher.messages) != 1 {
		t.Fatalf("published %d messages, want 1", len(env.publisher.messages))
	}
	msg := env.publisher.messages[0]
	if msg.topic != "petfeeder/devices/ABC123/schedule_update" {
		t.Errorf("topic = %q", msg.topic)
	}
	if !msg.retained {
		t.Error("schedule update must be retained")
	}
	if !strings.Contains(string(msg.payload), "08:30") {
		t.Errorf("payload = %s", msg.payload)
	}
}

func TestGetScheduleReturnsStoredEntries(t *testing.T) {
	env := newTestEnv()
	env.devices.owners["D1"] = "a@example.com"
	env.schedules.entries["D1"] = []db.FeedSchedule{
		{DeviceID: "D1", Email: "a@example.com", FeedTime: "07:00", AmountGrams: 30},
	}

	rec := env.request(t, http.MethodGet, "/api/devices/D1/schedule", "", env.token(t, "a@example.com"))
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), "07:00") {
		t.Errorf("body = %s", rec.Body.String())
	}
}
