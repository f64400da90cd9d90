// Package httpapi exposes the HTTP surface: auth and OTP flows, device
// registration and reports, feed schedules, and the health endpoint.
package httpapi

import (
	"context"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"

	"github.com/smartpetcare/feeder-backend/internal/auth"
	"github.com/smartpetcare/feeder-backend/internal/db"
)

// Authenticator is the account-flow service behind the /auth routes
type Authenticator interface {
	RequestSignupCode(ctx context.Context, email string) error
	CompleteSignup(ctx context.Context, params auth.SignupParams) (*auth.Session, error)
	Login(ctx context.Context, email, password, fcmToken string) (*auth.Session, error)
	RequestPasswordResetCode(ctx context.Context, email string) error
	VerifyPasswordResetCode(ctx context.Context, email, code string) error
	ConfirmPasswordReset(ctx context.Context, email, code, newPassword string) error
}

// DeviceStore provides device registry and ownership queries
type DeviceStore interface {
	Exists(ctx context.Context, deviceID string) (bool, error)
	DisplayName(ctx context.Context, deviceID string) (string, error)
	IsOwned(ctx context.Context, deviceID string) (bool, error)
	IsOwnedBy(ctx context.Context, deviceID, email string) (bool, error)
	LinkOwner(ctx context.Context, deviceID, email string) error
	ListOwnedDevices(ctx context.Context, email string) ([]string, error)
}

// ReadingStore provides current status and food history queries
type ReadingStore interface {
	GetCurrent(ctx context.Context, deviceID string) (*db.DeviceReading, error)
	ListFoodHistory(ctx context.Context, deviceID string, since time.Time) ([]db.FoodSample, error)
}

// ConsumptionStore provides consumption event queries
type ConsumptionStore interface {
	ListSince(ctx context.Context, deviceID string, since time.Time) ([]db.ConsumptionEvent, error)
}

// ScheduleStore provides feed schedule persistence
type ScheduleStore interface {
	ListByDevice(ctx context.Context, deviceID string) ([]db.FeedSchedule, error)
	Replace(ctx context.Context, deviceID, email string, entries []db.FeedSchedule) error
}

// SchedulePublisher pushes schedule updates down to the device
type SchedulePublisher interface {
	Publish(topic string, qos byte, retained bool, payload []byte) error
}

// Pinger reports data store liveness for the health endpoint
type Pinger interface {
	Ping(ctx context.Context) error
}

// Router wires all HTTP handlers together
type Router struct {
	auth        Authenticator
	jwt         *auth.JWTService
	devices     DeviceStore
	readings    ReadingStore
	consumption ConsumptionStore
	schedules   ScheduleStore
	publisher   SchedulePublisher
	pinger      Pinger
	topicRoot   string
	logger      *zap.Logger
}

// NewRouter creates the router with all its dependencies
func NewRouter(
	authSvc Authenticator,
	jwt *auth.JWTService,
	devices DeviceStore,
	readings ReadingStore,
	consumption ConsumptionStore,
	schedules ScheduleStore,
	publisher SchedulePublisher,
	pinger Pinger,
	topicRoot string,
	logger *zap.Logger,
) *Router {
	return &Router{
		auth:        authSvc,
		jwt:         jwt,
		devices:     devices,
		readings:    readings,
		consumption: consumption,
		schedules:   schedules,
		publisher:   publisher,
		pinger:      pinger,
		topicRoot:   topicRoot,
		logger:      logger,
	}
}

// Handler builds the chi route tree
func (rt *Router) Handler() http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)
	r.Use(rt.requestLogger)

	r.Get("/status", rt.handleHealth)

	r.Route("/auth", func(r chi.Router) {
		r.Post("/signup/request-otp", rt.handleSignupRequestOTP)
		r.Post("/signup/verify", rt.handleSignupVerify)
		r.Post("/login", rt.handleLogin)
		r.Post("/password-reset/request-otp", rt.handleResetRequestOTP)
		r.Post("/password-reset/verify-otp", rt.handleResetVerifyOTP)
		r.Post("/password-reset/confirm", rt.handleResetConfirm)
	})

	r.Route("/api", func(r chi.Router) {
		r.Use(rt.authMiddleware)
		r.Get("/devices", rt.handleListDevices)
		r.Post("/devices/register", rt.handleRegisterDevice)
		r.Get("/devices/all-statuses", rt.handleAllStatuses)
		r.Get("/devices/{device_id}/full-report", rt.handleFullReport)
		r.Get("/devices/{device_id}/schedule", rt.handleGetSchedule)
		r.Post("/devices/{device_id}/schedule", rt.handleSetSchedule)
	})

	return r
}

// requestLogger logs one line per request with method, path, status and latency
func (rt *Router) requestLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		next.ServeHTTP(ww, r)
		rt.logger.Info("http request",
			zap.String("method", r.Method),
			zap.String("path", r.URL.Path),
			zap.Int("status", ww.Status()),
			zap.Duration("duration", time.Since(start)),
		)
	})
}

func (rt *Router) handleHealth(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	if err := rt.pinger.Ping(ctx); err != nil {
		rt.logger.Error("health check failed", zap.Error(err))
		writeJSON(w, http.StatusServiceUnavailable, map[string]string{"status": "degraded"})
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}
