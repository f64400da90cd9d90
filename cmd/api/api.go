package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/fx"
	"go.uber.org/zap"

	"github.com/smartpetcare/feeder-backend/internal/auth"
	"github.com/smartpetcare/feeder-backend/internal/config"
	"github.com/smartpetcare/feeder-backend/internal/db"
	"github.com/smartpetcare/feeder-backend/internal/httpapi"
	"github.com/smartpetcare/feeder-backend/internal/mqtt"
	"github.com/smartpetcare/feeder-backend/internal/notify"
	"github.com/smartpetcare/feeder-backend/internal/otp"
	"github.com/smartpetcare/feeder-backend/internal/repository"
)

// Repositories bundles the data access layer for provider wiring
type Repositories struct {
	fx.Out

	Users       *repository.UserRepo
	Tokens      *repository.TokenRepo
	Otp         *repository.OtpRepo
	Devices     *repository.DeviceRepo
	Readings    *repository.ReadingsRepo
	Consumption *repository.ConsumptionRepo
	Schedules   *repository.ScheduleRepo
}

// ProvideDBPool creates the pgx connection pool
func ProvideDBPool(lc fx.Lifecycle, logger *zap.Logger, cfg *config.Config) (*pgxpool.Pool, error) {
	return db.NewPool(lc, logger, cfg.Database.URL)
}

// ProvideRepositories creates all repositories over the shared pool
func ProvideRepositories(pool *pgxpool.Pool) Repositories {
	return Repositories{
		Users:       repository.NewUserRepo(pool),
		Tokens:      repository.NewTokenRepo(pool),
		Otp:         repository.NewOtpRepo(pool),
		Devices:     repository.NewDeviceRepo(pool),
		Readings:    repository.NewReadingsRepo(pool),
		Consumption: repository.NewConsumptionRepo(pool),
		Schedules:   repository.NewScheduleRepo(pool),
	}
}

// ProvideMQConnection creates the RabbitMQ connection
func ProvideMQConnection(lc fx.Lifecycle, logger *zap.Logger, cfg *config.Config) (*notify.Connection, error) {
	return notify.NewConnection(lc, logger, cfg.RabbitMQ.URL)
}

// ProvideNotifyPublisher creates the notification job publisher
func ProvideNotifyPublisher(conn *notify.Connection, cfg *config.Config, logger *zap.Logger) (*notify.Publisher, error) {
	return notify.NewPublisher(conn, cfg.RabbitMQ.NotifyExchange, cfg.RabbitMQ.NotifyRoutingKey, logger)
}

// ProvideOTPService creates the passcode service, delivering codes through
// the notification queue
func ProvideOTPService(publisher *notify.Publisher, otpRepo *repository.OtpRepo, cfg *config.Config, logger *zap.Logger) *otp.Service {
	mailer := notify.NewPasscodeMailer(publisher)
	return otp.NewService(otpRepo, mailer, cfg.OTP.TTLMinutes, logger)
}

// ProvideJWTService creates the access token service
func ProvideJWTService(cfg *config.Config) *auth.JWTService {
	return auth.NewJWTService(cfg.Auth.JWTSecret)
}

// ProvideAuthService creates the account-flow service
func ProvideAuthService(
	users *repository.UserRepo,
	tokens *repository.TokenRepo,
	passcodes *otp.Service,
	jwt *auth.JWTService,
	logger *zap.Logger,
) *auth.Service {
	return auth.NewService(users, tokens, passcodes, jwt, logger)
}

// ProvideMQTTClient connects to the broker for schedule update publishes;
// the API subscribes to nothing
func ProvideMQTTClient(lc fx.Lifecycle, cfg *config.Config, logger *zap.Logger) (*mqtt.Client, error) {
	mqttCfg := cfg.MQTT
	mqttCfg.ClientID = mqttCfg.ClientID + "-api"
	return mqtt.NewClient(lc, mqttCfg, logger, nil)
}

// ProvideRouter builds the HTTP route tree
func ProvideRouter(
	authSvc *auth.Service,
	jwt *auth.JWTService,
	devices *repository.DeviceRepo,
	readings *repository.ReadingsRepo,
	consumption *repository.ConsumptionRepo,
	schedules *repository.ScheduleRepo,
	client *mqtt.Client,
	pool *pgxpool.Pool,
	cfg *config.Config,
	logger *zap.Logger,
) *httpapi.Router {
	return httpapi.NewRouter(
		authSvc, jwt, devices, readings, consumption, schedules,
		client, pool, cfg.MQTT.TopicRoot, logger,
	)
}

func startServer(lc fx.Lifecycle, router *httpapi.Router, cfg *config.Config, logger *zap.Logger) {
	server := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.HTTPPort),
		Handler:           router.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	lc.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			logger.Info("starting http server", zap.Int("port", cfg.HTTPPort))
			go func() {
				if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
					logger.Error("http server failed", zap.Error(err))
				}
			}()
			return nil
		},
		OnStop: func(ctx context.Context) error {
			logger.Info("stopping http server")
			return server.Shutdown(ctx)
		},
	})
}
