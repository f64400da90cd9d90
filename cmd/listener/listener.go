package main

import (
	"context"

	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/fx"
	"go.uber.org/zap"

	"github.com/smartpetcare/feeder-backend/internal/config"
	"github.com/smartpetcare/feeder-backend/internal/db"
	"github.com/smartpetcare/feeder-backend/internal/directory"
	"github.com/smartpetcare/feeder-backend/internal/email"
	"github.com/smartpetcare/feeder-backend/internal/ingest"
	"github.com/smartpetcare/feeder-backend/internal/mqtt"
	"github.com/smartpetcare/feeder-backend/internal/notify"
	"github.com/smartpetcare/feeder-backend/internal/push"
	"github.com/smartpetcare/feeder-backend/internal/repository"
	"github.com/smartpetcare/feeder-backend/internal/scheduler"
)

// Repositories bundles the data access layer for provider wiring
type Repositories struct {
	fx.Out

	Tokens      *repository.TokenRepo
	Devices     *repository.DeviceRepo
	Readings    *repository.ReadingsRepo
	Consumption *repository.ConsumptionRepo
}

// ProvideDBPool creates the pgx connection pool
func ProvideDBPool(lc fx.Lifecycle, logger *zap.Logger, cfg *config.Config) (*pgxpool.Pool, error) {
	return db.NewPool(lc, logger, cfg.Database.URL)
}

// ProvideRepositories creates the repositories the listener reads and writes
func ProvideRepositories(pool *pgxpool.Pool) Repositories {
	return Repositories{
		Tokens:      repository.NewTokenRepo(pool),
		Devices:     repository.NewDeviceRepo(pool),
		Readings:    repository.NewReadingsRepo(pool),
		Consumption: repository.NewConsumptionRepo(pool),
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

// ProvideDispatcher creates the FCM push dispatcher
func ProvideDispatcher(cfg *config.Config, logger *zap.Logger) *push.Dispatcher {
	return push.NewDispatcher(push.NewFCMClient(cfg.Push.FCMServerKey), logger)
}

// ProvideEmailSender creates the transactional email client
func ProvideEmailSender(cfg *config.Config) email.Sender {
	return email.NewSendGridClient(cfg.Email.SendGridAPIKey, cfg.Email.SenderAddress)
}

// ProvideDirectory creates the device/account directory lookup
func ProvideDirectory(devices *repository.DeviceRepo, tokens *repository.TokenRepo, logger *zap.Logger) *directory.Lookup {
	return directory.NewLookup(devices, tokens, logger)
}

// ProvideProcessor creates the telemetry processor
func ProvideProcessor(
	readings *repository.ReadingsRepo,
	consumption *repository.ConsumptionRepo,
	dir *directory.Lookup,
	publisher *notify.Publisher,
	logger *zap.Logger,
) *ingest.Processor {
	return ingest.NewProcessor(readings, consumption, dir, publisher, logger)
}

// ProvideSubscriber creates the telemetry topic subscriber
func ProvideSubscriber(cfg *config.Config, processor *ingest.Processor, logger *zap.Logger) *ingest.Subscriber {
	return ingest.NewSubscriber(cfg.MQTT.TopicRoot, processor, logger)
}

// ProvideDailyReminder creates the daily reminder scheduler
func ProvideDailyReminder(
	cfg *config.Config,
	tokens *repository.TokenRepo,
	publisher *notify.Publisher,
	logger *zap.Logger,
) (*scheduler.Daily, error) {
	return scheduler.NewDaily(cfg.Reminder.At, tokens, publisher, logger)
}

// startMQTT connects to the broker; the subscriber re-registers its
// subscriptions on every (re)connect
func startMQTT(lc fx.Lifecycle, cfg *config.Config, sub *ingest.Subscriber, logger *zap.Logger) (*mqtt.Client, error) {
	return mqtt.NewClient(lc, cfg.MQTT, logger, func(c *mqtt.Client) {
		if err := sub.Register(c); err != nil {
			logger.Error("failed to register telemetry subscriptions", zap.Error(err))
		}
	})
}

// startWorker runs the notification queue consumer
func startWorker(
	lc fx.Lifecycle,
	conn *notify.Connection,
	cfg *config.Config,
	dispatcher *push.Dispatcher,
	sender email.Sender,
	logger *zap.Logger,
) (*notify.Worker, error) {
	ctx, cancel := context.WithCancel(context.Background())

	worker, err := notify.NewWorker(notify.WorkerConfig{
		Connection:    conn,
		Queue:         cfg.RabbitMQ.NotifyQueue,
		DLQQueue:      cfg.RabbitMQ.DLQQueue,
		Exchange:      cfg.RabbitMQ.NotifyExchange,
		RoutingKey:    cfg.RabbitMQ.NotifyRoutingKey,
		PrefetchCount: cfg.RabbitMQ.PrefetchCount,
		Dispatcher:    dispatcher,
		Sender:        sender,
		Logger:        logger,
	})
	if err != nil {
		cancel()
		return nil, err
	}

	lc.Append(fx.Hook{
		OnStart: func(startCtx context.Context) error {
			logger.Info("starting notification worker",
				zap.String("queue", cfg.RabbitMQ.NotifyQueue),
				zap.Int("prefetch", cfg.RabbitMQ.PrefetchCount))
			return worker.Start(ctx)
		},
		OnStop: func(stopCtx context.Context) error {
			cancel()
			if err := worker.Close(); err != nil {
				logger.Error("failed to close worker", zap.Error(err))
				return err
			}
			logger.Info("notification worker stopped gracefully")
			return nil
		},
	})

	return worker, nil
}

// startReminder runs the daily reminder loop
func startReminder(lc fx.Lifecycle, daily *scheduler.Daily, logger *zap.Logger) {
	ctx, cancel := context.WithCancel(context.Background())

	lc.Append(fx.Hook{
		OnStart: func(context.Context) error {
			daily.Start(ctx)
			return nil
		},
		OnStop: func(context.Context) error {
			cancel()
			logger.Info("daily reminder scheduler stopped")
			return nil
		},
	})
}
