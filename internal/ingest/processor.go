// Package ingest consumes device telemetry from the MQTT broker: it persists
// readings and drives the alert fan-out. Every per-message failure is
// contained here; nothing a single message does may stop the subscriber.
package ingest

import (
	"context"
	"encoding/json"
	"time"

	"go.uber.org/zap"

	"github.com/smartpetcare/feeder-backend/internal/alert"
	"github.com/smartpetcare/feeder-backend/internal/db"
	"github.com/smartpetcare/feeder-backend/internal/logging"
)

const handleTimeout = 30 * time.Second

// ReadingStore persists device status
type ReadingStore interface {
	UpsertCurrent(ctx context.Context, reading *db.DeviceReading) error
	AppendHistory(ctx context.Context, reading *db.DeviceReading) error
}

// ConsumptionStore persists consumption events
type ConsumptionStore interface {
	Append(ctx context.Context, event *db.ConsumptionEvent) error
}

// Directory resolves owners, display names and push tokens
type Directory interface {
	ResolveOwner(ctx context.Context, deviceID string) (string, bool)
	DisplayName(ctx context.Context, deviceID string) string
	ResolveTokens(ctx context.Context, email string) []string
}

// Notifier queues push notifications
type Notifier interface {
	EnqueuePush(ctx context.Context, tokens []string, title, body string) error
}

// Processor handles inbound telemetry messages
type Processor struct {
	readings    ReadingStore
	consumption ConsumptionStore
	directory   Directory
	notifier    Notifier
	logger      *zap.Logger
}

// NewProcessor creates a new telemetry processor
func NewProcessor(
	readings ReadingStore,
	consumption ConsumptionStore,
	directory Directory,
	notifier Notifier,
	logger *zap.Logger,
) *Processor {
	return &Processor{
		readings:    readings,
		consumption: consumption,
		directory:   directory,
		notifier:    notifier,
		logger:      logger,
	}
}

// Handle processes one broker message. It never panics or surfaces an error;
// malformed or failing messages are logged and dropped.
func (p *Processor) Handle(topic string, payload []byte) {
	ctx, cancel := context.WithTimeout(context.Background(), handleTimeout)
	defer cancel()

	deviceID, endpoint, ok := parseTopic(topic)
	if !ok {
		p.logger.Warn("ignoring message with unexpected topic",
			zap.String("topic", topic),
		)
		return
	}

	logger := logging.WithDevice(p.logger, deviceID)

	switch endpoint {
	case endpointStatus:
		p.handleStatus(ctx, logger, deviceID, payload)
	case endpointConsumption:
		p.handleConsumption(ctx, logger, deviceID, payload)
	default:
		// Unknown endpoints are ignored without error
	}
}

func (p *Processor) handleStatus(ctx context.Context, logger *zap.Logger, deviceID string, payload []byte) {
	var status statusPayload
	if err := json.Unmarshal(payload, &status); err != nil {
		logger.Error("dropping malformed status payload", zap.Error(err))
		return
	}

	reading := &db.DeviceReading{
		DeviceID:     deviceID,
		FoodWeighted: status.FoodWeighted,
		WaterLevel:   status.WaterLevel,
		MainStock:    status.MainStock,
		RecordedAt:   time.Now(),
	}

	if err := p.readings.UpsertCurrent(ctx, reading); err != nil {
		logger.Error("failed to persist device status", zap.Error(err))
		return
	}
	if err := p.readings.AppendHistory(ctx, reading); err != nil {
		// Current status is already stored; analytics only lose one point
		logger.Error("failed to append status history", zap.Error(err))
	}

	email, owned := p.directory.ResolveOwner(ctx, deviceID)
	if !owned {
		// Telemetry from unregistered devices is persisted but never alerts
		return
	}

	kinds := alert.Evaluate(alert.Reading{
		WaterLevel: status.WaterLevel,
		MainStock:  status.MainStock,
	})
	if len(kinds) == 0 {
		return
	}

	displayName := p.directory.DisplayName(ctx, deviceID)
	tokens := p.directory.ResolveTokens(ctx, email)
	if len(tokens) == 0 {
		logger.Info("alerts fired but owner has no push tokens",
			zap.String("email", email),
		)
		return
	}

	for _, kind := range kinds {
		if err := p.notifier.EnqueuePush(ctx, tokens, kind.Title(), kind.Body(displayName)); err != nil {
			logger.Error("failed to queue alert notification",
				zap.Error(err),
				zap.String("alert", string(kind)),
			)
		}
	}

	logger.Info("status processed",
		zap.Int("alerts", len(kinds)),
	)
}

func (p *Processor) handleConsumption(ctx context.Context, logger *zap.Logger, deviceID string, payload []byte) {
	var consumption consumptionPayload
	if err := json.Unmarshal(payload, &consumption); err != nil {
		logger.Error("dropping malformed consumption payload", zap.Error(err))
		return
	}
	if consumption.Grams == nil {
		logger.Error("dropping consumption payload without grams")
		return
	}

	event := &db.ConsumptionEvent{
		DeviceID:   deviceID,
		Grams:      *consumption.Grams,
		RecordedAt: time.Now(), // server-assigned, not device-supplied
	}
	if err := p.consumption.Append(ctx, event); err != nil {
		logger.Error("failed to persist consumption event", zap.Error(err))
	}
}
