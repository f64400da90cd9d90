package ingest

import (
	"fmt"

	"go.uber.org/zap"

	"github.com/smartpetcare/feeder-backend/internal/mqtt"
)

// Subscriber binds the processor to the broker's telemetry topics.
type Subscriber struct {
	topicRoot string
	processor *Processor
	logger    *zap.Logger
}

// NewSubscriber creates a subscriber rooted at the configured topic prefix
func NewSubscriber(topicRoot string, processor *Processor, logger *zap.Logger) *Subscriber {
	return &Subscriber{
		topicRoot: topicRoot,
		processor: processor,
		logger:    logger,
	}
}

// Topics returns the wildcard telemetry subscriptions
func (s *Subscriber) Topics() []string {
	return []string{
		fmt.Sprintf("%s/devices/+/%s", s.topicRoot, endpointStatus),
		fmt.Sprintf("%s/devices/+/%s", s.topicRoot, endpointConsumption),
	}
}

// Register subscribes to all telemetry topics on the given client. It is
// called from the client's on-connect hook so subscriptions survive
// broker reconnects.
func (s *Subscriber) Register(client *mqtt.Client) error {
	for _, topic := range s.Topics() {
		if err := client.Subscribe(topic, 0, s.processor.Handle); err != nil {
			return fmt.Errorf("failed to subscribe to %s: %w", topic, err)
		}
		s.logger.Info("subscribed to telemetry topic", zap.String("topic", topic))
	}
	return nil
}
