// Package mqtt wraps the paho client used for device telemetry and
// schedule push-down.
package mqtt

import (
	"context"
	"fmt"

	paho "github.com/eclipse/paho.mqtt.golang"
	"go.uber.org/fx"
	"go.uber.org/zap"

	"github.com/smartpetcare/feeder-backend/internal/config"
)

// MessageHandler processes one inbound message. It must contain its own
// failures; a handler error never tears down the connection.
type MessageHandler func(topic string, payload []byte)

// Client is the shared MQTT client
type Client struct {
	client paho.Client
	logger *zap.Logger
}

// NewClient creates and connects the MQTT client. onConnect runs on every
// connection establishment, including reconnects, and is where subscribers
// re-issue their subscriptions.
func NewClient(lc fx.Lifecycle, cfg config.MQTTConfig, logger *zap.Logger, onConnect func(*Client)) (*Client, error) {
	c := &Client{logger: logger}

	opts := paho.NewClientOptions()
	opts.AddBroker(cfg.BrokerURL)
	opts.SetClientID(cfg.ClientID)
	if cfg.Username != "" {
		opts.SetUsername(cfg.Username)
	}
	if cfg.Password != "" {
		opts.SetPassword(cfg.Password)
	}
	opts.SetAutoReconnect(true)
	opts.SetCleanSession(true)
	if onConnect != nil {
		opts.SetOnConnectHandler(func(paho.Client) {
			logger.Info("mqtt connection established")
			onConnect(c)
		})
	}
	opts.SetConnectionLostHandler(func(_ paho.Client, err error) {
		logger.Warn("mqtt connection lost, reconnecting", zap.Error(err))
	})

	c.client = paho.NewClient(opts)

	if token := c.client.Connect(); token.Wait() && token.Error() != nil {
		return nil, fmt.Errorf("failed to connect to MQTT broker: %w", token.Error())
	}

	lc.Append(fx.Hook{
		OnStop: func(ctx context.Context) error {
			c.client.Disconnect(250)
			logger.Info("mqtt client disconnected")
			return nil
		},
	})

	return c, nil
}

// Subscribe registers a handler for a topic filter
func (c *Client) Subscribe(topic string, qos byte, handler MessageHandler) error {
	token := c.client.Subscribe(topic, qos, func(_ paho.Client, msg paho.Message) {
		handler(msg.Topic(), msg.Payload())
	})
	if token.Wait() && token.Error() != nil {
		return fmt.Errorf("failed to subscribe to topic %s: %w", topic, token.Error())
	}
	return nil
}

// Publish sends a message to a topic
func (c *Client) Publish(topic string, qos byte, retained bool, payload []byte) error {
	token := c.client.Publish(topic, qos, retained, payload)
	token.Wait()
	if token.Error() != nil {
		return fmt.Errorf("failed to publish to topic %s: %w", topic, token.Error())
	}
	return nil
}

// IsConnected reports the connection state
func (c *Client) IsConnected() bool {
	return c.client.IsConnected()
}
