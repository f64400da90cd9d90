package config

import (
	"fmt"
	"os"
	"strconv"
)

// Config holds all application configuration
type Config struct {
	ServiceName string
	HTTPPort    int
	Database    DatabaseConfig
	MQTT        MQTTConfig
	RabbitMQ    RabbitMQConfig
	Auth        AuthConfig
	OTP         OTPConfig
	Push        PushConfig
	Email       EmailConfig
	Reminder    ReminderConfig
}

// DatabaseConfig holds database connection settings
type DatabaseConfig struct {
	URL string
}

// MQTTConfig holds MQTT broker connection and topic settings
type MQTTConfig struct {
	BrokerURL string
	ClientID  string
	Username  string
	Password  string
	TopicRoot string
}

// RabbitMQConfig holds the notification queue settings
type RabbitMQConfig struct {
	URL              string
	NotifyExchange   string
	NotifyQueue      string
	NotifyRoutingKey string
	DLQQueue         string
	PrefetchCount    int
}

// AuthConfig holds token signing settings
type AuthConfig struct {
	JWTSecret string
}

// OTPConfig holds one-time passcode settings
type OTPConfig struct {
	TTLMinutes int
}

// PushConfig holds push provider settings
type PushConfig struct {
	FCMServerKey string
}

// EmailConfig holds transactional email settings
type EmailConfig struct {
	SendGridAPIKey string
	SenderAddress  string
}

// ReminderConfig holds the daily reminder schedule
type ReminderConfig struct {
	At string // local time of day, "HH:MM"
}

// Load loads configuration from environment variables
func Load() (*Config, error) {
	cfg := &Config{
		ServiceName: getEnv("SERVICE_NAME", "feeder-backend"),
		HTTPPort:    getEnvAsInt("HTTP_PORT", 8080),
		Database: DatabaseConfig{
			URL: getEnv("DATABASE_URL", ""),
		},
		MQTT: MQTTConfig{
			BrokerURL: getEnv("MQTT_BROKER_URL", ""),
			ClientID:  getEnv("MQTT_CLIENT_ID", "feeder-backend"),
			Username:  getEnv("MQTT_USERNAME", ""),
			Password:  getEnv("MQTT_PASSWORD", ""),
			TopicRoot: getEnv("MQTT_TOPIC_ROOT", "petfeeder"),
		},
		RabbitMQ: RabbitMQConfig{
			URL:              getEnv("RABBITMQ_URL", ""),
			NotifyExchange:   getEnv("RABBITMQ_NOTIFY_EXCHANGE", "feeder.notify.exchange"),
			NotifyQueue:      getEnv("RABBITMQ_NOTIFY_QUEUE", "feeder.notify.queue"),
			NotifyRoutingKey: getEnv("RABBITMQ_NOTIFY_ROUTING_KEY", "notify.job"),
			DLQQueue:         getEnv("RABBITMQ_NOTIFY_DLQ", "feeder.notify.dlq"),
			PrefetchCount:    getEnvAsInt("RABBITMQ_PREFETCH", 10),
		},
		Auth: AuthConfig{
			JWTSecret: getEnv("JWT_SECRET", ""),
		},
		OTP: OTPConfig{
			TTLMinutes: getEnvAsInt("OTP_TTL_MINUTES", 10),
		},
		Push: PushConfig{
			FCMServerKey: getEnv("FCM_SERVER_KEY", ""),
		},
		Email: EmailConfig{
			SendGridAPIKey: getEnv("SENDGRID_API_KEY", ""),
			SenderAddress:  getEnv("VERIFIED_SENDER_EMAIL", ""),
		},
		Reminder: ReminderConfig{
			At: getEnv("DAILY_REMINDER_AT", "09:00"),
		},
	}

	// Validate required fields
	if cfg.Database.URL == "" {
		return nil, fmt.Errorf("DATABASE_URL is required but not set in environment variables")
	}
	if cfg.MQTT.BrokerURL == "" {
		return nil, fmt.Errorf("MQTT_BROKER_URL is required but not set in environment variables")
	}
	if cfg.RabbitMQ.URL == "" {
		return nil, fmt.Errorf("RABBITMQ_URL is required but not set in environment variables")
	}
	if cfg.Auth.JWTSecret == "" {
		return nil, fmt.Errorf("JWT_SECRET is required but not set in environment variables")
	}

	return cfg, nil
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvAsInt(key string, defaultValue int) int {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue
	}
	value, err := strconv.Atoi(valueStr)
	if err != nil {
		return defaultValue
	}
	return value
}
