package db

import (
	"time"

	"github.com/google/uuid"
)

// DeviceReading is the current sensor state of one feeder. One logical row
// per device_id in device_status; every reading is also appended to
// device_status_history for analytics.
type DeviceReading struct {
	DeviceID     string
	FoodWeighted *float64
	WaterLevel   *string
	MainStock    *string
	RecordedAt   time.Time
}

// ConsumptionEvent is one append-only food consumption record
type ConsumptionEvent struct {
	DeviceID   string
	Grams      float64
	RecordedAt time.Time
}

// Device is a factory-registered feeder unit
type Device struct {
	DeviceID    string
	DisplayName string
}

// Ownership links a device to the owning account; at most one link per device
type Ownership struct {
	DeviceID string
	Email    string
}

// User is an account profile with its auth credential
type User struct {
	ID           uuid.UUID
	Email        string
	FirstName    string
	LastName     string
	PasswordHash string
	CreatedAt    time.Time
}

// PushToken is one FCM registration token for a user; zero or more per email
type PushToken struct {
	Email    string
	FCMToken string
}

// OtpRecord is the single live passcode for an email address
type OtpRecord struct {
	Email     string
	CodeHash  string
	ExpiresAt time.Time
}

// FeedSchedule is one scheduled feeding for a device
type FeedSchedule struct {
	DeviceID    string
	Email       string
	FeedTime    string // "HH:MM"
	AmountGrams float64
}

// FoodSample is one historical food weight point for the report endpoint
type FoodSample struct {
	RecordedAt   time.Time
	FoodWeighted float64
}
