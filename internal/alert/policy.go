// Package alert decides which notifications a telemetry reading triggers.
// The policy is a pure function with no hysteresis or cooldown: every
// qualifying reading fires again, even if the previous one already did.
package alert

import "fmt"

// Kind identifies one alert type
type Kind string

const (
	WaterLow Kind = "water_low"
	StockLow Kind = "stock_low"
)

const lowValue = "low"

// Reading carries the fields the policy looks at
type Reading struct {
	WaterLevel *string
	MainStock  *string
}

// Evaluate returns the alert kinds fired by a reading. The checks are
// independent; both may fire from a single reading.
func Evaluate(r Reading) []Kind {
	var kinds []Kind
	if r.WaterLevel != nil && *r.WaterLevel == lowValue {
		kinds = append(kinds, WaterLow)
	}
	if r.MainStock != nil && *r.MainStock == lowValue {
		kinds = append(kinds, StockLow)
	}
	return kinds
}

// Title returns the notification title for an alert kind
func (k Kind) Title() string {
	switch k {
	case WaterLow:
		return "Water Level Low!"
	case StockLow:
		return "Food Stock Low!"
	default:
		return ""
	}
}

// Body returns the notification body, interpolating the device display name
func (k Kind) Body(displayName string) string {
	switch k {
	case WaterLow:
		return fmt.Sprintf("The water in your pet feeder %s is running low. Please refill it.", displayName)
	case StockLow:
		return fmt.Sprintf("The main food stock for %s is low.", displayName)
	default:
		return ""
	}
}
