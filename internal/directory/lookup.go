// Package directory maps device ids to owning accounts and accounts to push
// tokens. Store failures are logged and collapsed to absent results so they
// never propagate into the ingestion loop.
package directory

import (
	"context"

	"go.uber.org/zap"
)

// DeviceStore is the ownership/registry read surface used by lookups
type DeviceStore interface {
	OwnerEmail(ctx context.Context, deviceID string) (string, bool, error)
	DisplayName(ctx context.Context, deviceID string) (string, error)
}

// TokenStore is the push token read surface used by lookups
type TokenStore interface {
	ListByEmail(ctx context.Context, email string) ([]string, error)
}

// Lookup resolves device ownership and notification targets
type Lookup struct {
	devices DeviceStore
	tokens  TokenStore
	logger  *zap.Logger
}

// NewLookup creates a new directory lookup
func NewLookup(devices DeviceStore, tokens TokenStore, logger *zap.Logger) *Lookup {
	return &Lookup{
		devices: devices,
		tokens:  tokens,
		logger:  logger,
	}
}

// ResolveOwner returns the owning email for a device. False means the device
// is unregistered or the store failed; either way the caller stops silently.
func (l *Lookup) ResolveOwner(ctx context.Context, deviceID string) (string, bool) {
	email, ok, err := l.devices.OwnerEmail(ctx, deviceID)
	if err != nil {
		l.logger.Error("failed to resolve device owner",
			zap.Error(err),
			zap.String("device_id", deviceID),
		)
		return "", false
	}
	return email, ok
}

// DisplayName returns the device display name, falling back to the raw
// device id when the name is missing or the lookup fails
func (l *Lookup) DisplayName(ctx context.Context, deviceID string) string {
	name, err := l.devices.DisplayName(ctx, deviceID)
	if err != nil {
		l.logger.Warn("failed to resolve device display name",
			zap.Error(err),
			zap.String("device_id", deviceID),
		)
		return deviceID
	}
	if name == "" {
		return deviceID
	}
	return name
}

// ResolveTokens returns the push tokens registered for an email. Empty means
// no token available, which is not an error.
func (l *Lookup) ResolveTokens(ctx context.Context, email string) []string {
	tokens, err := l.tokens.ListByEmail(ctx, email)
	if err != nil {
		l.logger.Error("failed to resolve push tokens",
			zap.Error(err),
			zap.String("email", email),
		)
		return nil
	}
	return tokens
}
