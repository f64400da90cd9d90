// Package push delivers notifications to device tokens through a multicast
// provider, batching around the provider's token cap.
package push

import (
	"context"

	"go.uber.org/zap"
)

// maxBatchSize is the provider-imposed cap on tokens per multicast call
const maxBatchSize = 500

// Provider sends one notification to a batch of tokens in a single call
type Provider interface {
	SendMulticast(ctx context.Context, tokens []string, title, body string) (success, failure int, err error)
}

// Dispatcher fans a notification out over batched provider calls
type Dispatcher struct {
	provider Provider
	logger   *zap.Logger
}

// NewDispatcher creates a new dispatcher
func NewDispatcher(provider Provider, logger *zap.Logger) *Dispatcher {
	return &Dispatcher{
		provider: provider,
		logger:   logger,
	}
}

// Send delivers the notification to every token, in chunks of at most 500.
// A chunk that fails entirely counts as a failure for all its tokens and
// does not abort the remaining chunks. Returns aggregate success and failure
// counts.
func (d *Dispatcher) Send(ctx context.Context, tokens []string, title, body string) (int, int) {
	var success, failure int

	for start := 0; start < len(tokens); start += maxBatchSize {
		end := start + maxBatchSize
		if end > len(tokens) {
			end = len(tokens)
		}
		chunk := tokens[start:end]

		chunkSuccess, chunkFailure, err := d.provider.SendMulticast(ctx, chunk, title, body)
		if err != nil {
			d.logger.Error("multicast batch failed",
				zap.Error(err),
				zap.Int("batch_size", len(chunk)),
			)
			failure += len(chunk)
			continue
		}
		success += chunkSuccess
		failure += chunkFailure
	}

	d.logger.Info("notification dispatched",
		zap.String("title", title),
		zap.Int("tokens", len(tokens)),
		zap.Int("success", success),
		zap.Int("failure", failure),
	)

	return success, failure
}
