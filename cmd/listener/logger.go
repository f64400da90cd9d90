package main

import (
	"go.uber.org/zap"

	"github.com/smartpetcare/feeder-backend/internal/config"
	"github.com/smartpetcare/feeder-backend/internal/logging"
)

func newLogger(cfg *config.Config) (*zap.Logger, error) {
	return logging.NewLogger(cfg.ServiceName + "-listener")
}
