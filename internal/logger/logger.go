// Package logger builds the process-wide zap logger.
package logger

import (
	"fmt"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

const (
	EnvDev  = "dev"
	EnvProd = "prod"
)

// New returns a development logger (console, debug level) for "dev" and a
// JSON production logger at info level for "prod". Any other value is
// parsed as a zap level name on top of the production config.
func New(level string) (*zap.Logger, error) {
	switch level {
	case EnvDev:
		return zap.NewDevelopment()
	case EnvProd, "":
		return zap.NewProduction()
	}

	lvl, err := zapcore.ParseLevel(level)
	if err != nil {
		return nil, fmt.Errorf("log level: %w", err)
	}
	cfg := zap.NewProductionConfig()
	cfg.Level = zap.NewAtomicLevelAt(lvl)
	return cfg.Build()
}
