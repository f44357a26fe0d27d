// Package logging provides zap logger helpers.
package logging

import (
	"fmt"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Config selects the encoder and minimum level.
type Config struct {
	// Development switches to the coloured console encoder.
	Development bool `mapstructure:"development"`
	// Level is a zap level name such as "debug" or "warn". Empty keeps the
	// encoder's default.
	Level string `mapstructure:"level"`
}

// New builds a zap.Logger configured for development or production.
func New(c Config) (*zap.Logger, error) {
	var cfg zap.Config
	if c.Development {
		cfg = zap.NewDevelopmentConfig()
		cfg.EncoderConfig.EncodeLevel = zapcore.CapitalColorLevelEncoder
	} else {
		cfg = zap.NewProductionConfig()
		cfg.DisableStacktrace = false
	}
	cfg.EncoderConfig.TimeKey = "ts"

	if c.Level != "" {
		level, err := zap.ParseAtomicLevel(c.Level)
		if err != nil {
			return nil, fmt.Errorf("parse log level %q: %w", c.Level, err)
		}
		cfg.Level = level
	}

	logger, err := cfg.Build()
	if err != nil {
		if c.Development {
			return nil, fmt.Errorf("build dev logger: %w", err)
		}
		return nil, fmt.Errorf("build prod logger: %w", err)
	}
	return logger, nil
}
