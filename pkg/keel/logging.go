package keel

import (
	"go.uber.org/fx"
	"go.uber.org/fx/fxevent"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	kerrors "github.com/toyz/keel/internal/errors"
)

// NewLogger builds the application logger from the configured level and format
func NewLogger(cfg *Config) (*zap.Logger, error) {
	level, err := zapcore.ParseLevel(cfg.LogLevel)
	if err != nil {
		return nil, kerrors.WrapConfigurationError("log_level", "parse", err)
	}

	var zcfg zap.Config
	if cfg.Debug || cfg.LogFormat == "console" {
		zcfg = zap.NewDevelopmentConfig()
	} else {
		zcfg = zap.NewProductionConfig()
	}
	if cfg.LogFormat != "" {
		zcfg.Encoding = cfg.LogFormat
	}
	zcfg.Level = zap.NewAtomicLevelAt(level)

	return zcfg.Build()
}

// fxLogger routes container events through zap; they are only useful when debugging
func fxLogger(log *zap.Logger, debug bool) fx.Option {
	if !debug {
		return fx.NopLogger
	}
	return fx.WithLogger(func() fxevent.Logger {
		return &fxevent.ZapLogger{Logger: log.Named("fx")}
	})
}
