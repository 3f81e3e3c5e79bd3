package util

import (
	"fmt"

	"github.com/safar/go-inventory-sales/internal/config"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

var logger *zap.Logger

// InitLogger builds the process logger and installs it as zap's global. Every
// entry carries the service name and environment.
func InitLogger(cfg config.LogConfig, serviceName string) error {
	zapCfg, err := loggerConfig(cfg)
	if err != nil {
		return err
	}

	built, err := zapCfg.Build(zap.Fields(
		zap.String("service", serviceName),
		zap.String("env", cfg.Env),
	))
	if err != nil {
		return fmt.Errorf("build logger: %w", err)
	}

	logger = built
	zap.ReplaceGlobals(logger)
	return nil
}

// loggerConfig uses JSON with ISO8601 timestamps in production and a coloured
// console encoder elsewhere.
func loggerConfig(cfg config.LogConfig) (zap.Config, error) {
	var zapCfg zap.Config
	if cfg.Env == "production" {
		zapCfg = zap.NewProductionConfig()
		zapCfg.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder
	} else {
		zapCfg = zap.NewDevelopmentConfig()
		zapCfg.EncoderConfig.EncodeLevel = zapcore.CapitalColorLevelEncoder
	}

	if cfg.Level != "" {
		level, err := zapcore.ParseLevel(cfg.Level)
		if err != nil {
			return zap.Config{}, fmt.Errorf("invalid LOG_LEVEL %q: %w", cfg.Level, err)
		}
		zapCfg.Level = zap.NewAtomicLevelAt(level)
	}

	return zapCfg, nil
}

// GetLogger returns the process logger, or zap's global (a no-op until
// InitLogger runs) when none was built.
func GetLogger() *zap.Logger {
	if logger == nil {
		return zap.L()
	}
	return logger
}

func SyncLogger() {
	if logger != nil {
		_ = logger.Sync()
	}
}
