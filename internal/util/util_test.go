package util

import (
	"context"
	"testing"

	"github.com/safar/go-inventory-sales/internal/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zapcore"
)

func TestLoggerConfig(t *testing.T) {
	prod, err := loggerConfig(config.LogConfig{Env: "production"})
	require.NoError(t, err)
	assert.Equal(t, "json", prod.Encoding)
	assert.Equal(t, zapcore.InfoLevel, prod.Level.Level())

	dev, err := loggerConfig(config.LogConfig{Env: "development"})
	require.NoError(t, err)
	assert.Equal(t, "console", dev.Encoding)
	assert.Equal(t, zapcore.DebugLevel, dev.Level.Level())

	quiet, err := loggerConfig(config.LogConfig{Env: "production", Level: "warn"})
	require.NoError(t, err)
	assert.Equal(t, zapcore.WarnLevel, quiet.Level.Level())

	_, err = loggerConfig(config.LogConfig{Level: "loud"})
	assert.Error(t, err)
}

func TestGetLoggerBeforeInit(t *testing.T) {
	assert.NotNil(t, GetLogger())
}

func TestSamplerFor(t *testing.T) {
	assert.Equal(t, "AlwaysOnSampler", samplerFor(1).Description())
	assert.Contains(t, samplerFor(0.25).Description(), "TraceIDRatioBased{0.25}")
}

func TestInitTracerRequiresEndpoint(t *testing.T) {
	_, err := InitTracer(config.TracingConfig{ServiceName: "inventory-sales"}, "test")
	assert.Error(t, err)
}

func TestStartSpanWithoutProvider(t *testing.T) {
	ctx, span := StartSpan(context.Background(), "SaleService.Test")
	defer span.End()
	assert.NotNil(t, ctx)
}
