package logging

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zapcore"

	"github.com/lexcraftlabs/glossgen/internal/config"
)

func TestNew_JSONFormat(t *testing.T) {
	logger, err := New(config.LoggingConfig{Level: "info", Format: "json"}, nil)
	require.NoError(t, err)
	require.NotNil(t, logger)
	logger.Info("hello")
}

func TestNew_ConsoleFormat(t *testing.T) {
	logger, err := New(config.LoggingConfig{Level: "debug", Format: "console"}, nil)
	require.NoError(t, err)
	assert.True(t, logger.Core().Enabled(zapcore.DebugLevel))
}

func TestNew_InvalidLevel(t *testing.T) {
	_, err := New(config.LoggingConfig{Level: "loud", Format: "json"}, nil)
	assert.Error(t, err)
}

func TestNew_OTELWithoutProviderFallsBack(t *testing.T) {
	logger, err := New(config.LoggingConfig{Level: "info", Format: "json", OTEL: true}, nil)
	require.NoError(t, err)
	require.NotNil(t, logger)
}

func TestSync_IgnoresStdoutErrors(t *testing.T) {
	logger, err := New(config.LoggingConfig{Level: "info", Format: "json"}, nil)
	require.NoError(t, err)
	assert.NoError(t, Sync(logger))
}
