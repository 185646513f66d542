package telemetry

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/lexcraftlabs/glossgen/internal/config"
)

func TestNew_DisabledIsNoop(t *testing.T) {
	tel, err := New(context.Background(), config.TelemetryConfig{Enabled: false}, zap.NewNop())
	require.NoError(t, err)
	assert.False(t, tel.Degraded())
	assert.Nil(t, tel.LoggerProvider())
	assert.NoError(t, tel.Shutdown(context.Background()))
}

func TestShutdown_NilReceiver(t *testing.T) {
	var tel *Telemetry
	assert.NoError(t, tel.Shutdown(context.Background()))
	assert.False(t, tel.Degraded())
	assert.Nil(t, tel.LoggerProvider())
}

func TestNew_EnabledWiresLogProvider(t *testing.T) {
	// gRPC exporters connect lazily, so construction succeeds without a
	// running collector.
	cfg := config.TelemetryConfig{
		Enabled:     true,
		ServiceName: "glossgen-test",
		Endpoint:    "localhost:4317",
		Protocol:    "grpc",
		Insecure:    true,
		SampleRate:  1.0,
	}
	tel, err := New(context.Background(), cfg, zap.NewNop())
	require.NoError(t, err)
	assert.False(t, tel.Degraded())
	assert.NotNil(t, tel.LoggerProvider(), "log bridge provider is wired when telemetry is enabled")
}

func TestStripScheme(t *testing.T) {
	assert.Equal(t, "collector:4318", stripScheme("https://collector:4318"))
	assert.Equal(t, "collector:4318", stripScheme("http://collector:4318"))
	assert.Equal(t, "collector:4318", stripScheme("collector:4318"))
}
