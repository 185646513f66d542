package events

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/lexcraftlabs/glossgen/internal/config"
)

func TestNew_EmptyURLIsNop(t *testing.T) {
	p, err := New(config.EventsConfig{}, zap.NewNop())
	require.NoError(t, err)

	_, ok := p.(NopPublisher)
	assert.True(t, ok)
	assert.NoError(t, p.Publish(Event{Type: TypeEnrichFinished, BatchID: "b-1"}))
	p.Close()
}

func TestNew_RequiresSubject(t *testing.T) {
	_, err := New(config.EventsConfig{URL: "nats://localhost:4222"}, zap.NewNop())
	assert.Error(t, err)
}
