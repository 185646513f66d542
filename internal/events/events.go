// Package events publishes batch lifecycle events over NATS so
// downstream consumers (dashboards, content pipelines) can react to
// finished runs without polling.
package events

import (
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/nats-io/nats.go"
	"go.uber.org/zap"

	"github.com/lexcraftlabs/glossgen/internal/config"
)

// Event types.
const (
	TypeEnrichFinished = "enrich.finished"
	TypeGateFinished   = "gate.finished"
)

// Event is one batch lifecycle notification.
type Event struct {
	Type       string    `json:"type"`
	BatchID    string    `json:"batch_id"`
	Language   string    `json:"language"`
	Level      string    `json:"level,omitempty"`
	Succeeded  int       `json:"succeeded,omitempty"`
	Failed     int       `json:"failed,omitempty"`
	Flags      int       `json:"flags,omitempty"`
	OccurredAt time.Time `json:"occurred_at"`
}

// Publisher sends events. The zero-config publisher is a no-op so
// callers never branch on whether events are wired.
type Publisher interface {
	Publish(ev Event) error
	Close()
}

// NopPublisher drops every event.
type NopPublisher struct{}

func (NopPublisher) Publish(Event) error { return nil }
func (NopPublisher) Close()              {}

// NATSPublisher publishes events to a NATS subject.
type NATSPublisher struct {
	conn    *nats.Conn
	subject string
	logger  *zap.Logger
}

// New connects to NATS and returns a publisher. An empty URL disables
// publishing and returns a NopPublisher.
func New(cfg config.EventsConfig, logger *zap.Logger) (Publisher, error) {
	if cfg.URL == "" {
		return NopPublisher{}, nil
	}
	if cfg.Subject == "" {
		return nil, errors.New("events subject is required")
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	conn, err := nats.Connect(cfg.URL,
		nats.RetryOnFailedConnect(true),
		nats.MaxReconnects(5),
		nats.ReconnectWait(1*time.Second),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to NATS at %s: %w", cfg.URL, err)
	}
	logger.Info("connected to NATS", zap.String("url", cfg.URL), zap.String("subject", cfg.Subject))

	return &NATSPublisher{conn: conn, subject: cfg.Subject, logger: logger}, nil
}

// Publish implements Publisher. The subject is suffixed with the event
// type so consumers can subscribe per type.
func (p *NATSPublisher) Publish(ev Event) error {
	if ev.OccurredAt.IsZero() {
		ev.OccurredAt = time.Now()
	}
	data, err := json.Marshal(ev)
	if err != nil {
		return fmt.Errorf("failed to encode event: %w", err)
	}
	if err := p.conn.Publish(p.subject+"."+ev.Type, data); err != nil {
		return fmt.Errorf("failed to publish event: %w", err)
	}
	return nil
}

// Close drains the connection.
func (p *NATSPublisher) Close() {
	if err := p.conn.Drain(); err != nil {
		p.logger.Warn("failed to drain NATS connection", zap.Error(err))
	}
}

var _ Publisher = (*NATSPublisher)(nil)
var _ Publisher = NopPublisher{}
