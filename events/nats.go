package events

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/nats-io/nats.go"
	"go.uber.org/zap"
)

// NATSForwarder publishes each event as JSON on subject prefix + topic.
type NATSForwarder struct {
	nc     *nats.Conn
	prefix string
	logger *zap.Logger
}

func NewNATSForwarder(nc *nats.Conn, prefix string, logger *zap.Logger) *NATSForwarder {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &NATSForwarder{nc: nc, prefix: prefix, logger: logger}
}

func (f *NATSForwarder) Subject(topic string) string {
	return f.prefix + topic
}

func (f *NATSForwarder) Forward(_ context.Context, topic string, payload any) error {
	data, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("marshal %s event: %w", topic, err)
	}

	subject := f.Subject(topic)
	if err := f.nc.Publish(subject, data); err != nil {
		return fmt.Errorf("publish %s: %w", subject, err)
	}

	f.logger.Debug("event forwarded", zap.String("subject", subject), zap.Int("bytes", len(data)))
	return nil
}

// Close drains the connection so buffered events are flushed.
func (f *NATSForwarder) Close() {
	if f.nc == nil {
		return
	}
	if err := f.nc.Drain(); err != nil {
		f.logger.Warn("nats drain failed", zap.Error(err))
	}
}
