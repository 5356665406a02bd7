package nats

import (
	"context"
	"fmt"

	"github.com/nats-io/nats.go/jetstream"
	"github.com/unabstore/shop/pkg/messaging"
)

// NatsPublisher publishes messaging events to JetStream.
type NatsPublisher struct {
	js jetstream.JetStream
}

var _ messaging.Publisher = (*NatsPublisher)(nil)

func NewNatsPublisher(js jetstream.JetStream) *NatsPublisher {
	return &NatsPublisher{js: js}
}

// Publish waits for the stream acknowledgement. Events carrying a message ID
// are stored once even when the publish is retried.
func (p *NatsPublisher) Publish(ctx context.Context, event messaging.Event) error {
	data, err := event.Payload()
	if err != nil {
		return fmt.Errorf("failed to get event payload: %w", err)
	}
	var opts []jetstream.PublishOpt
	if id, ok := event.(messaging.Identified); ok && id.MessageID() != "" {
		opts = append(opts, jetstream.WithMsgID(id.MessageID()))
	}
	if _, err := p.js.Publish(ctx, event.Subject(), data, opts...); err != nil {
		return fmt.Errorf("failed to publish to %s: %w", event.Subject(), err)
	}
	return nil
}
