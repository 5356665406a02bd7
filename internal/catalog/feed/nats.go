package feed

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/nats-io/nats.go/jetstream"
	"github.com/unabstore/shop/pkg/messaging"
	"github.com/unabstore/shop/pkg/messaging/events"
	pnats "github.com/unabstore/shop/pkg/nats"
)

// NatsFeed is a Feed over the JetStream catalog stream.
type NatsFeed struct {
	js        jetstream.JetStream
	publisher messaging.Publisher
	logger    *slog.Logger
}

// NewNatsFeed makes sure the catalog stream exists and returns a feed over it.
func NewNatsFeed(ctx context.Context, js jetstream.JetStream, logger *slog.Logger) (*NatsFeed, error) {
	if _, err := pnats.EnsureStream(ctx, js, messaging.CatalogStream, messaging.ProductsAllSubject); err != nil {
		return nil, err
	}
	return &NatsFeed{
		js:        js,
		publisher: pnats.NewNatsPublisher(js),
		logger:    logger.With("component", "feed", "driver", DriverNATS),
	}, nil
}

func (f *NatsFeed) Publish(ctx context.Context, change Change) error {
	if err := f.publisher.Publish(ctx, change); err != nil {
		return fmt.Errorf("failed to publish change: %w", err)
	}
	return nil
}

// Subscribe reads new messages only, through an ordered consumer.
func (f *NatsFeed) Subscribe(ctx context.Context, fn func(Change)) (func(), error) {
	consumer, err := f.js.OrderedConsumer(ctx, messaging.CatalogStream, jetstream.OrderedConsumerConfig{
		FilterSubjects: []string{messaging.ProductsAllSubject},
		DeliverPolicy:  jetstream.DeliverNewPolicy,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create ordered consumer: %w", err)
	}
	cc, err := consumer.Consume(func(msg jetstream.Msg) {
		change, err := events.DecodeProductChanged(msg.Data())
		if err != nil {
			f.logger.Warn("dropping malformed change", "subject", msg.Subject(), "error", err)
			return
		}
		fn(change)
	})
	if err != nil {
		return nil, fmt.Errorf("failed to consume changes: %w", err)
	}
	stop := context.AfterFunc(ctx, cc.Stop)
	return func() {
		stop()
		cc.Stop()
	}, nil
}
