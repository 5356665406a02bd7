// Package subscriber consumes product change events from JetStream.
package subscriber

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/nats-io/nats.go"
	"github.com/nats-io/nats.go/jetstream"
	"github.com/unabstore/shop/internal/notification/mail"
	"github.com/unabstore/shop/pkg/config"
	"github.com/unabstore/shop/pkg/messaging/events"
	"golang.org/x/sync/errgroup"
)

// ackableMsg is the part of jetstream.Msg the handler needs.
type ackableMsg interface {
	Data() []byte
	Subject() string
	Ack() error
	Nak() error
	Term() error
}

// Start creates (or updates) the durable consumer and runs cfg.Workers workers until ctx is done.
func Start(ctx context.Context, js jetstream.JetStream, subscriberCfg config.SubscriberConfig, notifier mail.Notifier, logger *slog.Logger) error {
	cfg := jetstream.ConsumerConfig{
		FilterSubject: subscriberCfg.Subject,
		Durable:       subscriberCfg.Consumer,
		AckPolicy:     jetstream.AckExplicitPolicy,
	}
	consumer, err := js.CreateOrUpdateConsumer(ctx, subscriberCfg.Stream, cfg)
	if err != nil {
		return err
	}
	g, gCtx := errgroup.WithContext(ctx)
	for range subscriberCfg.Workers {
		g.Go(func() error {
			return runWorker(gCtx, consumer, subscriberCfg, notifier, logger)
		})
	}
	return g.Wait()
}

// runWorker fetches batches from the consumer and handles every message.
func runWorker(ctx context.Context, consumer jetstream.Consumer, cfg config.SubscriberConfig, notifier mail.Notifier, logger *slog.Logger) error {
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
			batch, err := consumer.Fetch(cfg.Batch, jetstream.FetchMaxWait(cfg.Timeout))
			if err != nil {
				if errors.Is(err, nats.ErrTimeout) {
					continue
				}
				logger.Error("failed to fetch messages", "error", err)
				time.Sleep(cfg.Interval)
				continue
			}
			for msg := range batch.Messages() {
				handleMessage(ctx, msg, notifier, logger)
			}
		}
	}
}

// handleMessage decodes one event and notifies. Malformed messages are
// terminated, failed notifications NAKed for redelivery, handled ones ACKed.
func handleMessage(ctx context.Context, msg ackableMsg, notifier mail.Notifier, logger *slog.Logger) {
	if msg == nil {
		logger.Error("received nil message")
		return
	}
	event, err := events.DecodeProductChanged(msg.Data())
	if err != nil {
		logger.Error("failed to unmarshal message", "error", err, "subject", msg.Subject())
		if err := msg.Term(); err != nil {
			logger.Error("failed to terminate message", "error", err)
		}
		return
	}

	logger.Info("received product event",
		slog.String("subject", msg.Subject()),
		slog.String("kind", string(event.Kind)),
		slog.String("product_id", event.ProductID),
		slog.String("at", event.At.Format(time.RFC3339)))

	if err := notifier.Notify(ctx, event); err != nil {
		logger.Error("failed to notify", "error", err, "product_id", event.ProductID)
		if err := msg.Nak(); err != nil {
			logger.Error("failed to nack message", "error", err)
		}
		return
	}

	if err := msg.Ack(); err != nil {
		logger.Error("failed to ack message", "error", err)
	}
}
