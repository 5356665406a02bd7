package feed

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"

	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/unabstore/shop/pkg/messaging/events"
)

// RabbitFeed is a Feed over a fanout exchange. Each subscriber reads its own exclusive queue.
type RabbitFeed struct {
	conn     *amqp.Connection
	exchange string
	logger   *slog.Logger

	pubMu sync.Mutex
	pubCh *amqp.Channel
}

// NewRabbitFeed connects to RabbitMQ and declares the durable fanout exchange.
func NewRabbitFeed(url, exchange string, logger *slog.Logger) (*RabbitFeed, error) {
	conn, err := amqp.Dial(url)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to RabbitMQ: %w", err)
	}
	ch, err := conn.Channel()
	if err != nil {
		_ = conn.Close()
		return nil, fmt.Errorf("failed to open channel: %w", err)
	}
	if err := ch.ExchangeDeclare(exchange, amqp.ExchangeFanout, true, false, false, false, nil); err != nil {
		_ = conn.Close()
		return nil, fmt.Errorf("failed to declare exchange %s: %w", exchange, err)
	}
	f := &RabbitFeed{
		conn:     conn,
		exchange: exchange,
		logger:   logger.With("component", "feed", "driver", DriverRabbitMQ),
		pubCh:    ch,
	}
	go watchConnection(conn.NotifyClose(make(chan *amqp.Error, 1)), f.logger)
	return f, nil
}

// watchConnection logs an abnormal close of the connection. Subscribers stop
// receiving changes once it happens; a graceful Close logs nothing.
func watchConnection(closed <-chan *amqp.Error, logger *slog.Logger) {
	if err, ok := <-closed; ok && err != nil {
		logger.Error("RabbitMQ connection lost, observers stop refreshing", "code", err.Code, "reason", err.Reason)
	}
}

func (f *RabbitFeed) Publish(ctx context.Context, change Change) error {
	body, err := change.Payload()
	if err != nil {
		return fmt.Errorf("failed to encode change: %w", err)
	}
	// amqp channels are not safe for concurrent publishing.
	f.pubMu.Lock()
	defer f.pubMu.Unlock()
	err = f.pubCh.PublishWithContext(ctx,
		f.exchange,       // exchange
		change.Subject(), // routing key, ignored by fanout
		false,            // mandatory
		false,            // immediate
		amqp.Publishing{
			ContentType: "application/json",
			Timestamp:   change.At,
			Body:        body,
		},
	)
	if err != nil {
		return fmt.Errorf("failed to publish change: %w", err)
	}
	return nil
}

func (f *RabbitFeed) Subscribe(ctx context.Context, fn func(Change)) (func(), error) {
	ch, err := f.conn.Channel()
	if err != nil {
		return nil, fmt.Errorf("failed to open channel: %w", err)
	}
	q, err := ch.QueueDeclare("", false, true, true, false, nil)
	if err != nil {
		_ = ch.Close()
		return nil, fmt.Errorf("failed to declare queue: %w", err)
	}
	if err := ch.QueueBind(q.Name, "", f.exchange, false, nil); err != nil {
		_ = ch.Close()
		return nil, fmt.Errorf("failed to bind queue: %w", err)
	}
	deliveries, err := ch.Consume(q.Name, "", true, true, false, false, nil)
	if err != nil {
		_ = ch.Close()
		return nil, fmt.Errorf("failed to consume queue: %w", err)
	}

	var stopped atomic.Bool
	go f.consume(deliveries, fn, &stopped)

	var once sync.Once
	unsubscribe := func() {
		once.Do(func() {
			stopped.Store(true)
			_ = ch.Close()
		})
	}
	context.AfterFunc(ctx, unsubscribe)
	return unsubscribe, nil
}

// consume hands every delivery to fn until the channel ends.
func (f *RabbitFeed) consume(deliveries <-chan amqp.Delivery, fn func(Change), stopped *atomic.Bool) {
	for d := range deliveries {
		change, err := events.DecodeProductChanged(d.Body)
		if err != nil {
			f.logger.Warn("dropping malformed change", "error", err)
			continue
		}
		fn(change)
	}
	if !stopped.Load() {
		f.logger.Warn("change subscription ended unexpectedly", "exchange", f.exchange)
	}
}

// Close closes the connection and every subscriber channel with it.
func (f *RabbitFeed) Close() error {
	return f.conn.Close()
}
