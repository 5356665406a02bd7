// Package feed carries "collection changed" signals from writers to observers.
package feed

import (
	"context"

	"github.com/unabstore/shop/pkg/messaging/events"
)

// Change is a single collection change signal.
type Change = events.ProductChangedEvent

// Feed publishes and delivers collection changes.
// Handlers passed to Subscribe run on a goroutine owned by the feed.
type Feed interface {
	// Publish sends a change to every subscriber.
	Publish(ctx context.Context, change Change) error

	// Subscribe registers fn for every change published after it returns.
	// The subscription ends when the returned func is called or ctx is done.
	Subscribe(ctx context.Context, fn func(Change)) (func(), error)
}

// Driver names accepted by the configuration.
const (
	DriverLocal    = "local"
	DriverNATS     = "nats"
	DriverRabbitMQ = "rabbitmq"
)
