// Package nats wraps connection and JetStream setup shared by the publishers and consumers.
package nats

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/nats-io/nats.go"
	"github.com/nats-io/nats.go/jetstream"
	"github.com/unabstore/shop/pkg/config"
)

const reconnectWait = 2 * time.Second

// NewClient connects to NATS. The connection reconnects forever and logs every state change.
// name identifies the service in the server's connection list.
func NewClient(cfg config.NATSConfig, name string, logger *slog.Logger) (*nats.Conn, error) {
	nc, err := nats.Connect(cfg.URL,
		nats.Name(name),
		nats.Timeout(cfg.Timeout),
		nats.MaxReconnects(-1),
		nats.ReconnectWait(reconnectWait),
		nats.DisconnectErrHandler(func(_ *nats.Conn, err error) {
			if err != nil {
				logger.Warn("NATS disconnected", "error", err)
			}
		}),
		nats.ReconnectHandler(func(c *nats.Conn) {
			logger.Info("NATS reconnected", "url", c.ConnectedUrlRedacted())
		}),
		nats.ClosedHandler(func(*nats.Conn) {
			logger.Debug("NATS connection closed")
		}),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to NATS at %s: %w", config.MaskURL(cfg.URL), err)
	}
	return nc, nil
}

// NewJetStreamContext returns a JetStream context over nc. nc is closed when this fails.
func NewJetStreamContext(nc *nats.Conn) (jetstream.JetStream, error) {
	js, err := jetstream.New(nc)
	if err != nil {
		nc.Close()
		return nil, fmt.Errorf("failed to create JetStream context: %w", err)
	}
	return js, nil
}

// duplicateWindow is how long JetStream remembers message IDs of published events.
const duplicateWindow = 2 * time.Minute

// EnsureStream creates the stream when it is missing. An existing stream is left as is.
func EnsureStream(ctx context.Context, js jetstream.JetStream, name string, subjects ...string) (jetstream.Stream, error) {
	stream, err := js.Stream(ctx, name)
	if err == nil {
		return stream, nil
	}
	if !errors.Is(err, jetstream.ErrStreamNotFound) {
		return nil, fmt.Errorf("failed to look up stream %s: %w", name, err)
	}
	stream, err = js.CreateStream(ctx, jetstream.StreamConfig{
		Name:       name,
		Subjects:   subjects,
		Storage:    jetstream.FileStorage,
		Duplicates: duplicateWindow,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create stream %s: %w", name, err)
	}
	return stream, nil
}
