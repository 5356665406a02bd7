// Package main runs the notification worker: it consumes product change events and e-mails them.
package main

import (
	"context"
	"fmt"
	"log"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	_ "net/http/pprof"

	"github.com/unabstore/shop/internal/notification/config"
	"github.com/unabstore/shop/internal/notification/mail"
	"github.com/unabstore/shop/internal/notification/subscriber"
	"github.com/unabstore/shop/pkg/bootstrap"
	"github.com/unabstore/shop/pkg/config/configloader"
	"github.com/unabstore/shop/pkg/messaging"
	"github.com/unabstore/shop/pkg/nats"
)

const serviceName = "notification"

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx); err != nil {
		log.Printf("application run failed: %v", err)
		os.Exit(1)
	}
	log.Println("application stopped gracefully")
}

// run starts the JetStream subscriber and, when enabled, the pprof server.
func run(ctx context.Context) error {
	cfg, cfgErr := configloader.Load[*config.Config](serviceName)
	if cfgErr != nil {
		return fmt.Errorf("failed to load configuration: %w", cfgErr)
	}
	log.Printf("Configuration loaded: %v", cfg)

	logger := bootstrap.NewLogger(cfg.Log.Level)
	slog.SetDefault(logger)

	natsConn, err := nats.NewClient(cfg.Nats, serviceName, logger)
	if err != nil {
		return fmt.Errorf("failed to create NATS connection: %w", err)
	}
	defer natsConn.Close()
	js, err := nats.NewJetStreamContext(natsConn)
	if err != nil {
		return fmt.Errorf("failed to get JetStream context: %w", err)
	}
	// the catalog service may not have started yet
	if _, err := nats.EnsureStream(ctx, js, cfg.Subscriber.Stream, messaging.ProductsAllSubject); err != nil {
		return err
	}

	var notifier mail.Notifier = mail.LogNotifier{Logger: logger}
	if cfg.Mail.Enabled {
		notifier = mail.NewMailNotifier(cfg.Mail)
	}

	g := bootstrap.NewGroup(ctx, cfg.Shutdown.Timeout, logger)
	g.Go("subscriber", func(ctx context.Context) error {
		logger.Info("NATS subscriber started", "stream", cfg.Subscriber.Stream, "consumer", cfg.Subscriber.Consumer)
		return subscriber.Start(ctx, js, cfg.Subscriber, notifier, logger)
	})
	if cfg.PProf.Enabled {
		g.HTTP("pprof server", &http.Server{Addr: cfg.PProf.Addr, ReadHeaderTimeout: 5 * time.Second})
	}

	if err := bootstrap.MarkReady(cfg.Probes); err != nil {
		return err
	}
	g.Go("liveness probe", func(ctx context.Context) error {
		return bootstrap.RunLiveness(ctx, cfg.Probes, logger)
	})

	return g.Wait()
}
