// Package main runs the catalog service: REST and gRPC APIs over the product collection.
package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	_ "net/http/pprof"

	"github.com/unabstore/shop/internal/catalog/app"
	"github.com/unabstore/shop/internal/catalog/config"
	"github.com/unabstore/shop/internal/catalog/service"
	"github.com/unabstore/shop/pkg/bootstrap"
	"github.com/unabstore/shop/pkg/config/configloader"
	"github.com/unabstore/shop/pkg/telemetry"
)

const serviceName = "catalog"

func main() {

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx); err != nil {
		log.Printf("application run failed: %v", err)
		os.Exit(1)
	}
	log.Println("application stopped gracefully")
}

// run loads the configuration, opens the resources and serves HTTP, gRPC and pprof until ctx is done.
func run(ctx context.Context) error {
	cfg, cfgErr := configloader.Load[*config.Config](serviceName)
	if cfgErr != nil {
		return fmt.Errorf("failed to load configuration: %w", cfgErr)
	}
	log.Printf("Configuration loaded: %v", cfg)

	logger := bootstrap.NewLogger(cfg.Log.Level)
	slog.SetDefault(logger)

	// create tracer provider
	tracerProvider, err := telemetry.NewTracerProvider(ctx, serviceName, cfg.Telemetry)
	if err != nil {
		logger.Error("error creating tracer provider", slog.Any("error", err))
		return err
	}
	meterProvider, err := telemetry.NewMeterProvider(serviceName)
	if err != nil {
		return fmt.Errorf("failed to create meter provider: %w", err)
	}

	res, err := app.NewResources(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer res.Close()

	products := service.NewService(res.Collection, res.Feed,
		service.WithLogger(logger),
		service.WithRefreshTimeout(cfg.Catalog.RefreshTimeout),
		service.WithMeter(meterProvider.Meter(serviceName)),
	)
	defer products.Close()

	deps := app.SetupDependencies(products, res.Gateway, logger, cfg.HTTPServer.CORS.AllowedOrigins)
	httpServer := app.SetupHttpServer(deps, cfg)
	grpcServer := app.SetupGrpcServer(deps, cfg.GRPC.ReflectionEnabled)

	g := bootstrap.NewGroup(ctx, cfg.Shutdown.Timeout, logger)
	// open observe streams end first so Shutdown does not wait on them
	g.HTTP("HTTP server", httpServer, products.Close)
	g.GRPC(":"+cfg.GRPC.Port, grpcServer)
	if cfg.PProf.Enabled {
		g.HTTP("pprof server", &http.Server{Addr: cfg.PProf.Addr, ReadHeaderTimeout: cfg.HTTPServer.Timeout.ReadHeader})
	}

	if err := bootstrap.MarkReady(cfg.Probes); err != nil {
		return err
	}
	g.Go("liveness probe", func(ctx context.Context) error {
		return bootstrap.RunLiveness(ctx, cfg.Probes, logger)
	})
	g.OnStop("telemetry providers", func(ctx context.Context) error {
		return errors.Join(tracerProvider.Shutdown(ctx), meterProvider.Shutdown(ctx))
	})

	return g.Wait()
}
