package app

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/Nerzal/gocloak/v13"
	"github.com/unabstore/shop/internal/auth"
	"github.com/unabstore/shop/internal/catalog/config"
	"github.com/unabstore/shop/internal/catalog/feed"
	"github.com/unabstore/shop/internal/catalog/store"
	"github.com/unabstore/shop/pkg/bootstrap"
	pauth "github.com/unabstore/shop/pkg/auth"
	pnats "github.com/unabstore/shop/pkg/nats"
)

// closers releases resources in reverse order of acquisition.
type closers []func()

func (c *closers) add(fn func()) {
	*c = append(*c, fn)
}

// Close releases everything acquired so far.
func (c closers) Close() {
	for i := len(c) - 1; i >= 0; i-- {
		c[i]()
	}
}

// Resources are the external dependencies selected by configuration.
type Resources struct {
	Collection store.Collection
	Feed       feed.Feed
	Gateway    auth.Gateway
	closers    closers
}

// Close releases connections held by the resources.
func (r *Resources) Close() {
	r.closers.Close()
}

// NewResources opens the collection, the feed and the auth gateway.
// On error everything opened so far is released.
func NewResources(ctx context.Context, cfg *config.Config, logger *slog.Logger) (res *Resources, err error) {
	res = &Resources{}
	defer func() {
		if err != nil {
			res.Close()
			res = nil
		}
	}()

	if res.Collection, err = newCollection(ctx, cfg, res, logger); err != nil {
		return res, err
	}
	if res.Feed, err = newFeed(ctx, cfg, res, logger); err != nil {
		return res, err
	}
	if res.Gateway, err = newGateway(ctx, cfg, logger); err != nil {
		return res, err
	}
	return res, nil
}

func newCollection(ctx context.Context, cfg *config.Config, res *Resources, logger *slog.Logger) (store.Collection, error) {
	if cfg.Catalog.Store == config.StoreMemory {
		logger.Warn("using in-memory product collection")
		return store.NewInMemoryStore(cfg.Catalog.Collection), nil
	}
	if cfg.Database.Migrate {
		if err := store.Migrate(cfg.Database.URL); err != nil {
			return nil, err
		}
		logger.Info("database migrations applied")
	}
	dbPool, err := bootstrap.NewDbPool(ctx, cfg.Database, "catalog")
	if err != nil {
		return nil, err
	}
	res.closers.add(dbPool.Close)
	logger.Info("Successfully connected to the database!")
	return store.NewPgStore(dbPool, cfg.Catalog.Collection), nil
}

func newFeed(ctx context.Context, cfg *config.Config, res *Resources, logger *slog.Logger) (feed.Feed, error) {
	switch cfg.Catalog.Feed.Driver {
	case feed.DriverNATS:
		nc, err := pnats.NewClient(cfg.NATS, "catalog", logger)
		if err != nil {
			return nil, err
		}
		res.closers.add(nc.Close)
		js, err := pnats.NewJetStreamContext(nc)
		if err != nil {
			return nil, err
		}
		return feed.NewNatsFeed(ctx, js, logger)
	case feed.DriverRabbitMQ:
		f, err := feed.NewRabbitFeed(cfg.RabbitMQ.URL, cfg.RabbitMQ.Exchange, logger)
		if err != nil {
			return nil, err
		}
		res.closers.add(func() { _ = f.Close() })
		return f, nil
	default:
		return feed.NewLocal(), nil
	}
}

func newGateway(ctx context.Context, cfg *config.Config, logger *slog.Logger) (auth.Gateway, error) {
	if cfg.Auth.Driver == auth.DriverLocal {
		logger.Warn("using local auth gateway")
		return auth.NewLocalGateway(
			[]byte(cfg.Auth.Local.Secret),
			cfg.Auth.Local.Issuer,
			auth.WithTokenTTL(cfg.Auth.Local.TokenTTL),
			auth.WithLocalLogger(logger),
		)
	}

	client := gocloak.NewClient(cfg.IdP.URL)
	//fail-fast
	if _, err := client.LoginClient(ctx, cfg.IdP.ClientID, cfg.IdP.Secret, cfg.IdP.Realm); err != nil {
		return nil, fmt.Errorf("login failed: %w", err)
	}
	verifier, err := pauth.NewJWTVerifier(ctx, cfg.IdP)
	if err != nil {
		return nil, fmt.Errorf("failed to create JWT verifier: %w", err)
	}
	return auth.NewKeycloakGateway(client, verifier, cfg.IdP.Realm, cfg.IdP.ClientID, cfg.IdP.Secret, logger), nil
}
