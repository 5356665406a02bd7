// Package config holds the configuration of the catalog service.
package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/unabstore/shop/internal/auth"
	"github.com/unabstore/shop/internal/catalog/feed"
	"github.com/unabstore/shop/internal/catalog/store"
	"github.com/unabstore/shop/pkg/config"
	"github.com/unabstore/shop/pkg/config/configloader"
)

var _ configloader.Validator = (*Config)(nil)

// Store drivers.
const (
	StorePostgres = "postgres"
	StoreMemory   = "memory"
)

const defaultRefreshTimeout = 5 * time.Second

type Config struct {
	HTTPServer config.HTTPConfig       `koanf:"server"`
	GRPC       config.GrpcServerConfig `koanf:"grpc"`
	Database   config.DatabaseConfig   `koanf:"database"`
	Log        config.LogConfig        `koanf:"log"`
	PProf      config.PProfConfig      `koanf:"pprof"`
	Shutdown   config.ShutdownConfig   `koanf:"shutdown"`
	Telemetry  config.TelemetryConfig  `koanf:"telemetry"`
	Probes     config.ProbesConfig     `koanf:"probes"`
	NATS       config.NATSConfig       `koanf:"nats"`
	RabbitMQ   config.RabbitMQConfig   `koanf:"rabbitmq"`
	IdP        config.IdP              `koanf:"idp"`
	Catalog    CatalogConfig           `koanf:"catalog"`
	Auth       AuthConfig              `koanf:"auth"`
}

type CatalogConfig struct {
	Collection     string        `koanf:"collection"`
	Store          string        `koanf:"store"`
	RefreshTimeout time.Duration `koanf:"refreshtimeout"`
	Feed           struct {
		Driver string `koanf:"driver"`
	} `koanf:"feed"`
}

type AuthConfig struct {
	Driver string `koanf:"driver"`
	Local  struct {
		Secret   string        `koanf:"secret"`
		Issuer   string        `koanf:"issuer"`
		TokenTTL time.Duration `koanf:"tokenttl"`
	} `koanf:"local"`
}

func (c *Config) String() string {
	var b strings.Builder
	b.WriteString(c.HTTPServer.String())
	b.WriteString(c.GRPC.String())

	b.WriteString("\n--- Catalog ---\n")
	fmt.Fprintf(&b, "  catalog.collection: %s\n", c.Catalog.Collection)
	fmt.Fprintf(&b, "  catalog.store: %s\n", c.Catalog.Store)
	fmt.Fprintf(&b, "  catalog.refreshtimeout: %s\n", c.Catalog.RefreshTimeout)
	fmt.Fprintf(&b, "  catalog.feed.driver: %s\n", c.Catalog.Feed.Driver)
	fmt.Fprintf(&b, "  auth.driver: %s\n", c.Auth.Driver)

	if c.Catalog.Store == StorePostgres {
		b.WriteString(c.Database.String())
	}
	switch c.Catalog.Feed.Driver {
	case feed.DriverNATS:
		b.WriteString(c.NATS.String())
	case feed.DriverRabbitMQ:
		b.WriteString(c.RabbitMQ.String())
	}
	if c.Auth.Driver == auth.DriverKeycloak {
		b.WriteString(c.IdP.String())
	}

	b.WriteString(c.Log.String())
	b.WriteString(c.PProf.String())
	b.WriteString(c.Telemetry.String())
	b.WriteString(c.Probes.String())
	b.WriteString(c.Shutdown.String())
	return b.String()
}

// Validate checks the configuration and fills defaults for the catalog section.
func (c *Config) Validate() error {
	if err := configloader.ValidateAll(&c.HTTPServer, &c.GRPC, &c.Log, &c.PProf, &c.Shutdown, &c.Telemetry, &c.Probes); err != nil {
		return err
	}
	if err := c.validateCatalog(); err != nil {
		return err
	}
	return c.validateAuth()
}

func (c *Config) validateCatalog() error {
	if c.Catalog.Collection == "" {
		c.Catalog.Collection = store.DefaultCollection
	}
	if c.Catalog.RefreshTimeout <= 0 {
		c.Catalog.RefreshTimeout = defaultRefreshTimeout
	}

	switch c.Catalog.Store {
	case "", StorePostgres:
		c.Catalog.Store = StorePostgres
		if err := c.Database.Validate(); err != nil {
			return err
		}
	case StoreMemory:
	default:
		return fmt.Errorf("unknown catalog store %q", c.Catalog.Store)
	}

	switch c.Catalog.Feed.Driver {
	case "":
		c.Catalog.Feed.Driver = feed.DriverLocal
	case feed.DriverLocal:
	case feed.DriverNATS:
		if err := c.NATS.Validate(); err != nil {
			return err
		}
	case feed.DriverRabbitMQ:
		if err := c.RabbitMQ.Validate(); err != nil {
			return err
		}
	default:
		return fmt.Errorf("unknown feed driver %q", c.Catalog.Feed.Driver)
	}
	return nil
}

func (c *Config) validateAuth() error {
	switch c.Auth.Driver {
	case "", auth.DriverKeycloak:
		c.Auth.Driver = auth.DriverKeycloak
		return c.IdP.Validate()
	case auth.DriverLocal:
		if len(c.Auth.Local.Secret) < 32 {
			return fmt.Errorf("auth.local.secret must be at least 32 characters")
		}
		if c.Auth.Local.Issuer == "" {
			c.Auth.Local.Issuer = "unab-shop"
		}
		return nil
	default:
		return fmt.Errorf("unknown auth driver %q", c.Auth.Driver)
	}
}
