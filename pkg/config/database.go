package config

import (
	"fmt"
	"strings"
	"time"
)

// DatabaseConfig is the PostgreSQL database holding the product collections.
type DatabaseConfig struct {
	URL      string        `koanf:"url"`
	Timeout  time.Duration `koanf:"timeout"`
	Migrate  bool          `koanf:"migrate"`
	MaxConns int32         `koanf:"maxconns"`
}

func (c *DatabaseConfig) String() string {
	return newSection("Database").
		add("url", MaskURL(c.URL)).
		add("timeout", c.Timeout).
		add("migrate", c.Migrate).
		add("maxconns", c.MaxConns).
		String()
}

func (c *DatabaseConfig) Validate() error {
	if c.URL == "" {
		return fmt.Errorf("database URL is not configured")
	}
	if !strings.HasPrefix(c.URL, "postgres://") && !strings.HasPrefix(c.URL, "postgresql://") {
		return fmt.Errorf("database URL must start with 'postgres://': %s", MaskURL(c.URL))
	}
	if c.Timeout <= 0 {
		return fmt.Errorf("database connect timeout must be greater than zero")
	}
	if c.MaxConns < 0 {
		return fmt.Errorf("database maxconns must not be negative")
	}
	return nil
}
