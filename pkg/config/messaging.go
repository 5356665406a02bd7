package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/unabstore/shop/pkg/messaging"
)

// NATSConfig is the NATS server a service connects to.
type NATSConfig struct {
	URL     string        `koanf:"url"`
	Timeout time.Duration `koanf:"timeout"`
}

func (c *NATSConfig) String() string {
	return newSection("NATS").
		add("url", MaskURL(c.URL)).
		add("timeout", c.Timeout).
		String()
}

func (c *NATSConfig) Validate() error {
	if c.URL == "" {
		return fmt.Errorf("NATS URL is not configured")
	}
	if c.Timeout <= 0 {
		return fmt.Errorf("NATS dial timeout is not configured")
	}
	return nil
}

// SubscriberConfig configures a durable pull consumer on the catalog stream.
type SubscriberConfig struct {
	Stream   string        `koanf:"stream"`
	Subject  string        `koanf:"subject"`
	Consumer string        `koanf:"consumer"`
	Batch    int           `koanf:"batch"`
	Timeout  time.Duration `koanf:"timeout"`
	Interval time.Duration `koanf:"interval"`
	Workers  int           `koanf:"workers"`
}

func (c *SubscriberConfig) String() string {
	return newSection("NATS Subscriber").
		add("stream", c.Stream).
		add("subject", c.Subject).
		add("consumer", c.Consumer).
		add("batch", c.Batch).
		add("timeout", c.Timeout).
		add("interval", c.Interval).
		add("workers", c.Workers).
		String()
}

// Validate fills the stream and subject of the catalog events when they are
// left empty. The consumer name has no default: two workers sharing one
// durable consumer split the messages between them.
func (c *SubscriberConfig) Validate() error {
	if c.Stream == "" {
		c.Stream = messaging.CatalogStream
	}
	if c.Subject == "" {
		c.Subject = messaging.ProductsAllSubject
	}
	if !strings.HasPrefix(c.Subject, messaging.ProductsSubjectPrefix) {
		return fmt.Errorf("subscriber subject %q is outside %s", c.Subject, messaging.ProductsSubjectPrefix)
	}
	switch {
	case c.Consumer == "":
		return fmt.Errorf("subscriber consumer is not configured")
	case c.Batch <= 0:
		return fmt.Errorf("subscriber batch must be greater than zero")
	case c.Timeout <= 0:
		return fmt.Errorf("subscriber timeout must be greater than zero")
	case c.Interval <= 0:
		return fmt.Errorf("subscriber interval must be greater than zero")
	case c.Workers <= 0:
		return fmt.Errorf("subscriber workers must be greater than zero")
	}
	return nil
}

// RabbitMQConfig is the broker and fanout exchange used for catalog changes.
type RabbitMQConfig struct {
	URL      string `koanf:"url"`
	Exchange string `koanf:"exchange"`
}

func (c *RabbitMQConfig) String() string {
	return newSection("RabbitMQ").
		add("url", MaskURL(c.URL)).
		add("exchange", c.Exchange).
		String()
}

func (c *RabbitMQConfig) Validate() error {
	if c.URL == "" {
		return fmt.Errorf("RabbitMQ URL is not configured")
	}
	if !strings.HasPrefix(c.URL, "amqp://") && !strings.HasPrefix(c.URL, "amqps://") {
		return fmt.Errorf("RabbitMQ URL must start with 'amqp://' or 'amqps://'")
	}
	if c.Exchange == "" {
		c.Exchange = messaging.CatalogExchange
	}
	return nil
}

// MailConfig is the SMTP relay used for product notifications. Disabled mail means log only.
type MailConfig struct {
	Enabled  bool   `koanf:"enabled"`
	Host     string `koanf:"host"`
	Port     int    `koanf:"port"`
	Username string `koanf:"username"`
	Password string `koanf:"password"`
	From     string `koanf:"from"`
	To       string `koanf:"to"`
}

func (c *MailConfig) String() string {
	return newSection("Mail").
		add("enabled", c.Enabled).
		add("host", c.Host).
		add("port", c.Port).
		add("username", c.Username).
		add("from", c.From).
		add("to", c.To).
		String()
}

func (c *MailConfig) Validate() error {
	if !c.Enabled {
		return nil
	}
	if c.Host == "" {
		return fmt.Errorf("mail host is not configured")
	}
	if c.Port <= 0 || c.Port > 65535 {
		return fmt.Errorf("invalid mail port: %d", c.Port)
	}
	if c.From == "" || c.To == "" {
		return fmt.Errorf("mail from and to addresses must be configured")
	}
	return nil
}
