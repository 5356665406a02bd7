// Package config holds the configuration of the notification worker.
package config

import (
	"fmt"
	"strings"

	"github.com/unabstore/shop/pkg/config"
	"github.com/unabstore/shop/pkg/config/configloader"
)

var _ configloader.Validator = (*Config)(nil)

type Config struct {
	Log        config.LogConfig        `koanf:"log"`
	PProf      config.PProfConfig      `koanf:"pprof"`
	Nats       config.NATSConfig       `koanf:"nats"`
	Subscriber config.SubscriberConfig `koanf:"subscriber"`
	Probes     config.ProbesConfig     `koanf:"probes"`
	Shutdown   config.ShutdownConfig   `koanf:"shutdown"`
	Mail       config.MailConfig       `koanf:"mail"`
}

func (c *Config) String() string {
	var b strings.Builder
	for _, section := range []fmt.Stringer{&c.Nats, &c.Subscriber, &c.Mail, &c.Log, &c.PProf, &c.Probes, &c.Shutdown} {
		b.WriteString(section.String())
	}
	return b.String()
}

// Validate checks every section and fills the subscriber and probe defaults.
func (c *Config) Validate() error {
	return configloader.ValidateAll(&c.Log, &c.PProf, &c.Nats, &c.Subscriber, &c.Probes, &c.Shutdown, &c.Mail)
}
