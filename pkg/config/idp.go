package config

import (
	"errors"
	"time"
)

// IdP holds the Keycloak settings used both for account management and for token verification.
type IdP struct {
	URL         string        `koanf:"url"`
	Realm       string        `koanf:"realm"`
	ClientID    string        `koanf:"clientid"`
	Secret      string        `koanf:"secret"`
	JwksURL     string        `koanf:"jwksurl"`
	Issuer      string        `koanf:"issuer"`
	MinInterval time.Duration `koanf:"mininterval"`
}

// String never prints the client secret.
func (c *IdP) String() string {
	return newSection("Identity Provider").
		add("url", c.URL).
		add("realm", c.Realm).
		add("clientid", c.ClientID).
		add("jwksurl", c.JwksURL).
		add("issuer", c.Issuer).
		add("mininterval", c.MinInterval).
		String()
}

// Validate reports every missing setting at once.
func (c *IdP) Validate() error {
	var errs []error
	for _, f := range []struct {
		value, name string
	}{
		{c.URL, "URL"},
		{c.Realm, "realm"},
		{c.ClientID, "client ID"},
		{c.Secret, "secret"},
		{c.JwksURL, "JWKS URL"},
		{c.Issuer, "issuer"},
	} {
		if f.value == "" {
			errs = append(errs, errors.New("IdP "+f.name+" cannot be empty"))
		}
	}
	if c.MinInterval <= 0 {
		errs = append(errs, errors.New("IdP minimum interval must be greater than zero"))
	}
	return errors.Join(errs...)
}
