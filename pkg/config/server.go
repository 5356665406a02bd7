package config

import (
	"fmt"
	"time"
)

// HTTPConfig configures the public REST server.
type HTTPConfig struct {
	Port           int `koanf:"port"`
	MaxHeaderBytes int `koanf:"maxHeaderBytes"`
	Timeout        struct {
		Read       time.Duration `koanf:"read"`
		Write      time.Duration `koanf:"write"`
		Idle       time.Duration `koanf:"idle"`
		ReadHeader time.Duration `koanf:"readHeader"`
	} `koanf:"timeout"`
	CORS struct {
		AllowedOrigins []string `koanf:"allowedOrigins"`
	} `koanf:"cors"`
}

func (c *HTTPConfig) String() string {
	return newSection("HTTP Server").
		add("port", c.Port).
		add("maxHeaderBytes", c.MaxHeaderBytes).
		add("timeout.read", c.Timeout.Read).
		add("timeout.write", c.Timeout.Write).
		add("timeout.idle", c.Timeout.Idle).
		add("timeout.readHeader", c.Timeout.ReadHeader).
		add("cors.allowedOrigins", c.CORS.AllowedOrigins).
		String()
}

// Validate checks the port and timeouts. A zero write timeout is allowed:
// catalog streams stay open longer than any request.
func (c *HTTPConfig) Validate() error {
	if c.Port <= 0 || c.Port > 65535 {
		return fmt.Errorf("invalid HTTP server port: %d", c.Port)
	}
	switch {
	case c.Timeout.Read <= 0:
		return fmt.Errorf("invalid HTTP server read timeout: %v", c.Timeout.Read)
	case c.Timeout.Write < 0:
		return fmt.Errorf("invalid HTTP server write timeout: %v", c.Timeout.Write)
	case c.Timeout.Idle <= 0:
		return fmt.Errorf("invalid HTTP server idle timeout: %v", c.Timeout.Idle)
	case c.Timeout.ReadHeader <= 0:
		return fmt.Errorf("invalid HTTP server read header timeout: %v", c.Timeout.ReadHeader)
	}
	return nil
}

// GrpcServerConfig configures the gRPC catalog server.
type GrpcServerConfig struct {
	Port              string `koanf:"port"`
	ReflectionEnabled bool   `koanf:"reflection"`
}

func (c *GrpcServerConfig) String() string {
	return newSection("gRPC Server").
		add("port", c.Port).
		add("reflection", c.ReflectionEnabled).
		String()
}

func (c *GrpcServerConfig) Validate() error {
	if c.Port == "" {
		return fmt.Errorf("gRPC port is not configured")
	}
	return nil
}
